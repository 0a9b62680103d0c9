package devstack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/aora-app/client/internal/backend"
)

// DocumentStore persists schemaless documents as JSONB rows.
type DocumentStore struct {
	pool Pool
}

// NewDocumentStore constructs a document store backed by PostgreSQL.
func NewDocumentStore(pool Pool) *DocumentStore {
	return &DocumentStore{pool: pool}
}

// CreateDocument inserts a document into the collection.
func (s *DocumentStore) CreateDocument(ctx context.Context, databaseID, collectionID, documentID string, data map[string]any) (backend.Document, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return backend.Document{}, fmt.Errorf("encode document data: %w", err)
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return backend.Document{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	createdAt := time.Now().UTC()
	_, err = conn.Exec(ctx, `
        INSERT INTO documents (id, database_id, collection_id, data, created_at)
        VALUES ($1, $2, $3, $4, $5)
    `, documentID, databaseID, collectionID, payload, createdAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return backend.Document{}, fmt.Errorf("insert document: %w", backend.ErrConflict)
		}
		return backend.Document{}, fmt.Errorf("insert document: %w", err)
	}

	return backend.Document{
		ID:           documentID,
		CollectionID: collectionID,
		CreatedAt:    createdAt,
		Data:         data,
	}, nil
}

// ListDocuments translates the predicates into SQL over the JSONB payload.
// Search is a case-insensitive substring match per term, which keeps the
// query portable across PostgreSQL and the cockroach test server.
func (s *DocumentStore) ListDocuments(ctx context.Context, databaseID, collectionID string, queries []backend.Query) ([]backend.Document, error) {
	sql := strings.Builder{}
	sql.WriteString(`
        SELECT id, collection_id, data, created_at
        FROM documents
        WHERE database_id = $1 AND collection_id = $2`)
	args := []any{databaseID, collectionID}

	orderClause := ""
	limitClause := ""

	for _, q := range queries {
		switch q.Method {
		case backend.QueryEqual:
			args = append(args, q.Attribute, fmt.Sprint(q.Value))
			sql.WriteString(fmt.Sprintf(" AND data->>$%d = $%d", len(args)-1, len(args)))
		case backend.QuerySearch:
			terms, _ := q.Value.(string)
			for _, term := range strings.Fields(terms) {
				args = append(args, q.Attribute, "%"+term+"%")
				sql.WriteString(fmt.Sprintf(" AND data->>$%d ILIKE $%d", len(args)-1, len(args)))
			}
		case backend.QueryOrderDesc:
			if q.Attribute == backend.AttrCreatedAt {
				orderClause = " ORDER BY created_at DESC"
			} else {
				args = append(args, q.Attribute)
				orderClause = fmt.Sprintf(" ORDER BY data->>$%d DESC", len(args))
			}
		case backend.QueryLimit:
			if n, ok := q.Value.(int); ok && n >= 0 {
				limitClause = " LIMIT " + strconv.Itoa(n)
			}
		default:
			return nil, fmt.Errorf("list documents: unsupported query method %q", q.Method)
		}
	}

	sql.WriteString(orderClause)
	sql.WriteString(limitClause)

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, sql.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []backend.Document
	for rows.Next() {
		var (
			doc     backend.Document
			payload []byte
		)
		if err := rows.Scan(&doc.ID, &doc.CollectionID, &payload, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if err := json.Unmarshal(payload, &doc.Data); err != nil {
			return nil, fmt.Errorf("decode document %s: %w", doc.ID, err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}
