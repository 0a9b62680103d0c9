package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/aora-app/client/internal/backend"
	"github.com/aora-app/client/internal/logging"
)

type documentPayload struct {
	ID           string         `json:"id"`
	CollectionID string         `json:"collectionId"`
	CreatedAt    time.Time      `json:"createdAt"`
	Data         map[string]any `json:"data"`
}

type documentListPayload struct {
	Total     int               `json:"total"`
	Documents []documentPayload `json:"documents"`
}

func (p documentPayload) toDocument() backend.Document {
	data := p.Data
	if data == nil {
		data = map[string]any{}
	}
	return backend.Document{
		ID:           p.ID,
		CollectionID: p.CollectionID,
		CreatedAt:    p.CreatedAt,
		Data:         data,
	}
}

// CreateDocument writes a document into the collection.
func (c *Client) CreateDocument(ctx context.Context, databaseID, collectionID, documentID string, data map[string]any) (backend.Document, error) {
	ctx, span := logging.StartSpan(ctx, "backend.documents.create")
	defer span.End()

	req := struct {
		DocumentID string         `json:"documentId"`
		Data       map[string]any `json:"data"`
	}{DocumentID: documentID, Data: data}

	path := fmt.Sprintf("/databases/%s/collections/%s/documents",
		url.PathEscape(databaseID), url.PathEscape(collectionID))

	var payload documentPayload
	if err := c.doJSON(ctx, http.MethodPost, path, req, &payload); err != nil {
		return backend.Document{}, err
	}
	return payload.toDocument(), nil
}

// ListDocuments retrieves documents matching the supplied predicates. Each
// predicate travels as a JSON-encoded "query" parameter.
func (c *Client) ListDocuments(ctx context.Context, databaseID, collectionID string, queries []backend.Query) ([]backend.Document, error) {
	ctx, span := logging.StartSpan(ctx, "backend.documents.list")
	defer span.End()

	params := url.Values{}
	for _, q := range queries {
		encoded, err := json.Marshal(struct {
			Method    backend.QueryMethod `json:"method"`
			Attribute string              `json:"attribute,omitempty"`
			Value     any                 `json:"value,omitempty"`
		}{Method: q.Method, Attribute: q.Attribute, Value: q.Value})
		if err != nil {
			return nil, fmt.Errorf("encode query predicate: %w", err)
		}
		params.Add("query", string(encoded))
	}

	path := fmt.Sprintf("/databases/%s/collections/%s/documents",
		url.PathEscape(databaseID), url.PathEscape(collectionID))
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var payload documentListPayload
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}

	docs := make([]backend.Document, 0, len(payload.Documents))
	for _, doc := range payload.Documents {
		docs = append(docs, doc.toDocument())
	}
	return docs, nil
}
