// Package memory implements backend.Provider entirely in process memory.
// It exists for tests and local development; nothing survives a restart.
package memory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aora-app/client/internal/backend"
)

type account struct {
	record   backend.Account
	password string
}

type storedFile struct {
	file backend.File
	body []byte
}

// Provider is an in-memory backend. All methods are safe for concurrent
// use. The zero value is not usable; call New.
type Provider struct {
	mu        sync.Mutex
	accounts  map[string]account            // account id -> account
	byEmail   map[string]string             // email -> account id
	documents map[string][]backend.Document // databaseID/collectionID -> docs
	files     map[string]storedFile         // bucketID/fileID -> file
	current   string                        // account id of the current session, "" when signed out
	seq       int64
	now       func() time.Time
}

// New constructs an empty in-memory provider.
func New() *Provider {
	return &Provider{
		accounts:  make(map[string]account),
		byEmail:   make(map[string]string),
		documents: make(map[string][]backend.Document),
		files:     make(map[string]storedFile),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithNowFunc overrides the time source. Useful for tests that need
// deterministic creation timestamps.
func (p *Provider) WithNowFunc(now func() time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.now = now
}

// CreateAccount registers a new account.
func (p *Provider) CreateAccount(_ context.Context, id, email, password, name string) (backend.Account, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.byEmail[email]; ok {
		return backend.Account{}, fmt.Errorf("create account %s: %w", email, backend.ErrConflict)
	}

	acct := account{
		record: backend.Account{
			ID:        id,
			Email:     email,
			Name:      name,
			CreatedAt: p.now(),
		},
		password: password,
	}
	p.accounts[id] = acct
	p.byEmail[email] = id
	return acct.record, nil
}

// CurrentAccount returns the account owning the current session.
func (p *Provider) CurrentAccount(_ context.Context) (backend.Account, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == "" {
		return backend.Account{}, backend.ErrUnauthorized
	}
	acct, ok := p.accounts[p.current]
	if !ok {
		return backend.Account{}, backend.ErrUnauthorized
	}
	return acct.record, nil
}

// CreateEmailSession authenticates and makes the session current.
func (p *Provider) CreateEmailSession(_ context.Context, email, password string) (backend.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id, ok := p.byEmail[email]
	if !ok || p.accounts[id].password != password {
		return backend.Session{}, fmt.Errorf("create session for %s: %w", email, backend.ErrUnauthorized)
	}

	p.current = id
	return backend.Session{
		ID:        uuid.NewString(),
		AccountID: id,
		ExpiresAt: p.now().Add(24 * time.Hour),
	}, nil
}

// DeleteCurrentSession signs the current account out.
func (p *Provider) DeleteCurrentSession(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == "" {
		return backend.ErrUnauthorized
	}
	p.current = ""
	return nil
}

// CreateDocument stores a document in the named collection.
func (p *Provider) CreateDocument(_ context.Context, databaseID, collectionID, documentID string, data map[string]any) (backend.Document, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := databaseID + "/" + collectionID
	for _, doc := range p.documents[key] {
		if doc.ID == documentID {
			return backend.Document{}, fmt.Errorf("create document %s: %w", documentID, backend.ErrConflict)
		}
	}

	copied := make(map[string]any, len(data))
	for k, v := range data {
		copied[k] = v
	}

	// Successive documents created within the same clock tick keep their
	// insertion order under descending-time sorts.
	p.seq++
	doc := backend.Document{
		ID:           documentID,
		CollectionID: collectionID,
		CreatedAt:    p.now().Add(time.Duration(p.seq) * time.Nanosecond),
		Data:         copied,
	}
	p.documents[key] = append(p.documents[key], doc)
	return doc, nil
}

// ListDocuments returns the documents matching every supplied predicate.
func (p *Provider) ListDocuments(_ context.Context, databaseID, collectionID string, queries []backend.Query) ([]backend.Document, error) {
	p.mu.Lock()
	docs := append([]backend.Document(nil), p.documents[databaseID+"/"+collectionID]...)
	p.mu.Unlock()

	limit := -1
	var orderAttr string

	for _, q := range queries {
		switch q.Method {
		case backend.QueryEqual:
			attr := q.Attribute
			want := fmt.Sprint(q.Value)
			docs = filterDocs(docs, func(d backend.Document) bool {
				return fmt.Sprint(d.Data[attr]) == want
			})
		case backend.QuerySearch:
			attr := q.Attribute
			terms, _ := q.Value.(string)
			docs = filterDocs(docs, func(d backend.Document) bool {
				return matchesSearch(d.String(attr), terms)
			})
		case backend.QueryOrderDesc:
			orderAttr = q.Attribute
		case backend.QueryLimit:
			if n, ok := q.Value.(int); ok {
				limit = n
			}
		default:
			return nil, fmt.Errorf("list documents: unsupported query method %q", q.Method)
		}
	}

	if orderAttr != "" {
		sortDocsDesc(docs, orderAttr)
	}
	if limit >= 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

// CreateFile stores the uploaded bytes under the given id.
func (p *Provider) CreateFile(_ context.Context, bucketID, fileID string, upload backend.FileUpload) (backend.File, error) {
	body, err := readAll(upload)
	if err != nil {
		return backend.File{}, fmt.Errorf("read upload %s: %w", upload.Name, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	key := bucketID + "/" + fileID
	if _, ok := p.files[key]; ok {
		return backend.File{}, fmt.Errorf("create file %s: %w", fileID, backend.ErrConflict)
	}

	file := backend.File{
		ID:       fileID,
		BucketID: bucketID,
		Name:     upload.Name,
		MIME:     upload.MIME,
		Size:     int64(len(body)),
	}
	p.files[key] = storedFile{file: file, body: body}
	return file, nil
}

// FileViewURL returns a stable synthetic URL for the stored file.
func (p *Provider) FileViewURL(bucketID, fileID string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.files[bucketID+"/"+fileID]; !ok {
		return "", fmt.Errorf("view url for %s: %w", fileID, backend.ErrNotFound)
	}
	return "memory://" + bucketID + "/" + fileID + "/view", nil
}

// FilePreviewURL returns a synthetic preview URL carrying the requested
// transformation parameters.
func (p *Provider) FilePreviewURL(bucketID, fileID string, opts backend.PreviewOptions) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.files[bucketID+"/"+fileID]; !ok {
		return "", fmt.Errorf("preview url for %s: %w", fileID, backend.ErrNotFound)
	}

	params := url.Values{}
	params.Set("width", strconv.Itoa(opts.Width))
	params.Set("height", strconv.Itoa(opts.Height))
	params.Set("gravity", opts.Gravity)
	params.Set("quality", strconv.Itoa(opts.Quality))
	return "memory://" + bucketID + "/" + fileID + "/preview?" + params.Encode(), nil
}

// InitialsURL derives a deterministic avatar reference from the name.
func (p *Provider) InitialsURL(name string) string {
	return "memory://avatars/initials?" + url.Values{"name": {name}}.Encode()
}

// FileCount reports the number of stored files. Useful for tests.
func (p *Provider) FileCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.files)
}

func filterDocs(docs []backend.Document, keep func(backend.Document) bool) []backend.Document {
	out := docs[:0]
	for _, d := range docs {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out
}

func matchesSearch(value, terms string) bool {
	value = strings.ToLower(value)
	for _, term := range strings.Fields(strings.ToLower(terms)) {
		if !strings.Contains(value, term) {
			return false
		}
	}
	return strings.TrimSpace(terms) != ""
}

func sortDocsDesc(docs []backend.Document, attribute string) {
	sort.SliceStable(docs, func(i, j int) bool {
		if attribute == backend.AttrCreatedAt {
			return docs[i].CreatedAt.After(docs[j].CreatedAt)
		}
		return fmt.Sprint(docs[i].Data[attribute]) > fmt.Sprint(docs[j].Data[attribute])
	})
}

func readAll(upload backend.FileUpload) ([]byte, error) {
	if upload.Body == nil {
		return nil, errors.New("upload has no body")
	}
	return io.ReadAll(upload.Body)
}

var _ backend.Provider = (*Provider)(nil)
