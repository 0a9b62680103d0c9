// Package backend defines the vendor-agnostic contract for the remote
// account, document and file-storage provider the application delegates
// all durable state to. Bindings live in the sub-packages; everything
// above this package speaks only in these types.
package backend

import (
	"context"
	"io"
	"time"
)

// Account is the provider's raw account record for an authenticated user.
type Account struct {
	ID        string
	Email     string
	Name      string
	CreatedAt time.Time
}

// Session is an active authenticated connection to the provider. Secret is
// the opaque credential presented on subsequent requests; bindings that
// keep session state internally may leave it empty.
type Session struct {
	ID        string
	AccountID string
	Secret    string
	ExpiresAt time.Time
}

// Document is a schemaless record in a collection.
type Document struct {
	ID           string
	CollectionID string
	CreatedAt    time.Time
	Data         map[string]any
}

// String returns the named attribute as a string, or "" when absent or of
// another type.
func (d Document) String(attribute string) string {
	s, _ := d.Data[attribute].(string)
	return s
}

// FileUpload carries the raw bytes and descriptive metadata for a file
// being sent to storage.
type FileUpload struct {
	Name string
	MIME string
	Size int64
	Body io.Reader
}

// File is the provider's handle for a stored file.
type File struct {
	ID       string
	BucketID string
	Name     string
	MIME     string
	Size     int64
}

// PreviewOptions selects the transformation applied when requesting a
// preview URL for an image file.
type PreviewOptions struct {
	Width   int
	Height  int
	Gravity string
	Quality int
}

// Accounts exposes the provider's account and session primitives.
type Accounts interface {
	// CreateAccount registers a new account under the caller-supplied
	// unique id.
	CreateAccount(ctx context.Context, id, email, password, name string) (Account, error)
	// CurrentAccount returns the currently authenticated account.
	// ErrUnauthorized is returned when no session is active.
	CurrentAccount(ctx context.Context) (Account, error)
	// CreateEmailSession authenticates with the given credentials and makes
	// the resulting session current.
	CreateEmailSession(ctx context.Context, email, password string) (Session, error)
	// DeleteCurrentSession terminates the current session only.
	DeleteCurrentSession(ctx context.Context) error
}

// Documents exposes the provider's document collection primitives.
type Documents interface {
	CreateDocument(ctx context.Context, databaseID, collectionID, documentID string, data map[string]any) (Document, error)
	ListDocuments(ctx context.Context, databaseID, collectionID string, queries []Query) ([]Document, error)
}

// Files exposes the provider's file storage primitives.
type Files interface {
	CreateFile(ctx context.Context, bucketID, fileID string, upload FileUpload) (File, error)
	FileViewURL(bucketID, fileID string) (string, error)
	FilePreviewURL(bucketID, fileID string, opts PreviewOptions) (string, error)
}

// Avatars derives deterministic avatar references for display names.
type Avatars interface {
	InitialsURL(name string) string
}

// Provider aggregates the full backend surface a binding must implement.
type Provider interface {
	Accounts
	Documents
	Files
	Avatars
}
