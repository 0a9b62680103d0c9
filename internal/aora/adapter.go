// Package aora is the application's backend client adapter: it translates
// domain-level requests (sign-up, feeds, uploads) into calls against the
// vendor-agnostic backend contract and normalizes results and errors into
// the shapes the rest of the application consumes.
package aora

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/aora-app/client/internal/backend"
	"github.com/aora-app/client/internal/logging"
	"github.com/aora-app/client/internal/models"
)

// DefaultLatestLimit caps the home screen's trending rail.
const DefaultLatestLimit = 7

// Image previews are requested square at full quality, anchored to the top
// of the frame.
var imagePreview = backend.PreviewOptions{Width: 2000, Height: 2000, Gravity: "top", Quality: 100}

// Document attribute names shared with the provider's collections.
const (
	attrAccountID = "accountId"
	attrEmail     = "email"
	attrUsername  = "username"
	attrAvatar    = "avatar"
	attrTitle     = "title"
	attrPrompt    = "prompt"
	attrThumbnail = "thumbnail"
	attrVideo     = "video"
	attrCreator   = "creator"
)

// Target names the provider-side containers the adapter operates on.
// Immutable after construction; safe for concurrent use.
type Target struct {
	DatabaseID        string
	UserCollectionID  string
	VideoCollectionID string
	StorageID         string
}

// Adapter exposes the Aora domain operations on top of a backend provider.
type Adapter struct {
	target   Target
	provider backend.Provider
}

// New constructs an Adapter for the given provider and target identifiers.
func New(provider backend.Provider, target Target) *Adapter {
	if provider == nil {
		panic("aora: provider must not be nil")
	}
	return &Adapter{target: target, provider: provider}
}

// UploadForm carries the user input for a new video post.
type UploadForm struct {
	Title     string
	Prompt    string
	Thumbnail backend.FileUpload
	Video     backend.FileUpload
	CreatorID string
}

// CreateAccount registers a new account and signs it in.
//
// The sequence is strict: account creation, avatar derivation, an explicit
// sign-in with the same credentials, then the profile document write. A
// failure aborts the remaining steps. There is no compensation: a failure
// after account creation leaves the provider account orphaned.
func (a *Adapter) CreateAccount(ctx context.Context, email, password, username string) (models.Identity, error) {
	ctx, span := logging.StartSpan(ctx, "aora.create_account")
	defer span.End()

	account, err := a.provider.CreateAccount(ctx, uuid.NewString(), email, password, username)
	if err != nil {
		return models.Identity{}, fmt.Errorf("%w: %w", ErrAccountCreation, err)
	}
	if account.ID == "" {
		return models.Identity{}, fmt.Errorf("%w: provider returned no account handle", ErrAccountCreation)
	}

	avatarURL := a.provider.InitialsURL(username)

	if _, err := a.SignIn(ctx, email, password); err != nil {
		return models.Identity{}, err
	}

	doc, err := a.provider.CreateDocument(ctx, a.target.DatabaseID, a.target.UserCollectionID, uuid.NewString(), map[string]any{
		attrAccountID: account.ID,
		attrEmail:     email,
		attrUsername:  username,
		attrAvatar:    avatarURL,
	})
	if err != nil {
		return models.Identity{}, fmt.Errorf("%w: write profile document: %w", ErrAccountCreation, err)
	}

	return identityFromDocument(doc), nil
}

// SignIn establishes a session with the given credentials.
func (a *Adapter) SignIn(ctx context.Context, email, password string) (backend.Session, error) {
	ctx, span := logging.StartSpan(ctx, "aora.sign_in")
	defer span.End()

	session, err := a.provider.CreateEmailSession(ctx, email, password)
	if err != nil {
		return backend.Session{}, fmt.Errorf("%w: %w", ErrAuthentication, err)
	}
	return session, nil
}

// SignOut terminates the current session only.
func (a *Adapter) SignOut(ctx context.Context) error {
	ctx, span := logging.StartSpan(ctx, "aora.sign_out")
	defer span.End()

	if err := a.provider.DeleteCurrentSession(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrSession, err)
	}
	return nil
}

// IdentityStatus tags the outcome of an identity resolution.
type IdentityStatus int

const (
	// IdentityUnauthenticated covers both "no session" and "no profile
	// document": a normal outcome, never an error.
	IdentityUnauthenticated IdentityStatus = iota
	IdentityAuthenticated
	// IdentityLookupFailed reports a provider or network failure; the
	// cause is carried alongside so callers can distinguish it from a
	// plain logout.
	IdentityLookupFailed
)

// IdentityResult is the tagged outcome of ResolveIdentity.
type IdentityResult struct {
	Status   IdentityStatus
	Identity *models.Identity
	Err      error
}

// ResolveIdentity resolves the currently authenticated identity in two
// steps: the provider's current account, then the profile document whose
// accountId equals the account's id (exact match).
func (a *Adapter) ResolveIdentity(ctx context.Context) IdentityResult {
	ctx, span := logging.StartSpan(ctx, "aora.resolve_identity")
	defer span.End()

	account, err := a.provider.CurrentAccount(ctx)
	if err != nil {
		if isUnauthorized(err) {
			return IdentityResult{Status: IdentityUnauthenticated}
		}
		return IdentityResult{Status: IdentityLookupFailed, Err: fmt.Errorf("current account: %w", err)}
	}

	docs, err := a.provider.ListDocuments(ctx, a.target.DatabaseID, a.target.UserCollectionID, []backend.Query{
		backend.Equal(attrAccountID, account.ID),
	})
	if err != nil {
		return IdentityResult{Status: IdentityLookupFailed, Err: fmt.Errorf("profile lookup: %w", err)}
	}
	if len(docs) == 0 {
		return IdentityResult{Status: IdentityUnauthenticated}
	}

	identity := identityFromDocument(docs[0])
	return IdentityResult{Status: IdentityAuthenticated, Identity: &identity}
}

// CurrentIdentity is the convenience form of ResolveIdentity: lookup
// failures are logged and collapsed into the absent result, matching the
// adapter's historical contract. Absent is signalled by a nil Identity and
// a nil error.
func (a *Adapter) CurrentIdentity(ctx context.Context) (*models.Identity, error) {
	result := a.ResolveIdentity(ctx)
	if result.Status == IdentityLookupFailed {
		logging.FromContext(ctx).Error("identity lookup failed, treating as signed out", "error", result.Err)
	}
	return result.Identity, nil
}

// ListPosts returns every video post, newest first.
func (a *Adapter) ListPosts(ctx context.Context) ([]models.VideoPost, error) {
	return a.listVideos(ctx, "list posts",
		backend.OrderDesc(backend.AttrCreatedAt),
	)
}

// ListLatestPosts returns the most recent posts capped at limit; a
// non-positive limit falls back to DefaultLatestLimit.
func (a *Adapter) ListLatestPosts(ctx context.Context, limit int) ([]models.VideoPost, error) {
	if limit <= 0 {
		limit = DefaultLatestLimit
	}
	return a.listVideos(ctx, "list latest posts",
		backend.OrderDesc(backend.AttrCreatedAt),
		backend.Limit(limit),
	)
}

// SearchPosts full-text matches the query against post titles. Ordering is
// the provider's relevance order.
func (a *Adapter) SearchPosts(ctx context.Context, query string) ([]models.VideoPost, error) {
	return a.listVideos(ctx, "search posts",
		backend.Search(attrTitle, query),
	)
}

// ListUserPosts returns the posts created by the given profile, newest
// first.
func (a *Adapter) ListUserPosts(ctx context.Context, userID string) ([]models.VideoPost, error) {
	return a.listVideos(ctx, "list user posts",
		backend.Equal(attrCreator, userID),
		backend.OrderDesc(backend.AttrCreatedAt),
	)
}

func (a *Adapter) listVideos(ctx context.Context, op string, queries ...backend.Query) ([]models.VideoPost, error) {
	ctx, span := logging.StartSpan(ctx, "aora.list_videos")
	defer span.End()

	docs, err := a.provider.ListDocuments(ctx, a.target.DatabaseID, a.target.VideoCollectionID, queries)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrQuery, op, err)
	}

	posts := make([]models.VideoPost, 0, len(docs))
	for _, doc := range docs {
		posts = append(posts, postFromDocument(doc))
	}
	return posts, nil
}

// FileKind selects the display URL produced for an uploaded file.
type FileKind string

const (
	KindImage FileKind = "image"
	KindVideo FileKind = "video"
)

// UploadFile stores the file under a fresh unique id and returns its
// display URL: a direct view URL for videos, a fixed-transformation preview
// URL for images. The kind is validated before any provider call.
func (a *Adapter) UploadFile(ctx context.Context, upload backend.FileUpload, kind FileKind) (string, error) {
	if kind != KindImage && kind != KindVideo {
		return "", fmt.Errorf("%w: %q", ErrInvalidFileKind, kind)
	}

	ctx, span := logging.StartSpan(ctx, "aora.upload_file")
	defer span.End()

	fileID := uuid.NewString()
	file, err := a.provider.CreateFile(ctx, a.target.StorageID, fileID, upload)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrUpload, upload.Name, err)
	}
	if file.ID == "" {
		return "", fmt.Errorf("%w: provider returned no file handle for %s", ErrUpload, upload.Name)
	}

	var fileURL string
	switch kind {
	case KindVideo:
		fileURL, err = a.provider.FileViewURL(a.target.StorageID, file.ID)
	case KindImage:
		fileURL, err = a.provider.FilePreviewURL(a.target.StorageID, file.ID, imagePreview)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrPreview, file.ID, err)
	}
	if strings.TrimSpace(fileURL) == "" {
		return "", fmt.Errorf("%w: provider returned no url for %s", ErrPreview, file.ID)
	}

	return fileURL, nil
}

// CreateVideoPost uploads the thumbnail and video concurrently, waits for
// both, and only then writes the post document referencing the two URLs.
// Either upload failing skips the document write.
func (a *Adapter) CreateVideoPost(ctx context.Context, form UploadForm) (models.VideoPost, error) {
	ctx, span := logging.StartSpan(ctx, "aora.create_video_post")
	defer span.End()

	var thumbnailURL, videoURL string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		url, err := a.UploadFile(gctx, form.Thumbnail, KindImage)
		if err != nil {
			return fmt.Errorf("thumbnail: %w", err)
		}
		thumbnailURL = url
		return nil
	})
	g.Go(func() error {
		url, err := a.UploadFile(gctx, form.Video, KindVideo)
		if err != nil {
			return fmt.Errorf("video: %w", err)
		}
		videoURL = url
		return nil
	})
	if err := g.Wait(); err != nil {
		return models.VideoPost{}, err
	}

	doc, err := a.provider.CreateDocument(ctx, a.target.DatabaseID, a.target.VideoCollectionID, uuid.NewString(), map[string]any{
		attrTitle:     form.Title,
		attrPrompt:    form.Prompt,
		attrThumbnail: thumbnailURL,
		attrVideo:     videoURL,
		attrCreator:   form.CreatorID,
	})
	if err != nil {
		return models.VideoPost{}, fmt.Errorf("%w: write video post: %w", ErrQuery, err)
	}

	return postFromDocument(doc), nil
}

func identityFromDocument(doc backend.Document) models.Identity {
	return models.Identity{
		ID:        doc.ID,
		AccountID: doc.String(attrAccountID),
		Email:     doc.String(attrEmail),
		Username:  doc.String(attrUsername),
		AvatarURL: doc.String(attrAvatar),
		CreatedAt: doc.CreatedAt,
	}
}

func postFromDocument(doc backend.Document) models.VideoPost {
	return models.VideoPost{
		ID:           doc.ID,
		Title:        doc.String(attrTitle),
		Prompt:       doc.String(attrPrompt),
		ThumbnailURL: doc.String(attrThumbnail),
		VideoURL:     doc.String(attrVideo),
		CreatorID:    doc.String(attrCreator),
		CreatedAt:    doc.CreatedAt,
	}
}

func isUnauthorized(err error) bool {
	return errors.Is(err, backend.ErrUnauthorized)
}
