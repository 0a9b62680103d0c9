package rest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"time"

	"github.com/aora-app/client/internal/backend"
	"github.com/aora-app/client/internal/logging"
)

type filePayload struct {
	ID        string    `json:"id"`
	BucketID  string    `json:"bucketId"`
	Name      string    `json:"name"`
	MIME      string    `json:"mimeType"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateFile streams the upload to the bucket as a multipart request.
func (c *Client) CreateFile(ctx context.Context, bucketID, fileID string, upload backend.FileUpload) (backend.File, error) {
	ctx, span := logging.StartSpan(ctx, "backend.files.create")
	defer span.End()

	if upload.Body == nil {
		return backend.File{}, fmt.Errorf("create file %s: upload has no body", fileID)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("fileId", fileID); err != nil {
		return backend.File{}, fmt.Errorf("encode file id field: %w", err)
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, upload.Name))
	if upload.MIME != "" {
		header.Set("Content-Type", upload.MIME)
	}
	part, err := writer.CreatePart(header)
	if err != nil {
		return backend.File{}, fmt.Errorf("create multipart section: %w", err)
	}
	if _, err := io.Copy(part, upload.Body); err != nil {
		return backend.File{}, fmt.Errorf("copy upload body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return backend.File{}, fmt.Errorf("finalize multipart body: %w", err)
	}

	path := "/buckets/" + url.PathEscape(bucketID) + "/files"

	var payload filePayload
	if err := c.do(ctx, http.MethodPost, path, &body, writer.FormDataContentType(), &payload); err != nil {
		return backend.File{}, err
	}

	return backend.File{
		ID:       payload.ID,
		BucketID: payload.BucketID,
		Name:     payload.Name,
		MIME:     payload.MIME,
		Size:     payload.Size,
	}, nil
}

// FileViewURL constructs the direct view URL for a stored file. The URL is
// derived locally; no request is made.
func (c *Client) FileViewURL(bucketID, fileID string) (string, error) {
	if bucketID == "" || fileID == "" {
		return "", fmt.Errorf("view url: bucket and file ids are required")
	}
	return fmt.Sprintf("%s/buckets/%s/files/%s/view?project=%s",
		c.endpoint, url.PathEscape(bucketID), url.PathEscape(fileID), url.QueryEscape(c.projectID)), nil
}

// FilePreviewURL constructs a preview URL carrying the transformation
// parameters for the provider's image pipeline.
func (c *Client) FilePreviewURL(bucketID, fileID string, opts backend.PreviewOptions) (string, error) {
	if bucketID == "" || fileID == "" {
		return "", fmt.Errorf("preview url: bucket and file ids are required")
	}

	params := url.Values{}
	params.Set("project", c.projectID)
	if opts.Width > 0 {
		params.Set("width", strconv.Itoa(opts.Width))
	}
	if opts.Height > 0 {
		params.Set("height", strconv.Itoa(opts.Height))
	}
	if opts.Gravity != "" {
		params.Set("gravity", opts.Gravity)
	}
	if opts.Quality > 0 {
		params.Set("quality", strconv.Itoa(opts.Quality))
	}

	return fmt.Sprintf("%s/buckets/%s/files/%s/preview?%s",
		c.endpoint, url.PathEscape(bucketID), url.PathEscape(fileID), params.Encode()), nil
}

// InitialsURL derives the provider's initials avatar endpoint for a name.
func (c *Client) InitialsURL(name string) string {
	params := url.Values{}
	params.Set("project", c.projectID)
	params.Set("name", name)
	return c.endpoint + "/avatars/initials?" + params.Encode()
}
