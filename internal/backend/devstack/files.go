package devstack

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/aora-app/client/internal/backend"
	"github.com/aora-app/client/internal/config"
)

// FileStore implements the Files contract against an S3-compatible object
// store. Objects are keyed by bucket-scoped file id, so view URLs can be
// derived without a lookup.
type FileStore struct {
	uploader *manager.Uploader
	bucket   string
	baseURL  string
}

// NewFileStore configures an uploader targeting the provided object store.
func NewFileStore(ctx context.Context, cfg config.ObjectStoreConfig) (*FileStore, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("file store: bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}

	if strings.TrimSpace(cfg.Endpoint) != "" {
		resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, _ ...interface{}) (aws.Endpoint, error) {
			if service == s3.ServiceID {
				return aws.Endpoint{
					URL:           cfg.Endpoint,
					SigningRegion: cfg.Region,
				}, nil
			}
			return aws.Endpoint{}, &aws.EndpointNotFoundError{}
		})
		loadOpts = append(loadOpts, awsconfig.WithEndpointResolverWithOptions(resolver))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 5 * 1024 * 1024
		u.LeavePartsOnError = false
	})

	return &FileStore{
		uploader: uploader,
		bucket:   cfg.Bucket,
		baseURL:  strings.TrimSuffix(cfg.PublicBaseURL, "/"),
	}, nil
}

// CreateFile uploads the raw bytes under the bucket-scoped file id.
func (s *FileStore) CreateFile(ctx context.Context, bucketID, fileID string, upload backend.FileUpload) (backend.File, error) {
	key := objectKey(bucketID, fileID)
	if key == "" {
		return backend.File{}, fmt.Errorf("file store: empty key")
	}
	if upload.Body == nil {
		return backend.File{}, fmt.Errorf("file store upload %s: no body", key)
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   manager.ReadSeekCloser(upload.Body),
		ACL:    s3types.ObjectCannedACLPublicRead,
	}
	if upload.MIME != "" {
		input.ContentType = aws.String(upload.MIME)
	}

	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return backend.File{}, fmt.Errorf("file store upload %s: %w", key, err)
	}

	return backend.File{
		ID:       fileID,
		BucketID: bucketID,
		Name:     upload.Name,
		MIME:     upload.MIME,
		Size:     upload.Size,
	}, nil
}

// FileViewURL returns the public location of a stored object.
func (s *FileStore) FileViewURL(bucketID, fileID string) (string, error) {
	key := objectKey(bucketID, fileID)
	if key == "" {
		return "", fmt.Errorf("file store: empty key")
	}
	if s.baseURL == "" {
		return key, nil
	}
	return s.baseURL + "/" + key, nil
}

// FilePreviewURL returns the public location with the transformation
// parameters appended. The object store serves originals; a downstream
// image proxy honors the parameters.
func (s *FileStore) FilePreviewURL(bucketID, fileID string, opts backend.PreviewOptions) (string, error) {
	view, err := s.FileViewURL(bucketID, fileID)
	if err != nil {
		return "", err
	}

	params := url.Values{}
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

	if encoded := params.Encode(); encoded != "" {
		return view + "?" + encoded, nil
	}
	return view, nil
}

// InitialsURL produces a self-contained SVG avatar for the name. No hosted
// avatar service exists on a development rig, so the reference is a data URI.
func (s *FileStore) InitialsURL(name string) string {
	initials := extractInitials(name)
	svg := fmt.Sprintf(
		`<svg xmlns="http://www.w3.org/2000/svg" width="96" height="96"><rect width="96" height="96" fill="#161622"/><text x="48" y="60" font-size="40" text-anchor="middle" fill="#FF9C01">%s</text></svg>`,
		initials)
	return "data:image/svg+xml;utf8," + url.PathEscape(svg)
}

func objectKey(bucketID, fileID string) string {
	bucketID = strings.Trim(bucketID, "/")
	fileID = strings.Trim(fileID, "/")
	if bucketID == "" || fileID == "" {
		return ""
	}
	return bucketID + "/" + fileID
}

func extractInitials(name string) string {
	var initials []rune
	for _, word := range strings.Fields(name) {
		runes := []rune(word)
		initials = append(initials, runes[0])
		if len(initials) == 2 {
			break
		}
	}
	if len(initials) == 0 {
		return "?"
	}
	return strings.ToUpper(string(initials))
}
