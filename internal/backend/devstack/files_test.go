package devstack

import (
	"strings"
	"testing"

	"github.com/aora-app/client/internal/backend"
)

func TestObjectKey(t *testing.T) {
	cases := []struct {
		bucketID, fileID, want string
	}{
		{"media", "file-1", "media/file-1"},
		{"/media/", "file-1/", "media/file-1"},
		{"", "file-1", ""},
		{"media", "", ""},
	}
	for _, tc := range cases {
		if got := objectKey(tc.bucketID, tc.fileID); got != tc.want {
			t.Errorf("objectKey(%q, %q) = %q, want %q", tc.bucketID, tc.fileID, got, tc.want)
		}
	}
}

func TestExtractInitials(t *testing.T) {
	cases := []struct {
		name, want string
	}{
		{"Ada Lovelace", "AL"},
		{"ada", "A"},
		{"ada lovelace byron", "AL"},
		{"  ", "?"},
		{"", "?"},
	}
	for _, tc := range cases {
		if got := extractInitials(tc.name); got != tc.want {
			t.Errorf("extractInitials(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestFileStoreURLs(t *testing.T) {
	store := &FileStore{bucket: "aora-dev", baseURL: "https://media.dev.local"}

	view, err := store.FileViewURL("media", "file-1")
	if err != nil {
		t.Fatalf("view url: %v", err)
	}
	if view != "https://media.dev.local/media/file-1" {
		t.Fatalf("view url = %q", view)
	}

	preview, err := store.FilePreviewURL("media", "file-1", backend.PreviewOptions{
		Width: 2000, Height: 2000, Gravity: "top", Quality: 100,
	})
	if err != nil {
		t.Fatalf("preview url: %v", err)
	}
	for _, want := range []string{"width=2000", "height=2000", "gravity=top", "quality=100"} {
		if !strings.Contains(preview, want) {
			t.Fatalf("preview url %q missing %q", preview, want)
		}
	}

	plain, err := store.FilePreviewURL("media", "file-1", backend.PreviewOptions{})
	if err != nil {
		t.Fatalf("preview url without options: %v", err)
	}
	if plain != view {
		t.Fatalf("expected bare view url, got %q", plain)
	}

	if _, err := store.FileViewURL("", "file-1"); err == nil {
		t.Fatal("expected error for empty bucket id")
	}
}

func TestInitialsURLIsDataURI(t *testing.T) {
	store := &FileStore{}

	got := store.InitialsURL("Ada Lovelace")
	if !strings.HasPrefix(got, "data:image/svg+xml;utf8,") {
		t.Fatalf("expected data uri, got %q", got)
	}
	if !strings.Contains(got, "AL") {
		t.Fatalf("expected initials in payload, got %q", got)
	}
}
