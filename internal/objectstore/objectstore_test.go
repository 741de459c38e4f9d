package objectstore

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guardhouse/internal/platform/config"
)

func TestExtension(t *testing.T) {
	tests := map[string]string{
		"licence.PDF":        ".pdf",
		"photo.jpeg":         ".jpeg",
		"noext":              "",
		"weird.p$f":          "",
		"archive.tar.gz":     ".gz",
		"long.abcdefghijklm": "",
	}
	for name, want := range tests {
		assert.Equal(t, want, extension(name), name)
	}
}

func TestFilesystem(t *testing.T) {
	root := t.TempDir()
	store, err := NewFilesystem(root)
	require.NoError(t, err)
	ctx := context.Background()

	ref, err := store.Put(ctx, strings.NewReader("aadhaar scan"), "aadhaar.PDF")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(ref, ".pdf"))

	data, err := os.ReadFile(filepath.Join(root, ref))
	require.NoError(t, err)
	assert.Equal(t, "aadhaar scan", string(data))

	require.NoError(t, store.Delete(ctx, ref))
	_, err = os.Stat(filepath.Join(root, ref))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Delete(ctx, ref), "deleting a missing object succeeds")
	assert.ErrorIs(t, store.Delete(ctx, "../etc/passwd"), ErrInvalidReference)
}

func TestMemory(t *testing.T) {
	store := NewMemory()
	ref, err := store.Put(context.Background(), strings.NewReader("photo"), "me.png")
	require.NoError(t, err)

	data, ok := store.Get(ref)
	require.True(t, ok)
	assert.Equal(t, "photo", string(data))

	require.NoError(t, store.Delete(context.Background(), ref))
	assert.Zero(t, store.Len())
}

func TestOpen(t *testing.T) {
	s, err := Open(context.Background(), config.Storage{Backend: BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	s, err = Open(context.Background(), config.Storage{Backend: BackendFS, UploadDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &Filesystem{}, s)

	_, err = Open(context.Background(), config.Storage{Backend: BackendS3})
	assert.Error(t, err, "s3 needs a bucket")

	_, err = Open(context.Background(), config.Storage{Backend: "ftp"})
	assert.Error(t, err)
}

// fakeS3 records requests made by the SDK against a path-style endpoint.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	methods []string
}

func (f *fakeS3) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}
	f.methods = append(f.methods, req.Method+" "+parts[0])
	status := http.StatusOK
	switch req.Method {
	case http.MethodPut:
		var body []byte
		if req.Body != nil {
			body, _ = io.ReadAll(req.Body)
		}
		f.objects[key] = body
	case http.MethodDelete:
		delete(f.objects, key)
		status = http.StatusNoContent
	default:
		status = http.StatusNotImplemented
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader(nil)),
		Header:     http.Header{"Etag": {`"etag"`}},
		Request:    req,
	}, nil
}

func TestS3(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}}
	store, err := NewS3(context.Background(), S3Config{
		Bucket:          "guard-docs",
		Endpoint:        "https://s3.test.local",
		PathStyle:       true,
		AccessKeyID:     "AKIA",
		SecretAccessKey: "SECRET",
		HTTPClient:      &http.Client{Transport: fake},
	})
	require.NoError(t, err)
	ctx := context.Background()

	ref, err := store.Put(ctx, strings.NewReader("police verification"), "verification.pdf")
	require.NoError(t, err)
	require.Contains(t, fake.objects, ref)
	assert.Contains(t, string(fake.objects[ref]), "police verification")

	require.NoError(t, store.Delete(ctx, ref))
	assert.NotContains(t, fake.objects, ref)
	assert.Equal(t, []string{"PUT guard-docs", "DELETE guard-docs"}, fake.methods)

	assert.ErrorIs(t, store.Delete(ctx, "a/b"), ErrInvalidReference)
}
