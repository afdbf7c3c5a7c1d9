package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

type uploadedFile struct {
	Name        string
	Parents     []string
	MimeType    string
	ContentType string
	Data        []byte
}

// driveServer records folder lookups, folder creations and multipart uploads.
type driveServer struct {
	mu       sync.Mutex
	queries  []string
	created  []uploadedFile
	uploads  []uploadedFile
	failWith int
}

func (s *driveServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(s.failWith)
		fmt.Fprintf(w, `{"error":{"code":%d,"message":"failed"}}`, s.failWith)
		return
	}

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/drive/v3/files":
		q := r.URL.Query().Get("q")
		s.queries = append(s.queries, q)
		var files []map[string]string
		if strings.Contains(q, "name='Misc'") {
			files = append(files, map[string]string{"id": "folder-misc", "name": "Misc"})
		}
		writeDriveJSON(w, map[string]any{"files": files})
	case r.Method == http.MethodPost && r.URL.Path == "/drive/v3/files":
		var f uploadedFile
		if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.created = append(s.created, f)
		writeDriveJSON(w, map[string]string{"id": fmt.Sprintf("folder-%d", len(s.created))})
	case r.Method == http.MethodPost && r.URL.Path == "/upload/drive/v3/files":
		f, err := readMultipartUpload(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.uploads = append(s.uploads, f)
		writeDriveJSON(w, map[string]string{"id": fmt.Sprintf("file-%d", len(s.uploads))})
	default:
		http.NotFound(w, r)
	}
}

func readMultipartUpload(r *http.Request) (uploadedFile, error) {
	var f uploadedFile
	_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return f, err
	}
	mr := multipart.NewReader(r.Body, params["boundary"])
	meta, err := mr.NextPart()
	if err != nil {
		return f, err
	}
	if err := json.NewDecoder(meta).Decode(&f); err != nil {
		return f, err
	}
	media, err := mr.NextPart()
	if err != nil {
		return f, err
	}
	f.ContentType = media.Header.Get("Content-Type")
	f.Data, err = io.ReadAll(media)
	return f, err
}

func writeDriveJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newTestDrive(t *testing.T) (*Drive, *driveServer) {
	t.Helper()
	fake := &driveServer{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	d, err := NewDrive(context.Background(), srv.Client(),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		option.WithEndpoint(srv.URL+"/drive/v3/"))
	require.NoError(t, err)
	return d, fake
}

func TestNewDriveRequiresClient(t *testing.T) {
	_, err := NewDrive(context.Background(), nil, nil)
	assert.Error(t, err)
}

func TestDriveFindFolder(t *testing.T) {
	d, fake := newTestDrive(t)
	ctx := context.Background()

	id, found, err := d.FindFolder(ctx, "root123", "Misc")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "folder-misc", id)

	_, found, err = d.FindFolder(ctx, "root123", "Social")
	require.NoError(t, err)
	assert.False(t, found)

	require.Len(t, fake.queries, 2)
	assert.Equal(t, FolderQuery("root123", "Misc"), fake.queries[0])
}

func TestDriveCreateFolder(t *testing.T) {
	d, fake := newTestDrive(t)

	id, err := d.CreateFolder(context.Background(), "root123", "Misc")
	require.NoError(t, err)
	assert.Equal(t, "folder-1", id)
	require.Len(t, fake.created, 1)
	assert.Equal(t, "Misc", fake.created[0].Name)
	assert.Equal(t, FolderMimeType, fake.created[0].MimeType)
	assert.Equal(t, []string{"root123"}, fake.created[0].Parents)
}

func TestDriveUpload(t *testing.T) {
	d, fake := newTestDrive(t)

	id, err := d.Upload(context.Background(), "folder-misc", "2024-03-01-Shop-flyer.pdf", "application/pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "file-1", id)

	require.Len(t, fake.uploads, 1)
	up := fake.uploads[0]
	assert.Equal(t, "2024-03-01-Shop-flyer.pdf", up.Name)
	assert.Equal(t, []string{"folder-misc"}, up.Parents)
	assert.Equal(t, "application/pdf", up.ContentType)
	assert.Equal(t, []byte("%PDF-1.4"), up.Data)
}

func TestDriveClientErrorsKeepBreakerClosed(t *testing.T) {
	d, fake := newTestDrive(t)
	fake.failWith = http.StatusForbidden
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		_, _, err := d.FindFolder(ctx, "root123", "Misc")
		require.Error(t, err)
		assert.False(t, errors.Is(err, gobreaker.ErrOpenState))
	}
	assert.Equal(t, gobreaker.StateClosed, d.cb.State())
}

func TestDriveServerErrorsTripBreaker(t *testing.T) {
	d, fake := newTestDrive(t)
	fake.failWith = http.StatusInternalServerError
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := d.CreateFolder(ctx, "root123", "Misc")
		require.Error(t, err)
	}
	_, err := d.CreateFolder(ctx, "root123", "Misc")
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
}
