package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu       sync.Mutex
	files    map[string][]byte
	failName string
}

func (s *memoryStore) Name() string { return "memory" }

func (s *memoryStore) Upload(ctx context.Context, name string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name == s.failName {
		return "", errors.New("quota exceeded")
	}
	s.files[name] = data
	return "mem://" + name, nil
}

func TestArchiveFileName(t *testing.T) {
	t.Parallel()
	require.Equal(t, "run1_01_mug.jpg", ArchiveFileName("run1", 0, "https://cdn.example.com/a/mug.png?sig=1"))
	require.Equal(t, "03_preview.jpg", ArchiveFileName("", 2, "https://cdn.example.com/"))
}

func TestPreviewArchive_ReportsPerFileFailures(t *testing.T) {
	t.Parallel()
	src := pngBytes(t, 1000, 1000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/broken.png":
			w.Write([]byte("garbage"))
		case "/gone.png":
			http.NotFound(w, r)
		default:
			w.Write(src)
		}
	}))
	t.Cleanup(server.Close)

	store := &memoryStore{files: map[string][]byte{}, failName: "run_04_rejected.jpg"}
	svc := NewPreviewArchiveService(NewImageCache(t.TempDir(), time.Second), store)

	previews := []string{
		server.URL + "/ok.png",
		server.URL + "/broken.png",
		server.URL + "/gone.png",
		server.URL + "/rejected.png",
		server.URL + "/ok.png",
	}
	report := svc.Archive(context.Background(), "run", previews)

	require.Equal(t, "memory", report.Store)
	require.Equal(t, 5, report.Total)
	require.Equal(t, 1, report.Uploaded)
	require.Equal(t, 1, report.Skipped)
	require.Len(t, report.Errors, 3)
	require.Len(t, report.Files, 1)
	require.Equal(t, "mem://run_01_ok.jpg", report.Files[0].Location)

	w, _ := decodedSize(t, store.files["run_01_ok.jpg"])
	require.Equal(t, 800, w)
}
