package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ecoshop_back_end/internal/models"
)

// fakeImages records uploads and removals and can be told to fail the nth upload.
type fakeImages struct {
	mu       sync.Mutex
	uploaded []models.Image
	removed  []string
	failAt   int
	calls    int
}

func (f *fakeImages) Upload(_ context.Context, localPath, folder string) (models.Image, error) {
	defer os.Remove(localPath)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failAt > 0 && f.calls == f.failAt {
		return models.Image{}, errors.New("store down")
	}
	img := models.Image{PublicID: folder + "/" + filepath.Base(localPath), URL: "https://img.test/" + filepath.Base(localPath)}
	f.uploaded = append(f.uploaded, img)
	return img, nil
}

func (f *fakeImages) Remove(_ context.Context, publicID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, publicID)
	return nil
}

type mockSearch struct {
	mock.Mock
}

func (m *mockSearch) Index(ctx context.Context, p *models.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockSearch) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockSearch) Search(ctx context.Context, keyword string, size int) ([]string, error) {
	args := m.Called(ctx, keyword, size)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Send(ctx context.Context, to, subject, body string) error {
	return m.Called(ctx, to, subject, body).Error(0)
}

func tempFiles(t *testing.T, names ...string) []string {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, 0, len(names))
	for _, n := range names {
		p := filepath.Join(dir, n)
		require.NoError(t, os.WriteFile(p, []byte("img"), 0o600))
		paths = append(paths, p)
	}
	return paths
}

func ptr[T any](v T) *T { return &v }
