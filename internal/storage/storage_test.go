package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/config"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	s, err := NewLocalStorage(dir)
	require.NoError(t, err)
	ctx := context.Background()

	key := ProjectKey("abc")
	assert.Equal(t, "abc.pdf", key)

	require.NoError(t, s.Upload(ctx, key, []byte("%PDF-1.4"), "application/pdf"))
	_, err = os.Stat(filepath.Join(dir, "abc.pdf"))
	require.NoError(t, err)

	got, err := s.Download(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), got)

	require.NoError(t, s.Delete(ctx, key))
	_, err = s.Download(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)

	// deleting again is fine
	assert.NoError(t, s.Delete(ctx, key))
}

func TestLocalStorageRejectsPathKeys(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "..", "../escape.pdf", "a/b.pdf"} {
		assert.Error(t, s.Upload(context.Background(), key, []byte("x"), ""), key)
	}
}

func TestNewSelectsBackend(t *testing.T) {
	s, err := New(&config.Config{StorageBackend: config.StorageLocal, UploadDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &localStorage{}, s)

	_, err = New(&config.Config{StorageBackend: "ftp"})
	assert.Error(t, err)
}
