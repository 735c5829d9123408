package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dimitrije/dashboard-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocal(t *testing.T, publicURL string) *LocalStorage {
	t.Helper()
	s, err := NewLocal(config.LocalStorageConfig{
		BasePath:  filepath.Join(t.TempDir(), "uploads"),
		PublicURL: publicURL,
	})
	require.NoError(t, err)
	return s
}

func TestLocalStorage_UploadReplaceDelete(t *testing.T) {
	s := newLocal(t, "http://localhost:8080/uploads")
	ctx := context.Background()

	require.NoError(t, s.Upload(ctx, "avatars/u1-1.png", strings.NewReader("first"), 5, "image/png"))
	require.NoError(t, s.Upload(ctx, "avatars/u1-1.png", strings.NewReader("second"), 6, "image/png"))

	data, err := os.ReadFile(filepath.Join(s.BasePath(), "avatars", "u1-1.png"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	require.NoError(t, s.Delete(ctx, "avatars/u1-1.png"))
	_, err = os.Stat(filepath.Join(s.BasePath(), "avatars", "u1-1.png"))
	assert.True(t, os.IsNotExist(err))

	// deleting twice is fine
	assert.NoError(t, s.Delete(ctx, "avatars/u1-1.png"))
}

func TestLocalStorage_RejectsTraversal(t *testing.T) {
	s := newLocal(t, "")

	for _, key := range []string{"", "../escape.png", "avatars/../../x", "avatars//x"} {
		err := s.Upload(context.Background(), key, strings.NewReader("x"), 1, "")
		assert.Error(t, err, key)
	}
}

func TestLocalStorage_PublicURL(t *testing.T) {
	url, err := newLocal(t, "http://localhost:8080/uploads/").PublicURL("avatars/a.png")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/uploads/avatars/a.png", url)

	_, err = newLocal(t, "").PublicURL("avatars/a.png")
	assert.ErrorIs(t, err, ErrNoPublicURL)
}

func TestNew_SelectsBackend(t *testing.T) {
	s, err := New(context.Background(), config.StorageConfig{
		Backend: "local",
		Local:   config.LocalStorageConfig{BasePath: t.TempDir()},
	})
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, s)

	_, err = New(context.Background(), config.StorageConfig{Backend: "ftp"})
	assert.Error(t, err)
}
