package checkpoint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hockeyscraper/pkg/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "checkpoint.txt"), logger.NewNopLogger())
}

func TestReadMissingReturnsFirstPage(t *testing.T) {
	store := newTestStore(t)
	assert.False(t, store.Exists())
	assert.Equal(t, FirstPage, store.Read())
}

func TestWriteThenRead(t *testing.T) {
	store := newTestStore(t)

	for _, page := range []int{1, 2, 26, 1400} {
		require.NoError(t, store.Write(page))
		assert.Equal(t, page, store.Read())
	}
	assert.True(t, store.Exists())

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Equal(t, "1400", string(data))

	_, err = os.Stat(store.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary file should not be left behind")
}

func TestReadInvalidContents(t *testing.T) {
	tests := []struct {
		name     string
		contents string
		want     int
	}{
		{name: "garbage", contents: "abc", want: FirstPage},
		{name: "empty", contents: "", want: FirstPage},
		{name: "zero", contents: "0", want: FirstPage},
		{name: "negative", contents: "-4", want: FirstPage},
		{name: "trailing newline", contents: "17\n", want: 17},
		{name: "surrounding spaces", contents: "  9 ", want: 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)
			require.NoError(t, os.WriteFile(store.Path(), []byte(tt.contents), 0644))
			assert.Equal(t, tt.want, store.Read())
		})
	}
}

func TestWriteCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "nested", "checkpoint.txt")
	store := NewStore(path, logger.NewNopLogger())

	require.NoError(t, store.Write(5))
	assert.Equal(t, 5, store.Read())
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Write(3))

	require.NoError(t, store.Delete())
	assert.False(t, store.Exists())
	assert.Equal(t, FirstPage, store.Read())

	// Deleting twice is not an error
	assert.NoError(t, store.Delete())
}
