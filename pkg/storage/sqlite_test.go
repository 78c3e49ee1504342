package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hockeyscraper/pkg/config"
	"hockeyscraper/pkg/models"
)

func TestSQLiteSink(t *testing.T) {
	ctx := context.Background()
	sink, err := OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	defer sink.Close()

	require.NoError(t, sink.Write(ctx, samplePlayer("a")))
	require.NoError(t, sink.Write(ctx, samplePlayer("b")))

	n, err := sink.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var team string
	require.NoError(t, sink.db.QueryRowContext(ctx, "SELECT team FROM players WHERE name = ?;", "b").Scan(&team))
	assert.Equal(t, "Frölunda HC", team)
}

func TestSQLiteSinkReopenKeepsRows(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "players.db")

	sink, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, sink.Write(ctx, samplePlayer("a")))
	require.NoError(t, sink.Close())

	sink, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer sink.Close()

	n, err := sink.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

type failingSink struct {
	writes int
	closed bool
}

func (f *failingSink) Write(ctx context.Context, rec models.PlayerRecord) error {
	f.writes++
	return errors.New("disk full")
}

func (f *failingSink) Close() error {
	f.closed = true
	return nil
}

func TestMultiSink(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "players.csv")

	csvSink, err := OpenCSV(path, config.OutputModeFresh)
	require.NoError(t, err)
	bad := &failingSink{}

	multi := NewMultiSink(csvSink, nil, bad)
	assert.Equal(t, 2, multi.Len())

	err = multi.Write(ctx, samplePlayer("a"))
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, 1, csvSink.Rows(), "healthy sinks still receive the record")
	assert.Equal(t, 1, bad.writes)

	require.NoError(t, multi.Close())
	assert.True(t, bad.closed)
}
