package publish

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hockeyscraper/pkg/config"
	"hockeyscraper/pkg/errors"
	"hockeyscraper/pkg/logger"
)

type contentsServer struct {
	mu        sync.Mutex
	sha       string
	getStatus int
	putStatus int
	// flakyPuts answers this many PUTs with 502 before succeeding
	flakyPuts int
	puts      []putRequest
	auth      []string
	paths     []string
	refs      []string
}

func (s *contentsServer) handler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auth = append(s.auth, r.Header.Get("Authorization"))
	s.paths = append(s.paths, r.URL.EscapedPath())
	w.Header().Set("Content-Type", "application/json")

	if r.URL.Path == "/user" {
		if r.Header.Get("Authorization") != "Bearer secret-token" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"message": "Bad credentials"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"login": "octocat"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.refs = append(s.refs, r.URL.Query().Get("ref"))
		if s.getStatus != 0 {
			w.WriteHeader(s.getStatus)
			json.NewEncoder(w).Encode(map[string]string{"message": "boom"})
			return
		}
		if s.sha == "" {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"message": "Not Found"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"sha": s.sha})
	case http.MethodPut:
		var req putRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		s.puts = append(s.puts, req)
		if s.flakyPuts > 0 {
			s.flakyPuts--
			w.WriteHeader(http.StatusBadGateway)
			json.NewEncoder(w).Encode(map[string]string{"message": "upstream hiccup"})
			return
		}
		if s.putStatus != 0 {
			w.WriteHeader(s.putStatus)
			json.NewEncoder(w).Encode(map[string]string{"message": "Invalid request"})
			return
		}
		status := http.StatusOK
		if req.SHA == "" {
			status = http.StatusCreated
		}
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"content": map[string]string{"sha": "newblob"},
			"commit":  map[string]string{"sha": "c0ffee"},
		})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func setup(t *testing.T, srv *contentsServer) (*Client, string) {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(srv.handler))
	t.Cleanup(ts.Close)

	cfg := config.DefaultConfig().Publish
	cfg.APIURL = ts.URL
	cfg.Owner = "octo"
	cfg.Repo = "hockey-data"
	cfg.Path = "data/active players.csv"
	cfg.Token = "secret-token"
	cfg.Timeout = 5 * time.Second
	cfg.Retries = 3
	cfg.RetryDelay = time.Millisecond

	path := filepath.Join(t.TempDir(), "players.csv")
	require.NoError(t, os.WriteFile(path, []byte("Name,Position\nA,C\n"), 0644))

	return NewClient(cfg, logger.NewNopLogger()), path
}

func TestPublishCreatesFile(t *testing.T) {
	srv := &contentsServer{}
	c, path := setup(t, srv)

	require.NoError(t, c.Publish(context.Background(), path))

	require.Len(t, srv.puts, 1)
	put := srv.puts[0]
	assert.Empty(t, put.SHA)
	assert.Equal(t, "main", put.Branch)
	assert.Equal(t, "Update player data", put.Message)

	decoded, err := base64.StdEncoding.DecodeString(put.Content)
	require.NoError(t, err)
	assert.Equal(t, "Name,Position\nA,C\n", string(decoded))

	assert.Equal(t, []string{"Bearer secret-token", "Bearer secret-token"}, srv.auth)
	assert.Equal(t, "/repos/octo/hockey-data/contents/data/active%20players.csv", srv.paths[0])
	assert.Equal(t, []string{"main"}, srv.refs)
}

func TestPublishUpdatesExistingFile(t *testing.T) {
	srv := &contentsServer{sha: "abc123"}
	c, path := setup(t, srv)

	require.NoError(t, c.Publish(context.Background(), path))
	require.Len(t, srv.puts, 1)
	assert.Equal(t, "abc123", srv.puts[0].SHA)
}

func TestPublishWithoutTokenSkips(t *testing.T) {
	srv := &contentsServer{}
	c, path := setup(t, srv)
	c.cfg.Token = ""

	assert.False(t, c.HasToken())
	require.NoError(t, c.Publish(context.Background(), path))
	assert.Empty(t, srv.paths, "no request is made without a token")
}

func TestPublishRejected(t *testing.T) {
	srv := &contentsServer{putStatus: http.StatusUnprocessableEntity}
	c, path := setup(t, srv)

	err := c.Publish(context.Background(), path)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeUpload))
	assert.Contains(t, err.Error(), "422")
	assert.Contains(t, err.Error(), "Invalid request")
}

func TestPublishRetriesServerErrors(t *testing.T) {
	srv := &contentsServer{flakyPuts: 2}
	c, path := setup(t, srv)

	require.NoError(t, c.Publish(context.Background(), path))
	assert.Len(t, srv.puts, 3)
}

func TestPublishGivesUpAfterRetries(t *testing.T) {
	srv := &contentsServer{flakyPuts: 10}
	c, path := setup(t, srv)

	err := c.Publish(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Len(t, srv.puts, 3)
}

func TestPublishLookupFailure(t *testing.T) {
	srv := &contentsServer{getStatus: http.StatusUnauthorized}
	c, path := setup(t, srv)

	err := c.Publish(context.Background(), path)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeUpload))
	assert.Empty(t, srv.puts)
	assert.Len(t, srv.refs, 1)
}

func TestPublishMissingFile(t *testing.T) {
	srv := &contentsServer{}
	c, _ := setup(t, srv)

	err := c.Publish(context.Background(), filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeUpload))
	assert.Empty(t, srv.paths)
}

func TestPublishRequiresRepo(t *testing.T) {
	srv := &contentsServer{}
	c, path := setup(t, srv)
	c.cfg.Repo = ""

	err := c.Publish(context.Background(), path)
	assert.True(t, errors.IsType(err, errors.ErrorTypeUpload))
}

func TestWhoami(t *testing.T) {
	srv := &contentsServer{}
	c, _ := setup(t, srv)

	login, err := c.Whoami(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "octocat", login)
}

func TestWhoamiBadToken(t *testing.T) {
	srv := &contentsServer{}
	ts := httptest.NewServer(http.HandlerFunc(srv.handler))
	t.Cleanup(ts.Close)

	cfg := config.DefaultConfig().Publish
	cfg.APIURL = ts.URL
	cfg.Token = "wrong"

	_, err := NewClient(cfg, logger.NewNopLogger()).Whoami(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeUpload))
	assert.Contains(t, err.Error(), "Bad credentials")
}

func TestWhoamiWithoutToken(t *testing.T) {
	cfg := config.DefaultConfig().Publish
	cfg.APIURL = "http://127.0.0.1:1"

	_, err := NewClient(cfg, logger.NewNopLogger()).Whoami(context.Background())
	assert.Error(t, err)
}
