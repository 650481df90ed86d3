package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/tonimelisma/gdrive-go/internal/config"
	"github.com/tonimelisma/gdrive-go/internal/tokenfile"
)

const (
	testClientID    = "cli-test.apps.googleusercontent.com"
	testAccessToken = "saved-access-token"
)

// captureStdout redirects os.Stdout to a pipe and returns what fn wrote.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)

	os.Stdout = w

	t.Cleanup(func() { os.Stdout = old })

	var (
		out     []byte
		readErr error
		wg      sync.WaitGroup
	)

	wg.Add(1)

	go func() {
		defer wg.Done()
		out, readErr = io.ReadAll(r)
	}()

	fn()
	w.Close()
	wg.Wait()

	os.Stdout = old

	require.NoError(t, readErr)

	return string(out)
}

// runCLI executes the root command with args and returns its stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	cmd.SetArgs(append([]string{"--quiet"}, args...))

	var err error

	out := captureStdout(t, func() {
		err = cmd.ExecuteContext(context.Background())
	})

	return out, err
}

// fakeDrive is a minimal Drive v3 server holding files in memory.
type fakeDrive struct {
	mu       sync.Mutex
	files    map[string]map[string]any
	content  map[string]string
	children map[string][]string
	exports  []string
	uploads  []string
	status   int
	auth     []string
}

func newFakeDrive() *fakeDrive {
	return &fakeDrive{
		files: map[string]map[string]any{
			"dir1":  {"id": "dir1", "name": "Projects", "mimeType": "application/vnd.google-apps.folder"},
			"doc1":  {"id": "doc1", "name": "Plan", "mimeType": "application/vnd.google-apps.document"},
			"bin1":  {"id": "bin1", "name": "photo.jpg", "mimeType": "image/jpeg", "size": "2048"},
			"txt1":  {"id": "txt1", "name": "notes.txt", "mimeType": "text/plain", "size": "11"},
			"dup1":  {"id": "dup1", "name": "notes.txt", "mimeType": "text/plain", "size": "3"},
			"sheet": {"id": "sheet", "name": "Budget", "mimeType": "application/vnd.google-apps.spreadsheet"},
		},
		content: map[string]string{
			"bin1": "JPEGDATA",
			"txt1": "hello notes",
			"dup1": "dup",
		},
		children: map[string][]string{
			"root": {"dir1", "doc1", "bin1", "txt1"},
		},
	}
}

func (d *fakeDrive) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /files", func(w http.ResponseWriter, r *http.Request) {
		if !d.check(w, r) {
			return
		}

		q := r.URL.Query().Get("q")
		parent := strings.TrimSuffix(strings.TrimPrefix(q, "'"), "' in parents")

		d.mu.Lock()
		list := make([]map[string]any, 0)
		for _, id := range d.children[parent] {
			list = append(list, d.files[id])
		}
		d.mu.Unlock()

		writeJSON(w, map[string]any{"files": list})
	})

	mux.HandleFunc("GET /files/{id}", func(w http.ResponseWriter, r *http.Request) {
		if !d.check(w, r) {
			return
		}

		id := r.PathValue("id")

		d.mu.Lock()
		meta, ok := d.files[id]
		body := d.content[id]
		d.mu.Unlock()

		if !ok {
			http.Error(w, `{"error":{"code":404}}`, http.StatusNotFound)
			return
		}

		if r.URL.Query().Get("alt") == "media" {
			w.Header().Set("Content-Type", fmt.Sprint(meta["mimeType"]))
			_, _ = io.WriteString(w, body)

			return
		}

		writeJSON(w, meta)
	})

	mux.HandleFunc("GET /files/{id}/export", func(w http.ResponseWriter, r *http.Request) {
		if !d.check(w, r) {
			return
		}

		mime := r.URL.Query().Get("mimeType")

		d.mu.Lock()
		d.exports = append(d.exports, r.PathValue("id")+"|"+mime)
		d.mu.Unlock()

		w.Header().Set("Content-Type", mime)
		_, _ = io.WriteString(w, "exported "+r.PathValue("id")+" as "+mime)
	})

	mux.HandleFunc("POST /upload/files", func(w http.ResponseWriter, r *http.Request) {
		if !d.check(w, r) {
			return
		}

		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		var meta struct {
			Name    string   `json:"name"`
			Parents []string `json:"parents"`
		}
		_ = json.Unmarshal([]byte(r.FormValue("metadata")), &meta)

		d.mu.Lock()
		d.uploads = append(d.uploads, meta.Name+"|"+strings.Join(meta.Parents, ","))
		d.mu.Unlock()

		writeJSON(w, map[string]any{"id": "new1", "name": meta.Name, "mimeType": "text/plain"})
	})

	return mux
}

func (d *fakeDrive) check(w http.ResponseWriter, r *http.Request) bool {
	d.mu.Lock()
	d.auth = append(d.auth, r.Header.Get("Authorization"))
	status := d.status
	d.mu.Unlock()

	if status != 0 {
		http.Error(w, `{"error":"forced"}`, status)
		return false
	}

	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// cliEnv points every user directory at a temp dir, writes a config file
// aimed at srvURL and saves a valid grant, so commands run without a
// browser. Returns the temp home.
func cliEnv(t *testing.T, srvURL string) string {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(home, "data"))
	t.Chdir(home)

	for _, k := range []string{
		config.EnvConfig, config.EnvDotEnv, config.EnvClientID, config.EnvClientSecret,
		config.EnvAPIKey, config.EnvProjectNumber, config.EnvScope, config.EnvSupportAllDrives,
	} {
		t.Setenv(k, "")
	}

	cfgPath := config.DefaultConfigPath()
	require.NoError(t, os.MkdirAll(filepath.Dir(cfgPath), 0o700))
	require.NoError(t, os.WriteFile(cfgPath, []byte(fmt.Sprintf(`
[oauth]
client_id = %q
client_secret = "cli-secret"
api_key = "cli-api-key"
project_number = "424242"

[drive]
base_url = %q
upload_url = %q
`, testClientID, srvURL, srvURL+"/upload")), 0o600))

	require.NoError(t, tokenfile.Save(config.DefaultTokenPath(), &tokenfile.File{
		Token: &oauth2.Token{
			AccessToken:  testAccessToken,
			RefreshToken: "refresh",
			TokenType:    "Bearer",
			Expiry:       time.Now().Add(time.Hour),
		},
		ClientID: testClientID,
		Scope:    config.DefaultConfig().OAuth.Scope,
	}))

	return home
}

func startFakeDrive(t *testing.T) (*fakeDrive, string) {
	t.Helper()

	d := newFakeDrive()
	srv := httptest.NewServer(d.handler())
	t.Cleanup(srv.Close)

	return d, srv.URL
}
