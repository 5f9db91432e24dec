package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTarget(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "PHPSESSID", Value: "1"})
		w.Header().Set("X-Frame-Options", "DENY")
		fmt.Fprint(w, `<script src="/js/jquery.min.js"></script>`)
	})
	mux.HandleFunc("/missing", http.NotFound)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	args = append(args, "--log-level", "error", "--dns-preflight=false")
	code := Execute(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestScanText(t *testing.T) {
	srv := newTarget(t)

	code, out, _ := run(t, "", "scan", srv.URL)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "URL: "+srv.URL)
	assert.Contains(t, out, "Platform: PHP")
	assert.Contains(t, out, "JavaScript libraries: jQuery")
	assert.Contains(t, out, "X-Frame-Options: DENY")
	assert.NotContains(t, out, "\x1b[")
}

func TestScanJSONKeepsInputOrder(t *testing.T) {
	srv := newTarget(t)

	code, out, _ := run(t, "", "scan", "-o", "json", "-n", "3", srv.URL+"/missing", srv.URL, srv.URL+"/missing")
	assert.Equal(t, 3, code, "fetch failures exit with 3")

	var docs []struct {
		URL    string          `json:"url"`
		Report json.RawMessage `json:"report"`
		Error  *struct {
			Kind string `json:"kind"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &docs))
	require.Len(t, docs, 3)
	assert.Equal(t, srv.URL+"/missing", docs[0].URL)
	assert.Equal(t, "status", docs[0].Error.Kind)
	assert.Equal(t, srv.URL, docs[1].URL)
	assert.Nil(t, docs[1].Error)
	assert.NotEmpty(t, docs[1].Report)
	assert.Equal(t, "status", docs[2].Error.Kind)
}

func TestScanInvalidURL(t *testing.T) {
	code, out, _ := run(t, "", "scan", "ftp://example.com")
	assert.Equal(t, 2, code)
	assert.Contains(t, out, "could not be reached")
}

func TestScanRequiresURL(t *testing.T) {
	code, _, stderr := run(t, "", "scan")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "requires at least 1 arg")
}

func TestScanUsesConfigFile(t *testing.T) {
	srv := newTarget(t)
	path := filepath.Join(t.TempDir(), "stackprint.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scan:\n  output: json\n"), 0o644))

	code, out, _ := run(t, "", "scan", "--config", path, srv.URL)
	assert.Equal(t, 0, code)
	assert.True(t, json.Valid([]byte(out)), "output: %s", out)
}

func TestInvalidConfiguration(t *testing.T) {
	code, _, stderr := run(t, "", "scan", "--output", "xml", "example.com")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "load configuration")
}

func TestInteractive(t *testing.T) {
	srv := newTarget(t)
	stdin := srv.URL + "\nyes\n" + srv.URL + "/missing\nn\n"

	code, out, _ := run(t, stdin, "interactive")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "stackprint")
	assert.Equal(t, 2, strings.Count(out, "Enter the URL to analyze: "))
	assert.Contains(t, out, "Platform: PHP")
	assert.Contains(t, out, "could not be reached")
}

func TestInteractiveIsDefault(t *testing.T) {
	srv := newTarget(t)

	code, out, _ := run(t, srv.URL+"\n")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "Platform: PHP")
	assert.Contains(t, out, "Analyze another URL?")
}

func TestInteractiveStopsOnEOF(t *testing.T) {
	code, out, _ := run(t, "", "interactive")
	assert.Equal(t, 0, code)
	assert.Equal(t, 1, strings.Count(out, "Enter the URL to analyze: "))
}

func TestSignatures(t *testing.T) {
	code, out, _ := run(t, "", "signatures")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "platform/powered-by")
	assert.Contains(t, out, "15 rules, 5 security headers")

	code, out, _ = run(t, "", "signatures", "-o", "json")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, `"theme_marker": "wp-content/themes/"`)
}

func TestSignaturesCustomCatalog(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte(`
theme_marker: wp-content/themes/
platform:
  - group: cookies
    rules:
      - {kind: cookie-name-exact, pattern: laravel_session, label: PHP}
security_headers: [Referrer-Policy]
`), 0o644))
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("platform:\n  - group: x\n    rules: []\n"), 0o644))

	code, out, _ := run(t, "", "signatures", "--signatures", good)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "laravel_session")
	assert.Contains(t, out, "1 rules, 1 security headers")

	code, _, stderr := run(t, "", "signatures", "--signatures", bad)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "load signatures")
}
