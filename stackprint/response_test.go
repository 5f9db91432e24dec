package stackprint

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCookieParsing(t *testing.T) {
	h := http.Header{}
	h.Add("Set-Cookie", "foo=bar; Path=/")
	h.Add("Set-Cookie", "PHPSESSID=abc123; Path=/; HttpOnly")
	h.Add("Set-Cookie", "notacookie")
	h.Add("Set-Cookie", "foo=baz")

	resp := NewFetchedResponse(200, h, "")
	assert.Equal(t, map[string]string{"foo": "baz", "PHPSESSID": "abc123"}, resp.Cookies)
}

func TestNewFetchedResponseCopiesHeaders(t *testing.T) {
	h := http.Header{}
	h.Set("X-Frame-Options", "DENY")
	resp := NewFetchedResponse(200, h, "")

	h.Set("X-Frame-Options", "ALLOW")
	assert.Equal(t, "DENY", resp.Header.Get("x-frame-options"))

	empty := NewFetchedResponse(204, nil, "")
	assert.NotNil(t, empty.Header)
	assert.Empty(t, empty.Cookies)
}

func TestSucceeded(t *testing.T) {
	for status, want := range map[int]bool{
		200: true, 204: true, 299: true,
		199: false, 301: false, 404: false, 500: false,
	} {
		assert.Equal(t, want, NewFetchedResponse(status, nil, "").Succeeded(), "status %d", status)
	}
}

func TestScripts(t *testing.T) {
	body := `<!DOCTYPE html><html><head>
	<script src="https://cdn.example.com/jquery-3.6.0.min.js"></script>
	<script>inline()</script>
	</head><body>
	<SCRIPT SRC="/static/app.js"></SCRIPT>
	<script src="">/* empty src */</script>
	</body></html>`

	resp := NewFetchedResponse(200, nil, body)
	want := []ScriptElement{
		{Src: "https://cdn.example.com/jquery-3.6.0.min.js", HasSrc: true},
		{Src: "", HasSrc: false},
		{Src: "/static/app.js", HasSrc: true},
		{Src: "", HasSrc: true},
	}
	assert.Equal(t, want, resp.Scripts())

	// Callers get a copy; the snapshot stays intact.
	got := resp.Scripts()
	got[0].Src = "changed"
	assert.Equal(t, want, resp.Scripts())
}

func TestScriptsMalformedHTML(t *testing.T) {
	resp := NewFetchedResponse(200, nil, `<div><script src="/react.js"><p>unterminated`)
	scripts := resp.Scripts()
	if assert.Len(t, scripts, 1) {
		assert.Equal(t, "/react.js", scripts[0].Src)
	}
}

func TestASCIILower(t *testing.T) {
	assert.Equal(t, "wp-content/themes/", asciiLower("WP-Content/THEMES/"))
	// Non-ASCII bytes keep their length so offsets stay valid.
	in := "ÄÖ Node.JS"
	out := asciiLower(in)
	assert.Equal(t, len(in), len(out))
	assert.Equal(t, "ÄÖ node.js", out)
	assert.True(t, containsFold("X-Powered-By: EXPRESS", "express"))
	assert.False(t, containsFold("", "express"))
}
