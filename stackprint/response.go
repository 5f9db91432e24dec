package stackprint

import (
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

// ScriptElement describes one <script> element found in the body.
type ScriptElement struct {
	Src    string
	HasSrc bool
}

// FetchedResponse is a snapshot of one HTTP exchange.
//
// Script elements and the case-folded body are computed on first use and
// cached, so the exported fields must not be modified once the response has
// been handed to a Client. A FetchedResponse must be passed by pointer.
type FetchedResponse struct {
	StatusCode int
	URL        string      // final URL after redirects, if known
	Header     http.Header // canonical, case-insensitive keys
	Cookies    map[string]string
	Body       string
	Truncated  bool // body was cut at the fetcher's size limit

	scriptsOnce sync.Once
	scripts     []ScriptElement

	lowerOnce sync.Once
	lowerBody string
}

// NewFetchedResponse builds a snapshot from a status, response headers and body
// text. Cookies are parsed from the Set-Cookie headers.
func NewFetchedResponse(statusCode int, header http.Header, body string) *FetchedResponse {
	if header == nil {
		header = http.Header{}
	} else {
		header = header.Clone()
	}
	return &FetchedResponse{
		StatusCode: statusCode,
		Header:     header,
		Cookies:    parseCookies(header),
		Body:       body,
	}
}

// Succeeded reports whether the response carries a 2xx status.
func (r *FetchedResponse) Succeeded() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Scripts returns the script elements of the body in document order.
// The body is parsed on first call; an unparsable body yields no elements.
func (r *FetchedResponse) Scripts() []ScriptElement {
	r.scriptsOnce.Do(func() {
		r.scripts = collectScripts(r.Body)
	})
	return slices.Clone(r.scripts)
}

func (r *FetchedResponse) lowerText() string {
	r.lowerOnce.Do(func() {
		r.lowerBody = asciiLower(r.Body)
	})
	return r.lowerBody
}

func collectScripts(body string) []ScriptElement {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil
	}
	var scripts []ScriptElement
	doc.Find("script").Each(func(i int, s *goquery.Selection) {
		src, exists := s.Attr("src")
		scripts = append(scripts, ScriptElement{Src: src, HasSrc: exists})
	})
	return scripts
}

// parseCookies collects cookie name -> value pairs from Set-Cookie headers.
// Malformed entries are skipped; a later duplicate name overwrites an earlier one.
func parseCookies(header http.Header) map[string]string {
	cookies := make(map[string]string)
	for _, raw := range header.Values("Set-Cookie") {
		cookie, err := http.ParseSetCookie(raw)
		if err != nil || cookie == nil {
			continue
		}
		name := strings.TrimSpace(cookie.Name)
		if name == "" {
			continue
		}
		cookies[name] = cookie.Value
	}
	return cookies
}
