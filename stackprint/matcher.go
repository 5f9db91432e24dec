package stackprint

import (
	"net/http"
	"strings"

	"github.com/kavinsood/stackprint/internal/signatures"
)

// bodyResult holds what the body marker classifier found.
type bodyResult struct {
	themeMarker bool   // the theme path marker occurs in the body
	theme       string // segment after the marker, "" when not found
	nodeMarker  string
}

// matchPlatform runs the platform rule groups in catalog order. Inside a group
// the first matching rule wins; each later group that matches overwrites the
// accumulator, so header evidence beats cookie evidence.
func matchPlatform(cat *signatures.Catalog, cookies map[string]string, headers http.Header) Platform {
	platform := PlatformUnknown
	for _, group := range cat.Platform {
		for _, rule := range group.Rules {
			if platformRuleMatches(rule, cookies, headers) {
				platform = Platform(rule.Label)
				break
			}
		}
	}
	return platform
}

func platformRuleMatches(rule signatures.Rule, cookies map[string]string, headers http.Header) bool {
	switch rule.Kind {
	case signatures.KindCookieExact:
		_, ok := cookies[rule.Pattern]
		return ok
	case signatures.KindCookieSubstring:
		for name := range cookies {
			if containsFold(name, rule.Pattern) {
				return true
			}
		}
		return false
	case signatures.KindHeaderSubstring:
		value := strings.Join(headers.Values(rule.Header), ", ")
		return value != "" && containsFold(value, rule.Pattern)
	default:
		return false
	}
}

// matchScriptSrc tests every script src against every script rule. A single
// URL may contribute several labels.
func matchScriptSrc(cat *signatures.Catalog, scripts []ScriptElement) (frameworks, libraries LabelSet) {
	frameworks, libraries = LabelSet{}, LabelSet{}
	for _, script := range scripts {
		if !script.HasSrc {
			continue
		}
		src := asciiLower(script.Src)
		for _, rule := range cat.Scripts {
			if !strings.Contains(src, rule.Pattern) {
				continue
			}
			switch rule.Category {
			case signatures.CategoryFramework:
				frameworks.Add(rule.Label)
			case signatures.CategoryLibrary:
				libraries.Add(rule.Label)
			}
		}
	}
	return frameworks, libraries
}

// matchBody looks for the theme path marker and the body substring rules.
func matchBody(cat *signatures.Catalog, resp *FetchedResponse) bodyResult {
	var result bodyResult
	lower := resp.lowerText()

	result.theme, result.themeMarker = extractTheme(resp.Body, lower, cat.ThemeMarker)

	for _, rule := range cat.Body {
		if !strings.Contains(lower, rule.Pattern) {
			continue
		}
		if rule.Effect == signatures.EffectNodeMarker {
			result.nodeMarker = rule.Label
		}
	}
	return result
}

// extractTheme returns the path segment following the first occurrence of
// marker, up to the next '/'. When the marker is present but no '/' follows,
// or the segment is empty, the theme is reported as not found.
func extractTheme(body, lowerBody, marker string) (theme string, markerFound bool) {
	idx := strings.Index(lowerBody, marker)
	if idx < 0 {
		return "", false
	}
	start := idx + len(marker)
	end := strings.IndexByte(body[start:], '/')
	if end <= 0 {
		return "", true
	}
	return body[start : start+end], true
}

// matchSecurityHeaders copies the watch-listed headers that are present and
// non-empty. Keys use the catalog spelling; repeated headers are joined.
func matchSecurityHeaders(cat *signatures.Catalog, headers http.Header) map[string]string {
	found := make(map[string]string)
	for _, name := range cat.SecurityHeaders {
		value := strings.Join(headers.Values(name), ", ")
		if strings.TrimSpace(value) == "" {
			continue
		}
		found[name] = value
	}
	return found
}

// runAllMatchers classifies a response in the fixed order platform, scripts,
// body markers, security headers.
func runAllMatchers(cat *signatures.Catalog, resp *FetchedResponse) Findings {
	f := Findings{
		Platform: matchPlatform(cat, resp.Cookies, resp.Header),
	}

	f.Frameworks, f.Libraries = matchScriptSrc(cat, resp.Scripts())

	body := matchBody(cat, resp)
	if body.themeMarker {
		f.Platform = PlatformPHP
	}
	f.WordPressTheme = body.theme
	f.NodeMarker = body.nodeMarker

	f.SecurityHeaders = matchSecurityHeaders(cat, resp.Header)
	return f
}
