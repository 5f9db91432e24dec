package signatures

import (
	"strings"
)

// Normalize prepares a freshly decoded catalog for matching.
//
// Substring patterns are folded to lower case so matchers can compare them
// against lower-cased input. Exact cookie names keep their case. Duplicate
// security header names are dropped, keeping the first spelling.
func Normalize(c *Catalog) {
	c.ThemeMarker = strings.ToLower(strings.TrimSpace(c.ThemeMarker))

	for gi := range c.Platform {
		c.Platform[gi].Name = strings.TrimSpace(c.Platform[gi].Name)
		for ri := range c.Platform[gi].Rules {
			normalizeRule(&c.Platform[gi].Rules[ri])
		}
	}
	for i := range c.Scripts {
		normalizeRule(&c.Scripts[i])
	}
	for i := range c.Body {
		normalizeRule(&c.Body[i])
	}

	seen := make(map[string]struct{}, len(c.SecurityHeaders))
	headers := c.SecurityHeaders[:0]
	for _, h := range c.SecurityHeaders {
		h = strings.TrimSpace(h)
		key := strings.ToLower(h)
		if _, dup := seen[key]; dup || h == "" {
			continue
		}
		seen[key] = struct{}{}
		headers = append(headers, h)
	}
	c.SecurityHeaders = headers
}

func normalizeRule(r *Rule) {
	r.Kind = RuleKind(strings.ToLower(strings.TrimSpace(string(r.Kind))))
	r.Pattern = strings.TrimSpace(r.Pattern)
	r.Header = strings.TrimSpace(r.Header)
	r.Label = strings.TrimSpace(r.Label)
	r.Category = Category(strings.ToLower(strings.TrimSpace(string(r.Category))))
	r.Effect = Effect(strings.ToLower(strings.TrimSpace(string(r.Effect))))
	if r.Kind != KindCookieExact {
		r.Pattern = strings.ToLower(r.Pattern)
	}
}
