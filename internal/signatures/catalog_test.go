package signatures

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	require.NotNil(t, c)

	assert.Equal(t, "wp-content/themes/", c.ThemeMarker)
	require.Len(t, c.Platform, 2)
	assert.Equal(t, "session-cookie", c.Platform[0].Name)
	assert.Equal(t, "powered-by", c.Platform[1].Name)
	assert.Len(t, c.Platform[0].Rules, 5)
	assert.Len(t, c.Platform[1].Rules, 2)
	assert.Len(t, c.Scripts, 7)
	assert.Len(t, c.Body, 1)
	assert.Equal(t, []string{
		"Strict-Transport-Security",
		"Content-Security-Policy",
		"X-Content-Type-Options",
		"X-Frame-Options",
		"X-XSS-Protection",
	}, c.SecurityHeaders)
	assert.Equal(t, 15, c.RuleCount())

	// Default is built once and shared.
	assert.Same(t, c, Default())
}

func TestDefaultCatalogKeepsExactCookieCase(t *testing.T) {
	c := Default()
	first := c.Platform[0].Rules
	assert.Equal(t, "PHPSESSID", first[0].Pattern)
	assert.Equal(t, "ASP.NET_SessionId", first[1].Pattern)
	assert.Equal(t, "JSESSIONID", first[2].Pattern)
}

func TestCatalogClone(t *testing.T) {
	orig := Default()
	c := orig.Clone()
	require.NotSame(t, orig, c)
	assert.Equal(t, orig, c)

	c.Platform[0].Rules[0].Pattern = "changed"
	c.Scripts[0].Label = "changed"
	c.SecurityHeaders[0] = "changed"
	c.ThemeMarker = "changed/"

	assert.Equal(t, "PHPSESSID", orig.Platform[0].Rules[0].Pattern)
	assert.NotEqual(t, "changed", orig.Scripts[0].Label)
	assert.Equal(t, "Strict-Transport-Security", orig.SecurityHeaders[0])
	assert.Equal(t, "wp-content/themes/", orig.ThemeMarker)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{
			name: "valid minimal catalog",
			input: `
theme_marker: wp-content/themes/
platform:
  - group: cookies
    rules:
      - {kind: cookie-name-exact, pattern: PHPSESSID, label: PHP}
scripts:
  - {kind: script-url-substring, pattern: jquery, label: jQuery, category: library}
security_headers: [X-Frame-Options]
`,
		},
		{
			name:    "invalid YAML",
			input:   "platform: [",
			wantErr: true,
		},
		{
			name: "unknown platform label",
			input: `
theme_marker: wp-content/themes/
platform:
  - group: cookies
    rules:
      - {kind: cookie-name-exact, pattern: RAILS, label: Ruby}
security_headers: [X-Frame-Options]
`,
			wantErr: true,
		},
		{
			name: "script rule without category",
			input: `
theme_marker: wp-content/themes/
scripts:
  - {kind: script-url-substring, pattern: ember, label: Ember.js}
security_headers: [X-Frame-Options]
`,
			wantErr: true,
		},
		{
			name: "header rule without header name",
			input: `
theme_marker: wp-content/themes/
platform:
  - group: headers
    rules:
      - {kind: header-value-substring, pattern: express, label: Node.js}
security_headers: [X-Frame-Options]
`,
			wantErr: true,
		},
		{
			name: "body rule with unknown effect",
			input: `
theme_marker: wp-content/themes/
body:
  - {kind: body-substring, pattern: django, label: Django, effect: platform}
security_headers: [X-Frame-Options]
`,
			wantErr: true,
		},
		{
			name: "missing security headers",
			input: `
theme_marker: wp-content/themes/
`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name+"/bytes", func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Errorf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
		t.Run(tt.name+"/file", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "catalog.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.input), 0o644))
			_, err := Load(path)
			if (err != nil) != tt.wantErr {
				t.Errorf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	c := &Catalog{
		ThemeMarker: "  WP-Content/Themes/ ",
		Platform: []RuleGroup{{
			Name: " cookies ",
			Rules: []Rule{
				{Kind: "Cookie-Name-Exact", Pattern: " JSESSIONID ", Label: "Java"},
				{Kind: KindCookieSubstring, Pattern: "Express", Label: "Node.js (Express)"},
			},
		}},
		Scripts: []Rule{
			{Kind: KindScriptURLSubstring, Pattern: "JQuery", Label: "jQuery", Category: "Library"},
		},
		SecurityHeaders: []string{"X-Frame-Options", "x-frame-options", " ", "Content-Security-Policy"},
	}

	Normalize(c)

	assert.Equal(t, "wp-content/themes/", c.ThemeMarker)
	assert.Equal(t, "cookies", c.Platform[0].Name)
	assert.Equal(t, KindCookieExact, c.Platform[0].Rules[0].Kind)
	assert.Equal(t, "JSESSIONID", c.Platform[0].Rules[0].Pattern)
	assert.Equal(t, "express", c.Platform[0].Rules[1].Pattern)
	assert.Equal(t, "jquery", c.Scripts[0].Pattern)
	assert.Equal(t, CategoryLibrary, c.Scripts[0].Category)
	assert.Equal(t, []string{"X-Frame-Options", "Content-Security-Policy"}, c.SecurityHeaders)
	assert.NoError(t, Lint(c))
}

func TestLintCollectsAllErrors(t *testing.T) {
	c := &Catalog{
		Scripts: []Rule{
			{Kind: KindScriptURLSubstring, Pattern: "", Label: "Empty", Category: CategoryLibrary},
			{Kind: KindBodySubstring, Pattern: "x", Label: "Wrong", Category: CategoryLibrary},
		},
	}
	err := Lint(c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "4 invalid catalog entries")
	assert.Contains(t, err.Error(), "theme_marker")
	assert.Contains(t, err.Error(), "empty pattern")
	assert.Contains(t, err.Error(), "not allowed in script rules")
	assert.Contains(t, err.Error(), "security_headers")
}
