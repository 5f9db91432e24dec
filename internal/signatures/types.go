package signatures

import "slices"

// RuleKind selects which slice of the HTTP response a rule is tested against.
type RuleKind string

const (
	KindCookieExact        RuleKind = "cookie-name-exact"
	KindCookieSubstring    RuleKind = "cookie-name-substring"
	KindHeaderSubstring    RuleKind = "header-value-substring"
	KindScriptURLSubstring RuleKind = "script-url-substring"
	KindBodySubstring      RuleKind = "body-substring"
)

// Category splits script labels into the two result sets.
type Category string

const (
	CategoryFramework Category = "framework"
	CategoryLibrary   Category = "library"
)

// Effect says what a body rule does to the findings when it fires.
type Effect string

const (
	EffectNodeMarker Effect = "node-marker"
)

// Platform labels a platform rule is allowed to produce.
const (
	PlatformUnknown     = "Unknown"
	PlatformPHP         = "PHP"
	PlatformASPNET      = "ASP.NET"
	PlatformJava        = "Java"
	PlatformNodeExpress = "Node.js (Express)"
	PlatformNode        = "Node.js"
)

var knownPlatforms = map[string]struct{}{
	PlatformUnknown:     {},
	PlatformPHP:         {},
	PlatformASPNET:      {},
	PlatformJava:        {},
	PlatformNodeExpress: {},
	PlatformNode:        {},
}

// IsKnownPlatform reports whether label belongs to the platform enum.
func IsKnownPlatform(label string) bool {
	_, ok := knownPlatforms[label]
	return ok
}

// Rule is a single (pattern, label) detection entry.
type Rule struct {
	Kind     RuleKind `yaml:"kind" json:"kind"`
	Pattern  string   `yaml:"pattern" json:"pattern"`
	Header   string   `yaml:"header,omitempty" json:"header,omitempty"` // header-value-substring only
	Label    string   `yaml:"label" json:"label"`
	Category Category `yaml:"category,omitempty" json:"category,omitempty"` // script rules only
	Effect   Effect   `yaml:"effect,omitempty" json:"effect,omitempty"`     // body rules only
}

// RuleGroup is an ordered run of platform rules where the first match wins.
type RuleGroup struct {
	Name  string `yaml:"group" json:"group"`
	Rules []Rule `yaml:"rules" json:"rules"`
}

// Catalog is the full set of detection tables. The fields are exported for
// decoding and rendering; a Catalog handed to a matcher must not be modified
// afterwards. Use Clone to get a copy that may be edited.
type Catalog struct {
	ThemeMarker     string      `yaml:"theme_marker" json:"theme_marker"`
	Platform        []RuleGroup `yaml:"platform" json:"platform"`
	Scripts         []Rule      `yaml:"scripts" json:"scripts"`
	Body            []Rule      `yaml:"body" json:"body"`
	SecurityHeaders []string    `yaml:"security_headers" json:"security_headers"`
}

// Clone returns a deep copy of the catalog.
func (c *Catalog) Clone() *Catalog {
	out := &Catalog{
		ThemeMarker:     c.ThemeMarker,
		Scripts:         slices.Clone(c.Scripts),
		Body:            slices.Clone(c.Body),
		SecurityHeaders: slices.Clone(c.SecurityHeaders),
	}
	if c.Platform != nil {
		out.Platform = make([]RuleGroup, len(c.Platform))
		for i, g := range c.Platform {
			out.Platform[i] = RuleGroup{Name: g.Name, Rules: slices.Clone(g.Rules)}
		}
	}
	return out
}

// RuleCount returns the number of rules across every table.
func (c *Catalog) RuleCount() int {
	n := len(c.Scripts) + len(c.Body)
	for _, g := range c.Platform {
		n += len(g.Rules)
	}
	return n
}
