package stackprint

import (
	"encoding/json"
	"sort"

	"github.com/kavinsood/stackprint/internal/signatures"
)

// Platform is the single backend platform label of a Findings record.
type Platform string

const (
	PlatformUnknown     Platform = signatures.PlatformUnknown
	PlatformPHP         Platform = signatures.PlatformPHP
	PlatformASPNET      Platform = signatures.PlatformASPNET
	PlatformJava        Platform = signatures.PlatformJava
	PlatformNodeExpress Platform = signatures.PlatformNodeExpress
	PlatformNode        Platform = signatures.PlatformNode
)

// Known reports whether a platform was identified.
func (p Platform) Known() bool {
	return p != "" && p != PlatformUnknown
}

// LabelSet is an unordered set of technology labels.
type LabelSet map[string]struct{}

// NewLabelSet returns a set holding the given labels.
func NewLabelSet(labels ...string) LabelSet {
	s := make(LabelSet, len(labels))
	for _, l := range labels {
		s.Add(l)
	}
	return s
}

func (s LabelSet) Add(label string) { s[label] = struct{}{} }

func (s LabelSet) Has(label string) bool {
	_, ok := s[label]
	return ok
}

// Sorted returns the labels in lexical order.
func (s LabelSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for l := range s {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// MarshalJSON encodes the set as a sorted array so output is deterministic.
func (s LabelSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON decodes an array of labels.
func (s *LabelSet) UnmarshalJSON(data []byte) error {
	var labels []string
	if err := json.Unmarshal(data, &labels); err != nil {
		return err
	}
	*s = NewLabelSet(labels...)
	return nil
}

// Findings is the result of classifying one successful response.
type Findings struct {
	Platform        Platform          `json:"platform"`
	NodeMarker      string            `json:"node,omitempty"` // "Node.js" when the body mentions it
	Frameworks      LabelSet          `json:"js_frameworks"`
	Libraries       LabelSet          `json:"js_libraries"`
	WordPressTheme  string            `json:"wordpress_theme,omitempty"`
	SecurityHeaders map[string]string `json:"security_headers"`
}

// Empty reports whether nothing at all was recognised.
func (f Findings) Empty() bool {
	return !f.Platform.Known() && f.NodeMarker == "" && len(f.Frameworks) == 0 &&
		len(f.Libraries) == 0 && f.WordPressTheme == "" && len(f.SecurityHeaders) == 0
}
