// Package render turns fingerprint results into terminal text or JSON.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/kavinsood/stackprint/internal/signatures"
	"github.com/kavinsood/stackprint/stackprint"
)

// Mode selects the output format.
type Mode string

const (
	ModeText Mode = "text"
	ModeJSON Mode = "json"
)

// Printer writes results in one format.
type Printer struct {
	out   io.Writer
	mode  Mode
	color bool
}

// New creates a Printer. Color only affects text mode.
func New(out io.Writer, mode Mode, useColor bool) *Printer {
	if mode == "" {
		mode = ModeText
	}
	return &Printer{out: out, mode: mode, color: useColor}
}

func (p *Printer) paint(attr color.Attribute, s string) string {
	if !p.color {
		return s
	}
	c := color.New(attr)
	c.EnableColor()
	return c.Sprint(s)
}

// Results prints every result in order. JSON mode emits one array.
func (p *Printer) Results(results []stackprint.Result) error {
	if p.mode == ModeJSON {
		docs := make([]resultJSON, 0, len(results))
		for _, r := range results {
			docs = append(docs, toJSON(r))
		}
		return p.encode(docs)
	}
	for i, r := range results {
		if i > 0 {
			if _, err := fmt.Fprintln(p.out); err != nil {
				return err
			}
		}
		if err := p.Result(r); err != nil {
			return err
		}
	}
	return nil
}

// Result prints a single result.
func (p *Printer) Result(r stackprint.Result) error {
	if p.mode == ModeJSON {
		return p.encode(toJSON(r))
	}
	if r.Err != nil || r.Report == nil {
		return p.failure(r)
	}
	return p.report(r.Report)
}

type resultJSON struct {
	URL    string             `json:"url"`
	Report *stackprint.Report `json:"report,omitempty"`
	Error  *errorJSON         `json:"error,omitempty"`
}

type errorJSON struct {
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
}

func toJSON(r stackprint.Result) resultJSON {
	doc := resultJSON{URL: r.URL, Report: r.Report}
	if r.Err != nil {
		doc.Report = nil
		doc.Error = &errorJSON{Kind: string(stackprint.KindOf(r.Err)), Message: r.Err.Error()}
	}
	return doc
}

func (p *Printer) encode(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *Printer) failure(r stackprint.Result) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", p.paint(color.Bold, "URL:"), r.URL)
	b.WriteString(p.paint(color.FgRed, "The URL could not be reached or no technology information was found."))
	b.WriteString("\n")
	if r.Err != nil {
		fmt.Fprintf(&b, "Reason: %v\n", r.Err)
	}
	_, err := io.WriteString(p.out, b.String())
	return err
}

func (p *Printer) report(rep *stackprint.Report) error {
	f := rep.Findings
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n", p.paint(color.Bold, "URL:"), rep.URL)
	if rep.FinalURL != "" && rep.FinalURL != rep.URL {
		fmt.Fprintf(&b, "Final URL: %s\n", rep.FinalURL)
	}
	if rep.Server != "" {
		fmt.Fprintf(&b, "Server: %s\n", rep.Server)
	}
	b.WriteString(p.paint(color.FgCyan, "Technologies:"))
	b.WriteString("\n")

	if f.Platform.Known() {
		fmt.Fprintf(&b, "Platform: %s\n", p.paint(color.FgGreen, string(f.Platform)))
	} else {
		b.WriteString("Platform could not be determined.\n")
	}

	if f.NodeMarker != "" {
		fmt.Fprintf(&b, "Node.js: %s\n", f.NodeMarker)
	} else {
		b.WriteString("No Node.js information found.\n")
	}

	if len(f.Frameworks) > 0 {
		fmt.Fprintf(&b, "JavaScript frameworks: %s\n", strings.Join(f.Frameworks.Sorted(), ", "))
	} else {
		b.WriteString("No JavaScript frameworks found.\n")
	}

	if len(f.Libraries) > 0 {
		fmt.Fprintf(&b, "JavaScript libraries: %s\n", strings.Join(f.Libraries.Sorted(), ", "))
	} else {
		b.WriteString("No JavaScript libraries found.\n")
	}

	if f.WordPressTheme != "" {
		fmt.Fprintf(&b, "WordPress theme: %s\n", f.WordPressTheme)
	} else {
		b.WriteString("No WordPress theme found.\n")
	}

	if len(f.SecurityHeaders) > 0 {
		b.WriteString("Security headers:\n")
		names := make([]string, 0, len(f.SecurityHeaders))
		for name := range f.SecurityHeaders {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&b, "  %s: %s\n", p.paint(color.FgYellow, name), f.SecurityHeaders[name])
		}
	} else {
		b.WriteString("No security headers found.\n")
	}

	_, err := io.WriteString(p.out, b.String())
	return err
}

// Catalog lists every rule of a catalog as an aligned table.
func (p *Printer) Catalog(c *signatures.Catalog) error {
	if p.mode == ModeJSON {
		return p.encode(c)
	}

	w := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
	header := []string{"SECTION", "KIND", "PATTERN", "LABEL"}
	for i, h := range header {
		header[i] = p.paint(color.Bold, h)
	}
	if _, err := fmt.Fprintln(w, strings.Join(header, "\t")); err != nil {
		return err
	}

	row := func(cols ...string) error {
		_, err := fmt.Fprintln(w, strings.Join(cols, "\t"))
		return err
	}
	for _, g := range c.Platform {
		for _, r := range g.Rules {
			pattern := r.Pattern
			if r.Header != "" {
				pattern = r.Header + ": " + pattern
			}
			if err := row("platform/"+g.Name, string(r.Kind), pattern, r.Label); err != nil {
				return err
			}
		}
	}
	for _, r := range c.Scripts {
		if err := row("scripts/"+string(r.Category), string(r.Kind), r.Pattern, r.Label); err != nil {
			return err
		}
	}
	for _, r := range c.Body {
		if err := row("body", string(r.Kind), r.Pattern, r.Label); err != nil {
			return err
		}
	}
	if err := row("theme", "body-marker", c.ThemeMarker, "WordPress theme (forces PHP)"); err != nil {
		return err
	}
	for _, h := range c.SecurityHeaders {
		if err := row("security-headers", "header-present", h, h); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(p.out, "\n%d rules, %d security headers\n", c.RuleCount(), len(c.SecurityHeaders))
	return err
}
