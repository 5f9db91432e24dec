package signatures

import (
	"fmt"
	"strings"
)

// Lint validates every table of a normalized catalog and reports all problems at once.
func Lint(c *Catalog) error {
	var errs []string

	if c.ThemeMarker == "" {
		errs = append(errs, "theme_marker must not be empty")
	}

	for _, g := range c.Platform {
		if len(g.Rules) == 0 {
			errs = append(errs, fmt.Sprintf("platform group %q has no rules", g.Name))
		}
		for _, r := range g.Rules {
			if err := lintPlatformRule(g.Name, r); err != nil {
				errs = append(errs, err.Error())
			}
		}
	}
	for _, r := range c.Scripts {
		if err := lintScriptRule(r); err != nil {
			errs = append(errs, err.Error())
		}
	}
	for _, r := range c.Body {
		if err := lintBodyRule(r); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(c.SecurityHeaders) == 0 {
		errs = append(errs, "security_headers must list at least one header")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%d invalid catalog entries found:\n%s", len(errs), strings.Join(errs, "\n"))
	}
	return nil
}

func lintPlatformRule(group string, r Rule) error {
	if err := lintCommon(r); err != nil {
		return fmt.Errorf("platform group %s: %w", group, err)
	}
	switch r.Kind {
	case KindCookieExact, KindCookieSubstring:
	case KindHeaderSubstring:
		if r.Header == "" {
			return fmt.Errorf("platform group %s, rule %q: header-value-substring needs a header name", group, r.Pattern)
		}
	default:
		return fmt.Errorf("platform group %s, rule %q: kind %q is not allowed in platform rules", group, r.Pattern, r.Kind)
	}
	if !IsKnownPlatform(r.Label) {
		return fmt.Errorf("platform group %s, rule %q: unknown platform label %q", group, r.Pattern, r.Label)
	}
	return nil
}

func lintScriptRule(r Rule) error {
	if err := lintCommon(r); err != nil {
		return fmt.Errorf("scripts: %w", err)
	}
	if r.Kind != KindScriptURLSubstring {
		return fmt.Errorf("scripts, rule %q: kind %q is not allowed in script rules", r.Pattern, r.Kind)
	}
	if r.Category != CategoryFramework && r.Category != CategoryLibrary {
		return fmt.Errorf("scripts, rule %q: category must be framework or library, got %q", r.Pattern, r.Category)
	}
	return nil
}

func lintBodyRule(r Rule) error {
	if err := lintCommon(r); err != nil {
		return fmt.Errorf("body: %w", err)
	}
	if r.Kind != KindBodySubstring {
		return fmt.Errorf("body, rule %q: kind %q is not allowed in body rules", r.Pattern, r.Kind)
	}
	if r.Effect != EffectNodeMarker {
		return fmt.Errorf("body, rule %q: unknown effect %q", r.Pattern, r.Effect)
	}
	return nil
}

func lintCommon(r Rule) error {
	if r.Pattern == "" {
		return fmt.Errorf("rule with label %q has an empty pattern", r.Label)
	}
	if r.Label == "" {
		return fmt.Errorf("rule %q has an empty label", r.Pattern)
	}
	return nil
}
