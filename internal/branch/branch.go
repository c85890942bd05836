// Package branch renders user branch-name templates into valid git branch
// names and recognizes branches created by task-worktree.
//
// Templates support two placeholders, {slug} and {timestamp}. After
// substitution the result is sanitized: whitespace and any character outside
// [A-Za-z0-9._/-] become "-", runs of "/" and "-" collapse, and leading or
// trailing ".", "/", "-" are trimmed.
package branch

import (
	"strings"
)

// DefaultTemplate is used when the settings store has no template.
const DefaultTemplate = "agent/{slug}-{timestamp}"

// DefaultManagedPrefixes are always treated as managed, regardless of the
// configured template.
var DefaultManagedPrefixes = []string{"agent", "pr", "orch"}

// Render substitutes slug and timestamp into template and sanitizes the result.
func Render(template, slug, timestamp string) string {
	replaced := strings.ReplaceAll(template, "{slug}", slug)
	replaced = strings.ReplaceAll(replaced, "{timestamp}", timestamp)
	return Sanitize(replaced)
}

// Sanitize converts name into a usable branch name. An empty result, or the
// reserved name HEAD, falls back to "agent/task".
func Sanitize(name string) string {
	var b strings.Builder
	for _, r := range name {
		if isBranchRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('-')
		}
	}

	n := collapse(b.String(), '/')
	n = collapse(n, '-')
	n = strings.Trim(n, "./-")

	if n == "" || n == "HEAD" {
		return "agent/" + Slugify("task")
	}
	return n
}

// Slugify lowercases name, replaces every non-alphanumeric character with
// "-", collapses runs of "-" and trims them from the edges.
func Slugify(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if isASCIIAlnum(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('-')
		}
	}
	return strings.Trim(collapse(b.String(), '-'), "-")
}

// ExtractTemplatePrefix returns the first path segment of the literal text
// before the template's first placeholder, e.g. "agent" for
// "agent/{slug}-{timestamp}". ok is false when there is no literal prefix.
func ExtractTemplatePrefix(template string) (prefix string, ok bool) {
	head := template
	if idx := strings.IndexByte(template, '{'); idx >= 0 {
		head = template[:idx]
	}
	head = strings.ReplaceAll(strings.TrimSpace(head), " ", "")
	if head == "" {
		return "", false
	}

	seg, _, _ := strings.Cut(head, "/")
	seg = strings.Trim(seg, "./-")
	if seg == "" {
		return "", false
	}
	return seg, true
}

// ManagedPrefixes returns the default prefixes plus the template's prefix,
// without duplicates.
func ManagedPrefixes(template string) []string {
	prefixes := append([]string(nil), DefaultManagedPrefixes...)
	if p, ok := ExtractTemplatePrefix(template); ok {
		for _, existing := range prefixes {
			if existing == p {
				return prefixes
			}
		}
		prefixes = append(prefixes, p)
	}
	return prefixes
}

// IsManaged reports whether branch looks like one this tool created: it
// equals a managed prefix or starts with one followed by "/", "-", "." or "_".
//
// This is a heuristic. A hand-made branch such as "agent-experiments" is
// also classified as managed.
func IsManaged(branch string, prefixes []string) bool {
	for _, p := range prefixes {
		if p == "" || !strings.HasPrefix(branch, p) {
			continue
		}
		rest := branch[len(p):]
		if rest == "" {
			return true
		}
		switch rest[0] {
		case '/', '-', '.', '_':
			return true
		}
	}
	return false
}

func isASCIIAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func isBranchRune(r rune) bool {
	return isASCIIAlnum(r) || r == '.' || r == '_' || r == '/' || r == '-'
}

// collapse replaces every run of sep with a single sep.
func collapse(s string, sep byte) string {
	var b strings.Builder
	b.Grow(len(s))
	prev := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == sep {
			if prev {
				continue
			}
			prev = true
		} else {
			prev = false
		}
		b.WriteByte(c)
	}
	return b.String()
}
