package branch

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name      string
		template  string
		slug      string
		timestamp string
		want      string
	}{
		{"default template", "agent/{slug}-{timestamp}", "fix-bug", "1700000000000", "agent/fix-bug-1700000000000"},
		{"slug only", "feature/{slug}", "login", "1", "feature/login"},
		{"no placeholders", "static-name", "x", "1", "static-name"},
		{"repeated placeholders", "{slug}/{slug}", "a", "1", "a/a"},
		{"spaces become dashes", "my team/{slug}", "x", "1", "my-team/x"},
		{"double slash collapses", "agent//{slug}", "x", "1", "agent/x"},
		{"invalid characters", "agent/{slug}@{timestamp}~^", "x", "9", "agent/x-9"},
		{"leading and trailing junk", "/-.{slug}.-/", "x", "1", "x"},
		{"empty slug keeps single dash", "agent/{slug}-{timestamp}", "", "5", "agent/-5"},
		{"empty result falls back", "{slug}", "", "1", "agent/task"},
		{"HEAD falls back", "HEAD", "", "", "agent/task"},
		{"underscores kept", "wip_{slug}", "x", "1", "wip_x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.template, tt.slug, tt.timestamp))
		})
	}
}

// TestRender_Properties checks the output invariants over awkward inputs.
func TestRender_Properties(t *testing.T) {
	templates := []string{
		"", "{slug}", "agent/{slug}-{timestamp}", "//{slug}//", "..{timestamp}..",
		"--", "HEAD", " {slug} ", "a/ /b/{slug}", "ü/{slug}/ß", "-/-/.",
	}
	slugs := []string{"", "fix-bug", "--", "a b", "ä", "HEAD"}
	timestamps := []string{"", "1700000000000", "/"}

	for _, tmpl := range templates {
		for _, slug := range slugs {
			for _, ts := range timestamps {
				got := Render(tmpl, slug, ts)
				assert.NotEmpty(t, got)
				assert.NotEqual(t, "HEAD", got)
				assert.NotContains(t, got, "//", "template %q slug %q ts %q", tmpl, slug, ts)
				assert.NotContains(t, got, "--", "template %q slug %q ts %q", tmpl, slug, ts)
				for _, edge := range []string{".", "/", "-"} {
					assert.False(t, strings.HasPrefix(got, edge), "%q starts with %q", got, edge)
					assert.False(t, strings.HasSuffix(got, edge), "%q ends with %q", got, edge)
				}
			}
		}
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Fix Bug", "fix-bug"},
		{"  Fix   Bug!! ", "fix-bug"},
		{"feature/auth_login", "feature-auth-login"},
		{"ÄÖÜ task", "task"},
		{"123", "123"},
		{"---", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestExtractTemplatePrefix(t *testing.T) {
	tests := []struct {
		template string
		want     string
		ok       bool
	}{
		{"agent/{slug}-{timestamp}", "agent", true},
		{"feat/team/{slug}", "feat", true},
		{"wip-{slug}", "wip", true},
		{"{slug}", "", false},
		{"  ", "", false},
		{"my team/{slug}", "myteam", true},
		{"static", "static", true},
		{"./{slug}", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.template, func(t *testing.T) {
			got, ok := ExtractTemplatePrefix(tt.template)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestManagedPrefixes(t *testing.T) {
	assert.Equal(t, []string{"agent", "pr", "orch"}, ManagedPrefixes("agent/{slug}"))
	assert.Equal(t, []string{"agent", "pr", "orch", "feat"}, ManagedPrefixes("feat/{slug}"))
	assert.Equal(t, []string{"agent", "pr", "orch"}, ManagedPrefixes("{slug}"))
}

func TestIsManaged(t *testing.T) {
	prefixes := []string{"agent", "pr", "orch"}
	tests := []struct {
		branch string
		want   bool
	}{
		{"agent/fix-bug-1", true},
		{"agent-fix", true},
		{"agent.fix", true},
		{"agent_fix", true},
		{"agent", true},
		{"pr/123", true},
		{"orch/plan", true},
		{"agents/fix", false},
		{"prefix/x", false},
		{"main", false},
		{"feature/agent", false},
	}

	for _, tt := range tests {
		t.Run(tt.branch, func(t *testing.T) {
			assert.Equal(t, tt.want, IsManaged(tt.branch, prefixes))
		})
	}
}
