package glossary

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"cdr-tool/internal/content"
	"cdr-tool/internal/domain"
)

func TestExtractTermRefs(t *testing.T) {
	cases := []struct {
		name string
		text string
		want []string
	}{
		{"attribute value", `Design out of <span data-term="renewable materials">renewables</span> or <span class="title" data-term="recyclate">recyclate</span>`, []string{"renewable materials", "recyclate"}},
		{"legacy empty attribute", `out of <span data-term>renewable   materials</span>`, []string{"renewable materials"}},
		{"span without attribute", `<span class="title">Reduction</span>: simple`, []string{}},
		{"nested", `Design <span class="title"><span data-term="update">update</span> and <span data-term="upgrade">upgrades</span></span>`, []string{"update", "upgrade"}},
		{"stray end tag", `(<span data-term="high-value recycling">25%</span> high-value recycling</span>) and <a/> more`, []string{"high-value recycling"}},
		{"plain", `no markup at all`, []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ExtractTermRefs(tc.text)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCountTitleMarkers(t *testing.T) {
	if n := CountTitleMarkers(`<span class="title"><span data-term="update">update</span></span>`); n != 1 {
		t.Fatalf("count = %d, want 1", n)
	}
	if n := CountTitleMarkers(`<span class="big title">a</span><span class="title">b</span>`); n != 2 {
		t.Fatalf("count = %d, want 2", n)
	}
}

func TestPlainText(t *testing.T) {
	got := PlainText(`Plastics: 4,5%<br>Metals: <span data-term="x">2%</span>`)
	if got != "Plastics: 4,5%\nMetals: 2%" {
		t.Fatalf("got %q", got)
	}
}

func testContent(t *testing.T, glossaryText string) *domain.Content {
	t.Helper()
	c, err := domain.NewContent("test", []domain.Category{{
		ID: "s", Title: "Services",
		Rules: []domain.Rule{{
			ID: "s2", CategoryID: "s", Title: "Reuse",
			Text:      `Design the <span class="title" data-term="reuse">reuse</span> of products`,
			Questions: []domain.Question{{ID: "1", Text: `The <span data-term="value">value</span> is kept`}},
		}},
	}}, []domain.GlossaryEntry{
		{Key: "reuse", Title: "Reuse", Text: glossaryText},
		{Key: "value", Title: "Value", Text: `Keeps <span data-term="reuse">reuse</span> high`},
	})
	if err != nil {
		t.Fatalf("content: %v", err)
	}
	return c
}

func TestValidateToleratesGlossaryCycles(t *testing.T) {
	c := testContent(t, `Renewed usage, see <span data-term="value">value</span>.`)
	if err := Validate(c); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidateReportsUnknownTerms(t *testing.T) {
	c := testContent(t, `See <span data-term="missing">missing</span>.`)
	errs := Check(c)
	if len(errs) != 1 {
		t.Fatalf("violations = %v, want 1", errs)
	}
	if !errors.Is(errs[0], domain.ErrUnknownTerm) || !strings.Contains(errs[0].Error(), `glossary "reuse"`) {
		t.Fatalf("unexpected violation %v", errs[0])
	}
	if err := Validate(c); !errors.Is(err, domain.ErrUnknownTerm) {
		t.Fatalf("validate: %v", err)
	}
}

func TestResolverPolicies(t *testing.T) {
	c := testContent(t, "Renewed usage")
	text := `<span data-term="reuse">Reuse</span> and <span data-term="nope">nope</span>`

	if _, err := NewResolver(c, true).Links(text); !errors.Is(err, domain.ErrUnknownTerm) {
		t.Fatalf("strict: expected ErrUnknownTerm, got %v", err)
	}

	var logged []string
	lenient := NewResolver(c, false)
	lenient.logf = func(format string, args ...any) { logged = append(logged, fmt.Sprintf(format, args...)) }
	links, err := lenient.Links(text)
	if err != nil {
		t.Fatalf("lenient: %v", err)
	}
	if len(links) != 1 || links[0].Entry.Key != "reuse" || links[0].Label != "Reuse" {
		t.Fatalf("links = %+v", links)
	}
	if len(logged) != 1 {
		t.Fatalf("expected one log line, got %v", logged)
	}
}

// Shipped editions must pass the same conformance checks as new content.
func TestEmbeddedEditionsConform(t *testing.T) {
	loader := content.Embedded()
	names, err := loader.Editions()
	if err != nil {
		t.Fatalf("editions: %v", err)
	}
	for _, name := range names {
		c, err := loader.LoadContent(context.Background(), name)
		if err != nil {
			t.Fatalf("load %s: %v", name, err)
		}
		if err := Validate(c); err != nil {
			t.Errorf("%s does not conform:\n%v", name, err)
		}
	}
}
