package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("failed to parse document: %v", err)
	}
	return doc
}

func TestCascadeTextFirstMatchWins(t *testing.T) {
	doc := mustDoc(t, `
<div>
  <h3 class="title">Senior Backend Engineer</h3>
  <span class="fallback">Generic Text</span>
</div>`)

	got, trail := CascadeText(doc.Selection, []string{".missing", ".title", ".fallback"})
	if got != "Senior Backend Engineer" {
		t.Fatalf("unexpected text: %q", got)
	}
	if len(trail) != 2 {
		t.Fatalf("cascade should stop at first match, trail=%d", len(trail))
	}
	if trail[0].Matched || !trail[1].Matched {
		t.Fatalf("unexpected trail: %+v", trail)
	}
}

func TestCascadeTextSkipsInvalidSelector(t *testing.T) {
	doc := mustDoc(t, `<div><p class="ok">Product Designer</p></div>`)

	got, trail := CascadeText(doc.Selection, []string{"[[broken", ".ok"})
	if got != "Product Designer" {
		t.Fatalf("invalid selector should not abort the cascade, got %q", got)
	}
	if !trail[0].Invalid {
		t.Fatalf("first attempt should be flagged invalid: %+v", trail[0])
	}
}

func TestCascadeAttr(t *testing.T) {
	doc := mustDoc(t, `<div><a class="job" href="/jobs/view/123">Job</a></div>`)

	got, _ := CascadeAttr(doc.Selection, []string{"a.missing", "a.job"}, "href")
	if got != "/jobs/view/123" {
		t.Fatalf("unexpected attr: %q", got)
	}
}

func TestCleanText(t *testing.T) {
	got := CleanText("  Senior  Backend\n\tEngineer  ")
	if got != "Senior Backend Engineer" {
		t.Fatalf("unexpected clean text: %q", got)
	}
}
