// Package capture turns a listing-page DOM snapshot into candidate job
// records. Extraction is link-first with a container fallback; every
// candidate passes through the same validity gate before it is emitted.
package capture

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"jobtrail-engine/internal/dedupe"
	"jobtrail-engine/internal/domain"
	"jobtrail-engine/internal/extract"
)

// ErrNoCards means neither strategy found any card-like fragment. Distinct
// from a result with zero records: this one means the caller is probably not
// on a listing page at all.
var ErrNoCards = errors.New("no job cards found on page")

// Strategy names the extraction path that produced a result.
type Strategy string

const (
	StrategyLink      Strategy = "link"
	StrategyContainer Strategy = "container"
)

// Rejected carries the diagnostic for one candidate that failed validation.
type Rejected struct {
	Fragment string `json:"fragment"`
	Reason   string `json:"reason"`
}

// Result is one capture pass over a snapshot. Trail records which container
// selectors were attempted so failures are explainable.
type Result struct {
	Records  []domain.JobRecord `json:"records"`
	Rejected []Rejected         `json:"rejected,omitempty"`
	Strategy Strategy           `json:"strategy"`
	Trail    []extract.Attempt  `json:"-"`
}

// maxAncestorWalk bounds how far up from an anchor we look for the card.
const maxAncestorWalk = 15

// Anchors whose target contains a long numeric segment are treated as
// job-detail links ("/jobs/view/4012345678", "viewjob?jk=123456").
var reJobIDSegment = regexp.MustCompile(`(?:/|=)(\d{4,})(?:[/?#&]|$)`)

// Container fallback cascade, most specific first.
var cardContainerSelectors = []string{
	"[class*='job-card']",
	"[class*='jobCard']",
	"li[class*='result']",
	"article[class*='job']",
	"div[class*='card']",
	"article",
}

// Company-profile URL shapes used by the sibling-link heuristic.
var companyProfileHints = []string{"/company/", "/cmp/", "/employer/", "/org/"}

// Cards extracts job records from a page snapshot. pageURL resolves relative
// hrefs; now anchors relative-date parsing. Returns ErrNoCards when neither
// strategy finds a single card-like fragment.
func Cards(doc *goquery.Document, pageURL string, now time.Time) (*Result, error) {
	res := &Result{Strategy: StrategyLink}

	candidates := linkCandidates(doc)
	for _, c := range candidates {
		emit(res, recordFromContext(c, pageURL, now))
	}

	if len(res.Records) == 0 {
		containers, trail := containerCandidates(doc)
		res.Trail = trail
		if len(candidates) == 0 && len(containers) == 0 {
			return nil, ErrNoCards
		}
		if len(containers) > 0 {
			res.Strategy = StrategyContainer
			res.Rejected = nil
			for _, c := range containers {
				emit(res, recordFromContext(c, pageURL, now))
			}
		}
	}

	res.Records = dedupeBatch(res.Records)
	return res, nil
}

// candidate pairs an extraction context with the anchor data that led to it.
type candidate struct {
	context  *goquery.Selection
	position string
	href     string
}

// linkCandidates scans every anchor for a job-detail URL shape, drops
// navigation links, and walks up to the smallest plausible card fragment.
// Filtered navigation anchors never become candidates, so they are not
// counted as rejected.
func linkCandidates(doc *goquery.Document) []candidate {
	var out []candidate
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if href == "" || !reJobIDSegment.MatchString(href) {
			return
		}
		label := extract.CleanText(a.Text())
		if looksLikeNavigation(label) {
			return
		}
		out = append(out, candidate{
			context:  cardAncestor(a),
			position: label,
			href:     href,
		})
	})
	return out
}

func looksLikeNavigation(label string) bool {
	if len(label) < 5 {
		return true
	}
	return domain.ValidatePosition(label) != nil
}

// cardAncestor walks up from the anchor looking for the smallest fragment
// that plausibly represents the whole card: a class marker naming it, or at
// least two direct children carrying their own text.
func cardAncestor(a *goquery.Selection) *goquery.Selection {
	cur := a
	for i := 0; i < maxAncestorWalk; i++ {
		parent := cur.Parent()
		if parent.Length() == 0 {
			break
		}
		if hasCardMarker(parent) || textChildren(parent) >= 2 {
			return parent
		}
		cur = parent
	}
	if p := a.Parent(); p.Length() > 0 {
		return p
	}
	return a
}

func hasCardMarker(s *goquery.Selection) bool {
	class := strings.ToLower(s.AttrOr("class", ""))
	return strings.Contains(class, "card") || strings.Contains(class, "job") ||
		strings.Contains(class, "result")
}

func textChildren(s *goquery.Selection) int {
	n := 0
	s.Children().Each(func(_ int, c *goquery.Selection) {
		if extract.CleanText(c.Text()) != "" {
			n++
		}
	})
	return n
}

// containerCandidates runs the fallback cascade, returning the fragments of
// the first selector that matches anything plus the attempt trail.
func containerCandidates(doc *goquery.Document) ([]candidate, []extract.Attempt) {
	var trail []extract.Attempt
	for _, sel := range cardContainerSelectors {
		m, err := cascadia.Compile(sel)
		if err != nil {
			trail = append(trail, extract.Attempt{Selector: sel, Invalid: true})
			continue
		}
		found := doc.FindMatcher(m)
		trail = append(trail, extract.Attempt{Selector: sel, Matched: found.Length() > 0})
		if found.Length() == 0 {
			continue
		}
		var out []candidate
		found.Each(func(_ int, frag *goquery.Selection) {
			href := ""
			if a := frag.Find("a[href]").First(); a.Length() > 0 {
				href = strings.TrimSpace(a.AttrOr("href", ""))
			}
			out = append(out, candidate{context: frag, href: href})
		})
		return out, trail
	}
	return nil, trail
}

// recordFromContext runs the per-field extractors inside one card fragment.
func recordFromContext(c candidate, pageURL string, now time.Time) domain.JobRecord {
	text := extract.CleanText(c.context.Text())

	position := c.position
	if position == "" {
		position = extract.Position("", text)
	}

	jobURL := extract.AbsoluteURL(pageURL, c.href)

	rec := domain.JobRecord{
		Position:      position,
		Company:       companyFromContext(c.context, position),
		Location:      extract.Location(text),
		Salary:        extract.Salary(text),
		JobURL:        jobURL,
		Source:        sourceForURL(jobURL, pageURL),
		Status:        domain.StatusApplied,
		CaptureMethod: domain.CaptureExtension,
		AppliedAt:     extract.RelativeDate(text, now),
	}
	return rec.Normalize(now)
}

// companyFromContext prefers a sibling link with a company-profile URL shape,
// then the first capitalized leaf text that is not the position itself.
func companyFromContext(ctx *goquery.Selection, position string) string {
	var company string
	ctx.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := strings.ToLower(a.AttrOr("href", ""))
		for _, hint := range companyProfileHints {
			if strings.Contains(href, hint) {
				if t := extract.CleanText(a.Text()); t != "" {
					company = t
					return false
				}
			}
		}
		return true
	})
	if company != "" {
		return company
	}

	ctx.Find("*").EachWithBreak(func(_ int, leaf *goquery.Selection) bool {
		if leaf.Children().Length() > 0 {
			return true
		}
		t := extract.CleanText(leaf.Text())
		if t == "" || t == position || len(t) > 60 {
			return true
		}
		// labeled text first ("Company: Gamma Systems"), each leaf scanned
		// on its own so patterns cannot run across fragment boundaries
		if c := extract.Company(t, ""); c != "" && c != position {
			company = c
			return false
		}
		if t[0] < 'A' || t[0] > 'Z' {
			return true
		}
		if domain.ValidatePosition(t) != nil && len(t) >= 5 {
			return true
		}
		company = t
		return false
	})
	return company
}

func emit(res *Result, rec domain.JobRecord) {
	if verr := rec.Validate(); verr != nil {
		res.Rejected = append(res.Rejected, Rejected{
			Fragment: snippet(rec.Position),
			Reason:   verr.Reason,
		})
		return
	}
	res.Records = append(res.Records, rec)
}

// dedupeBatch drops repeats of the same normalized URL within one pass. The
// seen set is local to the call; it never leaks across captures.
func dedupeBatch(recs []domain.JobRecord) []domain.JobRecord {
	seen := map[string]bool{}
	out := recs[:0]
	for _, r := range recs {
		key := dedupe.NormalizeURL(r.JobURL)
		if key != "" {
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		out = append(out, r)
	}
	return out
}

func snippet(s string) string {
	if len(s) > 80 {
		return s[:80]
	}
	return s
}

// sourceForURL maps a job or page URL onto the known board set.
func sourceForURL(urls ...string) domain.Source {
	for _, u := range urls {
		l := strings.ToLower(u)
		switch {
		case strings.Contains(l, "linkedin."):
			return domain.SourceLinkedIn
		case strings.Contains(l, "indeed."):
			return domain.SourceIndeed
		case strings.Contains(l, "reed.co"):
			return domain.SourceReed
		case strings.Contains(l, "totaljobs."):
			return domain.SourceTotalJobs
		case strings.Contains(l, "monster."):
			return domain.SourceMonster
		case strings.Contains(l, "glassdoor."):
			return domain.SourceGlassdoor
		}
	}
	return domain.SourceOther
}
