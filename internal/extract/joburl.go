package extract

import (
	"net/url"
	"regexp"
	"strings"
)

var reHTTPURL = regexp.MustCompile(`https?://[^\s<>"']+`)

// Substrings that mark a URL as a job posting rather than generic content.
var jobURLHints = []string{
	"linkedin.com/jobs",
	"indeed.com",
	"job",
	"career",
	"opportunity",
	"vacanc",
}

// JobURL pulls the most job-shaped http(s) URL out of free text: board-shaped
// URLs win, any URL is the last resort.
func JobURL(text string) string {
	matches := reHTTPURL.FindAllString(text, -1)
	if len(matches) == 0 {
		return ""
	}

	var fallback string
	for _, raw := range matches {
		u := strings.TrimRight(raw, `.,);:]"'>`)
		if u == "" {
			continue
		}
		if fallback == "" {
			fallback = u
		}
		lu := strings.ToLower(u)
		for _, h := range jobURLHints {
			if strings.Contains(lu, h) {
				return u
			}
		}
	}
	return fallback
}

// AbsoluteURL coerces a possibly-relative href to an absolute URL against
// the page base. Returns "" when neither side yields a usable absolute URL.
func AbsoluteURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	baseURL, err := url.Parse(base)
	if err != nil || baseURL.Host == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return baseURL.ResolveReference(ref).String()
}
