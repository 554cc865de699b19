package extract

import (
	"regexp"
	"strings"
)

// Public webmail domains carry no company signal.
var webmailProviders = map[string]bool{
	"gmail":   true,
	"yahoo":   true,
	"hotmail": true,
	"outlook": true,
}

var (
	reCompanyLabel = regexp.MustCompile(`\b(?:[Cc]ompany|[Oo]rganization)\s*:\s*([A-Z][A-Za-z0-9&.,' -]{1,60})`)
	reCompanyAt    = regexp.MustCompile(`\bat\s+([A-Z][A-Za-z0-9&.-]*(?:\s+[A-Z][A-Za-z0-9&.-]*){0,3})`)
)

// companyScanWindow bounds how far into the body labeled patterns reach.
const companyScanWindow = 500

// Company guesses the employer from the counterparty's email domain, falling
// back to labeled patterns near the top of the body. The domain heuristic
// wins because in a sent-mail context the recipient's domain is the
// prospective employer's.
func Company(body, counterpartyEmail string) string {
	if c := CompanyFromEmailDomain(counterpartyEmail); c != "" {
		return c
	}

	window := body
	if len(window) > companyScanWindow {
		window = window[:companyScanWindow]
	}
	if m := reCompanyLabel.FindStringSubmatch(window); len(m) == 2 {
		return trimCompanyTail(m[1])
	}
	if m := reCompanyAt.FindStringSubmatch(window); len(m) == 2 {
		return trimCompanyTail(m[1])
	}
	return ""
}

// CompanyFromEmailDomain derives a company name from the second-to-last dot
// segment of an address's domain, capitalized.
// TODO: multi-part public suffixes (someone@example.co.uk) yield "Co" here.
func CompanyFromEmailDomain(addr string) string {
	at := strings.LastIndex(addr, "@")
	if at < 0 || at == len(addr)-1 {
		return ""
	}
	dom := strings.ToLower(strings.TrimSpace(addr[at+1:]))
	parts := strings.Split(dom, ".")
	if len(parts) < 2 {
		return ""
	}
	label := parts[len(parts)-2]
	if label == "" || webmailProviders[label] {
		return ""
	}
	return strings.ToUpper(label[:1]) + label[1:]
}

func trimCompanyTail(s string) string {
	s = CleanText(s)
	// stop at a sentence boundary the greedy capture may run through
	if i := strings.Index(s, ". "); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimRight(s, ".,;:-")
	return strings.TrimSpace(s)
}
