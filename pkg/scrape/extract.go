// Package scrape fetches job postings and pulls the description text out of
// the page. It backs the /api/scrape endpoint used by the job source client.
package scrape

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
)

// ErrNoDescription is returned when no selector, meta tag, or body text yields anything.
var ErrNoDescription = errors.New("could not extract job description")

// DescriptionSelectors lists the structural patterns tried against a job page.
// Known job boards first, generic containers last.
func DescriptionSelectors() (selectors []string) {
	selectors = []string{
		"[data-job-description]",
		`[data-testid="jobDescriptionText"]`,
		`[data-automation="jobDescriptionText"]`,
		`[data-ui="job-description"]`,
		".jobsearch-JobComponent-description",
		".job-description",
		".description__text",
		"article",
		"main",
	}
	return selectors
}

//nolint:gochecknoglobals // compiled once
var (
	trailingSpace   = regexp.MustCompile(`[^\S\n]+\n`)
	blankLineRuns   = regexp.MustCompile(`\n{3,}`)
	horizontalSpace = regexp.MustCompile(`[ \t]{2,}`)
)

// CleanText normalizes scraped whitespace: non-breaking spaces become spaces,
// trailing whitespace is dropped from each line, blank line runs collapse to one
// blank line, and horizontal runs collapse to a single space.
func CleanText(text string) (cleaned string) {
	cleaned = strings.ReplaceAll(text, "\u00a0", " ")
	cleaned = trailingSpace.ReplaceAllString(cleaned, "\n")
	cleaned = blankLineRuns.ReplaceAllString(cleaned, "\n\n")
	cleaned = horizontalSpace.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)
	return cleaned
}

// Extract returns the job description found in page. The longest cleaned
// selector text wins; if every selector is empty it falls back to the
// og:description meta tag, then the description meta tag, then the body.
func Extract(page string) (description string, err error) {
	var doc *goquery.Document
	doc, err = goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		err = errors.Wrap(err, "failed to parse HTML")
		return description, err
	}

	doc.Find("script, style, noscript, iframe").Remove()

	for _, selector := range DescriptionSelectors() {
		text := CleanText(doc.Find(selector).Text())
		if len(text) > len(description) {
			description = text
		}
	}

	if description == "" {
		fallback, found := doc.Find(`meta[property="og:description"]`).Attr("content")
		if !found || fallback == "" {
			fallback, found = doc.Find(`meta[name="description"]`).Attr("content")
		}
		if !found || fallback == "" {
			fallback = doc.Find("body").Text()
		}
		description = CleanText(fallback)
	}

	if description == "" {
		err = ErrNoDescription
		return description, err
	}

	return description, err
}
