// Package fetch retrieves job-posting pages, either by a direct HTTP GET or by
// rendering them in a headless browser.
package fetch

import (
	"fmt"
	"regexp"
)

// Method names the acquisition strategy. Its value is persisted as fetch_method.
type Method string

const (
	MethodScraping Method = "Scraping"
	MethodRESTGet  Method = "REST GET"
)

// DefaultScrapePatterns match detail pages of job boards that only render
// their content client-side.
var DefaultScrapePatterns = []string{
	`^https://herp\.careers/[^/]+/[^/]+/[^/]+/?$`,
	`^https://agent\.herp\.cloud/[^/]+/[^/]+/requisitions/id/[^/]+/?$`,
	`^https://open\.talentio\.com/[^/]+/[^/]+/[^/]+/[^/]+/pages/[^/]+/?$`,
}

// Classifier picks the fetch method for a URL.
type Classifier struct {
	patterns []*regexp.Regexp
}

// NewClassifier compiles patterns; an empty list means DefaultScrapePatterns.
func NewClassifier(patterns []string) (*Classifier, error) {
	if len(patterns) == 0 {
		patterns = DefaultScrapePatterns
	}
	c := &Classifier{patterns: make([]*regexp.Regexp, 0, len(patterns))}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile scrape pattern %q: %w", p, err)
		}
		c.patterns = append(c.patterns, re)
	}
	return c, nil
}

var defaultClassifier = func() *Classifier {
	c, err := NewClassifier(DefaultScrapePatterns)
	if err != nil {
		panic(err)
	}
	return c
}()

// Classify tests url against the patterns in order; the first match selects
// MethodScraping, otherwise MethodRESTGet.
func (c *Classifier) Classify(url string) Method {
	for _, re := range c.patterns {
		if re.MatchString(url) {
			return MethodScraping
		}
	}
	return MethodRESTGet
}

// Classify uses DefaultScrapePatterns.
func Classify(url string) Method {
	return defaultClassifier.Classify(url)
}
