package internal

import (
	"regexp"
	"strings"
)

// Classifier decides whether a page of source text belongs to the civil-law
// corpus. Coarse regex heuristics, no NLP: criminal-law indicators reject a
// page outright, then civil-procedure indicators accept it, otherwise the
// page is dropped. False positives and negatives are acceptable for an
// MVP-grade corpus filter.
type Classifier struct {
	criminal []*regexp.Regexp
	civil    []*regexp.Regexp
	maxChars int
}

var criminalPatterns = []string{
	`\bfir\b`,
	`\bindian penal code\b`,
	`\bipc\b`,
	`\bsections?\s*\d+/\d+\b`,
	`\bsections?\s*\d+\b\s*ipc\b`,
	`\bpolice\b`,
	`\bcharges?\b`,
}

var civilPatterns = []string{
	`\bcivil appeal\b`,
	`\bwrit petition\b`,
	`\bcivil revision\b`,
	`\boriginal application\b`,
	`\bservice law\b`,
	`\bcivil\b`,
	`\bjurisdiction\b`,
	`\bpetition\b`,
}

func NewClassifier() *Classifier {
	c := &Classifier{maxChars: 3000}
	for _, p := range criminalPatterns {
		c.criminal = append(c.criminal, regexp.MustCompile(p))
	}
	for _, p := range civilPatterns {
		c.civil = append(c.civil, regexp.MustCompile(p))
	}
	return c
}

// IsCivil reports whether the page looks like civil-law material.
// Exclusion takes priority: a page mentioning both an FIR and a writ
// petition is still rejected.
func (c *Classifier) IsCivil(title, sourceName, text string) bool {
	if len(text) > c.maxChars {
		text = text[:c.maxChars]
	}
	combined := strings.ToLower(title + " " + sourceName + " " + text)

	for _, re := range c.criminal {
		if re.MatchString(combined) {
			return false
		}
	}
	for _, re := range c.civil {
		if re.MatchString(combined) {
			return true
		}
	}
	return false
}
