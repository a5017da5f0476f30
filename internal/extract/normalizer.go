// Package extract turns raw scraped page text and table rows into canonical
// extraction results, resolving ambiguous balance signals into one
// authoritative amount per toll authority.
package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// Page is the raw material handed over by the automation layer: the full
// body text plus the text of each table row, in document order.
type Page struct {
	Text string   `json:"text"`
	Rows []string `json:"rows"`
}

// Normalizer derives canonical results from noisy page content.
type Normalizer struct {
	logger *logrus.Logger
}

func NewNormalizer(logger *logrus.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

var dollarPattern = regexp.MustCompile(`\$\s*([\d,]+\.?\d*)`)

// duePatterns are priority-ordered; the first match wins as the explicit
// amount due.
var duePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)total\s+(?:amount\s+)?due[:\s]*\$?\s*([\d,]+\.?\d*)`),
	regexp.MustCompile(`(?i)amount\s+due[:\s]*\$?\s*([\d,]+\.?\d*)`),
	regexp.MustCompile(`(?i)balance\s+due[:\s]*\$?\s*([\d,]+\.?\d*)`),
	regexp.MustCompile(`(?i)total\s+balance[:\s]*\$?\s*([\d,]+\.?\d*)`),
	regexp.MustCompile(`(?i)outstanding\s+balance[:\s]*\$?\s*([\d,]+\.?\d*)`),
}

var accountBalancePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)account\s+balance[:\s]*\$?\s*([\d,]+\.?\d*)`),
	regexp.MustCompile(`(?i)balance[:\s]*\$?\s*([\d,]+\.?\d*)`),
}

var violationCountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)violations?\s*:?\s*(\d+)`),
	regexp.MustCompile(`(?i)(\d+)\s*violations?`),
	regexp.MustCompile(`(?i)violation\s*count[:\s]*(\d+)`),
	regexp.MustCompile(`(?i)total\s*violations?\s*:?\s*(\d+)`),
}

var billNumberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:bill|invoice|toll\s*bill)[\s#:]*([A-Z0-9-]+)`),
	regexp.MustCompile(`\b([A-Z]{2,}\d{4,}|\d{6,})\b`),
	regexp.MustCompile(`(?i)bill\s*(?:number|#)?\s*:?\s*([A-Z0-9-]+)`),
}

// maxBillNumbers caps how many bill numbers one extraction reports.
const maxBillNumbers = 10

func parseAmount(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// firstAmount returns the first monetary value matched by p in text.
func firstAmount(p *regexp.Regexp, text string) (float64, bool) {
	m := p.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	return parseAmount(m[1])
}

// allDollarAmounts collects every monetary token in text.
func allDollarAmounts(text string) []float64 {
	var out []float64
	for _, m := range dollarPattern.FindAllStringSubmatch(text, -1) {
		if v, ok := parseAmount(m[1]); ok {
			out = append(out, v)
		}
	}
	return out
}

func maxAbove(amounts []float64, floor float64) (float64, bool) {
	best := 0.0
	found := false
	for _, a := range amounts {
		if a > floor && a > best {
			best = a
			found = true
		}
	}
	return best, found
}

func containsAny(lower string, keywords ...string) bool {
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
