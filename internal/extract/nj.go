package extract

import (
	"regexp"
	"strings"

	"github.com/Navjot67/tolls-app/internal/domain/entity"
)

// The capture requires a digit so a bare "Number" after the keyword can
// never be mistaken for a reference code.
var njReferencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)violation\s*(?:number|#)?\s*[:#\s]\s*([A-Z0-9-]*\d[A-Z0-9-]*)`),
	regexp.MustCompile(`(?i)invoice\s*(?:number|#)?\s*[:#\s]\s*([A-Z0-9-]*\d[A-Z0-9-]*)`),
	regexp.MustCompile(`(?i)toll\s*bill\s*(?:number|#)?\s*[:#\s]\s*([A-Z0-9-]*\d[A-Z0-9-]*)`),
	regexp.MustCompile(`(?i)bill\s*(?:number|#)?\s*[:#\s]\s*([A-Z0-9-]*\d[A-Z0-9-]*)`),
}

// NormalizeNJ resolves the NJ violation-lookup page. Unlike NY, only an
// explicit "amount due" phrase counts; there is no largest-token fallback.
// A zero balance means no open violation: the result then carries zero
// violations and no bill numbers even when a violation number was supplied.
func (n *Normalizer) NormalizeNJ(page Page, violationNumber, plateNumber string) entity.ExtractionResult {
	var balanceAmount float64
	for _, p := range duePatterns {
		for _, m := range p.FindAllStringSubmatch(page.Text, -1) {
			if v, ok := parseAmount(m[1]); ok && v > 0 {
				balanceAmount = v
				break
			}
		}
		if balanceAmount > 0 {
			break
		}
	}

	bills := []string{}
	violationCount := 0
	if balanceAmount > 0 {
		seen := map[string]bool{}
		if violationNumber != "" {
			num := strings.ToUpper(strings.TrimSpace(violationNumber))
			seen[num] = true
			bills = append(bills, num)
		}
		violationCount = 1
		for _, p := range njReferencePatterns {
			for _, m := range p.FindAllStringSubmatch(page.Text, -1) {
				num := strings.ToUpper(strings.TrimSpace(m[1]))
				if num == "" || seen[num] {
					continue
				}
				seen[num] = true
				bills = append(bills, num)
				if len(bills) >= maxBillNumbers {
					break
				}
			}
			if len(bills) >= maxBillNumbers {
				break
			}
		}
	}

	return entity.ExtractionResult{
		Success:         true,
		Source:          entity.SourceNJ,
		PlateNumber:     plateNumber,
		ViolationNumber: violationNumber,
		BalanceAmount:   round2(balanceAmount),
		NJBalanceAmount: round2(balanceAmount),
		TollBillNumbers: bills,
		ViolationCount:  violationCount,
		Violations:      []string{},
	}
}
