package extract

import (
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Navjot67/tolls-app/internal/domain/entity"
)

var rowViolationCount = regexp.MustCompile(`(?i)violations?\s*#?\s*:?\s*(\d+)`)

// NormalizeNY resolves the NY page into one authoritative balance.
//
// Priority: an explicit "amount due" phrase beats the separately phrased
// account balance, which beats the largest monetary token over a noise
// threshold. When both explicit values exist the due amount is authoritative
// either way; a divergence beyond 10% is only flagged for diagnostics.
func (n *Normalizer) NormalizeNY(page Page, accountNumber, plateNumber string) entity.ExtractionResult {
	amounts := allDollarAmounts(page.Text)

	var (
		tollEntries      []string
		violations       []string
		violationCount   int
		tollChargesTotal float64
	)

	for _, row := range page.Rows {
		row = strings.TrimSpace(row)
		if row == "" {
			continue
		}
		lower := strings.ToLower(row)

		if strings.Contains(row, "$") && containsAny(lower, "balance", "total", "due") {
			if v, ok := firstAmount(dollarPattern, row); ok {
				amounts = append(amounts, v)
			}
		}
		if strings.Contains(row, "$") && containsAny(lower, "toll", "charge", "invoice", "fee") {
			tollEntries = append(tollEntries, row)
			for _, v := range allDollarAmounts(row) {
				amounts = append(amounts, v)
				tollChargesTotal += v
			}
		}
		if strings.Contains(lower, "violation") {
			violations = append(violations, row)
			if m := rowViolationCount.FindStringSubmatch(lower); m != nil {
				if v, ok := parseAmount(m[1]); ok && int(v) > violationCount {
					violationCount = int(v)
				}
			}
		}
	}

	// Explicit counts anywhere on the page win over row counting.
	for _, p := range violationCountPatterns {
		if m := p.FindStringSubmatch(page.Text); m != nil {
			if v, ok := parseAmount(m[1]); ok && int(v) > violationCount {
				violationCount = int(v)
			}
		}
	}
	if violationCount == 0 && len(violations) > 0 {
		violationCount = len(violations)
	}

	var totalBalanceDue float64
	for _, p := range duePatterns {
		if v, ok := firstAmount(p, page.Text); ok {
			totalBalanceDue = v
			break
		}
	}

	var balanceAmount float64
	for _, p := range accountBalancePatterns {
		if v, ok := firstAmount(p, page.Text); ok {
			balanceAmount = v
			break
		}
	}

	finalBalance := n.resolveBalance(totalBalanceDue, balanceAmount, tollChargesTotal, amounts, accountNumber)

	return entity.ExtractionResult{
		Success:          true,
		Source:           entity.SourceNY,
		AccountNumber:    accountNumber,
		PlateNumber:      plateNumber,
		TotalBalanceDue:  round2(totalBalanceDue),
		BalanceAmount:    round2(finalBalance),
		NYBalanceAmount:  round2(finalBalance),
		NJBalanceAmount:  0,
		TollChargesTotal: round2(tollChargesTotal),
		TollBillNumbers:  extractBillNumbers(tollEntries),
		ViolationCount:   violationCount,
		Violations:       capRows(violations),
		TollEntries:      capRows(tollEntries),
	}
}

// resolveBalance applies the tie-break ladder between the explicit due
// amount, the account balance phrase, the summed toll rows, and the raw
// monetary tokens.
func (n *Normalizer) resolveBalance(totalBalanceDue, balanceAmount, tollChargesTotal float64, amounts []float64, accountNumber string) float64 {
	if totalBalanceDue > 0 {
		if balanceAmount > 0 {
			larger := totalBalanceDue
			if balanceAmount > larger {
				larger = balanceAmount
			}
			diffPercent := (totalBalanceDue - balanceAmount) / larger * 100
			if diffPercent < 0 {
				diffPercent = -diffPercent
			}
			if diffPercent >= 10 && n.logger != nil {
				n.logger.WithFields(logrus.Fields{
					"account":         accountNumber,
					"amount_due":      totalBalanceDue,
					"account_balance": balanceAmount,
				}).Warn("amount due and account balance disagree; using amount due")
			}
		}
		return totalBalanceDue
	}
	if balanceAmount == 0 {
		if v, ok := maxAbove(amounts, 1.0); ok {
			balanceAmount = v
		} else if v, ok := maxAbove(amounts, 10.0); ok {
			balanceAmount = v
		}
	}
	// Itemized toll rows usually restate the balance they sum to. A
	// differing, larger sum means pending charges the balance phrase has
	// not caught up with yet.
	if tollChargesTotal > balanceAmount {
		return tollChargesTotal
	}
	return balanceAmount
}

// extractBillNumbers pulls alphanumeric bill codes out of rows that carry
// toll/charge/invoice/fee keywords. One code per row, case-normalized,
// deduplicated, capped at the first ten encountered.
func extractBillNumbers(tollEntries []string) []string {
	bills := []string{}
	seen := map[string]bool{}
	for _, entry := range tollEntries {
		for _, p := range billNumberPatterns {
			m := p.FindStringSubmatch(entry)
			if m == nil || m[1] == "" {
				continue
			}
			num := strings.ToUpper(strings.TrimSpace(m[1]))
			if !seen[num] {
				seen[num] = true
				bills = append(bills, num)
			}
			break
		}
		if len(bills) >= maxBillNumbers {
			break
		}
	}
	return bills
}

func capRows(rows []string) []string {
	if len(rows) > 10 {
		return rows[:10]
	}
	return rows
}
