package extract

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Navjot67/tolls-app/internal/domain/entity"
)

func TestNormalizeNJZeroBalanceMeansNoViolation(t *testing.T) {
	page := Page{Text: "Amount Due: $0.00\nNo open violations for this plate.\n"}

	res := testNormalizer().NormalizeNJ(page, "T081234567890", "XYZ9876")
	assert.True(t, res.Success)
	assert.Equal(t, entity.SourceNJ, res.Source)
	assert.Equal(t, 0.0, res.BalanceAmount)
	assert.Equal(t, 0.0, res.NJBalanceAmount)
	assert.Equal(t, 0, res.ViolationCount)
	assert.Equal(t, []string{}, res.TollBillNumbers)
}

func TestNormalizeNJOpenViolation(t *testing.T) {
	page := Page{Text: "Violation T081234567890\nAmount Due: $25.50\n"}

	res := testNormalizer().NormalizeNJ(page, "t081234567890", "XYZ9876")
	assert.Equal(t, 25.5, res.BalanceAmount)
	assert.Equal(t, 25.5, res.NJBalanceAmount)
	assert.Equal(t, 1, res.ViolationCount)
	assert.Equal(t, "T081234567890", res.TollBillNumbers[0])
	assert.Equal(t, "XYZ9876", res.PlateNumber)
}

func TestNormalizeNJCollectsPageReferences(t *testing.T) {
	page := Page{
		Text: "Amount Due: $12.00\nInvoice Number: INV-2001\nToll Bill Number: TB-3001\n",
	}

	res := testNormalizer().NormalizeNJ(page, "T081234567890", "XYZ9876")
	assert.Equal(t, []string{"T081234567890", "INV-2001", "TB-3001"}, res.TollBillNumbers)
	assert.Equal(t, 1, res.ViolationCount)
}

func TestNormalizeNJCapsBillNumbers(t *testing.T) {
	var b strings.Builder
	b.WriteString("Amount Due: $99.00\n")
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&b, "Invoice Number: INV-%04d\n", i)
	}

	res := testNormalizer().NormalizeNJ(Page{Text: b.String()}, "T081234567890", "XYZ9876")
	assert.Len(t, res.TollBillNumbers, 10)
	assert.Equal(t, "T081234567890", res.TollBillNumbers[0])
}

func TestNormalizeNJIgnoresRawTokens(t *testing.T) {
	// NJ never falls back to loose monetary tokens; only an explicit
	// amount-due phrase counts.
	page := Page{Text: "Recent trips: $4.25, $6.75, $31.00\n"}

	res := testNormalizer().NormalizeNJ(page, "T081234567890", "XYZ9876")
	assert.Equal(t, 0.0, res.BalanceAmount)
	assert.Equal(t, 0, res.ViolationCount)
}
