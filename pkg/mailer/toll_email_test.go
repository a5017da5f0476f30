package mailer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTollInfoJobBothSources(t *testing.T) {
	job, err := BuildTollInfoJob("jane@example.com", TollInfo{
		AccountNumber:   "752918782",
		PlateNumber:     "ABC1234",
		ViolationNumber: "T081234567890",
		NJPlateNumber:   "XYZ9876",
		BalanceAmount:   15.5,
		NYBalance:       10.25,
		NJBalance:       5.25,
		BillNumbers:     []string{"T111111", "T222222"},
		ViolationCount:  3,
		Sources:         []string{"NY", "NJ"},
	})
	require.NoError(t, err)

	assert.Equal(t, "jane@example.com", job.To)
	assert.Equal(t, "E-ZPass Toll Information - NY: $10.25 | NJ: $5.25 | Total: $15.50", job.Subject)
	assert.Contains(t, job.Text, "NY Account Number: 752918782")
	assert.Contains(t, job.Text, "NJ Violation Number: T081234567890")
	assert.Contains(t, job.Text, "NJ Plate Number: XYZ9876")
	assert.Contains(t, job.Text, "Total Balance Due: $15.50")
	assert.Contains(t, job.Text, "Bill Numbers: T111111, T222222")
	assert.Contains(t, job.Text, "Violations: 3")
	assert.Contains(t, job.HTML, "752918782")
}

func TestBuildTollInfoJobNYOnlyBalanceFallback(t *testing.T) {
	// A NY-only account may carry its whole balance in the combined field.
	job, err := BuildTollInfoJob("jane@example.com", TollInfo{
		AccountNumber: "752918782",
		PlateNumber:   "ABC1234",
		BalanceAmount: 12.5,
		Sources:       []string{"NY"},
	})
	require.NoError(t, err)

	assert.Equal(t, "E-ZPass NY Toll Information - Balance Due: $12.50", job.Subject)
	assert.Contains(t, job.Text, "NY Balance: $12.50")
	assert.NotContains(t, job.Text, "NJ Violation Number")
}

func TestBuildTollInfoJobNJOnly(t *testing.T) {
	job, err := BuildTollInfoJob("bob@example.com", TollInfo{
		ViolationNumber: "T081234567890",
		NJPlateNumber:   "XYZ9876",
		BalanceAmount:   25.0,
		NJBalance:       25.0,
		Sources:         []string{"NJ"},
	})
	require.NoError(t, err)

	assert.Equal(t, "E-ZPass NJ Toll Information - Balance Due: $25.00", job.Subject)
	assert.Contains(t, job.Text, "NJ Balance: $25.00")
	assert.NotContains(t, job.Text, "NY Account Number")
	assert.Contains(t, job.Text, "Bill Numbers: None")
}

func TestBuildTollInfoJobNJPlateFallsBackToSharedPlate(t *testing.T) {
	job, err := BuildTollInfoJob("bob@example.com", TollInfo{
		ViolationNumber: "T081234567890",
		PlateNumber:     "ABC1234",
		BalanceAmount:   5.0,
		NJBalance:       5.0,
		Sources:         []string{"NJ"},
	})
	require.NoError(t, err)
	assert.Contains(t, job.Text, "NJ Plate Number: ABC1234")
}

func TestBuildOTPJob(t *testing.T) {
	job, err := BuildOTPJob("jane@example.com", "Jane", "482913", 15*time.Minute)
	require.NoError(t, err)

	assert.Equal(t, "jane@example.com", job.To)
	assert.Contains(t, job.Text, "482913")
	assert.Contains(t, job.HTML, "482913")
	assert.Contains(t, job.Text, "15 minutes")
}
