package mailparse

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Navjot67/tolls-app/internal/domain/entity"
)

func testParser() *Parser {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return NewParser("tolls.monitor@example.com", l)
}

func TestFromAddress(t *testing.T) {
	assert.Equal(t, "jane@example.com", FromAddress("Jane Doe <jane@example.com>"))
	assert.Equal(t, "jane@example.com", FromAddress("jane@example.com"))
	assert.Equal(t, "", FromAddress(""))
}

func TestParseNYRequest(t *testing.T) {
	body := "Please add my account.\nAccount Number: 752918782\nPlate Number: abc1234\n"

	req := testParser().Parse("Toll lookup request", body, "Jane Doe <jane@example.com>")
	require.NotNil(t, req)
	assert.Equal(t, entity.SourceNY, req.Source)
	assert.Equal(t, "752918782", req.AccountNumber)
	assert.Equal(t, "ABC1234", req.PlateNumber)
	assert.Equal(t, "jane@example.com", req.Email)
	assert.Equal(t, "jane@example.com", req.SenderEmail)
}

func TestParseNJRequest(t *testing.T) {
	body := "Violation Number: T081234567890\nPlate Number: XYZ9876\n"

	req := testParser().Parse("NJ toll notice", body, "bob@example.com")
	require.NotNil(t, req)
	assert.Equal(t, entity.SourceNJ, req.Source)
	assert.Equal(t, "T081234567890", req.ViolationNumber)
	assert.Equal(t, "T081234567890", req.NJViolationNumber)
	assert.Equal(t, "XYZ9876", req.PlateNumber)
	assert.Equal(t, "XYZ9876", req.NJPlateNumber)
}

func TestParseBothSources(t *testing.T) {
	body := "NY Toll Bill Account Number: 752918782\nViolation Number: T081234567890\nPlate Number: XYZ9876\n"

	req := testParser().Parse("Toll request", body, "jane@example.com")
	require.NotNil(t, req)
	assert.Equal(t, "BOTH", req.Source)
	assert.Equal(t, "752918782", req.AccountNumber)
	assert.Equal(t, "T081234567890", req.ViolationNumber)
}

func TestParseExplicitEmailFieldWins(t *testing.T) {
	body := "Account Number: 752918782\nPlate Number: ABC1234\nEmail Address: Contact@Example.com\n"

	req := testParser().Parse("", body, "sender@example.com")
	require.NotNil(t, req)
	assert.Equal(t, "contact@example.com", req.Email)
	assert.Equal(t, "sender@example.com", req.SenderEmail)
}

func TestParseMonitoringSenderIsNotAFallback(t *testing.T) {
	body := "Account Number: 752918782\nPlate Number: ABC1234\n"

	// Forwarded mail shows the inbox's own address as sender; using it as
	// the contact would collapse every request into one account.
	req := testParser().Parse("", body, "Monitor <tolls.monitor@example.com>")
	require.NotNil(t, req)
	assert.Empty(t, req.Email)
	assert.Equal(t, "tolls.monitor@example.com", req.SenderEmail)
}

func TestParseRejectsFalsePositiveTokens(t *testing.T) {
	body := "Your account number and plate number are required.\n"

	req := testParser().Parse("", body, "jane@example.com")
	assert.Nil(t, req)
}

func TestParseRejectsShortIdentifiers(t *testing.T) {
	// Account numbers under six characters are noise.
	body := "Account Number: 12345\nPlate Number: ABC1234\n"

	req := testParser().Parse("", body, "jane@example.com")
	assert.Nil(t, req)
}

func TestParseJSONFallback(t *testing.T) {
	body := "Automated request follows.\n{\"account_number\": \"98765432\", \"plate_number\": \"lmn4567\", \"email\": \"Someone@Example.com\"}\n"

	req := testParser().Parse("", body, "robot@example.com")
	require.NotNil(t, req)
	assert.Equal(t, entity.SourceNY, req.Source)
	assert.Equal(t, "98765432", req.AccountNumber)
	assert.Equal(t, "LMN4567", req.PlateNumber)
	assert.Equal(t, "someone@example.com", req.Email)
}

func TestParseNothingUsable(t *testing.T) {
	req := testParser().Parse("Hello", "Just saying hi.\n", "jane@example.com")
	assert.Nil(t, req)
}
