package mailparse

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Navjot67/tolls-app/internal/domain/entity"
)

// Request is an account registration extracted from an inbound email.
type Request struct {
	AccountNumber     string
	ViolationNumber   string
	NJViolationNumber string
	PlateNumber       string
	NJPlateNumber     string
	Email             string
	SenderEmail       string
	Source            string
}

var accountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ny\s*toll\s*bill\s*account\s*number\s*[:\-]?\s*([a-z0-9]{3,}(?:-?[a-z0-9]+)*)`),
	regexp.MustCompile(`(?i)account\s*(?:number|#|num)?\s*[:\-]?\s*([a-z0-9]{3,}(?:-?[a-z0-9]+)*)`),
	regexp.MustCompile(`(?i)acc\s*:\s*([a-z0-9]{3,}(?:-?[a-z0-9]+)*)`),
	regexp.MustCompile(`(?i)ny\s*account\s*[:\-]?\s*([a-z0-9]{3,}(?:-?[a-z0-9]+)*)`),
}

var violationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)violation\s*(?:number|#|num)?\s*[:\-]?\s*([a-z0-9]{8,}(?:-?[a-z0-9]+)*)`),
	regexp.MustCompile(`(?i)nj\s*violation\s*[:\-]?\s*([a-z0-9]{8,}(?:-?[a-z0-9]+)*)`),
	regexp.MustCompile(`(?i)invoice\s*(?:number|#)?\s*[:\-]?\s*([a-z0-9]{8,}(?:-?[a-z0-9]+)*)`),
}

var platePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)plate\s*(?:number|#|num)?\s*[:\-]?\s*([a-z0-9]{2,}(?:-?[a-z0-9]+)*)`),
	regexp.MustCompile(`(?i)license\s*plate\s*[:\-]?\s*([a-z0-9]{2,}(?:-?[a-z0-9]+)*)`),
}

var emailFieldPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)email\s*address\s*\([^)]+\)\s*[:\-]?\s*([a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,})`),
	regexp.MustCompile(`(?i)email\s*address\s*[:\-]?\s*([a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,})`),
	regexp.MustCompile(`(?i)email\s*[:\-]?\s*([a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,})`),
}

var (
	addrPattern     = regexp.MustCompile(`\b([a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,})\b`)
	bracketPattern  = regexp.MustCompile(`<([^>]+)>`)
	jsonBlobPattern = regexp.MustCompile(`(?s)\{[^}]+\}`)
	nonIdentChars   = regexp.MustCompile(`[^a-zA-Z0-9\-]`)
)

// Tokens that the loose field patterns tend to capture from prose.
var falsePositives = map[string]struct{}{
	"AND": {}, "OR": {}, "THE": {}, "UUID": {}, "ID": {},
	"NUMBER": {}, "ACCOUNT": {}, "PLATE": {}, "VIOLATION": {}, "EMAIL": {},
}

// Parser extracts account registration requests from raw email text.
type Parser struct {
	// MonitoringEmail is the inbox's own address. It is never used as a
	// fallback contact address, otherwise every request without an
	// explicit email would merge into one account.
	MonitoringEmail string
	Logger          *logrus.Logger
}

func NewParser(monitoringEmail string, logger *logrus.Logger) *Parser {
	return &Parser{MonitoringEmail: strings.ToLower(strings.TrimSpace(monitoringEmail)), Logger: logger}
}

// FromAddress pulls the bare address out of a From header value such as
// "Jane Doe <jane@example.com>".
func FromAddress(header string) string {
	if m := bracketPattern.FindStringSubmatch(header); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := addrPattern.FindStringSubmatch(header); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(header)
}

func firstMatch(patterns []*regexp.Regexp, text string) string {
	for _, p := range patterns {
		if m := p.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

func cleanIdentifier(s string) string {
	s = strings.ToUpper(strings.ReplaceAll(strings.ReplaceAll(s, "-", ""), " ", ""))
	return nonIdentChars.ReplaceAllString(s, "")
}

func isAllLetters(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

func isAlnum(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

// Parse scans an email's subject, body and sender for account identity
// fields. It returns nil when no usable request is found.
func (p *Parser) Parse(subject, body, from string) *Request {
	fromAddr := strings.ToLower(FromAddress(from))
	fullText := subject + "\n" + body

	accountNumber := cleanIdentifier(firstMatch(accountPatterns, fullText))
	violationNumber := cleanIdentifier(firstMatch(violationPatterns, fullText))
	plateNumber := cleanIdentifier(firstMatch(platePatterns, fullText))

	email := ""
	for _, pat := range emailFieldPatterns {
		if m := pat.FindStringSubmatch(fullText); m != nil {
			email = strings.ToLower(strings.TrimSpace(m[1]))
			break
		}
	}
	if email == "" && fromAddr != "" && (p.MonitoringEmail == "" || !strings.Contains(fromAddr, p.MonitoringEmail)) {
		email = fromAddr
	}

	hasNY := false
	if accountNumber != "" && plateNumber != "" {
		if _, bad := falsePositives[accountNumber]; bad {
			return nil
		}
		if _, bad := falsePositives[plateNumber]; bad {
			return nil
		}
		if len(accountNumber) >= 6 && len(plateNumber) >= 4 &&
			!isAllLetters(accountNumber) && isAlnum(plateNumber) {
			hasNY = true
		}
	}

	if violationNumber != "" && plateNumber != "" {
		if _, bad := falsePositives[violationNumber]; bad {
			return nil
		}
		if _, bad := falsePositives[plateNumber]; bad {
			return nil
		}
		if len(violationNumber) >= 8 && len(plateNumber) >= 4 && isAlnum(plateNumber) {
			req := &Request{
				ViolationNumber:   violationNumber,
				NJViolationNumber: violationNumber,
				PlateNumber:       plateNumber,
				NJPlateNumber:     plateNumber,
				Email:             email,
				SenderEmail:       fromAddr,
				Source:            entity.SourceNJ,
			}
			if hasNY {
				req.AccountNumber = accountNumber
				req.Source = "BOTH"
			}
			return req
		}
	}

	if hasNY {
		return &Request{
			AccountNumber: accountNumber,
			PlateNumber:   plateNumber,
			Email:         email,
			SenderEmail:   fromAddr,
			Source:        entity.SourceNY,
		}
	}

	return p.parseJSON(body, fromAddr)
}

func (p *Parser) parseJSON(body, fromAddr string) *Request {
	blob := jsonBlobPattern.FindString(body)
	if blob == "" {
		return nil
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(blob), &payload); err != nil {
		return nil
	}
	account, okAcc := payload["account_number"]
	plate, okPlate := payload["plate_number"]
	if !okAcc || !okPlate {
		return nil
	}
	email := fromAddr
	if v, ok := payload["email"]; ok {
		email = strings.ToLower(strings.TrimSpace(fmt.Sprint(v)))
	}
	return &Request{
		AccountNumber: strings.ToUpper(strings.TrimSpace(fmt.Sprint(account))),
		PlateNumber:   strings.ToUpper(strings.TrimSpace(fmt.Sprint(plate))),
		Email:         email,
		SenderEmail:   fromAddr,
		Source:        entity.SourceNY,
	}
}
