package mailer

import (
	"bytes"
	"embed"
	"fmt"
	htmpl "html/template"
	"strings"
	"time"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var emailTemplates = htmpl.Must(htmpl.ParseFS(templateFS, "templates/*.tmpl"))

// TollInfo carries everything the toll notification email needs.
// Balance fields are already reconciled amounts, not raw page text.
type TollInfo struct {
	AccountNumber   string
	PlateNumber     string
	ViolationNumber string
	NJPlateNumber   string
	BalanceAmount   float64
	NYBalance       float64
	NJBalance       float64
	BillNumbers     []string
	ViolationCount  int
	Sources         []string
}

func (t TollInfo) hasNY() bool {
	for _, s := range t.Sources {
		if s == "NY" {
			return true
		}
	}
	return t.AccountNumber != ""
}

func (t TollInfo) hasNJ() bool {
	for _, s := range t.Sources {
		if s == "NJ" {
			return true
		}
	}
	return t.ViolationNumber != ""
}

type tollTemplateData struct {
	AccountNumber   string
	PlateNumber     string
	ViolationNumber string
	NJPlateNumber   string
	Date            string
	BalanceDue      string
	NYBalanceDue    string
	NJBalanceDue    string
	BillNumbers     []string
	ViolationCount  int
	HasNY           bool
	HasNJ           bool
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

// BuildTollInfoJob renders the toll notification email for a reconciled
// account snapshot. The subject varies with which authorities contributed.
func BuildTollInfoJob(to string, info TollInfo) (EmailJob, error) {
	hasNY := info.hasNY()
	hasNJ := info.hasNJ()

	nyBalance := info.NYBalance
	// A NY-only account may carry its whole balance in the combined field.
	if nyBalance == 0 && info.BalanceAmount > 0 && hasNY && !hasNJ {
		nyBalance = info.BalanceAmount
	}

	balanceDue := fmt.Sprintf("%.2f", info.BalanceAmount)
	nyBalanceDue := fmt.Sprintf("%.2f", nyBalance)
	njBalanceDue := fmt.Sprintf("%.2f", info.NJBalance)

	njPlate := info.NJPlateNumber
	if njPlate == "" {
		njPlate = info.PlateNumber
	}

	var subject string
	switch {
	case hasNY && hasNJ:
		subject = fmt.Sprintf("E-ZPass Toll Information - NY: $%s | NJ: $%s | Total: $%s", nyBalanceDue, njBalanceDue, balanceDue)
	case hasNJ:
		subject = fmt.Sprintf("E-ZPass NJ Toll Information - Balance Due: $%s", balanceDue)
	default:
		subject = fmt.Sprintf("E-ZPass NY Toll Information - Balance Due: $%s", balanceDue)
	}

	now := time.Now().Format("January 02, 2006 at 03:04 PM")

	var text strings.Builder
	text.WriteString("E-ZPass Toll Information\n\n")
	if hasNY {
		fmt.Fprintf(&text, "NY Account Number: %s\n", orNA(info.AccountNumber))
		fmt.Fprintf(&text, "NY Plate Number: %s\n", orNA(info.PlateNumber))
		fmt.Fprintf(&text, "NY Balance: $%s\n\n", nyBalanceDue)
	}
	if hasNJ {
		fmt.Fprintf(&text, "NJ Violation Number: %s\n", orNA(info.ViolationNumber))
		fmt.Fprintf(&text, "NJ Plate Number: %s\n", orNA(njPlate))
		fmt.Fprintf(&text, "NJ Balance: $%s\n\n", njBalanceDue)
	}
	fmt.Fprintf(&text, "Total Balance Due: $%s\n", balanceDue)
	fmt.Fprintf(&text, "Date: %s\n", now)
	bills := "None"
	if len(info.BillNumbers) > 0 {
		bills = strings.Join(info.BillNumbers, ", ")
	}
	fmt.Fprintf(&text, "\nBill Numbers: %s\n", bills)
	fmt.Fprintf(&text, "Violations: %d\n", info.ViolationCount)

	data := tollTemplateData{
		AccountNumber:   orNA(info.AccountNumber),
		PlateNumber:     orNA(info.PlateNumber),
		ViolationNumber: orNA(info.ViolationNumber),
		NJPlateNumber:   orNA(njPlate),
		Date:            now,
		BalanceDue:      balanceDue,
		NYBalanceDue:    nyBalanceDue,
		NJBalanceDue:    njBalanceDue,
		BillNumbers:     info.BillNumbers,
		ViolationCount:  info.ViolationCount,
		HasNY:           hasNY,
		HasNJ:           hasNJ,
	}

	var html bytes.Buffer
	if err := emailTemplates.ExecuteTemplate(&html, "toll_info.html.tmpl", data); err != nil {
		return EmailJob{}, fmt.Errorf("render toll info email: %w", err)
	}

	return EmailJob{To: to, Subject: subject, Text: text.String(), HTML: html.String()}, nil
}

// BuildOTPJob renders the signup verification email.
func BuildOTPJob(to, name, code string, ttl time.Duration) (EmailJob, error) {
	minutes := int(ttl.Minutes())
	subject := "Your verification code"

	var text strings.Builder
	if name != "" {
		fmt.Fprintf(&text, "Hi %s,\n\n", name)
	}
	fmt.Fprintf(&text, "Your verification code is %s.\n", code)
	fmt.Fprintf(&text, "It expires in %d minutes.\n", minutes)

	data := struct {
		Name    string
		Code    string
		Minutes int
	}{Name: name, Code: code, Minutes: minutes}

	var html bytes.Buffer
	if err := emailTemplates.ExecuteTemplate(&html, "verify_otp.html.tmpl", data); err != nil {
		return EmailJob{}, fmt.Errorf("render otp email: %w", err)
	}

	return EmailJob{To: to, Subject: subject, Text: text.String(), HTML: html.String()}, nil
}
