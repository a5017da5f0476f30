package entity

// ExtractionResult is the canonical outcome of one toll-site fetch after the
// page text has been normalized. A failed fetch carries Error and nothing
// else meaningful; an ambiguous page is a success with a zero balance.
type ExtractionResult struct {
	Success          bool     `json:"success"`
	Error            string   `json:"error,omitempty"`
	Source           string   `json:"source"`
	AccountNumber    string   `json:"account_number,omitempty"`
	PlateNumber      string   `json:"plate_number,omitempty"`
	ViolationNumber  string   `json:"violation_number,omitempty"`
	TotalBalanceDue  float64  `json:"total_balance_due"`
	BalanceAmount    float64  `json:"balance_amount"`
	NYBalanceAmount  float64  `json:"ny_balance_amount"`
	NJBalanceAmount  float64  `json:"nj_balance_amount"`
	TollChargesTotal float64  `json:"toll_charges_total,omitempty"`
	TollBillNumbers  []string `json:"toll_bill_numbers"`
	ViolationCount   int      `json:"violation_count"`
	Violations       []string `json:"violations,omitempty"`
	TollEntries      []string `json:"toll_entries,omitempty"`
}

// FailedExtraction builds the canonical failure result.
func FailedExtraction(source, errMsg string) ExtractionResult {
	return ExtractionResult{
		Success:         false,
		Error:           errMsg,
		Source:          source,
		TollBillNumbers: []string{},
	}
}
