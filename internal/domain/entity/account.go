package entity

import "strings"

// Toll authority sources.
const (
	SourceNY = "NY"
	SourceNJ = "NJ"
)

// Timestamp layouts as they appear in the persisted documents.
const (
	ArchiveTimeLayout     = "2006-01-02 15:04:05"
	LastUpdatedTimeLayout = "01/02/2006, 03:04:05 PM"
)

// Account is one real-world toll relationship, possibly spanning both
// authorities. NY identity is account number + plate; NJ identity is
// violation number + plate (nj_plate_number falls back to plate_number).
// Email is never an identity on its own, only a merge hint.
type Account struct {
	AccountNumber     string   `json:"account_number,omitempty"`
	PlateNumber       string   `json:"plate_number,omitempty"`
	ViolationNumber   string   `json:"violation_number,omitempty"`
	NJViolationNumber string   `json:"nj_violation_number,omitempty"`
	NJPlateNumber     string   `json:"nj_plate_number,omitempty"`
	Email             string   `json:"email,omitempty"`
	Source            string   `json:"source,omitempty"`
	Sources           []string `json:"sources,omitempty"`
	BalanceAmount     float64  `json:"balance_amount"`
	NYBalanceAmount   float64  `json:"ny_balance_amount"`
	NJBalanceAmount   float64  `json:"nj_balance_amount"`
	ViolationCount    int      `json:"violation_count"`
	TollBillNumbers   []string `json:"toll_bill_numbers,omitempty"`
	LastUpdated       string   `json:"last_updated,omitempty"`
}

// ArchivedAccount is an Account snapshot taken at merge or explicit-archive
// time. Append-only; never mutated after creation.
type ArchivedAccount struct {
	Account
	ArchivedAt     string `json:"archived_at"`
	ArchivedReason string `json:"archived_reason,omitempty"`
}

// NormalizeKey canonicalizes an identity component for comparison and storage.
func NormalizeKey(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// NormalizeEmail canonicalizes an email address (lower-case, trimmed).
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// HasNY reports whether the record carries a complete NY identity pair.
func (a *Account) HasNY() bool {
	return strings.TrimSpace(a.AccountNumber) != "" && strings.TrimSpace(a.PlateNumber) != ""
}

// HasNJ reports whether the record carries a complete NJ identity pair.
func (a *Account) HasNJ() bool {
	return a.EffectiveViolationNumber() != "" && a.EffectiveNJPlate() != ""
}

// EffectiveViolationNumber returns the violation number, preferring the
// primary field over the nj_ alias.
func (a *Account) EffectiveViolationNumber() string {
	if v := strings.TrimSpace(a.ViolationNumber); v != "" {
		return v
	}
	return strings.TrimSpace(a.NJViolationNumber)
}

// EffectiveNJPlate returns the NJ plate, falling back to the shared plate.
func (a *Account) EffectiveNJPlate() string {
	if p := strings.TrimSpace(a.NJPlateNumber); p != "" {
		return p
	}
	return strings.TrimSpace(a.PlateNumber)
}

// EffectiveSources returns the sources set, deriving it from the legacy
// single source field when the list is absent.
func (a *Account) EffectiveSources() []string {
	if len(a.Sources) > 0 {
		return a.Sources
	}
	if a.Source != "" {
		return []string{a.Source}
	}
	return []string{SourceNY}
}

// HasSource reports whether src is in the sources set.
func (a *Account) HasSource(src string) bool {
	for _, s := range a.EffectiveSources() {
		if s == src {
			return true
		}
	}
	return false
}

// AddSource adds src to the sources set if absent.
func (a *Account) AddSource(src string) {
	if a.HasSource(src) {
		return
	}
	a.Sources = append(a.EffectiveSources(), src)
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() Account {
	c := *a
	if a.Sources != nil {
		c.Sources = append([]string(nil), a.Sources...)
	}
	if a.TollBillNumbers != nil {
		c.TollBillNumbers = append([]string(nil), a.TollBillNumbers...)
	}
	return c
}

// Summary projects the account into the read-only shape linked onto users.
func (a *Account) Summary() AccountSummary {
	return AccountSummary{
		AccountNumber:   a.AccountNumber,
		PlateNumber:     a.PlateNumber,
		ViolationNumber: a.EffectiveViolationNumber(),
		NJPlateNumber:   a.NJPlateNumber,
		BalanceAmount:   a.BalanceAmount,
		NYBalanceAmount: a.NYBalanceAmount,
		NJBalanceAmount: a.NJBalanceAmount,
		ViolationCount:  a.ViolationCount,
		TollBillNumbers: append([]string{}, a.TollBillNumbers...),
		LastUpdated:     a.LastUpdated,
		Sources:         append([]string{}, a.EffectiveSources()...),
	}
}

// AccountSummary is the derived, overwritten projection stored on a user
// record. Not authoritative; rebuilt on each link operation.
type AccountSummary struct {
	AccountNumber   string   `json:"account_number"`
	PlateNumber     string   `json:"plate_number"`
	ViolationNumber string   `json:"violation_number"`
	NJPlateNumber   string   `json:"nj_plate_number"`
	BalanceAmount   float64  `json:"balance_amount"`
	NYBalanceAmount float64  `json:"ny_balance_amount"`
	NJBalanceAmount float64  `json:"nj_balance_amount"`
	ViolationCount  int      `json:"violation_count"`
	TollBillNumbers []string `json:"toll_bill_numbers"`
	LastUpdated     string   `json:"last_updated"`
	Sources         []string `json:"sources"`
}
