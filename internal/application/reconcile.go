package application

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Navjot67/tolls-app/internal/domain/entity"
	"github.com/Navjot67/tolls-app/internal/domain/repository"
)

// Reconciler combines per-source extraction results into one unified account
// update and writes it back through the account store. It never creates
// records; placement is exclusively the identity resolver's job.
type Reconciler struct {
	Repo   repository.AccountRepository
	Logger *logrus.Logger

	now func() time.Time
}

func NewReconciler(repo repository.AccountRepository, logger *logrus.Logger) *Reconciler {
	return &Reconciler{Repo: repo, Logger: logger, now: time.Now}
}

// Combined is the unified outcome of an NY-then-NJ processing pass for one
// logical account.
type Combined struct {
	Success         bool                     `json:"success"`
	AccountNumber   string                   `json:"account_number"`
	PlateNumber     string                   `json:"plate_number"`
	ViolationNumber string                   `json:"violation_number"`
	BalanceAmount   float64                  `json:"balance_amount"`
	NYBalanceAmount float64                  `json:"ny_balance_amount"`
	NJBalanceAmount float64                  `json:"nj_balance_amount"`
	TollBillNumbers []string                 `json:"toll_bill_numbers"`
	ViolationCount  int                      `json:"violation_count"`
	Sources         []string                 `json:"sources"`
	NYResult        *entity.ExtractionResult `json:"ny_result,omitempty"`
	NJResult        *entity.ExtractionResult `json:"nj_result,omitempty"`
}

// Combine folds the per-source results for one account. Failed results
// contribute nothing; the combined balance is the sum of the successful
// per-source balances.
func Combine(acc *entity.Account, nyResult, njResult *entity.ExtractionResult) Combined {
	c := Combined{
		AccountNumber:   acc.AccountNumber,
		PlateNumber:     acc.PlateNumber,
		ViolationNumber: acc.EffectiveViolationNumber(),
		TollBillNumbers: []string{},
		Sources:         acc.EffectiveSources(),
		NYResult:        nyResult,
		NJResult:        njResult,
	}
	if nyResult != nil && nyResult.Success {
		c.Success = true
		c.NYBalanceAmount = nyResult.BalanceAmount
		c.BalanceAmount += nyResult.BalanceAmount
		c.ViolationCount += nyResult.ViolationCount
		c.TollBillNumbers = unionBillNumbers(c.TollBillNumbers, nyResult.TollBillNumbers)
	}
	if njResult != nil && njResult.Success {
		c.Success = true
		c.NJBalanceAmount = njResult.BalanceAmount
		c.BalanceAmount += njResult.BalanceAmount
		c.ViolationCount += njResult.ViolationCount
		c.TollBillNumbers = unionBillNumbers(c.TollBillNumbers, njResult.TollBillNumbers)
	}
	return c
}

// Apply matches the combined update back into the store and persists it.
// Match priority: NY identity pair, then NJ identity pair, then email;
// the first match wins and stops the scan. An update that matches nothing
// is dropped with a diagnostic.
func (r *Reconciler) Apply(target *entity.Account, c Combined) bool {
	if !c.Success {
		return false
	}

	r.Repo.Lock()
	defer r.Repo.Unlock()

	accountNumber := entity.NormalizeKey(target.AccountNumber)
	plateNumber := entity.NormalizeKey(target.PlateNumber)
	violationNumber := entity.NormalizeKey(target.EffectiveViolationNumber())
	njPlate := entity.NormalizeKey(target.EffectiveNJPlate())
	email := entity.NormalizeEmail(target.Email)

	accounts := r.Repo.Load()
	for i := range accounts {
		acc := &accounts[i]

		matchNY := accountNumber != "" &&
			entity.NormalizeKey(acc.AccountNumber) == accountNumber &&
			entity.NormalizeKey(acc.PlateNumber) == plateNumber
		matchNJ := violationNumber != "" &&
			entity.NormalizeKey(acc.EffectiveViolationNumber()) == violationNumber &&
			entity.NormalizeKey(acc.EffectiveNJPlate()) == njPlate
		matchEmail := email != "" && entity.NormalizeEmail(acc.Email) == email

		if !matchNY && !matchNJ && !matchEmail {
			continue
		}

		acc.BalanceAmount = c.BalanceAmount
		acc.NYBalanceAmount = c.NYBalanceAmount
		acc.NJBalanceAmount = c.NJBalanceAmount
		acc.ViolationCount = c.ViolationCount
		acc.TollBillNumbers = unionBillNumbers(nil, c.TollBillNumbers)
		acc.LastUpdated = r.now().Format(entity.LastUpdatedTimeLayout)

		if !r.Repo.Save(accounts, nil) {
			return false
		}
		if r.Logger != nil {
			r.Logger.WithFields(logrus.Fields{
				"ny_balance": c.NYBalanceAmount,
				"nj_balance": c.NJBalanceAmount,
				"total":      c.BalanceAmount,
			}).Info("updated account balances")
		}
		return true
	}

	if r.Logger != nil {
		r.Logger.WithFields(logrus.Fields{
			"account":   accountNumber,
			"violation": violationNumber,
			"email":     email,
		}).Warn("no matching account for reconciled update; dropping")
	}
	return false
}

// unionBillNumbers merges bill-number lists in order, removing duplicates.
func unionBillNumbers(dst, src []string) []string {
	if dst == nil {
		dst = []string{}
	}
	seen := make(map[string]bool, len(dst)+len(src))
	for _, b := range dst {
		seen[b] = true
	}
	for _, b := range src {
		if !seen[b] {
			seen[b] = true
			dst = append(dst, b)
		}
	}
	return dst
}
