package application

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Navjot67/tolls-app/internal/domain/entity"
	"github.com/Navjot67/tolls-app/internal/extract"
	"github.com/Navjot67/tolls-app/internal/infrastructure/jsonstore"
)

func TestCombineSumsPerSourceBalances(t *testing.T) {
	acc := entity.Account{
		AccountNumber:   "752918782",
		PlateNumber:     "ABC1234",
		ViolationNumber: "T081234567890",
		Sources:         []string{entity.SourceNY, entity.SourceNJ},
	}
	ny := entity.ExtractionResult{
		Success:         true,
		Source:          entity.SourceNY,
		BalanceAmount:   10.0,
		ViolationCount:  2,
		TollBillNumbers: []string{"T111111", "T222222"},
	}
	nj := entity.ExtractionResult{
		Success:         true,
		Source:          entity.SourceNJ,
		BalanceAmount:   5.0,
		ViolationCount:  1,
		TollBillNumbers: []string{"T222222", "T081234567890"},
	}

	c := Combine(&acc, &ny, &nj)
	assert.True(t, c.Success)
	assert.Equal(t, 15.0, c.BalanceAmount)
	assert.Equal(t, 10.0, c.NYBalanceAmount)
	assert.Equal(t, 5.0, c.NJBalanceAmount)
	assert.Equal(t, 3, c.ViolationCount)
	assert.Equal(t, []string{"T111111", "T222222", "T081234567890"}, c.TollBillNumbers)
}

func TestCombineIgnoresFailedResults(t *testing.T) {
	acc := entity.Account{AccountNumber: "752918782", PlateNumber: "ABC1234"}
	ny := entity.ExtractionResult{Success: true, Source: entity.SourceNY, BalanceAmount: 12.5}
	nj := entity.FailedExtraction(entity.SourceNJ, "site unavailable")

	c := Combine(&acc, &ny, &nj)
	assert.True(t, c.Success)
	assert.Equal(t, 12.5, c.BalanceAmount)
	assert.Equal(t, 0.0, c.NJBalanceAmount)
}

func TestCombineAllFailed(t *testing.T) {
	acc := entity.Account{AccountNumber: "752918782", PlateNumber: "ABC1234"}
	ny := entity.FailedExtraction(entity.SourceNY, "timeout")

	c := Combine(&acc, &ny, nil)
	assert.False(t, c.Success)
	assert.Equal(t, 0.0, c.BalanceAmount)
}

func newTestReconciler(t *testing.T) (*Reconciler, *jsonstore.AccountStore) {
	t.Helper()
	store := jsonstore.NewAccountStore(filepath.Join(t.TempDir(), "accounts.json"), quietLogger())
	return NewReconciler(store, quietLogger()), store
}

func TestApplyMatchesByNYPair(t *testing.T) {
	r, store := newTestReconciler(t)
	require.True(t, store.Save([]entity.Account{
		{AccountNumber: "752918782", PlateNumber: "ABC1234"},
		{AccountNumber: "999888777", PlateNumber: "ZZZ0000"},
	}, nil))

	target := entity.Account{AccountNumber: "752918782", PlateNumber: "ABC1234"}
	ok := r.Apply(&target, Combined{
		Success:         true,
		BalanceAmount:   15.0,
		NYBalanceAmount: 10.0,
		NJBalanceAmount: 5.0,
		ViolationCount:  3,
		TollBillNumbers: []string{"T111111"},
	})
	require.True(t, ok)

	accounts := store.Load()
	require.Len(t, accounts, 2)
	assert.Equal(t, 15.0, accounts[0].BalanceAmount)
	assert.Equal(t, 10.0, accounts[0].NYBalanceAmount)
	assert.Equal(t, 5.0, accounts[0].NJBalanceAmount)
	assert.Equal(t, 3, accounts[0].ViolationCount)
	assert.Equal(t, []string{"T111111"}, accounts[0].TollBillNumbers)
	assert.NotEmpty(t, accounts[0].LastUpdated)

	// The other record is untouched.
	assert.Equal(t, 0.0, accounts[1].BalanceAmount)
}

func TestApplyFallsBackToViolationThenEmail(t *testing.T) {
	r, store := newTestReconciler(t)
	require.True(t, store.Save([]entity.Account{
		{ViolationNumber: "T081234567890", NJPlateNumber: "XYZ9876", Email: "jane@example.com"},
	}, nil))

	byViolation := entity.Account{ViolationNumber: "T081234567890", NJPlateNumber: "XYZ9876"}
	require.True(t, r.Apply(&byViolation, Combined{Success: true, BalanceAmount: 5.0, NJBalanceAmount: 5.0}))
	assert.Equal(t, 5.0, store.Load()[0].BalanceAmount)

	byEmail := entity.Account{Email: "JANE@example.com"}
	require.True(t, r.Apply(&byEmail, Combined{Success: true, BalanceAmount: 7.0, NJBalanceAmount: 7.0}))
	assert.Equal(t, 7.0, store.Load()[0].BalanceAmount)
}

func TestApplyDropsUnmatchedUpdate(t *testing.T) {
	r, store := newTestReconciler(t)
	require.True(t, store.Save([]entity.Account{
		{AccountNumber: "752918782", PlateNumber: "ABC1234"},
	}, nil))

	target := entity.Account{AccountNumber: "000000000", PlateNumber: "NOPE123"}
	assert.False(t, r.Apply(&target, Combined{Success: true, BalanceAmount: 9.0}))
	assert.Equal(t, 0.0, store.Load()[0].BalanceAmount)
}

func TestReconcileConvergesOnAgreeingAmounts(t *testing.T) {
	r, store := newTestReconciler(t)
	r.now = func() time.Time { return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC) }
	require.True(t, store.Save([]entity.Account{
		{AccountNumber: "752918782", PlateNumber: "ABC1234"},
	}, nil))

	page := extract.Page{Text: "Total Due: $42.00\nAccount Balance: $42.00\n"}
	res := extract.NewNormalizer(quietLogger()).NormalizeNY(page, "752918782", "ABC1234")
	require.Equal(t, 42.0, res.BalanceAmount)

	target := entity.Account{AccountNumber: "752918782", PlateNumber: "ABC1234"}
	require.True(t, r.Apply(&target, Combine(&target, &res, nil)))
	first := store.Load()
	assert.Equal(t, 42.0, first[0].BalanceAmount)
	assert.Equal(t, 42.0, first[0].NYBalanceAmount)

	// A second pass over the same extraction changes nothing.
	require.True(t, r.Apply(&target, Combine(&target, &res, nil)))
	assert.Equal(t, first, store.Load())
}

func TestApplyRepeatLeavesStoreByteIdentical(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.json")
	store := jsonstore.NewAccountStore(path, quietLogger())
	r := NewReconciler(store, quietLogger())
	r.now = func() time.Time { return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC) }
	require.True(t, store.Save([]entity.Account{
		{AccountNumber: "752918782", PlateNumber: "ABC1234"},
	}, nil))

	target := entity.Account{AccountNumber: "752918782", PlateNumber: "ABC1234"}
	c := Combined{
		Success:         true,
		BalanceAmount:   15.0,
		NYBalanceAmount: 10.0,
		NJBalanceAmount: 5.0,
		ViolationCount:  3,
		TollBillNumbers: []string{"T111111"},
	}
	require.True(t, r.Apply(&target, c))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	require.True(t, r.Apply(&target, c))
	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestApplyIgnoresFailedCombined(t *testing.T) {
	r, _ := newTestReconciler(t)
	target := entity.Account{AccountNumber: "752918782", PlateNumber: "ABC1234"}
	assert.False(t, r.Apply(&target, Combined{Success: false}))
}
