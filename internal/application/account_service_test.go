package application

import (
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Navjot67/tolls-app/internal/domain/entity"
	"github.com/Navjot67/tolls-app/internal/infrastructure/jsonstore"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestAccountService(t *testing.T) (*AccountService, *jsonstore.AccountStore) {
	t.Helper()
	store := jsonstore.NewAccountStore(filepath.Join(t.TempDir(), "accounts.json"), quietLogger())
	return NewAccountService(store, quietLogger()), store
}

func TestAddAccountCreatesFreshRecord(t *testing.T) {
	svc, store := newTestAccountService(t)

	res, err := svc.AddAccount(Observation{
		Source:        entity.SourceNY,
		AccountNumber: "752918782",
		PlateNumber:   "abc1234",
		Email:         "Jane@Example.com",
	})
	require.NoError(t, err)
	assert.True(t, res.Created)

	accounts := store.Load()
	require.Len(t, accounts, 1)
	assert.Equal(t, "752918782", accounts[0].AccountNumber)
	assert.Equal(t, "ABC1234", accounts[0].PlateNumber)
	assert.Equal(t, "jane@example.com", accounts[0].Email)
	assert.Equal(t, []string{entity.SourceNY}, accounts[0].EffectiveSources())
}

func TestAddAccountExactDuplicate(t *testing.T) {
	svc, store := newTestAccountService(t)

	_, err := svc.AddAccount(Observation{AccountNumber: "752918782", PlateNumber: "ABC1234"})
	require.NoError(t, err)

	res, err := svc.AddAccount(Observation{AccountNumber: "752918782", PlateNumber: "abc1234"})
	require.NoError(t, err)
	assert.True(t, res.Duplicate)
	assert.False(t, res.Created)
	assert.Len(t, store.Load(), 1)
}

func TestAddAccountDuplicateUpdatesEmail(t *testing.T) {
	svc, store := newTestAccountService(t)

	_, err := svc.AddAccount(Observation{AccountNumber: "752918782", PlateNumber: "ABC1234", Email: "old@example.com"})
	require.NoError(t, err)

	res, err := svc.AddAccount(Observation{AccountNumber: "752918782", PlateNumber: "ABC1234", Email: "new@example.com"})
	require.NoError(t, err)
	assert.True(t, res.Duplicate)
	assert.True(t, res.EmailUpdated)

	accounts := store.Load()
	require.Len(t, accounts, 1)
	assert.Equal(t, "new@example.com", accounts[0].Email)
}

func TestAddAccountMergesByEmail(t *testing.T) {
	svc, store := newTestAccountService(t)

	_, err := svc.AddAccount(Observation{
		Source:        entity.SourceNY,
		AccountNumber: "752918782",
		PlateNumber:   "ABC1234",
		Email:         "jane@example.com",
	})
	require.NoError(t, err)

	res, err := svc.AddAccount(Observation{
		Source:          entity.SourceNJ,
		ViolationNumber: "T081234567890",
		PlateNumber:     "XYZ9876",
		Email:           "jane@example.com",
	})
	require.NoError(t, err)
	assert.True(t, res.Merged)
	assert.Equal(t, 1, res.ArchivedCount)

	accounts := store.Load()
	require.Len(t, accounts, 1)
	merged := accounts[0]
	assert.Equal(t, "752918782", merged.AccountNumber)
	assert.Equal(t, "ABC1234", merged.PlateNumber)
	assert.Equal(t, "T081234567890", merged.EffectiveViolationNumber())
	assert.Equal(t, "XYZ9876", merged.EffectiveNJPlate())
	assert.True(t, merged.HasSource(entity.SourceNY))
	assert.True(t, merged.HasSource(entity.SourceNJ))

	archived := store.LoadArchived()
	require.Len(t, archived, 1)
	assert.Equal(t, "752918782", archived[0].AccountNumber)
	assert.NotEmpty(t, archived[0].ArchivedAt)
	assert.Contains(t, archived[0].ArchivedReason, "same email: jane@example.com")
}

func TestAddAccountDifferentEmailsNeverMerge(t *testing.T) {
	svc, store := newTestAccountService(t)

	_, err := svc.AddAccount(Observation{AccountNumber: "752918782", PlateNumber: "ABC1234", Email: "jane@example.com"})
	require.NoError(t, err)
	res, err := svc.AddAccount(Observation{
		Source:          entity.SourceNJ,
		ViolationNumber: "T081234567890",
		PlateNumber:     "XYZ9876",
		Email:           "bob@example.com",
	})
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Len(t, store.Load(), 2)
}

func TestAddAccountRejectsIncompleteIdentity(t *testing.T) {
	svc, _ := newTestAccountService(t)

	_, err := svc.AddAccount(Observation{Source: entity.SourceNY, AccountNumber: "752918782"})
	assert.ErrorIs(t, err, ErrMissingNYIdentity)

	_, err = svc.AddAccount(Observation{Source: entity.SourceNJ, PlateNumber: "XYZ9876"})
	assert.ErrorIs(t, err, ErrMissingNJIdentity)

	_, err = svc.AddAccount(Observation{Source: "PA", AccountNumber: "1", PlateNumber: "2"})
	assert.ErrorIs(t, err, ErrUnknownSource)
}

func TestArchiveMovesRecordWithReason(t *testing.T) {
	svc, store := newTestAccountService(t)

	acc := entity.Account{AccountNumber: "752918782", PlateNumber: "ABC1234"}
	require.True(t, store.Save([]entity.Account{acc}, nil))

	require.True(t, svc.Archive(acc, "requested by user"))
	assert.Empty(t, store.Load())

	archived := store.LoadArchived()
	require.Len(t, archived, 1)
	assert.Equal(t, "752918782", archived[0].AccountNumber)
	assert.Equal(t, "requested by user", archived[0].ArchivedReason)

	// Archiving something that is not stored is a no-op.
	assert.False(t, svc.Archive(entity.Account{AccountNumber: "000", PlateNumber: "X"}, "missing"))
}

func TestSaveCollectionRejectsIdentitylessRecord(t *testing.T) {
	svc, _ := newTestAccountService(t)

	_, err := svc.SaveCollection([]entity.Account{{Email: "jane@example.com"}})
	assert.ErrorIs(t, err, ErrInvalidAccount)
}

func TestSaveCollectionCarriesBalancesForward(t *testing.T) {
	svc, store := newTestAccountService(t)

	require.True(t, store.Save([]entity.Account{
		{
			AccountNumber:   "752918782",
			PlateNumber:     "ABC1234",
			Email:           "jane@example.com",
			BalanceAmount:   30,
			NYBalanceAmount: 20,
			NJBalanceAmount: 10,
			ViolationCount:  2,
			TollBillNumbers: []string{"T123456"},
			LastUpdated:     "01/15/2026, 09:30:00 AM",
		},
	}, nil))

	saved, err := svc.SaveCollection([]entity.Account{
		{AccountNumber: "752918782", PlateNumber: "ABC1234", Email: "jane@example.com"},
	})
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, 30.0, saved[0].BalanceAmount)
	assert.Equal(t, 20.0, saved[0].NYBalanceAmount)
	assert.Equal(t, 10.0, saved[0].NJBalanceAmount)
	assert.Equal(t, 2, saved[0].ViolationCount)
	assert.Equal(t, []string{"T123456"}, saved[0].TollBillNumbers)
	assert.Equal(t, "01/15/2026, 09:30:00 AM", saved[0].LastUpdated)
}

func TestSaveCollectionKeepsIncomingBalances(t *testing.T) {
	svc, store := newTestAccountService(t)

	require.True(t, store.Save([]entity.Account{
		{AccountNumber: "752918782", PlateNumber: "ABC1234", BalanceAmount: 30},
	}, nil))

	saved, err := svc.SaveCollection([]entity.Account{
		{AccountNumber: "752918782", PlateNumber: "ABC1234", BalanceAmount: 55.25},
	})
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, 55.25, saved[0].BalanceAmount)
	assert.Len(t, store.Load(), 1)
}

func TestConcurrentAddAndApplyLoseNoRecords(t *testing.T) {
	svc, store := newTestAccountService(t)
	r := NewReconciler(store, quietLogger())

	seed := entity.Account{AccountNumber: "752918782", PlateNumber: "ABC1234"}
	require.True(t, store.Save([]entity.Account{seed}, nil))

	const writers = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, err := svc.AddAccount(Observation{
				Source:        entity.SourceNY,
				AccountNumber: fmt.Sprintf("9%08d", i),
				PlateNumber:   fmt.Sprintf("PLT%04d", i),
			})
			assert.NoError(t, err)
		}(i)
		go func() {
			defer wg.Done()
			r.Apply(&seed, Combined{Success: true, BalanceAmount: 42.0, NYBalanceAmount: 42.0})
		}()
	}
	wg.Wait()

	accounts := store.Load()
	assert.Len(t, accounts, writers+1)
	for _, acc := range accounts {
		if acc.AccountNumber == "752918782" {
			assert.Equal(t, 42.0, acc.BalanceAmount)
		}
	}
}

func TestAddFetchReconcileArchiveSequence(t *testing.T) {
	svc, store := newTestAccountService(t)
	r := NewReconciler(store, quietLogger())

	res, err := svc.AddAccount(Observation{
		Source:        entity.SourceNY,
		AccountNumber: "752918782",
		PlateNumber:   "abc1234",
		Email:         "jane@example.com",
	})
	require.NoError(t, err)
	require.True(t, res.Created)

	ny := entity.ExtractionResult{
		Success:         true,
		Source:          entity.SourceNY,
		BalanceAmount:   42.0,
		NYBalanceAmount: 42.0,
		ViolationCount:  1,
		TollBillNumbers: []string{"T123456"},
	}
	accounts := store.Load()
	require.Len(t, accounts, 1)
	require.True(t, r.Apply(&accounts[0], Combine(&accounts[0], &ny, nil)))

	updated := store.Load()[0]
	assert.Equal(t, 42.0, updated.BalanceAmount)
	assert.Equal(t, []string{"T123456"}, updated.TollBillNumbers)
	assert.NotEmpty(t, updated.LastUpdated)

	require.True(t, svc.Archive(updated, "closed by owner"))
	assert.Empty(t, store.Load())
	archived := store.LoadArchived()
	require.Len(t, archived, 1)
	assert.Equal(t, 42.0, archived[0].Account.BalanceAmount)
	assert.Equal(t, "closed by owner", archived[0].ArchivedReason)
}
