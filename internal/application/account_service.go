package application

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Navjot67/tolls-app/internal/domain/entity"
	"github.com/Navjot67/tolls-app/internal/domain/repository"
)

var (
	ErrMissingNYIdentity = errors.New("account number and plate number are required for NY")
	ErrMissingNJIdentity = errors.New("violation number and plate number are required for NJ")
	ErrUnknownSource     = errors.New("unknown toll source")
	ErrSaveFailed        = errors.New("failed to save account store")
	ErrInvalidAccount    = errors.New("each account needs a NY (account+plate) or NJ (violation+plate) identity pair")
)

// Observation is one new account sighting handed to the identity resolver:
// which authority it came from, its identity pair, and an optional email
// used only as a merge hint.
type Observation struct {
	Source          string
	AccountNumber   string
	PlateNumber     string
	ViolationNumber string
	Email           string
}

// AddResult describes what the resolver decided to do with an observation.
type AddResult struct {
	Created       bool
	Merged        bool
	Duplicate     bool
	EmailUpdated  bool
	ArchivedCount int
}

// AccountService is the identity resolver and merge engine. Identity pairs
// (account+plate, violation+plate) are the only strong keys and never merge
// two different people. Email is a weak, opt-in key that folds multiple
// authority identities belonging to one person into a single record, always
// forward: older records are archived, never the new observation.
type AccountService struct {
	Repo   repository.AccountRepository
	Logger *logrus.Logger

	now func() time.Time
}

func NewAccountService(repo repository.AccountRepository, logger *logrus.Logger) *AccountService {
	return &AccountService{Repo: repo, Logger: logger, now: time.Now}
}

func (s *AccountService) log() *logrus.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

// normalize canonicalizes the observation and validates its identity pair.
func (s *AccountService) normalize(obs *Observation) error {
	obs.Source = entity.NormalizeKey(obs.Source)
	obs.AccountNumber = entity.NormalizeKey(obs.AccountNumber)
	obs.PlateNumber = entity.NormalizeKey(obs.PlateNumber)
	obs.ViolationNumber = entity.NormalizeKey(obs.ViolationNumber)
	obs.Email = entity.NormalizeEmail(obs.Email)
	if obs.Source == "" {
		obs.Source = entity.SourceNY
	}
	switch obs.Source {
	case entity.SourceNJ:
		if obs.ViolationNumber == "" || obs.PlateNumber == "" {
			return ErrMissingNJIdentity
		}
	case entity.SourceNY:
		if obs.AccountNumber == "" || obs.PlateNumber == "" {
			return ErrMissingNYIdentity
		}
	default:
		return ErrUnknownSource
	}
	return nil
}

// AddAccount decides the placement of one observation: exact duplicate,
// email merge, or fresh record. Identity validation failures are rejected
// before any store mutation.
func (s *AccountService) AddAccount(obs Observation) (AddResult, error) {
	if err := s.normalize(&obs); err != nil {
		return AddResult{}, err
	}

	s.Repo.Lock()
	defer s.Repo.Unlock()

	accounts := s.Repo.Load()

	if res, found := s.updateExactDuplicate(accounts, obs); found {
		return res, nil
	}

	if obs.Email != "" {
		if res, merged, err := s.mergeByEmail(accounts, obs); merged || err != nil {
			return res, err
		}
	}

	fresh := newAccountFromObservation(obs)
	accounts = append(accounts, fresh)
	if !s.Repo.Save(accounts, nil) {
		return AddResult{}, ErrSaveFailed
	}
	s.log().WithFields(logrus.Fields{
		"source": obs.Source,
		"plate":  obs.PlateNumber,
	}).Info("added new account")
	return AddResult{Created: true}, nil
}

// updateExactDuplicate handles step one of the decision procedure: an active
// record with the same source-specific identity pair is never added again,
// but a differing email on the observation updates the stored one in place.
func (s *AccountService) updateExactDuplicate(accounts []entity.Account, obs Observation) (AddResult, bool) {
	for i := range accounts {
		acc := &accounts[i]
		var match bool
		switch obs.Source {
		case entity.SourceNJ:
			match = acc.HasSource(entity.SourceNJ) &&
				entity.NormalizeKey(acc.EffectiveViolationNumber()) == obs.ViolationNumber &&
				entity.NormalizeKey(acc.EffectiveNJPlate()) == obs.PlateNumber
		default:
			match = acc.HasSource(entity.SourceNY) &&
				entity.NormalizeKey(acc.AccountNumber) == obs.AccountNumber &&
				entity.NormalizeKey(acc.PlateNumber) == obs.PlateNumber
		}
		if !match {
			continue
		}
		res := AddResult{Duplicate: true}
		if obs.Email != "" && entity.NormalizeEmail(acc.Email) != obs.Email {
			acc.Email = obs.Email
			if s.Repo.Save(accounts, nil) {
				res.EmailUpdated = true
				s.log().WithField("source", obs.Source).Info("updated email on existing account")
			}
		}
		return res, true
	}
	return AddResult{}, false
}

// mergeByEmail performs the email-merge pass. The first record with a
// matching email becomes the merge target; it and every further match are
// archived, the further matches are folded into the target with existing
// non-empty fields winning, and the observation's source-specific fields
// overwrite the target as the freshest data for that source.
func (s *AccountService) mergeByEmail(accounts []entity.Account, obs Observation) (AddResult, bool, error) {
	var (
		target      *entity.Account
		newArchived []entity.ArchivedAccount
		removeIdx   []int
	)
	archivedAt := s.now().Format(entity.ArchiveTimeLayout)

	for i := range accounts {
		acc := &accounts[i]
		if entity.NormalizeEmail(acc.Email) != obs.Email {
			continue
		}
		if target == nil {
			snapshot := acc.Clone()
			newArchived = append(newArchived, entity.ArchivedAccount{
				Account:        snapshot,
				ArchivedAt:     archivedAt,
				ArchivedReason: fmt.Sprintf("Merged with new %s account (same email: %s)", obs.Source, obs.Email),
			})
			removeIdx = append(removeIdx, i)

			merged := acc.Clone()
			applyObservation(&merged, obs)
			merged.Email = obs.Email
			target = &merged
			continue
		}

		old := acc.Clone()
		newArchived = append(newArchived, entity.ArchivedAccount{
			Account:        old,
			ArchivedAt:     archivedAt,
			ArchivedReason: fmt.Sprintf("Merged with account (same email: %s)", obs.Email),
		})
		removeIdx = append(removeIdx, i)
		foldAccount(target, &old)
	}

	if target == nil {
		return AddResult{}, false, nil
	}

	active := make([]entity.Account, 0, len(accounts))
	skip := make(map[int]bool, len(removeIdx))
	for _, idx := range removeIdx {
		skip[idx] = true
	}
	for i := range accounts {
		if !skip[i] {
			active = append(active, accounts[i])
		}
	}
	active = append(active, *target)

	archived := append(s.Repo.LoadArchived(), newArchived...)
	if !s.Repo.Save(active, archived) {
		return AddResult{}, true, ErrSaveFailed
	}
	s.log().WithFields(logrus.Fields{
		"source":   obs.Source,
		"email":    obs.Email,
		"archived": len(newArchived),
	}).Info("merged account by email")
	return AddResult{Merged: true, ArchivedCount: len(newArchived)}, true, nil
}

// applyObservation overwrites the target's source-specific identity fields
// with the just-arrived observation; it is the freshest data for that source.
func applyObservation(target *entity.Account, obs Observation) {
	switch obs.Source {
	case entity.SourceNJ:
		target.ViolationNumber = obs.ViolationNumber
		target.NJViolationNumber = obs.ViolationNumber
		target.NJPlateNumber = obs.PlateNumber
		if target.PlateNumber == "" {
			target.PlateNumber = obs.PlateNumber
		}
	default:
		target.AccountNumber = obs.AccountNumber
		target.PlateNumber = obs.PlateNumber
		if target.NJPlateNumber == "" {
			target.NJPlateNumber = obs.PlateNumber
		}
	}
	target.Sources = target.EffectiveSources()
	target.AddSource(obs.Source)
}

// foldAccount fills the target's absent fields from an archived duplicate.
// Existing non-empty values on the target always win; the two violation
// fields are kept in sync whichever one the duplicate carried.
func foldAccount(target, old *entity.Account) {
	if old.ViolationNumber != "" && target.ViolationNumber == "" {
		target.ViolationNumber = old.ViolationNumber
		target.NJViolationNumber = old.ViolationNumber
	}
	if old.NJViolationNumber != "" && target.NJViolationNumber == "" {
		target.NJViolationNumber = old.NJViolationNumber
		target.ViolationNumber = old.NJViolationNumber
	}
	if old.NJPlateNumber != "" && target.NJPlateNumber == "" {
		target.NJPlateNumber = old.NJPlateNumber
	}
	if old.AccountNumber != "" && target.AccountNumber == "" {
		target.AccountNumber = old.AccountNumber
	}
	if old.PlateNumber != "" && target.PlateNumber == "" {
		target.PlateNumber = old.PlateNumber
	}
	for _, src := range old.EffectiveSources() {
		target.AddSource(src)
	}
}

func newAccountFromObservation(obs Observation) entity.Account {
	acc := entity.Account{
		PlateNumber: obs.PlateNumber,
		Source:      obs.Source,
		Sources:     []string{obs.Source},
		Email:       obs.Email,
	}
	if obs.Source == entity.SourceNJ {
		acc.ViolationNumber = obs.ViolationNumber
		acc.NJViolationNumber = obs.ViolationNumber
		acc.NJPlateNumber = obs.PlateNumber
	} else {
		acc.AccountNumber = obs.AccountNumber
	}
	return acc
}

// List returns the active collection.
func (s *AccountService) List() []entity.Account {
	return s.Repo.Load()
}

// SaveCollection replaces the active collection wholesale. Unlike
// AddAccount it never merges or archives; it only carries balance data
// forward from the previous collection for records that match by email
// or identity pair and arrive without their own balance fields.
func (s *AccountService) SaveCollection(accounts []entity.Account) ([]entity.Account, error) {
	for i := range accounts {
		if !accounts[i].HasNY() && !accounts[i].HasNJ() {
			return nil, ErrInvalidAccount
		}
	}

	s.Repo.Lock()
	defer s.Repo.Unlock()

	existing := s.Repo.Load()
	for i := range accounts {
		na := &accounts[i]
		email := entity.NormalizeEmail(na.Email)
		for j := range existing {
			ex := &existing[j]

			matchEmail := email != "" && entity.NormalizeEmail(ex.Email) == email
			matchNY := na.AccountNumber != "" &&
				entity.NormalizeKey(ex.AccountNumber) == entity.NormalizeKey(na.AccountNumber) &&
				entity.NormalizeKey(ex.PlateNumber) == entity.NormalizeKey(na.PlateNumber)
			exViolation := entity.NormalizeKey(ex.EffectiveViolationNumber())
			naViolation := entity.NormalizeKey(na.EffectiveViolationNumber())
			matchNJ := exViolation != "" && exViolation == naViolation

			if !matchEmail && !matchNY && !matchNJ {
				continue
			}
			if na.BalanceAmount == 0 {
				na.BalanceAmount = ex.BalanceAmount
			}
			if na.NYBalanceAmount == 0 {
				na.NYBalanceAmount = ex.NYBalanceAmount
			}
			if na.NJBalanceAmount == 0 {
				na.NJBalanceAmount = ex.NJBalanceAmount
			}
			if na.ViolationCount == 0 {
				na.ViolationCount = ex.ViolationCount
			}
			if len(na.TollBillNumbers) == 0 {
				na.TollBillNumbers = ex.TollBillNumbers
			}
			if na.LastUpdated == "" {
				na.LastUpdated = ex.LastUpdated
			}
			break
		}
	}

	if !s.Repo.Save(accounts, nil) {
		return nil, ErrSaveFailed
	}
	return accounts, nil
}

// Archive moves one active record to the archive with the given reason.
func (s *AccountService) Archive(acc entity.Account, reason string) bool {
	s.Repo.Lock()
	defer s.Repo.Unlock()

	accounts := s.Repo.Load()
	active := accounts[:0]
	removed := false
	for _, a := range accounts {
		if !removed && accountsEqual(&a, &acc) {
			removed = true
			continue
		}
		active = append(active, a)
	}
	if !removed {
		return false
	}
	archived := append(s.Repo.LoadArchived(), entity.ArchivedAccount{
		Account:        acc.Clone(),
		ArchivedAt:     s.now().Format(entity.ArchiveTimeLayout),
		ArchivedReason: reason,
	})
	return s.Repo.Save(active, archived)
}

func accountsEqual(a, b *entity.Account) bool {
	return entity.NormalizeKey(a.AccountNumber) == entity.NormalizeKey(b.AccountNumber) &&
		entity.NormalizeKey(a.PlateNumber) == entity.NormalizeKey(b.PlateNumber) &&
		entity.NormalizeKey(a.EffectiveViolationNumber()) == entity.NormalizeKey(b.EffectiveViolationNumber())
}
