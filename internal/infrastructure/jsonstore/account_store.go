package jsonstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"

	"github.com/Navjot67/tolls-app/internal/domain/entity"
	"github.com/Navjot67/tolls-app/internal/domain/repository"
)

// accountsDocument is the authoritative on-disk shape of the account store.
type accountsDocument struct {
	Accounts         []entity.Account         `json:"accounts"`
	ArchivedAccounts []entity.ArchivedAccount `json:"archived_accounts"`
}

// AccountStore persists accounts and archived snapshots in a single JSON
// document. There is no row-level update: every Save overwrites the whole
// document, so writers serialize their load-modify-save sequences through
// Lock and Unlock. Individual calls are guarded by mu, and other processes
// by an advisory file lock around the write.
type AccountStore struct {
	path     string
	mu       sync.Mutex
	updateMu sync.Mutex
	flk      *flock.Flock
	logger   *logrus.Logger
}

func NewAccountStore(path string, logger *logrus.Logger) *AccountStore {
	return &AccountStore{
		path:   path,
		flk:    flock.New(path + ".lock"),
		logger: logger,
	}
}

var _ repository.AccountRepository = (*AccountStore)(nil)

func (s *AccountStore) warn(err error, msg string) {
	if s.logger != nil {
		s.logger.WithError(err).WithField("path", s.path).Warn(msg)
	}
}

// Lock acquires the update boundary. Every writer holds it across its whole
// load-modify-save sequence; mu alone only covers one call at a time, so two
// writers that interleave Load and Save would silently drop each other's
// records.
func (s *AccountStore) Lock() { s.updateMu.Lock() }

// Unlock releases the update boundary.
func (s *AccountStore) Unlock() { s.updateMu.Unlock() }

// readDocument loads the current document. Absent or unreadable files yield
// an empty document so callers never fail on a missing store.
func (s *AccountStore) readDocument() accountsDocument {
	var doc accountsDocument
	b, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.warn(err, "account store unreadable")
		}
		return doc
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		s.warn(err, "account store malformed")
		return accountsDocument{}
	}
	return doc
}

// Load returns the active accounts in insertion order.
func (s *AccountStore) Load() []entity.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	accounts := s.readDocument().Accounts
	if accounts == nil {
		accounts = []entity.Account{}
	}
	return accounts
}

// LoadArchived returns the archived snapshots in insertion order.
func (s *AccountStore) LoadArchived() []entity.ArchivedAccount {
	s.mu.Lock()
	defer s.mu.Unlock()
	archived := s.readDocument().ArchivedAccounts
	if archived == nil {
		archived = []entity.ArchivedAccount{}
	}
	return archived
}

// Save persists the active collection. A nil archived argument preserves
// whatever archived collection the document already holds, so a caller that
// only touches active records can never drop the archive.
func (s *AccountStore) Save(accounts []entity.Account, archived []entity.ArchivedAccount) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.flk.Lock(); err != nil {
		s.warn(err, "account store file lock failed")
	} else {
		defer func() { _ = s.flk.Unlock() }()
	}

	doc := accountsDocument{Accounts: accounts, ArchivedAccounts: archived}
	if doc.Accounts == nil {
		doc.Accounts = []entity.Account{}
	}
	if doc.ArchivedAccounts == nil {
		existing := s.readDocument().ArchivedAccounts
		if existing == nil {
			existing = []entity.ArchivedAccount{}
		}
		doc.ArchivedAccounts = existing
	}

	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		s.warn(err, "account store marshal failed")
		return false
	}
	if err := writeFileAtomic(s.path, b); err != nil {
		s.warn(err, "account store write failed")
		return false
	}
	return true
}

// Exists reports whether an active record matches the normalized NY identity
// pair exactly.
func (s *AccountStore) Exists(accountNumber, plateNumber string) bool {
	accountNumber = entity.NormalizeKey(accountNumber)
	plateNumber = entity.NormalizeKey(plateNumber)
	for _, acc := range s.Load() {
		if entity.NormalizeKey(acc.AccountNumber) == accountNumber &&
			entity.NormalizeKey(acc.PlateNumber) == plateNumber {
			return true
		}
	}
	return false
}

// writeFileAtomic writes via a temp file and rename so a crashed writer can
// never leave a truncated document behind.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".store-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
