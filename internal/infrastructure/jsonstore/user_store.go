package jsonstore

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/gofrs/flock"
	"github.com/sirupsen/logrus"

	"github.com/Navjot67/tolls-app/internal/domain/entity"
	"github.com/Navjot67/tolls-app/internal/domain/repository"
)

type usersDocument struct {
	Users []entity.User `json:"users"`
}

// UserStore persists user records in a single JSON document, with the same
// full-document overwrite model as AccountStore.
type UserStore struct {
	path   string
	mu     sync.Mutex
	flk    *flock.Flock
	logger *logrus.Logger
}

func NewUserStore(path string, logger *logrus.Logger) *UserStore {
	return &UserStore{
		path:   path,
		flk:    flock.New(path + ".lock"),
		logger: logger,
	}
}

var _ repository.UserRepository = (*UserStore)(nil)

func (s *UserStore) warn(err error, msg string) {
	if s.logger != nil {
		s.logger.WithError(err).WithField("path", s.path).Warn(msg)
	}
}

func (s *UserStore) readDocument() usersDocument {
	var doc usersDocument
	b, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.warn(err, "user store unreadable")
		}
		return doc
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		s.warn(err, "user store malformed")
		return usersDocument{}
	}
	return doc
}

func (s *UserStore) Load() []entity.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := s.readDocument().Users
	if users == nil {
		users = []entity.User{}
	}
	return users
}

func (s *UserStore) Save(users []entity.User) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(users)
}

func (s *UserStore) saveLocked(users []entity.User) bool {
	if err := s.flk.Lock(); err != nil {
		s.warn(err, "user store file lock failed")
	} else {
		defer func() { _ = s.flk.Unlock() }()
	}

	doc := usersDocument{Users: users}
	if doc.Users == nil {
		doc.Users = []entity.User{}
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		s.warn(err, "user store marshal failed")
		return false
	}
	if err := writeFileAtomic(s.path, b); err != nil {
		s.warn(err, "user store write failed")
		return false
	}
	return true
}

func (s *UserStore) GetByEmail(email string) (*entity.User, bool) {
	email = entity.NormalizeEmail(email)
	for _, u := range s.Load() {
		if entity.NormalizeEmail(u.Email) == email {
			u := u
			return &u, true
		}
	}
	return nil, false
}

func (s *UserStore) GetByToken(token string) (*entity.User, bool) {
	if token == "" {
		return nil, false
	}
	for _, u := range s.Load() {
		if u.Token == token {
			u := u
			return &u, true
		}
	}
	return nil, false
}

// Update replaces the stored record matching u.Email and persists the
// collection. Reports false if the user is absent or the write fails.
func (s *UserStore) Update(u *entity.User) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := s.readDocument().Users
	email := entity.NormalizeEmail(u.Email)
	for i := range users {
		if entity.NormalizeEmail(users[i].Email) == email {
			users[i] = *u
			return s.saveLocked(users)
		}
	}
	return false
}

func (s *UserStore) Append(u *entity.User) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := s.readDocument().Users
	users = append(users, *u)
	return s.saveLocked(users)
}

func (s *UserStore) Remove(email string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = entity.NormalizeEmail(email)
	users := s.readDocument().Users
	out := users[:0]
	for _, u := range users {
		if entity.NormalizeEmail(u.Email) != email {
			out = append(out, u)
		}
	}
	return s.saveLocked(out)
}
