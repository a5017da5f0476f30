package application

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Navjot67/tolls-app/internal/domain/entity"
	"github.com/Navjot67/tolls-app/internal/domain/repository"
	"github.com/Navjot67/tolls-app/pkg/helpers"
)

var (
	ErrInvalidEmail     = errors.New("invalid email address")
	ErrWeakPassword     = errors.New("password must be at least 6 characters")
	ErrEmailRegistered  = errors.New("email already registered")
	ErrUserNotFound     = errors.New("user not found")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrEmailNotVerified = errors.New("email not verified")
	ErrNoOTP            = errors.New("no otp found")
	ErrOTPExpired       = errors.New("otp expired")
	ErrOTPInvalid       = errors.New("invalid otp code")
	ErrAlreadyVerified  = errors.New("email already verified")
	ErrInvalidToken     = errors.New("invalid or expired token")
)

// UserService handles signup, login, OTP verification, and the derived
// account projection on user records. It reads the account store but never
// mutates account records.
type UserService struct {
	Users    repository.UserRepository
	Accounts repository.AccountRepository
	Logger   *logrus.Logger
	OTPTTL   time.Duration

	mu  sync.Mutex
	now func() time.Time
}

func NewUserService(users repository.UserRepository, accounts repository.AccountRepository, logger *logrus.Logger, otpTTL time.Duration) *UserService {
	if otpTTL <= 0 {
		otpTTL = 15 * time.Minute
	}
	return &UserService{Users: users, Accounts: accounts, Logger: logger, OTPTTL: otpTTL, now: time.Now}
}

// SignupResult carries the pending OTP so the caller can enqueue the
// verification email.
type SignupResult struct {
	User   *entity.User
	OTP    string
	Resend bool // true when an unverified signup was replaced
}

// Signup creates an unverified user with a pending OTP. An existing verified
// user is rejected; an existing unverified one is replaced and gets a fresh
// code.
func (s *UserService) Signup(email, password, name string) (*SignupResult, error) {
	email = entity.NormalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}
	if len(password) < 6 {
		return nil, ErrWeakPassword
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	resend := false
	if existing, ok := s.Users.GetByEmail(email); ok {
		if existing.EmailVerified {
			return nil, ErrEmailRegistered
		}
		// Unverified re-signup replaces the old record.
		if !s.Users.Remove(email) {
			return nil, ErrSaveFailed
		}
		resend = true
	}

	hash, err := helpers.HashPassword(password)
	if err != nil {
		return nil, err
	}
	otp, err := helpers.GenOTPCode()
	if err != nil {
		return nil, err
	}

	u := &entity.User{
		Email:         email,
		PasswordHash:  hash,
		Name:          strings.TrimSpace(name),
		EmailVerified: false,
		OTP:           otp,
		OTPExpires:    s.now().Add(s.OTPTTL).Format(entity.ArchiveTimeLayout),
		CreatedAt:     s.now().Format(entity.ArchiveTimeLayout),
		Accounts:      []entity.AccountSummary{},
	}
	if !s.Users.Append(u) {
		return nil, ErrSaveFailed
	}
	if s.Logger != nil {
		s.Logger.WithField("email", email).Info("user signed up, otp pending")
	}
	return &SignupResult{User: u, OTP: otp, Resend: resend}, nil
}

// Login checks credentials and issues a fresh session token, invalidating
// any previous one by overwrite. Unverified users are rejected with a
// distinct error so the caller can prompt for OTP verification.
func (s *UserService) Login(email, password string) (*entity.User, error) {
	email = entity.NormalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.Users.GetByEmail(email)
	if !ok {
		return nil, ErrUserNotFound
	}
	if !helpers.CompareHashAndPassword(u.PasswordHash, password) {
		return nil, ErrInvalidPassword
	}
	if !u.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	token, err := helpers.GenToken(32)
	if err != nil {
		return nil, err
	}
	u.LastLogin = s.now().Format(entity.ArchiveTimeLayout)
	u.Token = token
	if !s.Users.Update(u) {
		return nil, ErrSaveFailed
	}
	return u, nil
}

// VerifyOTP checks the single active code and marks the email verified,
// issuing the first session token. Verifying an already-verified user is a
// success no-op that returns the existing record.
func (s *UserService) VerifyOTP(email, code string) (*entity.User, error) {
	email = entity.NormalizeEmail(email)
	code = strings.TrimSpace(code)

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.Users.GetByEmail(email)
	if !ok {
		return nil, ErrUserNotFound
	}
	if u.EmailVerified {
		return u, nil
	}
	if u.OTP == "" || u.OTPExpires == "" {
		return nil, ErrNoOTP
	}
	expires, err := time.ParseInLocation(entity.ArchiveTimeLayout, u.OTPExpires, time.Local)
	if err != nil {
		return nil, ErrOTPExpired
	}
	if s.now().After(expires) {
		return nil, ErrOTPExpired
	}
	if u.OTP != code {
		return nil, ErrOTPInvalid
	}

	token, err := helpers.GenToken(32)
	if err != nil {
		return nil, err
	}
	u.EmailVerified = true
	u.Token = token
	u.OTP = ""
	u.OTPExpires = ""
	if !s.Users.Update(u) {
		return nil, ErrSaveFailed
	}
	if s.Logger != nil {
		s.Logger.WithField("email", email).Info("email verified")
	}
	return u, nil
}

// ResendOTP replaces the active code for an unverified user.
func (s *UserService) ResendOTP(email string) (string, error) {
	email = entity.NormalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.Users.GetByEmail(email)
	if !ok {
		return "", ErrUserNotFound
	}
	if u.EmailVerified {
		return "", ErrAlreadyVerified
	}
	otp, err := helpers.GenOTPCode()
	if err != nil {
		return "", err
	}
	u.OTP = otp
	u.OTPExpires = s.now().Add(s.OTPTTL).Format(entity.ArchiveTimeLayout)
	if !s.Users.Update(u) {
		return "", ErrSaveFailed
	}
	return otp, nil
}

// GetByToken resolves a bearer token to its user.
func (s *UserService) GetByToken(token string) (*entity.User, error) {
	u, ok := s.Users.GetByToken(token)
	if !ok {
		return nil, ErrInvalidToken
	}
	return u, nil
}

// GetByEmail resolves an email to its user.
func (s *UserService) GetByEmail(email string) (*entity.User, error) {
	u, ok := s.Users.GetByEmail(email)
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// LinkAccountsToUser recomputes and overwrites the user's derived accounts
// projection from the account store. Always rebuilt from scratch, so two
// calls with no intervening store change yield identical results.
func (s *UserService) LinkAccountsToUser(email string) ([]entity.AccountSummary, error) {
	email = entity.NormalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.Users.GetByEmail(email)
	if !ok {
		return nil, ErrUserNotFound
	}

	linked := []entity.AccountSummary{}
	for _, acc := range s.Accounts.Load() {
		if entity.NormalizeEmail(acc.Email) == email {
			linked = append(linked, acc.Summary())
		}
	}
	u.Accounts = linked
	if !s.Users.Update(u) {
		return nil, ErrSaveFailed
	}
	return linked, nil
}
