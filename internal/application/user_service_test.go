package application

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Navjot67/tolls-app/internal/domain/entity"
	"github.com/Navjot67/tolls-app/internal/infrastructure/jsonstore"
)

func newTestUserService(t *testing.T) (*UserService, *jsonstore.AccountStore) {
	t.Helper()
	dir := t.TempDir()
	users := jsonstore.NewUserStore(filepath.Join(dir, "users.json"), quietLogger())
	accounts := jsonstore.NewAccountStore(filepath.Join(dir, "accounts.json"), quietLogger())
	return NewUserService(users, accounts, quietLogger(), 15*time.Minute), accounts
}

func TestSignupVerifyLoginFlow(t *testing.T) {
	svc, _ := newTestUserService(t)

	res, err := svc.Signup("Jane@Example.com", "secret1", "Jane")
	require.NoError(t, err)
	assert.False(t, res.Resend)
	require.Len(t, res.OTP, 6)
	assert.False(t, res.User.EmailVerified)

	// Login before verification is rejected with the distinct error.
	_, err = svc.Login("jane@example.com", "secret1")
	assert.ErrorIs(t, err, ErrEmailNotVerified)

	u, err := svc.VerifyOTP("jane@example.com", res.OTP)
	require.NoError(t, err)
	assert.True(t, u.EmailVerified)
	assert.NotEmpty(t, u.Token)
	assert.Empty(t, u.OTP)

	firstToken := u.Token
	u2, err := svc.Login("jane@example.com", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, u2.Token)
	assert.NotEqual(t, firstToken, u2.Token)

	// The overwritten token no longer resolves.
	_, err = svc.GetByToken(firstToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
	got, err := svc.GetByToken(u2.Token)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", got.Email)
}

func TestSignupValidation(t *testing.T) {
	svc, _ := newTestUserService(t)

	_, err := svc.Signup("not-an-email", "secret1", "")
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = svc.Signup("jane@example.com", "short", "")
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestSignupVerifiedEmailRejected(t *testing.T) {
	svc, _ := newTestUserService(t)

	res, err := svc.Signup("jane@example.com", "secret1", "")
	require.NoError(t, err)
	_, err = svc.VerifyOTP("jane@example.com", res.OTP)
	require.NoError(t, err)

	_, err = svc.Signup("jane@example.com", "secret1", "")
	assert.ErrorIs(t, err, ErrEmailRegistered)
}

func TestSignupUnverifiedReplacesRecord(t *testing.T) {
	svc, _ := newTestUserService(t)

	first, err := svc.Signup("jane@example.com", "secret1", "")
	require.NoError(t, err)

	second, err := svc.Signup("jane@example.com", "secret2", "")
	require.NoError(t, err)
	assert.True(t, second.Resend)
	assert.NotEqual(t, first.OTP, second.OTP)

	// The old code is dead after the replacement.
	_, err = svc.VerifyOTP("jane@example.com", first.OTP)
	assert.ErrorIs(t, err, ErrOTPInvalid)
}

func TestLoginErrors(t *testing.T) {
	svc, _ := newTestUserService(t)

	_, err := svc.Login("nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrUserNotFound)

	res, err := svc.Signup("jane@example.com", "secret1", "")
	require.NoError(t, err)
	_, err = svc.VerifyOTP("jane@example.com", res.OTP)
	require.NoError(t, err)

	_, err = svc.Login("jane@example.com", "wrongpass")
	assert.ErrorIs(t, err, ErrInvalidPassword)
}

func TestVerifyOTPExpired(t *testing.T) {
	svc, _ := newTestUserService(t)

	res, err := svc.Signup("jane@example.com", "secret1", "")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(20 * time.Minute) }
	_, err = svc.VerifyOTP("jane@example.com", res.OTP)
	assert.ErrorIs(t, err, ErrOTPExpired)
}

func TestVerifyOTPWrongCode(t *testing.T) {
	svc, _ := newTestUserService(t)

	res, err := svc.Signup("jane@example.com", "secret1", "")
	require.NoError(t, err)

	wrong := "000000"
	if res.OTP == wrong {
		wrong = "111111"
	}
	_, err = svc.VerifyOTP("jane@example.com", wrong)
	assert.ErrorIs(t, err, ErrOTPInvalid)
}

func TestVerifyOTPAlreadyVerifiedIsNoOp(t *testing.T) {
	svc, _ := newTestUserService(t)

	res, err := svc.Signup("jane@example.com", "secret1", "")
	require.NoError(t, err)
	u, err := svc.VerifyOTP("jane@example.com", res.OTP)
	require.NoError(t, err)

	again, err := svc.VerifyOTP("jane@example.com", "garbage")
	require.NoError(t, err)
	assert.Equal(t, u.Token, again.Token)
}

func TestResendOTP(t *testing.T) {
	svc, _ := newTestUserService(t)

	_, err := svc.Signup("jane@example.com", "secret1", "")
	require.NoError(t, err)

	otp, err := svc.ResendOTP("jane@example.com")
	require.NoError(t, err)
	require.Len(t, otp, 6)

	// Verification only accepts the newest code.
	_, err = svc.VerifyOTP("jane@example.com", otp)
	require.NoError(t, err)

	_, err = svc.ResendOTP("jane@example.com")
	assert.ErrorIs(t, err, ErrAlreadyVerified)

	_, err = svc.ResendOTP("nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestLinkAccountsToUser(t *testing.T) {
	svc, accounts := newTestUserService(t)

	res, err := svc.Signup("jane@example.com", "secret1", "")
	require.NoError(t, err)
	_, err = svc.VerifyOTP("jane@example.com", res.OTP)
	require.NoError(t, err)

	require.True(t, accounts.Save([]entity.Account{
		{AccountNumber: "752918782", PlateNumber: "ABC1234", Email: "jane@example.com", BalanceAmount: 12.5},
		{AccountNumber: "999888777", PlateNumber: "ZZZ0000", Email: "bob@example.com"},
	}, nil))

	linked, err := svc.LinkAccountsToUser("jane@example.com")
	require.NoError(t, err)
	require.Len(t, linked, 1)
	assert.Equal(t, "752918782", linked[0].AccountNumber)
	assert.Equal(t, 12.5, linked[0].BalanceAmount)

	u, err := svc.GetByEmail("jane@example.com")
	require.NoError(t, err)
	require.Len(t, u.Accounts, 1)

	// Rebuilt from scratch on every call, so the projection tracks the store.
	require.True(t, accounts.Save([]entity.Account{}, nil))
	linked, err = svc.LinkAccountsToUser("jane@example.com")
	require.NoError(t, err)
	assert.Empty(t, linked)
}
