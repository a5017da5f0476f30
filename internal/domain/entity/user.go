package entity

// User is an authentication identity, distinct from the toll Account records
// it may be linked to. Passwords are stored as bcrypt hashes. A user carries
// at most one active OTP and one active session token; issuing a new value
// invalidates the previous one by overwrite.
type User struct {
	Email         string           `json:"email"`
	PasswordHash  string           `json:"password_hash"`
	Name          string           `json:"name"`
	EmailVerified bool             `json:"email_verified"`
	OTP           string           `json:"otp,omitempty"`
	OTPExpires    string           `json:"otp_expires,omitempty"`
	Token         string           `json:"token,omitempty"`
	CreatedAt     string           `json:"created_at"`
	LastLogin     string           `json:"last_login,omitempty"`
	Accounts      []AccountSummary `json:"accounts"`
}
