package repository

import "github.com/Navjot67/tolls-app/internal/domain/entity"

// UserRepository owns the user collection. Same full-document persistence
// model as AccountRepository.
type UserRepository interface {
	Load() []entity.User
	Save(users []entity.User) bool
	GetByEmail(email string) (*entity.User, bool)
	GetByToken(token string) (*entity.User, bool)
	// Update replaces the stored user matching u.Email and persists.
	Update(u *entity.User) bool
	// Append adds a new user and persists.
	Append(u *entity.User) bool
	// Remove deletes the user with the given email and persists.
	Remove(email string) bool
}
