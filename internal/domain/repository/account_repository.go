package repository

import "github.com/Navjot67/tolls-app/internal/domain/entity"

// AccountRepository owns the active and archived account collections.
// Every save is a full-collection overwrite, so every writer must hold the
// repository's update boundary across its whole load-modify-save sequence;
// the boundary guards a single process, other processes only get an
// advisory file lock around the write itself.
type AccountRepository interface {
	// Lock acquires the update boundary shared by every writer.
	Lock()
	// Unlock releases the update boundary.
	Unlock()
	// Load returns the active accounts in insertion order. An absent or
	// unreadable backing store yields an empty slice, not an error.
	Load() []entity.Account
	// LoadArchived returns the archived snapshots, same failure policy.
	LoadArchived() []entity.ArchivedAccount
	// Save persists the active collection. When archived is nil the
	// previously persisted archived collection is preserved unchanged.
	Save(accounts []entity.Account, archived []entity.ArchivedAccount) bool
	// Exists reports whether an active record matches the normalized NY
	// identity pair exactly.
	Exists(accountNumber, plateNumber string) bool
}
