// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/kunjika/accounts/internal/identifier"
	"github.com/kunjika/accounts/internal/model"
)

// UserRepository provides account storage. Lookups take a classified
// identifier so callers never choose columns from raw input.
type UserRepository interface {
	// Create inserts a new user. Returns errs.ErrAlreadyExists when the
	// email or username is taken.
	Create(ctx context.Context, u *model.User) error
	// FindBy loads a user by classified identifier.
	FindBy(ctx context.Context, id identifier.Identifier) (*model.User, error)
	// SoftDeleteBy marks a user deleted and returns the affected row.
	SoftDeleteBy(ctx context.Context, id identifier.Identifier) (*model.User, error)
	// UpdateField sets one allow-listed profile column.
	UpdateField(ctx context.Context, userID int64, field model.ProfileField, value string) error
	// UpdateLinks replaces the external links on a profile.
	UpdateLinks(ctx context.Context, userID int64, links model.Links) error
	// SetEmailVerified flips the verification flag for an email address.
	SetEmailVerified(ctx context.Context, email string) error
	// GetProfile loads the public profile view.
	GetProfile(ctx context.Context, userID int64) (*model.Profile, error)
	// GetLinks loads the external links of a profile.
	GetLinks(ctx context.Context, userID int64) (*model.Links, error)
	// ListUsers returns a page of users after the display-name cursor,
	// ordered by reputation.
	ListUsers(ctx context.Context, lastName string, limit int) ([]model.UserSummary, error)
}
