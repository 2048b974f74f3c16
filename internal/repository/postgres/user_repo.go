package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/kunjika/accounts/internal/errs"
	"github.com/kunjika/accounts/internal/identifier"
	"github.com/kunjika/accounts/internal/model"
)

// userColumns is the shared select list for full user rows.
const userColumns = `id, COALESCE(display_name,''), email, password_hash, email_verified, COALESCE(profile_image_url,''), COALESCE(status,''), creation_date`

// UserRepo implements UserRepository using PostgreSQL.
type UserRepo struct{ db *DB }

// NewUserRepo constructs a user repository.
func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

// lookupArg converts a classified identifier into a bindable value for its
// column. Numeric identifiers that do not parse match no row.
func lookupArg(id identifier.Identifier) (identifier.Column, any, error) {
	col := id.Column()
	if col == identifier.ColumnID {
		n, err := strconv.ParseInt(id.Value, 10, 64)
		if err != nil {
			return col, nil, errs.ErrNotFound
		}
		return col, n, nil
	}
	return col, id.Value, nil
}

// Create inserts a new user row.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	const q = `
INSERT INTO users (display_name, email, password_hash, profile_image_url)
VALUES ($1, $2, $3, $4)`
	_, err := r.db.Pool.Exec(ctx, q, u.DisplayName, u.Email, u.PasswordHash, u.ImageURL)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// FindBy selects a user by classified identifier. The column name comes from
// the identifier allow-list, never from input text.
func (r *UserRepo) FindBy(ctx context.Context, id identifier.Identifier) (*model.User, error) {
	col, arg, err := lookupArg(id)
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf(`SELECT %s FROM users WHERE %s=$1`, userColumns, col)
	row := r.db.Pool.QueryRow(ctx, q, arg)
	var u model.User
	if err := row.Scan(&u.ID, &u.DisplayName, &u.Email, &u.PasswordHash, &u.EmailVerified, &u.ImageURL, &u.Status, &u.CreatedAt); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, errs.ErrNotFound
	}
	return &u, nil
}

// SoftDeleteBy marks a user deleted and returns the affected row.
func (r *UserRepo) SoftDeleteBy(ctx context.Context, id identifier.Identifier) (*model.User, error) {
	col, arg, err := lookupArg(id)
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf(`UPDATE users SET status='deleted' WHERE %s=$1 RETURNING %s`, col, userColumns)
	row := r.db.Pool.QueryRow(ctx, q, arg)
	var u model.User
	if err := row.Scan(&u.ID, &u.DisplayName, &u.Email, &u.PasswordHash, &u.EmailVerified, &u.ImageURL, &u.Status, &u.CreatedAt); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, errs.ErrNotFound
	}
	return &u, nil
}

// UpdateField sets one allow-listed profile column.
func (r *UserRepo) UpdateField(ctx context.Context, userID int64, field model.ProfileField, value string) error {
	if !field.Valid() {
		return fmt.Errorf("unknown profile field %q", field)
	}
	q := fmt.Sprintf(`UPDATE users SET %s=$1 WHERE id=$2`, field)
	_, err := r.db.Pool.Exec(ctx, q, value, userID)
	return err
}

// UpdateLinks replaces the external links on a profile.
func (r *UserRepo) UpdateLinks(ctx context.Context, userID int64, links model.Links) error {
	const q = `UPDATE users SET website_url=$1, git=$2, twitter=$3 WHERE id=$4`
	_, err := r.db.Pool.Exec(ctx, q, links.Website, links.Git, links.Twitter, userID)
	return err
}

// SetEmailVerified flips the verification flag for an email address.
// Verifying an already verified address is a no-op success.
func (r *UserRepo) SetEmailVerified(ctx context.Context, email string) error {
	const q = `UPDATE users SET email_verified=true WHERE email=$1`
	_, err := r.db.Pool.Exec(ctx, q, email)
	return err
}

// GetProfile loads the public profile view.
func (r *UserRepo) GetProfile(ctx context.Context, userID int64) (*model.Profile, error) {
	const q = `
SELECT COALESCE(display_name,''), COALESCE(title,''), COALESCE(designation,''), COALESCE(location,''),
       COALESCE(profile_image_url,''), COALESCE(git,''), COALESCE(website_url,''), COALESCE(twitter,''),
       COALESCE(reputation,1)
FROM users WHERE id=$1`
	row := r.db.Pool.QueryRow(ctx, q, userID)
	var p model.Profile
	var karma int64
	if err := row.Scan(&p.Username, &p.Title, &p.Designation, &p.Location, &p.ImageURL, &p.Git, &p.Website, &p.Twitter, &karma); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, errs.ErrNotFound
	}
	p.Karma = strconv.FormatInt(karma, 10)
	return &p, nil
}

// GetLinks loads the external links of a profile.
func (r *UserRepo) GetLinks(ctx context.Context, userID int64) (*model.Links, error) {
	const q = `
SELECT COALESCE(website_url,''), COALESCE(git,''), COALESCE(twitter,'')
FROM users WHERE id=$1`
	row := r.db.Pool.QueryRow(ctx, q, userID)
	var l model.Links
	if err := row.Scan(&l.Website, &l.Git, &l.Twitter); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, errs.ErrNotFound
	}
	return &l, nil
}

// ListUsers returns a page of users after the display-name cursor, ordered by
// reputation then name.
func (r *UserRepo) ListUsers(ctx context.Context, lastName string, limit int) ([]model.UserSummary, error) {
	const q = `
SELECT id, COALESCE(display_name,''), COALESCE(location,''), COALESCE(profile_image_url,'')
FROM users
WHERE display_name > $1
ORDER BY reputation DESC, display_name
LIMIT $2`
	rows, err := r.db.Pool.Query(ctx, q, lastName, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.UserSummary
	for rows.Next() {
		var u model.UserSummary
		if err := rows.Scan(&u.ID, &u.DisplayName, &u.Location, &u.ImageURL); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
