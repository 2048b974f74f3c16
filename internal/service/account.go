// Package service contains the account orchestrator composing identity
// resolution, tokens, sessions and storage into user-visible flows.
package service

import (
	"context"
	"crypto/md5"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/kunjika/accounts/internal/authz"
	pkgcrypto "github.com/kunjika/accounts/internal/crypto"
	"github.com/kunjika/accounts/internal/errs"
	"github.com/kunjika/accounts/internal/identifier"
	"github.com/kunjika/accounts/internal/mail"
	"github.com/kunjika/accounts/internal/model"
	"github.com/kunjika/accounts/internal/repository"
	"github.com/kunjika/accounts/internal/session"
	"github.com/kunjika/accounts/internal/token"
)

// AccountService defines the account and profile flows.
type AccountService interface {
	// Register creates an account and emails a confirmation link. The
	// returned flag reports whether the email went out; delivery failure
	// does not roll the account back.
	Register(ctx context.Context, username, email, password, confirm string) (emailSent bool, err error)
	// Login authenticates by identifier and returns a session credential.
	Login(ctx context.Context, who, password string, rememberMe bool) (string, *session.Claims, error)
	// ConfirmEmail verifies a confirmation token and marks the email verified.
	ConfirmEmail(ctx context.Context, tok string) error
	// CheckUsername reports whether a username is free to take.
	CheckUsername(ctx context.Context, username string) bool
	// GetProfile loads a public profile.
	GetProfile(ctx context.Context, userID int64) (*model.Profile, error)
	// ListUsers returns one page of the user directory.
	ListUsers(ctx context.Context, lastName string) ([]model.UserSummary, error)
	// UpdateField sets one profile field after an ownership check.
	UpdateField(ctx context.Context, claims *session.Claims, ownerID int64, field model.ProfileField, value string) (bool, error)
	// UpdateUsername renames the account, refusing names already held.
	UpdateUsername(ctx context.Context, claims *session.Claims, ownerID int64, username string) (bool, error)
	// GetLinks loads the external links of the caller's own profile.
	GetLinks(ctx context.Context, claims *session.Claims, ownerID int64) (*model.Links, error)
	// UpdateLinks replaces the external links after an ownership check.
	UpdateLinks(ctx context.Context, claims *session.Claims, ownerID int64, links model.Links) (bool, error)
	// DeleteAccount soft-deletes the caller's own account.
	DeleteAccount(ctx context.Context, claims *session.Claims, ownerID int64) error
}

type AccountServiceImpl struct {
	users        repository.UserRepository
	tokens       *token.Service
	sessions     *session.Service
	mailer       mail.Mailer
	log          *zap.Logger
	host         string
	usersPerPage int
}

// NewAccountService constructs AccountService with required dependencies.
// host is the public hostname placed into confirmation links.
func NewAccountService(
	users repository.UserRepository,
	tokens *token.Service,
	sessions *session.Service,
	mailer mail.Mailer,
	log *zap.Logger,
	host string,
	usersPerPage int,
) *AccountServiceImpl {
	return &AccountServiceImpl{
		users:        users,
		tokens:       tokens,
		sessions:     sessions,
		mailer:       mailer,
		log:          log,
		host:         host,
		usersPerPage: usersPerPage,
	}
}

// gravatarURL derives the avatar reference from the email address. The hash
// is content-derived, not a secret.
func gravatarURL(email string) string {
	return fmt.Sprintf("https://www.gravatar.com/avatar/%x", md5.Sum([]byte(email)))
}

// Register creates a new account and sends the confirmation email.
func (s *AccountServiceImpl) Register(ctx context.Context, username, email, password, confirm string) (bool, error) {
	if username == "" || email == "" || password == "" {
		return false, fmt.Errorf("%w: empty username/email/password", errs.ErrInvalidInput)
	}
	if password != confirm {
		return false, fmt.Errorf("%w: passwords do not match", errs.ErrInvalidInput)
	}

	passhash, err := pkgcrypto.EncodePassword(password)
	if err != nil {
		return false, err
	}
	u := &model.User{
		DisplayName:  username,
		Email:        email,
		PasswordHash: passhash,
		ImageURL:     gravatarURL(email),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return false, err
	}

	tok := s.tokens.Sign(email)
	body := fmt.Sprintf(`Hi %s,

Thank you for registering at Kunjika.
Your email confirmation link is https://%s/confirm-email/%s.
This email will expire in one day.

Thanks,
Shiv`, username, s.host, tok)

	if err := s.mailer.Send(ctx, email, "Registration at Kunjika", body); err != nil {
		s.log.Warn("confirmation email delivery failed",
			zap.String("email", email), zap.Error(err))
		return false, nil
	}
	return true, nil
}

// Login resolves the identifier, checks verification state and password, and
// issues a session credential. Every failure is the same generic
// ErrUnauthorized so callers cannot probe for account existence.
func (s *AccountServiceImpl) Login(ctx context.Context, who, password string, rememberMe bool) (string, *session.Claims, error) {
	// TODO: disable login for blocked accounts once status values beyond
	// "deleted" exist.
	u, err := s.users.FindBy(ctx, identifier.Classify(who))
	if err != nil {
		return "", nil, errs.ErrUnauthorized
	}
	if !u.EmailVerified {
		return "", nil, errs.ErrUnauthorized
	}
	if !pkgcrypto.VerifyPassword(password, u.PasswordHash) {
		return "", nil, errs.ErrUnauthorized
	}
	return s.sessions.Issue(u.ID, u.DisplayName, u.Email, u.ImageURL, rememberMe)
}

// ConfirmEmail verifies the signed token and marks the account verified.
// Re-confirming a verified address is a no-op success.
func (s *AccountServiceImpl) ConfirmEmail(ctx context.Context, tok string) error {
	email, err := s.tokens.Verify(tok)
	if err != nil {
		return err
	}
	return s.users.SetEmailVerified(ctx, email)
}

// CheckUsername reports availability. A found row means taken; absence —
// including a failed lookup — means available, matching the original
// behavior. The database uniqueness constraint stays authoritative.
func (s *AccountServiceImpl) CheckUsername(ctx context.Context, username string) bool {
	_, err := s.users.FindBy(ctx, identifier.Identifier{Kind: identifier.KindUsername, Value: username})
	return err != nil
}

// GetProfile loads a public profile.
func (s *AccountServiceImpl) GetProfile(ctx context.Context, userID int64) (*model.Profile, error) {
	return s.users.GetProfile(ctx, userID)
}

// ListUsers returns one directory page after the display-name cursor.
func (s *AccountServiceImpl) ListUsers(ctx context.Context, lastName string) ([]model.UserSummary, error) {
	return s.users.ListUsers(ctx, lastName, s.usersPerPage)
}

// UpdateField sets one allow-listed profile field, owner only.
func (s *AccountServiceImpl) UpdateField(ctx context.Context, claims *session.Claims, ownerID int64, field model.ProfileField, value string) (bool, error) {
	if !authz.OwnerOnly(claims, ownerID) {
		return false, errs.ErrForbidden
	}
	if err := s.users.UpdateField(ctx, ownerID, field, value); err != nil {
		return false, err
	}
	return true, nil
}

// UpdateUsername renames the account. A name already held by any account is
// a soft conflict: the call succeeds with false and no mutation happens. The
// pre-check is a UX optimization; the unique constraint is the safety net
// under concurrent requests.
func (s *AccountServiceImpl) UpdateUsername(ctx context.Context, claims *session.Claims, ownerID int64, username string) (bool, error) {
	if !authz.OwnerOnly(claims, ownerID) {
		return false, errs.ErrForbidden
	}
	if _, err := s.users.FindBy(ctx, identifier.Identifier{Kind: identifier.KindUsername, Value: username}); err == nil {
		return false, nil
	}
	if err := s.users.UpdateField(ctx, ownerID, model.FieldUsername, username); err != nil {
		return false, err
	}
	return true, nil
}

// GetLinks loads the caller's own links.
func (s *AccountServiceImpl) GetLinks(ctx context.Context, claims *session.Claims, ownerID int64) (*model.Links, error) {
	if !authz.OwnerOnly(claims, ownerID) {
		return nil, errs.ErrForbidden
	}
	return s.users.GetLinks(ctx, ownerID)
}

// UpdateLinks replaces the caller's own links.
func (s *AccountServiceImpl) UpdateLinks(ctx context.Context, claims *session.Claims, ownerID int64, links model.Links) (bool, error) {
	if !authz.OwnerOnly(claims, ownerID) {
		return false, errs.ErrForbidden
	}
	if err := s.users.UpdateLinks(ctx, ownerID, links); err != nil {
		return false, err
	}
	return true, nil
}

// DeleteAccount soft-deletes the caller's own account.
func (s *AccountServiceImpl) DeleteAccount(ctx context.Context, claims *session.Claims, ownerID int64) error {
	if !authz.OwnerOnly(claims, ownerID) {
		return errs.ErrForbidden
	}
	_, err := s.users.SoftDeleteBy(ctx, identifier.Classify(strconv.FormatInt(ownerID, 10)))
	return err
}
