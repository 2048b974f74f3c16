package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	pkgcrypto "github.com/kunjika/accounts/internal/crypto"
	"github.com/kunjika/accounts/internal/errs"
	"github.com/kunjika/accounts/internal/identifier"
	"github.com/kunjika/accounts/internal/model"
	"github.com/kunjika/accounts/internal/repository"
	"github.com/kunjika/accounts/internal/session"
	"github.com/kunjika/accounts/internal/token"
)

type fieldUpdate struct {
	userID int64
	field  model.ProfileField
	value  string
}

type fakeUsers struct {
	byID map[int64]*model.User

	createErr error
	findErr   error

	verified     []string
	fieldUpdates []fieldUpdate
	linkUpdates  map[int64]model.Links
	deleted      []int64
}

var _ repository.UserRepository = (*fakeUsers)(nil)

func newFakeUsers(users ...*model.User) *fakeUsers {
	f := &fakeUsers{byID: map[int64]*model.User{}, linkUpdates: map[int64]model.Links{}}
	for _, u := range users {
		cpy := *u
		f.byID[u.ID] = &cpy
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, e := range f.byID {
		if e.Email == u.Email || e.DisplayName == u.DisplayName {
			return errs.ErrAlreadyExists
		}
	}
	cpy := *u
	cpy.ID = int64(len(f.byID) + 1)
	f.byID[cpy.ID] = &cpy
	return nil
}

func (f *fakeUsers) FindBy(_ context.Context, id identifier.Identifier) (*model.User, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, u := range f.byID {
		switch id.Column() {
		case identifier.ColumnID:
			if strconv.FormatInt(u.ID, 10) == id.Value {
				c := *u
				return &c, nil
			}
		case identifier.ColumnEmail:
			if u.Email == id.Value {
				c := *u
				return &c, nil
			}
		default:
			if u.DisplayName == id.Value {
				c := *u
				return &c, nil
			}
		}
	}
	return nil, errs.ErrNotFound
}

func (f *fakeUsers) SoftDeleteBy(ctx context.Context, id identifier.Identifier) (*model.User, error) {
	u, err := f.FindBy(ctx, id)
	if err != nil {
		return nil, err
	}
	f.byID[u.ID].Status = "deleted"
	f.deleted = append(f.deleted, u.ID)
	return u, nil
}

func (f *fakeUsers) UpdateField(_ context.Context, userID int64, field model.ProfileField, value string) error {
	f.fieldUpdates = append(f.fieldUpdates, fieldUpdate{userID, field, value})
	if u, ok := f.byID[userID]; ok && field == model.FieldUsername {
		u.DisplayName = value
	}
	return nil
}

func (f *fakeUsers) UpdateLinks(_ context.Context, userID int64, links model.Links) error {
	f.linkUpdates[userID] = links
	return nil
}

func (f *fakeUsers) SetEmailVerified(_ context.Context, email string) error {
	f.verified = append(f.verified, email)
	for _, u := range f.byID {
		if u.Email == email {
			u.EmailVerified = true
		}
	}
	return nil
}

func (f *fakeUsers) GetProfile(_ context.Context, userID int64) (*model.Profile, error) {
	u, ok := f.byID[userID]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &model.Profile{Username: u.DisplayName, ImageURL: u.ImageURL, Karma: "1"}, nil
}

func (f *fakeUsers) GetLinks(_ context.Context, userID int64) (*model.Links, error) {
	if _, ok := f.byID[userID]; !ok {
		return nil, errs.ErrNotFound
	}
	l := f.linkUpdates[userID]
	return &l, nil
}

func (f *fakeUsers) ListUsers(_ context.Context, lastName string, limit int) ([]model.UserSummary, error) {
	var out []model.UserSummary
	for _, u := range f.byID {
		if u.DisplayName > lastName && len(out) < limit {
			out = append(out, model.UserSummary{ID: u.ID, DisplayName: u.DisplayName})
		}
	}
	return out, nil
}

type fakeMailer struct {
	sendErr error

	to      []string
	subject string
	body    string
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.to = append(m.to, to)
	m.subject = subject
	m.body = body
	return nil
}

func newSvc(users *fakeUsers, mailer *fakeMailer, tokenTTL time.Duration) *AccountServiceImpl {
	return NewAccountService(
		users,
		token.New([]byte("tok-key"), tokenTTL),
		session.New([]byte("sess-key")),
		mailer,
		zap.NewNop(),
		"kunjika.example",
		20,
	)
}

func mustEncode(t *testing.T, password string) string {
	t.Helper()
	h, err := pkgcrypto.EncodePassword(password)
	if err != nil {
		t.Fatalf("EncodePassword: %v", err)
	}
	return h
}

func TestAccount_Register(t *testing.T) {
	t.Parallel()
	users := newFakeUsers()
	mailer := &fakeMailer{}
	s := newSvc(users, mailer, 0)
	ctx := context.Background()

	if _, err := s.Register(ctx, "", "", "", ""); !errors.Is(err, errs.ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput on empty input, got %v", err)
	}
	if _, err := s.Register(ctx, "bob", "bob@x.com", "Secret1!", "Other"); !errors.Is(err, errs.ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput on password mismatch, got %v", err)
	}

	sent, err := s.Register(ctx, "bob", "bob@x.com", "Secret1!", "Secret1!")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if !sent {
		t.Fatalf("expected confirmation email to be sent")
	}
	if len(mailer.to) != 1 || mailer.to[0] != "bob@x.com" {
		t.Fatalf("mail went to %v", mailer.to)
	}

	u, err := users.FindBy(ctx, identifier.Classify("bob@x.com"))
	if err != nil {
		t.Fatalf("created user not found: %v", err)
	}
	if u.ImageURL != gravatarURL("bob@x.com") {
		t.Fatalf("avatar not derived from email: %q", u.ImageURL)
	}
	if !pkgcrypto.VerifyPassword("Secret1!", u.PasswordHash) {
		t.Fatalf("stored hash does not verify")
	}

	// Duplicate email or username: generic conflict.
	if _, err := s.Register(ctx, "bob", "bob2@x.com", "pw", "pw"); !errors.Is(err, errs.ErrAlreadyExists) {
		t.Fatalf("want ErrAlreadyExists, got %v", err)
	}
}

func TestAccount_Register_TokenRoundTrip(t *testing.T) {
	t.Parallel()
	users := newFakeUsers()
	mailer := &fakeMailer{}
	s := newSvc(users, mailer, 0)

	if _, err := s.Register(context.Background(), "bob", "bob@x.com", "Secret1!", "Secret1!"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	// Extract the token from the mailed confirmation link.
	const marker = "/confirm-email/"
	i := strings.Index(mailer.body, marker)
	if i < 0 {
		t.Fatalf("no confirmation link in body:\n%s", mailer.body)
	}
	tok := mailer.body[i+len(marker):]
	end := strings.Index(tok, ".\n") // the sentence ends with a period
	if end < 0 {
		t.Fatalf("confirmation link not terminated: %q", tok)
	}
	tok = tok[:end]

	email, err := s.tokens.Verify(tok)
	if err != nil {
		t.Fatalf("Verify mailed token: %v", err)
	}
	if email != "bob@x.com" {
		t.Fatalf("token payload = %q, want registered email", email)
	}
}

func TestAccount_Register_MailFailureIsNotFatal(t *testing.T) {
	t.Parallel()
	users := newFakeUsers()
	mailer := &fakeMailer{sendErr: errors.New("relay down")}
	s := newSvc(users, mailer, 0)

	sent, err := s.Register(context.Background(), "bob", "bob@x.com", "pw", "pw")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if sent {
		t.Fatalf("emailSent should be false when delivery fails")
	}
	if _, err := users.FindBy(context.Background(), identifier.Classify("bob@x.com")); err != nil {
		t.Fatalf("account should exist despite mail failure: %v", err)
	}
}

func TestAccount_Login(t *testing.T) {
	t.Parallel()
	hash := mustEncode(t, "Secret1!")
	verified := &model.User{ID: 1, DisplayName: "bob", Email: "bob@x.com", PasswordHash: hash, EmailVerified: true, ImageURL: "https://img/b"}
	unverified := &model.User{ID: 2, DisplayName: "eve", Email: "eve@x.com", PasswordHash: hash, EmailVerified: false}
	users := newFakeUsers(verified, unverified)
	s := newSvc(users, &fakeMailer{}, 0)
	ctx := context.Background()

	// Unknown account: generic failure.
	if _, _, err := s.Login(ctx, "ghost@x.com", "Secret1!", false); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized for unknown account, got %v", err)
	}

	// Correct password but unverified email: same generic failure.
	if _, _, err := s.Login(ctx, "eve@x.com", "Secret1!", false); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized for unverified email, got %v", err)
	}

	// Wrong password.
	if _, _, err := s.Login(ctx, "bob@x.com", "nope", false); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized for wrong password, got %v", err)
	}

	// Storage failure is also masked.
	users.findErr = errors.New("boom")
	if _, _, err := s.Login(ctx, "bob@x.com", "Secret1!", false); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized on storage failure, got %v", err)
	}
	users.findErr = nil

	cred, claims, err := s.Login(ctx, "bob@x.com", "Secret1!", true)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if claims.UserID != 1 || claims.Username != "bob" || claims.ImageURL != "https://img/b" {
		t.Fatalf("claims mismatch: %+v", claims)
	}
	decoded, err := s.sessions.Decode(cred)
	if err != nil {
		t.Fatalf("Decode issued credential: %v", err)
	}
	if decoded.UserID != 1 {
		t.Fatalf("decoded user id = %d", decoded.UserID)
	}
}

func TestAccount_ConfirmEmail(t *testing.T) {
	t.Parallel()
	users := newFakeUsers(&model.User{ID: 1, DisplayName: "bob", Email: "bob@x.com"})
	s := newSvc(users, &fakeMailer{}, 0)
	ctx := context.Background()

	tok := s.tokens.Sign("bob@x.com")
	if err := s.ConfirmEmail(ctx, tok); err != nil {
		t.Fatalf("ConfirmEmail: %v", err)
	}
	if len(users.verified) != 1 || users.verified[0] != "bob@x.com" {
		t.Fatalf("verified = %v", users.verified)
	}

	// Confirming twice is a no-op success.
	if err := s.ConfirmEmail(ctx, tok); err != nil {
		t.Fatalf("second ConfirmEmail: %v", err)
	}

	// Tampered token.
	if err := s.ConfirmEmail(ctx, tok+"x"); !errors.Is(err, errs.ErrBadSignature) {
		t.Fatalf("want ErrBadSignature, got %v", err)
	}
}

func TestAccount_ConfirmEmail_Expired(t *testing.T) {
	t.Parallel()
	users := newFakeUsers()
	// A nanosecond validity window: the token is stale by the time it is
	// checked, and the outcome must be the distinct expiry error.
	s := newSvc(users, &fakeMailer{}, time.Nanosecond)

	tok := s.tokens.Sign("bob@x.com")
	time.Sleep(10 * time.Millisecond)
	err := s.ConfirmEmail(context.Background(), tok)
	if !errors.Is(err, errs.ErrTokenExpired) {
		t.Fatalf("want ErrTokenExpired, got %v", err)
	}
	if errors.Is(err, errs.ErrUnauthorized) || errors.Is(err, errs.ErrBadSignature) {
		t.Fatalf("expiry must stay distinct from auth failures")
	}
	if len(users.verified) != 0 {
		t.Fatalf("no verification should happen for an expired token")
	}
}

func TestAccount_CheckUsername(t *testing.T) {
	t.Parallel()
	users := newFakeUsers(&model.User{ID: 1, DisplayName: "bob", Email: "bob@x.com"})
	s := newSvc(users, &fakeMailer{}, 0)
	ctx := context.Background()

	if s.CheckUsername(ctx, "bob") {
		t.Fatalf("taken name reported available")
	}
	if !s.CheckUsername(ctx, "alice") {
		t.Fatalf("free name reported unavailable")
	}

	// Lookup errors read as available (observed behavior; the unique
	// constraint remains the safety net).
	users.findErr = errors.New("boom")
	if !s.CheckUsername(ctx, "bob") {
		t.Fatalf("lookup error should read as available")
	}
}

func TestAccount_UpdateField_OwnerGuard(t *testing.T) {
	t.Parallel()
	users := newFakeUsers(&model.User{ID: 1, DisplayName: "bob", Email: "bob@x.com"})
	s := newSvc(users, &fakeMailer{}, 0)
	ctx := context.Background()
	owner := &session.Claims{UserID: 1}
	intruder := &session.Claims{UserID: 2}

	if _, err := s.UpdateField(ctx, intruder, 1, model.FieldTitle, "x"); !errors.Is(err, errs.ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
	if _, err := s.UpdateField(ctx, nil, 1, model.FieldTitle, "x"); !errors.Is(err, errs.ErrForbidden) {
		t.Fatalf("want ErrForbidden for nil claims, got %v", err)
	}
	if len(users.fieldUpdates) != 0 {
		t.Fatalf("denied update must not reach storage")
	}

	ok, err := s.UpdateField(ctx, owner, 1, model.FieldTitle, "Gopher")
	if err != nil || !ok {
		t.Fatalf("UpdateField: ok=%v err=%v", ok, err)
	}
	if len(users.fieldUpdates) != 1 || users.fieldUpdates[0].field != model.FieldTitle {
		t.Fatalf("updates = %+v", users.fieldUpdates)
	}
}

func TestAccount_UpdateUsername_SoftConflict(t *testing.T) {
	t.Parallel()
	users := newFakeUsers(
		&model.User{ID: 1, DisplayName: "bob", Email: "bob@x.com"},
		&model.User{ID: 2, DisplayName: "alice", Email: "alice@x.com"},
	)
	s := newSvc(users, &fakeMailer{}, 0)
	ctx := context.Background()
	owner := &session.Claims{UserID: 1}

	// Taken name: success=false, no mutation, no error.
	ok, err := s.UpdateUsername(ctx, owner, 1, "alice")
	if err != nil {
		t.Fatalf("UpdateUsername: %v", err)
	}
	if ok {
		t.Fatalf("taken name should yield soft conflict")
	}
	if len(users.fieldUpdates) != 0 {
		t.Fatalf("soft conflict must not mutate storage")
	}

	// The guard, not the uniqueness check, rejects a non-owner.
	if _, err := s.UpdateUsername(ctx, &session.Claims{UserID: 2}, 1, "carol"); !errors.Is(err, errs.ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}

	ok, err = s.UpdateUsername(ctx, owner, 1, "robert")
	if err != nil || !ok {
		t.Fatalf("UpdateUsername: ok=%v err=%v", ok, err)
	}
	if users.byID[1].DisplayName != "robert" {
		t.Fatalf("rename not applied: %+v", users.byID[1])
	}
}

func TestAccount_Links(t *testing.T) {
	t.Parallel()
	users := newFakeUsers(&model.User{ID: 1, DisplayName: "bob", Email: "bob@x.com"})
	s := newSvc(users, &fakeMailer{}, 0)
	ctx := context.Background()
	owner := &session.Claims{UserID: 1}

	if _, err := s.GetLinks(ctx, &session.Claims{UserID: 2}, 1); !errors.Is(err, errs.ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}

	links := model.Links{Website: "https://w", Git: "https://g", Twitter: "@b"}
	ok, err := s.UpdateLinks(ctx, owner, 1, links)
	if err != nil || !ok {
		t.Fatalf("UpdateLinks: ok=%v err=%v", ok, err)
	}
	got, err := s.GetLinks(ctx, owner, 1)
	if err != nil {
		t.Fatalf("GetLinks: %v", err)
	}
	if *got != links {
		t.Fatalf("links = %+v", got)
	}
}

func TestAccount_DeleteAccount(t *testing.T) {
	t.Parallel()
	users := newFakeUsers(&model.User{ID: 1, DisplayName: "bob", Email: "bob@x.com"})
	s := newSvc(users, &fakeMailer{}, 0)
	ctx := context.Background()

	if err := s.DeleteAccount(ctx, &session.Claims{UserID: 2}, 1); !errors.Is(err, errs.ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
	if err := s.DeleteAccount(ctx, &session.Claims{UserID: 1}, 1); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}
	if users.byID[1].Status != "deleted" {
		t.Fatalf("status = %q, want deleted", users.byID[1].Status)
	}
}
