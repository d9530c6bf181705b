package application

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/user-account-service/internal/domain/apperr"
	"github.com/oksasatya/user-account-service/internal/domain/entity"
	repo "github.com/oksasatya/user-account-service/internal/domain/repository"
	"github.com/oksasatya/user-account-service/internal/infrastructure/events"
	"github.com/oksasatya/user-account-service/pkg/helpers"
)

var (
	signups         = expvar.NewInt("signups")
	loginsSucceeded = expvar.NewInt("logins_succeeded")
	loginsFailed    = expvar.NewInt("logins_failed")
	usersDeleted    = expvar.NewInt("users_deleted")
)

type Hasher interface {
	HashPassword(ctx context.Context, plain string) (string, error)
	CompareHashAndPassword(ctx context.Context, hash, plain string) (bool, error)
}

type TokenIssuer interface {
	GenerateToken(subject string, isAdmin, status bool) (string, time.Time, error)
	ParseToken(token string) (*helpers.Claims, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, ev events.AccountEvent) error
}

// Revoker records logged-out token ids. Optional.
type Revoker interface {
	Revoke(ctx context.Context, jti string, exp time.Time) error
}

type Service struct {
	Repo    repo.UserRepository
	Hasher  Hasher
	Tokens  TokenIssuer
	Events  EventPublisher
	Revoker Revoker
	Logger  *logrus.Logger

	// AllowPrivilegedSignup lets signup requests set isAdmin and status.
	AllowPrivilegedSignup bool
}

func NewService(repo repo.UserRepository, hasher Hasher, tokens TokenIssuer, publisher EventPublisher, revoker Revoker, logger *logrus.Logger, allowPrivilegedSignup bool) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = helpers.NewNopLogger()
	}
	return &Service{
		Repo:                  repo,
		Hasher:                hasher,
		Tokens:                tokens,
		Events:                publisher,
		Revoker:               revoker,
		Logger:                logger,
		AllowPrivilegedSignup: allowPrivilegedSignup,
	}
}

// Session is an issued session token and the account it belongs to.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *entity.User
}

type LoginInput struct {
	// Identifier is a userName or an email address.
	Identifier string
	Password   string
}

type SignupInput struct {
	UserName     string
	FirstName    string
	LastName     string
	Email        string
	Password     string
	ProfileImage string
	IsAdmin      *bool
	Status       *bool
}

// Actor is the authenticated caller of an operation, taken from the
// session token. A nil *Actor means the request carried no session.
type Actor struct {
	UserID  string
	IsAdmin bool
}

// bcrypt.GenerateFromPassword refuses input longer than 72 bytes.
const maxPasswordBytes = 72

// checkFields records content errors for userName and password.
func checkFields(details map[string]string, userName, password *string) {
	if userName != nil && entity.IsEmailIdentifier(*userName) {
		details["userName"] = "must not contain @"
	}
	if password != nil && len(*password) > maxPasswordBytes {
		details["password"] = fmt.Sprintf("must be at most %d bytes long", maxPasswordBytes)
	}
}

func trimPtr(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// required returns a validation error naming every blank field, or nil.
func required(fields ...[2]string) error {
	details := map[string]string{}
	for _, f := range fields {
		if strings.TrimSpace(f[1]) == "" {
			details[f[0]] = "is required"
		}
	}
	if len(details) == 0 {
		return nil
	}
	return apperr.Validation("Missing fields", details)
}

func (s *Service) issue(u *entity.User) (*Session, error) {
	token, exp, err := s.Tokens.GenerateToken(u.ID, u.IsAdmin, u.Status)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate token failed")
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: exp, User: u.WithoutPassword()}, nil
}

func (s *Service) publish(ctx context.Context, ev events.AccountEvent) {
	if err := s.Events.Publish(ctx, ev); err != nil {
		s.Logger.WithError(err).WithFields(logrus.Fields{
			"event":   ev.Type,
			"user_id": ev.UserID,
		}).Warn("publish account event failed")
	}
}

// Login verifies credentials and issues a session token.
func (s *Service) Login(ctx context.Context, in LoginInput) (*Session, error) {
	identifier := strings.TrimSpace(in.Identifier)
	if err := required([2]string{"userName", identifier}, [2]string{"password", in.Password}); err != nil {
		return nil, err
	}

	u, err := s.Repo.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			loginsFailed.Add(1)
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}

	ok, err := s.Hasher.CompareHashAndPassword(ctx, u.Password, in.Password)
	if err != nil {
		return nil, err
	}
	if !ok {
		loginsFailed.Add(1)
		s.Logger.WithField("user_id", u.ID).Info("login rejected: password mismatch")
		return nil, apperr.ErrAuthentication
	}

	sess, err := s.issue(u)
	if err != nil {
		return nil, err
	}
	loginsSucceeded.Add(1)
	return sess, nil
}

// Signup creates an account and issues its first session token.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*Session, error) {
	if err := required(
		[2]string{"userName", in.UserName},
		[2]string{"firstName", in.FirstName},
		[2]string{"lastName", in.LastName},
		[2]string{"email", in.Email},
		[2]string{"password", in.Password},
	); err != nil {
		return nil, err
	}
	details := map[string]string{}
	userName := strings.TrimSpace(in.UserName)
	checkFields(details, &userName, &in.Password)
	if len(details) > 0 {
		return nil, apperr.Validation("Invalid fields", details)
	}

	hash, err := s.Hasher.HashPassword(ctx, in.Password)
	if err != nil {
		return nil, err
	}

	u := &entity.User{
		UserName:     userName,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        normalizeEmail(in.Email),
		Password:     hash,
		ProfileImage: in.ProfileImage,
	}
	if in.IsAdmin != nil || in.Status != nil {
		if s.AllowPrivilegedSignup {
			u.IsAdmin = in.IsAdmin != nil && *in.IsAdmin
			u.Status = in.Status != nil && *in.Status
		} else {
			s.Logger.WithField("user_name", u.UserName).Warn("signup tried to set privileged fields; ignored")
		}
	}

	if err := s.Repo.Create(ctx, u); err != nil {
		return nil, err
	}
	signups.Add(1)
	s.publish(ctx, events.NewAccountEvent(events.UserCreated, u.ID, u))

	return s.issue(u)
}

// GetProfile returns the account identified by the session subject.
func (s *Service) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	if userID == "" {
		return nil, apperr.ErrUnauthenticated
	}
	return s.Repo.GetByID(ctx, userID)
}

func (s *Service) ListUsers(ctx context.Context) ([]*entity.User, error) {
	users, err := s.Repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []*entity.User{}
	}
	return users, nil
}

// authorizePrivileged confirms actor is an administrator both in its token
// and in the store, so a demoted admin's live session loses the right.
func (s *Service) authorizePrivileged(ctx context.Context, actor *Actor) error {
	if actor == nil || actor.UserID == "" {
		return apperr.ErrUnauthenticated
	}
	if !actor.IsAdmin {
		return apperr.ErrForbidden
	}
	u, err := s.Repo.GetByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.ErrUnauthenticated
		}
		return err
	}
	if !u.IsAdmin {
		return apperr.ErrForbidden
	}
	return nil
}

// UpdateUser applies the fields set in patch. Password carries plaintext on
// the way in and is replaced by its digest before reaching the store.
// Patches that set isAdmin or status require an administrator actor.
func (s *Service) UpdateUser(ctx context.Context, actor *Actor, id string, patch entity.UserPatch) (*entity.User, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperr.Validation("Missing fields", map[string]string{"id": "is required"})
	}
	if patch.IsPrivileged() {
		if err := s.authorizePrivileged(ctx, actor); err != nil {
			s.Logger.WithField("user_id", id).Warn("privileged update rejected")
			return nil, err
		}
	}

	patch.UserName = trimPtr(patch.UserName)
	patch.FirstName = trimPtr(patch.FirstName)
	patch.LastName = trimPtr(patch.LastName)

	details := map[string]string{}
	for name, v := range map[string]*string{
		"userName":  patch.UserName,
		"firstName": patch.FirstName,
		"lastName":  patch.LastName,
		"email":     patch.Email,
		"password":  patch.Password,
	} {
		if v != nil && strings.TrimSpace(*v) == "" {
			details[name] = "must not be empty"
		}
	}
	checkFields(details, patch.UserName, patch.Password)
	if len(details) > 0 {
		return nil, apperr.Validation("Invalid fields", details)
	}

	if patch.Email != nil {
		e := normalizeEmail(*patch.Email)
		patch.Email = &e
	}
	if patch.Password != nil {
		hash, err := s.Hasher.HashPassword(ctx, *patch.Password)
		if err != nil {
			return nil, err
		}
		patch.Password = &hash
	}

	var (
		u   *entity.User
		err error
	)
	if patch.IsEmpty() {
		u, err = s.Repo.GetByID(ctx, id)
	} else {
		u, err = s.Repo.Update(ctx, id, patch)
	}
	if err != nil {
		return nil, err
	}
	if !patch.IsEmpty() {
		s.publish(ctx, events.NewAccountEvent(events.UserUpdated, u.ID, u))
	}
	return u, nil
}

func (s *Service) DeleteUser(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return apperr.Validation("Missing fields", map[string]string{"id": "is required"})
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	usersDeleted.Add(1)
	s.publish(ctx, events.NewAccountEvent(events.UserDeleted, id, nil))
	return nil
}

// Logout revokes token when a revocation list is configured. An unparsable
// or absent token is not an error; the caller clears the cookie regardless.
func (s *Service) Logout(ctx context.Context, token string) {
	if token == "" || s.Revoker == nil {
		return
	}
	claims, err := s.Tokens.ParseToken(token)
	if err != nil {
		return
	}
	var exp time.Time
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	if err := s.Revoker.Revoke(ctx, claims.ID, exp); err != nil {
		s.Logger.WithError(err).WithField("user_id", claims.Subject).Warn("revoke session failed")
	}
}
