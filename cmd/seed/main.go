package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"

	"github.com/oksasatya/user-account-service/config"
	"github.com/oksasatya/user-account-service/internal/domain/apperr"
	"github.com/oksasatya/user-account-service/internal/domain/entity"
	"github.com/oksasatya/user-account-service/internal/domain/repository"
	"github.com/oksasatya/user-account-service/internal/infrastructure/store"
	"github.com/oksasatya/user-account-service/pkg/helpers"
)

type adminOptions struct {
	UserName string
	Email    string
	Password string
}

// normalize trims the identifiers, lowercases the email and checks the
// same content rules the HTTP API enforces.
func (o adminOptions) normalize() (adminOptions, error) {
	o.UserName = strings.TrimSpace(o.UserName)
	o.Email = strings.ToLower(strings.TrimSpace(o.Email))
	switch {
	case o.UserName == "" || entity.IsEmailIdentifier(o.UserName):
		return o, errors.New("username must be non-empty and must not contain @")
	case o.Email == "":
		return o, errors.New("email is required")
	case o.Password == "" || len(o.Password) > 72:
		return o, errors.New("password must be between 1 and 72 bytes")
	}
	return o, nil
}

// seedAdmin creates the administrator or, when the userName or email is
// already taken, promotes that account and resets its password.
func seedAdmin(ctx context.Context, users repository.UserRepository, hasher *helpers.PasswordHasher, opts adminOptions) (*entity.User, bool, error) {
	opts, err := opts.normalize()
	if err != nil {
		return nil, false, err
	}
	hash, err := hasher.HashPassword(ctx, opts.Password)
	if err != nil {
		return nil, false, fmt.Errorf("hash password: %w", err)
	}

	u := &entity.User{
		UserName:  opts.UserName,
		FirstName: "Admin",
		LastName:  "User",
		Email:     opts.Email,
		Password:  hash,
		IsAdmin:   true,
		Status:    true,
	}
	err = users.Create(ctx, u)
	if err == nil {
		return u.WithoutPassword(), true, nil
	}
	if !errors.Is(err, apperr.ErrConflict) {
		return nil, false, fmt.Errorf("create admin: %w", err)
	}

	existing, err := users.GetByIdentifier(ctx, opts.UserName)
	if errors.Is(err, apperr.ErrNotFound) {
		existing, err = users.GetByIdentifier(ctx, opts.Email)
	}
	if err != nil {
		return nil, false, fmt.Errorf("admin exists but lookup failed: %w", err)
	}
	admin, on := true, true
	refreshed, err := users.Update(ctx, existing.ID, entity.UserPatch{Password: &hash, IsAdmin: &admin, Status: &on})
	if err != nil {
		return nil, false, fmt.Errorf("refresh admin: %w", err)
	}
	return refreshed, false, nil
}

func main() {
	userName := flag.String("username", "admin", "administrator userName")
	email := flag.String("email", "admin@example.com", "administrator email")
	password := flag.String("password", "password123", "administrator password")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)
	ctx := context.Background()

	st, err := store.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer func() { _ = st.Close(ctx) }()

	hasher := helpers.NewPasswordHasher(cfg.BcryptCost, 1)
	u, created, err := seedAdmin(ctx, st.Users, hasher, adminOptions{UserName: *userName, Email: *email, Password: *password})
	if err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}
	if !created {
		fmt.Printf("admin already present, credentials refreshed: id=%s userName=%s\n", u.ID, u.UserName)
		return
	}
	fmt.Printf("seeded admin: id=%s userName=%s email=%s\n", u.ID, u.UserName, u.Email)
}
