package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/oksasatya/user-account-service/internal/domain/apperr"
	"github.com/oksasatya/user-account-service/internal/domain/entity"
	"github.com/oksasatya/user-account-service/internal/domain/repository"
)

const publicColumns = `id, user_name, first_name, last_name, email, profile_image, is_admin, status, created_at, updated_at`

const (
	insertUser = `
		INSERT INTO users (user_name, first_name, last_name, email, password, profile_image, is_admin, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	selectUserByID = `
		SELECT ` + publicColumns + `
		FROM users
		WHERE id = $1`

	selectUserByUserName = `
		SELECT ` + publicColumns + `, password
		FROM users
		WHERE user_name = $1`

	selectUserByEmail = `
		SELECT ` + publicColumns + `, password
		FROM users
		WHERE email = lower($1)`

	selectUsers = `
		SELECT ` + publicColumns + `
		FROM users
		ORDER BY created_at, id`

	deleteUser = `DELETE FROM users WHERE id = $1`
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// translate maps driver errors onto the domain taxonomy.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return fmt.Errorf("%w: %s", apperr.ErrConflict, pgErr.ConstraintName)
		case pgerrcode.InvalidTextRepresentation:
			// malformed uuid in a lookup
			return apperr.ErrNotFound
		}
	}
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner, withPassword bool) (*entity.User, error) {
	u := &entity.User{}
	dest := []any{&u.ID, &u.UserName, &u.FirstName, &u.LastName, &u.Email, &u.ProfileImage,
		&u.IsAdmin, &u.Status, &u.CreatedAt, &u.UpdatedAt}
	if withPassword {
		dest = append(dest, &u.Password)
	}
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	row := r.db.QueryRowContext(ctx, insertUser,
		u.UserName, u.FirstName, u.LastName, u.Email, u.Password, u.ProfileImage, u.IsAdmin, u.Status)
	return translate(row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt))
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, selectUserByID, id), false)
	if err != nil {
		return nil, translate(err)
	}
	return u, nil
}

func (r *UserRepository) GetByIdentifier(ctx context.Context, identifier string) (*entity.User, error) {
	query := selectUserByUserName
	if entity.IsEmailIdentifier(identifier) {
		query = selectUserByEmail
	}
	u, err := scanUser(r.db.QueryRowContext(ctx, query, identifier), true)
	if err != nil {
		return nil, translate(err)
	}
	return u, nil
}

func (r *UserRepository) List(ctx context.Context) ([]*entity.User, error) {
	rows, err := r.db.QueryContext(ctx, selectUsers)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make([]*entity.User, 0)
	for rows.Next() {
		u, err := scanUser(rows, false)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// buildUpdate renders the partial UPDATE for patch. Only supplied columns
// appear in the SET clause.
func buildUpdate(id string, p entity.UserPatch) (string, []any, error) {
	b := psql.Update("users").Set("updated_at", sq.Expr("now()"))
	if p.UserName != nil {
		b = b.Set("user_name", *p.UserName)
	}
	if p.FirstName != nil {
		b = b.Set("first_name", *p.FirstName)
	}
	if p.LastName != nil {
		b = b.Set("last_name", *p.LastName)
	}
	if p.Email != nil {
		b = b.Set("email", *p.Email)
	}
	if p.Password != nil {
		b = b.Set("password", *p.Password)
	}
	if p.ProfileImage != nil {
		b = b.Set("profile_image", *p.ProfileImage)
	}
	if p.IsAdmin != nil {
		b = b.Set("is_admin", *p.IsAdmin)
	}
	if p.Status != nil {
		b = b.Set("status", *p.Status)
	}
	return b.Where(sq.Eq{"id": id}).Suffix("RETURNING " + publicColumns).ToSql()
}

func (r *UserRepository) Update(ctx context.Context, id string, patch entity.UserPatch) (*entity.User, error) {
	query, args, err := buildUpdate(id, patch)
	if err != nil {
		return nil, fmt.Errorf("build update: %w", err)
	}
	u, err := scanUser(r.db.QueryRowContext(ctx, query, args...), false)
	if err != nil {
		return nil, translate(err)
	}
	return u, nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, deleteUser, id)
	if err != nil {
		return translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
