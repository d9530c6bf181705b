package memory

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/oksasatya/user-account-service/internal/domain/apperr"
	"github.com/oksasatya/user-account-service/internal/domain/entity"
)

func newUser(name string) *entity.User {
	return &entity.User{
		UserName:  name,
		FirstName: "First",
		LastName:  "Last",
		Email:     name + "@example.com",
		Password:  "digest",
	}
}

func TestCreateAndRead(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()

	u := newUser("alice")
	require.NoError(t, repo.Create(ctx, u))
	require.NotEmpty(t, u.ID)
	assert.False(t, u.CreatedAt.IsZero())

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.UserName)
	assert.Empty(t, got.Password, "default reads exclude the digest")

	byName, err := repo.GetByIdentifier(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "digest", byName.Password)

	byEmail, err := repo.GetByIdentifier(ctx, "ALICE@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)
}

func TestGetByIdentifier_SeparateNamespaces(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()

	victim := newUser("victim")
	require.NoError(t, repo.Create(ctx, victim))
	squatter := newUser("squatter")
	squatter.UserName = "victim@example.com"
	squatter.Email = "attacker@example.com"
	require.NoError(t, repo.Create(ctx, squatter))

	got, err := repo.GetByIdentifier(ctx, "victim@example.com")
	require.NoError(t, err)
	assert.Equal(t, victim.ID, got.ID, "email-shaped identifiers only match emails")

	_, err = repo.GetByIdentifier(ctx, "Victim")
	assert.ErrorIs(t, err, apperr.ErrNotFound, "user names match exactly")
}

func TestCreate_Duplicate(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newUser("bob")))

	dupName := newUser("bob")
	dupName.Email = "other@example.com"
	assert.ErrorIs(t, repo.Create(ctx, dupName), apperr.ErrConflict)

	dupEmail := newUser("bobby")
	dupEmail.Email = "bob@example.com"
	assert.ErrorIs(t, repo.Create(ctx, dupEmail), apperr.ErrConflict)
}

func TestMissing(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()

	_, err := repo.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = repo.GetByIdentifier(ctx, "nope")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = repo.Update(ctx, "nope", entity.UserPatch{})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "nope"), apperr.ErrNotFound)
}

func TestUpdate_Partial(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()
	u := newUser("carol")
	u.Status = true
	require.NoError(t, repo.Create(ctx, u))

	off := false
	first := "Caroline"
	got, err := repo.Update(ctx, u.ID, entity.UserPatch{Status: &off, FirstName: &first})
	require.NoError(t, err)
	assert.False(t, got.Status)
	assert.Equal(t, "Caroline", got.FirstName)
	assert.Equal(t, "Last", got.LastName)
	assert.Empty(t, got.Password)
}

func TestUpdate_Conflict(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()
	a, b := newUser("a"), newUser("b")
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	name := "a"
	_, err := repo.Update(ctx, b.ID, entity.UserPatch{UserName: &name})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	stored, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "b", stored.UserName, "failed update leaves the record untouched")
}

func TestListAndDelete(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, newUser(fmt.Sprintf("u%d", i))))
	}
	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)

	require.NoError(t, repo.Delete(ctx, all[0].ID))
	all, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestConcurrentCreate_SameUserName(t *testing.T) {
	repo := NewUserRepository()
	var ok, conflict atomic.Int32
	var g errgroup.Group
	for i := 0; i < 16; i++ {
		i := i
		g.Go(func() error {
			u := newUser("dup")
			u.Email = fmt.Sprintf("dup%d@example.com", i)
			err := repo.Create(context.Background(), u)
			switch {
			case err == nil:
				ok.Add(1)
			case apperr.HTTPStatus(err) == 409:
				conflict.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int32(1), ok.Load())
	assert.Equal(t, int32(15), conflict.Load())
}
