package repository

import (
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirk1998/recipe-box/internal/database"
	"github.com/amirk1998/recipe-box/internal/models"
	"github.com/amirk1998/recipe-box/internal/security"
	"github.com/amirk1998/recipe-box/pkg/errors"
)

var testDBCounter atomic.Int64

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	name := fmt.Sprintf("repo_test_%d", testDBCounter.Add(1))
	db, err := database.ConnectInMemory(name, "test-encryption-key")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func newTestUser(t *testing.T, repo *UserRepository, username string) *models.User {
	t.Helper()

	ph := security.NewPasswordHasher()
	user := &models.User{Username: username, ImageURL: "", Bio: ""}
	require.NoError(t, user.PasswordDigest.SetFrom(ph, "secret123"))
	require.NoError(t, repo.Create(user))
	return user
}

func TestUserCreateAndGet(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)

	user := newTestUser(t, repo, "alice")
	assert.Equal(t, 1, user.ID)

	got, err := repo.GetByUsername("alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "alice", got.Username)

	ph := security.NewPasswordHasher()
	assert.True(t, got.PasswordDigest.Matches(ph, "secret123"))
}

func TestUserDuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)

	newTestUser(t, repo, "alice")

	ph := security.NewPasswordHasher()
	dup := &models.User{Username: "alice"}
	require.NoError(t, dup.PasswordDigest.SetFrom(ph, "other-password"))

	err := repo.Create(dup)
	assert.Equal(t, errors.ErrUsernameTaken, err)

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count, "exactly one user must exist after a conflict")
}

func TestUserNotFound(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)

	_, err := repo.GetByUsername("ghost")
	assert.Equal(t, errors.ErrUserNotFound, err)

	_, err = repo.GetByID(42)
	assert.Equal(t, errors.ErrUserNotFound, err)
}

func TestRecipeCreateAndListWithOwners(t *testing.T) {
	db := newTestDB(t)
	userRepo := NewUserRepository(db)
	recipeRepo := NewRecipeRepository(db)

	alice := newTestUser(t, userRepo, "alice")
	bob := newTestUser(t, userRepo, "bob")

	minutes := 30
	for i, owner := range []*models.User{alice, bob} {
		recipe := &models.Recipe{
			UserID:                owner.ID,
			Title:                 fmt.Sprintf("Recipe %d", i+1),
			InstructionsEncrypted: "ciphertext-placeholder",
			MinutesToComplete:     &minutes,
		}
		require.NoError(t, recipeRepo.Create(recipe))
		assert.NotZero(t, recipe.ID)
	}

	rows, err := recipeRepo.ListAllWithOwners()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "alice", rows[0].Owner.Username)
	assert.Equal(t, "bob", rows[1].Owner.Username)
	assert.Equal(t, alice.ID, rows[0].Recipe.UserID)
	require.NotNil(t, rows[0].Recipe.MinutesToComplete)
	assert.Equal(t, 30, *rows[0].Recipe.MinutesToComplete)
}

func TestRecipeNilMinutes(t *testing.T) {
	db := newTestDB(t)
	userRepo := NewUserRepository(db)
	recipeRepo := NewRecipeRepository(db)

	alice := newTestUser(t, userRepo, "alice")

	recipe := &models.Recipe{
		UserID:                alice.ID,
		Title:                 "No timing",
		InstructionsEncrypted: "ciphertext-placeholder",
	}
	require.NoError(t, recipeRepo.Create(recipe))

	got, err := recipeRepo.GetByID(recipe.ID)
	require.NoError(t, err)
	assert.Nil(t, got.MinutesToComplete)
}

func TestRecipeCountPerUser(t *testing.T) {
	db := newTestDB(t)
	userRepo := NewUserRepository(db)
	recipeRepo := NewRecipeRepository(db)

	alice := newTestUser(t, userRepo, "alice")

	for i := 0; i < 3; i++ {
		require.NoError(t, recipeRepo.Create(&models.Recipe{
			UserID:                alice.ID,
			Title:                 fmt.Sprintf("Recipe %d", i),
			InstructionsEncrypted: "ciphertext-placeholder",
		}))
	}

	count, err := recipeRepo.Count(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
