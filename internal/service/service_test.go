package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirk1998/recipe-box/internal/audit"
	"github.com/amirk1998/recipe-box/internal/database"
	"github.com/amirk1998/recipe-box/internal/models"
	"github.com/amirk1998/recipe-box/internal/ratelimit"
	"github.com/amirk1998/recipe-box/internal/repository"
	"github.com/amirk1998/recipe-box/internal/security"
	"github.com/amirk1998/recipe-box/pkg/errors"
)

var testDBCounter atomic.Int64

type testEnv struct {
	auth    *AuthService
	recipes *RecipeService
	users   *repository.UserRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	name := fmt.Sprintf("service_test_%d", testDBCounter.Add(1))
	db, err := database.ConnectInMemory(name, "test-encryption-key")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))

	auditLogger, err := audit.NewLogger(db, filepath.Join(t.TempDir(), "audit.log"), false)
	require.NoError(t, err)
	t.Cleanup(func() { auditLogger.Close() })

	keys := security.NewKeyManager("db-key", "app-key", "backup-key")
	encryptor, err := security.NewFieldEncryptor(keys.AppKey())
	require.NoError(t, err)

	// Generous budget so tests never trip the limiter
	limiter := ratelimit.NewRateLimiter(1000, 1000)

	userRepo := repository.NewUserRepository(db)
	recipeRepo := repository.NewRecipeRepository(db)
	txManager := database.NewTransactionManager(db)

	return &testEnv{
		auth:    NewAuthService(userRepo, limiter, auditLogger),
		recipes: NewRecipeService(recipeRepo, userRepo, txManager, encryptor, limiter, auditLogger),
		users:   userRepo,
	}
}

func signUp(t *testing.T, env *testEnv, username, password string) *models.Profile {
	t.Helper()

	profile, err := env.auth.SignUp(context.Background(), &models.SignupRequest{
		Username: username,
		Password: password,
	})
	require.NoError(t, err)
	return profile
}

func TestSignUpThenCheckSession(t *testing.T) {
	env := newTestEnv(t)

	profile := signUp(t, env, "alice", "secret123")
	assert.Equal(t, 1, profile.ID)
	assert.Equal(t, "alice", profile.Username)

	resolved, err := env.auth.CheckSession(context.Background(), profile.ID)
	require.NoError(t, err)
	assert.Equal(t, profile, resolved)
}

func TestSignUpValidation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.auth.SignUp(context.Background(), &models.SignupRequest{})
	require.Error(t, err)

	ve, ok := errors.AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, ve.Messages, "Username is required")
	assert.Contains(t, ve.Messages, "Password is required")

	count, err := env.users.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, count, "nothing may be persisted on validation failure")
}

func TestSignUpDuplicateUsername(t *testing.T) {
	env := newTestEnv(t)

	signUp(t, env, "alice", "secret123")

	_, err := env.auth.SignUp(context.Background(), &models.SignupRequest{
		Username: "alice",
		Password: "different",
	})
	assert.Equal(t, errors.ErrUsernameTaken, err)

	count, err := env.users.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestLogIn(t *testing.T) {
	env := newTestEnv(t)
	signUp(t, env, "alice", "secret123")

	profile, err := env.auth.LogIn(context.Background(), &models.LoginRequest{
		Username: "alice",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.Username)
}

func TestLogInFailuresAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	signUp(t, env, "alice", "secret123")

	_, wrongPassword := env.auth.LogIn(context.Background(), &models.LoginRequest{
		Username: "alice",
		Password: "nope",
	})
	_, unknownUser := env.auth.LogIn(context.Background(), &models.LoginRequest{
		Username: "mallory",
		Password: "nope",
	})

	assert.Equal(t, errors.ErrInvalidCredentials, wrongPassword)
	assert.Equal(t, errors.ErrInvalidCredentials, unknownUser)
}

func TestLogInLockoutAfterRepeatedFailures(t *testing.T) {
	env := newTestEnv(t)
	signUp(t, env, "alice", "secret123")

	for i := 0; i < 5; i++ {
		_, err := env.auth.LogIn(context.Background(), &models.LoginRequest{
			Username: "alice",
			Password: "wrong",
		})
		assert.Equal(t, errors.ErrInvalidCredentials, err)
	}

	// Even the correct password is refused while the account is locked
	_, err := env.auth.LogIn(context.Background(), &models.LoginRequest{
		Username: "alice",
		Password: "secret123",
	})
	assert.Equal(t, errors.ErrAccountLocked, err)
}

func TestCheckSessionUnknownUser(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.auth.CheckSession(context.Background(), 99)
	assert.Equal(t, errors.ErrNotLoggedIn, err)
}

func TestRecipeInstructionsBoundary(t *testing.T) {
	env := newTestEnv(t)
	alice := signUp(t, env, "alice", "secret123")

	_, err := env.recipes.Create(context.Background(), alice.ID, &models.CreateRecipeRequest{
		Title:        "Toast",
		Instructions: strings.Repeat("a", 49),
	})
	require.Error(t, err)
	_, ok := errors.AsValidation(err)
	assert.True(t, ok)

	recipe, err := env.recipes.Create(context.Background(), alice.ID, &models.CreateRecipeRequest{
		Title:        "Toast",
		Instructions: strings.Repeat("a", 50),
	})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, recipe.User.ID)
}

func TestRecipeEmptyTitle(t *testing.T) {
	env := newTestEnv(t)
	alice := signUp(t, env, "alice", "secret123")

	_, err := env.recipes.Create(context.Background(), alice.ID, &models.CreateRecipeRequest{
		Instructions: strings.Repeat("a", 60),
	})
	require.Error(t, err)

	ve, ok := errors.AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, ve.Messages, "Title must be present")
}

func TestRecipeCreateAndList(t *testing.T) {
	env := newTestEnv(t)
	alice := signUp(t, env, "alice", "secret123")

	minutes := 25
	instructions := "Dice the onions finely, then sweat them in butter over low heat."
	created, err := env.recipes.Create(context.Background(), alice.ID, &models.CreateRecipeRequest{
		Title:             "Onion soup",
		Instructions:      instructions,
		MinutesToComplete: &minutes,
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", created.User.Username)
	assert.Equal(t, instructions, created.Instructions)

	list, err := env.recipes.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Onion soup", list[0].Title)
	assert.Equal(t, instructions, list[0].Instructions, "instructions come back decrypted")
	assert.Equal(t, "alice", list[0].User.Username)
	require.NotNil(t, list[0].MinutesToComplete)
	assert.Equal(t, 25, *list[0].MinutesToComplete)
}

func TestRecipeListEmpty(t *testing.T) {
	env := newTestEnv(t)

	list, err := env.recipes.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NotNil(t, list, "empty listing must serialize as [], not null")
}
