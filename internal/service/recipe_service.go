package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/amirk1998/recipe-box/internal/audit"
	"github.com/amirk1998/recipe-box/internal/database"
	"github.com/amirk1998/recipe-box/internal/models"
	"github.com/amirk1998/recipe-box/internal/ratelimit"
	"github.com/amirk1998/recipe-box/internal/repository"
	"github.com/amirk1998/recipe-box/internal/security"
	"github.com/amirk1998/recipe-box/pkg/errors"
	"github.com/amirk1998/recipe-box/pkg/validator"
)

type RecipeService struct {
	recipeRepo  *repository.RecipeRepository
	userRepo    *repository.UserRepository
	txManager   *database.TransactionManager
	encryptor   *security.FieldEncryptor
	validator   *validator.Validator
	rateLimiter *ratelimit.RateLimiter
	auditLogger *audit.Logger
}

// NewRecipeService creates a new recipe service
func NewRecipeService(
	recipeRepo *repository.RecipeRepository,
	userRepo *repository.UserRepository,
	txManager *database.TransactionManager,
	encryptor *security.FieldEncryptor,
	rateLimiter *ratelimit.RateLimiter,
	auditLogger *audit.Logger,
) *RecipeService {
	return &RecipeService{
		recipeRepo:  recipeRepo,
		userRepo:    userRepo,
		txManager:   txManager,
		encryptor:   encryptor,
		validator:   validator.New(),
		rateLimiter: rateLimiter,
		auditLogger: auditLogger,
	}
}

// Create creates a new recipe owned by userID. The owner comes from the
// caller's authenticated session, never from the request body, so ownership
// cannot be forged or transferred.
func (s *RecipeService) Create(ctx context.Context, userID int, req *models.CreateRecipeRequest) (*models.RecipeWithOwner, error) {
	// Rate limiting
	rateLimitKey := fmt.Sprintf("recipe_create:%d", userID)
	if err := s.rateLimiter.CheckLimit(rateLimitKey); err != nil {
		s.auditLogger.Log(&audit.Event{
			Level:    audit.LevelWarning,
			UserID:   &userID,
			Action:   "RECIPE_CREATE_RATE_LIMITED",
			Resource: "recipes",
			Success:  false,
		})
		return nil, err
	}

	// Validate before touching the database; no partial writes
	req.Title = s.validator.SanitizeString(req.Title)

	var messages []string
	if err := s.validator.ValidateRecipeTitle(req.Title); err != nil {
		if ve, ok := errors.AsValidation(err); ok {
			messages = append(messages, ve.Messages...)
		}
	}
	if err := s.validator.ValidateRecipeInstructions(req.Instructions); err != nil {
		if ve, ok := errors.AsValidation(err); ok {
			messages = append(messages, ve.Messages...)
		}
	}
	if len(messages) > 0 {
		s.auditLogger.Log(&audit.Event{
			Level:    audit.LevelWarning,
			UserID:   &userID,
			Action:   "RECIPE_CREATE_INVALID_INPUT",
			Resource: "recipes",
			Success:  false,
			ErrorMsg: fmt.Sprintf("%v", messages),
		})
		return nil, errors.NewValidationError(messages...)
	}

	// Encrypt instructions for storage
	encrypted, err := s.encryptor.Encrypt(req.Instructions)
	if err != nil {
		s.auditLogger.Log(&audit.Event{
			Level:    audit.LevelError,
			UserID:   &userID,
			Action:   "RECIPE_CREATE_ENCRYPTION_FAILED",
			Resource: "recipes",
			Success:  false,
			ErrorMsg: err.Error(),
		})
		return nil, fmt.Errorf("failed to encrypt instructions: %w", err)
	}

	recipe := &models.Recipe{
		UserID:                userID,
		Title:                 req.Title,
		InstructionsEncrypted: encrypted,
		MinutesToComplete:     req.MinutesToComplete,
	}

	// Insert and resolve the owner in one transaction so the response always
	// reflects the committed row.
	var owner *models.User
	err = s.txManager.Execute(ctx, func(tx *sql.Tx) error {
		if err := s.recipeRepo.WithTx(tx).Create(recipe); err != nil {
			return err
		}

		u, err := s.userRepo.WithTx(tx).GetByID(userID)
		if err != nil {
			return err
		}
		owner = u
		return nil
	})
	if err != nil {
		s.auditLogger.Log(&audit.Event{
			Level:    audit.LevelError,
			UserID:   &userID,
			Action:   "RECIPE_CREATE_DB_ERROR",
			Resource: "recipes",
			Success:  false,
			ErrorMsg: err.Error(),
		})
		return nil, fmt.Errorf("failed to create recipe: %w", err)
	}

	s.auditLogger.Log(&audit.Event{
		Level:    audit.LevelInfo,
		UserID:   &userID,
		Action:   "RECIPE_CREATED",
		Resource: "recipes",
		Success:  true,
		Metadata: fmt.Sprintf("recipe_id=%d", recipe.ID),
	})

	return &models.RecipeWithOwner{
		ID:                recipe.ID,
		Title:             recipe.Title,
		Instructions:      req.Instructions,
		MinutesToComplete: recipe.MinutesToComplete,
		User:              owner.Profile(),
	}, nil
}

// List returns every recipe with its owner's public fields
func (s *RecipeService) List(ctx context.Context) ([]*models.RecipeWithOwner, error) {
	rows, err := s.recipeRepo.ListAllWithOwners()
	if err != nil {
		s.auditLogger.Log(&audit.Event{
			Level:    audit.LevelError,
			Action:   "RECIPE_LIST_DB_ERROR",
			Resource: "recipes",
			Success:  false,
			ErrorMsg: err.Error(),
		})
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}

	results := make([]*models.RecipeWithOwner, 0, len(rows))
	for _, row := range rows {
		instructions, err := s.encryptor.Decrypt(row.Recipe.InstructionsEncrypted)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt recipe %d: %w", row.Recipe.ID, err)
		}

		owner := row.Owner
		results = append(results, &models.RecipeWithOwner{
			ID:                row.Recipe.ID,
			Title:             row.Recipe.Title,
			Instructions:      instructions,
			MinutesToComplete: row.Recipe.MinutesToComplete,
			User:              &owner,
		})
	}

	return results, nil
}
