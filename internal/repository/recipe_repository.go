package repository

import (
	"database/sql"
	"fmt"

	"github.com/amirk1998/recipe-box/internal/database"
	"github.com/amirk1998/recipe-box/internal/models"
	"github.com/amirk1998/recipe-box/pkg/errors"
)

type RecipeRepository struct {
	db database.DBTX
}

// NewRecipeRepository creates a new recipe repository
func NewRecipeRepository(db *sql.DB) *RecipeRepository {
	return &RecipeRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *RecipeRepository) WithTx(tx *sql.Tx) *RecipeRepository {
	return &RecipeRepository{db: tx}
}

// Create creates a new recipe owned by recipe.UserID
func (r *RecipeRepository) Create(recipe *models.Recipe) error {
	query := `
        INSERT INTO recipes (user_id, title, instructions_encrypted, minutes_to_complete, created_at)
        VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
    `

	result, err := r.db.Exec(query,
		recipe.UserID,
		recipe.Title,
		recipe.InstructionsEncrypted,
		recipe.MinutesToComplete,
	)

	if err != nil {
		return fmt.Errorf("failed to create recipe: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get recipe ID: %w", err)
	}

	recipe.ID = int(id)

	return nil
}

// GetByID retrieves a recipe by ID
func (r *RecipeRepository) GetByID(id int) (*models.Recipe, error) {
	query := `
        SELECT id, user_id, title, instructions_encrypted, minutes_to_complete, created_at
        FROM recipes
        WHERE id = ?
    `

	recipe := &models.Recipe{}
	err := r.db.QueryRow(query, id).Scan(
		&recipe.ID,
		&recipe.UserID,
		&recipe.Title,
		&recipe.InstructionsEncrypted,
		&recipe.MinutesToComplete,
		&recipe.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, errors.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}

	return recipe, nil
}

// OwnedRecipe pairs a recipe row with its owner's public columns
type OwnedRecipe struct {
	Recipe models.Recipe
	Owner  models.Profile
}

// ListAllWithOwners retrieves every recipe joined with its owner's public
// fields. Instructions are still encrypted in the returned rows.
func (r *RecipeRepository) ListAllWithOwners() ([]OwnedRecipe, error) {
	query := `
        SELECT r.id, r.user_id, r.title, r.instructions_encrypted, r.minutes_to_complete, r.created_at,
               u.id, u.username, u.image_url, u.bio
        FROM recipes r
        JOIN users u ON u.id = r.user_id
        ORDER BY r.id
    `

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer rows.Close()

	var results []OwnedRecipe
	for rows.Next() {
		var or OwnedRecipe
		err := rows.Scan(
			&or.Recipe.ID,
			&or.Recipe.UserID,
			&or.Recipe.Title,
			&or.Recipe.InstructionsEncrypted,
			&or.Recipe.MinutesToComplete,
			&or.Recipe.CreatedAt,
			&or.Owner.ID,
			&or.Owner.Username,
			&or.Owner.ImageURL,
			&or.Owner.Bio,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recipe: %w", err)
		}
		results = append(results, or)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return results, nil
}

// Count returns total number of recipes for a user
func (r *RecipeRepository) Count(userID int) (int, error) {
	query := `
        SELECT COUNT(*)
        FROM recipes
        WHERE user_id = ?
    `

	var count int
	err := r.db.QueryRow(query, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count recipes: %w", err)
	}

	return count, nil
}
