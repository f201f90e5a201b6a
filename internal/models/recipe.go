package models

import (
	"time"
)

type Recipe struct {
	ID                    int       `json:"id"`
	UserID                int       `json:"user_id"`
	Title                 string    `json:"title"`
	Instructions          string    `json:"instructions"` // Decrypted instructions
	InstructionsEncrypted string    `json:"-"`            // Never expose ciphertext
	MinutesToComplete     *int      `json:"minutes_to_complete,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
}

type CreateRecipeRequest struct {
	Title             string `json:"title"`
	Instructions      string `json:"instructions"`
	MinutesToComplete *int   `json:"minutes_to_complete"`
}

// RecipeWithOwner is a recipe resolved with its owner's public projection,
// the shape returned by the listing and creation endpoints.
type RecipeWithOwner struct {
	ID                int      `json:"id"`
	Title             string   `json:"title"`
	Instructions      string   `json:"instructions"`
	MinutesToComplete *int     `json:"minutes_to_complete,omitempty"`
	User              *Profile `json:"user"`
}
