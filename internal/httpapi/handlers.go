package httpapi

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/amirk1998/recipe-box/internal/models"
	"github.com/amirk1998/recipe-box/internal/service"
	"github.com/amirk1998/recipe-box/pkg/errors"
)

const sessionKeyUserID = "user_id"

// Handlers holds the services behind the HTTP surface
type Handlers struct {
	auth    *service.AuthService
	recipes *service.RecipeService
}

// NewHandlers creates the HTTP handler set
func NewHandlers(auth *service.AuthService, recipes *service.RecipeService) *Handlers {
	return &Handlers{
		auth:    auth,
		recipes: recipes,
	}
}

// Signup handles POST /signup
func (h *Handlers) Signup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}

	profile, err := h.auth.SignUp(c.Request.Context(), &req)
	if err != nil {
		h.renderError(c, err)
		return
	}

	// Bind the session only after the user exists
	if !h.bindSession(c, profile.ID) {
		return
	}

	c.JSON(http.StatusCreated, profile)
}

// CheckSession handles GET /check_session
func (h *Handlers) CheckSession(c *gin.Context) {
	session := sessions.Default(c)
	userID, ok := session.Get(sessionKeyUserID).(int)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not logged in"})
		return
	}

	profile, err := h.auth.CheckSession(c.Request.Context(), userID)
	if err != nil {
		if err == errors.ErrNotLoggedIn {
			// Bound user no longer exists; drop the stale binding
			session.Clear()
			_ = session.Save()
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not logged in"})
			return
		}
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// Login handles POST /login
func (h *Handlers) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}

	if req.Username == "" || req.Password == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Username and password are required"})
		return
	}

	profile, err := h.auth.LogIn(c.Request.Context(), &req)
	if err != nil {
		h.renderError(c, err)
		return
	}

	if !h.bindSession(c, profile.ID) {
		return
	}

	c.JSON(http.StatusOK, profile)
}

// Logout handles DELETE /logout
func (h *Handlers) Logout(c *gin.Context) {
	session := sessions.Default(c)
	if _, ok := session.Get(sessionKeyUserID).(int); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not logged in"})
		return
	}

	session.Clear()
	if err := session.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear session"})
		return
	}

	c.Status(http.StatusNoContent)
}

// ListRecipes handles GET /recipes (authenticated)
func (h *Handlers) ListRecipes(c *gin.Context) {
	recipes, err := h.recipes.List(c.Request.Context())
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, recipes)
}

// CreateRecipe handles POST /recipes (authenticated)
func (h *Handlers) CreateRecipe(c *gin.Context) {
	userID := c.GetInt(ContextUserIDKey)

	var req models.CreateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}

	recipe, err := h.recipes.Create(c.Request.Context(), userID, &req)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, recipe)
}

// bindSession stores the user id in the cookie session. Returns false after
// writing an error response when the save fails.
func (h *Handlers) bindSession(c *gin.Context, userID int) bool {
	session := sessions.Default(c)
	session.Set(sessionKeyUserID, userID)
	if err := session.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save session"})
		return false
	}
	return true
}

// renderError translates service errors into the documented response shapes
func (h *Handlers) renderError(c *gin.Context, err error) {
	if ve, ok := errors.AsValidation(err); ok {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": ve.Messages})
		return
	}

	switch err {
	case errors.ErrUsernameTaken:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": []string{"Username already exists"}})
	case errors.ErrInvalidCredentials:
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	case errors.ErrAccountLocked:
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account is temporarily locked"})
	case errors.ErrNotLoggedIn:
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not logged in"})
	case errors.ErrNotAuthorized:
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authorized"})
	case errors.ErrRateLimitExceeded:
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
