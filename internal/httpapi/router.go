package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"github.com/amirk1998/recipe-box/internal/config"
	"github.com/amirk1998/recipe-box/internal/ratelimit"
)

// NewRouter builds the gin engine with session, CORS and rate limit
// middleware and wires every route.
func NewRouter(cfg *config.Config, h *Handlers, limiter *ratelimit.RateLimiter) *gin.Engine {
	router := gin.Default()

	// Cookie-backed session store; only the user id is ever stored in it
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	router.Use(sessions.Sessions(cfg.SessionCookie, store))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(cfg.CORSAllowedOrigins, ",")
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	router.Use(cors.New(corsConfig))

	router.Use(RequestID())
	router.Use(RateLimitByIP(limiter))

	router.GET("/health", handleHealth)

	router.POST("/signup", h.Signup)
	router.GET("/check_session", h.CheckSession)
	router.POST("/login", h.Login)
	router.DELETE("/logout", h.Logout)

	recipes := router.Group("/recipes")
	recipes.Use(h.RequireLogin())
	{
		recipes.GET("", h.ListRecipes)
		recipes.POST("", h.CreateRecipe)
	}

	return router
}

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "recipe-box-api",
	})
}
