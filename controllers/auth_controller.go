package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"pulse/config"
	"pulse/middleware"
	"pulse/models"
	"pulse/store"
	"pulse/utils"
)

const tokenTTL = 72 * time.Hour

// AuthController handles registration, login and session endpoints.
// The credential check follows config.AuthMode: "password" verifies a
// bcrypt hash, "none" accepts any existing username (identity-only
// deployments).
type AuthController struct {
	stores *store.Stores
}

// NewAuthController creates an AuthController.
func NewAuthController(stores *store.Stores) *AuthController {
	return &AuthController{stores: stores}
}

// Register creates a new account and issues a token.
func (a *AuthController) Register(ctx *gin.Context) {
	type request struct {
		Username string `json:"username" binding:"required,min=1,max=64"`
		Password string `json:"password"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		utils.Error(ctx, http.StatusBadRequest, 40002, "username is required")
		return
	}

	cfg := config.Get()
	var hash string
	if cfg.AuthMode == "password" {
		if len(req.Password) < 6 {
			utils.Error(ctx, http.StatusBadRequest, 40003, "password must be at least 6 characters")
			return
		}
		var err error
		hash, err = utils.HashPassword(req.Password)
		if err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to hash password")
			return
		}
	}

	user, err := a.stores.Identity.Register(ctx.Request.Context(), req.Username, hash)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrDuplicateUsername):
			utils.Error(ctx, http.StatusConflict, 40901, "username already exists")
		case errors.Is(err, models.ErrInvalidInput):
			utils.Error(ctx, http.StatusBadRequest, 40002, "username is required")
		default:
			utils.Errorf("register %q: %v", req.Username, err)
			utils.Error(ctx, http.StatusInternalServerError, 50002, "failed to create user")
		}
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Username, tokenTTL)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50003, "failed to generate token")
		return
	}

	utils.Success(ctx, gin.H{"token": token, "user": user})
}

// Login authenticates an existing account and issues a token.
func (a *AuthController) Login(ctx *gin.Context) {
	type request struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40004, "invalid request payload")
		return
	}

	user, err := a.stores.Identity.FindByUsername(ctx.Request.Context(), strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid username or password")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to load user")
		return
	}

	if config.Get().AuthMode == "password" && !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid username or password")
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Username, tokenTTL)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50005, "failed to generate token")
		return
	}

	utils.Success(ctx, gin.H{"token": token, "user": user})
}

// Logout invalidates the token by blacklisting it until expiration.
func (a *AuthController) Logout(ctx *gin.Context) {
	authHeader := ctx.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		utils.Error(ctx, http.StatusUnauthorized, 40107, "invalid authorization header")
		return
	}

	token := strings.TrimSpace(parts[1])
	claims, err := utils.ParseToken(token)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
		return
	}

	expiresAt := time.Now().Add(tokenTTL)
	if claims.RegisteredClaims.ExpiresAt != nil {
		expiresAt = claims.RegisteredClaims.ExpiresAt.Time
	}

	utils.BlacklistToken(token, expiresAt)
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the authenticated user.
func (a *AuthController) Me(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	user, err := a.stores.Identity.FindByID(ctx.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50006, "failed to load user")
		return
	}
	utils.Success(ctx, gin.H{"user": user})
}

func getUserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := value.(uint)
	return id, ok
}
