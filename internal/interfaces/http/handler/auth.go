package handler

import (
	identityapp "github.com/clinicledger/backend/internal/application/identity"
	"github.com/clinicledger/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// AuthHandler handles identity sync, the current user and API keys
type AuthHandler struct {
	BaseHandler
	authService *identityapp.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *identityapp.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Sync godoc
// @ID           syncAuthUser
// @Summary      Sync the signed-in user
// @Description  Verifies the identity provider token and creates the user and organization on first sign-in
// @Tags         auth
// @Produce      json
// @Success      200 {object} APIResponse[identityapp.SyncUserResponse]
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /auth/sync [post]
func (h *AuthHandler) Sync(c *gin.Context) {
	token, ok := middleware.BearerToken(c)
	if !ok {
		h.Unauthorized(c, "Missing bearer token")
		return
	}
	profile, err := h.authService.VerifyIdentityToken(token)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	result, err := h.authService.SyncUser(c.Request.Context(), *profile)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Me godoc
// @ID           getAuthMe
// @Summary      Get the current user
// @Description  Returns the authenticated user with their organization
// @Tags         auth
// @Produce      json
// @Success      200 {object} APIResponse[identityapp.MeResponse]
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	_, userID, ok := h.principal(c)
	if !ok {
		return
	}
	result, err := h.authService.Me(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// RotateAPIKey godoc
// @ID           rotateAuthAPIKey
// @Summary      Rotate the API key
// @Description  Generates a new API key for the current user. The plaintext is returned once and the previous key stops working.
// @Tags         auth
// @Produce      json
// @Success      200 {object} APIResponse[identityapp.APIKeyResponse]
// @Failure      401 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /auth/api-key [post]
func (h *AuthHandler) RotateAPIKey(c *gin.Context) {
	_, userID, ok := h.principal(c)
	if !ok {
		return
	}
	result, err := h.authService.RotateAPIKey(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
