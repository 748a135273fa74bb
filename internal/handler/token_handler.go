package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt Timestamp `json:"expires_at" swaggertype:"string"`
}

// IssueToken godoc
// @Summary      Issue an admin bearer token
// @Description  Exchanges the API key for a short-lived token accepted on mutating routes.
// @Tags         auth
// @Produce      json
// @Security     APIKeyAuth
// @Success      200  {object}  TokenResponse
// @Failure      403  {object}  ErrorResponse "Invalid API Key"
// @Failure      404  {object}  ErrorResponse "Token issuance disabled"
// @Router       /auth/token [post]
func (h *Handler) IssueToken(c *gin.Context) {
	if h.Verifier == nil || !h.Verifier.TokensEnabled() {
		c.JSON(http.StatusNotFound, ErrorResponse{Detail: "Token issuance disabled"})
		return
	}

	token, expiresAt, err := h.Verifier.IssueToken(h.TokenTTL, h.Now())
	if err != nil {
		h.Log.Error().Err(err).Msg("failed to sign token")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, TokenResponse{Token: token, ExpiresAt: Timestamp{expiresAt.Truncate(time.Second)}})
}
