package handlers

import (
	"net/http"
	"time"

	"papermerge/utils"

	"github.com/gin-gonic/gin"
)

type CreateTokenRequest struct {
	Name      string     `json:"name" binding:"required"`
	Scopes    []string   `json:"scopes"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// CreateToken returns the plaintext exactly once.
func CreateToken(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req CreateTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	created, err := getServices().Auth.CreateToken(c.Request.Context(), actor, actor.User.ID, req.Name, req.Scopes, req.ExpiresAt)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, http.StatusCreated, created)
}

func ListTokens(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	tokens, err := getServices().Auth.ListTokens(c.Request.Context(), actor, actor.User.ID)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, http.StatusOK, tokens)
}

func RevokeToken(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if respondServiceError(c, getServices().Auth.RevokeToken(c.Request.Context(), actor, id)) {
		return
	}
	c.Status(http.StatusNoContent)
}
