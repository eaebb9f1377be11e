package handlers

import (
	"net/http"

	"papermerge/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CreateSharedNodesRequest struct {
	NodeIDs  []uuid.UUID `json:"node_ids" binding:"required"`
	RoleIDs  []uuid.UUID `json:"role_ids" binding:"required"`
	UserIDs  []uuid.UUID `json:"user_ids"`
	GroupIDs []uuid.UUID `json:"group_ids"`
}

func CreateSharedNodes(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req CreateSharedNodesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	created, err := getServices().Sharing.CreateSharedNodes(c.Request.Context(), actor, req.NodeIDs, req.UserIDs, req.GroupIDs, req.RoleIDs)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, http.StatusCreated, gin.H{"created": created})
}

func ListSharedNodes(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	grants, err := getServices().Sharing.ListSharedNodes(c.Request.Context(), actor, id)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, http.StatusOK, grants)
}

func DeleteSharedNode(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if respondServiceError(c, getServices().Sharing.DeleteSharedNode(c.Request.Context(), actor, id)) {
		return
	}
	c.Status(http.StatusNoContent)
}
