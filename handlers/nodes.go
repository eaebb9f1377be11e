package handlers

import (
	"context"
	"net/http"
	"strconv"

	"papermerge/models"
	"papermerge/services"
	"papermerge/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CreateFolderRequest struct {
	Title    string    `json:"title" binding:"required,max=200"`
	ParentID uuid.UUID `json:"parent_id" binding:"required"`
}

type RenameNodeRequest struct {
	Title string `json:"title" binding:"required,max=200"`
}

type MoveNodesRequest struct {
	SourceIDs []uuid.UUID `json:"source_ids" binding:"required"`
	TargetID  uuid.UUID   `json:"target_id" binding:"required"`
}

type DeleteNodesRequest struct {
	NodeIDs []uuid.UUID `json:"node_ids" binding:"required"`
}

type NodeTagsRequest struct {
	Tags []string `json:"tags" binding:"required"`
}

func ListNodes(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	parentID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page_number", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	orderBy := c.Query("order_by")
	filter := c.Query("filter")

	out, err := getServices().Nodes.ListChildren(c.Request.Context(), actor, parentID, page, size, orderBy, filter)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, http.StatusOK, out)
}

func CreateFolder(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req CreateFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	node, err := getServices().Nodes.CreateFolder(c.Request.Context(), actor, req.ParentID, req.Title)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, http.StatusCreated, node)
}

func RenameNode(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req RenameNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	node, err := getServices().Nodes.RenameNode(c.Request.Context(), actor, id, req.Title)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, http.StatusOK, node)
}

func MoveNodes(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req MoveNodesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	moved, err := getServices().Nodes.MoveNodes(c.Request.Context(), actor, req.SourceIDs, req.TargetID)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, http.StatusOK, gin.H{"moved": moved})
}

func DeleteNodes(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req DeleteNodesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if respondServiceError(c, getServices().Nodes.DeleteNodes(c.Request.Context(), actor, req.NodeIDs)) {
		return
	}
	c.Status(http.StatusNoContent)
}

func GetNodeTags(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	tags, err := getServices().Nodes.GetNodeTags(c.Request.Context(), actor, id)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, http.StatusOK, tags)
}

// AssignNodeTags replaces the node's tag set.
func AssignNodeTags(c *gin.Context) {
	nodeTagsOp(c, getServices().Nodes.AssignNodeTags)
}

// UpdateNodeTags appends to the node's tag set.
func UpdateNodeTags(c *gin.Context) {
	nodeTagsOp(c, getServices().Nodes.UpdateNodeTags)
}

// RemoveNodeTags detaches the named tags.
func RemoveNodeTags(c *gin.Context) {
	nodeTagsOp(c, getServices().Nodes.RemoveNodeTags)
}

func nodeTagsOp(c *gin.Context, op func(ctx context.Context, actor services.Actor, nodeID uuid.UUID, names []string) ([]models.Tag, error)) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req NodeTagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	tags, err := op(c.Request.Context(), actor, id, req.Tags)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, http.StatusOK, tags)
}

func Breadcrumb(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	crumb, err := getServices().Nodes.Breadcrumb(c.Request.Context(), actor, id)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, http.StatusOK, crumb)
}
