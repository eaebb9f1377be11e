package handlers

import (
	"net/http"

	"papermerge/services"
	"papermerge/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ApplyPagesRequest struct {
	Items []services.PageOpItem `json:"items" binding:"required"`
}

type MovePagesRequest struct {
	SourcePageIDs []uuid.UUID `json:"source_page_ids" binding:"required"`
	TargetPageID  uuid.UUID   `json:"target_page_id" binding:"required"`
	Strategy      string      `json:"strategy" binding:"required"`
}

type ExtractPagesRequest struct {
	SourcePageIDs  []uuid.UUID `json:"source_page_ids" binding:"required"`
	TargetFolderID uuid.UUID   `json:"target_folder_id" binding:"required"`
	Strategy       string      `json:"strategy" binding:"required"`
	TitleFormat    string      `json:"title_format" binding:"required"`
}

func ApplyPagesOp(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req ApplyPagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	ver, err := getServices().Pages.ApplyPagesOp(c.Request.Context(), actor, req.Items)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, http.StatusOK, ver)
}

func MovePages(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req MovePagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	source, target, err := getServices().Pages.MovePages(c.Request.Context(), actor, req.SourcePageIDs, req.TargetPageID, req.Strategy)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, http.StatusOK, gin.H{"source": source, "target": target})
}

func ExtractPages(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req ExtractPagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	created, err := getServices().Pages.ExtractPages(c.Request.Context(), actor, req.SourcePageIDs, req.TargetFolderID, req.Strategy, req.TitleFormat)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, http.StatusCreated, gin.H{"created": created})
}
