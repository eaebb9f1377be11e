package handlers

import (
	"net/http"
	"strconv"

	"papermerge/models"
	"papermerge/services"
	"papermerge/utils"

	"github.com/gin-gonic/gin"
)

type CreateGroupRequest struct {
	Name string `json:"name" binding:"required"`
}

// Me returns the authenticated user plus the effective scope list.
func Me(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	home, err := getServices().Nodes.SpecialFolderID(c.Request.Context(), models.OwnerTypeUser, actor.User.ID, models.SpecialFolderHome)
	if respondServiceError(c, err) {
		return
	}
	inbox, err := getServices().Nodes.SpecialFolderID(c.Request.Context(), models.OwnerTypeUser, actor.User.ID, models.SpecialFolderInbox)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, http.StatusOK, gin.H{
		"user":            actor.User,
		"home_folder_id":  home,
		"inbox_folder_id": inbox,
		"scopes":          actor.Scopes.Sorted(),
	})
}

func ListUsers(c *gin.Context) {
	if _, ok := mustActor(c); !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page_number", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	users, total, pages, err := getServices().Users.ListUsers(c.Request.Context(), page, size)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, http.StatusOK, gin.H{
		"items":       users,
		"total_items": total,
		"num_pages":   pages,
	})
}

func CreateUser(c *gin.Context) {
	if _, ok := mustActor(c); !ok {
		return
	}
	var req services.UserInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	user, err := getServices().Users.CreateUser(c.Request.Context(), req)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, http.StatusCreated, user)
}

func DeleteUser(c *gin.Context) {
	if _, ok := mustActor(c); !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if respondServiceError(c, getServices().Users.DeleteUser(c.Request.Context(), id)) {
		return
	}
	c.Status(http.StatusNoContent)
}

func ListGroups(c *gin.Context) {
	if _, ok := mustActor(c); !ok {
		return
	}
	groups, err := getServices().Users.ListGroups(c.Request.Context())
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, http.StatusOK, groups)
}

func CreateGroup(c *gin.Context) {
	if _, ok := mustActor(c); !ok {
		return
	}
	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	group, err := getServices().Users.CreateGroup(c.Request.Context(), req.Name)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, http.StatusCreated, group)
}

func DeleteGroup(c *gin.Context) {
	if _, ok := mustActor(c); !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if respondServiceError(c, getServices().Users.DeleteGroup(c.Request.Context(), id)) {
		return
	}
	c.Status(http.StatusNoContent)
}

func ListRoles(c *gin.Context) {
	if _, ok := mustActor(c); !ok {
		return
	}
	roles, err := getServices().Users.ListRoles(c.Request.Context())
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, http.StatusOK, roles)
}

func CreateRole(c *gin.Context) {
	if _, ok := mustActor(c); !ok {
		return
	}
	var req services.RoleInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	role, err := getServices().Users.CreateRole(c.Request.Context(), req)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, http.StatusCreated, role)
}

func DeleteRole(c *gin.Context) {
	if _, ok := mustActor(c); !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if respondServiceError(c, getServices().Users.DeleteRole(c.Request.Context(), id)) {
		return
	}
	c.Status(http.StatusNoContent)
}

// ListScopes exposes the closed scope enumeration.
func ListScopes(c *gin.Context) {
	utils.Success(c, http.StatusOK, services.AllScopes())
}
