package services

import (
	"context"
	"errors"
	"strings"

	"papermerge/models"
	"papermerge/repositories"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserInput struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	IsSuperuser bool   `json:"is_superuser"`
}

type RoleInput struct {
	Name   string   `json:"name"`
	Scopes []string `json:"scopes"`
}

type UserService interface {
	GetUser(ctx context.Context, id uuid.UUID) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
	ListUsers(ctx context.Context, page, size int) ([]models.User, int64, int, error)
	CreateUser(ctx context.Context, in UserInput) (models.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
	AssignRole(ctx context.Context, userID, roleID uuid.UUID) error
	AssignGroup(ctx context.Context, userID, groupID uuid.UUID) error

	CreateGroup(ctx context.Context, name string) (models.Group, error)
	ListGroups(ctx context.Context) ([]models.Group, error)
	DeleteGroup(ctx context.Context, id uuid.UUID) error

	CreateRole(ctx context.Context, in RoleInput) (models.Role, error)
	ListRoles(ctx context.Context) ([]models.Role, error)
	DeleteRole(ctx context.Context, id uuid.UUID) error
	SyncPermissions(ctx context.Context) (int, error)
}

type userService struct {
	txManager TxManager
	users     repositories.UserRepository
	nodes     NodeService
	auditLog  repositories.AuditLogRepository
}

func NewUserService(txManager TxManager, users repositories.UserRepository, nodes NodeService, auditLog repositories.AuditLogRepository) UserService {
	return &userService{txManager: txManager, users: users, nodes: nodes, auditLog: auditLog}
}

func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (models.User, error) {
	user, err := s.users.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, errNotFound("user")
		}
		return models.User{}, errInternal("failed to load user", err)
	}
	return user, nil
}

func (s *userService) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	user, err := s.users.GetByUsername(ctx, nil, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, errNotFound("user")
		}
		return models.User{}, errInternal("failed to load user", err)
	}
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context, page, size int) ([]models.User, int64, int, error) {
	page, size = clampPage(page, size)
	users, total, err := s.users.List(ctx, nil, page, size)
	if err != nil {
		return nil, 0, 0, errInternal("failed to list users", err)
	}
	return users, total, numPages(total, size), nil
}

// CreateUser also provisions the user's home and inbox folders.
func (s *userService) CreateUser(ctx context.Context, in UserInput) (models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" {
		return models.User{}, errValidation("username must not be empty")
	}
	if in.Password == "" {
		return models.User{}, errValidation("password must not be empty")
	}
	if _, err := s.users.GetByUsername(ctx, nil, in.Username); err == nil {
		return models.User{}, errConflict("username already taken")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, errInternal("failed to check username", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, errInternal("failed to hash password", err)
	}

	user := models.User{
		ID:           uuid.New(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		IsSuperuser:  in.IsSuperuser,
		IsActive:     true,
	}
	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.users.Create(ctx, tx, &user); err != nil {
			return errInternal("failed to create user", err)
		}
		return s.auditLog.Insert(ctx, tx, &models.AuditLog{
			Table:     "users",
			RecordID:  user.ID,
			Operation: models.AuditOpInsert,
			Timestamp: nowUTC(),
			UserID:    auditActor(ctx),
			Username:  auditUsername(ctx),
		})
	})
	if err != nil {
		return models.User{}, err
	}
	if err := s.nodes.CreatePrincipalFolders(ctx, models.OwnerTypeUser, user.ID); err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (s *userService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetUser(ctx, id); err != nil {
		return err
	}
	return s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.users.Delete(ctx, tx, id); err != nil {
			return errInternal("failed to delete user", err)
		}
		return s.auditLog.Insert(ctx, tx, &models.AuditLog{
			Table:     "users",
			RecordID:  id,
			Operation: models.AuditOpDelete,
			Timestamp: nowUTC(),
			UserID:    auditActor(ctx),
			Username:  auditUsername(ctx),
		})
	})
}

func (s *userService) AssignRole(ctx context.Context, userID, roleID uuid.UUID) error {
	if err := s.users.AssignRole(ctx, nil, userID, roleID); err != nil {
		return errInternal("failed to assign role", err)
	}
	return nil
}

func (s *userService) AssignGroup(ctx context.Context, userID, groupID uuid.UUID) error {
	if err := s.users.AssignGroup(ctx, nil, userID, groupID); err != nil {
		return errInternal("failed to assign group", err)
	}
	return nil
}

// CreateGroup provisions the group's home folder alongside the row.
func (s *userService) CreateGroup(ctx context.Context, name string) (models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Group{}, errValidation("group name must not be empty")
	}
	if _, err := s.users.GetGroupByName(ctx, nil, name); err == nil {
		return models.Group{}, errConflict("group name already taken")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Group{}, errInternal("failed to check group name", err)
	}

	group := models.Group{ID: uuid.New(), Name: name}
	err := s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.users.CreateGroup(ctx, tx, &group); err != nil {
			return errInternal("failed to create group", err)
		}
		return s.auditLog.Insert(ctx, tx, &models.AuditLog{
			Table:     "groups",
			RecordID:  group.ID,
			Operation: models.AuditOpInsert,
			Timestamp: nowUTC(),
			UserID:    auditActor(ctx),
			Username:  auditUsername(ctx),
		})
	})
	if err != nil {
		return models.Group{}, err
	}
	if err := s.nodes.CreatePrincipalFolders(ctx, models.OwnerTypeGroup, group.ID); err != nil {
		return models.Group{}, err
	}
	return group, nil
}

func (s *userService) ListGroups(ctx context.Context) ([]models.Group, error) {
	groups, err := s.users.ListGroups(ctx, nil)
	if err != nil {
		return nil, errInternal("failed to list groups", err)
	}
	return groups, nil
}

func (s *userService) DeleteGroup(ctx context.Context, id uuid.UUID) error {
	if err := s.users.DeleteGroup(ctx, nil, id); err != nil {
		return errInternal("failed to delete group", err)
	}
	return nil
}

// CreateRole validates the scope list against the closed set before
// binding permissions.
func (s *userService) CreateRole(ctx context.Context, in RoleInput) (models.Role, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return models.Role{}, errValidation("role name must not be empty")
	}
	if err := ValidateScopes(in.Scopes); err != nil {
		return models.Role{}, errValidation(err.Error())
	}
	if _, err := s.users.GetRoleByName(ctx, nil, in.Name); err == nil {
		return models.Role{}, errConflict("role name already taken")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Role{}, errInternal("failed to check role name", err)
	}

	perms, err := s.users.PermissionsByCodenames(ctx, nil, in.Scopes)
	if err != nil {
		return models.Role{}, errInternal("failed to load permissions", err)
	}
	if len(perms) != len(in.Scopes) {
		return models.Role{}, errValidation("permissions are not synced; run roles sync-perms first")
	}

	role := models.Role{ID: uuid.New(), Name: in.Name, Permissions: perms}
	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.users.CreateRole(ctx, tx, &role); err != nil {
			return errInternal("failed to create role", err)
		}
		return s.auditLog.Insert(ctx, tx, &models.AuditLog{
			Table:     "roles",
			RecordID:  role.ID,
			Operation: models.AuditOpInsert,
			Timestamp: nowUTC(),
			UserID:    auditActor(ctx),
			Username:  auditUsername(ctx),
		})
	})
	if err != nil {
		return models.Role{}, err
	}
	return role, nil
}

func (s *userService) ListRoles(ctx context.Context) ([]models.Role, error) {
	roles, err := s.users.ListRoles(ctx, nil)
	if err != nil {
		return nil, errInternal("failed to list roles", err)
	}
	return roles, nil
}

func (s *userService) DeleteRole(ctx context.Context, id uuid.UUID) error {
	if err := s.users.DeleteRole(ctx, nil, id); err != nil {
		return errInternal("failed to delete role", err)
	}
	return nil
}

// SyncPermissions materializes the closed scope set as permission rows.
func (s *userService) SyncPermissions(ctx context.Context) (int, error) {
	created, err := s.users.SyncPermissions(ctx, nil, AllScopes())
	if err != nil {
		return 0, errInternal("failed to sync permissions", err)
	}
	return created, nil
}
