package repositories

import (
	"context"

	"papermerge/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) GetByID(_ context.Context, tx *gorm.DB, id uuid.UUID) (models.User, error) {
	var user models.User
	err := useTx(r.db, tx).Where("id = ?", id).First(&user).Error
	return user, err
}

func (r *GormUserRepository) GetByUsername(_ context.Context, tx *gorm.DB, username string) (models.User, error) {
	var user models.User
	err := useTx(r.db, tx).Where("username = ?", username).First(&user).Error
	return user, err
}

func (r *GormUserRepository) Create(_ context.Context, tx *gorm.DB, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	return useTx(r.db, tx).Create(user).Error
}

func (r *GormUserRepository) Delete(_ context.Context, tx *gorm.DB, id uuid.UUID) error {
	return useTx(r.db, tx).Where("id = ?", id).Delete(&models.User{}).Error
}

func (r *GormUserRepository) List(_ context.Context, tx *gorm.DB, page, size int) ([]models.User, int64, error) {
	db := useTx(r.db, tx).Model(&models.User{})

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	err := db.Order("username ASC").
		Limit(size).Offset((page - 1) * size).
		Find(&users).Error
	return users, total, err
}

func (r *GormUserRepository) GroupIDsOf(_ context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := useTx(r.db, tx).Model(&models.UserGroup{}).
		Where("user_id = ? AND deleted_at IS NULL", userID).
		Pluck("group_id", &ids).Error
	return ids, err
}

const rolePermissionsSQL = `
SELECT DISTINCT p.codename FROM permissions p
JOIN roles_permissions rp ON rp.permission_id = p.id
WHERE rp.role_id IN (
    SELECT role_id FROM users_roles
    WHERE user_id = ? AND deleted_at IS NULL
    UNION
    SELECT gr.role_id FROM groups_roles gr
    JOIN users_groups ug ON ug.group_id = gr.group_id
    WHERE ug.user_id = ? AND ug.deleted_at IS NULL AND gr.deleted_at IS NULL
)
ORDER BY p.codename`

// RolePermissions unions role-derived codenames over active user-role and
// user-group-role links.
func (r *GormUserRepository) RolePermissions(_ context.Context, tx *gorm.DB, userID uuid.UUID) ([]string, error) {
	var codenames []string
	err := useTx(r.db, tx).Raw(rolePermissionsSQL, userID, userID).Scan(&codenames).Error
	return codenames, err
}

func (r *GormUserRepository) AssignRole(_ context.Context, tx *gorm.DB, userID, roleID uuid.UUID) error {
	return useTx(r.db, tx).Create(&models.UserRole{
		ID:     uuid.New(),
		UserID: userID,
		RoleID: roleID,
	}).Error
}

func (r *GormUserRepository) AssignGroup(_ context.Context, tx *gorm.DB, userID, groupID uuid.UUID) error {
	return useTx(r.db, tx).Create(&models.UserGroup{
		ID:      uuid.New(),
		UserID:  userID,
		GroupID: groupID,
	}).Error
}

func (r *GormUserRepository) GetGroupByID(_ context.Context, tx *gorm.DB, id uuid.UUID) (models.Group, error) {
	var group models.Group
	err := useTx(r.db, tx).Where("id = ?", id).First(&group).Error
	return group, err
}

func (r *GormUserRepository) GetGroupByName(_ context.Context, tx *gorm.DB, name string) (models.Group, error) {
	var group models.Group
	err := useTx(r.db, tx).Where("name = ?", name).First(&group).Error
	return group, err
}

func (r *GormUserRepository) CreateGroup(_ context.Context, tx *gorm.DB, group *models.Group) error {
	if group.ID == uuid.Nil {
		group.ID = uuid.New()
	}
	return useTx(r.db, tx).Create(group).Error
}

func (r *GormUserRepository) ListGroups(_ context.Context, tx *gorm.DB) ([]models.Group, error) {
	var groups []models.Group
	err := useTx(r.db, tx).Order("name ASC").Find(&groups).Error
	return groups, err
}

func (r *GormUserRepository) DeleteGroup(_ context.Context, tx *gorm.DB, id uuid.UUID) error {
	return useTx(r.db, tx).Where("id = ?", id).Delete(&models.Group{}).Error
}

func (r *GormUserRepository) GetRoleByID(_ context.Context, tx *gorm.DB, id uuid.UUID) (models.Role, error) {
	var role models.Role
	err := useTx(r.db, tx).Preload("Permissions").Where("id = ?", id).First(&role).Error
	return role, err
}

func (r *GormUserRepository) GetRoleByName(_ context.Context, tx *gorm.DB, name string) (models.Role, error) {
	var role models.Role
	err := useTx(r.db, tx).Preload("Permissions").Where("name = ?", name).First(&role).Error
	return role, err
}

func (r *GormUserRepository) CreateRole(_ context.Context, tx *gorm.DB, role *models.Role) error {
	if role.ID == uuid.Nil {
		role.ID = uuid.New()
	}
	return useTx(r.db, tx).Create(role).Error
}

func (r *GormUserRepository) ListRoles(_ context.Context, tx *gorm.DB) ([]models.Role, error) {
	var roles []models.Role
	err := useTx(r.db, tx).Preload("Permissions").Order("name ASC").Find(&roles).Error
	return roles, err
}

func (r *GormUserRepository) DeleteRole(_ context.Context, tx *gorm.DB, id uuid.UUID) error {
	db := useTx(r.db, tx)
	if err := db.Exec(`DELETE FROM roles_permissions WHERE role_id = ?`, id).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&models.Role{}).Error
}

func (r *GormUserRepository) PermissionsByCodenames(_ context.Context, tx *gorm.DB, codenames []string) ([]models.Permission, error) {
	var perms []models.Permission
	err := useTx(r.db, tx).Where("codename IN ?", codenames).Find(&perms).Error
	return perms, err
}

// SyncPermissions inserts any scope codenames missing from the permissions
// table and returns how many were created.
func (r *GormUserRepository) SyncPermissions(_ context.Context, tx *gorm.DB, codenames []string) (int, error) {
	db := useTx(r.db, tx)

	var existing []string
	if err := db.Model(&models.Permission{}).
		Where("codename IN ?", codenames).
		Pluck("codename", &existing).Error; err != nil {
		return 0, err
	}

	known := make(map[string]bool, len(existing))
	for _, c := range existing {
		known[c] = true
	}

	created := 0
	for _, codename := range codenames {
		if known[codename] {
			continue
		}
		if err := db.Create(&models.Permission{ID: uuid.New(), Codename: codename}).Error; err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
