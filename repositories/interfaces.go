package repositories

import (
	"context"
	"time"

	"papermerge/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TxManager scopes one request's writes to a single database transaction.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Every method accepts an optional tx; nil falls back to the repository's
// own connection.

type NodeRepository interface {
	Create(ctx context.Context, tx *gorm.DB, node *models.Node) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (models.Node, error)
	GetForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (models.Node, error)
	UpdateTitle(ctx context.Context, tx *gorm.DB, id uuid.UUID, title string, updatedBy *uuid.UUID) error
	SetParent(ctx context.Context, tx *gorm.DB, ids []uuid.UUID, parentID uuid.UUID, updatedBy *uuid.UUID) (int64, error)
	CountSiblingFolders(ctx context.Context, tx *gorm.DB, parentID uuid.UUID, title string, excludeID uuid.UUID) (int64, error)
	ListByParent(ctx context.Context, tx *gorm.DB, parentID uuid.UUID, page, size int, orderBy, filter string) ([]models.Node, int64, error)
	Ancestors(ctx context.Context, tx *gorm.DB, id uuid.UUID, includeSelf bool) ([]models.NodeLite, error)
	Descendants(ctx context.Context, tx *gorm.DB, ids []uuid.UUID, includeSelf bool) ([]uuid.UUID, error)
	SoftDeleteSubtree(ctx context.Context, tx *gorm.DB, rootIDs []uuid.UUID, deletedBy *uuid.UUID) (int64, error)
	PurgeDeletedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)

	GetTags(ctx context.Context, tx *gorm.DB, nodeID uuid.UUID) ([]models.Tag, error)
	ReplaceTags(ctx context.Context, tx *gorm.DB, nodeID uuid.UUID, tags []models.Tag) error
	AppendTags(ctx context.Context, tx *gorm.DB, nodeID uuid.UUID, tags []models.Tag) error
	RemoveTags(ctx context.Context, tx *gorm.DB, nodeID uuid.UUID, tags []models.Tag) error

	OwnerOf(ctx context.Context, tx *gorm.DB, nodeID uuid.UUID) (models.Ownership, error)
	SetOwnership(ctx context.Context, tx *gorm.DB, nodeID uuid.UUID, ownerType string, ownerID uuid.UUID) error
	DeleteOwnership(ctx context.Context, tx *gorm.DB, nodeID uuid.UUID) error

	SpecialFolderOf(ctx context.Context, tx *gorm.DB, ownerType string, ownerID uuid.UUID, folderType string) (uuid.UUID, error)
	CreateSpecialFolder(ctx context.Context, tx *gorm.DB, sf *models.SpecialFolder) error
	SpecialFolderKind(ctx context.Context, tx *gorm.DB, folderID uuid.UUID) (string, error)
}

type DocumentRepository interface {
	CreateDocument(ctx context.Context, tx *gorm.DB, doc *models.Document) error
	GetDocument(ctx context.Context, tx *gorm.DB, nodeID uuid.UUID) (models.Document, error)
	UpdateDocument(ctx context.Context, tx *gorm.DB, nodeID uuid.UUID, updates map[string]interface{}) error

	LastVersion(ctx context.Context, tx *gorm.DB, docID uuid.UUID, forUpdate bool) (models.DocumentVersion, error)
	GetVersion(ctx context.Context, tx *gorm.DB, id uuid.UUID) (models.DocumentVersion, error)
	CreateVersion(ctx context.Context, tx *gorm.DB, ver *models.DocumentVersion) error
	UpdateVersion(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	Versions(ctx context.Context, tx *gorm.DB, docID uuid.UUID) ([]models.DocumentVersion, error)

	CreatePages(ctx context.Context, tx *gorm.DB, pages []models.Page) error
	PagesOfVersion(ctx context.Context, tx *gorm.DB, versionID uuid.UUID) ([]models.Page, error)
	PagesByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]models.Page, error)
	FirstPage(ctx context.Context, tx *gorm.DB, versionID uuid.UUID) (models.Page, error)
}

type TagRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (models.Tag, error)
	ListByOwner(ctx context.Context, tx *gorm.DB, ownerType string, ownerID uuid.UUID) ([]models.Tag, error)
	GetOrCreateByNames(ctx context.Context, tx *gorm.DB, ownerType string, ownerID uuid.UUID, names []string) ([]models.Tag, error)
	Create(ctx context.Context, tx *gorm.DB, tag *models.Tag) error
	Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type DocumentTypeRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (models.DocumentType, error)
	ListByOwner(ctx context.Context, tx *gorm.DB, ownerType string, ownerID uuid.UUID) ([]models.DocumentType, error)
	Create(ctx context.Context, tx *gorm.DB, dt *models.DocumentType) error
	Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	SetFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fieldIDs []uuid.UUID) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	CountDocuments(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error)
}

type CustomFieldRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (models.CustomField, error)
	ListByOwner(ctx context.Context, tx *gorm.DB, ownerType string, ownerID uuid.UUID) ([]models.CustomField, error)
	FieldsForType(ctx context.Context, tx *gorm.DB, typeID uuid.UUID) ([]models.CustomField, error)
	Create(ctx context.Context, tx *gorm.DB, cf *models.CustomField) error
	Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error

	ValuesForDocument(ctx context.Context, tx *gorm.DB, docID uuid.UUID) ([]models.CustomFieldValue, error)
	ValuesForDocuments(ctx context.Context, tx *gorm.DB, docIDs []uuid.UUID) ([]models.CustomFieldValue, error)
	UpsertValue(ctx context.Context, tx *gorm.DB, value *models.CustomFieldValue) error
	DeleteValuesForDocument(ctx context.Context, tx *gorm.DB, docID uuid.UUID) error
}

type UserRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (models.User, error)
	GetByUsername(ctx context.Context, tx *gorm.DB, username string) (models.User, error)
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	List(ctx context.Context, tx *gorm.DB, page, size int) ([]models.User, int64, error)

	GroupIDsOf(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error)
	RolePermissions(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]string, error)
	AssignRole(ctx context.Context, tx *gorm.DB, userID, roleID uuid.UUID) error
	AssignGroup(ctx context.Context, tx *gorm.DB, userID, groupID uuid.UUID) error

	GetGroupByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (models.Group, error)
	GetGroupByName(ctx context.Context, tx *gorm.DB, name string) (models.Group, error)
	CreateGroup(ctx context.Context, tx *gorm.DB, group *models.Group) error
	ListGroups(ctx context.Context, tx *gorm.DB) ([]models.Group, error)
	DeleteGroup(ctx context.Context, tx *gorm.DB, id uuid.UUID) error

	GetRoleByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (models.Role, error)
	GetRoleByName(ctx context.Context, tx *gorm.DB, name string) (models.Role, error)
	CreateRole(ctx context.Context, tx *gorm.DB, role *models.Role) error
	ListRoles(ctx context.Context, tx *gorm.DB) ([]models.Role, error)
	DeleteRole(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	PermissionsByCodenames(ctx context.Context, tx *gorm.DB, codenames []string) ([]models.Permission, error)
	SyncPermissions(ctx context.Context, tx *gorm.DB, codenames []string) (int, error)
}

type TokenRepository interface {
	Create(ctx context.Context, tx *gorm.DB, token *models.APIToken) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (models.APIToken, error)
	GetByHash(ctx context.Context, tx *gorm.DB, hash string) (models.APIToken, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]models.APIToken, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	TouchLastUsed(ctx context.Context, tx *gorm.DB, id uuid.UUID, at time.Time) error
}

type SharedNodeRepository interface {
	CreateGrants(ctx context.Context, tx *gorm.DB, grants []models.SharedNode) (int64, error)
	ListByNode(ctx context.Context, tx *gorm.DB, nodeID uuid.UUID) ([]models.SharedNode, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	// HasGrant reports whether any of nodeIDs carries a grant for the user
	// (directly or through groupIDs) whose role includes codename.
	HasGrant(ctx context.Context, tx *gorm.DB, nodeIDs []uuid.UUID, userID uuid.UUID, groupIDs []uuid.UUID, codename string) (bool, error)
	// GrantedNodeIDs returns the ids of nodes directly granted to the
	// principal, regardless of role.
	GrantedNodeIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID, groupIDs []uuid.UUID) ([]uuid.UUID, error)
}

type IndexRepository interface {
	RebuildAll(ctx context.Context) error
	Reindex(ctx context.Context, ids []uuid.UUID) error
	FindUnindexed(ctx context.Context) ([]uuid.UUID, error)
	Stats(ctx context.Context) (models.IndexStats, error)
	Clear(ctx context.Context) error
}

type AuditLogRepository interface {
	Insert(ctx context.Context, tx *gorm.DB, entry *models.AuditLog) error
	List(ctx context.Context, tx *gorm.DB, tableName string, page, size int) ([]models.AuditLog, int64, error)
}

type SearchRepository interface {
	Run(ctx context.Context, q SearchQuery) ([]uuid.UUID, int64, error)
	Hydrate(ctx context.Context, ids []uuid.UUID) ([]SearchHit, error)
}

type Container struct {
	TxManager     TxManager
	Nodes         NodeRepository
	Documents     DocumentRepository
	Tags          TagRepository
	DocumentTypes DocumentTypeRepository
	CustomFields  CustomFieldRepository
	Users         UserRepository
	Tokens        TokenRepository
	SharedNodes   SharedNodeRepository
	Index         IndexRepository
	Search        SearchRepository
	AuditLog      AuditLogRepository
}
