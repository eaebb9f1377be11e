package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"papermerge/models"
	"papermerge/repositories"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Actor is the authenticated principal a request runs as.
type Actor struct {
	User     models.User
	GroupIDs []uuid.UUID
	Scopes   ScopeSet
}

func (a Actor) IsMemberOf(groupID uuid.UUID) bool {
	for _, id := range a.GroupIDs {
		if id == groupID {
			return true
		}
	}
	return false
}

// OwnsNode reports whether the actor owns the given ownership record,
// either directly or through group membership.
func (a Actor) Owns(own models.Ownership) bool {
	switch own.OwnerType {
	case models.OwnerTypeUser:
		return own.OwnerID == a.User.ID
	case models.OwnerTypeGroup:
		return a.IsMemberOf(own.OwnerID)
	}
	return false
}

type NodePageOutput struct {
	Items      []models.Node `json:"items"`
	PageNumber int           `json:"page_number"`
	PageSize   int           `json:"page_size"`
	NumPages   int           `json:"num_pages"`
	TotalItems int64         `json:"total_items"`
}

type NodeService interface {
	CreateFolder(ctx context.Context, actor Actor, parentID uuid.UUID, title string) (models.Node, error)
	RenameNode(ctx context.Context, actor Actor, nodeID uuid.UUID, title string) (models.Node, error)
	MoveNodes(ctx context.Context, actor Actor, sourceIDs []uuid.UUID, targetID uuid.UUID) (int64, error)
	DeleteNodes(ctx context.Context, actor Actor, ids []uuid.UUID) error
	ListChildren(ctx context.Context, actor Actor, parentID uuid.UUID, page, size int, orderBy, filter string) (NodePageOutput, error)

	GetNodeTags(ctx context.Context, actor Actor, nodeID uuid.UUID) ([]models.Tag, error)
	AssignNodeTags(ctx context.Context, actor Actor, nodeID uuid.UUID, names []string) ([]models.Tag, error)
	UpdateNodeTags(ctx context.Context, actor Actor, nodeID uuid.UUID, names []string) ([]models.Tag, error)
	RemoveNodeTags(ctx context.Context, actor Actor, nodeID uuid.UUID, names []string) ([]models.Tag, error)

	Breadcrumb(ctx context.Context, actor Actor, nodeID uuid.UUID) (models.Breadcrumb, error)
	GetDescendants(ctx context.Context, ids []uuid.UUID, includeSelf bool) ([]uuid.UUID, error)

	// CreatePrincipalFolders provisions home and inbox roots for a new
	// user or group.
	CreatePrincipalFolders(ctx context.Context, ownerType string, ownerID uuid.UUID) error
	SpecialFolderID(ctx context.Context, ownerType string, ownerID uuid.UUID, folderType string) (uuid.UUID, error)
}

// Sorting keys accepted by ListChildren; a leading '-' flips direction.
var nodeOrderColumns = map[string]string{
	"ctype":      "ctype",
	"title":      "title",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

type nodeService struct {
	txManager TxManager
	nodes     repositories.NodeRepository
	tags      repositories.TagRepository
	shared    repositories.SharedNodeRepository
	auditLog  repositories.AuditLogRepository
}

func NewNodeService(
	txManager TxManager,
	nodes repositories.NodeRepository,
	tags repositories.TagRepository,
	shared repositories.SharedNodeRepository,
	auditLog repositories.AuditLogRepository,
) NodeService {
	return &nodeService{
		txManager: txManager,
		nodes:     nodes,
		tags:      tags,
		shared:    shared,
		auditLog:  auditLog,
	}
}

func (s *nodeService) requirePerm(ctx context.Context, actor Actor, nodeID uuid.UUID, codename string) error {
	return requireNodePerm(ctx, s.nodes, s.shared, actor, nodeID, codename)
}

func (s *nodeService) writeAudit(ctx context.Context, tx *gorm.DB, table string, recordID uuid.UUID, op string) error {
	entry := &models.AuditLog{
		Table:     table,
		RecordID:  recordID,
		Operation: op,
		Timestamp: nowUTC(),
		UserID:    auditActor(ctx),
		Username:  auditUsername(ctx),
	}
	return s.auditLog.Insert(ctx, tx, entry)
}

func (s *nodeService) CreateFolder(ctx context.Context, actor Actor, parentID uuid.UUID, title string) (models.Node, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.Node{}, errValidation("folder title must not be empty")
	}
	if len(title) > 200 {
		return models.Node{}, errValidation("folder title must not exceed 200 characters")
	}

	parent, err := s.nodes.GetByID(ctx, nil, parentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Node{}, errNotFound("parent folder")
		}
		return models.Node{}, errInternal("failed to load parent folder", err)
	}
	if parent.CType != models.CTypeFolder {
		return models.Node{}, errValidation("parent node is not a folder")
	}
	if err := s.requirePerm(ctx, actor, parentID, "node.create"); err != nil {
		return models.Node{}, err
	}

	var folder models.Node
	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		count, err := s.nodes.CountSiblingFolders(ctx, tx, parentID, title, uuid.Nil)
		if err != nil {
			return errInternal("failed to check for duplicate title", err)
		}
		if count > 0 {
			return errConflict(fmt.Sprintf("a folder named %q already exists here", title))
		}

		actorID := actor.User.ID
		folder = models.Node{
			ID:        uuid.New(),
			Title:     title,
			CType:     models.CTypeFolder,
			Lang:      parent.Lang,
			ParentID:  &parentID,
			CreatedBy: &actorID,
			UpdatedBy: &actorID,
		}
		if err := s.nodes.Create(ctx, tx, &folder); err != nil {
			return errInternal("failed to create folder", err)
		}
		return s.writeAudit(ctx, tx, "nodes", folder.ID, models.AuditOpInsert)
	})
	if err != nil {
		return models.Node{}, err
	}
	return folder, nil
}

func (s *nodeService) RenameNode(ctx context.Context, actor Actor, nodeID uuid.UUID, title string) (models.Node, error) {
	title = strings.TrimSpace(title)
	if title == "" || len(title) > 200 {
		return models.Node{}, errValidation("title must be between 1 and 200 characters")
	}

	node, err := s.nodes.GetByID(ctx, nil, nodeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Node{}, errNotFound("node")
		}
		return models.Node{}, errInternal("failed to load node", err)
	}
	if err := s.requirePerm(ctx, actor, nodeID, "node.update"); err != nil {
		return models.Node{}, err
	}

	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		if node.CType == models.CTypeFolder && node.ParentID != nil {
			count, err := s.nodes.CountSiblingFolders(ctx, tx, *node.ParentID, title, node.ID)
			if err != nil {
				return errInternal("failed to check for duplicate title", err)
			}
			if count > 0 {
				return errConflict(fmt.Sprintf("a folder named %q already exists here", title))
			}
		}
		if err := s.nodes.UpdateTitle(ctx, tx, nodeID, title, auditActor(ctx)); err != nil {
			return errInternal("failed to rename node", err)
		}
		return s.writeAudit(ctx, tx, "nodes", nodeID, models.AuditOpUpdate)
	})
	if err != nil {
		return models.Node{}, err
	}
	node.Title = title
	return node, nil
}

// MoveNodes reparents the sources under the target and retargets
// subtree ownership: moved roots drop their own ownership rows and
// inherit the target's owner.
func (s *nodeService) MoveNodes(ctx context.Context, actor Actor, sourceIDs []uuid.UUID, targetID uuid.UUID) (int64, error) {
	if len(sourceIDs) == 0 {
		return 0, errValidation("no source nodes given")
	}

	target, err := s.nodes.GetByID(ctx, nil, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, errNotFound("target folder")
		}
		return 0, errInternal("failed to load target folder", err)
	}
	if target.CType != models.CTypeFolder {
		return 0, errValidation("target node is not a folder")
	}
	if err := s.requirePerm(ctx, actor, targetID, "node.update"); err != nil {
		return 0, err
	}
	for _, id := range sourceIDs {
		if err := s.requirePerm(ctx, actor, id, "node.move"); err != nil {
			return 0, err
		}
	}

	var affected int64
	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		subtree, err := s.nodes.Descendants(ctx, tx, sourceIDs, true)
		if err != nil {
			return errInternal("failed to resolve source subtrees", err)
		}
		for _, id := range subtree {
			if id == targetID {
				return errIntegrity("cannot move a node into itself or one of its descendants")
			}
		}

		for _, id := range sourceIDs {
			node, err := s.nodes.GetByID(ctx, tx, id)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return errNotFound("source node")
				}
				return errInternal("failed to load source node", err)
			}
			if node.CType != models.CTypeFolder {
				continue
			}
			count, err := s.nodes.CountSiblingFolders(ctx, tx, targetID, node.Title, node.ID)
			if err != nil {
				return errInternal("failed to check for duplicate title", err)
			}
			if count > 0 {
				return errConflict(fmt.Sprintf("a folder named %q already exists here", node.Title))
			}
		}

		affected, err = s.nodes.SetParent(ctx, tx, sourceIDs, targetID, auditActor(ctx))
		if err != nil {
			return errInternal("failed to move nodes", err)
		}

		for _, id := range sourceIDs {
			if err := s.nodes.DeleteOwnership(ctx, tx, id); err != nil {
				return errInternal("failed to transfer ownership", err)
			}
			if err := s.writeAudit(ctx, tx, "nodes", id, models.AuditOpUpdate); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

func (s *nodeService) DeleteNodes(ctx context.Context, actor Actor, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return errValidation("no nodes given")
	}
	for _, id := range ids {
		if err := s.requirePerm(ctx, actor, id, "node.delete"); err != nil {
			return err
		}
	}
	return s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		if _, err := s.nodes.SoftDeleteSubtree(ctx, tx, ids, auditActor(ctx)); err != nil {
			return errInternal("failed to delete nodes", err)
		}
		for _, id := range ids {
			if err := s.writeAudit(ctx, tx, "nodes", id, models.AuditOpDelete); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *nodeService) ListChildren(ctx context.Context, actor Actor, parentID uuid.UUID, page, size int, orderBy, filter string) (NodePageOutput, error) {
	page, size = clampPage(page, size)

	order, err := parseNodeOrder(orderBy)
	if err != nil {
		return NodePageOutput{}, err
	}
	if err := s.requirePerm(ctx, actor, parentID, "node.view"); err != nil {
		return NodePageOutput{}, err
	}

	items, total, err := s.nodes.ListByParent(ctx, nil, parentID, page, size, order, filter)
	if err != nil {
		return NodePageOutput{}, errInternal("failed to list nodes", err)
	}
	return NodePageOutput{
		Items:      items,
		PageNumber: page,
		PageSize:   size,
		NumPages:   numPages(total, size),
		TotalItems: total,
	}, nil
}

func parseNodeOrder(orderBy string) (string, error) {
	if orderBy == "" {
		return "title ASC", nil
	}
	dir := "ASC"
	key := orderBy
	if strings.HasPrefix(orderBy, "-") {
		dir = "DESC"
		key = orderBy[1:]
	}
	column, ok := nodeOrderColumns[key]
	if !ok {
		return "", errValidation(fmt.Sprintf("unsupported sort key %q", key))
	}
	return column + " " + dir, nil
}

func (s *nodeService) GetNodeTags(ctx context.Context, actor Actor, nodeID uuid.UUID) ([]models.Tag, error) {
	if err := s.requirePerm(ctx, actor, nodeID, "node.view"); err != nil {
		return nil, err
	}
	tags, err := s.nodes.GetTags(ctx, nil, nodeID)
	if err != nil {
		return nil, errInternal("failed to load node tags", err)
	}
	return tags, nil
}

// AssignNodeTags replaces the node's tag set, auto-creating missing tags
// in the node owner's scope.
func (s *nodeService) AssignNodeTags(ctx context.Context, actor Actor, nodeID uuid.UUID, names []string) ([]models.Tag, error) {
	return s.mutateTags(ctx, actor, nodeID, names, func(tx *gorm.DB, tags []models.Tag) error {
		return s.nodes.ReplaceTags(ctx, tx, nodeID, tags)
	})
}

// UpdateNodeTags appends to the node's tag set.
func (s *nodeService) UpdateNodeTags(ctx context.Context, actor Actor, nodeID uuid.UUID, names []string) ([]models.Tag, error) {
	return s.mutateTags(ctx, actor, nodeID, names, func(tx *gorm.DB, tags []models.Tag) error {
		return s.nodes.AppendTags(ctx, tx, nodeID, tags)
	})
}

func (s *nodeService) RemoveNodeTags(ctx context.Context, actor Actor, nodeID uuid.UUID, names []string) ([]models.Tag, error) {
	return s.mutateTags(ctx, actor, nodeID, names, func(tx *gorm.DB, tags []models.Tag) error {
		return s.nodes.RemoveTags(ctx, tx, nodeID, tags)
	})
}

func (s *nodeService) mutateTags(ctx context.Context, actor Actor, nodeID uuid.UUID, names []string, apply func(tx *gorm.DB, tags []models.Tag) error) ([]models.Tag, error) {
	if _, err := s.nodes.GetByID(ctx, nil, nodeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotFound("node")
		}
		return nil, errInternal("failed to load node", err)
	}
	if err := s.requirePerm(ctx, actor, nodeID, "node.update"); err != nil {
		return nil, err
	}

	owner, err := s.nodes.OwnerOf(ctx, nil, nodeID)
	if err != nil {
		return nil, errInternal("failed to resolve node owner", err)
	}

	var result []models.Tag
	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		tags, err := s.tags.GetOrCreateByNames(ctx, tx, owner.OwnerType, owner.OwnerID, dedupeStrings(names))
		if err != nil {
			return errInternal("failed to resolve tags", err)
		}
		if err := apply(tx, tags); err != nil {
			return errInternal("failed to update node tags", err)
		}
		if err := s.writeAudit(ctx, tx, "nodes_tags", nodeID, models.AuditOpUpdate); err != nil {
			return err
		}
		result, err = s.nodes.GetTags(ctx, tx, nodeID)
		if err != nil {
			return errInternal("failed to reload node tags", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Breadcrumb returns the ancestor chain. Owners get the full path rooted
// at HOME/INBOX; shared-access viewers get the path truncated at the
// topmost node granted to them, reported as SHARED.
func (s *nodeService) Breadcrumb(ctx context.Context, actor Actor, nodeID uuid.UUID) (models.Breadcrumb, error) {
	chain, err := s.nodes.Ancestors(ctx, nil, nodeID, true)
	if err != nil {
		return models.Breadcrumb{}, errInternal("failed to load ancestors", err)
	}
	if len(chain) == 0 {
		return models.Breadcrumb{}, errNotFound("node")
	}

	owner, err := s.nodes.OwnerOf(ctx, nil, nodeID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Breadcrumb{}, errInternal("failed to resolve node owner", err)
	}

	if actor.User.IsSuperuser || actor.Owns(owner) {
		root := models.BreadcrumbRootHome
		kind, err := s.nodes.SpecialFolderKind(ctx, nil, chain[0].ID)
		if err != nil {
			return models.Breadcrumb{}, errInternal("failed to resolve root folder", err)
		}
		if kind == models.SpecialFolderInbox {
			root = models.BreadcrumbRootInbox
		}
		return models.Breadcrumb{Root: root, Path: chain}, nil
	}

	granted, err := s.shared.GrantedNodeIDs(ctx, nil, actor.User.ID, actor.GroupIDs)
	if err != nil {
		return models.Breadcrumb{}, errInternal("failed to resolve shared grants", err)
	}
	grantSet := make(map[uuid.UUID]bool, len(granted))
	for _, id := range granted {
		grantSet[id] = true
	}
	for i, link := range chain {
		if grantSet[link.ID] {
			return models.Breadcrumb{Root: models.BreadcrumbRootShared, Path: chain[i:]}, nil
		}
	}
	return models.Breadcrumb{}, errForbidden("you do not have access to this node")
}

func (s *nodeService) GetDescendants(ctx context.Context, ids []uuid.UUID, includeSelf bool) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, errValidation("no node ids given")
	}
	out, err := s.nodes.Descendants(ctx, nil, ids, includeSelf)
	if err != nil {
		return nil, errInternal("failed to resolve descendants", err)
	}
	return out, nil
}

func (s *nodeService) CreatePrincipalFolders(ctx context.Context, ownerType string, ownerID uuid.UUID) error {
	return s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		for _, folderType := range []string{models.SpecialFolderHome, models.SpecialFolderInbox} {
			folder := models.Node{
				ID:    uuid.New(),
				Title: folderType,
				CType: models.CTypeFolder,
			}
			if err := s.nodes.Create(ctx, tx, &folder); err != nil {
				return errInternal("failed to create "+folderType+" folder", err)
			}
			if err := s.nodes.SetOwnership(ctx, tx, folder.ID, ownerType, ownerID); err != nil {
				return errInternal("failed to record folder ownership", err)
			}
			sf := models.SpecialFolder{
				OwnerType:  ownerType,
				OwnerID:    ownerID,
				FolderType: folderType,
				FolderID:   folder.ID,
			}
			if err := s.nodes.CreateSpecialFolder(ctx, tx, &sf); err != nil {
				return errInternal("failed to register special folder", err)
			}
		}
		return nil
	})
}

func (s *nodeService) SpecialFolderID(ctx context.Context, ownerType string, ownerID uuid.UUID, folderType string) (uuid.UUID, error) {
	id, err := s.nodes.SpecialFolderOf(ctx, nil, ownerType, ownerID, folderType)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, errNotFound(folderType + " folder")
		}
		return uuid.Nil, errInternal("failed to resolve special folder", err)
	}
	return id, nil
}

func dedupeStrings(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
