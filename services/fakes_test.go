package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"papermerge/models"
	"papermerge/repositories"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type fakeTxManager struct{}

func (fakeTxManager) WithTransaction(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

// --- nodes ---

type fakeNodeRepo struct {
	nodes          map[uuid.UUID]models.Node
	deleted        map[uuid.UUID]bool
	tagsByNode     map[uuid.UUID][]models.Tag
	ownership      map[uuid.UUID]models.Ownership
	specialFolders []models.SpecialFolder
}

func newFakeNodeRepo() *fakeNodeRepo {
	return &fakeNodeRepo{
		nodes:      map[uuid.UUID]models.Node{},
		deleted:    map[uuid.UUID]bool{},
		tagsByNode: map[uuid.UUID][]models.Tag{},
		ownership:  map[uuid.UUID]models.Ownership{},
	}
}

func (r *fakeNodeRepo) addFolder(title string, parent *uuid.UUID) models.Node {
	n := models.Node{ID: uuid.New(), Title: title, CType: models.CTypeFolder, ParentID: parent, Lang: "en"}
	r.nodes[n.ID] = n
	return n
}

func (r *fakeNodeRepo) addDocument(title string, parent uuid.UUID) models.Node {
	n := models.Node{ID: uuid.New(), Title: title, CType: models.CTypeDocument, ParentID: &parent, Lang: "en"}
	r.nodes[n.ID] = n
	return n
}

func (r *fakeNodeRepo) Create(_ context.Context, _ *gorm.DB, node *models.Node) error {
	r.nodes[node.ID] = *node
	return nil
}

func (r *fakeNodeRepo) GetByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (models.Node, error) {
	n, ok := r.nodes[id]
	if !ok || r.deleted[id] {
		return models.Node{}, gorm.ErrRecordNotFound
	}
	return n, nil
}

func (r *fakeNodeRepo) GetForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (models.Node, error) {
	return r.GetByID(ctx, tx, id)
}

func (r *fakeNodeRepo) UpdateTitle(_ context.Context, _ *gorm.DB, id uuid.UUID, title string, _ *uuid.UUID) error {
	n, ok := r.nodes[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	n.Title = title
	r.nodes[id] = n
	return nil
}

func (r *fakeNodeRepo) SetParent(_ context.Context, _ *gorm.DB, ids []uuid.UUID, parentID uuid.UUID, _ *uuid.UUID) (int64, error) {
	var n int64
	for _, id := range ids {
		node, ok := r.nodes[id]
		if !ok {
			continue
		}
		pid := parentID
		node.ParentID = &pid
		r.nodes[id] = node
		n++
	}
	return n, nil
}

func (r *fakeNodeRepo) CountSiblingFolders(_ context.Context, _ *gorm.DB, parentID uuid.UUID, title string, excludeID uuid.UUID) (int64, error) {
	var count int64
	for _, n := range r.nodes {
		if r.deleted[n.ID] || n.CType != models.CTypeFolder || n.ID == excludeID {
			continue
		}
		if n.ParentID != nil && *n.ParentID == parentID && n.Title == title {
			count++
		}
	}
	return count, nil
}

func (r *fakeNodeRepo) ListByParent(_ context.Context, _ *gorm.DB, parentID uuid.UUID, page, size int, _, _ string) ([]models.Node, int64, error) {
	var out []models.Node
	for _, n := range r.nodes {
		if !r.deleted[n.ID] && n.ParentID != nil && *n.ParentID == parentID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	total := int64(len(out))
	start := (page - 1) * size
	if start > len(out) {
		start = len(out)
	}
	end := start + size
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

func (r *fakeNodeRepo) Ancestors(_ context.Context, _ *gorm.DB, id uuid.UUID, includeSelf bool) ([]models.NodeLite, error) {
	var chain []models.NodeLite
	cur, ok := r.nodes[id]
	if !ok {
		return nil, nil
	}
	for {
		chain = append([]models.NodeLite{{ID: cur.ID, Title: cur.Title, CType: cur.CType, Parent: cur.ParentID}}, chain...)
		if cur.ParentID == nil {
			break
		}
		next, ok := r.nodes[*cur.ParentID]
		if !ok {
			break
		}
		cur = next
	}
	if !includeSelf && len(chain) > 0 {
		chain = chain[:len(chain)-1]
	}
	return chain, nil
}

func (r *fakeNodeRepo) Descendants(_ context.Context, _ *gorm.DB, ids []uuid.UUID, includeSelf bool) ([]uuid.UUID, error) {
	inSet := map[uuid.UUID]bool{}
	for _, id := range ids {
		inSet[id] = true
	}
	var out []uuid.UUID
	if includeSelf {
		out = append(out, ids...)
	}
	changed := true
	seen := map[uuid.UUID]bool{}
	for _, id := range ids {
		seen[id] = true
	}
	for changed {
		changed = false
		for _, n := range r.nodes {
			if seen[n.ID] || n.ParentID == nil {
				continue
			}
			if seen[*n.ParentID] {
				seen[n.ID] = true
				out = append(out, n.ID)
				changed = true
			}
		}
	}
	return out, nil
}

func (r *fakeNodeRepo) SoftDeleteSubtree(ctx context.Context, tx *gorm.DB, rootIDs []uuid.UUID, _ *uuid.UUID) (int64, error) {
	all, _ := r.Descendants(ctx, tx, rootIDs, true)
	for _, id := range all {
		r.deleted[id] = true
	}
	return int64(len(all)), nil
}

func (r *fakeNodeRepo) PurgeDeletedBefore(_ context.Context, _ *gorm.DB, _ time.Time) (int64, error) {
	var n int64
	for id := range r.deleted {
		delete(r.nodes, id)
		delete(r.deleted, id)
		n++
	}
	return n, nil
}

func (r *fakeNodeRepo) GetTags(_ context.Context, _ *gorm.DB, nodeID uuid.UUID) ([]models.Tag, error) {
	return r.tagsByNode[nodeID], nil
}

func (r *fakeNodeRepo) ReplaceTags(_ context.Context, _ *gorm.DB, nodeID uuid.UUID, tags []models.Tag) error {
	r.tagsByNode[nodeID] = append([]models.Tag(nil), tags...)
	return nil
}

func (r *fakeNodeRepo) AppendTags(_ context.Context, _ *gorm.DB, nodeID uuid.UUID, tags []models.Tag) error {
	existing := r.tagsByNode[nodeID]
	have := map[uuid.UUID]bool{}
	for _, t := range existing {
		have[t.ID] = true
	}
	for _, t := range tags {
		if !have[t.ID] {
			existing = append(existing, t)
		}
	}
	r.tagsByNode[nodeID] = existing
	return nil
}

func (r *fakeNodeRepo) RemoveTags(_ context.Context, _ *gorm.DB, nodeID uuid.UUID, tags []models.Tag) error {
	drop := map[uuid.UUID]bool{}
	for _, t := range tags {
		drop[t.ID] = true
	}
	var kept []models.Tag
	for _, t := range r.tagsByNode[nodeID] {
		if !drop[t.ID] {
			kept = append(kept, t)
		}
	}
	r.tagsByNode[nodeID] = kept
	return nil
}

func (r *fakeNodeRepo) OwnerOf(_ context.Context, _ *gorm.DB, nodeID uuid.UUID) (models.Ownership, error) {
	cur, ok := r.nodes[nodeID]
	if !ok {
		return models.Ownership{}, gorm.ErrRecordNotFound
	}
	for {
		if own, ok := r.ownership[cur.ID]; ok {
			return own, nil
		}
		if cur.ParentID == nil {
			return models.Ownership{}, gorm.ErrRecordNotFound
		}
		next, ok := r.nodes[*cur.ParentID]
		if !ok {
			return models.Ownership{}, gorm.ErrRecordNotFound
		}
		cur = next
	}
}

func (r *fakeNodeRepo) SetOwnership(_ context.Context, _ *gorm.DB, nodeID uuid.UUID, ownerType string, ownerID uuid.UUID) error {
	r.ownership[nodeID] = models.Ownership{
		ID: uuid.New(), ResourceType: "node", ResourceID: nodeID,
		OwnerType: ownerType, OwnerID: ownerID,
	}
	return nil
}

func (r *fakeNodeRepo) DeleteOwnership(_ context.Context, _ *gorm.DB, nodeID uuid.UUID) error {
	delete(r.ownership, nodeID)
	return nil
}

func (r *fakeNodeRepo) SpecialFolderOf(_ context.Context, _ *gorm.DB, ownerType string, ownerID uuid.UUID, folderType string) (uuid.UUID, error) {
	for _, sf := range r.specialFolders {
		if sf.OwnerType == ownerType && sf.OwnerID == ownerID && sf.FolderType == folderType {
			return sf.FolderID, nil
		}
	}
	return uuid.Nil, gorm.ErrRecordNotFound
}

func (r *fakeNodeRepo) CreateSpecialFolder(_ context.Context, _ *gorm.DB, sf *models.SpecialFolder) error {
	r.specialFolders = append(r.specialFolders, *sf)
	return nil
}

func (r *fakeNodeRepo) SpecialFolderKind(_ context.Context, _ *gorm.DB, folderID uuid.UUID) (string, error) {
	for _, sf := range r.specialFolders {
		if sf.FolderID == folderID {
			return sf.FolderType, nil
		}
	}
	return "", nil
}

// --- tags ---

type fakeTagRepo struct {
	tags map[uuid.UUID]models.Tag
}

func newFakeTagRepo() *fakeTagRepo {
	return &fakeTagRepo{tags: map[uuid.UUID]models.Tag{}}
}

func (r *fakeTagRepo) GetByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (models.Tag, error) {
	t, ok := r.tags[id]
	if !ok {
		return models.Tag{}, gorm.ErrRecordNotFound
	}
	return t, nil
}

func (r *fakeTagRepo) ListByOwner(_ context.Context, _ *gorm.DB, ownerType string, ownerID uuid.UUID) ([]models.Tag, error) {
	var out []models.Tag
	for _, t := range r.tags {
		if t.OwnerType == ownerType && t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeTagRepo) GetOrCreateByNames(_ context.Context, _ *gorm.DB, ownerType string, ownerID uuid.UUID, names []string) ([]models.Tag, error) {
	var out []models.Tag
	for _, name := range names {
		var found *models.Tag
		for _, t := range r.tags {
			if t.OwnerType == ownerType && t.OwnerID == ownerID && t.Name == name {
				tt := t
				found = &tt
				break
			}
		}
		if found == nil {
			t := models.Tag{ID: uuid.New(), Name: name, OwnerType: ownerType, OwnerID: ownerID}
			r.tags[t.ID] = t
			found = &t
		}
		out = append(out, *found)
	}
	return out, nil
}

func (r *fakeTagRepo) Create(_ context.Context, _ *gorm.DB, tag *models.Tag) error {
	for _, t := range r.tags {
		if t.OwnerType == tag.OwnerType && t.OwnerID == tag.OwnerID && t.Name == tag.Name {
			return gorm.ErrDuplicatedKey
		}
	}
	r.tags[tag.ID] = *tag
	return nil
}

func (r *fakeTagRepo) Update(_ context.Context, _ *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	t, ok := r.tags[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := updates["name"].(string); ok {
		t.Name = v
	}
	r.tags[id] = t
	return nil
}

func (r *fakeTagRepo) Delete(_ context.Context, _ *gorm.DB, id uuid.UUID) error {
	delete(r.tags, id)
	return nil
}

// --- shared nodes ---

type fakeSharedRepo struct {
	grants    []models.SharedNode
	rolePerms map[uuid.UUID][]string
}

func newFakeSharedRepo() *fakeSharedRepo {
	return &fakeSharedRepo{rolePerms: map[uuid.UUID][]string{}}
}

func (r *fakeSharedRepo) CreateGrants(_ context.Context, _ *gorm.DB, grants []models.SharedNode) (int64, error) {
	r.grants = append(r.grants, grants...)
	return int64(len(grants)), nil
}

func (r *fakeSharedRepo) ListByNode(_ context.Context, _ *gorm.DB, nodeID uuid.UUID) ([]models.SharedNode, error) {
	var out []models.SharedNode
	for _, g := range r.grants {
		if g.NodeID == nodeID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *fakeSharedRepo) Delete(_ context.Context, _ *gorm.DB, id uuid.UUID) error {
	var kept []models.SharedNode
	for _, g := range r.grants {
		if g.ID != id {
			kept = append(kept, g)
		}
	}
	r.grants = kept
	return nil
}

func (r *fakeSharedRepo) matches(g models.SharedNode, userID uuid.UUID, groupIDs []uuid.UUID) bool {
	if g.UserID != nil && *g.UserID == userID {
		return true
	}
	if g.GroupID != nil {
		for _, gid := range groupIDs {
			if *g.GroupID == gid {
				return true
			}
		}
	}
	return false
}

func (r *fakeSharedRepo) HasGrant(_ context.Context, _ *gorm.DB, nodeIDs []uuid.UUID, userID uuid.UUID, groupIDs []uuid.UUID, codename string) (bool, error) {
	nodeSet := map[uuid.UUID]bool{}
	for _, id := range nodeIDs {
		nodeSet[id] = true
	}
	for _, g := range r.grants {
		if !nodeSet[g.NodeID] || !r.matches(g, userID, groupIDs) {
			continue
		}
		for _, p := range r.rolePerms[g.RoleID] {
			if p == codename {
				return true, nil
			}
		}
	}
	return false, nil
}

func (r *fakeSharedRepo) GrantedNodeIDs(_ context.Context, _ *gorm.DB, userID uuid.UUID, groupIDs []uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for _, g := range r.grants {
		if r.matches(g, userID, groupIDs) {
			out = append(out, g.NodeID)
		}
	}
	return out, nil
}

// --- audit log ---

type fakeAuditRepo struct {
	entries []models.AuditLog
}

func (r *fakeAuditRepo) Insert(_ context.Context, _ *gorm.DB, entry *models.AuditLog) error {
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeAuditRepo) List(_ context.Context, _ *gorm.DB, tableName string, _, _ int) ([]models.AuditLog, int64, error) {
	var out []models.AuditLog
	for _, e := range r.entries {
		if tableName == "" || e.Table == tableName {
			out = append(out, e)
		}
	}
	return out, int64(len(out)), nil
}

// --- documents ---

type fakeDocumentRepo struct {
	docs     map[uuid.UUID]models.Document
	versions map[uuid.UUID][]models.DocumentVersion
	pages    map[uuid.UUID][]models.Page
}

func newFakeDocumentRepo() *fakeDocumentRepo {
	return &fakeDocumentRepo{
		docs:     map[uuid.UUID]models.Document{},
		versions: map[uuid.UUID][]models.DocumentVersion{},
		pages:    map[uuid.UUID][]models.Page{},
	}
}

func (r *fakeDocumentRepo) CreateDocument(_ context.Context, _ *gorm.DB, doc *models.Document) error {
	r.docs[doc.NodeID] = *doc
	return nil
}

func (r *fakeDocumentRepo) GetDocument(_ context.Context, _ *gorm.DB, nodeID uuid.UUID) (models.Document, error) {
	d, ok := r.docs[nodeID]
	if !ok {
		return models.Document{}, gorm.ErrRecordNotFound
	}
	return d, nil
}

func (r *fakeDocumentRepo) UpdateDocument(_ context.Context, _ *gorm.DB, nodeID uuid.UUID, updates map[string]interface{}) error {
	d, ok := r.docs[nodeID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, has := updates["document_type_id"]; has {
		if v == nil {
			d.DocumentTypeID = nil
		} else if id, ok := v.(*uuid.UUID); ok {
			d.DocumentTypeID = id
		}
	}
	if v, ok := updates["preview_status"].(string); ok {
		d.PreviewStatus = &v
	}
	r.docs[nodeID] = d
	return nil
}

func (r *fakeDocumentRepo) LastVersion(_ context.Context, _ *gorm.DB, docID uuid.UUID, _ bool) (models.DocumentVersion, error) {
	vers := r.versions[docID]
	if len(vers) == 0 {
		return models.DocumentVersion{}, gorm.ErrRecordNotFound
	}
	return vers[len(vers)-1], nil
}

func (r *fakeDocumentRepo) GetVersion(_ context.Context, _ *gorm.DB, id uuid.UUID) (models.DocumentVersion, error) {
	for _, vers := range r.versions {
		for _, v := range vers {
			if v.ID == id {
				return v, nil
			}
		}
	}
	return models.DocumentVersion{}, gorm.ErrRecordNotFound
}

func (r *fakeDocumentRepo) CreateVersion(_ context.Context, _ *gorm.DB, ver *models.DocumentVersion) error {
	r.versions[ver.DocumentID] = append(r.versions[ver.DocumentID], *ver)
	return nil
}

func (r *fakeDocumentRepo) UpdateVersion(_ context.Context, _ *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	for docID, vers := range r.versions {
		for i, v := range vers {
			if v.ID != id {
				continue
			}
			if name, ok := updates["file_name"].(string); ok {
				v.FileName = &name
			}
			if size, ok := updates["size"].(int64); ok {
				v.Size = size
			}
			r.versions[docID][i] = v
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeDocumentRepo) Versions(_ context.Context, _ *gorm.DB, docID uuid.UUID) ([]models.DocumentVersion, error) {
	return r.versions[docID], nil
}

func (r *fakeDocumentRepo) CreatePages(_ context.Context, _ *gorm.DB, pages []models.Page) error {
	for _, p := range pages {
		r.pages[p.DocumentVersionID] = append(r.pages[p.DocumentVersionID], p)
	}
	return nil
}

func (r *fakeDocumentRepo) PagesOfVersion(_ context.Context, _ *gorm.DB, versionID uuid.UUID) ([]models.Page, error) {
	pages := append([]models.Page(nil), r.pages[versionID]...)
	sort.Slice(pages, func(i, j int) bool { return pages[i].Number < pages[j].Number })
	return pages, nil
}

func (r *fakeDocumentRepo) PagesByIDs(_ context.Context, _ *gorm.DB, ids []uuid.UUID) ([]models.Page, error) {
	want := map[uuid.UUID]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var out []models.Page
	for _, pages := range r.pages {
		for _, p := range pages {
			if want[p.ID] {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (r *fakeDocumentRepo) FirstPage(ctx context.Context, tx *gorm.DB, versionID uuid.UUID) (models.Page, error) {
	pages, _ := r.PagesOfVersion(ctx, tx, versionID)
	if len(pages) == 0 {
		return models.Page{}, gorm.ErrRecordNotFound
	}
	return pages[0], nil
}

// --- users ---

type fakeUserRepo struct {
	users       map[uuid.UUID]models.User
	groups      map[uuid.UUID]models.Group
	roles       map[uuid.UUID]models.Role
	perms       map[string]models.Permission
	userGroups  map[uuid.UUID][]uuid.UUID
	userRoles   map[uuid.UUID][]uuid.UUID
	permsByUser map[uuid.UUID][]string
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:       map[uuid.UUID]models.User{},
		groups:      map[uuid.UUID]models.Group{},
		roles:       map[uuid.UUID]models.Role{},
		perms:       map[string]models.Permission{},
		userGroups:  map[uuid.UUID][]uuid.UUID{},
		userRoles:   map[uuid.UUID][]uuid.UUID{},
		permsByUser: map[uuid.UUID][]string{},
	}
}

func (r *fakeUserRepo) addUser(username string, super bool) models.User {
	u := models.User{ID: uuid.New(), Username: username, IsSuperuser: super, IsActive: true}
	r.users[u.ID] = u
	return u
}

func (r *fakeUserRepo) GetByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return models.User{}, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, _ *gorm.DB, username string) (models.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return models.User{}, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) Create(_ context.Context, _ *gorm.DB, user *models.User) error {
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, _ *gorm.DB, id uuid.UUID) error {
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) List(_ context.Context, _ *gorm.DB, _, _ int) ([]models.User, int64, error) {
	var out []models.User
	for _, u := range r.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, int64(len(out)), nil
}

func (r *fakeUserRepo) GroupIDsOf(_ context.Context, _ *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error) {
	return r.userGroups[userID], nil
}

func (r *fakeUserRepo) RolePermissions(_ context.Context, _ *gorm.DB, userID uuid.UUID) ([]string, error) {
	return r.permsByUser[userID], nil
}

func (r *fakeUserRepo) AssignRole(_ context.Context, _ *gorm.DB, userID, roleID uuid.UUID) error {
	r.userRoles[userID] = append(r.userRoles[userID], roleID)
	return nil
}

func (r *fakeUserRepo) AssignGroup(_ context.Context, _ *gorm.DB, userID, groupID uuid.UUID) error {
	r.userGroups[userID] = append(r.userGroups[userID], groupID)
	return nil
}

func (r *fakeUserRepo) GetGroupByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (models.Group, error) {
	g, ok := r.groups[id]
	if !ok {
		return models.Group{}, gorm.ErrRecordNotFound
	}
	return g, nil
}

func (r *fakeUserRepo) GetGroupByName(_ context.Context, _ *gorm.DB, name string) (models.Group, error) {
	for _, g := range r.groups {
		if g.Name == name {
			return g, nil
		}
	}
	return models.Group{}, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) CreateGroup(_ context.Context, _ *gorm.DB, group *models.Group) error {
	r.groups[group.ID] = *group
	return nil
}

func (r *fakeUserRepo) ListGroups(_ context.Context, _ *gorm.DB) ([]models.Group, error) {
	var out []models.Group
	for _, g := range r.groups {
		out = append(out, g)
	}
	return out, nil
}

func (r *fakeUserRepo) DeleteGroup(_ context.Context, _ *gorm.DB, id uuid.UUID) error {
	delete(r.groups, id)
	return nil
}

func (r *fakeUserRepo) GetRoleByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (models.Role, error) {
	role, ok := r.roles[id]
	if !ok {
		return models.Role{}, gorm.ErrRecordNotFound
	}
	return role, nil
}

func (r *fakeUserRepo) GetRoleByName(_ context.Context, _ *gorm.DB, name string) (models.Role, error) {
	for _, role := range r.roles {
		if role.Name == name {
			return role, nil
		}
	}
	return models.Role{}, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) CreateRole(_ context.Context, _ *gorm.DB, role *models.Role) error {
	r.roles[role.ID] = *role
	return nil
}

func (r *fakeUserRepo) ListRoles(_ context.Context, _ *gorm.DB) ([]models.Role, error) {
	var out []models.Role
	for _, role := range r.roles {
		out = append(out, role)
	}
	return out, nil
}

func (r *fakeUserRepo) DeleteRole(_ context.Context, _ *gorm.DB, id uuid.UUID) error {
	delete(r.roles, id)
	return nil
}

func (r *fakeUserRepo) PermissionsByCodenames(_ context.Context, _ *gorm.DB, codenames []string) ([]models.Permission, error) {
	var out []models.Permission
	for _, c := range codenames {
		if p, ok := r.perms[c]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) SyncPermissions(_ context.Context, _ *gorm.DB, codenames []string) (int, error) {
	created := 0
	for _, c := range codenames {
		if _, ok := r.perms[c]; !ok {
			r.perms[c] = models.Permission{ID: uuid.New(), Codename: c}
			created++
		}
	}
	return created, nil
}

// --- tokens ---

type fakeTokenRepo struct {
	byHash map[string]models.APIToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{byHash: map[string]models.APIToken{}}
}

func (r *fakeTokenRepo) Create(_ context.Context, _ *gorm.DB, token *models.APIToken) error {
	r.byHash[token.TokenHash] = *token
	return nil
}

func (r *fakeTokenRepo) GetByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (models.APIToken, error) {
	for _, t := range r.byHash {
		if t.ID == id {
			return t, nil
		}
	}
	return models.APIToken{}, gorm.ErrRecordNotFound
}

func (r *fakeTokenRepo) GetByHash(_ context.Context, _ *gorm.DB, hash string) (models.APIToken, error) {
	t, ok := r.byHash[hash]
	if !ok {
		return models.APIToken{}, gorm.ErrRecordNotFound
	}
	return t, nil
}

func (r *fakeTokenRepo) ListByUser(_ context.Context, _ *gorm.DB, userID uuid.UUID) ([]models.APIToken, error) {
	var out []models.APIToken
	for _, t := range r.byHash {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeTokenRepo) Delete(_ context.Context, _ *gorm.DB, id uuid.UUID) error {
	for hash, t := range r.byHash {
		if t.ID == id {
			delete(r.byHash, hash)
		}
	}
	return nil
}

func (r *fakeTokenRepo) TouchLastUsed(_ context.Context, _ *gorm.DB, id uuid.UUID, at time.Time) error {
	for hash, t := range r.byHash {
		if t.ID == id {
			t.LastUsedAt = &at
			r.byHash[hash] = t
		}
	}
	return nil
}

// --- custom fields ---

type fakeCustomFieldRepo struct {
	fields       map[uuid.UUID]models.CustomField
	fieldsByType map[uuid.UUID][]uuid.UUID
	values       map[uuid.UUID][]models.CustomFieldValue
}

func newFakeCustomFieldRepo() *fakeCustomFieldRepo {
	return &fakeCustomFieldRepo{
		fields:       map[uuid.UUID]models.CustomField{},
		fieldsByType: map[uuid.UUID][]uuid.UUID{},
		values:       map[uuid.UUID][]models.CustomFieldValue{},
	}
}

func (r *fakeCustomFieldRepo) GetByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (models.CustomField, error) {
	f, ok := r.fields[id]
	if !ok {
		return models.CustomField{}, gorm.ErrRecordNotFound
	}
	return f, nil
}

func (r *fakeCustomFieldRepo) ListByOwner(_ context.Context, _ *gorm.DB, ownerType string, ownerID uuid.UUID) ([]models.CustomField, error) {
	var out []models.CustomField
	for _, f := range r.fields {
		if f.OwnerType == ownerType && f.OwnerID == ownerID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *fakeCustomFieldRepo) FieldsForType(_ context.Context, _ *gorm.DB, typeID uuid.UUID) ([]models.CustomField, error) {
	var out []models.CustomField
	for _, fid := range r.fieldsByType[typeID] {
		if f, ok := r.fields[fid]; ok {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *fakeCustomFieldRepo) Create(_ context.Context, _ *gorm.DB, cf *models.CustomField) error {
	r.fields[cf.ID] = *cf
	return nil
}

func (r *fakeCustomFieldRepo) Update(_ context.Context, _ *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	f, ok := r.fields[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := updates["name"].(string); ok {
		f.Name = v
	}
	r.fields[id] = f
	return nil
}

func (r *fakeCustomFieldRepo) Delete(_ context.Context, _ *gorm.DB, id uuid.UUID) error {
	delete(r.fields, id)
	return nil
}

func (r *fakeCustomFieldRepo) ValuesForDocument(_ context.Context, _ *gorm.DB, docID uuid.UUID) ([]models.CustomFieldValue, error) {
	return r.values[docID], nil
}

func (r *fakeCustomFieldRepo) ValuesForDocuments(_ context.Context, _ *gorm.DB, docIDs []uuid.UUID) ([]models.CustomFieldValue, error) {
	var out []models.CustomFieldValue
	for _, id := range docIDs {
		out = append(out, r.values[id]...)
	}
	return out, nil
}

func (r *fakeCustomFieldRepo) UpsertValue(_ context.Context, _ *gorm.DB, value *models.CustomFieldValue) error {
	existing := r.values[value.DocumentID]
	for i, v := range existing {
		if v.FieldID == value.FieldID {
			value.ID = v.ID
			existing[i] = *value
			r.values[value.DocumentID] = existing
			return nil
		}
	}
	if value.ID == uuid.Nil {
		value.ID = uuid.New()
	}
	r.values[value.DocumentID] = append(existing, *value)
	return nil
}

func (r *fakeCustomFieldRepo) DeleteValuesForDocument(_ context.Context, _ *gorm.DB, docID uuid.UUID) error {
	delete(r.values, docID)
	return nil
}

// --- document types ---

type fakeDocumentTypeRepo struct {
	types    map[uuid.UUID]models.DocumentType
	docCount map[uuid.UUID]int64
	cfRepo   *fakeCustomFieldRepo
}

func newFakeDocumentTypeRepo(cf *fakeCustomFieldRepo) *fakeDocumentTypeRepo {
	return &fakeDocumentTypeRepo{
		types:    map[uuid.UUID]models.DocumentType{},
		docCount: map[uuid.UUID]int64{},
		cfRepo:   cf,
	}
}

func (r *fakeDocumentTypeRepo) GetByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (models.DocumentType, error) {
	dt, ok := r.types[id]
	if !ok {
		return models.DocumentType{}, gorm.ErrRecordNotFound
	}
	return dt, nil
}

func (r *fakeDocumentTypeRepo) ListByOwner(_ context.Context, _ *gorm.DB, ownerType string, ownerID uuid.UUID) ([]models.DocumentType, error) {
	var out []models.DocumentType
	for _, dt := range r.types {
		if dt.OwnerType == ownerType && dt.OwnerID == ownerID {
			out = append(out, dt)
		}
	}
	return out, nil
}

func (r *fakeDocumentTypeRepo) Create(_ context.Context, _ *gorm.DB, dt *models.DocumentType) error {
	r.types[dt.ID] = *dt
	return nil
}

func (r *fakeDocumentTypeRepo) Update(_ context.Context, _ *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	dt, ok := r.types[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := updates["name"].(string); ok {
		dt.Name = v
	}
	r.types[id] = dt
	return nil
}

func (r *fakeDocumentTypeRepo) SetFields(_ context.Context, _ *gorm.DB, id uuid.UUID, fieldIDs []uuid.UUID) error {
	if r.cfRepo != nil {
		r.cfRepo.fieldsByType[id] = append([]uuid.UUID(nil), fieldIDs...)
	}
	return nil
}

func (r *fakeDocumentTypeRepo) Delete(_ context.Context, _ *gorm.DB, id uuid.UUID) error {
	delete(r.types, id)
	return nil
}

func (r *fakeDocumentTypeRepo) CountDocuments(_ context.Context, _ *gorm.DB, id uuid.UUID) (int64, error) {
	return r.docCount[id], nil
}

// --- search ---

type fakeSearchRepo struct {
	lastQuery repositories.SearchQuery
	ids       []uuid.UUID
	total     int64
	hits      []repositories.SearchHit
}

func (r *fakeSearchRepo) Run(_ context.Context, q repositories.SearchQuery) ([]uuid.UUID, int64, error) {
	r.lastQuery = q
	return r.ids, r.total, nil
}

func (r *fakeSearchRepo) Hydrate(_ context.Context, ids []uuid.UUID) ([]repositories.SearchHit, error) {
	return r.hits, nil
}

// --- index ---

type fakeIndexRepo struct {
	rebuilt   bool
	cleared   bool
	reindexed [][]uuid.UUID
	unindexed []uuid.UUID
	stats     models.IndexStats
}

func (r *fakeIndexRepo) RebuildAll(_ context.Context) error {
	r.rebuilt = true
	return nil
}

func (r *fakeIndexRepo) Reindex(_ context.Context, ids []uuid.UUID) error {
	r.reindexed = append(r.reindexed, ids)
	return nil
}

func (r *fakeIndexRepo) FindUnindexed(_ context.Context) ([]uuid.UUID, error) {
	return r.unindexed, nil
}

func (r *fakeIndexRepo) Stats(_ context.Context) (models.IndexStats, error) {
	return r.stats, nil
}

func (r *fakeIndexRepo) Clear(_ context.Context) error {
	r.cleared = true
	return nil
}

// --- collaborators / storage ---

type fakeDispatcher struct {
	ocr      []uuid.UUID
	previews []uuid.UUID
	converts []uuid.UUID
}

func (d *fakeDispatcher) EnqueueOCR(_ context.Context, documentID uuid.UUID, _ string) error {
	d.ocr = append(d.ocr, documentID)
	return nil
}

func (d *fakeDispatcher) EnqueuePreview(_ context.Context, documentID uuid.UUID) error {
	d.previews = append(d.previews, documentID)
	return nil
}

func (d *fakeDispatcher) EnqueuePDFConversion(_ context.Context, documentID, _ uuid.UUID) error {
	d.converts = append(d.converts, documentID)
	return nil
}

type fakeBlobStore struct {
	puts map[string][]byte
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{puts: map[string][]byte{}}
}

func (s *fakeBlobStore) FullPath(versionID uuid.UUID, fileName string) string {
	return strings.Join([]string{ShardedPath(versionID), fileName}, "/")
}

func (s *fakeBlobStore) Put(versionID uuid.UUID, fileName string, content []byte) (string, error) {
	path := s.FullPath(versionID, fileName)
	s.puts[path] = content
	return path, nil
}
