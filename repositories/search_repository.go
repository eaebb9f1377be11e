package repositories

import (
	"context"
	"strings"
	"time"

	"papermerge/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SearchQuery is the parameterized shape the query engine assembles; the
// repository only splices it into SQL. Conditions reference the aliases
// dsi (document_search_index) and n (nodes).
type SearchQuery struct {
	Joins   []string
	Where   []string
	Args    []interface{}
	OrderBy string
	Limit   int
	Offset  int
}

// SearchHit is one hydrated result row.
type SearchHit struct {
	DocumentID       uuid.UUID                 `json:"id"`
	Title            string                    `json:"title"`
	Lang             string                    `json:"lang"`
	DocumentTypeID   *uuid.UUID                `json:"document_type_id,omitempty"`
	DocumentTypeName *string                   `json:"document_type_name,omitempty"`
	OwnerType        string                    `json:"owner_type"`
	OwnerID          uuid.UUID                 `json:"owner_id"`
	OwnerName        string                    `json:"owner_name"`
	CreatedAt        time.Time                 `json:"created_at"`
	UpdatedAt        time.Time                 `json:"updated_at"`
	CreatedBy        *uuid.UUID                `json:"created_by,omitempty"`
	CreatedByName    *string                   `json:"created_by_name,omitempty"`
	UpdatedBy        *uuid.UUID                `json:"updated_by,omitempty"`
	UpdatedByName    *string                   `json:"updated_by_name,omitempty"`
	Tags             []models.Tag              `json:"tags"`
	CustomFields     []models.CustomFieldValue `json:"custom_fields,omitempty"`
}

type GormSearchRepository struct {
	db *gorm.DB
}

func NewGormSearchRepository(db *gorm.DB) *GormSearchRepository {
	return &GormSearchRepository{db: db}
}

const searchBase = `FROM document_search_index dsi
JOIN nodes n ON n.id = dsi.document_id AND n.deleted_at IS NULL`

// Run executes the count query and the id-page query. Only ids are
// collected here; Hydrate fills in the rest for the returned page.
func (r *GormSearchRepository) Run(ctx context.Context, q SearchQuery) ([]uuid.UUID, int64, error) {
	db := r.db.WithContext(ctx)

	var sb strings.Builder
	sb.WriteString(searchBase)
	for _, j := range q.Joins {
		sb.WriteString("\n")
		sb.WriteString(j)
	}
	if len(q.Where) > 0 {
		sb.WriteString("\nWHERE ")
		sb.WriteString(strings.Join(q.Where, " AND "))
	}
	body := sb.String()

	var total int64
	if err := db.Raw("SELECT count(DISTINCT dsi.document_id) "+body, q.Args...).
		Scan(&total).Error; err != nil {
		return nil, 0, err
	}

	pageSQL := "SELECT dsi.document_id " + body
	if q.OrderBy != "" {
		pageSQL += "\nORDER BY " + q.OrderBy
	}
	pageSQL += "\nLIMIT ? OFFSET ?"
	args := append(append([]interface{}{}, q.Args...), q.Limit, q.Offset)

	var ids []uuid.UUID
	if err := db.Raw(pageSQL, args...).Scan(&ids).Error; err != nil {
		return nil, 0, err
	}
	return ids, total, nil
}

const hydrateSQL = `
SELECT dsi.document_id, n.title, n.lang, n.created_at, n.updated_at,
       dsi.document_type_id, dsi.document_type_name,
       dsi.owner_type, dsi.owner_id,
       COALESCE(u.username, g.name, '') AS owner_name,
       n.created_by, cu.username AS created_by_name,
       n.updated_by, uu.username AS updated_by_name
FROM document_search_index dsi
JOIN nodes n ON n.id = dsi.document_id
LEFT JOIN users u ON dsi.owner_type = 'user' AND u.id = dsi.owner_id
LEFT JOIN groups g ON dsi.owner_type = 'group' AND g.id = dsi.owner_id
LEFT JOIN users cu ON cu.id = n.created_by
LEFT JOIN users uu ON uu.id = n.updated_by
WHERE dsi.document_id IN ?`

// Hydrate fetches display data for a page of ids, preserving their order.
func (r *GormSearchRepository) Hydrate(ctx context.Context, ids []uuid.UUID) ([]SearchHit, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	db := r.db.WithContext(ctx)

	var rows []SearchHit
	if err := db.Raw(hydrateSQL, ids).Scan(&rows).Error; err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*SearchHit, len(rows))
	for i := range rows {
		rows[i].Tags = []models.Tag{}
		byID[rows[i].DocumentID] = &rows[i]
	}

	type tagRow struct {
		models.Tag
		NodeID uuid.UUID
	}
	var tagRows []tagRow
	err := db.Raw(`
		SELECT t.*, nt.node_id FROM tags t
		JOIN nodes_tags nt ON nt.tag_id = t.id
		WHERE nt.node_id IN ? AND t.deleted_at IS NULL
		ORDER BY t.name`, ids).Scan(&tagRows).Error
	if err != nil {
		return nil, err
	}
	for _, tr := range tagRows {
		if hit, ok := byID[tr.NodeID]; ok {
			hit.Tags = append(hit.Tags, tr.Tag)
		}
	}

	out := make([]SearchHit, 0, len(ids))
	for _, id := range ids {
		if hit, ok := byID[id]; ok {
			out = append(out, *hit)
		}
	}
	return out, nil
}
