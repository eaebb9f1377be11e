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

// Move strategies.
const (
	MoveStrategyMix     = "MIX"
	MoveStrategyReplace = "REPLACE"
)

// Extract strategies.
const (
	ExtractAllPagesInOneDoc = "ALL_PAGES_IN_ONE_DOC"
	ExtractOnePagePerDoc    = "ONE_PAGE_PER_DOC"
)

// PageOpItem is one entry of an apply-pages operation: the page to keep
// and the clockwise rotation to apply, in the desired final order.
type PageOpItem struct {
	PageID uuid.UUID `json:"page_id"`
	Angle  int       `json:"angle"`
}

type PageService interface {
	ApplyPagesOp(ctx context.Context, actor Actor, items []PageOpItem) (models.DocumentVersion, error)
	MovePages(ctx context.Context, actor Actor, sourcePageIDs []uuid.UUID, targetPageID uuid.UUID, strategy string) (source *uuid.UUID, target uuid.UUID, err error)
	ExtractPages(ctx context.Context, actor Actor, sourcePageIDs []uuid.UUID, targetFolderID uuid.UUID, strategy, titleFormat string) ([]uuid.UUID, error)
}

type pageService struct {
	txManager  TxManager
	nodes      repositories.NodeRepository
	documents  repositories.DocumentRepository
	shared     repositories.SharedNodeRepository
	docService DocumentService
	dispatcher CollabDispatcher
	auditLog   repositories.AuditLogRepository
}

func NewPageService(
	txManager TxManager,
	nodes repositories.NodeRepository,
	documents repositories.DocumentRepository,
	shared repositories.SharedNodeRepository,
	docService DocumentService,
	dispatcher CollabDispatcher,
	auditLog repositories.AuditLogRepository,
) PageService {
	return &pageService{
		txManager:  txManager,
		nodes:      nodes,
		documents:  documents,
		shared:     shared,
		docService: docService,
		dispatcher: dispatcher,
		auditLog:   auditLog,
	}
}

func (s *pageService) requirePerm(ctx context.Context, actor Actor, nodeID uuid.UUID, codename string) error {
	return requireNodePerm(ctx, s.nodes, s.shared, actor, nodeID, codename)
}

// resolvePages loads the given pages and asserts they all belong to the
// same document version. Returns the pages in input order plus the
// owning version.
func (s *pageService) resolvePages(ctx context.Context, tx *gorm.DB, pageIDs []uuid.UUID) ([]models.Page, models.DocumentVersion, error) {
	if len(pageIDs) == 0 {
		return nil, models.DocumentVersion{}, errValidation("no pages given")
	}
	pages, err := s.documents.PagesByIDs(ctx, tx, pageIDs)
	if err != nil {
		return nil, models.DocumentVersion{}, errInternal("failed to load pages", err)
	}
	if len(pages) != len(pageIDs) {
		return nil, models.DocumentVersion{}, errNotFound("page")
	}
	byID := make(map[uuid.UUID]models.Page, len(pages))
	for _, p := range pages {
		byID[p.ID] = p
	}
	ordered := make([]models.Page, 0, len(pageIDs))
	verID := pages[0].DocumentVersionID
	for _, id := range pageIDs {
		p := byID[id]
		if p.DocumentVersionID != verID {
			return nil, models.DocumentVersion{}, errValidation("pages belong to different document versions")
		}
		ordered = append(ordered, p)
	}
	ver, err := s.documents.GetVersion(ctx, tx, verID)
	if err != nil {
		return nil, models.DocumentVersion{}, errInternal("failed to load document version", err)
	}
	return ordered, ver, nil
}

// ApplyPagesOp reorders, rotates and deletes pages in one shot. Pages of
// the current version omitted from items are dropped from the new
// version; rotation itself is applied to the stored file by the preview
// collaborator.
func (s *pageService) ApplyPagesOp(ctx context.Context, actor Actor, items []PageOpItem) (models.DocumentVersion, error) {
	if len(items) == 0 {
		return models.DocumentVersion{}, errValidation("no pages given")
	}
	ids := make([]uuid.UUID, len(items))
	for i, it := range items {
		if it.Angle%90 != 0 {
			return models.DocumentVersion{}, errValidation("angle must be a multiple of 90")
		}
		ids[i] = it.PageID
	}

	var newVer models.DocumentVersion
	err := s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		pages, ver, err := s.resolvePages(ctx, tx, ids)
		if err != nil {
			return err
		}
		last, err := s.documents.LastVersion(ctx, tx, ver.DocumentID, true)
		if err != nil {
			return errInternal("failed to load last version", err)
		}
		if last.ID != ver.ID {
			return errConflict("pages do not belong to the latest document version")
		}
		if err := s.requirePerm(ctx, actor, ver.DocumentID, "page.update"); err != nil {
			return err
		}
		// Accumulate the requested angle onto each page's stored
		// rotation, normalized to 0..359.
		for i := range pages {
			pages[i].Rotation = ((pages[i].Rotation+items[i].Angle)%360 + 360) % 360
		}
		newVer, err = s.docService.VersionBumpFromPages(ctx, tx, pages, ver.DocumentID)
		if err != nil {
			return err
		}
		return s.auditLog.Insert(ctx, tx, &models.AuditLog{
			Table:     "document_versions",
			RecordID:  newVer.ID,
			Operation: models.AuditOpInsert,
			Timestamp: nowUTC(),
			UserID:    auditActor(ctx),
			Username:  auditUsername(ctx),
		})
	})
	if err != nil {
		return models.DocumentVersion{}, err
	}
	if err := s.dispatcher.EnqueuePreview(ctx, newVer.DocumentID); err != nil {
		return models.DocumentVersion{}, errInternal("failed to enqueue preview", err)
	}
	return newVer, nil
}

// MovePages moves pages from their source document into the target
// page's document. MIX appends the moved pages after the target's
// remaining pages; REPLACE discards the target's pages. A source
// document left with zero pages is deleted and nil is returned for it.
func (s *pageService) MovePages(ctx context.Context, actor Actor, sourcePageIDs []uuid.UUID, targetPageID uuid.UUID, strategy string) (*uuid.UUID, uuid.UUID, error) {
	if strategy != MoveStrategyMix && strategy != MoveStrategyReplace {
		return nil, uuid.Nil, errValidation("strategy must be MIX or REPLACE")
	}

	var sourceDocID *uuid.UUID
	var targetDocID uuid.UUID
	err := s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		srcPages, srcVer, err := s.resolvePages(ctx, tx, sourcePageIDs)
		if err != nil {
			return err
		}
		_, tgtVer, err := s.resolvePages(ctx, tx, []uuid.UUID{targetPageID})
		if err != nil {
			return err
		}
		if srcVer.DocumentID == tgtVer.DocumentID {
			return errValidation("source and target pages belong to the same document")
		}
		if err := s.requirePerm(ctx, actor, srcVer.DocumentID, "page.move"); err != nil {
			return err
		}
		if err := s.requirePerm(ctx, actor, tgtVer.DocumentID, "page.move"); err != nil {
			return err
		}
		targetDocID = tgtVer.DocumentID

		moved := make(map[uuid.UUID]bool, len(srcPages))
		for _, p := range srcPages {
			moved[p.ID] = true
		}
		allSrc, err := s.documents.PagesOfVersion(ctx, tx, srcVer.ID)
		if err != nil {
			return errInternal("failed to load source pages", err)
		}
		var remaining []models.Page
		for _, p := range allSrc {
			if !moved[p.ID] {
				remaining = append(remaining, p)
			}
		}

		var tgtNew []models.Page
		if strategy == MoveStrategyMix {
			tgtNew, err = s.documents.PagesOfVersion(ctx, tx, tgtVer.ID)
			if err != nil {
				return errInternal("failed to load target pages", err)
			}
		}
		tgtNew = append(tgtNew, srcPages...)

		if _, err := s.docService.VersionBumpFromPages(ctx, tx, tgtNew, tgtVer.DocumentID); err != nil {
			return err
		}

		if len(remaining) == 0 {
			actorID := actor.User.ID
			if _, err := s.nodes.SoftDeleteSubtree(ctx, tx, []uuid.UUID{srcVer.DocumentID}, &actorID); err != nil {
				return errInternal("failed to delete emptied source document", err)
			}
			sourceDocID = nil
		} else {
			if _, err := s.docService.VersionBumpFromPages(ctx, tx, remaining, srcVer.DocumentID); err != nil {
				return err
			}
			id := srcVer.DocumentID
			sourceDocID = &id
		}
		return nil
	})
	if err != nil {
		return nil, uuid.Nil, err
	}
	if sourceDocID != nil {
		if err := s.dispatcher.EnqueuePreview(ctx, *sourceDocID); err != nil {
			return nil, uuid.Nil, errInternal("failed to enqueue preview", err)
		}
	}
	if err := s.dispatcher.EnqueuePreview(ctx, targetDocID); err != nil {
		return nil, uuid.Nil, errInternal("failed to enqueue preview", err)
	}
	return sourceDocID, targetDocID, nil
}

// ExtractPages moves pages out of their document into freshly created
// documents under targetFolderID. titleFormat names the new documents;
// one-page-per-doc appends a running index so siblings stay unique.
func (s *pageService) ExtractPages(ctx context.Context, actor Actor, sourcePageIDs []uuid.UUID, targetFolderID uuid.UUID, strategy, titleFormat string) ([]uuid.UUID, error) {
	if strategy != ExtractAllPagesInOneDoc && strategy != ExtractOnePagePerDoc {
		return nil, errValidation("strategy must be ALL_PAGES_IN_ONE_DOC or ONE_PAGE_PER_DOC")
	}
	titleFormat = strings.TrimSpace(titleFormat)
	if titleFormat == "" {
		return nil, errValidation("title_format must not be empty")
	}

	target, err := s.nodes.GetByID(ctx, nil, targetFolderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotFound("target folder")
		}
		return nil, errInternal("failed to load target folder", err)
	}
	if target.CType != models.CTypeFolder {
		return nil, errValidation("target node is not a folder")
	}
	if err := s.requirePerm(ctx, actor, targetFolderID, "node.create"); err != nil {
		return nil, err
	}

	var createdIDs []uuid.UUID
	var touchedDocs []uuid.UUID
	err = s.txManager.WithTransaction(ctx, func(tx *gorm.DB) error {
		srcPages, srcVer, err := s.resolvePages(ctx, tx, sourcePageIDs)
		if err != nil {
			return err
		}
		if err := s.requirePerm(ctx, actor, srcVer.DocumentID, "page.extract"); err != nil {
			return err
		}

		var batches [][]models.Page
		if strategy == ExtractAllPagesInOneDoc {
			batches = [][]models.Page{srcPages}
		} else {
			for _, p := range srcPages {
				batches = append(batches, []models.Page{p})
			}
		}

		srcNode, err := s.nodes.GetByID(ctx, tx, srcVer.DocumentID)
		if err != nil {
			return errInternal("failed to load source document node", err)
		}

		for i, batch := range batches {
			title := titleFormat + ".pdf"
			if strategy == ExtractOnePagePerDoc {
				title = fmt.Sprintf("%s-%d.pdf", titleFormat, i+1)
			}
			actorID := actor.User.ID
			node := models.Node{
				ID:        uuid.New(),
				Title:     title,
				CType:     models.CTypeDocument,
				Lang:      srcNode.Lang,
				ParentID:  &targetFolderID,
				CreatedBy: &actorID,
				UpdatedBy: &actorID,
			}
			if err := s.nodes.Create(ctx, tx, &node); err != nil {
				return errInternal("failed to create extracted document node", err)
			}
			doc := models.Document{
				NodeID:    node.ID,
				OCRStatus: models.OCRStatusUnknown,
			}
			if err := s.documents.CreateDocument(ctx, tx, &doc); err != nil {
				return errInternal("failed to create extracted document", err)
			}
			seed := models.DocumentVersion{
				ID:         uuid.New(),
				DocumentID: node.ID,
				Number:     1,
				Lang:       srcVer.Lang,
			}
			if err := s.documents.CreateVersion(ctx, tx, &seed); err != nil {
				return errInternal("failed to create initial version", err)
			}
			if _, err := s.docService.VersionBumpFromPages(ctx, tx, batch, node.ID); err != nil {
				return err
			}
			createdIDs = append(createdIDs, node.ID)
			touchedDocs = append(touchedDocs, node.ID)
		}

		extracted := make(map[uuid.UUID]bool, len(srcPages))
		for _, p := range srcPages {
			extracted[p.ID] = true
		}
		allSrc, err := s.documents.PagesOfVersion(ctx, tx, srcVer.ID)
		if err != nil {
			return errInternal("failed to load source pages", err)
		}
		var remaining []models.Page
		for _, p := range allSrc {
			if !extracted[p.ID] {
				remaining = append(remaining, p)
			}
		}
		if len(remaining) == 0 {
			actorID := actor.User.ID
			if _, err := s.nodes.SoftDeleteSubtree(ctx, tx, []uuid.UUID{srcVer.DocumentID}, &actorID); err != nil {
				return errInternal("failed to delete emptied source document", err)
			}
		} else {
			if _, err := s.docService.VersionBumpFromPages(ctx, tx, remaining, srcVer.DocumentID); err != nil {
				return err
			}
			touchedDocs = append(touchedDocs, srcVer.DocumentID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, docID := range touchedDocs {
		if err := s.dispatcher.EnqueuePreview(ctx, docID); err != nil {
			return nil, errInternal("failed to enqueue preview", err)
		}
	}
	return createdIDs, nil
}
