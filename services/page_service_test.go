package services

import (
	"context"
	"net/http"
	"testing"

	"papermerge/models"

	"github.com/google/uuid"
)

type pageServiceFixture struct {
	pages      PageService
	docs       DocumentService
	nodes      *fakeNodeRepo
	documents  *fakeDocumentRepo
	dispatcher *fakeDispatcher
	actor      Actor
}

func newPageServiceFixture() *pageServiceFixture {
	nodes := newFakeNodeRepo()
	documents := newFakeDocumentRepo()
	dispatcher := &fakeDispatcher{}
	audit := &fakeAuditRepo{}
	shared := newFakeSharedRepo()
	docSvc := NewDocumentService(fakeTxManager{}, nodes, documents, newFakeCustomFieldRepo(), shared, audit, newFakeBlobStore(), dispatcher, 10)
	pageSvc := NewPageService(fakeTxManager{}, nodes, documents, shared, docSvc, dispatcher, audit)
	return &pageServiceFixture{
		pages:      pageSvc,
		docs:       docSvc,
		nodes:      nodes,
		documents:  documents,
		dispatcher: dispatcher,
		actor:      Actor{User: models.User{ID: uuid.New()}},
	}
}

// docWithPages creates a document whose latest version holds one page
// per given text.
func (f *pageServiceFixture) docWithPages(t *testing.T, title string, texts ...string) (models.Node, []models.Page) {
	t.Helper()
	ctx := context.Background()
	parent := f.nodes.addFolder("home", nil)
	ownNodes(f.nodes, f.actor, parent.ID)
	node, _, err := f.docs.CreateDocument(ctx, f.actor, parent.ID, title, "en", false)
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	src := make([]models.Page, len(texts))
	for i := range texts {
		text := texts[i]
		src[i] = models.Page{ID: uuid.New(), Number: i + 1, Text: &text}
	}
	ver, err := f.docs.VersionBumpFromPages(ctx, nil, src, node.ID)
	if err != nil {
		t.Fatalf("VersionBumpFromPages: %v", err)
	}
	pages, err := f.documents.PagesOfVersion(ctx, nil, ver.ID)
	if err != nil {
		t.Fatalf("PagesOfVersion: %v", err)
	}
	return node, pages
}

func TestApplyPagesOpReorderAndDrop(t *testing.T) {
	f := newPageServiceFixture()
	node, pages := f.docWithPages(t, "report.pdf", "one", "two", "three")

	newVer, err := f.pages.ApplyPagesOp(context.Background(), f.actor, []PageOpItem{
		{PageID: pages[2].ID, Angle: 90},
		{PageID: pages[0].ID},
	})
	if err != nil {
		t.Fatalf("ApplyPagesOp: %v", err)
	}
	if newVer.DocumentID != node.ID || newVer.PageCount != 2 {
		t.Errorf("new version = %+v", newVer)
	}
	got, _ := f.documents.PagesOfVersion(context.Background(), nil, newVer.ID)
	if len(got) != 2 || *got[0].Text != "three" || *got[1].Text != "one" {
		t.Errorf("pages after op = %+v; omitted pages must be dropped, order must follow items", got)
	}
	if got[0].Rotation != 90 || got[1].Rotation != 0 {
		t.Errorf("rotations = %d, %d; the requested angle must be stored on the page", got[0].Rotation, got[1].Rotation)
	}
	if len(f.dispatcher.previews) == 0 {
		t.Error("preview not enqueued")
	}
}

func TestApplyPagesOpValidation(t *testing.T) {
	f := newPageServiceFixture()
	_, pages := f.docWithPages(t, "report.pdf", "one")

	_, err := f.pages.ApplyPagesOp(context.Background(), f.actor, []PageOpItem{{PageID: pages[0].ID, Angle: 45}})
	if appErr := asAppError(t, err); appErr.HTTPCode != http.StatusBadRequest {
		t.Errorf("angle 45 code = %d, want 400", appErr.HTTPCode)
	}
	if _, err := f.pages.ApplyPagesOp(context.Background(), f.actor, nil); err == nil {
		t.Error("empty op accepted")
	}
	if _, err := f.pages.ApplyPagesOp(context.Background(), f.actor, []PageOpItem{{PageID: uuid.New()}}); err == nil {
		t.Error("unknown page accepted")
	}
}

func TestApplyPagesOpStaleVersionConflict(t *testing.T) {
	f := newPageServiceFixture()
	node, pages := f.docWithPages(t, "report.pdf", "one", "two")

	// Bump once more so the loaded pages belong to a superseded version.
	if _, err := f.docs.VersionBump(context.Background(), node.ID, 2); err != nil {
		t.Fatalf("VersionBump: %v", err)
	}

	_, err := f.pages.ApplyPagesOp(context.Background(), f.actor, []PageOpItem{{PageID: pages[0].ID}})
	if appErr := asAppError(t, err); appErr.HTTPCode != http.StatusConflict {
		t.Errorf("stale version code = %d, want 409", appErr.HTTPCode)
	}
}

func TestApplyPagesOpMixedVersions(t *testing.T) {
	f := newPageServiceFixture()
	_, pagesA := f.docWithPages(t, "a.pdf", "a1")
	_, pagesB := f.docWithPages(t, "b.pdf", "b1")

	_, err := f.pages.ApplyPagesOp(context.Background(), f.actor, []PageOpItem{
		{PageID: pagesA[0].ID},
		{PageID: pagesB[0].ID},
	})
	if appErr := asAppError(t, err); appErr.HTTPCode != http.StatusBadRequest {
		t.Errorf("mixed versions code = %d, want 400", appErr.HTTPCode)
	}
}

func TestMovePagesMix(t *testing.T) {
	f := newPageServiceFixture()
	srcNode, srcPages := f.docWithPages(t, "src.pdf", "s1", "s2", "s3")
	tgtNode, tgtPages := f.docWithPages(t, "tgt.pdf", "t1")

	srcID, tgtID, err := f.pages.MovePages(context.Background(), f.actor,
		[]uuid.UUID{srcPages[0].ID, srcPages[2].ID}, tgtPages[0].ID, MoveStrategyMix)
	if err != nil {
		t.Fatalf("MovePages: %v", err)
	}
	if srcID == nil || *srcID != srcNode.ID || tgtID != tgtNode.ID {
		t.Errorf("returned ids src=%v tgt=%v", srcID, tgtID)
	}

	tgtVer, _ := f.documents.LastVersion(context.Background(), nil, tgtNode.ID, false)
	got, _ := f.documents.PagesOfVersion(context.Background(), nil, tgtVer.ID)
	if len(got) != 3 || *got[0].Text != "t1" || *got[1].Text != "s1" || *got[2].Text != "s3" {
		t.Errorf("MIX target pages = %+v; moved pages must follow the target's own", got)
	}

	srcVer, _ := f.documents.LastVersion(context.Background(), nil, srcNode.ID, false)
	remaining, _ := f.documents.PagesOfVersion(context.Background(), nil, srcVer.ID)
	if len(remaining) != 1 || *remaining[0].Text != "s2" {
		t.Errorf("source remaining pages = %+v", remaining)
	}
}

func TestMovePagesReplaceAndEmptySource(t *testing.T) {
	f := newPageServiceFixture()
	srcNode, srcPages := f.docWithPages(t, "src.pdf", "s1")
	tgtNode, tgtPages := f.docWithPages(t, "tgt.pdf", "t1", "t2")

	srcID, _, err := f.pages.MovePages(context.Background(), f.actor,
		[]uuid.UUID{srcPages[0].ID}, tgtPages[0].ID, MoveStrategyReplace)
	if err != nil {
		t.Fatalf("MovePages: %v", err)
	}
	if srcID != nil {
		t.Error("emptied source document must be reported as nil")
	}
	if !f.nodes.deleted[srcNode.ID] {
		t.Error("emptied source document must be soft-deleted")
	}

	tgtVer, _ := f.documents.LastVersion(context.Background(), nil, tgtNode.ID, false)
	got, _ := f.documents.PagesOfVersion(context.Background(), nil, tgtVer.ID)
	if len(got) != 1 || *got[0].Text != "s1" {
		t.Errorf("REPLACE must discard the target's previous pages, got %+v", got)
	}
}

func TestMovePagesValidation(t *testing.T) {
	f := newPageServiceFixture()
	_, pages := f.docWithPages(t, "doc.pdf", "p1", "p2")

	if _, _, err := f.pages.MovePages(context.Background(), f.actor, []uuid.UUID{pages[0].ID}, pages[1].ID, "MERGE"); err == nil {
		t.Error("unknown strategy accepted")
	}
	_, _, err := f.pages.MovePages(context.Background(), f.actor, []uuid.UUID{pages[0].ID}, pages[1].ID, MoveStrategyMix)
	if appErr := asAppError(t, err); appErr.HTTPCode != http.StatusBadRequest {
		t.Errorf("same-document move code = %d, want 400", appErr.HTTPCode)
	}
}

func TestExtractPagesOnePagePerDoc(t *testing.T) {
	f := newPageServiceFixture()
	srcNode, srcPages := f.docWithPages(t, "bundle.pdf", "p1", "p2", "p3")
	target := f.nodes.addFolder("split", nil)
	ownNodes(f.nodes, f.actor, target.ID)

	created, err := f.pages.ExtractPages(context.Background(), f.actor,
		[]uuid.UUID{srcPages[0].ID, srcPages[1].ID}, target.ID, ExtractOnePagePerDoc, "page")
	if err != nil {
		t.Fatalf("ExtractPages: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("created %d documents, want 2", len(created))
	}
	first := f.nodes.nodes[created[0]]
	second := f.nodes.nodes[created[1]]
	if first.Title != "page-1.pdf" || second.Title != "page-2.pdf" {
		t.Errorf("titles = %q, %q", first.Title, second.Title)
	}
	if first.ParentID == nil || *first.ParentID != target.ID {
		t.Error("extracted document not placed under the target folder")
	}

	// Source keeps its remaining page.
	if f.nodes.deleted[srcNode.ID] {
		t.Error("source with remaining pages must survive")
	}
	srcVer, _ := f.documents.LastVersion(context.Background(), nil, srcNode.ID, false)
	remaining, _ := f.documents.PagesOfVersion(context.Background(), nil, srcVer.ID)
	if len(remaining) != 1 || *remaining[0].Text != "p3" {
		t.Errorf("remaining = %+v", remaining)
	}
}

func TestExtractPagesAllInOneDoc(t *testing.T) {
	f := newPageServiceFixture()
	srcNode, srcPages := f.docWithPages(t, "bundle.pdf", "p1", "p2")
	target := f.nodes.addFolder("split", nil)
	ownNodes(f.nodes, f.actor, target.ID)

	created, err := f.pages.ExtractPages(context.Background(), f.actor,
		[]uuid.UUID{srcPages[0].ID, srcPages[1].ID}, target.ID, ExtractAllPagesInOneDoc, "combined")
	if err != nil {
		t.Fatalf("ExtractPages: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("created %d documents, want 1", len(created))
	}
	if got := f.nodes.nodes[created[0]].Title; got != "combined.pdf" {
		t.Errorf("title = %q", got)
	}
	ver, _ := f.documents.LastVersion(context.Background(), nil, created[0], false)
	if ver.PageCount != 2 {
		t.Errorf("extracted version page count = %d", ver.PageCount)
	}
	if !f.nodes.deleted[srcNode.ID] {
		t.Error("fully extracted source must be soft-deleted")
	}
}

func TestExtractPagesValidation(t *testing.T) {
	f := newPageServiceFixture()
	_, pages := f.docWithPages(t, "doc.pdf", "p1")
	target := f.nodes.addFolder("split", nil)
	ownNodes(f.nodes, f.actor, target.ID)

	if _, err := f.pages.ExtractPages(context.Background(), f.actor, []uuid.UUID{pages[0].ID}, target.ID, "SOME", "t"); err == nil {
		t.Error("unknown strategy accepted")
	}
	if _, err := f.pages.ExtractPages(context.Background(), f.actor, []uuid.UUID{pages[0].ID}, target.ID, ExtractOnePagePerDoc, "  "); err == nil {
		t.Error("blank title format accepted")
	}

	_, err := f.pages.ExtractPages(context.Background(), f.actor, []uuid.UUID{pages[0].ID}, uuid.New(), ExtractOnePagePerDoc, "t")
	if appErr := asAppError(t, err); appErr.HTTPCode != http.StatusNotFound {
		t.Errorf("missing target code = %d, want 404", appErr.HTTPCode)
	}

	other, _ := f.docWithPages(t, "other.pdf", "o1")
	_, err = f.pages.ExtractPages(context.Background(), f.actor, []uuid.UUID{pages[0].ID}, other.ID, ExtractOnePagePerDoc, "t")
	if appErr := asAppError(t, err); appErr.HTTPCode != http.StatusBadRequest {
		t.Errorf("document target code = %d, want 400", appErr.HTTPCode)
	}
}

func TestPageOpsRequireAccess(t *testing.T) {
	f := newPageServiceFixture()
	_, pages := f.docWithPages(t, "doc.pdf", "p1", "p2")
	target := f.nodes.addFolder("split", nil)
	ownNodes(f.nodes, f.actor, target.ID)

	ctx := context.Background()
	stranger := Actor{User: models.User{ID: uuid.New()}}
	_, err := f.pages.ApplyPagesOp(ctx, stranger, []PageOpItem{{PageID: pages[0].ID}})
	if appErr := asAppError(t, err); appErr.HTTPCode != http.StatusForbidden {
		t.Errorf("stranger page op code = %d, want 403", appErr.HTTPCode)
	}
	_, err = f.pages.ExtractPages(ctx, stranger, []uuid.UUID{pages[0].ID}, target.ID, ExtractOnePagePerDoc, "t")
	if appErr := asAppError(t, err); appErr.HTTPCode != http.StatusForbidden {
		t.Errorf("stranger extract code = %d, want 403", appErr.HTTPCode)
	}
}
