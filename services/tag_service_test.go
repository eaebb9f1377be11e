package services

import (
	"context"
	"net/http"
	"testing"

	"papermerge/models"

	"github.com/google/uuid"
)

func newTagServiceForTest() (TagService, *fakeTagRepo) {
	tags := newFakeTagRepo()
	svc := NewTagService(fakeTxManager{}, tags, &fakeAuditRepo{})
	return svc, tags
}

func TestCreateTagDefaults(t *testing.T) {
	svc, _ := newTagServiceForTest()
	actor := Actor{User: models.User{ID: uuid.New()}}

	tag, err := svc.CreateTag(context.Background(), actor, TagInput{Name: " urgent "})
	if err != nil {
		t.Fatalf("CreateTag: %v", err)
	}
	if tag.Name != "urgent" {
		t.Errorf("name = %q", tag.Name)
	}
	if tag.BgColor != "#c41fff" || tag.FgColor != "#ffffff" {
		t.Errorf("colors = %q/%q, want defaults", tag.BgColor, tag.FgColor)
	}
	if tag.OwnerType != models.OwnerTypeUser || tag.OwnerID != actor.User.ID {
		t.Errorf("owner = %s/%s", tag.OwnerType, tag.OwnerID)
	}
}

func TestCreateTagValidation(t *testing.T) {
	svc, _ := newTagServiceForTest()
	actor := Actor{User: models.User{ID: uuid.New()}}
	ctx := context.Background()

	if _, err := svc.CreateTag(ctx, actor, TagInput{Name: "  "}); err == nil {
		t.Error("blank name accepted")
	}
	if _, err := svc.CreateTag(ctx, actor, TagInput{Name: "x", BgColor: "red"}); err == nil {
		t.Error("non-hex color accepted")
	}
	if _, err := svc.CreateTag(ctx, actor, TagInput{Name: "x", BgColor: "#12345"}); err == nil {
		t.Error("short hex color accepted")
	}

	if _, err := svc.CreateTag(ctx, actor, TagInput{Name: "dup"}); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}
	_, err := svc.CreateTag(ctx, actor, TagInput{Name: "dup"})
	if appErr := asAppError(t, err); appErr.HTTPCode != http.StatusConflict {
		t.Errorf("duplicate code = %d, want 409", appErr.HTTPCode)
	}
}

func TestTagOwnerScoping(t *testing.T) {
	svc, tags := newTagServiceForTest()
	owner := Actor{User: models.User{ID: uuid.New()}}
	ctx := context.Background()

	tag, err := svc.CreateTag(ctx, owner, TagInput{Name: "mine"})
	if err != nil {
		t.Fatalf("CreateTag: %v", err)
	}

	stranger := Actor{User: models.User{ID: uuid.New()}}
	if err := svc.DeleteTag(ctx, stranger, tag.ID); err == nil {
		t.Error("stranger deleted another owner's tag")
	}
	if _, err := svc.UpdateTag(ctx, stranger, tag.ID, TagInput{Name: "stolen"}); err == nil {
		t.Error("stranger updated another owner's tag")
	}

	admin := Actor{User: models.User{ID: uuid.New(), IsSuperuser: true}}
	if _, err := svc.UpdateTag(ctx, admin, tag.ID, TagInput{Name: "renamed"}); err != nil {
		t.Errorf("superuser update failed: %v", err)
	}

	groupID := uuid.New()
	groupTag := models.Tag{ID: uuid.New(), Name: "shared", OwnerType: models.OwnerTypeGroup, OwnerID: groupID}
	tags.tags[groupTag.ID] = groupTag
	member := Actor{User: models.User{ID: uuid.New()}, GroupIDs: []uuid.UUID{groupID}}
	if _, err := svc.UpdateTag(ctx, member, groupTag.ID, TagInput{Name: "shared"}); err != nil {
		t.Errorf("group member update failed: %v", err)
	}

	if err := svc.DeleteTag(ctx, owner, tag.ID); err != nil {
		t.Errorf("owner delete failed: %v", err)
	}
	if _, ok := tags.tags[tag.ID]; ok {
		t.Error("tag not deleted")
	}
}

func TestListTagsOwnedOnly(t *testing.T) {
	svc, tags := newTagServiceForTest()
	actor := Actor{User: models.User{ID: uuid.New()}}
	ctx := context.Background()

	if _, err := svc.CreateTag(ctx, actor, TagInput{Name: "a"}); err != nil {
		t.Fatalf("CreateTag: %v", err)
	}
	other := models.Tag{ID: uuid.New(), Name: "b", OwnerType: models.OwnerTypeUser, OwnerID: uuid.New()}
	tags.tags[other.ID] = other

	got, err := svc.ListTags(ctx, actor)
	if err != nil {
		t.Fatalf("ListTags: %v", err)
	}
	if len(got) != 1 || got[0].Name != "a" {
		t.Errorf("got = %+v", got)
	}
}
