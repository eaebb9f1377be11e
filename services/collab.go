package services

import (
	"context"
	"encoding/json"
	"time"

	"papermerge/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Queue names consumed by the out-of-band workers.
const (
	ocrQueue     = "ocr:tasks"
	previewQueue = "preview:tasks"
	convertQueue = "convert:tasks"
)

// CollabDispatcher hands work to the external collaborators (OCR,
// preview generation, PDF conversion). The core never performs that work
// itself; it only enqueues and later observes status columns the workers
// advance.
type CollabDispatcher interface {
	EnqueueOCR(ctx context.Context, documentID uuid.UUID, lang string) error
	EnqueuePreview(ctx context.Context, documentID uuid.UUID) error
	EnqueuePDFConversion(ctx context.Context, documentID uuid.UUID, versionID uuid.UUID) error
}

type redisDispatcher struct {
	client *redis.Client
}

func NewRedisDispatcher(client *redis.Client) CollabDispatcher {
	return &redisDispatcher{client: client}
}

type collabTask struct {
	DocumentID uuid.UUID `json:"document_id"`
	VersionID  uuid.UUID `json:"version_id,omitempty"`
	Lang       string    `json:"lang,omitempty"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

func (d *redisDispatcher) push(ctx context.Context, queue string, task collabTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}
	if err := d.client.LPush(ctx, queue, payload).Err(); err != nil {
		return err
	}
	logger.Debugf("enqueued %s task for document %s", queue, task.DocumentID)
	return nil
}

func (d *redisDispatcher) EnqueueOCR(ctx context.Context, documentID uuid.UUID, lang string) error {
	return d.push(ctx, ocrQueue, collabTask{DocumentID: documentID, Lang: lang, EnqueuedAt: nowUTC()})
}

func (d *redisDispatcher) EnqueuePreview(ctx context.Context, documentID uuid.UUID) error {
	return d.push(ctx, previewQueue, collabTask{DocumentID: documentID, EnqueuedAt: nowUTC()})
}

func (d *redisDispatcher) EnqueuePDFConversion(ctx context.Context, documentID, versionID uuid.UUID) error {
	return d.push(ctx, convertQueue, collabTask{DocumentID: documentID, VersionID: versionID, EnqueuedAt: nowUTC()})
}
