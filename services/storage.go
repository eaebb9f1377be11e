package services

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ShardedPath derives the deterministic object path for a version id:
// first-two-hex/next-two-hex/full-uuid. Signed-URL emitters and workers
// reconstruct the same path from the id alone.
func ShardedPath(id uuid.UUID) string {
	hex := id.String()
	return filepath.Join(hex[0:2], hex[2:4], hex)
}

// BlobStore persists uploaded version content. The local backend writes
// under the media root; s3/r2 backends are provided by the upload
// collaborator and share the same path contract.
type BlobStore interface {
	Put(versionID uuid.UUID, fileName string, content []byte) (string, error)
	FullPath(versionID uuid.UUID, fileName string) string
}

type localBlobStore struct {
	root string
}

func NewLocalBlobStore(root string) BlobStore {
	return &localBlobStore{root: root}
}

func (s *localBlobStore) FullPath(versionID uuid.UUID, fileName string) string {
	return filepath.Join(s.root, "docvers", ShardedPath(versionID), fileName)
}

func (s *localBlobStore) Put(versionID uuid.UUID, fileName string, content []byte) (string, error) {
	path := s.FullPath(versionID, fileName)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create blob dir: %w", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}
	return path, nil
}
