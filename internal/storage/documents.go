// Package storage writes submitted application documents to disk.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DocumentStorage persists one document and returns its storage path.
type DocumentStorage interface {
	Save(ctx context.Context, applicationID, field, filename string, data []byte) (string, error)
	Remove(ctx context.Context, path string) error
}

// LocalStorage keeps documents under baseDir/<applicationID>/<field><ext>.
type LocalStorage struct {
	baseDir string
}

func NewLocalStorage(baseDir string) *LocalStorage {
	return &LocalStorage{baseDir: baseDir}
}

func (s *LocalStorage) Save(ctx context.Context, applicationID, field, filename string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !safeSegment(applicationID) || !safeSegment(field) {
		return "", fmt.Errorf("invalid document path segment %q/%q", applicationID, field)
	}

	dir := filepath.Join(s.baseDir, applicationID)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create document dir: %w", err)
	}
	path := filepath.Join(dir, field+strings.ToLower(filepath.Ext(filename)))
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return "", fmt.Errorf("write document: %w", err)
	}
	return path, nil
}

// Remove deletes a stored document. A missing file is not an error.
func (s *LocalStorage) Remove(_ context.Context, path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove document: %w", err)
	}
	return nil
}

func safeSegment(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`)
}
