// Package storage holds the attachment archive backends.
package storage

import "context"

// FolderMimeType marks Drive files that are folders.
const FolderMimeType = "application/vnd.google-apps.folder"

// Service is a hierarchical file store addressed by opaque folder ids.
//
//go:generate mockgen -destination=../../pkg/mock/storage_service.go -package=mock -mock_names=Service=MockStorage . Service
type Service interface {
	// FindFolder looks up a direct child folder of parent by exact name.
	FindFolder(ctx context.Context, parent, name string) (id string, found bool, err error)
	CreateFolder(ctx context.Context, parent, name string) (string, error)
	Upload(ctx context.Context, parent, name, mimeType string, data []byte) (string, error)
}
