package testutil

import (
	"context"
	"fmt"
	"sync"
)

// StoredFile is one uploaded file.
type StoredFile struct {
	ID       string
	Parent   string
	Name     string
	MimeType string
	Data     []byte
}

type fakeFolder struct {
	id     string
	parent string
	name   string
}

// FakeStorage is an in-memory storage.Service.
type FakeStorage struct {
	mu sync.Mutex

	folders []fakeFolder
	Files   []StoredFile

	UploadFunc     func(ctx context.Context, parent, name, mimeType string, data []byte) (string, error)
	FindFolderFunc func(ctx context.Context, parent, name string) (string, bool, error)

	CreatedFolders []string
	next           int
}

func NewFakeStorage() *FakeStorage {
	return &FakeStorage{}
}

// AddFolder registers an existing folder and returns its id.
func (s *FakeStorage) AddFolder(parent, name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addFolder(parent, name)
}

func (s *FakeStorage) addFolder(parent, name string) string {
	s.next++
	id := fmt.Sprintf("folder-%d", s.next)
	s.folders = append(s.folders, fakeFolder{id: id, parent: parent, name: name})
	return id
}

// FilesIn returns the files uploaded into folder id.
func (s *FakeStorage) FilesIn(folder string) []StoredFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []StoredFile
	for _, f := range s.Files {
		if f.Parent == folder {
			out = append(out, f)
		}
	}
	return out
}

func (s *FakeStorage) FindFolder(ctx context.Context, parent, name string) (string, bool, error) {
	if s.FindFolderFunc != nil {
		return s.FindFolderFunc(ctx, parent, name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.folders {
		if f.parent == parent && f.name == name {
			return f.id, true, nil
		}
	}
	return "", false, nil
}

func (s *FakeStorage) CreateFolder(_ context.Context, parent, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CreatedFolders = append(s.CreatedFolders, name)
	return s.addFolder(parent, name), nil
}

func (s *FakeStorage) Upload(ctx context.Context, parent, name, mimeType string, data []byte) (string, error) {
	if s.UploadFunc != nil {
		return s.UploadFunc(ctx, parent, name, mimeType, data)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	id := fmt.Sprintf("file-%d", s.next)
	s.Files = append(s.Files, StoredFile{ID: id, Parent: parent, Name: name, MimeType: mimeType, Data: data})
	return id, nil
}
