package directory

import (
	"context"
	"log/slog"
	"strings"

	"github.com/pkg/errors"

	"aaronromeo.com/triager/internal/category"
	"aaronromeo.com/triager/internal/storage"
)

// MiscFolder is the only folder created on demand.
const MiscFolder = "Misc"

// ErrFolderNotFound is returned when a folder does not exist and may not be
// created.
var ErrFolderNotFound = errors.New("folder not found")

// Folders resolves archive folder names under a parent folder.
type Folders struct {
	store  storage.Service
	cache  map[string]string
	logger *slog.Logger
}

func NewFolders(store storage.Service, logger *slog.Logger) *Folders {
	if logger == nil {
		logger = slog.Default()
	}
	return &Folders{
		store:  store,
		cache:  map[string]string{},
		logger: logger,
	}
}

func folderKey(parent, name string) string {
	return parent + "\x00" + name
}

// Resolve finds a child folder of parent by name. Only the Misc folder is
// created when missing.
func (f *Folders) Resolve(ctx context.Context, parent, name string) (string, error) {
	key := folderKey(parent, name)
	if id, ok := f.cache[key]; ok {
		return id, nil
	}
	id, found, err := f.store.FindFolder(ctx, parent, name)
	if err != nil {
		return "", errors.Wrapf(err, "find folder %q", name)
	}
	if !found {
		if !strings.EqualFold(name, MiscFolder) {
			return "", errors.Wrapf(ErrFolderNotFound, "folder %q", name)
		}
		id, err = f.store.CreateFolder(ctx, parent, name)
		if err != nil {
			return "", errors.Wrapf(err, "create folder %q", name)
		}
		f.logger.Info("created folder", slog.String("folder", name), slog.String("id", id))
	}
	f.cache[key] = id
	return id, nil
}

// ResolveCategory picks the archive folder for a category: the category's own
// folder, else Misc, else the root itself.
func (f *Folders) ResolveCategory(ctx context.Context, root string, cat category.Category) string {
	names := []string{cat.Name()}
	if !strings.EqualFold(cat.Name(), MiscFolder) {
		names = append(names, MiscFolder)
	}
	for _, name := range names {
		id, err := f.Resolve(ctx, root, name)
		if err == nil {
			return id
		}
		if !errors.Is(err, ErrFolderNotFound) {
			f.logger.Warn("folder lookup failed", slog.String("folder", name), slog.Any("error", err))
		}
	}
	return root
}
