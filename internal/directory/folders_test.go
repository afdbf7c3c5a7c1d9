package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"aaronromeo.com/triager/internal/category"
	"aaronromeo.com/triager/pkg/mock"
	"aaronromeo.com/triager/pkg/testutil"
)

func TestResolveCategoryPrefersCategoryFolder(t *testing.T) {
	store := testutil.NewFakeStorage()
	accounting := store.AddFolder("root", "Accounting")
	folders := NewFolders(store, mock.SetupLogger(t))

	got := folders.ResolveCategory(context.Background(), "root", category.Of(category.Accounting))
	assert.Equal(t, accounting, got)
	assert.Empty(t, store.CreatedFolders)
}

func TestResolveCategoryCreatesMisc(t *testing.T) {
	store := testutil.NewFakeStorage()
	folders := NewFolders(store, mock.SetupLogger(t))
	ctx := context.Background()

	got := folders.ResolveCategory(ctx, "root", category.Custom("Travel"))
	assert.NotEqual(t, "root", got)
	assert.Equal(t, []string{"Misc"}, store.CreatedFolders)

	// Cached for the rest of the cycle.
	again := folders.ResolveCategory(ctx, "root", category.Custom("Travel"))
	assert.Equal(t, got, again)
	assert.Len(t, store.CreatedFolders, 1)
}

func TestResolveCategoryFallsBackToRoot(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mock.NewMockStorage(ctrl)
	store.EXPECT().FindFolder(gomock.Any(), "root", "Social").Return("", false, nil)
	store.EXPECT().FindFolder(gomock.Any(), "root", "Misc").Return("", false, errors.New("drive down"))

	folders := NewFolders(store, mock.SetupLogger(t))
	got := folders.ResolveCategory(context.Background(), "root", category.Of(category.Social))
	assert.Equal(t, "root", got)
}

func TestResolveCategoryLooksUpMiscOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mock.NewMockStorage(ctrl)
	store.EXPECT().FindFolder(gomock.Any(), "root", "Misc").Return("", false, errors.New("drive down")).Times(1)

	folders := NewFolders(store, mock.SetupLogger(t))
	got := folders.ResolveCategory(context.Background(), "root", category.Of(category.Misc))
	assert.Equal(t, "root", got)
}

func TestResolveDoesNotCreateOtherFolders(t *testing.T) {
	store := testutil.NewFakeStorage()
	folders := NewFolders(store, mock.SetupLogger(t))

	_, err := folders.Resolve(context.Background(), "root", "Social")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFolderNotFound))
	assert.Empty(t, store.CreatedFolders)
}
