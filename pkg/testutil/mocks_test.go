package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aaronromeo.com/triager/internal/mailbox"
)

func TestFakeMailboxQuery(t *testing.T) {
	ctx := context.Background()
	fake := NewFakeMailbox("me@example.com")
	fake.AddLabel("Label_9", "AI Processed")
	fake.AddMessage(&mailbox.RawMessage{ID: "new", LabelIDs: []string{"INBOX"}, InternalDate: 2_000_000})
	fake.AddMessage(&mailbox.RawMessage{ID: "old", LabelIDs: []string{"INBOX"}, InternalDate: 500_000})
	fake.AddMessage(&mailbox.RawMessage{ID: "done", LabelIDs: []string{"INBOX", "Label_9"}, InternalDate: 2_000_000})
	fake.AddMessage(&mailbox.RawMessage{ID: "archived", InternalDate: 2_000_000})

	ids, err := fake.ListMessageIDs(ctx, `label:INBOX -label:"AI Processed" after:1000`, 50)
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, ids)
	assert.Equal(t, []string{`label:INBOX -label:"AI Processed" after:1000`}, fake.Queries)
}

func TestFakeMailboxModifyRejectsUnknownLabel(t *testing.T) {
	ctx := context.Background()
	fake := NewFakeMailbox("me@example.com")
	fake.AddMessage(&mailbox.RawMessage{ID: "m1", LabelIDs: []string{"INBOX", "UNREAD"}})

	assert.Error(t, fake.ModifyLabels(ctx, "m1", []string{"Label_404"}, nil))
	require.NoError(t, fake.ModifyLabels(ctx, "m1", nil, []string{"INBOX", "UNREAD"}))
	assert.False(t, fake.HasLabel("m1", "INBOX"))
	assert.Len(t, fake.ModifyCalls, 2)
}

func TestFakeMailboxCreateLabelConflict(t *testing.T) {
	ctx := context.Background()
	fake := NewFakeMailbox("me@example.com")

	created, err := fake.CreateLabel(ctx, mailbox.Label{Name: "Travel"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	_, err = fake.CreateLabel(ctx, mailbox.Label{Name: "travel"})
	assert.ErrorIs(t, err, mailbox.ErrConflict)
}

func TestFakeStorage(t *testing.T) {
	ctx := context.Background()
	store := NewFakeStorage()
	misc := store.AddFolder("root", "Misc")

	id, found, err := store.FindFolder(ctx, "root", "Misc")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, misc, id)

	_, err = store.Upload(ctx, misc, "a.txt", "text/plain", []byte("x"))
	require.NoError(t, err)
	assert.Len(t, store.FilesIn(misc), 1)
}
