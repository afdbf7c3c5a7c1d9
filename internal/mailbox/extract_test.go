package mailbox

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func b64(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func TestPlainTextBody(t *testing.T) {
	cases := []struct {
		name    string
		payload *Part
		want    string
	}{
		{
			name:    "nil payload",
			payload: nil,
			want:    "",
		},
		{
			name:    "leaf without mime type",
			payload: &Part{Data: b64("hello")},
			want:    "hello",
		},
		{
			name:    "leaf text/plain with charset",
			payload: &Part{MimeType: "text/plain; charset=UTF-8", Data: b64("hi there")},
			want:    "hi there",
		},
		{
			name:    "single part html is decoded",
			payload: &Part{MimeType: "text/html", Data: b64("<p>hi</p>")},
			want:    "<p>hi</p>",
		},
		{
			name: "multipart concatenates plain parts",
			payload: &Part{
				MimeType: "multipart/mixed",
				Parts: []*Part{
					{
						MimeType: "multipart/alternative",
						Parts: []*Part{
							{MimeType: "text/plain", Data: b64("first ")},
							{MimeType: "text/html", Data: b64("<b>first</b>")},
						},
					},
					{MimeType: "text/plain", Data: b64("second")},
					{MimeType: "text/plain", Filename: "notes.txt", AttachmentID: "att-1"},
				},
			},
			want: "first second",
		},
		{
			name: "multipart without plain text",
			payload: &Part{
				MimeType: "multipart/alternative",
				Parts:    []*Part{{MimeType: "text/html", Data: b64("<p>x</p>")}},
			},
			want: "",
		},
		{
			name:    "unpadded base64url",
			payload: &Part{MimeType: "text/plain", Data: base64.RawURLEncoding.EncodeToString([]byte("ab"))},
			want:    "ab",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, PlainTextBody(tc.payload))
		})
	}
}

func TestExtract(t *testing.T) {
	raw := &RawMessage{
		ID:       "m1",
		ThreadID: "t1",
		Payload: &Part{
			MimeType: "text/plain",
			Data:     b64("Body text"),
			Headers: []Header{
				{Name: "from", Value: "Jane Q. Public <jane@example.com>"},
				{Name: "Subject", Value: "Invoice"},
				{Name: "Date", Value: "Fri, 01 Mar 2024 10:00:00 +0000"},
				{Name: "Message-ID", Value: "<abc@example.com>"},
			},
		},
	}

	msg := Extract(raw)
	assert.Equal(t, "m1", msg.ID)
	assert.Equal(t, "t1", msg.ThreadID)
	assert.Equal(t, "Jane Q. Public <jane@example.com>", msg.From)
	assert.Equal(t, "Invoice", msg.Subject)
	assert.Equal(t, "2024-03-01", msg.DateStamp)
	assert.Equal(t, "<abc@example.com>", msg.MessageID)
	assert.Equal(t, "Body text", msg.Body)
}

func TestExtractMissingHeaders(t *testing.T) {
	msg := Extract(&RawMessage{ID: "m1", Payload: &Part{MimeType: "text/html"}})
	assert.Equal(t, "", msg.From)
	assert.Equal(t, "", msg.Subject)
	assert.Equal(t, "", msg.Body)
}

func TestDateStamp(t *testing.T) {
	assert.Equal(t, "2024-03-01", DateStamp("Fri, 1 Mar 2024 23:30:00 +0000", 0))
	// 2024-03-02T00:00:00Z
	assert.Equal(t, "2024-03-02", DateStamp("", 1709337600000))
	assert.Equal(t, "not a dat", DateStamp("not a dat", 0))
	assert.Equal(t, "2024-03-01", DateStamp("2024-03-01 garbage", 0))
}

func TestSenderNameAndAddress(t *testing.T) {
	assert.Equal(t, "Jane Q Public", SenderName("Jane Q Public <jane@example.com>"))
	assert.Equal(t, "jane@example.com", SenderName("jane@example.com"))
	assert.Equal(t, "not an address", SenderName("  not an address "))

	assert.Equal(t, "jane@example.com", SenderAddress("Jane <Jane@Example.com>"))
	assert.Equal(t, "garbage", SenderAddress("Garbage"))
}

type getOnly struct {
	Service
	raw *RawMessage
	err error
}

func (g getOnly) GetMessage(context.Context, string) (*RawMessage, error) {
	return g.raw, g.err
}

func TestFetchWrapsErrors(t *testing.T) {
	boom := errors.New("boom")
	_, err := Fetch(context.Background(), getOnly{err: boom}, "m9")
	require.Error(t, err)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "m9", fetchErr.ID)
	assert.ErrorIs(t, err, boom)
	assert.True(t, strings.Contains(err.Error(), "m9"))
}

func TestIsConflict(t *testing.T) {
	assert.False(t, IsConflict(nil))
	assert.True(t, IsConflict(ErrConflict))
	assert.True(t, IsConflict(errors.New("googleapi: Error 409: Label name exists or conflicts")))
	assert.True(t, IsConflict(errors.New("label already exists")))
	assert.False(t, IsConflict(errors.New("googleapi: Error 500: backend error")))
}
