package mailbox

import (
	"context"
	"strings"
)

// System label ids understood by the mailbox service.
const (
	LabelInbox  = "INBOX"
	LabelUnread = "UNREAD"
)

// Label visibility values.
const (
	LabelShow       = "labelShow"
	MessageShow     = "show"
	MessageHide     = "hide"
	DefaultUserName = "me"
)

// Header is a single message header.
type Header struct {
	Name  string
	Value string
}

// Part is one node of a message's MIME tree as returned by the mailbox
// service. Data is base64url encoded; AttachmentID is set for parts whose
// payload has to be downloaded separately.
type Part struct {
	MimeType     string
	Filename     string
	Headers      []Header
	Data         string
	AttachmentID string
	Size         int64
	Parts        []*Part
}

// Header returns the first header value matching name, case-insensitively.
func (p *Part) Header(name string) string {
	if p == nil {
		return ""
	}
	for _, h := range p.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// RawMessage is a message as fetched from the mailbox, before extraction.
type RawMessage struct {
	ID           string
	ThreadID     string
	LabelIDs     []string
	InternalDate int64
	Payload      *Part
}

// Message is the read-only view of a fetched message used by the pipeline.
type Message struct {
	ID        string
	ThreadID  string
	MessageID string
	From      string
	Subject   string
	Date      string
	DateStamp string
	Body      string
	Payload   *Part
}

// Label is a remote label.
type Label struct {
	ID                    string
	Name                  string
	LabelListVisibility   string
	MessageListVisibility string
}

// Service is the subset of the remote mailbox API the triage pipeline uses.
//
//go:generate mockgen -destination=../../pkg/mock/mailbox_service.go -package=mock . Service
type Service interface {
	ListMessageIDs(ctx context.Context, query string, max int64) ([]string, error)
	GetMessage(ctx context.Context, id string) (*RawMessage, error)
	ModifyLabels(ctx context.Context, id string, add, remove []string) error
	ListLabels(ctx context.Context) ([]Label, error)
	CreateLabel(ctx context.Context, label Label) (Label, error)
	SendRaw(ctx context.Context, raw []byte) error
	CreateDraft(ctx context.Context, raw []byte, threadID string) error
	GetAttachment(ctx context.Context, messageID, attachmentID string) ([]byte, error)
	Profile(ctx context.Context) (string, error)
}
