// Package archiver copies message attachments into the archive store.
package archiver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/pkg/errors"

	"aaronromeo.com/triager/internal/category"
	"aaronromeo.com/triager/internal/directory"
	"aaronromeo.com/triager/internal/mailbox"
	"aaronromeo.com/triager/internal/storage"
)

const maxSenderLen = 20

// ArchiveError reports one attachment that could not be archived.
type ArchiveError struct {
	MessageID string
	Filename  string
	Err       error
}

func (e *ArchiveError) Error() string {
	return fmt.Sprintf("archive %q from %s: %v", e.Filename, e.MessageID, e.Err)
}

func (e *ArchiveError) Unwrap() error {
	return e.Err
}

// Result counts archived attachments.
type Result struct {
	Saved  int
	Failed int
}

// Archiver stores attachments under the root folder.
type Archiver struct {
	mail    mailbox.Service
	store   storage.Service
	folders *directory.Folders
	root    string
	logger  *slog.Logger
}

type Option func(*Archiver)

func WithLogger(logger *slog.Logger) Option {
	return func(a *Archiver) {
		a.logger = logger
	}
}

// WithStore enables archiving into root. Without it Archive does nothing.
func WithStore(store storage.Service, folders *directory.Folders, root string) Option {
	return func(a *Archiver) {
		a.store = store
		a.folders = folders
		a.root = root
	}
}

func New(mail mailbox.Service, opts ...Option) (*Archiver, error) {
	if mail == nil {
		return nil, errors.New("requires mailbox service")
	}
	a := &Archiver{
		mail:   mail,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.store != nil && a.folders == nil {
		a.folders = directory.NewFolders(a.store, a.logger)
	}
	return a, nil
}

// Enabled reports whether a store and root folder are configured.
func (a *Archiver) Enabled() bool {
	return a.store != nil && strings.TrimSpace(a.root) != ""
}

// Archive uploads every attachment of msg into the category's folder. Failures
// are per attachment and never stop the others.
func (a *Archiver) Archive(ctx context.Context, msg mailbox.Message, cat category.Category, senderName, dateStamp string) Result {
	var res Result
	if !a.Enabled() {
		return res
	}
	parts := Attachments(msg.Payload)
	if len(parts) == 0 {
		return res
	}

	folder := a.folders.ResolveCategory(ctx, a.root, cat)
	sender := SanitizeSender(senderName)
	for _, part := range parts {
		name := FileName(dateStamp, sender, part.Filename)
		if err := a.archiveOne(ctx, msg.ID, folder, name, part); err != nil {
			res.Failed++
			a.logger.Warn("attachment not archived",
				slog.String("message_id", msg.ID),
				slog.Any("error", &ArchiveError{MessageID: msg.ID, Filename: part.Filename, Err: err}))
			continue
		}
		res.Saved++
		a.logger.Info("attachment archived",
			slog.String("message_id", msg.ID),
			slog.String("file", name),
			slog.String("category", cat.Name()))
	}
	return res
}

func (a *Archiver) archiveOne(ctx context.Context, messageID, folder, name string, part *mailbox.Part) error {
	data, err := a.mail.GetAttachment(ctx, messageID, part.AttachmentID)
	if err != nil {
		return errors.Wrap(err, "download")
	}
	if _, err := a.store.Upload(ctx, folder, name, part.MimeType, data); err != nil {
		return errors.Wrap(err, "upload")
	}
	return nil
}

// Attachments returns every part in the tree that has both a filename and a
// downloadable attachment id, in document order.
func Attachments(root *mailbox.Part) []*mailbox.Part {
	var out []*mailbox.Part
	var walk func(p *mailbox.Part)
	walk = func(p *mailbox.Part) {
		if p == nil {
			return
		}
		if p.Filename != "" && p.AttachmentID != "" {
			out = append(out, p)
		}
		for _, child := range p.Parts {
			walk(child)
		}
	}
	walk(root)
	return out
}

// SanitizeSender keeps letters, digits, space, '.', '_' and '-', trims the
// result and cuts it to 20 characters.
func SanitizeSender(name string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '.' || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}
	clean := strings.TrimSpace(b.String())
	runes := []rune(clean)
	if len(runes) > maxSenderLen {
		clean = string(runes[:maxSenderLen])
	}
	return clean
}

// FileName is the stored name of an attachment.
func FileName(dateStamp, sender, filename string) string {
	return fmt.Sprintf("%s-%s-%s", dateStamp, sender, filename)
}
