// Package dispatcher performs the mailbox action that belongs to a category.
package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pkg/errors"

	"aaronromeo.com/triager/internal/category"
	"aaronromeo.com/triager/internal/directory"
	"aaronromeo.com/triager/internal/mailbox"
)

// Action is what happens to a message after classification.
type Action int

const (
	ActionLabel Action = iota
	ActionArchive
	ActionForward
	ActionDraftReply
)

func (a Action) String() string {
	switch a {
	case ActionArchive:
		return "archive"
	case ActionForward:
		return "forward"
	case ActionDraftReply:
		return "draft_reply"
	default:
		return "label"
	}
}

// Route maps a category to its action.
func Route(c category.Category) Action {
	fixed, ok := c.Fixed()
	if !ok {
		return ActionLabel
	}
	switch fixed {
	case category.Social, category.Promotional:
		return ActionArchive
	case category.Accounting:
		return ActionForward
	case category.Personal, category.Primary:
		return ActionDraftReply
	case category.Misc, category.Sales, category.Recruitment:
		return ActionLabel
	default:
		return ActionLabel
	}
}

var systemSenders = []string{"daemon", "noreply"}

// IsSelfOrSystem reports whether the sender is the mailbox owner or an
// automated system address. Such messages are never acted upon.
func IsSelfOrSystem(sender, ownAddress string) bool {
	s := strings.ToLower(sender)
	if own := strings.ToLower(strings.TrimSpace(ownAddress)); own != "" && strings.Contains(s, own) {
		return true
	}
	for _, marker := range systemSenders {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}

// ErrNoLabel means neither the category label nor the Misc label could be
// resolved, so the message was left unlabelled.
var ErrNoLabel = errors.New("no label to apply")

// ActionError reports a failed category action.
type ActionError struct {
	Action    Action
	MessageID string
	Err       error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Action, e.MessageID, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// Replier drafts reply bodies.
type Replier interface {
	DraftReply(ctx context.Context, subject, body string) string
}

// Dispatcher applies the routed action to a message.
type Dispatcher struct {
	mail       mailbox.Service
	labels     *directory.Labels
	replier    Replier
	accounting string
	logger     *slog.Logger
}

type Option func(*Dispatcher)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithAccountingAddress sets where accounting mail is forwarded. When unset
// the mailbox owner's address passed to Dispatch is used.
func WithAccountingAddress(addr string) Option {
	return func(d *Dispatcher) {
		d.accounting = strings.TrimSpace(addr)
	}
}

func New(mail mailbox.Service, labels *directory.Labels, replier Replier, opts ...Option) (*Dispatcher, error) {
	if mail == nil {
		return nil, errors.New("requires mailbox service")
	}
	if labels == nil {
		return nil, errors.New("requires label directory")
	}
	if replier == nil {
		return nil, errors.New("requires replier")
	}
	d := &Dispatcher{
		mail:    mail,
		labels:  labels,
		replier: replier,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Dispatch runs the action for cat and returns which action it was.
func (d *Dispatcher) Dispatch(ctx context.Context, msg mailbox.Message, cat category.Category, ownAddress string) (Action, error) {
	action := Route(cat)
	var err error
	switch action {
	case ActionArchive:
		err = d.mail.ModifyLabels(ctx, msg.ID, nil, []string{mailbox.LabelInbox, mailbox.LabelUnread})
	case ActionForward:
		err = d.forward(ctx, msg, ownAddress)
	case ActionDraftReply:
		err = d.draftReply(ctx, msg)
	default:
		err = d.label(ctx, msg, cat)
	}
	if err != nil {
		return action, &ActionError{Action: action, MessageID: msg.ID, Err: err}
	}
	d.logger.Info("action applied",
		slog.String("message_id", msg.ID),
		slog.String("category", cat.Name()),
		slog.String("action", action.String()))
	return action, nil
}

func (d *Dispatcher) forward(ctx context.Context, msg mailbox.Message, ownAddress string) error {
	to := d.accounting
	if to == "" {
		to = ownAddress
	}
	raw, err := mailbox.Forward(to, msg.Subject, msg.Body)
	if err != nil {
		return err
	}
	return d.mail.SendRaw(ctx, raw)
}

func (d *Dispatcher) draftReply(ctx context.Context, msg mailbox.Message) error {
	body := d.replier.DraftReply(ctx, msg.Subject, msg.Body)
	raw, err := mailbox.Reply(msg.From, msg.Subject, body, msg.MessageID)
	if err != nil {
		return err
	}
	return d.mail.CreateDraft(ctx, raw, msg.ThreadID)
}

func (d *Dispatcher) label(ctx context.Context, msg mailbox.Message, cat category.Category) error {
	id, err := d.labels.Resolve(ctx, cat.Name())
	if err != nil {
		misc, ok := d.labels.Cached(category.Of(category.Misc).Name())
		if !ok {
			return errors.Wrapf(ErrNoLabel, "%s: %v", cat.Name(), err)
		}
		d.logger.Warn("falling back to misc label",
			slog.String("message_id", msg.ID),
			slog.String("category", cat.Name()),
			slog.Any("error", err))
		id = misc
	}
	return d.mail.ModifyLabels(ctx, msg.ID, []string{id}, nil)
}
