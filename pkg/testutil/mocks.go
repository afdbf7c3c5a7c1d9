// Package testutil provides in-memory mailbox and storage fakes shared by the
// pipeline tests. Behaviour can be overridden per method through the XxxFunc
// fields, and calls are recorded for verification.
package testutil

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"aaronromeo.com/triager/internal/mailbox"
)

// ModifyCall records one ModifyLabels call.
type ModifyCall struct {
	ID     string
	Add    []string
	Remove []string
}

// Draft records one CreateDraft call.
type Draft struct {
	Raw      []byte
	ThreadID string
}

// FakeMailbox is an in-memory mailbox.Service that understands the subset of
// the search syntax the pipeline uses: label:X, -label:"X" and after:N.
type FakeMailbox struct {
	mu sync.Mutex

	Address     string
	Messages    map[string]*mailbox.RawMessage
	Labels      []mailbox.Label
	Attachments map[string][]byte

	ListMessageIDsFunc func(ctx context.Context, query string, max int64) ([]string, error)
	GetMessageFunc     func(ctx context.Context, id string) (*mailbox.RawMessage, error)
	ModifyLabelsFunc   func(ctx context.Context, id string, add, remove []string) error
	CreateLabelFunc    func(ctx context.Context, label mailbox.Label) (mailbox.Label, error)
	SendRawFunc        func(ctx context.Context, raw []byte) error
	CreateDraftFunc    func(ctx context.Context, raw []byte, threadID string) error
	ProfileFunc        func(ctx context.Context) (string, error)

	// Track method calls for verification
	Queries       []string
	ModifyCalls   []ModifyCall
	CreatedLabels []mailbox.Label
	Sent          [][]byte
	Drafts        []Draft

	nextLabel int
}

// NewFakeMailbox creates a mailbox owned by address.
func NewFakeMailbox(address string) *FakeMailbox {
	return &FakeMailbox{
		Address:     address,
		Messages:    map[string]*mailbox.RawMessage{},
		Attachments: map[string][]byte{},
	}
}

// AddMessage stores a message; the caller sets its labels and payload.
func (f *FakeMailbox) AddMessage(msg *mailbox.RawMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Messages[msg.ID] = msg
}

// AddLabel registers an existing user label.
func (f *FakeMailbox) AddLabel(id, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Labels = append(f.Labels, mailbox.Label{ID: id, Name: name})
}

// AddAttachment registers downloadable attachment bytes.
func (f *FakeMailbox) AddAttachment(messageID, attachmentID string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Attachments[messageID+"/"+attachmentID] = data
}

// HasLabel reports whether message id carries label id.
func (f *FakeMailbox) HasLabel(id, labelID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.Messages[id]
	if !ok {
		return false
	}
	for _, l := range msg.LabelIDs {
		if l == labelID {
			return true
		}
	}
	return false
}

// LabelID returns the id of a label by name, case-insensitively.
func (f *FakeMailbox) LabelID(name string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.labelID(name)
}

func (f *FakeMailbox) labelID(name string) (string, bool) {
	switch strings.ToUpper(name) {
	case mailbox.LabelInbox, mailbox.LabelUnread:
		return strings.ToUpper(name), true
	}
	for _, l := range f.Labels {
		if strings.EqualFold(l.Name, name) {
			return l.ID, true
		}
	}
	return "", false
}

func (f *FakeMailbox) labelExists(id string) bool {
	if id == mailbox.LabelInbox || id == mailbox.LabelUnread {
		return true
	}
	for _, l := range f.Labels {
		if l.ID == id {
			return true
		}
	}
	return false
}

var queryTerm = regexp.MustCompile(`(-?)(label|after):("([^"]*)"|\S+)`)

type queryFilter func(msg *mailbox.RawMessage) bool

func (f *FakeMailbox) parseQuery(query string) ([]queryFilter, error) {
	var filters []queryFilter
	for _, m := range queryTerm.FindAllStringSubmatch(query, -1) {
		negate := m[1] == "-"
		value := m[3]
		if m[4] != "" {
			value = m[4]
		}
		switch m[2] {
		case "label":
			id, ok := f.labelID(value)
			filters = append(filters, func(msg *mailbox.RawMessage) bool {
				has := ok && containsString(msg.LabelIDs, id)
				return has != negate
			})
		case "after":
			after, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid after: %q", value)
			}
			filters = append(filters, func(msg *mailbox.RawMessage) bool {
				return (msg.InternalDate/1000 > after) != negate
			})
		}
	}
	return filters, nil
}

func containsString(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

func (f *FakeMailbox) ListMessageIDs(ctx context.Context, query string, max int64) ([]string, error) {
	f.mu.Lock()
	f.Queries = append(f.Queries, query)
	fn := f.ListMessageIDsFunc
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, query, max)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	filters, err := f.parseQuery(query)
	if err != nil {
		return nil, err
	}
	var matched []*mailbox.RawMessage
	for _, msg := range f.Messages {
		ok := true
		for _, filter := range filters {
			if !filter(msg) {
				ok = false
				break
			}
		}
		if ok {
			matched = append(matched, msg)
		}
	}
	// Newest first, like the real API.
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].InternalDate == matched[j].InternalDate {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].InternalDate > matched[j].InternalDate
	})
	var ids []string
	for _, msg := range matched {
		if max > 0 && int64(len(ids)) >= max {
			break
		}
		ids = append(ids, msg.ID)
	}
	return ids, nil
}

func (f *FakeMailbox) GetMessage(ctx context.Context, id string) (*mailbox.RawMessage, error) {
	if f.GetMessageFunc != nil {
		return f.GetMessageFunc(ctx, id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.Messages[id]
	if !ok {
		return nil, errors.Wrapf(mailbox.ErrNotFound, "message %s", id)
	}
	return msg, nil
}

func (f *FakeMailbox) ModifyLabels(ctx context.Context, id string, add, remove []string) error {
	f.mu.Lock()
	f.ModifyCalls = append(f.ModifyCalls, ModifyCall{ID: id, Add: add, Remove: remove})
	fn := f.ModifyLabelsFunc
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, id, add, remove)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.Messages[id]
	if !ok {
		return errors.Wrapf(mailbox.ErrNotFound, "message %s", id)
	}
	for _, l := range add {
		if !f.labelExists(l) {
			return fmt.Errorf("invalid label: %s", l)
		}
	}
	var kept []string
	for _, l := range msg.LabelIDs {
		if !containsString(remove, l) {
			kept = append(kept, l)
		}
	}
	for _, l := range add {
		if !containsString(kept, l) {
			kept = append(kept, l)
		}
	}
	msg.LabelIDs = kept
	return nil
}

func (f *FakeMailbox) ListLabels(context.Context) ([]mailbox.Label, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]mailbox.Label, len(f.Labels))
	copy(out, f.Labels)
	return out, nil
}

func (f *FakeMailbox) CreateLabel(ctx context.Context, label mailbox.Label) (mailbox.Label, error) {
	if f.CreateLabelFunc != nil {
		return f.CreateLabelFunc(ctx, label)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.labelID(label.Name); ok {
		return mailbox.Label{}, errors.Wrapf(mailbox.ErrConflict, "label %q", label.Name)
	}
	f.nextLabel++
	label.ID = fmt.Sprintf("Label_%d", f.nextLabel)
	f.Labels = append(f.Labels, label)
	f.CreatedLabels = append(f.CreatedLabels, label)
	return label, nil
}

func (f *FakeMailbox) SendRaw(ctx context.Context, raw []byte) error {
	f.mu.Lock()
	f.Sent = append(f.Sent, raw)
	f.mu.Unlock()
	if f.SendRawFunc != nil {
		return f.SendRawFunc(ctx, raw)
	}
	return nil
}

func (f *FakeMailbox) CreateDraft(ctx context.Context, raw []byte, threadID string) error {
	f.mu.Lock()
	f.Drafts = append(f.Drafts, Draft{Raw: raw, ThreadID: threadID})
	f.mu.Unlock()
	if f.CreateDraftFunc != nil {
		return f.CreateDraftFunc(ctx, raw, threadID)
	}
	return nil
}

func (f *FakeMailbox) GetAttachment(_ context.Context, messageID, attachmentID string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.Attachments[messageID+"/"+attachmentID]
	if !ok {
		return nil, errors.Wrapf(mailbox.ErrNotFound, "attachment %s", attachmentID)
	}
	return data, nil
}

func (f *FakeMailbox) Profile(ctx context.Context) (string, error) {
	if f.ProfileFunc != nil {
		return f.ProfileFunc(ctx)
	}
	return f.Address, nil
}
