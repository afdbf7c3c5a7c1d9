// Package directory resolves label and folder names to remote ids. Values are
// built once per poll cycle and cache what they learn for that cycle only.
package directory

import (
	"context"
	"log/slog"
	"strings"

	"github.com/pkg/errors"

	"aaronromeo.com/triager/internal/mailbox"
)

// DefaultProcessedLabel marks messages the pipeline has finished with.
const DefaultProcessedLabel = "AI Processed"

// ErrLabelNotFound is returned when a label cannot be found or created.
var ErrLabelNotFound = errors.New("label not found")

// labelStep is one strategy in the resolution chain. A step that returns
// ok=false hands over to the next one; an error stops the chain.
type labelStep func(ctx context.Context, key string, want mailbox.Label) (id string, ok bool, err error)

// Labels maps label names to ids.
type Labels struct {
	svc       mailbox.Service
	cache     map[string]string
	processed string
	logger    *slog.Logger
	steps     []labelStep
}

type LabelsOption func(*Labels)

func WithProcessedLabel(name string) LabelsOption {
	return func(l *Labels) {
		if strings.TrimSpace(name) != "" {
			l.processed = name
		}
	}
}

func WithLabelsLogger(logger *slog.Logger) LabelsOption {
	return func(l *Labels) {
		l.logger = logger
	}
}

// NewLabels seeds the cache from the directive label map. Keys are matched
// case-insensitively.
func NewLabels(svc mailbox.Service, seed map[string]string, opts ...LabelsOption) *Labels {
	l := &Labels{
		svc:       svc,
		cache:     make(map[string]string, len(seed)),
		processed: DefaultProcessedLabel,
		logger:    slog.Default(),
	}
	for name, id := range seed {
		if id != "" {
			l.cache[strings.ToLower(name)] = id
		}
	}
	for _, opt := range opts {
		opt(l)
	}
	l.steps = []labelStep{l.fromCache, l.fromRemote, l.create}
	return l
}

// ProcessedName is the name of the processed marker label.
func (l *Labels) ProcessedName() string {
	return l.processed
}

// Cached returns the id known for name without touching the remote.
func (l *Labels) Cached(name string) (string, bool) {
	id, ok := l.cache[strings.ToLower(name)]
	return id, ok
}

// Forget drops a cached id so the next resolution goes back to the remote.
func (l *Labels) Forget(name string) {
	delete(l.cache, strings.ToLower(name))
}

// Resolve returns the id of a visible user label, creating it when missing.
func (l *Labels) Resolve(ctx context.Context, name string) (string, error) {
	return l.resolve(ctx, mailbox.Label{
		Name:                  name,
		LabelListVisibility:   mailbox.LabelShow,
		MessageListVisibility: mailbox.MessageShow,
	})
}

// EnsureProcessed resolves the processed marker label. When it has to be
// created it is hidden from the message list.
func (l *Labels) EnsureProcessed(ctx context.Context) (string, error) {
	return l.resolve(ctx, mailbox.Label{
		Name:                  l.processed,
		LabelListVisibility:   mailbox.LabelShow,
		MessageListVisibility: mailbox.MessageHide,
	})
}

func (l *Labels) resolve(ctx context.Context, want mailbox.Label) (string, error) {
	key := strings.ToLower(strings.TrimSpace(want.Name))
	if key == "" {
		return "", errors.New("label name is required")
	}
	for _, step := range l.steps {
		id, ok, err := step(ctx, key, want)
		if err != nil {
			return "", errors.Wrapf(err, "resolve label %q", want.Name)
		}
		if ok {
			l.cache[key] = id
			return id, nil
		}
	}
	return "", errors.Wrapf(ErrLabelNotFound, "resolve label %q", want.Name)
}

func (l *Labels) fromCache(_ context.Context, key string, _ mailbox.Label) (string, bool, error) {
	id, ok := l.cache[key]
	return id, ok, nil
}

func (l *Labels) fromRemote(ctx context.Context, key string, _ mailbox.Label) (string, bool, error) {
	labels, err := l.svc.ListLabels(ctx)
	if err != nil {
		return "", false, err
	}
	for _, label := range labels {
		if strings.ToLower(label.Name) == key {
			return label.ID, true, nil
		}
	}
	return "", false, nil
}

func (l *Labels) create(ctx context.Context, key string, want mailbox.Label) (string, bool, error) {
	created, err := l.svc.CreateLabel(ctx, want)
	if err == nil {
		l.logger.Info("created label", slog.String("label", want.Name), slog.String("id", created.ID))
		return created.ID, true, nil
	}
	if !mailbox.IsConflict(err) {
		return "", false, err
	}
	// Someone else created it between our list and create.
	l.logger.Warn("label already exists, re-listing", slog.String("label", want.Name))
	id, ok, listErr := l.fromRemote(ctx, key, want)
	if listErr != nil {
		return "", false, listErr
	}
	if !ok {
		return "", false, err
	}
	return id, true, nil
}
