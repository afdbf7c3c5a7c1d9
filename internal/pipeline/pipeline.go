// Package pipeline runs one triage cycle over the inbox: list unprocessed
// messages, classify them, archive attachments, apply the category action and
// mark them processed.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"aaronromeo.com/triager/internal/archiver"
	"aaronromeo.com/triager/internal/classifier"
	"aaronromeo.com/triager/internal/config"
	"aaronromeo.com/triager/internal/directory"
	"aaronromeo.com/triager/internal/dispatcher"
	"aaronromeo.com/triager/internal/mailbox"
	"aaronromeo.com/triager/internal/retry"
	"aaronromeo.com/triager/internal/storage"
)

const instrumentationName = "aaronromeo.com/triager/internal/pipeline"

// Pipeline holds everything that outlives a single cycle.
type Pipeline struct {
	mail           mailbox.Service
	store          storage.Service
	categorizer    *classifier.Categorizer
	directives     config.Directives
	processedLabel string
	accounting     string
	window         time.Duration
	pageSize       int64
	dryRun         bool
	markPolicy     retry.Policy
	now            func() time.Time
	logger         *slog.Logger

	tracer      trace.Tracer
	processed   metric.Int64Counter
	attachments metric.Int64Counter
	duration    metric.Float64Histogram
}

type Option func(*Pipeline)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithStorage enables attachment archiving.
func WithStorage(store storage.Service) Option {
	return func(p *Pipeline) {
		p.store = store
	}
}

func WithCategorizer(c *classifier.Categorizer) Option {
	return func(p *Pipeline) {
		p.categorizer = c
	}
}

func WithDirectives(d config.Directives) Option {
	return func(p *Pipeline) {
		p.directives = d
	}
}

func WithProcessedLabel(name string) Option {
	return func(p *Pipeline) {
		p.processedLabel = name
	}
}

func WithAccountingEmail(addr string) Option {
	return func(p *Pipeline) {
		p.accounting = addr
	}
}

func WithWindow(window time.Duration, pageSize int) Option {
	return func(p *Pipeline) {
		p.window = window
		p.pageSize = int64(pageSize)
	}
}

// WithDryRun classifies messages without changing anything remotely.
func WithDryRun(dryRun bool) Option {
	return func(p *Pipeline) {
		p.dryRun = dryRun
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

func WithMarkPolicy(policy retry.Policy) Option {
	return func(p *Pipeline) {
		p.markPolicy = policy
	}
}

func New(mail mailbox.Service, opts ...Option) (*Pipeline, error) {
	if mail == nil {
		return nil, errors.New("requires mailbox service")
	}
	p := &Pipeline{
		mail:           mail,
		processedLabel: directory.DefaultProcessedLabel,
		window:         DefaultWindow,
		pageSize:       DefaultPageSize,
		markPolicy:     retry.Once,
		now:            time.Now,
		logger:         slog.Default(),
		directives:     config.Directives{Instructions: config.DefaultInstructions},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.categorizer == nil {
		p.categorizer = classifier.New(classifier.WithLogger(p.logger))
	}

	p.tracer = otel.Tracer(instrumentationName)
	meter := otel.Meter(instrumentationName)
	var err error
	p.processed, err = meter.Int64Counter("triager.messages.processed",
		metric.WithDescription("Messages handled by the pipeline"),
		metric.WithUnit("{message}"))
	if err != nil {
		return nil, errors.Wrap(err, "create processed counter")
	}
	p.attachments, err = meter.Int64Counter("triager.attachments.saved",
		metric.WithDescription("Attachments archived"),
		metric.WithUnit("{file}"))
	if err != nil {
		return nil, errors.Wrap(err, "create attachments counter")
	}
	p.duration, err = meter.Float64Histogram("triager.cycle.duration",
		metric.WithDescription("Duration of a poll cycle"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, errors.Wrap(err, "create cycle histogram")
	}
	return p, nil
}

// cycle holds the state that lives for exactly one Run.
type cycle struct {
	*Pipeline
	own        string
	labels     *directory.Labels
	archiver   *archiver.Archiver
	dispatcher *dispatcher.Dispatcher
}

type outcome struct {
	id         string
	category   string
	action     string
	skipped    bool
	marked     bool
	dryRun     bool
	archived   int
	stepErrors int
}

// Run performs one poll cycle. It fails only when the mailbox owner or the
// candidate list cannot be read; per-message problems are logged and counted.
func (p *Pipeline) Run(ctx context.Context) (report Report, err error) {
	start := p.now()
	report = Report{
		RunID:      uuid.NewString(),
		StartedAt:  start,
		DryRun:     p.dryRun,
		ByCategory: map[string]int{},
	}
	logger := p.logger.With(slog.String("run_id", report.RunID))

	ctx, span := p.tracer.Start(ctx, "pipeline.run", trace.WithAttributes(
		attribute.String("run_id", report.RunID),
		attribute.Bool("dry_run", p.dryRun),
	))
	defer span.End()
	defer func() {
		report.FinishedAt = p.now()
		p.duration.Record(ctx, report.FinishedAt.Sub(start).Seconds())
	}()

	c, err := p.newCycle(ctx, logger)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		report.Error = err.Error()
		return report, err
	}

	ids, err := NewSource(p.mail, p.window, p.pageSize, p.now).ListCandidates(ctx, c.labels.ProcessedName())
	if err != nil {
		logger.Error("listing candidates failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		report.Error = err.Error()
		return report, err
	}
	report.Candidates = len(ids)
	logger.Info("poll cycle started", slog.Int("candidates", len(ids)))

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			logger.Warn("cycle interrupted", slog.Any("error", err))
			break
		}
		report.add(c.processSafe(ctx, logger, id))
	}

	logger.Info("poll cycle finished",
		slog.Int("processed", report.Processed),
		slog.Int("skipped", report.Skipped),
		slog.Int("failed", report.Failed),
		slog.Int("step_errors", report.StepErrors))
	return report, nil
}

func (p *Pipeline) newCycle(ctx context.Context, logger *slog.Logger) (*cycle, error) {
	own, err := p.mail.Profile(ctx)
	if err != nil {
		return nil, &mailbox.FetchError{Op: "profile", Err: err}
	}

	labels := directory.NewLabels(p.mail, p.directives.Labels,
		directory.WithProcessedLabel(p.processedLabel),
		directory.WithLabelsLogger(logger))
	if !p.dryRun {
		if _, err := labels.EnsureProcessed(ctx); err != nil {
			logger.Warn("processed label unavailable, will retry per message", slog.Any("error", err))
		}
	}

	archiverOpts := []archiver.Option{archiver.WithLogger(logger)}
	if p.store != nil {
		archiverOpts = append(archiverOpts, archiver.WithStore(
			p.store,
			directory.NewFolders(p.store, logger),
			p.directives.RootFolderID,
		))
	}
	arch, err := archiver.New(p.mail, archiverOpts...)
	if err != nil {
		return nil, err
	}

	disp, err := dispatcher.New(p.mail, labels, p.categorizer,
		dispatcher.WithAccountingAddress(p.accounting),
		dispatcher.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	return &cycle{
		Pipeline:   p,
		own:        own,
		labels:     labels,
		archiver:   arch,
		dispatcher: disp,
	}, nil
}

func (c *cycle) processSafe(ctx context.Context, logger *slog.Logger, id string) (out outcome) {
	out.id = id
	logger = logger.With(slog.String("message_id", id))
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic while processing message", slog.Any("panic", r))
			out = outcome{id: id}
		}
	}()
	return c.process(ctx, logger, id)
}

func (c *cycle) process(ctx context.Context, logger *slog.Logger, id string) outcome {
	out := outcome{id: id}
	ctx, span := c.tracer.Start(ctx, "pipeline.message", trace.WithAttributes(attribute.String("message_id", id)))
	defer span.End()

	msg, err := mailbox.Fetch(ctx, c.mail, id)
	if err != nil {
		logger.Error("fetch failed, leaving message for next cycle", slog.Any("error", err))
		span.RecordError(err)
		return out
	}

	if dispatcher.IsSelfOrSystem(msg.From, c.own) {
		logger.Info("skipping message from self or system sender", slog.String("from", msg.From))
		out.skipped = true
		out.action = "skip"
		if c.dryRun {
			out.dryRun = true
			return out
		}
		out.marked = c.mark(ctx, logger, id)
		c.count(ctx, out)
		return out
	}

	cat := c.categorizer.Classify(ctx, msg.Subject, msg.Body, c.directives.Instructions)
	out.category = cat.Name()
	out.action = dispatcher.Route(cat).String()
	span.SetAttributes(attribute.String("category", out.category), attribute.String("action", out.action))
	logger.Info("message classified", slog.String("category", out.category), slog.String("action", out.action))

	if c.dryRun {
		out.dryRun = true
		return out
	}

	res := c.archiver.Archive(ctx, msg, cat, mailbox.SenderName(msg.From), msg.DateStamp)
	out.archived = res.Saved
	out.stepErrors += res.Failed
	if res.Saved > 0 {
		c.attachments.Add(ctx, int64(res.Saved), metric.WithAttributes(attribute.String("category", out.category)))
	}

	if _, err := c.dispatcher.Dispatch(ctx, msg, cat, c.own); err != nil {
		out.stepErrors++
		logger.Error("category action failed", slog.Any("error", err))
		span.RecordError(err)
	}

	out.marked = c.mark(ctx, logger, id)
	c.count(ctx, out)
	return out
}

// mark applies the processed label. On failure the label is re-resolved once,
// which recreates it if it was deleted mid-run.
func (c *cycle) mark(ctx context.Context, logger *slog.Logger, id string) bool {
	err := retry.Do(ctx, c.markPolicy, func(ctx context.Context) error {
		labelID, err := c.labels.EnsureProcessed(ctx)
		if err != nil {
			return err
		}
		return c.mail.ModifyLabels(ctx, id, []string{labelID}, nil)
	}, func(attempt int, err error) {
		logger.Warn("marking processed failed, re-resolving label",
			slog.Int("attempt", attempt),
			slog.Any("error", err))
		c.labels.Forget(c.labels.ProcessedName())
	})
	if err != nil {
		logger.Error("message left unmarked", slog.Any("error", &MarkProcessedError{MessageID: id, Err: err}))
		return false
	}
	return true
}

func (c *cycle) count(ctx context.Context, out outcome) {
	cat := out.category
	if out.skipped {
		cat = "self"
	}
	c.processed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("category", cat),
		attribute.String("action", out.action),
		attribute.Bool("marked", out.marked),
	))
}
