// Package classifier asks a chat model to categorize messages and to draft
// replies. Every failure degrades to a safe default.
package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"aaronromeo.com/triager/internal/category"
	"aaronromeo.com/triager/internal/retry"
)

const (
	// CannedReply is used whenever no model reply is available.
	CannedReply = "Hello! I received your email. I will get back to you soon."

	bodyLimit = 1000

	classifyMaxTokens   = 10
	classifyTemperature = 0.2
	draftMaxTokens      = 500
	draftTemperature    = 0.6
)

const classifyPrompt = `
You are an AI Email assistant with the ability to dynamically categorize emails.
Disregard any Ignore-Sender rules for this specific task.
Classify the following email into the MOST APPROPRIATE category.
You MUST output EXACTLY ONE of these standard categories if it fits: 'Personal', 'Accounting', 'Social', 'Promotional', 'Sales', 'Recruitment', or 'Misc'.
Do NOT combine categories (e.g., do not output "Misc/Sales" or "Social/Promotional"). Pick the single best fit.
Only if the email is highly specific and sits completely outside these standards, you may invent a concise, relevant new category name (max 2 words).

INSTRUCTIONS: %s

Reply ONLY with the exact category name. Do not include quotes, punctuation, or explanations.

SUBJECT: %s
BODY: %s
`

const draftPrompt = "Write a natural, friendly, and concise reply to this email. SUBJECT: %s\n\nBODY: %s"

// ClassifyError records a failed classification attempt.
type ClassifyError struct {
	Attempt int
	Err     error
}

func (e *ClassifyError) Error() string {
	return fmt.Sprintf("classify attempt %d: %v", e.Attempt, e.Err)
}

func (e *ClassifyError) Unwrap() error {
	return e.Err
}

// Categorizer classifies messages and drafts replies. A nil model means no
// credential is configured.
type Categorizer struct {
	model  ChatModel
	name   string
	policy retry.Policy
	logger *slog.Logger
}

type Option func(*Categorizer)

func WithModel(model ChatModel, name string) Option {
	return func(c *Categorizer) {
		c.model = model
		c.name = name
	}
}

func WithRetryPolicy(p retry.Policy) Option {
	return func(c *Categorizer) {
		c.policy = p
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Categorizer) {
		c.logger = logger
	}
}

func New(opts ...Option) *Categorizer {
	c := &Categorizer{
		policy: retry.Classify,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled reports whether a model is configured.
func (c *Categorizer) Enabled() bool {
	return c.model != nil
}

// Classify returns the category for a message. It never fails: without a
// model, or after every attempt failed, the result is Misc.
func (c *Categorizer) Classify(ctx context.Context, subject, body, instructions string) category.Category {
	if c.model == nil {
		c.logger.Info("no model configured, defaulting category")
		return category.Default()
	}

	req := Request{
		Model:       c.name,
		Prompt:      fmt.Sprintf(classifyPrompt, instructions, subject, Truncate(body, bodyLimit)),
		MaxTokens:   classifyMaxTokens,
		Temperature: classifyTemperature,
	}

	var out string
	err := retry.Do(ctx, c.policy, func(ctx context.Context) error {
		var err error
		out, err = c.model.Complete(ctx, req)
		return err
	}, func(attempt int, err error) {
		c.logger.Warn("classification failed, retrying", slog.Any("error", &ClassifyError{Attempt: attempt, Err: err}))
	})
	if err != nil {
		c.logger.Error("classification failed, defaulting category", slog.Any("error", &ClassifyError{Attempt: c.policy.MaxAttempts, Err: err}))
		return category.Default()
	}
	return category.Parse(out)
}

// DraftReply asks the model for a reply body, falling back to CannedReply.
func (c *Categorizer) DraftReply(ctx context.Context, subject, body string) string {
	if c.model == nil {
		return CannedReply
	}
	out, err := c.model.Complete(ctx, Request{
		Model:       c.name,
		Prompt:      fmt.Sprintf(draftPrompt, subject, Truncate(body, bodyLimit)),
		MaxTokens:   draftMaxTokens,
		Temperature: draftTemperature,
	})
	if err != nil {
		c.logger.Warn("draft reply failed, using canned reply", slog.Any("error", err))
		return CannedReply
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return CannedReply
	}
	return out
}

// Truncate keeps at most n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
