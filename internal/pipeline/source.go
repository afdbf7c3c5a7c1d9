package pipeline

import (
	"context"
	"fmt"
	"time"

	"aaronromeo.com/triager/internal/mailbox"
)

const (
	// DefaultWindow is how far back each poll looks.
	DefaultWindow = 20 * time.Minute
	// DefaultPageSize caps the candidates fetched per poll.
	DefaultPageSize = 50
)

// Query selects inbox messages received within window that do not yet carry
// the processed label.
func Query(processedLabel string, now time.Time, window time.Duration) string {
	return fmt.Sprintf(`label:INBOX -label:"%s" after:%d`, processedLabel, now.Add(-window).Unix())
}

// Source lists candidate message ids.
type Source struct {
	mail     mailbox.Service
	window   time.Duration
	pageSize int64
	now      func() time.Time
}

func NewSource(mail mailbox.Service, window time.Duration, pageSize int64, now func() time.Time) *Source {
	if window <= 0 {
		window = DefaultWindow
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if now == nil {
		now = time.Now
	}
	return &Source{mail: mail, window: window, pageSize: pageSize, now: now}
}

// ListCandidates returns the ids of messages still to be triaged.
func (s *Source) ListCandidates(ctx context.Context, processedLabel string) ([]string, error) {
	ids, err := s.mail.ListMessageIDs(ctx, Query(processedLabel, s.now(), s.window), s.pageSize)
	if err != nil {
		return nil, &mailbox.FetchError{Op: "list", Err: err}
	}
	return ids, nil
}
