package mock

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"

	gomail "github.com/emersion/go-message/mail"
	gomock "go.uber.org/mock/gomock"
)

// setupLogger sets up a logger that only outputs if the test fails
func SetupLogger(t *testing.T) *slog.Logger {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	t.Cleanup(func() {
		if t.Failed() {
			os.Stdout.Write(buf.Bytes()) //nolint:errcheck
		}
	})

	return logger
}

// Custom matcher to check the headers of a raw RFC 5322 message
type rawMessageMatcher struct {
	to      string
	subject string
}

func (m rawMessageMatcher) Matches(x interface{}) bool {
	raw, ok := x.([]byte)
	if !ok {
		return false
	}
	r, err := gomail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return false
	}
	defer r.Close()

	subject, err := r.Header.Subject()
	if err != nil || subject != m.subject {
		return false
	}
	to, err := r.Header.AddressList("To")
	if err != nil {
		return false
	}
	for _, addr := range to {
		if strings.EqualFold(addr.Address, m.to) {
			return true
		}
	}
	return false
}

func (m rawMessageMatcher) String() string {
	return fmt.Sprintf("raw message to %q with subject %q", m.to, m.subject)
}

// NewRawMessageMatcher returns a matcher for composed messages by recipient and subject
func NewRawMessageMatcher(to, subject string) gomock.Matcher {
	return rawMessageMatcher{to: to, subject: subject}
}
