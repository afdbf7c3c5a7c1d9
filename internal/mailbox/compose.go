package mailbox

import (
	"bytes"
	"io"
	"strings"
	"time"

	gomail "github.com/emersion/go-message/mail"
	"github.com/pkg/errors"
)

// Outgoing describes a plain-text message to compose.
type Outgoing struct {
	To        string
	Subject   string
	Body      string
	InReplyTo string
	Date      time.Time
}

// Compose renders an RFC 5322 message with a single text/plain body.
func Compose(out Outgoing) ([]byte, error) {
	var h gomail.Header
	date := out.Date
	if date.IsZero() {
		date = time.Now()
	}
	h.SetDate(date)
	h.SetSubject(out.Subject)
	if addrs, err := gomail.ParseAddressList(out.To); err == nil && len(addrs) > 0 {
		h.SetAddressList("To", addrs)
	} else if strings.TrimSpace(out.To) != "" {
		h.Set("To", strings.TrimSpace(out.To))
	} else {
		return nil, errors.New("compose: recipient is required")
	}
	if out.InReplyTo != "" {
		h.Set("In-Reply-To", out.InReplyTo)
		h.Set("References", out.InReplyTo)
	}
	if err := h.GenerateMessageID(); err != nil {
		return nil, errors.Wrap(err, "compose: message id")
	}
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	h.Set("Content-Transfer-Encoding", "quoted-printable")

	var buf bytes.Buffer
	w, err := gomail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, errors.Wrap(err, "compose: create writer")
	}
	if _, err := io.WriteString(w, out.Body); err != nil {
		return nil, errors.Wrap(err, "compose: write body")
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "compose: close writer")
	}
	return buf.Bytes(), nil
}

// Forward composes a forward of body to the given address.
func Forward(to, subject, body string) ([]byte, error) {
	return Compose(Outgoing{
		To:      to,
		Subject: "Fwd: " + subject,
		Body:    "Forwarded Accounting Email:\n\n" + body,
	})
}

// Reply composes a reply addressed to the original sender.
func Reply(to, subject, body, inReplyTo string) ([]byte, error) {
	return Compose(Outgoing{
		To:        to,
		Subject:   "Re: " + subject,
		Body:      body,
		InReplyTo: inReplyTo,
	})
}
