package mailbox

import (
	"context"
	"encoding/base64"
	"net/mail"
	"strings"
	"time"

	gomail "github.com/emersion/go-message/mail"
)

const dateStampLayout = "2006-01-02"

// Fetch reads a single message and extracts its headers and plain-text body.
func Fetch(ctx context.Context, svc Service, id string) (Message, error) {
	raw, err := svc.GetMessage(ctx, id)
	if err != nil {
		return Message{}, &FetchError{Op: "get", ID: id, Err: err}
	}
	return Extract(raw), nil
}

// Extract builds the Message view from a raw message.
func Extract(raw *RawMessage) Message {
	if raw == nil {
		return Message{}
	}
	msg := Message{
		ID:       raw.ID,
		ThreadID: raw.ThreadID,
		Payload:  raw.Payload,
	}
	if raw.Payload == nil {
		return msg
	}
	msg.From = raw.Payload.Header("From")
	msg.Subject = raw.Payload.Header("Subject")
	msg.Date = raw.Payload.Header("Date")
	msg.MessageID = raw.Payload.Header("Message-ID")
	msg.DateStamp = DateStamp(msg.Date, raw.InternalDate)
	msg.Body = PlainTextBody(raw.Payload)
	return msg
}

// PlainTextBody concatenates every text/plain leaf of the part tree. A payload
// without children is decoded directly whatever its media type. Returns "" when
// nothing matches.
func PlainTextBody(payload *Part) string {
	if payload == nil {
		return ""
	}
	if len(payload.Parts) == 0 {
		return decode(payload.Data)
	}
	var b strings.Builder
	var walk func(p *Part)
	walk = func(p *Part) {
		if p == nil {
			return
		}
		if len(p.Parts) > 0 {
			for _, child := range p.Parts {
				walk(child)
			}
			return
		}
		if isPlainText(p.MimeType) && p.Filename == "" {
			b.WriteString(decode(p.Data))
		}
	}
	walk(payload)
	return b.String()
}

func isPlainText(mimeType string) bool {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return mt == "text/plain"
}

func decode(data string) string {
	if data == "" {
		return ""
	}
	if b, err := base64.URLEncoding.DecodeString(data); err == nil {
		return string(b)
	}
	if b, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "=")); err == nil {
		return string(b)
	}
	return ""
}

// DateStamp renders the message date as YYYY-MM-DD. It prefers the Date
// header, then the server receive time, then the first ten characters of the
// raw header.
func DateStamp(header string, internalDateMillis int64) string {
	if t, err := mail.ParseDate(strings.TrimSpace(header)); err == nil {
		return t.Format(dateStampLayout)
	}
	if internalDateMillis > 0 {
		return time.UnixMilli(internalDateMillis).UTC().Format(dateStampLayout)
	}
	if len(header) > 10 {
		return header[:10]
	}
	return header
}

// SenderName returns the display name of a From header, or the bare address
// when there is none. Unparseable headers are returned unchanged.
func SenderName(from string) string {
	addr, err := gomail.ParseAddress(from)
	if err != nil {
		return strings.TrimSpace(from)
	}
	if strings.TrimSpace(addr.Name) != "" {
		return addr.Name
	}
	return addr.Address
}

// SenderAddress returns the lowercased address of a From header.
func SenderAddress(from string) string {
	addr, err := gomail.ParseAddress(from)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(from))
	}
	return strings.ToLower(addr.Address)
}
