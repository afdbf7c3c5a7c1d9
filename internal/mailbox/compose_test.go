package mailbox

import (
	"bytes"
	"io"
	"strings"
	"testing"

	gomail "github.com/emersion/go-message/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readComposed(t *testing.T, raw []byte) (gomail.Header, string) {
	t.Helper()
	mr, err := gomail.CreateReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer mr.Close()

	part, err := mr.NextPart()
	require.NoError(t, err)
	body, err := io.ReadAll(part.Body)
	require.NoError(t, err)
	return mr.Header, strings.ReplaceAll(string(body), "\r\n", "\n")
}

func TestForward(t *testing.T) {
	raw, err := Forward("books@example.com", "Invoice 42", "Please pay.")
	require.NoError(t, err)

	h, body := readComposed(t, raw)
	subject, err := h.Subject()
	require.NoError(t, err)
	assert.Equal(t, "Fwd: Invoice 42", subject)

	to, err := h.AddressList("To")
	require.NoError(t, err)
	require.Len(t, to, 1)
	assert.Equal(t, "books@example.com", to[0].Address)
	assert.Equal(t, "Forwarded Accounting Email:\n\nPlease pay.", body)
}

func TestReply(t *testing.T) {
	raw, err := Reply("Jane <jane@example.com>", "Lunch?", "Sounds good.", "<abc@example.com>")
	require.NoError(t, err)

	h, body := readComposed(t, raw)
	subject, err := h.Subject()
	require.NoError(t, err)
	assert.Equal(t, "Re: Lunch?", subject)
	assert.Equal(t, "<abc@example.com>", h.Get("In-Reply-To"))
	assert.Equal(t, "Sounds good.", body)
}

func TestComposeRequiresRecipient(t *testing.T) {
	_, err := Compose(Outgoing{Subject: "x", Body: "y"})
	assert.Error(t, err)
}
