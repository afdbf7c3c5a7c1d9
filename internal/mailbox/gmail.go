package mailbox

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sony/gobreaker"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Gmail implements Service on top of the Gmail REST API. Calls go through a
// circuit breaker per operation class so a failing API fails fast for the rest
// of the cycle instead of stalling on each message.
type Gmail struct {
	srv      *gmail.Service
	user     string
	endpoint string
	breakers map[opClass]*gobreaker.CircuitBreaker
	logger   *slog.Logger
}

// opClass groups calls that share a breaker. Label writes stay apart from
// attachment downloads and outgoing mail so failures there never block the
// processed marker.
type opClass string

const (
	classRead       opClass = "read"
	classLabels     opClass = "labels"
	classSend       opClass = "send"
	classAttachment opClass = "attachment"
)

type GmailOption func(*Gmail)

func WithUser(user string) GmailOption {
	return func(g *Gmail) {
		g.user = user
	}
}

func WithGmailLogger(logger *slog.Logger) GmailOption {
	return func(g *Gmail) {
		g.logger = logger
	}
}

// WithEndpoint overrides the API base URL.
func WithEndpoint(endpoint string) GmailOption {
	return func(g *Gmail) {
		g.endpoint = endpoint
	}
}

// NewGmail builds the adapter from an authorized HTTP client.
func NewGmail(ctx context.Context, httpClient *http.Client, opts ...GmailOption) (*Gmail, error) {
	if httpClient == nil {
		return nil, errors.New("requires http client")
	}
	g := &Gmail{
		user:   DefaultUserName,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}

	clientOpts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if g.endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(g.endpoint))
	}
	srv, err := gmail.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create Gmail service")
	}
	g.srv = srv

	g.breakers = make(map[opClass]*gobreaker.CircuitBreaker)
	for _, class := range []opClass{classRead, classLabels, classSend, classAttachment} {
		g.breakers[class] = g.newBreaker("gmail-" + string(class))
	}
	return g, nil
}

func (g *Gmail) newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return !isBreakerFailure(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			g.logger.Warn("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})
}

// isBreakerFailure reports whether err means the API itself is unhealthy:
// transport errors, throttling and server errors. Any other response from the
// API is a request problem and leaves the breaker closed.
func isBreakerFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrConflict) || errors.Is(err, ErrNotFound) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
	}
	return true
}

func (g *Gmail) execute(class opClass, op string, fn func() error) error {
	_, err := g.breakers[class].Execute(func() (interface{}, error) {
		return nil, mapAPIError(fn())
	})
	if err != nil {
		return errors.Wrapf(err, "gmail %s", op)
	}
	return nil
}

func mapAPIError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusConflict:
			return errors.Wrap(ErrConflict, apiErr.Message)
		case http.StatusNotFound:
			return errors.Wrap(ErrNotFound, apiErr.Message)
		}
	}
	return err
}

func (g *Gmail) ListMessageIDs(ctx context.Context, query string, max int64) ([]string, error) {
	var resp *gmail.ListMessagesResponse
	err := g.execute(classRead, "list messages", func() error {
		var err error
		resp, err = g.srv.Users.Messages.List(g.user).Q(query).MaxResults(max).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		ids = append(ids, m.Id)
	}
	return ids, nil
}

func (g *Gmail) GetMessage(ctx context.Context, id string) (*RawMessage, error) {
	var msg *gmail.Message
	err := g.execute(classRead, "get message", func() error {
		var err error
		msg, err = g.srv.Users.Messages.Get(g.user, id).Format("full").Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	return &RawMessage{
		ID:           msg.Id,
		ThreadID:     msg.ThreadId,
		LabelIDs:     msg.LabelIds,
		InternalDate: msg.InternalDate,
		Payload:      convertPart(msg.Payload),
	}, nil
}

func convertPart(p *gmail.MessagePart) *Part {
	if p == nil {
		return nil
	}
	part := &Part{
		MimeType: p.MimeType,
		Filename: p.Filename,
	}
	for _, h := range p.Headers {
		part.Headers = append(part.Headers, Header{Name: h.Name, Value: h.Value})
	}
	if p.Body != nil {
		part.Data = p.Body.Data
		part.AttachmentID = p.Body.AttachmentId
		part.Size = p.Body.Size
	}
	for _, child := range p.Parts {
		part.Parts = append(part.Parts, convertPart(child))
	}
	return part
}

func (g *Gmail) ModifyLabels(ctx context.Context, id string, add, remove []string) error {
	req := &gmail.ModifyMessageRequest{
		AddLabelIds:    add,
		RemoveLabelIds: remove,
	}
	return g.execute(classLabels, "modify labels", func() error {
		_, err := g.srv.Users.Messages.Modify(g.user, id, req).Context(ctx).Do()
		return err
	})
}

func (g *Gmail) ListLabels(ctx context.Context) ([]Label, error) {
	var resp *gmail.ListLabelsResponse
	err := g.execute(classLabels, "list labels", func() error {
		var err error
		resp, err = g.srv.Users.Labels.List(g.user).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	labels := make([]Label, 0, len(resp.Labels))
	for _, l := range resp.Labels {
		labels = append(labels, Label{
			ID:                    l.Id,
			Name:                  l.Name,
			LabelListVisibility:   l.LabelListVisibility,
			MessageListVisibility: l.MessageListVisibility,
		})
	}
	return labels, nil
}

func (g *Gmail) CreateLabel(ctx context.Context, label Label) (Label, error) {
	var created *gmail.Label
	err := g.execute(classLabels, "create label", func() error {
		var err error
		created, err = g.srv.Users.Labels.Create(g.user, &gmail.Label{
			Name:                  label.Name,
			LabelListVisibility:   label.LabelListVisibility,
			MessageListVisibility: label.MessageListVisibility,
		}).Context(ctx).Do()
		return err
	})
	if err != nil {
		return Label{}, err
	}
	return Label{
		ID:                    created.Id,
		Name:                  created.Name,
		LabelListVisibility:   created.LabelListVisibility,
		MessageListVisibility: created.MessageListVisibility,
	}, nil
}

func (g *Gmail) SendRaw(ctx context.Context, raw []byte) error {
	msg := &gmail.Message{Raw: base64.URLEncoding.EncodeToString(raw)}
	return g.execute(classSend, "send", func() error {
		_, err := g.srv.Users.Messages.Send(g.user, msg).Context(ctx).Do()
		return err
	})
}

func (g *Gmail) CreateDraft(ctx context.Context, raw []byte, threadID string) error {
	draft := &gmail.Draft{
		Message: &gmail.Message{
			Raw:      base64.URLEncoding.EncodeToString(raw),
			ThreadId: threadID,
		},
	}
	return g.execute(classSend, "create draft", func() error {
		_, err := g.srv.Users.Drafts.Create(g.user, draft).Context(ctx).Do()
		return err
	})
}

func (g *Gmail) GetAttachment(ctx context.Context, messageID, attachmentID string) ([]byte, error) {
	var body *gmail.MessagePartBody
	err := g.execute(classAttachment, "get attachment", func() error {
		var err error
		body, err = g.srv.Users.Messages.Attachments.Get(g.user, messageID, attachmentID).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	data, err := base64.URLEncoding.DecodeString(body.Data)
	if err != nil {
		return nil, errors.Wrap(err, "decode attachment")
	}
	return data, nil
}

func (g *Gmail) Profile(ctx context.Context) (string, error) {
	var profile *gmail.Profile
	err := g.execute(classRead, "get profile", func() error {
		var err error
		profile, err = g.srv.Users.GetProfile(g.user).Context(ctx).Do()
		return err
	})
	if err != nil {
		return "", err
	}
	return profile.EmailAddress, nil
}
