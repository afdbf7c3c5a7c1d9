package storage

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sony/gobreaker"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Drive stores attachments in Google Drive folders.
type Drive struct {
	srv    *drive.Service
	cb     *gobreaker.CircuitBreaker
	logger *slog.Logger
}

// NewDrive builds the store from an authorized HTTP client. Extra client
// options are passed to the Drive service.
func NewDrive(ctx context.Context, httpClient *http.Client, logger *slog.Logger, opts ...option.ClientOption) (*Drive, error) {
	if httpClient == nil {
		return nil, errors.New("requires http client")
	}
	if logger == nil {
		logger = slog.Default()
	}
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	srv, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create Drive service")
	}
	d := &Drive{srv: srv, logger: logger}
	d.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "drive-api",
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
			d.logger.Warn("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})
	return d, nil
}

// isBreakerFailure counts transport errors, throttling and server errors
// against the breaker. Other API responses leave it closed.
func isBreakerFailure(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
	}
	return true
}

// FolderQuery builds the Drive search expression for a named child folder.
func FolderQuery(parent, name string) string {
	return fmt.Sprintf(
		"name='%s' and '%s' in parents and mimeType='%s' and trashed=false",
		escapeQuery(name), escapeQuery(parent), FolderMimeType,
	)
}

func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

func (d *Drive) FindFolder(ctx context.Context, parent, name string) (string, bool, error) {
	var list *drive.FileList
	_, err := d.cb.Execute(func() (interface{}, error) {
		var err error
		list, err = d.srv.Files.List().
			Q(FolderQuery(parent, name)).
			Fields("files(id, name)").
			PageSize(1).
			Context(ctx).
			Do()
		return nil, err
	})
	if err != nil {
		return "", false, errors.Wrapf(err, "drive find folder %q", name)
	}
	if len(list.Files) == 0 {
		return "", false, nil
	}
	return list.Files[0].Id, true, nil
}

func (d *Drive) CreateFolder(ctx context.Context, parent, name string) (string, error) {
	var created *drive.File
	_, err := d.cb.Execute(func() (interface{}, error) {
		var err error
		created, err = d.srv.Files.Create(&drive.File{
			Name:     name,
			MimeType: FolderMimeType,
			Parents:  []string{parent},
		}).Fields("id").Context(ctx).Do()
		return nil, err
	})
	if err != nil {
		return "", errors.Wrapf(err, "drive create folder %q", name)
	}
	return created.Id, nil
}

func (d *Drive) Upload(ctx context.Context, parent, name, mimeType string, data []byte) (string, error) {
	var media []googleapi.MediaOption
	if mimeType != "" {
		media = append(media, googleapi.ContentType(mimeType))
	}
	var created *drive.File
	_, err := d.cb.Execute(func() (interface{}, error) {
		var err error
		created, err = d.srv.Files.Create(&drive.File{
			Name:    name,
			Parents: []string{parent},
		}).
			Media(bytes.NewReader(data), media...).
			Fields("id").
			Context(ctx).
			Do()
		return nil, err
	})
	if err != nil {
		return "", errors.Wrapf(err, "drive upload %q", name)
	}
	return created.Id, nil
}
