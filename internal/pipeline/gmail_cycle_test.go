package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aaronromeo.com/triager/internal/classifier"
	"aaronromeo.com/triager/internal/config"
	"aaronromeo.com/triager/internal/mailbox"
	"aaronromeo.com/triager/pkg/mock"
	"aaronromeo.com/triager/pkg/testutil"
)

// gmailBackend is a stateful stand-in for the Gmail REST API holding one
// inbox message whose attachments can never be downloaded.
type gmailBackend struct {
	mu          sync.Mutex
	attachments int
	status      int
	labels      []map[string]string
	applied     map[string]bool
}

func (b *gmailBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_, rest, ok := strings.Cut(r.URL.Path, "/gmail/v1/users/me/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	switch key := r.Method + " " + rest; {
	case key == "GET profile":
		reply(w, map[string]string{"emailAddress": owner})
	case key == "GET labels":
		reply(w, map[string]any{"labels": b.labels})
	case key == "POST labels":
		var label map[string]string
		_ = json.NewDecoder(r.Body).Decode(&label)
		label["id"] = fmt.Sprintf("Label_%d", len(b.labels)+1)
		b.labels = append(b.labels, label)
		reply(w, label)
	case key == "GET messages":
		var ids []map[string]string
		if !b.processed() {
			ids = append(ids, map[string]string{"id": "m1"})
		}
		reply(w, map[string]any{"messages": ids})
	case key == "GET messages/m1":
		reply(w, b.message())
	case strings.HasPrefix(key, "GET messages/m1/attachments/"):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(b.status)
		fmt.Fprintf(w, `{"error":{"code":%d,"message":"Invalid attachment token"}}`, b.status)
	case key == "POST messages/m1/modify":
		var req struct {
			AddLabelIDs []string `json:"addLabelIds"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		for _, id := range req.AddLabelIDs {
			b.applied[id] = true
		}
		reply(w, map[string]string{"id": "m1"})
	default:
		http.NotFound(w, r)
	}
}

func (b *gmailBackend) processed() bool {
	for _, l := range b.labels {
		if l["name"] == "AI Processed" && b.applied[l["id"]] {
			return true
		}
	}
	return false
}

func (b *gmailBackend) message() map[string]any {
	parts := []map[string]any{
		{"mimeType": "text/plain", "body": map[string]any{"data": encode("See attached")}},
	}
	for i := 0; i < b.attachments; i++ {
		parts = append(parts, map[string]any{
			"mimeType": "application/pdf",
			"filename": fmt.Sprintf("scan-%d.pdf", i),
			"body":     map[string]any{"attachmentId": fmt.Sprintf("att-%d", i), "size": 10},
		})
	}
	return map[string]any{
		"id":           "m1",
		"threadId":     "t1",
		"labelIds":     []string{mailbox.LabelInbox},
		"internalDate": fmt.Sprint(now.UnixMilli()),
		"payload": map[string]any{
			"mimeType": "multipart/mixed",
			"headers": []map[string]string{
				{"name": "From", "value": "Scanner <scanner@office.example>"},
				{"name": "Subject", "value": "Scans"},
				{"name": "Date", "value": "Fri, 1 Mar 2024 11:55:00 +0000"},
			},
			"parts": parts,
		},
	}
}

func reply(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestRunMarksMessageWhenAttachmentDownloadsFail(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusServiceUnavailable} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			backend := &gmailBackend{attachments: 6, status: status, applied: map[string]bool{}}
			srv := httptest.NewServer(backend)
			t.Cleanup(srv.Close)

			logger := mock.SetupLogger(t)
			ctx := context.Background()
			gmail, err := mailbox.NewGmail(ctx, srv.Client(),
				mailbox.WithEndpoint(srv.URL+"/"),
				mailbox.WithGmailLogger(logger))
			require.NoError(t, err)

			p, err := New(gmail,
				WithLogger(logger),
				WithCategorizer(classifier.New(classifier.WithLogger(logger))),
				WithStorage(testutil.NewFakeStorage()),
				WithDirectives(config.Directives{Labels: map[string]string{}, RootFolderID: "root"}),
				WithClock(func() time.Time { return now }),
			)
			require.NoError(t, err)

			report, err := p.Run(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, report.Candidates)
			assert.Equal(t, 1, report.Processed)
			assert.Equal(t, 0, report.Failed)
			assert.Equal(t, 6, report.StepErrors)

			again, err := p.Run(ctx)
			require.NoError(t, err)
			assert.Equal(t, 0, again.Candidates)
		})
	}
}
