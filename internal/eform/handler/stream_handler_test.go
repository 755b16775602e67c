package handler

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirreidlos/e-form/internal/eform/entity"
	"github.com/sirreidlos/e-form/internal/eform/testutil"
)

// safeRecorder is a response writer the test can read while the stream
// session keeps writing from its own goroutine.
type safeRecorder struct {
	mu     sync.Mutex
	header http.Header
	body   bytes.Buffer
	code   int
}

func newSafeRecorder() *safeRecorder {
	return &safeRecorder{header: make(http.Header), code: http.StatusOK}
}

func (r *safeRecorder) Header() http.Header { return r.header }

func (r *safeRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.body.Write(p)
}

func (r *safeRecorder) WriteHeader(code int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.code = code
}

func (r *safeRecorder) Flush() {}

func (r *safeRecorder) Body() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.body.String()
}

// startStream opens an SSE session in a goroutine and returns the
// recorder, a cancel to end the session, and a channel closed when the
// handler returns.
func startStream(t *testing.T, f *fixture, formID, token string) (*safeRecorder, context.CancelFunc, chan struct{}) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	req, _ := http.NewRequestWithContext(ctx, "GET", "/stream/"+formID+"?token="+token, nil)
	w := newSafeRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.router.ServeHTTP(w, req)
	}()
	return w, cancel, done
}

func waitForBody(t *testing.T, w *safeRecorder, substr string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(w.Body(), substr) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("stream body never contained %q, got: %s", substr, w.Body())
}

func TestStreamDeliversSubmittedResponses(t *testing.T) {
	f := setup(t)
	seedSurvey(f, entity.FormStatePublic)

	w, cancel, done := startStream(t, f, "form-1", ownerToken())
	defer cancel()

	waitForBody(t, w, "event: connected")

	// The subscription is live once the connected event is out.
	resp := testutil.DoRequest(f.router, "POST", "/response/form-1", map[string]interface{}{
		"answers": []map[string]interface{}{
			{"number": 1, "input": "Alice"},
			{"number": 2, "input": "2"},
		},
	}, responderToken())
	if resp.Code != http.StatusCreated {
		t.Fatalf("submit status = %d, body %s", resp.Code, resp.Body.String())
	}

	waitForBody(t, w, "event: response")
	waitForBody(t, w, `"responder":"responder-1"`)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream session did not terminate on disconnect")
	}
}

func TestStreamFiltersOtherForms(t *testing.T) {
	f := setup(t)
	seedSurvey(f, entity.FormStatePublic)
	testutil.SeedForm(f.forms, "form-2", "owner-1", entity.FormStatePublic, []entity.Question{
		{Number: 1, Text: "Q1", Kind: entity.KindTextAnswer},
	})

	w, cancel, done := startStream(t, f, "form-1", ownerToken())
	defer cancel()

	waitForBody(t, w, "event: connected")

	// A submission to a different form must not reach this session.
	resp := testutil.DoRequest(f.router, "POST", "/response/form-2", map[string]interface{}{
		"answers": []map[string]interface{}{{"number": 1, "input": "hi"}},
	}, responderToken())
	if resp.Code != http.StatusCreated {
		t.Fatalf("submit status = %d", resp.Code)
	}

	// Then one to the watched form, which must arrive.
	resp = testutil.DoRequest(f.router, "POST", "/response/form-1", map[string]interface{}{
		"answers": []map[string]interface{}{
			{"number": 1, "input": "Alice"},
			{"number": 2, "input": "1"},
		},
	}, responderToken())
	if resp.Code != http.StatusCreated {
		t.Fatalf("submit status = %d", resp.Code)
	}

	// Delivery is FIFO: once the form-1 response is visible, the form-2
	// one was already processed and filtered.
	waitForBody(t, w, "event: response")
	waitForBody(t, w, `"form":"form-1"`)
	if strings.Contains(w.Body(), `"form":"form-2"`) {
		t.Errorf("session received a response for another form: %s", w.Body())
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream session did not terminate on disconnect")
	}
}

func TestStreamTerminatesOnHubClose(t *testing.T) {
	f := setup(t)
	seedSurvey(f, entity.FormStatePublic)

	w, cancel, done := startStream(t, f, "form-1", ownerToken())
	defer cancel()

	waitForBody(t, w, "event: connected")

	f.hub.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream session did not terminate after hub close")
	}
}
