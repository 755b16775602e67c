package broadcast

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sirreidlos/e-form/internal/eform/entity"
)

func recvWithTimeout(t *testing.T, sub *Subscriber) (*entity.Response, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return sub.Recv(ctx)
}

func TestHubFanOut(t *testing.T) {
	hub := NewHub(16, nil)
	defer hub.Close()

	subs := make([]*Subscriber, 3)
	for i := range subs {
		subs[i] = hub.Subscribe()
	}

	published := &entity.Response{ID: "resp-1", FormID: "form-1"}
	hub.Publish(published)

	for i, sub := range subs {
		got, err := recvWithTimeout(t, sub)
		if err != nil {
			t.Fatalf("subscriber %d: %v", i, err)
		}
		if got.ID != published.ID {
			t.Errorf("subscriber %d: got response %q, want %q", i, got.ID, published.ID)
		}
	}
}

func TestHubNoReplayForLateSubscriber(t *testing.T) {
	hub := NewHub(16, nil)
	defer hub.Close()

	hub.Publish(&entity.Response{ID: "early"})

	sub := hub.Subscribe()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := sub.Recv(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("late subscriber should see nothing, got err=%v", err)
	}
}

func TestHubLagDropsOldestAndResumes(t *testing.T) {
	hub := NewHub(2, nil)
	defer hub.Close()

	sub := hub.Subscribe()
	for i := 1; i <= 5; i++ {
		hub.Publish(&entity.Response{ID: fmt.Sprintf("m%d", i)})
	}

	_, err := recvWithTimeout(t, sub)
	var lag *LagError
	if !errors.As(err, &lag) {
		t.Fatalf("expected LagError, got %v", err)
	}
	if lag.Missed != 3 {
		t.Errorf("expected 3 dropped messages, got %d", lag.Missed)
	}

	// The two newest messages survive, in publish order.
	for _, want := range []string{"m4", "m5"} {
		got, err := recvWithTimeout(t, sub)
		if err != nil {
			t.Fatalf("recv after lag: %v", err)
		}
		if got.ID != want {
			t.Errorf("got %q, want %q", got.ID, want)
		}
	}

	// A lagged subscriber keeps receiving new publishes.
	hub.Publish(&entity.Response{ID: "m6"})
	got, err := recvWithTimeout(t, sub)
	if err != nil {
		t.Fatalf("recv after resume: %v", err)
	}
	if got.ID != "m6" {
		t.Errorf("got %q, want m6", got.ID)
	}
}

func TestHubRecvCancellation(t *testing.T) {
	hub := NewHub(16, nil)
	defer hub.Close()

	sub := hub.Subscribe()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := sub.Recv(ctx)
		done <- err
	}()

	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Recv did not return after cancellation")
	}
}

func TestHubCloseDrainsThenEnds(t *testing.T) {
	hub := NewHub(16, nil)
	sub := hub.Subscribe()

	hub.Publish(&entity.Response{ID: "pending"})
	hub.Close()

	got, err := recvWithTimeout(t, sub)
	if err != nil {
		t.Fatalf("buffered message should survive Close: %v", err)
	}
	if got.ID != "pending" {
		t.Errorf("got %q, want pending", got.ID)
	}

	if _, err := recvWithTimeout(t, sub); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}

	// Publishing after Close is a no-op, not a panic.
	hub.Publish(&entity.Response{ID: "ignored"})
}

func TestHubSubscribeAfterClose(t *testing.T) {
	hub := NewHub(16, nil)
	hub.Close()

	sub := hub.Subscribe()
	if _, err := recvWithTimeout(t, sub); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestHubUnsubscribeStopsDelivery(t *testing.T) {
	hub := NewHub(16, nil)
	defer hub.Close()

	sub := hub.Subscribe()
	sub.Unsubscribe()

	hub.Publish(&entity.Response{ID: "after"})

	if _, err := recvWithTimeout(t, sub); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed after unsubscribe, got %v", err)
	}

	// Double unsubscribe is safe.
	sub.Unsubscribe()
}

func TestHubConcurrentPublish(t *testing.T) {
	const (
		publishers = 8
		perPub     = 50
	)

	hub := NewHub(publishers*perPub, nil)
	defer hub.Close()

	sub := hub.Subscribe()

	var wg sync.WaitGroup
	for p := 0; p < publishers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perPub; i++ {
				hub.Publish(&entity.Response{ID: fmt.Sprintf("p%d-m%d", p, i)})
			}
		}(p)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for i := 0; i < publishers*perPub; i++ {
		got, err := recvWithTimeout(t, sub)
		if err != nil {
			t.Fatalf("recv %d: %v", i, err)
		}
		if seen[got.ID] {
			t.Fatalf("duplicate delivery of %q", got.ID)
		}
		seen[got.ID] = true
	}
	if len(seen) != publishers*perPub {
		t.Errorf("delivered %d messages, want %d", len(seen), publishers*perPub)
	}
}
