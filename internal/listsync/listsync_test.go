package listsync_test

import (
	"context"
	"errors"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"medibook-console/internal/api"
	"medibook-console/internal/exceptions"
	"medibook-console/internal/listsync"
	"medibook-console/internal/model"
)

// gated hands out one response per call, released in whatever order the
// test chooses.
type gated struct {
	calls chan chan result
}

type result struct {
	items []string
	err   error
}

func newGated() *gated { return &gated{calls: make(chan chan result, 8)} }

func (g *gated) fetch(ctx context.Context) ([]string, error) {
	ch := make(chan result, 1)
	g.calls <- ch
	select {
	case r := <-ch:
		return r.items, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *gated) next(t *testing.T) chan result {
	t.Helper()
	select {
	case ch := <-g.calls:
		return ch
	case <-time.After(2 * time.Second):
		t.Fatal("fetch was never issued")
		return nil
	}
}

func fixed(items ...string) listsync.Fetcher[string] {
	return func(context.Context) ([]string, error) { return items, nil }
}

func TestRefreshReplacesCollection(t *testing.T) {
	c := listsync.New(fixed("a", "b"))
	if s := c.Snapshot(); s.State != listsync.Idle {
		t.Fatalf("initial state %v", s.State)
	}
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	s := c.Snapshot()
	if s.State != listsync.Success || !reflect.DeepEqual(s.Items, []string{"a", "b"}) {
		t.Fatalf("snapshot %+v", s)
	}
}

func TestRefreshIsIdempotent(t *testing.T) {
	c := listsync.New(fixed("a1", "a2"))
	c.Refresh(context.Background())
	first := c.Snapshot().Items
	c.Refresh(context.Background())
	if second := c.Snapshot().Items; !reflect.DeepEqual(first, second) {
		t.Fatalf("%v != %v", first, second)
	}
}

func TestFailedRefreshKeepsStaleItems(t *testing.T) {
	fail := false
	c := listsync.New(func(context.Context) ([]string, error) {
		if fail {
			return nil, exceptions.Transport(errors.New("connection reset"))
		}
		return []string{"a"}, nil
	}, listsync.WithFailureText("Failed to load appointments."))

	c.Refresh(context.Background())
	fail = true
	if err := c.Refresh(context.Background()); err == nil {
		t.Fatal("expected error")
	}

	s := c.Snapshot()
	if s.State != listsync.Error {
		t.Errorf("state %v", s.State)
	}
	if !reflect.DeepEqual(s.Items, []string{"a"}) {
		t.Errorf("stale items dropped: %v", s.Items)
	}
	if s.Message == nil || s.Message.Kind != model.MessageError || s.Message.Text != "Failed to load appointments." {
		t.Errorf("message %+v", s.Message)
	}

	c.DismissMessage()
	if c.Snapshot().Message != nil {
		t.Error("message not dismissed")
	}

	// recovery clears a load failure notice
	fail = false
	c.Refresh(context.Background())
	fail = true
	c.Refresh(context.Background())
	fail = false
	c.Refresh(context.Background())
	if m := c.Snapshot().Message; m != nil {
		t.Errorf("load failure notice survived recovery: %+v", m)
	}
}

func TestServerMessageWins(t *testing.T) {
	c := listsync.New(func(context.Context) ([]string, error) {
		return nil, exceptions.Server(500, "Database unavailable")
	})
	c.Refresh(context.Background())
	if m := c.Snapshot().Message; m == nil || m.Text != "Database unavailable" {
		t.Errorf("message %+v", m)
	}
}

func TestOutOfOrderResponsesAreDiscarded(t *testing.T) {
	g := newGated()
	c := listsync.New(g.fetch)
	ctx := context.Background()

	older := make(chan error, 1)
	go func() { older <- c.Refresh(ctx) }()
	first := g.next(t)

	newer := make(chan error, 1)
	go func() { newer <- c.Refresh(ctx) }()
	second := g.next(t)

	second <- result{items: []string{"new"}}
	if err := <-newer; err != nil {
		t.Fatalf("newer refresh: %v", err)
	}
	first <- result{items: []string{"old"}}
	if err := <-older; !errors.Is(err, listsync.ErrSuperseded) {
		t.Fatalf("expected ErrSuperseded, got %v", err)
	}

	if got := c.Snapshot().Items; !reflect.DeepEqual(got, []string{"new"}) {
		t.Fatalf("stale response overwrote newer snapshot: %v", got)
	}
}

func TestCloseIgnoresLateResolution(t *testing.T) {
	g := newGated()
	c := listsync.New(g.fetch)

	done := make(chan error, 1)
	go func() { done <- c.Refresh(context.Background()) }()
	g.next(t)

	c.Close()
	if err := <-done; !errors.Is(err, listsync.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if s := c.Snapshot(); len(s.Items) != 0 || s.State == listsync.Success {
		t.Errorf("closed controller changed state: %+v", s)
	}
	if err := c.Refresh(context.Background()); !errors.Is(err, listsync.ErrClosed) {
		t.Errorf("refresh after close: %v", err)
	}
}

func TestTimeout(t *testing.T) {
	g := newGated()
	c := listsync.New(g.fetch, listsync.WithTimeout(20*time.Millisecond))

	done := make(chan error, 1)
	go func() { done <- c.Refresh(context.Background()) }()
	g.next(t)

	select {
	case err := <-done:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("expected deadline exceeded, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("refresh hung past its timeout")
	}
	if c.Snapshot().State != listsync.Error {
		t.Error("timed out refresh should leave the error state")
	}
}

func TestMutate(t *testing.T) {
	var fetches atomic.Int32
	c := listsync.New(func(context.Context) ([]string, error) {
		fetches.Add(1)
		return []string{"a42"}, nil
	})
	ctx := context.Background()
	c.Refresh(ctx)
	fetches.Store(0)

	err := c.Mutate(ctx, func(context.Context) error {
		return exceptions.Server(409, "")
	}, "Appointment cancelled.", "Failed to cancel appointment.")
	if err == nil {
		t.Fatal("expected failure")
	}
	if fetches.Load() != 0 {
		t.Error("failed mutation must not refresh")
	}
	s := c.Snapshot()
	if s.Message == nil || s.Message.Text != "Failed to cancel appointment." {
		t.Errorf("message %+v", s.Message)
	}
	if !reflect.DeepEqual(s.Items, []string{"a42"}) {
		t.Errorf("items changed on failure: %v", s.Items)
	}

	if err := c.Mutate(ctx, func(context.Context) error { return nil }, "Appointment cancelled.", "x"); err != nil {
		t.Fatal(err)
	}
	if fetches.Load() != 1 {
		t.Errorf("expected exactly one refresh, got %d", fetches.Load())
	}
	if m := c.Snapshot().Message; m == nil || m.Kind != model.MessageSuccess {
		t.Errorf("message %+v", m)
	}
}

func TestUnauthorizedLeavesMessageAlone(t *testing.T) {
	c := listsync.New(func(context.Context) ([]string, error) {
		return nil, exceptions.Server(401, "jwt expired")
	})
	c.Refresh(context.Background())
	if m := c.Snapshot().Message; m != nil {
		t.Errorf("401 is handled by the session, got message %+v", m)
	}
}

type querySource struct {
	got  api.AppointmentQuery
	dtos []api.AppointmentDTO
}

func (q *querySource) Query(_ context.Context, query api.AppointmentQuery) ([]api.AppointmentDTO, error) {
	q.got = query
	return q.dtos, nil
}

func TestReloadAppointments(t *testing.T) {
	src := &querySource{dtos: []api.AppointmentDTO{{ID: "a1", ProviderID: []byte(`"p1"`)}}}
	c := listsync.New(listsync.Appointments(src, api.AppointmentQuery{}))
	c.Refresh(context.Background())

	q := api.AppointmentQuery{Scope: api.ScopeProvider, SubjectID: "p1"}
	if err := c.Reload(context.Background(), listsync.Appointments(src, q)); err != nil {
		t.Fatal(err)
	}
	if src.got != q {
		t.Errorf("query %+v", src.got)
	}
	items := c.Snapshot().Items
	if len(items) != 1 || items[0].Provider.ID != "p1" || items[0].Status != model.StatusPending {
		t.Errorf("mapped items %+v", items)
	}
}
