package backlog_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/workscale/backlog"
	"github.com/workscale/backlog/broker"
	"github.com/workscale/backlog/inspect"
)

// fakeChannel reports scripted depths per queue.
type fakeChannel struct {
	depths map[string]int64
	errs   map[string]error
	calls  int
}

func (f *fakeChannel) QueueDepth(_ context.Context, queue string) (int64, error) {
	f.calls++
	if err := f.errs[queue]; err != nil {
		return 0, err
	}
	return f.depths[queue], nil
}

// fakeDeclarer exposes the passive-declare capability; queues absent from the
// map do not exist.
type fakeDeclarer struct {
	queues map[string]int64
}

func (f *fakeDeclarer) DeclarePassive(_ context.Context, queue string) (broker.QueueInfo, error) {
	n, ok := f.queues[queue]
	if !ok {
		return broker.QueueInfo{}, fmt.Errorf("fake declare %q: %w", queue, broker.ErrQueueNotFound)
	}
	return broker.QueueInfo{Name: queue, Messages: n}, nil
}

// fakeInspectClient wires a fixed topology: every binding and every task in
// tasks[status] resolves through bindings.
type fakeInspectClient struct {
	bindings map[string][]inspect.Binding
	tasks    map[inspect.Status]map[string][]inspect.Task

	activeQueuesCalls int
	tasksCalls        int
}

func (f *fakeInspectClient) ActiveQueues(_ context.Context) (map[string][]inspect.Binding, error) {
	f.activeQueuesCalls++
	return f.bindings, nil
}

func (f *fakeInspectClient) Tasks(_ context.Context, status inspect.Status) (map[string][]inspect.Task, error) {
	f.tasksCalls++
	return f.tasks[status], nil
}

// singleQueueClient builds a client with one worker bound to the given
// queues (exchange == routing key == queue, Celery default topology) and the
// given number of active tasks per queue.
func singleQueueClient(active map[string]int) *fakeInspectClient {
	bindings := make([]inspect.Binding, 0, len(active))
	tasks := make([]inspect.Task, 0)
	for queue, n := range active {
		bindings = append(bindings, inspect.Binding{Queue: queue, Exchange: queue, RoutingKey: queue})
		for range n {
			tasks = append(tasks, inspect.Task{
				Delivery: inspect.Delivery{Exchange: queue, RoutingKey: queue},
			})
		}
	}
	return &fakeInspectClient{
		bindings: map[string][]inspect.Binding{"worker-1": bindings},
		tasks: map[inspect.Status]map[string][]inspect.Task{
			inspect.StatusActive: {"worker-1": tasks},
		},
	}
}

// ---------------------------------------------------------------------------
// Construction
// ---------------------------------------------------------------------------

func TestNewProc_Validation(t *testing.T) {
	ch := &fakeChannel{}
	client := &fakeInspectClient{}

	tests := []struct {
		name    string
		proc    string
		opts    []backlog.ProcOption
		wantErr error
	}{
		{
			"missing name",
			"",
			[]backlog.ProcOption{backlog.WithChannel(ch)},
			backlog.ErrNoName,
		},
		{
			"missing channel",
			"worker",
			nil,
			backlog.ErrNoChannel,
		},
		{
			"empty queues",
			"worker",
			[]backlog.ProcOption{backlog.WithChannel(ch), backlog.WithQueues()},
			backlog.ErrNoQueues,
		},
		{
			"statuses without inspector",
			"worker",
			[]backlog.ProcOption{
				backlog.WithChannel(ch),
				backlog.WithInspectStatuses(inspect.StatusActive),
			},
			backlog.ErrNoInspector,
		},
		{
			"invalid status",
			"worker",
			[]backlog.ProcOption{
				backlog.WithChannel(ch),
				backlog.WithInspector(client),
				backlog.WithInspectStatuses(inspect.Status("bogus")),
			},
			inspect.ErrInvalidStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := backlog.NewProc(tt.proc, tt.opts...); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestNewProc_DefaultQueue(t *testing.T) {
	proc, err := backlog.NewProc("worker", backlog.WithChannel(&fakeChannel{}))
	if err != nil {
		t.Fatalf("NewProc: %v", err)
	}
	queues := proc.Queues()
	if len(queues) != 1 || queues[0] != backlog.DefaultQueue {
		t.Errorf("expected default queue list, got %v", queues)
	}
}

// ---------------------------------------------------------------------------
// Quantity, broker side
// ---------------------------------------------------------------------------

func TestQuantity_SumsQueueDepths(t *testing.T) {
	ch := &fakeChannel{depths: map[string]int64{"celery": 3, "emails": 4}}
	proc, err := backlog.NewProc("worker",
		backlog.WithQueues("celery", "emails"),
		backlog.WithChannel(ch),
	)
	if err != nil {
		t.Fatalf("NewProc: %v", err)
	}

	n, err := proc.Quantity(context.Background(), nil)
	if err != nil {
		t.Fatalf("Quantity: %v", err)
	}
	if n != 7 {
		t.Errorf("quantity: want 7, got %d", n)
	}
}

func TestQuantity_DeclarePath_MissingQueueContributesZero(t *testing.T) {
	ch, err := broker.Detect(&fakeDeclarer{queues: map[string]int64{"y": 5}})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	proc, err := backlog.NewProc("worker",
		backlog.WithQueues("x", "y"),
		backlog.WithChannel(ch),
	)
	if err != nil {
		t.Fatalf("NewProc: %v", err)
	}

	n, err := proc.Quantity(context.Background(), nil)
	if err != nil {
		t.Fatalf("Quantity must not fail on a not-yet-created queue: %v", err)
	}
	if n != 5 {
		t.Errorf("quantity: want 5, got %d", n)
	}
}

func TestQuantity_BrokerErrorPropagates(t *testing.T) {
	wantErr := errors.New("broker unreachable")
	ch := &fakeChannel{errs: map[string]error{"celery": wantErr}}
	proc, err := backlog.NewProc("worker",
		backlog.WithQueues("celery"),
		backlog.WithChannel(ch),
	)
	if err != nil {
		t.Fatalf("NewProc: %v", err)
	}

	if _, err := proc.Quantity(context.Background(), nil); !errors.Is(err, wantErr) {
		t.Fatalf("expected propagated broker error, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Quantity, inspection side
// ---------------------------------------------------------------------------

func TestQuantity_AddsInspectCounts(t *testing.T) {
	ch := &fakeChannel{depths: map[string]int64{"celery": 3}}
	client := singleQueueClient(map[string]int{"celery": 2, "other": 9})
	proc, err := backlog.NewProc("worker",
		backlog.WithQueues("celery"),
		backlog.WithChannel(ch),
		backlog.WithInspector(client),
		backlog.WithInspectStatuses(inspect.StatusActive),
	)
	if err != nil {
		t.Fatalf("NewProc: %v", err)
	}

	n, err := proc.Quantity(context.Background(), backlog.NewCache())
	if err != nil {
		t.Fatalf("Quantity: %v", err)
	}
	// 3 on the broker plus 2 active on workers; "other" is not this proc's.
	if n != 5 {
		t.Errorf("quantity: want 5, got %d", n)
	}
}

func TestQuantity_NilCacheSkipsInspection(t *testing.T) {
	ch := &fakeChannel{depths: map[string]int64{"celery": 3}}
	client := singleQueueClient(map[string]int{"celery": 2})
	proc, err := backlog.NewProc("worker",
		backlog.WithQueues("celery"),
		backlog.WithChannel(ch),
		backlog.WithInspector(client),
		backlog.WithInspectStatuses(inspect.StatusActive),
	)
	if err != nil {
		t.Fatalf("NewProc: %v", err)
	}

	n, err := proc.Quantity(context.Background(), nil)
	if err != nil {
		t.Fatalf("Quantity: %v", err)
	}
	if n != 3 {
		t.Errorf("quantity without cache: want 3, got %d", n)
	}
	if client.activeQueuesCalls != 0 || client.tasksCalls != 0 {
		t.Error("inspection must not run without a cache")
	}
}

func TestQuantity_QueueWithNoTasksContributesZero(t *testing.T) {
	ch := &fakeChannel{depths: map[string]int64{}}
	client := singleQueueClient(map[string]int{"celery": 1})
	proc, err := backlog.NewProc("worker",
		backlog.WithQueues("celery", "idle"),
		backlog.WithChannel(ch),
		backlog.WithInspector(client),
		backlog.WithInspectStatuses(inspect.StatusActive),
	)
	if err != nil {
		t.Fatalf("NewProc: %v", err)
	}

	n, err := proc.Quantity(context.Background(), backlog.NewCache())
	if err != nil {
		t.Fatalf("an inspected queue with no tasks must not fail: %v", err)
	}
	if n != 1 {
		t.Errorf("quantity: want 1, got %d", n)
	}
}

func TestQuantity_SharedCacheQueriesWorkersOnce(t *testing.T) {
	ch := &fakeChannel{}
	client := singleQueueClient(map[string]int{"celery": 1, "emails": 2})
	cache := backlog.NewCache()
	ctx := context.Background()

	for _, queues := range [][]string{{"celery"}, {"emails"}} {
		proc, err := backlog.NewProc("worker-"+queues[0],
			backlog.WithQueues(queues...),
			backlog.WithChannel(ch),
			backlog.WithInspector(client),
			backlog.WithInspectStatuses(inspect.StatusActive),
		)
		if err != nil {
			t.Fatalf("NewProc: %v", err)
		}
		if _, err := proc.Quantity(ctx, cache); err != nil {
			t.Fatalf("Quantity: %v", err)
		}
	}

	if client.activeQueuesCalls != 1 {
		t.Errorf("expected 1 routing-table resolution across procs, got %d", client.activeQueuesCalls)
	}
	if client.tasksCalls != 1 {
		t.Errorf("expected 1 worker query across procs, got %d", client.tasksCalls)
	}
}

func TestQuantity_DistinctClientsAreIndependent(t *testing.T) {
	ch := &fakeChannel{}
	clientA := singleQueueClient(map[string]int{"celery": 1})
	clientB := singleQueueClient(map[string]int{"celery": 4})
	cache := backlog.NewCache()
	ctx := context.Background()

	quantities := make(map[string]int64)
	for name, client := range map[string]*fakeInspectClient{"a": clientA, "b": clientB} {
		proc, err := backlog.NewProc(name,
			backlog.WithQueues("celery"),
			backlog.WithChannel(ch),
			backlog.WithInspector(client),
			backlog.WithInspectStatuses(inspect.StatusActive),
		)
		if err != nil {
			t.Fatalf("NewProc: %v", err)
		}
		n, err := proc.Quantity(ctx, cache)
		if err != nil {
			t.Fatalf("Quantity: %v", err)
		}
		quantities[name] = n
	}

	if quantities["a"] != 1 || quantities["b"] != 4 {
		t.Errorf("cross-contaminated inspectors: got %v", quantities)
	}
	if clientA.tasksCalls != 1 || clientB.tasksCalls != 1 {
		t.Errorf("each client must be queried exactly once, got %d/%d",
			clientA.tasksCalls, clientB.tasksCalls)
	}
}

func TestQuantity_SumsAcrossStatuses(t *testing.T) {
	ch := &fakeChannel{}
	client := singleQueueClient(map[string]int{"celery": 2})
	client.tasks[inspect.StatusReserved] = map[string][]inspect.Task{
		"worker-1": {
			{Delivery: inspect.Delivery{Exchange: "celery", RoutingKey: "celery"}},
			{Delivery: inspect.Delivery{Exchange: "celery", RoutingKey: "celery"}},
			{Delivery: inspect.Delivery{Exchange: "celery", RoutingKey: "celery"}},
		},
	}

	proc, err := backlog.NewProc("worker",
		backlog.WithQueues("celery"),
		backlog.WithChannel(ch),
		backlog.WithInspector(client),
		backlog.WithInspectStatuses(inspect.StatusActive, inspect.StatusReserved),
	)
	if err != nil {
		t.Fatalf("NewProc: %v", err)
	}

	n, err := proc.Quantity(context.Background(), backlog.NewCache())
	if err != nil {
		t.Fatalf("Quantity: %v", err)
	}
	if n != 5 {
		t.Errorf("quantity: want 5 (2 active + 3 reserved), got %d", n)
	}
}
