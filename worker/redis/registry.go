// Package redis implements the worker registry backed by Redis. Workers are
// stored as Hashes with a Set for enumeration; task snapshots are
// JSON-encoded strings keyed per worker and status.
//
// Usage:
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	reg := redisworker.New(client)
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/workscale/backlog/id"
	"github.com/workscale/backlog/inspect"
	"github.com/workscale/backlog/worker"
)

// Compile-time interface checks.
var (
	_ worker.Registry = (*Registry)(nil)
	_ inspect.Client  = (*Registry)(nil)
)

// Option configures the Registry.
type Option func(*Registry)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// Registry implements worker.Registry and inspect.Client backed by Redis.
type Registry struct {
	client goredis.UniversalClient
	logger *slog.Logger
}

// New creates a Registry over an existing Redis client. The client's
// lifecycle stays with the caller.
func New(client goredis.UniversalClient, opts ...Option) *Registry {
	r := &Registry{
		client: client,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Ping verifies connectivity.
func (r *Registry) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("backlog/redis: ping: %w", err)
	}
	return nil
}

// Register adds a worker to the registry.
func (r *Registry) Register(ctx context.Context, w *worker.Worker) error {
	wID := w.ID.String()

	fields, err := workerToMap(w)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, workerKey(wID), fields)
	pipe.SAdd(ctx, workerIDsKey, wID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("backlog/redis: register worker: %w", err)
	}
	return nil
}

// Deregister removes a worker and its task snapshots.
func (r *Registry) Deregister(ctx context.Context, workerID id.ID) error {
	wID := workerID.String()

	exists, err := r.client.Exists(ctx, workerKey(wID)).Result()
	if err != nil {
		return fmt.Errorf("backlog/redis: deregister exists: %w", err)
	}
	if exists == 0 {
		return worker.ErrNotFound
	}

	keys := []string{workerKey(wID)}
	for _, status := range inspect.Statuses {
		keys = append(keys, tasksKey(wID, status))
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, keys...)
	pipe.SRem(ctx, workerIDsKey, wID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("backlog/redis: deregister worker: %w", err)
	}
	return nil
}

// Heartbeat updates the worker's last-seen timestamp.
func (r *Registry) Heartbeat(ctx context.Context, workerID id.ID) error {
	key := workerKey(workerID.String())

	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("backlog/redis: heartbeat exists: %w", err)
	}
	if exists == 0 {
		return worker.ErrNotFound
	}

	err = r.client.HSet(ctx, key,
		"last_seen", time.Now().UTC().Format(time.RFC3339Nano),
	).Err()
	if err != nil {
		return fmt.Errorf("backlog/redis: heartbeat worker: %w", err)
	}
	return nil
}

// SetTasks replaces the worker's task snapshot for one status.
func (r *Registry) SetTasks(ctx context.Context, workerID id.ID, status inspect.Status, tasks []inspect.Task) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", inspect.ErrInvalidStatus, status)
	}

	wID := workerID.String()
	exists, err := r.client.Exists(ctx, workerKey(wID)).Result()
	if err != nil {
		return fmt.Errorf("backlog/redis: set tasks exists: %w", err)
	}
	if exists == 0 {
		return worker.ErrNotFound
	}

	data, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("backlog/redis: marshal tasks: %w", err)
	}
	if err := r.client.Set(ctx, tasksKey(wID, status), data, 0).Err(); err != nil {
		return fmt.Errorf("backlog/redis: set tasks: %w", err)
	}
	return nil
}

// Workers returns all registered workers.
func (r *Registry) Workers(ctx context.Context) ([]*worker.Worker, error) {
	ids, err := r.client.SMembers(ctx, workerIDsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("backlog/redis: list workers: %w", err)
	}

	workers := make([]*worker.Worker, 0, len(ids))
	for _, wID := range ids {
		vals, getErr := r.client.HGetAll(ctx, workerKey(wID)).Result()
		if getErr != nil || len(vals) == 0 {
			continue
		}
		w, convErr := mapToWorker(vals)
		if convErr != nil {
			r.logger.Warn("skipping malformed worker record",
				slog.String("worker_id", wID),
				slog.String("error", convErr.Error()),
			)
			continue
		}
		workers = append(workers, w)
	}
	return workers, nil
}

// ActiveQueues returns the consumer bindings of every live worker, keyed by
// worker ID.
func (r *Registry) ActiveQueues(ctx context.Context) (map[string][]inspect.Binding, error) {
	workers, err := r.Workers(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]inspect.Binding, len(workers))
	for _, w := range workers {
		if w.State == worker.StateDead {
			continue
		}
		out[w.ID.String()] = w.Bindings
	}
	return out, nil
}

// Tasks returns every live worker's task snapshot for the given status,
// keyed by worker ID.
func (r *Registry) Tasks(ctx context.Context, status inspect.Status) (map[string][]inspect.Task, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", inspect.ErrInvalidStatus, status)
	}

	workers, err := r.Workers(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]inspect.Task, len(workers))
	for _, w := range workers {
		if w.State == worker.StateDead {
			continue
		}
		wID := w.ID.String()

		data, getErr := r.client.Get(ctx, tasksKey(wID, status)).Bytes()
		if getErr != nil {
			if errors.Is(getErr, goredis.Nil) {
				// No snapshot published yet for this status.
				out[wID] = nil
				continue
			}
			return nil, fmt.Errorf("backlog/redis: get %s tasks: %w", status, getErr)
		}

		var tasks []inspect.Task
		if err := json.Unmarshal(data, &tasks); err != nil {
			return nil, fmt.Errorf("backlog/redis: decode %s tasks for %s: %w", status, wID, err)
		}
		out[wID] = tasks
	}
	return out, nil
}

// ── Hash mapping ──

func workerToMap(w *worker.Worker) (map[string]any, error) {
	bindings, err := json.Marshal(w.Bindings)
	if err != nil {
		return nil, fmt.Errorf("backlog/redis: marshal bindings: %w", err)
	}

	state := w.State
	if state == "" {
		state = worker.StateActive
	}
	createdAt := w.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	lastSeen := w.LastSeen
	if lastSeen.IsZero() {
		lastSeen = createdAt
	}

	return map[string]any{
		"id":         w.ID.String(),
		"hostname":   w.Hostname,
		"bindings":   string(bindings),
		"state":      string(state),
		"last_seen":  lastSeen.Format(time.RFC3339Nano),
		"created_at": createdAt.Format(time.RFC3339Nano),
	}, nil
}

func mapToWorker(vals map[string]string) (*worker.Worker, error) {
	wID, err := id.ParseWorkerID(vals["id"])
	if err != nil {
		return nil, err
	}

	var bindings []inspect.Binding
	if raw := vals["bindings"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &bindings); err != nil {
			return nil, fmt.Errorf("backlog/redis: decode bindings: %w", err)
		}
	}

	lastSeen, err := time.Parse(time.RFC3339Nano, vals["last_seen"])
	if err != nil {
		return nil, fmt.Errorf("backlog/redis: parse last_seen: %w", err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, vals["created_at"])
	if err != nil {
		return nil, fmt.Errorf("backlog/redis: parse created_at: %w", err)
	}

	return &worker.Worker{
		ID:        wID,
		Hostname:  vals["hostname"],
		Bindings:  bindings,
		State:     worker.State(vals["state"]),
		LastSeen:  lastSeen,
		CreatedAt: createdAt,
	}, nil
}
