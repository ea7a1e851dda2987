package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/openutm/qualifier-host/internal/domain/model"
)

// Key layout for queue state. Run metadata lives in a hash per run; pending
// run ids wait in a list that workers pop from the blocking end.
const (
	jobKeyPrefix    = "qualifier:job:"
	queueKeyPrefix  = "qualifier:queue:"
	defaultQueue    = "qualifier"
	timestampLayout = time.RFC3339Nano
)

// RedisJobQueue implements the JobQueue port on a Redis list plus per-run
// hashes, in the manner of list-based job queues.
type RedisJobQueue struct {
	client redis.UniversalClient
	queue  string
	logger *slog.Logger
}

// RedisJobQueueOptions configures a RedisJobQueue.
type RedisJobQueueOptions struct {
	// Queue is the queue name; defaults to "qualifier".
	Queue string
	// Logger receives debug-level notes about swallowed lookup errors.
	Logger *slog.Logger
}

// NewRedisJobQueue creates a queue client backed by the given Redis client.
func NewRedisJobQueue(client redis.UniversalClient, opts RedisJobQueueOptions) *RedisJobQueue {
	queue := opts.Queue
	if queue == "" {
		queue = defaultQueue
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisJobQueue{client: client, queue: queue, logger: logger}
}

func (q *RedisJobQueue) jobKey(id string) string {
	return jobKeyPrefix + id
}

func (q *RedisJobQueue) queueKey() string {
	return queueKeyPrefix + q.queue
}

// Enqueue writes the run hash and pushes the id onto the pending list.
func (q *RedisJobQueue) Enqueue(ctx context.Context, run *model.TestRun) error {
	if run == nil || run.ID == "" {
		return ErrRunIDRequired
	}

	fields, err := runToFields(run)
	if err != nil {
		return err
	}

	pipe := q.client.TxPipeline()
	pipe.HSet(ctx, q.jobKey(run.ID), fields)
	pipe.LPush(ctx, q.queueKey(), run.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("enqueue run: %w", err)
	}
	return nil
}

// Reserve blocks up to timeout for the next pending run id. A timeout with no
// work surfaces as model.ErrNoRunsAvailable.
func (q *RedisJobQueue) Reserve(ctx context.Context, timeout time.Duration) (*model.TestRun, error) {
	res, err := q.client.BRPop(ctx, timeout, q.queueKey()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrNoRunsAvailable
		}
		return nil, fmt.Errorf("reserve run: %w", err)
	}
	// BRPOP returns [key, value].
	if len(res) != 2 || res[1] == "" {
		return nil, model.ErrNoRunsAvailable
	}

	run, err := q.fetch(ctx, res[1])
	if err != nil {
		// The id was queued but its metadata is gone; treat the entry as stale.
		q.logger.WarnContext(ctx, "reserved run id has no metadata", "run_id", res[1], "error", err)
		return nil, model.ErrNoRunsAvailable
	}
	return run, nil
}

// Fetch returns the run record for an id. Connectivity errors and unknown ids
// are normalized to the same ErrJobNotFound outcome; the underlying cause is
// logged at debug level only.
func (q *RedisJobQueue) Fetch(ctx context.Context, id string) (*model.TestRun, error) {
	if id == "" {
		return nil, ErrJobNotFound
	}
	run, err := q.fetch(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrJobNotFound) {
			q.logger.DebugContext(ctx, "job fetch error normalized to not found", "run_id", id, "error", err)
		}
		return nil, ErrJobNotFound
	}
	return run, nil
}

func (q *RedisJobQueue) fetch(ctx context.Context, id string) (*model.TestRun, error) {
	fields, err := q.client.HGetAll(ctx, q.jobKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall: %w", err)
	}
	if len(fields) == 0 {
		return nil, ErrJobNotFound
	}
	return fieldsToRun(id, fields)
}

// MarkRunning transitions a run to the running state and stamps the start time.
func (q *RedisJobQueue) MarkRunning(ctx context.Context, id string) error {
	return q.setStatus(ctx, id, map[string]any{
		"status":     string(model.TestRunStatusRunning),
		"started_at": time.Now().UTC().Format(timestampLayout),
	})
}

// Complete transitions a run to the completed state.
func (q *RedisJobQueue) Complete(ctx context.Context, id string) error {
	return q.setStatus(ctx, id, map[string]any{
		"status":   string(model.TestRunStatusCompleted),
		"ended_at": time.Now().UTC().Format(timestampLayout),
	})
}

// Fail transitions a run to the failed state, recording the error message.
func (q *RedisJobQueue) Fail(ctx context.Context, id string, msg string) error {
	return q.setStatus(ctx, id, map[string]any{
		"status":     string(model.TestRunStatusFailed),
		"ended_at":   time.Now().UTC().Format(timestampLayout),
		"last_error": msg,
	})
}

func (q *RedisJobQueue) setStatus(ctx context.Context, id string, fields map[string]any) error {
	if id == "" {
		return ErrRunIDRequired
	}
	if err := q.client.HSet(ctx, q.jobKey(id), fields).Err(); err != nil {
		return fmt.Errorf("update run status: %w", err)
	}
	return nil
}

// Health pings the backing store.
func (q *RedisJobQueue) Health(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

func runToFields(run *model.TestRun) (map[string]any, error) {
	inputFiles, err := json.Marshal(run.InputFiles)
	if err != nil {
		return nil, fmt.Errorf("marshal input files: %w", err)
	}

	enqueued := run.EnqueuedAt
	if enqueued.IsZero() {
		enqueued = time.Now().UTC()
	}
	status := run.Status
	if status == "" {
		status = model.TestRunStatusPending
	}

	return map[string]any{
		"status":      string(status),
		"config":      string(run.ConfigJSON),
		"auth_spec":   run.AuthSpec,
		"input_files": string(inputFiles),
		"debug":       strconv.FormatBool(run.Debug),
		"enqueued_at": enqueued.UTC().Format(timestampLayout),
	}, nil
}

func fieldsToRun(id string, fields map[string]string) (*model.TestRun, error) {
	run := &model.TestRun{
		ID:         id,
		Status:     model.TestRunStatus(fields["status"]),
		ConfigJSON: json.RawMessage(fields["config"]),
		AuthSpec:   fields["auth_spec"],
	}
	if !run.Status.Valid() {
		return nil, fmt.Errorf("run %s has invalid status %q", id, fields["status"])
	}

	if raw := fields["input_files"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &run.InputFiles); err != nil {
			return nil, fmt.Errorf("unmarshal input files: %w", err)
		}
	}
	if raw := fields["debug"]; raw != "" {
		debug, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("parse debug flag: %w", err)
		}
		run.Debug = debug
	}

	var err error
	if run.EnqueuedAt, err = parseTimestamp(fields["enqueued_at"]); err != nil {
		return nil, err
	}
	if run.StartedAt, err = parseOptionalTimestamp(fields["started_at"]); err != nil {
		return nil, err
	}
	if run.EndedAt, err = parseOptionalTimestamp(fields["ended_at"]); err != nil {
		return nil, err
	}
	if msg, ok := fields["last_error"]; ok && msg != "" {
		run.LastError = &msg
	}

	return run, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	ts, err := time.Parse(timestampLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", raw, err)
	}
	return ts, nil
}

func parseOptionalTimestamp(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	ts, err := parseTimestamp(raw)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}
