package report

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrNoReport = errors.New("no report generated yet")

// Stored wraps a report with the run that produced it.
type Stored struct {
	JobID       string    `json:"job_id,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
	Report      Report    `json:"report"`
}

type Store interface {
	Save(ctx context.Context, s Stored) error
	Latest(ctx context.Context) (*Stored, error)
	History(ctx context.Context, n int) ([]Stored, error)
}

const (
	latestKey  = "library:report:latest"
	historyKey = "library:report:history"
)

// RedisStore keeps the latest report plus a capped history list, the role
// the result backend played for the old task queue.
type RedisStore struct {
	rdb     *redis.Client
	history int
}

func NewRedisStore(rdb *redis.Client, history int) *RedisStore {
	if history <= 0 {
		history = 1
	}
	return &RedisStore{rdb: rdb, history: history}
}

func (s *RedisStore) Save(ctx context.Context, st Stored) error {
	b, err := json.Marshal(st)
	if err != nil {
		return err
	}
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, latestKey, b, 0)
	pipe.LPush(ctx, historyKey, b)
	pipe.LTrim(ctx, historyKey, 0, int64(s.history-1))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Latest(ctx context.Context) (*Stored, error) {
	b, err := s.rdb.Get(ctx, latestKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoReport
	}
	if err != nil {
		return nil, err
	}
	var st Stored
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// History returns up to n stored reports, newest first.
func (s *RedisStore) History(ctx context.Context, n int) ([]Stored, error) {
	if n <= 0 || n > s.history {
		n = s.history
	}
	raw, err := s.rdb.LRange(ctx, historyKey, 0, int64(n-1)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}
	out := make([]Stored, 0, len(raw))
	for _, r := range raw {
		var st Stored
		if err := json.Unmarshal([]byte(r), &st); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

// MemoryStore is the Redis-less fallback.
type MemoryStore struct {
	mu      sync.RWMutex
	items   []Stored // newest first
	history int
}

func NewMemoryStore(history int) *MemoryStore {
	if history <= 0 {
		history = 1
	}
	return &MemoryStore{history: history}
}

func (m *MemoryStore) Save(_ context.Context, st Stored) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append([]Stored{st}, m.items...)
	if len(m.items) > m.history {
		m.items = m.items[:m.history]
	}
	return nil
}

func (m *MemoryStore) Latest(_ context.Context) (*Stored, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.items) == 0 {
		return nil, ErrNoReport
	}
	st := m.items[0]
	return &st, nil
}

func (m *MemoryStore) History(_ context.Context, n int) ([]Stored, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if n <= 0 || n > len(m.items) {
		n = len(m.items)
	}
	return append([]Stored(nil), m.items[:n]...), nil
}
