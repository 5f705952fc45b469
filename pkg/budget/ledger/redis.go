package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
)

// DefaultRedisPrefix namespaces ledger keys.
const DefaultRedisPrefix = "procurement:ledger"

// RedisLedger implements Ledger on Redis. Each entry is a hash; a set holds
// the known department ids. CompareAndSwap uses WATCH/MULTI so concurrent
// writers from any process are detected.
type RedisLedger struct {
	client *redis.Client
	prefix string
	owned  bool
}

// RedisConfig configures the Redis ledger.
type RedisConfig struct {
	// URL is a redis:// connection URL.
	URL string

	// Prefix namespaces keys. Default: procurement:ledger
	Prefix string

	// DialTimeout bounds the initial connection check. Default: 5 seconds
	DialTimeout time.Duration
}

// NewRedisLedger connects to Redis and verifies the connection.
func NewRedisLedger(cfg RedisConfig) (*RedisLedger, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 5 * time.Second
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	l := NewRedisLedgerWithClient(client, cfg.Prefix)
	l.owned = true
	return l, nil
}

// NewRedisLedgerWithClient wraps an existing client. Close does not close
// a client passed in this way.
func NewRedisLedgerWithClient(client *redis.Client, prefix string) *RedisLedger {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisLedger{client: client, prefix: prefix}
}

func (l *RedisLedger) key(departmentID string) string {
	return l.prefix + ":dept:" + departmentID
}

func (l *RedisLedger) indexKey() string {
	return l.prefix + ":departments"
}

// Get returns the entry for a department, or nil if none exists.
func (l *RedisLedger) Get(ctx context.Context, departmentID string) (*Entry, error) {
	if departmentID == "" {
		return nil, fmt.Errorf("department id cannot be empty")
	}

	fields, err := l.client.HGetAll(ctx, l.key(departmentID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger entry: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return decodeEntry(departmentID, fields)
}

// CompareAndSwap stores next if the stored version equals expected.
func (l *RedisLedger) CompareAndSwap(ctx context.Context, expected int64, next Entry) (*Entry, error) {
	if next.DepartmentID == "" {
		return nil, fmt.Errorf("department id cannot be empty")
	}
	if next.UpdatedAt.IsZero() {
		next.UpdatedAt = time.Now()
	}
	next.Version = expected + 1
	key := l.key(next.DepartmentID)

	err := l.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.HGet(ctx, key, "version").Int64()
		if errors.Is(err, redis.Nil) {
			current = 0
		} else if err != nil {
			return err
		}
		if current != expected {
			return fmt.Errorf("%w: department %s at version %d, expected %d",
				ErrVersionMismatch, next.DepartmentID, current, expected)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, map[string]interface{}{
				"period":         next.Period,
				"spent":          next.Spent.String(),
				"version":        next.Version,
				"last_commit_id": next.LastCommitID,
				"updated_at":     next.UpdatedAt.UnixNano(),
			})
			pipe.SAdd(ctx, l.indexKey(), next.DepartmentID)
			return nil
		})
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return nil, fmt.Errorf("%w: department %s modified concurrently", ErrVersionMismatch, next.DepartmentID)
	}
	if err != nil {
		if errors.Is(err, ErrVersionMismatch) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to write ledger entry: %w", err)
	}
	return &next, nil
}

// List returns all entries ordered by department id.
func (l *RedisLedger) List(ctx context.Context) ([]*Entry, error) {
	ids, err := l.client.SMembers(ctx, l.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	sort.Strings(ids)

	entries := make([]*Entry, 0, len(ids))
	for _, id := range ids {
		e, err := l.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if e != nil {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// Close closes the client if the ledger created it.
func (l *RedisLedger) Close() error {
	if l.owned {
		return l.client.Close()
	}
	return nil
}

func decodeEntry(departmentID string, fields map[string]string) (*Entry, error) {
	e := &Entry{
		DepartmentID: departmentID,
		Period:       fields["period"],
		LastCommitID: fields["last_commit_id"],
	}

	spent, err := decimal.NewFromString(fields["spent"])
	if err != nil {
		return nil, fmt.Errorf("invalid spent value for department %s: %w", departmentID, err)
	}
	e.Spent = spent

	if e.Version, err = strconv.ParseInt(fields["version"], 10, 64); err != nil {
		return nil, fmt.Errorf("invalid version for department %s: %w", departmentID, err)
	}
	if ts, err := strconv.ParseInt(fields["updated_at"], 10, 64); err == nil {
		e.UpdatedAt = time.Unix(0, ts)
	}
	return e, nil
}
