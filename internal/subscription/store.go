// Package subscription tracks which chat users receive new-notice alerts.
//
// The persisted form is a single mapping of user id → active flag. Users are
// never deleted, only toggled inactive, so a /stop followed by /start
// reactivates the same entry.
package subscription

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Store persists the full user → active mapping. Load on an empty backend
// returns an empty map; Save fully overwrites. Implementations are swappable
// without touching callers.
type Store interface {
	Load() (map[string]bool, error)
	Save(map[string]bool) error
}

// ─── JSON file backend ───────────────────────────────────────────────────────

// FileStore keeps the mapping in a single JSON object file.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by the JSON file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the mapping. A missing file means no users yet; a corrupt file
// is logged and treated as empty — losing the list is the accepted recovery,
// users re-subscribe with /start.
func (s *FileStore) Load() (map[string]bool, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]bool{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read users file %s: %w", s.path, err)
	}

	users := map[string]bool{}
	if err := json.Unmarshal(data, &users); err != nil {
		log.Printf("[subscription] corrupt users file %s: %v — starting empty", s.path, err)
		return map[string]bool{}, nil
	}
	return users, nil
}

// Save overwrites the file with the full mapping, via temp file + rename.
func (s *FileStore) Save(users map[string]bool) error {
	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal users: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write users file %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace users file %s: %w", s.path, err)
	}
	return nil
}

// ─── Redis backend ───────────────────────────────────────────────────────────

// RedisStore keeps the mapping in a Redis hash. Used when REDIS_URL is set.
type RedisStore struct {
	rdb *redis.Client
	key string
}

// NewRedisStore parses redisURL, verifies connectivity and returns the store.
func NewRedisStore(ctx context.Context, redisURL, key string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL(%q): %w", redisURL, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisStore{rdb: client, key: key}, nil
}

// Load reads the hash. Unparseable flag values are logged and skipped.
func (s *RedisStore) Load() (map[string]bool, error) {
	raw, err := s.rdb.HGetAll(context.Background(), s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis HGETALL %s: %w", s.key, err)
	}

	users := make(map[string]bool, len(raw))
	for id, v := range raw {
		active, err := strconv.ParseBool(v)
		if err != nil {
			log.Printf("[subscription] bad flag %q for user %s — skipping", v, id)
			continue
		}
		users[id] = active
	}
	return users, nil
}

// Save replaces the hash with the full mapping.
func (s *RedisStore) Save(users map[string]bool) error {
	ctx := context.Background()
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, s.key)
	if len(users) > 0 {
		fields := make(map[string]interface{}, len(users))
		for id, active := range users {
			fields[id] = strconv.FormatBool(active)
		}
		pipe.HSet(ctx, s.key, fields)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis save %s: %w", s.key, err)
	}
	return nil
}
