package metadata

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// responseCache persists provider responses as JSON files so restarts do not
// re-issue identical TMDB calls inside the TTL window. Catalog state itself is
// never persisted; only provider payloads are.
type responseCache struct {
	dir string
	ttl time.Duration
}

func newResponseCache(dir string, ttl time.Duration) *responseCache {
	return &responseCache{dir: dir, ttl: ttl}
}

// cacheKey builds a stable filename-safe key from its parts.
func cacheKey(parts ...string) string {
	h := sha1.Sum([]byte(strings.Join(parts, ":")))
	return hex.EncodeToString(h[:])
}

// effectiveTTL staggers expiry per key by up to 25% of the base TTL so a
// burst of entries cached together does not expire together.
func (c *responseCache) effectiveTTL(key string) time.Duration {
	if c.ttl <= 0 {
		return c.ttl
	}
	h := fnv.New64a()
	h.Write([]byte(key))
	jitter := time.Duration(h.Sum64() % uint64(c.ttl/4+1))
	return c.ttl + jitter
}

func (c *responseCache) get(key string, v any) bool {
	if key == "" {
		return false
	}
	path := filepath.Join(c.dir, key+".json")
	fi, err := os.Stat(path)
	if err != nil {
		return false
	}
	if time.Since(fi.ModTime()) > c.effectiveTTL(key) {
		_ = os.Remove(path)
		return false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, v) == nil
}

// set writes the value atomically (temp file + rename) so a concurrent get
// never observes a partial payload. Failures are swallowed; callers fall
// back to a live fetch on the next miss.
func (c *responseCache) set(key string, v any) {
	if key == "" {
		return
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	path := filepath.Join(c.dir, key+".json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
	}
}
