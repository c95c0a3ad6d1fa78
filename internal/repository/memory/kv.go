package memory

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"
)

// KV is an expiring key/value map implementing TokenBlocklist and ReportCache.
type KV struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]kvEntry
}

type kvEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewKV creates an empty map.
func NewKV() *KV {
	return &KV{now: time.Now, entries: make(map[string]kvEntry)}
}

// SetClock overrides the expiry clock.
func (k *KV) SetClock(now func() time.Time) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.now = now
}

func (k *KV) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	k.put("revoked:"+tokenID, []byte("1"), ttl)
	return nil
}

func (k *KV) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	_, ok := k.get("revoked:" + tokenID)
	return ok, nil
}

func (k *KV) Get(_ context.Context, key string, dest any) (bool, error) {
	raw, ok := k.get("report:" + key)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (k *KV) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	k.put("report:"+key, data, ttl)
	return nil
}

func (k *KV) Invalidate(_ context.Context) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	for key := range k.entries {
		if strings.HasPrefix(key, "report:") {
			delete(k.entries, key)
		}
	}
	return nil
}

func (k *KV) put(key string, value []byte, ttl time.Duration) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.entries[key] = kvEntry{value: value, expiresAt: k.now().Add(ttl)}
}

func (k *KV) get(key string) ([]byte, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	entry, ok := k.entries[key]
	if !ok {
		return nil, false
	}
	if !k.now().Before(entry.expiresAt) {
		delete(k.entries, key)
		return nil, false
	}
	return entry.value, true
}
