package cache

import (
	"strings"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

// MemcacheService implements CacheService using memcache
type MemcacheService struct {
	client *memcache.Client
}

// NewMemcacheService creates a new memcache service; serverAddrs may be a
// comma separated list
func NewMemcacheService(serverAddrs string) *MemcacheService {
	var servers []string
	for _, s := range strings.Split(serverAddrs, ",") {
		if s = strings.TrimSpace(s); s != "" {
			servers = append(servers, s)
		}
	}
	client := memcache.New(servers...)
	client.Timeout = 500 * time.Millisecond
	return &MemcacheService{client: client}
}

// Get retrieves a value from memcache
func (m *MemcacheService) Get(key string) ([]byte, error) {
	item, err := m.client.Get(key)
	if err != nil {
		return nil, err
	}
	return item.Value, nil
}

// Set stores a value in memcache with an expiration time
func (m *MemcacheService) Set(key string, value []byte, expiration time.Duration) error {
	return m.client.Set(&memcache.Item{
		Key:        key,
		Value:      value,
		Expiration: int32(expiration.Seconds()),
	})
}

// Delete removes a value from memcache
func (m *MemcacheService) Delete(key string) error {
	return m.client.Delete(key)
}

// Ping checks that every server answers
func (m *MemcacheService) Ping() error {
	return m.client.Ping()
}
