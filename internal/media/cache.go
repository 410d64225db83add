// Package media holds synthesized audio for playback and resolves local
// audio files for the media proxy.
package media

import (
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	DefaultCacheSize = 64
	DefaultCacheTTL  = 10 * time.Minute
)

// Clip is one cached audio payload.
type Clip struct {
	Data     []byte
	MimeType string
}

// Cache keeps recent clips in memory, evicting by age and count.
type Cache struct {
	lru *expirable.LRU[string, Clip]
}

func NewCache(size int, ttl time.Duration) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{lru: expirable.NewLRU[string, Clip](size, nil, ttl)}
}

// Put stores a clip and returns its id.
func (c *Cache) Put(data []byte, mimeType string) string {
	id := uuid.NewString()
	c.lru.Add(id, Clip{Data: data, MimeType: mimeType})
	return id
}

func (c *Cache) Get(id string) (Clip, bool) { return c.lru.Get(id) }

func (c *Cache) Len() int { return c.lru.Len() }
