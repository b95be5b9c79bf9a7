package cache

import (
	"sync"
	"time"

	"github.com/John-Robertt/ytqr/internal/domain"
)

const (
	DefaultMaxEntries = 256
	DefaultTTL        = 30 * time.Minute
)

// Thumbnails 是进程内的缩略图缓存（serve 模式下避免重复下载）。
//
// 约束：
// - 只存在于内存，进程退出即丢弃
// - 条目数有上限；满了先淘汰最早写入的
// - 并发安全
type Thumbnails struct {
	mu      sync.Mutex
	ttl     time.Duration
	max     int
	now     func() time.Time
	entries map[domain.VideoID]entry
	order   []domain.VideoID
}

type entry struct {
	quality  domain.ThumbnailQuality
	data     []byte
	storedAt time.Time
}

func New(maxEntries int, ttl time.Duration) *Thumbnails {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Thumbnails{
		ttl:     ttl,
		max:     maxEntries,
		now:     time.Now,
		entries: make(map[domain.VideoID]entry, maxEntries),
	}
}

// Get 返回缓存的缩略图；过期条目视为未命中并移除。
func (c *Thumbnails) Get(id domain.VideoID) ([]byte, domain.ThumbnailQuality, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[id]
	if !ok {
		return nil, "", false
	}
	if c.now().Sub(e.storedAt) > c.ttl {
		c.removeLocked(id)
		return nil, "", false
	}
	return e.data, e.quality, true
}

func (c *Thumbnails) Put(id domain.VideoID, q domain.ThumbnailQuality, data []byte) {
	if id == "" || len(data) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[id]; ok {
		c.removeLocked(id)
	}
	for len(c.order) >= c.max {
		c.removeLocked(c.order[0])
	}
	c.entries[id] = entry{quality: q, data: data, storedAt: c.now()}
	c.order = append(c.order, id)
}

func (c *Thumbnails) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Thumbnails) removeLocked(id domain.VideoID) {
	delete(c.entries, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}
