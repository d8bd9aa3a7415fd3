package cache

import (
	"sync"
	"time"
)

// DefaultTTL adalah Time-To-Live default untuk item cache.
const DefaultTTL = 5 * time.Minute

type CacheItem struct {
	Value      interface{}
	Expiration int64
}

type Cache struct {
	items map[string]*CacheItem
	mutex sync.RWMutex
	stop  chan struct{}
	once  sync.Once
}

func NewCache() *Cache {
	cache := &Cache{
		items: make(map[string]*CacheItem),
		stop:  make(chan struct{}),
	}
	go cache.cleanup()
	return cache
}

// Set menyimpan value dengan TTL tertentu. Duration <= 0 berarti item tidak
// pernah kedaluwarsa otomatis.
func (c *Cache) Set(key string, value interface{}, duration time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	var expiration int64
	if duration > 0 {
		expiration = time.Now().Add(duration).UnixNano()
	}

	c.items[key] = &CacheItem{
		Value:      value,
		Expiration: expiration,
	}
}

func (c *Cache) Get(key string) (interface{}, bool) {
	c.mutex.RLock()
	item, exists := c.items[key]
	c.mutex.RUnlock() // Lepas read lock sebelum potensi delete

	if !exists {
		return nil, false
	}

	if item.Expiration > 0 && time.Now().UnixNano() > item.Expiration {
		c.mutex.Lock()
		// Periksa lagi untuk menghindari race dengan Set yang baru
		if currentItem, stillExists := c.items[key]; stillExists && currentItem.Expiration == item.Expiration {
			delete(c.items, key)
		}
		c.mutex.Unlock()
		return nil, false
	}

	return item.Value, true
}

func (c *Cache) Delete(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.items, key)
}

func (c *Cache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.items = make(map[string]*CacheItem)
}

func (c *Cache) Count() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.items)
}

// Stop menghentikan goroutine cleanup. Aman dipanggil lebih dari sekali.
func (c *Cache) Stop() {
	c.once.Do(func() {
		close(c.stop)
	})
}

func (c *Cache) cleanup() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.mutex.Lock()
			now := time.Now().UnixNano()
			for key, item := range c.items {
				if item.Expiration > 0 && now > item.Expiration {
					delete(c.items, key)
				}
			}
			c.mutex.Unlock()
		}
	}
}
