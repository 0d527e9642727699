package cache

import (
	"sync"
	"time"
)

// GenericCache is a sync.Map-backed TTL cache with optional background
// expiry sweeping, grounded on the teacher's pkg/cache.GenericCache. Unlike
// the teacher's version it has no parent-cache fallback chain: a run's
// cache is flat, since this domain has no pipeline/module/task/step scope
// hierarchy to mirror.
type GenericCache struct {
	defaultTTL time.Duration
	store      sync.Map
	janitor    *janitor
}

// New creates a GenericCache. A zero cleanupInterval disables the
// background janitor; callers that only ever read within a single run
// (the common case for rundata) can pass 0 and rely on lazy expiry checks
// in Get instead.
func New(defaultTTL, cleanupInterval time.Duration) *GenericCache {
	c := &GenericCache{defaultTTL: defaultTTL}
	if cleanupInterval > 0 {
		c.janitor = runJanitor(c, cleanupInterval)
	}
	return c
}

// Close stops the background janitor, if one is running. Safe to call on a
// cache created with cleanupInterval 0.
func (c *GenericCache) Close() {
	stopJanitor(c)
}

func (c *GenericCache) Get(key string) (interface{}, bool) {
	val, ok := c.store.Load(key)
	if !ok {
		return nil, false
	}
	it := val.(item)
	if it.Expired() {
		c.store.Delete(key)
		return nil, false
	}
	return it.Value, true
}

func (c *GenericCache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, DefaultExpiration)
}

func (c *GenericCache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	if ttl == DefaultExpiration {
		ttl = c.defaultTTL
	}
	var expires int64
	if ttl > 0 {
		expires = time.Now().Add(ttl).UnixNano()
	}
	c.store.Store(key, item{Value: value, Expiration: expires})
}

func (c *GenericCache) Delete(key string) {
	c.store.Delete(key)
}

func (c *GenericCache) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

func (c *GenericCache) Keys() []string {
	var keys []string
	c.store.Range(func(k, v interface{}) bool {
		if it := v.(item); !it.Expired() {
			keys = append(keys, k.(string))
		}
		return true
	})
	return keys
}

func (c *GenericCache) Count() int {
	n := 0
	c.store.Range(func(_, v interface{}) bool {
		if it := v.(item); !it.Expired() {
			n++
		}
		return true
	})
	return n
}

func (c *GenericCache) Flush() {
	c.store = sync.Map{}
}

func (c *GenericCache) GetOrSet(key string, value interface{}) (interface{}, bool) {
	if existing, ok := c.store.Load(key); ok {
		if it := existing.(item); !it.Expired() {
			return it.Value, true
		}
	}
	var expires int64
	if c.defaultTTL > 0 {
		expires = time.Now().Add(c.defaultTTL).UnixNano()
	}
	newItem := item{Value: value, Expiration: expires}
	actual, loaded := c.store.LoadOrStore(key, newItem)
	if loaded {
		return actual.(item).Value, true
	}
	return newItem.Value, false
}

func (c *GenericCache) Range(f func(key string, value interface{}) bool) {
	c.store.Range(func(k, v interface{}) bool {
		key, ok := k.(string)
		if !ok {
			return true
		}
		it, ok := v.(item)
		if !ok || it.Expired() {
			return true
		}
		return f(key, it.Value)
	})
}

func (c *GenericCache) deleteExpired() {
	c.store.Range(func(k, v interface{}) bool {
		if v.(item).Expired() {
			c.store.Delete(k)
		}
		return true
	})
}
