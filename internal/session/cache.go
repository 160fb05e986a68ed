package session

import (
	"sync"

	"github.com/elliotchance/orderedmap/v3"
	"github.com/vhqueiroz/stickerd/internal/wa"
)

// DefaultCacheCapacity bounds the in-memory message cache.
const DefaultCacheCapacity = 5000

// MessageCache is a fixed-capacity cache of recently observed messages keyed
// by (chat id, message id). Eviction is strictly FIFO on insertion order;
// neither reads nor re-insertion of an existing key refresh position.
type MessageCache struct {
	mu       sync.Mutex
	capacity int
	entries  *orderedmap.OrderedMap[string, *wa.Message]
}

// NewMessageCache creates a cache holding at most capacity entries.
// Non-positive capacity falls back to DefaultCacheCapacity.
func NewMessageCache(capacity int) *MessageCache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &MessageCache{
		capacity: capacity,
		entries:  orderedmap.NewOrderedMap[string, *wa.Message](),
	}
}

func cacheKey(chatID, messageID string) string {
	return chatID + ":" + messageID
}

// Put stores a message, evicting the oldest-inserted entry when full.
func (c *MessageCache) Put(msg *wa.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Set(cacheKey(msg.ChatID, msg.MessageID), msg)
	for c.entries.Len() > c.capacity {
		front := c.entries.Front()
		if front == nil {
			break
		}
		c.entries.Delete(front.Key)
	}
}

// Get returns a cached message, if present.
func (c *MessageCache) Get(chatID, messageID string) (*wa.Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Get(cacheKey(chatID, messageID))
}

// Len returns the number of cached messages.
func (c *MessageCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}
