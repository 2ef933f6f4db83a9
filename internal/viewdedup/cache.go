package viewdedup

import (
	"strconv"
	"sync"
	"time"
)

const (
	// DefaultWindow — повторные просмотры одной пары (content, viewer)
	// внутри окна не считаются.
	DefaultWindow = 60 * time.Second

	// sweepThreshold — размер карты, после которого выполняется полная
	// линейная чистка устаревших записей. Это не LRU: чистка по размеру,
	// не по таймеру.
	sweepThreshold = 10000
)

// ViewerKey — идентичность зрителя: user id, иначе адрес клиента, иначе
// константа.
func ViewerKey(userID int64, remoteAddr string) string {
	if userID > 0 {
		return "u:" + strconv.FormatInt(userID, 10)
	}
	if remoteAddr != "" {
		return "ip:" + remoteAddr
	}
	return "unknown"
}

// Cache — процесс-локальный dedup просмотров. Горизонтальное
// масштабирование будет недосчитывать дубли между инстансами — известное
// ограничение, не баг.
type Cache struct {
	mu      sync.Mutex
	entries map[string]time.Time // (contentKey:viewerKey) -> момент последнего засчитанного просмотра
	now     func() time.Time
}

type Option func(*Cache)

// WithClock подменяет источник времени; тесты двигают окно без sleep-ов.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

func New(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ShouldCount возвращает true, если просмотр надо засчитать, и фиксирует
// «сейчас» для ключа. На отказ таймстемп не трогается: окно продлевается
// только засчитанным просмотром.
func (c *Cache) ShouldCount(contentKey, viewerKey string, window time.Duration) bool {
	if window <= 0 {
		window = DefaultWindow
	}
	key := contentKey + ":" + viewerKey
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if last, ok := c.entries[key]; ok && now.Sub(last) < window {
		return false
	}
	c.entries[key] = now
	if len(c.entries) > sweepThreshold {
		c.sweepLocked(now, window)
	}
	return true
}

func (c *Cache) sweepLocked(now time.Time, window time.Duration) {
	for key, ts := range c.entries {
		if now.Sub(ts) > window {
			delete(c.entries, key)
		}
	}
}

// Len — текущий размер карты (для тестов и метрик).
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
