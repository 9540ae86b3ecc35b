package lang

import (
	"bytes"
	"context"
	"encoding/gob"
	"log/slog"
	"strconv"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/zeebo/xxh3"
)

// DefaultCacheSize is the capacity used by [NewCache] for sizes below 1.
const DefaultCacheSize = 256

// Cache holds recently parsed queries keyed by source text and parse
// options. A Cache is safe for concurrent use; parsed queries are shared
// read-only between evaluations.
type Cache struct {
	entries *lru.Cache[uint64, *cacheEntry]
}

// cacheEntry parses its source at most once. Parse errors are cached too,
// since parsing is deterministic.
type cacheEntry struct {
	text     string
	maxDepth int

	once  sync.Once
	query *Query
	err   error
}

// NewCache returns a Cache that holds at most size parsed queries.
func NewCache(size int) (*Cache, error) {
	if size < 1 {
		size = DefaultCacheSize
	}

	entries, err := lru.New[uint64, *cacheEntry](size)
	if err != nil {
		return nil, WrapError(err).With(slog.Int("size", size))
	}

	return &Cache{entries: entries}, nil
}

// Parse parses text through the cache.
func (c *Cache) Parse(ctx context.Context, text string, opts ...Option) (*Query, error) {
	return c.parse(ctx, text, makeOptions(opts...))
}

// Len returns the number of cached queries.
func (c *Cache) Len() int { return c.entries.Len() }

// Purge removes all cached queries.
func (c *Cache) Purge() { c.entries.Purge() }

func (c *Cache) parse(ctx context.Context, text string, o options) (*Query, error) {
	sourceHash := xxh3.HashString(text)
	optsHash := hashOptions(o)
	key := sourceHash ^ optsHash

	entry, hit := c.entries.Get(key)
	if !hit {
		fresh := &cacheEntry{text: text, maxDepth: o.maxDepth}

		prev, found, _ := c.entries.PeekOrAdd(key, fresh)
		if entry = fresh; found {
			entry = prev
		}
	}

	o.logger.TraceContext(ctx, "cache lookup",
		slog.String("source_hash", strconv.FormatUint(sourceHash, 16)),
		slog.String("opts_hash", strconv.FormatUint(optsHash, 16)),
		slog.Bool("cache_hit", hit),
	)

	// Colliding keys are parsed without the cache.
	if entry.text != text || entry.maxDepth != o.maxDepth {
		o.logger.DebugContext(ctx, "cache key collision",
			slog.String("key", strconv.FormatUint(key, 16)),
		)

		return parse(ctx, text, o)
	}

	entry.once.Do(func() {
		entry.query, entry.err = parse(ctx, text, o)
	})

	return entry.query, entry.err
}

// hashOptions encodes the options that affect parsing using gob and hashes
// them with xxh3. The logger and evaluation-only settings are excluded.
func hashOptions(o options) uint64 {
	var buf bytes.Buffer

	_ = gob.NewEncoder(&buf).Encode(o.maxDepth)

	return xxh3.Hash(buf.Bytes())
}
