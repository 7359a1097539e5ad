package i18ncache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/vnykmshr/i18ncache-go/internal/entry"
	"github.com/vnykmshr/i18ncache-go/pkg/compression"
)

// persistTimeout bounds each snapshot read or write against the store.
const persistTimeout = 5 * time.Second

const snapshotVersion = 1

// snapshotEntry is the persisted form of one cache entry. Only message
// bundles are persisted; entries holding other payload types stay
// in-memory only.
type snapshotEntry struct {
	Key       string        `json:"key"`
	Data      Messages      `json:"data"`
	Timestamp time.Time     `json:"timestamp"`
	TTL       time.Duration `json:"ttl"`
	Hits      int64         `json:"hits"`
}

// snapshotEnvelope wraps the serialized entry list so the restore path
// knows whether and how the payload was compressed.
type snapshotEnvelope struct {
	Version    int       `json:"version"`
	SavedAt    time.Time `json:"saved_at"`
	Algorithm  string    `json:"algorithm"`
	Compressed bool      `json:"compressed"`
	Payload    []byte    `json:"payload"`
}

// persistSnapshot mirrors the current entry set to the persistence store
// as one blob under the storage key. Persistence is opportunistic:
// failures are logged and the cache keeps serving from memory.
func (c *Cache) persistSnapshot() {
	if !c.config.EnablePersistence || c.config.Persistence == nil {
		return
	}

	entries := c.collectSnapshotEntries()

	payload, compressed, err := compression.SerializeAndCompress(entries, c.compressor, c.config.Compression.MinSize)
	if err != nil {
		c.logger.Warn().Err(NewSerializationError("snapshot serialize failed", err)).
			Msg("skipping cache persistence")
		return
	}

	blob, err := json.Marshal(snapshotEnvelope{
		Version:    snapshotVersion,
		SavedAt:    time.Now(),
		Algorithm:  c.compressor.Name(),
		Compressed: compressed,
		Payload:    payload,
	})
	if err != nil {
		c.logger.Warn().Err(NewSerializationError("snapshot envelope failed", err)).
			Msg("skipping cache persistence")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := c.config.Persistence.Set(ctx, c.config.StorageKey, blob); err != nil {
		c.logger.Warn().Err(NewStorageError("snapshot write failed", err)).
			Str("storage_key", c.config.StorageKey).
			Msg("cache persistence degraded")
	}
}

func (c *Cache) collectSnapshotEntries() []snapshotEntry {
	keys := c.strategy.Keys()
	entries := make([]snapshotEntry, 0, len(keys))
	for _, key := range keys {
		e, ok := c.strategy.Peek(key)
		if !ok || e.IsExpired() {
			continue
		}
		msgs, ok := asMessages(e.Data)
		if !ok {
			continue
		}
		entries = append(entries, snapshotEntry{
			Key:       key,
			Data:      msgs,
			Timestamp: e.Timestamp,
			TTL:       e.TTLValue,
			Hits:      e.Hits(),
		})
	}
	return entries
}

// restoreSnapshot loads the persisted entry set at construction time.
// Any failure degrades to an empty cache.
func (c *Cache) restoreSnapshot() {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	blob, found, err := c.config.Persistence.Get(ctx, c.config.StorageKey)
	if err != nil {
		c.logger.Warn().Err(NewStorageError("snapshot read failed", err)).
			Str("storage_key", c.config.StorageKey).
			Msg("starting with an empty cache")
		return
	}
	if !found {
		return
	}

	var envelope snapshotEnvelope
	if err := json.Unmarshal(blob, &envelope); err != nil {
		c.logger.Warn().Err(NewSerializationError("snapshot envelope decode failed", err)).
			Msg("starting with an empty cache")
		return
	}

	// Decompress with whatever algorithm wrote the snapshot, which may
	// differ from the current config after a reconfiguration.
	decompressor := c.compressor
	if envelope.Compressed && envelope.Algorithm != c.compressor.Name() {
		alt, err := compression.NewCompressor(&compression.Config{
			Enabled:   true,
			Algorithm: compression.Algorithm(envelope.Algorithm),
			Level:     -1,
		})
		if err != nil {
			c.logger.Warn().Str("algorithm", envelope.Algorithm).
				Msg("snapshot uses an unknown compression algorithm; starting with an empty cache")
			return
		}
		decompressor = alt
	}

	var entries []snapshotEntry
	if err := compression.DecompressAndDeserialize(envelope.Payload, envelope.Compressed, decompressor, &entries); err != nil {
		c.logger.Warn().Err(NewSerializationError("snapshot decode failed", err)).
			Msg("starting with an empty cache")
		return
	}

	restored := 0
	now := time.Now()
	for _, se := range entries {
		e := entry.Restore(se.Data, se.Timestamp, se.TTL, se.Hits)
		if e.IsExpiredAt(now) {
			continue
		}
		c.strategy.Add(se.Key, e)
		restored++
	}
	c.updateKeyCount()

	c.logger.Debug().
		Int("restored", restored).
		Time("saved_at", envelope.SavedAt).
		Msg("cache snapshot restored")
}

func asMessages(data any) (Messages, bool) {
	switch v := data.(type) {
	case Messages:
		return v, true
	case map[string]string:
		return v, true
	default:
		return nil, false
	}
}
