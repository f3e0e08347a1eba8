package fingerprint

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
	badger "github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/RyanBlaney/sonido-estilo/fingerprint/config"
	"github.com/RyanBlaney/sonido-estilo/logging"
	"github.com/RyanBlaney/sonido-estilo/metrics"
	"github.com/RyanBlaney/sonido-estilo/recognition"
	"github.com/RyanBlaney/sonido-estilo/transcode"
)

// EmbeddingCache memoises clip embeddings for the lifetime of one pipeline.
// It is opened explicitly, cleared between independent evaluation runs and
// closed when the pipeline shuts down. Entries are keyed by the feature
// configuration and the exact waveform, so a config change never returns a
// stale embedding.
//
// A nil *EmbeddingCache is valid and caches nothing.
type EmbeddingCache struct {
	db        *badger.DB
	configSum []byte
	metrics   *metrics.Metrics
	logger    logging.Logger
}

type cachedEmbedding struct {
	Embedding  []float64 `msgpack:"e"`
	SampleRate int       `msgpack:"sr"`
	Samples    int       `msgpack:"n"`
}

// OpenEmbeddingCache opens an in-memory cache for embeddings computed with
// featureConfig
func OpenEmbeddingCache(featureConfig config.FeatureConfig, m *metrics.Metrics) (*EmbeddingCache, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "embedding_cache",
	})

	configBytes, err := msgpack.Marshal(featureConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to encode feature config: %w", err)
	}

	opts := badger.DefaultOptions("").
		WithInMemory(true).
		WithLogger(badgerLogger{logger})
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedding cache: %w", err)
	}

	return &EmbeddingCache{
		db:        db,
		configSum: configBytes,
		metrics:   m,
		logger:    logger,
	}, nil
}

// Key returns the cache key of audio under the cache's feature config
func (c *EmbeddingCache) Key(audio *transcode.AudioData) []byte {
	d := xxhash.New()
	d.Write(c.configSum)

	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(audio.SampleRate))
	d.Write(buf[:])
	for _, s := range audio.PCM {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(s))
		d.Write(buf[:])
	}

	return binary.BigEndian.AppendUint64(nil, d.Sum64())
}

// Get returns the cached embedding for audio, if any
func (c *EmbeddingCache) Get(audio *transcode.AudioData) (recognition.Embedding, bool, error) {
	if c == nil {
		return nil, false, nil
	}

	var raw []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(c.Key(audio))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		c.metrics.RecordCacheLookup(false)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("embedding cache read failed: %w", err)
	}

	var entry cachedEmbedding
	if err := msgpack.Unmarshal(raw, &entry); err != nil {
		return nil, false, fmt.Errorf("corrupt embedding cache entry: %w", err)
	}

	// guard against digest collisions between differently shaped clips
	if entry.SampleRate != audio.SampleRate || entry.Samples != len(audio.PCM) {
		c.metrics.RecordCacheLookup(false)
		return nil, false, nil
	}

	c.metrics.RecordCacheLookup(true)
	return recognition.Embedding(entry.Embedding), true, nil
}

// Put stores the embedding computed for audio
func (c *EmbeddingCache) Put(audio *transcode.AudioData, embedding recognition.Embedding) error {
	if c == nil {
		return nil
	}

	value, err := msgpack.Marshal(cachedEmbedding{
		Embedding:  embedding,
		SampleRate: audio.SampleRate,
		Samples:    len(audio.PCM),
	})
	if err != nil {
		return fmt.Errorf("failed to encode embedding: %w", err)
	}

	key := c.Key(audio)
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

// Len returns the number of cached embeddings
func (c *EmbeddingCache) Len() (int, error) {
	if c == nil {
		return 0, nil
	}

	n := 0
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Clear drops every cached embedding
func (c *EmbeddingCache) Clear() error {
	if c == nil {
		return nil
	}
	if err := c.db.DropAll(); err != nil {
		return fmt.Errorf("failed to clear embedding cache: %w", err)
	}
	c.logger.Debug("Embedding cache cleared", logging.Fields{"function": "Clear"})
	return nil
}

// Close releases the cache
func (c *EmbeddingCache) Close() error {
	if c == nil {
		return nil
	}
	return c.db.Close()
}

// badgerLogger routes badger's internal logging through the library logger.
// Badger is chatty at info level, so info is demoted to debug.
type badgerLogger struct {
	logger logging.Logger
}

func (l badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(nil, fmt.Sprintf(format, args...))
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
