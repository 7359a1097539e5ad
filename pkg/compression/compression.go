// Package compression provides optional compression for persisted cache
// snapshots. Values are JSON-serialized and, when large enough, compressed
// with gzip or deflate before being handed to the persistence store.
package compression

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
)

// Algorithm names a supported compressor.
type Algorithm string

const (
	// CompressorGzip selects gzip compression.
	CompressorGzip Algorithm = "gzip"

	// CompressorDeflate selects raw deflate compression.
	CompressorDeflate Algorithm = "deflate"

	// CompressorNone disables compression while keeping serialization.
	CompressorNone Algorithm = "none"
)

// Config controls compression of persisted snapshots.
type Config struct {
	// Enabled turns compression on. Off by default.
	Enabled bool

	// Algorithm selects the compressor.
	Algorithm Algorithm

	// MinSize is the smallest serialized size worth compressing, in bytes.
	MinSize int

	// Level is the compression level; -1 means the algorithm default.
	Level int
}

// NewDefaultConfig returns the default compression configuration:
// disabled, gzip, 1KiB threshold, default level.
func NewDefaultConfig() *Config {
	return &Config{
		Enabled:   false,
		Algorithm: CompressorGzip,
		MinSize:   1024,
		Level:     -1,
	}
}

// WithEnabled toggles compression.
func (c *Config) WithEnabled(enabled bool) *Config {
	c.Enabled = enabled
	return c
}

// WithAlgorithm sets the compression algorithm.
func (c *Config) WithAlgorithm(a Algorithm) *Config {
	c.Algorithm = a
	return c
}

// WithMinSize sets the minimum serialized size worth compressing.
func (c *Config) WithMinSize(n int) *Config {
	c.MinSize = n
	return c
}

// WithLevel sets the compression level.
func (c *Config) WithLevel(level int) *Config {
	c.Level = level
	return c
}

// Compressor compresses and decompresses byte slices.
type Compressor interface {
	// Name returns the compressor's algorithm name.
	Name() string

	// Compress returns the compressed form of data.
	Compress(data []byte) ([]byte, error)

	// Decompress reverses Compress.
	Decompress(data []byte) ([]byte, error)
}

// NewCompressor creates the compressor selected by config.
func NewCompressor(config *Config) (Compressor, error) {
	if config == nil || !config.Enabled {
		return NewNoOpCompressor(), nil
	}
	switch config.Algorithm {
	case CompressorGzip:
		return NewGzipCompressor(config.Level), nil
	case CompressorDeflate:
		return NewDeflateCompressor(config.Level), nil
	case CompressorNone, "":
		return NewNoOpCompressor(), nil
	default:
		return nil, fmt.Errorf("unsupported compression algorithm: %s", config.Algorithm)
	}
}

// NoOpCompressor passes data through unchanged.
type NoOpCompressor struct{}

// NewNoOpCompressor returns a compressor that leaves data unchanged.
func NewNoOpCompressor() *NoOpCompressor {
	return &NoOpCompressor{}
}

func (*NoOpCompressor) Name() string { return "none" }

func (*NoOpCompressor) Compress(data []byte) ([]byte, error) { return data, nil }

func (*NoOpCompressor) Decompress(data []byte) ([]byte, error) { return data, nil }

// GzipCompressor wraps compress/gzip.
type GzipCompressor struct {
	level int
}

// NewGzipCompressor returns a gzip compressor at the given level.
// Use -1 for the default level.
func NewGzipCompressor(level int) *GzipCompressor {
	return &GzipCompressor{level: level}
}

func (*GzipCompressor) Name() string { return "gzip" }

func (g *GzipCompressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, g.level)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (*GzipCompressor) Decompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// DeflateCompressor wraps compress/flate.
type DeflateCompressor struct {
	level int
}

// NewDeflateCompressor returns a deflate compressor at the given level.
// Use -1 for the default level.
func NewDeflateCompressor(level int) *DeflateCompressor {
	return &DeflateCompressor{level: level}
}

func (*DeflateCompressor) Name() string { return "deflate" }

func (d *DeflateCompressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, d.level)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (*DeflateCompressor) Decompress(data []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()
	return io.ReadAll(r)
}

// SerializeAndCompress JSON-serializes value and compresses the result when
// it is at least minSize bytes. The second return reports whether the
// returned bytes are compressed.
func SerializeAndCompress(value any, compressor Compressor, minSize int) ([]byte, bool, error) {
	serialized, err := json.Marshal(value)
	if err != nil {
		return nil, false, fmt.Errorf("serialize: %w", err)
	}

	if compressor == nil || compressor.Name() == "none" || len(serialized) < minSize {
		return serialized, false, nil
	}

	compressed, err := compressor.Compress(serialized)
	if err != nil {
		return nil, false, fmt.Errorf("compress: %w", err)
	}
	return compressed, true, nil
}

// DecompressAndDeserialize reverses SerializeAndCompress into out, which
// must be a pointer.
func DecompressAndDeserialize(data []byte, isCompressed bool, compressor Compressor, out any) error {
	if isCompressed {
		if compressor == nil {
			return fmt.Errorf("decompress: no compressor configured")
		}
		decompressed, err := compressor.Decompress(data)
		if err != nil {
			return fmt.Errorf("decompress: %w", err)
		}
		data = decompressed
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("deserialize: %w", err)
	}
	return nil
}
