package artifact

import (
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/hupe1980/minionmesh/core"
)

// CompressedStore wraps another ArtifactStore and zstd-compresses artifact
// bytes at rest. Names are passed through unchanged.
type CompressedStore struct {
	inner core.ArtifactStore
	enc   *zstd.Encoder
	dec   *zstd.Decoder
}

// NewCompressedStore wraps inner. Close releases the codec resources.
func NewCompressedStore(inner core.ArtifactStore) (*CompressedStore, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = enc.Close()
		return nil, err
	}

	return &CompressedStore{inner: inner, enc: enc, dec: dec}, nil
}

// Save compresses data and stores it in the wrapped store.
func (c *CompressedStore) Save(matchID, name string, data []byte) error {
	return c.inner.Save(matchID, name, c.enc.EncodeAll(data, nil))
}

// Get reads and decompresses an artifact.
func (c *CompressedStore) Get(matchID, name string) ([]byte, error) {
	raw, err := c.inner.Get(matchID, name)
	if err != nil {
		return nil, err
	}

	data, err := c.dec.DecodeAll(raw, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress %s/%s: %w", matchID, name, err)
	}

	return data, nil
}

// List forwards to the wrapped store.
func (c *CompressedStore) List(matchID string) ([]string, error) { return c.inner.List(matchID) }

// Delete forwards to the wrapped store.
func (c *CompressedStore) Delete(matchID, name string) error { return c.inner.Delete(matchID, name) }

// Close releases the encoder and decoder.
func (c *CompressedStore) Close() error {
	c.dec.Close()
	return c.enc.Close()
}
