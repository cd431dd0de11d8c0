package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/rs/zerolog/log"
)

// ImageCache loads image bytes by URL through a memory tier, an optional disk tier, and
// the network
type ImageCache struct {
	memory     *ristretto.Cache[string, []byte]
	dir        string
	httpClient *http.Client
}

// NewImageCache creates an image cache bounded to maxCost bytes in memory; an empty dir
// disables the disk tier
func NewImageCache(maxCost int64, dir string, httpClient *http.Client) (*ImageCache, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: 1e5,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create image cache: %w", err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &ImageCache{memory: c, dir: dir, httpClient: httpClient}, nil
}

// Fetch returns the image at rawURL
func (c *ImageCache) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	const op = "FetchImage"

	if data, ok := c.memory.Get(rawURL); ok {
		return data, nil
	}

	if data, err := c.readDisk(rawURL); err == nil {
		c.store(rawURL, data)
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, newNetworkError(op, KindInvalidRequest, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, newNetworkError(op, KindTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &NetworkError{Op: op, Kind: KindHTTPStatus, Status: resp.StatusCode, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newNetworkError(op, KindTransport, err)
	}

	c.store(rawURL, data)
	if err := c.writeDisk(rawURL, data); err != nil {
		log.Warn().Err(err).Msg("Failed to write image to disk cache")
	}
	return data, nil
}

// ClearMemoryCache empties the memory tier
func (c *ImageCache) ClearMemoryCache() {
	c.memory.Clear()
}

// ClearDiskCache removes every cached file
func (c *ImageCache) ClearDiskCache() error {
	if c.dir == "" {
		return nil
	}
	if err := os.RemoveAll(c.dir); err != nil {
		return fmt.Errorf("failed to clear disk cache: %w", err)
	}
	return nil
}

// Close releases the memory tier
func (c *ImageCache) Close() {
	c.memory.Close()
}

func (c *ImageCache) store(key string, data []byte) {
	c.memory.Set(key, data, int64(len(data)))
	c.memory.Wait()
}

func (c *ImageCache) diskPath(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:]))
}

func (c *ImageCache) readDisk(rawURL string) ([]byte, error) {
	if c.dir == "" {
		return nil, errors.New("disk cache disabled")
	}
	return os.ReadFile(c.diskPath(rawURL))
}

func (c *ImageCache) writeDisk(rawURL string, data []byte) error {
	if c.dir == "" {
		return nil
	}
	if err := os.MkdirAll(c.dir, 0o700); err != nil {
		return err
	}
	return os.WriteFile(c.diskPath(rawURL), data, 0o600)
}
