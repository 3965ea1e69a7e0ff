// Package compression wraps the codecs used for persisted session state.
package compression

import (
	"fmt"

	"github.com/debemdeboas/mediafront/internal/config"
)

type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

// ForName returns the compressor configured by session.codec.
func ForName(name string) (Compressor, error) {
	switch name {
	case config.CodecZstd, "":
		return ZstdCompressor{}, nil
	case config.CodecGzip:
		return GzipCompressor{}, nil
	default:
		return nil, fmt.Errorf("unknown codec %q", name)
	}
}
