package pauselog

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the frame payload compression.
type Compression uint8

const (
	// CompressionNone stores payloads uncompressed.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression (fast, modest ratio).
	CompressionLZ4 Compression = 1
	// CompressionZstd uses zstd block compression (better ratio).
	CompressionZstd Compression = 2
)

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// compressPayload compresses data with the requested algorithm. Falls
// back to CompressionNone for payloads that do not shrink, returning
// the compression actually applied.
func compressPayload(data []byte, c Compression) ([]byte, Compression, error) {
	switch c {
	case CompressionNone:
		return data, CompressionNone, nil

	case CompressionLZ4:
		dst := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, dst, nil)
		if err != nil {
			return nil, 0, fmt.Errorf("lz4 compression failed: %w", err)
		}
		if n == 0 || n >= len(data) {
			return data, CompressionNone, nil
		}
		return dst[:n], CompressionLZ4, nil

	case CompressionZstd:
		enc := getZstdEncoder()
		dst := enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
		if len(dst) >= len(data) {
			return data, CompressionNone, nil
		}
		return dst, CompressionZstd, nil

	default:
		return nil, 0, fmt.Errorf("unknown compression type: %d", c)
	}
}

// decompressPayload reverses compressPayload. uncompressedSize is the
// original payload size carried in the frame header.
func decompressPayload(data []byte, c Compression, uncompressedSize uint32) ([]byte, error) {
	switch c {
	case CompressionNone:
		return data, nil

	case CompressionLZ4:
		dst := make([]byte, uncompressedSize)
		n, err := lz4.UncompressBlock(data, dst)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompression failed: %w", err)
		}
		return dst[:n], nil

	case CompressionZstd:
		dec := getZstdDecoder()
		dst, err := dec.DecodeAll(data, make([]byte, 0, uncompressedSize))
		zstdDecoderPool.Put(dec)
		if err != nil {
			return nil, fmt.Errorf("zstd decompression failed: %w", err)
		}
		return dst, nil

	default:
		return nil, fmt.Errorf("unknown compression type: %d", c)
	}
}
