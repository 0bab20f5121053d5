package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/jwebster45206/storyworld/pkg/storage"
)

// zstdMagic starts every zstd frame; plain JSON records never start with it.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

var (
	encoderOnce sync.Once
	encoder     *zstd.Encoder
	decoderOnce sync.Once
	decoder     *zstd.Decoder
)

func zstdEncoder() *zstd.Encoder {
	encoderOnce.Do(func() {
		// NewWriter(nil) only fails on invalid options
		encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	})
	return encoder
}

func zstdDecoder() *zstd.Decoder {
	decoderOnce.Do(func() {
		decoder, _ = zstd.NewReader(nil)
	})
	return decoder
}

// encodeRecord marshals rec to JSON, zstd-compressed when compress is set.
func encodeRecord(rec *storage.Record, compress bool) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}
	if !compress {
		return data, nil
	}
	return zstdEncoder().EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

// decodeRecord accepts both compressed and plain records, so the
// compression setting can change between deployments.
func decodeRecord(data []byte) (*storage.Record, error) {
	if bytes.HasPrefix(data, zstdMagic) {
		plain, err := zstdDecoder().DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress record: %w", err)
		}
		data = plain
	}
	var rec storage.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return &rec, nil
}
