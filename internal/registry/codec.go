package registry

import (
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/liferaft/liferaft/schema"
)

// compressThreshold is the minimum encoded size before compression is
// attempted. Tiny payloads grow under zstd framing.
const compressThreshold = 128

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	// Errors only occur with invalid options; none are passed here.
	zstdEncoder, _ = zstd.NewWriter(nil)
	zstdDecoder, _ = zstd.NewReader(nil)
}

// encodeSnapshot serializes a snapshot for storage. The JSON envelope
// is zstd-compressed when it is large enough and compression actually
// shrinks it; otherwise the raw JSON is stored as-is.
func encodeSnapshot(snap *schema.ResponseSnapshot) ([]byte, error) {
	raw, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if len(raw) < compressThreshold {
		return raw, nil
	}
	compressed := zstdEncoder.EncodeAll(raw, make([]byte, 0, len(raw)))
	if len(compressed) >= len(raw) {
		return raw, nil
	}
	return compressed, nil
}

// decodeSnapshot deserializes a stored snapshot. Values that fail zstd
// decoding are treated as uncompressed JSON; the zstd frame magic makes
// misclassification impossible in practice.
func decodeSnapshot(data []byte) (*schema.ResponseSnapshot, error) {
	raw, err := zstdDecoder.DecodeAll(data, nil)
	if err != nil {
		raw = data
	}
	var snap schema.ResponseSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snap, nil
}
