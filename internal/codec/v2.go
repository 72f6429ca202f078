package codec

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/worldsnap/worldsnap/internal/errors"
	"github.com/worldsnap/worldsnap/internal/world"
)

// v2Codec is the current chunk blob format: the payload is zstd-compressed and
// followed by an xxhash64 checksum over the compressed bytes, so truncated or
// bit-flipped blobs are rejected before decompression.
type v2Codec struct{}

const v2ChecksumLen = 8

var (
	zstdEncoder, _ = zstd.NewWriter(nil)
	zstdDecoder, _ = zstd.NewReader(nil)
)

func (c v2Codec) Decode(data []byte, pos world.ChunkPos) (*world.Chunk, error) {
	version, body, err := splitHeader(data)
	if err != nil {
		return nil, err
	}
	if version != 2 {
		return nil, errors.Wrapf(ErrCorruptData, "expected format version 2, got %d", version)
	}
	return c.decodeBody(body, pos)
}

func (v2Codec) decodeBody(body []byte, pos world.ChunkPos) (*world.Chunk, error) {
	if len(body) < v2ChecksumLen {
		return nil, errors.Wrapf(ErrCorruptData, "chunk blob too short for checksum (%d bytes)", len(body))
	}

	compressed := body[:len(body)-v2ChecksumLen]
	want := binary.LittleEndian.Uint64(body[len(body)-v2ChecksumLen:])
	if got := xxhash.Sum64(compressed); got != want {
		return nil, errors.Wrapf(ErrCorruptData, "checksum mismatch (%016x != %016x)", got, want)
	}

	payload, err := zstdDecoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, errors.Wrapf(ErrCorruptData, "zstd: %v", err)
	}

	return decodePayload(payload, pos)
}

// EncodeV2 serializes a chunk in the current format.
func EncodeV2(c *world.Chunk) ([]byte, error) {
	compressed := zstdEncoder.EncodeAll(encodePayload(c), nil)

	blob := make([]byte, 0, 3+len(compressed)+v2ChecksumLen)
	blob = append(blob, magic[0], magic[1], 2)
	blob = append(blob, compressed...)
	blob = binary.LittleEndian.AppendUint64(blob, xxhash.Sum64(compressed))

	return blob, nil
}
