package codec

import (
	"bytes"
	"compress/gzip"
	"io"

	"github.com/worldsnap/worldsnap/internal/errors"
	"github.com/worldsnap/worldsnap/internal/world"
)

// v1Codec is the legacy chunk blob format: the payload is gzip-compressed and
// carries no checksum.
type v1Codec struct{}

func (c v1Codec) Decode(data []byte, pos world.ChunkPos) (*world.Chunk, error) {
	version, body, err := splitHeader(data)
	if err != nil {
		return nil, err
	}
	if version != 1 {
		return nil, errors.Wrapf(ErrCorruptData, "expected format version 1, got %d", version)
	}
	return c.decodeBody(body, pos)
}

func (v1Codec) decodeBody(body []byte, pos world.ChunkPos) (*world.Chunk, error) {
	gz, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrapf(ErrCorruptData, "gzip header: %v", err)
	}

	payload, err := io.ReadAll(gz)
	if err == nil {
		err = gz.Close()
	}
	if err != nil {
		return nil, errors.Wrapf(ErrCorruptData, "gzip stream: %v", err)
	}

	return decodePayload(payload, pos)
}

// EncodeV1 serializes a chunk in the legacy format. It is retained for tests
// and for writing snapshots readable by old tooling.
func EncodeV1(c *world.Chunk) ([]byte, error) {
	buf := bytes.NewBuffer([]byte{magic[0], magic[1], 1})

	gz := gzip.NewWriter(buf)
	if _, err := gz.Write(encodePayload(c)); err != nil {
		return nil, errors.Wrap(err, "compress chunk")
	}
	if err := gz.Close(); err != nil {
		return nil, errors.Wrap(err, "compress chunk")
	}

	return buf.Bytes(), nil
}
