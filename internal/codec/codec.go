// Package codec decodes serialized chunk blobs into world.Chunk values.
//
// A chunk blob starts with the two magic bytes "WC" and a format version
// byte, followed by a version-specific body. Decoding is stateless and has no
// cross-chunk dependencies, so chunks can be decoded in any order and a
// corrupt blob only affects itself.
package codec

import (
	"encoding/binary"

	"github.com/worldsnap/worldsnap/internal/errors"
	"github.com/worldsnap/worldsnap/internal/world"
)

// ErrCorruptData is the base error for malformed or unsupported chunk blobs.
var ErrCorruptData = errors.New("corrupt chunk data")

// IsCorrupt reports whether err was caused by a malformed or unsupported
// chunk blob.
func IsCorrupt(err error) bool {
	return errors.Is(err, ErrCorruptData)
}

// Codec decodes one chunk blob format version.
type Codec interface {
	// Decode parses data into a chunk. pos is the coordinate the chunk is
	// expected to have; a blob recorded for a different coordinate is treated
	// as corrupt. Decode never partially mutates caller state on failure.
	Decode(data []byte, pos world.ChunkPos) (*world.Chunk, error)
}

var magic = [2]byte{'W', 'C'}

// maxChunkHeight bounds the vertical extent accepted from a blob, so that a
// corrupted header cannot cause a huge allocation.
const maxChunkHeight = 4096

var codecs = map[uint8]Codec{
	1: v1Codec{},
	2: v2Codec{},
}

// For returns the codec for a single format version.
func For(version uint8) (Codec, bool) {
	c, ok := codecs[version]
	return c, ok
}

// Auto returns a codec that dispatches on the version byte of each blob.
func Auto() Codec {
	return autoCodec{}
}

type autoCodec struct{}

func (autoCodec) Decode(data []byte, pos world.ChunkPos) (*world.Chunk, error) {
	version, body, err := splitHeader(data)
	if err != nil {
		return nil, err
	}

	c, ok := codecs[version]
	if !ok {
		return nil, errors.Wrapf(ErrCorruptData, "unsupported chunk format version %d", version)
	}

	return c.(bodyCodec).decodeBody(body, pos)
}

// bodyCodec is implemented by all registered codecs; Auto uses it to skip
// re-parsing the header.
type bodyCodec interface {
	decodeBody(body []byte, pos world.ChunkPos) (*world.Chunk, error)
}

func splitHeader(data []byte) (version uint8, body []byte, err error) {
	if len(data) < 3 {
		return 0, nil, errors.Wrapf(ErrCorruptData, "chunk blob too short (%d bytes)", len(data))
	}
	if data[0] != magic[0] || data[1] != magic[1] {
		return 0, nil, errors.Wrap(ErrCorruptData, "bad magic bytes")
	}
	return data[2], data[3:], nil
}

// payload is the uncompressed chunk encoding shared by all versions:
//
//	x, z       int32, chunk coordinate
//	minY       int32
//	height     int32
//	flags      uint8, bit 0: biome data present
//	blocks     height*16*16 uint32 block states
//	biomes     16*16 uint8, only if flagged
//
// All integers are little-endian.
const (
	payloadHeaderLen = 4*4 + 1
	flagBiomes       = 1 << 0
)

func decodePayload(payload []byte, pos world.ChunkPos) (*world.Chunk, error) {
	if len(payload) < payloadHeaderLen {
		return nil, errors.Wrapf(ErrCorruptData, "chunk payload too short (%d bytes)", len(payload))
	}

	x := int32(binary.LittleEndian.Uint32(payload[0:]))
	z := int32(binary.LittleEndian.Uint32(payload[4:]))
	minY := int32(binary.LittleEndian.Uint32(payload[8:]))
	height := int32(binary.LittleEndian.Uint32(payload[12:]))
	flags := payload[16]

	if x != pos.X || z != pos.Z {
		return nil, errors.Wrapf(ErrCorruptData, "chunk blob is for %v, expected %v", world.ChunkPos{X: x, Z: z}, pos)
	}
	if height < 0 || height > maxChunkHeight {
		return nil, errors.Wrapf(ErrCorruptData, "implausible chunk height %d", height)
	}

	columns := world.ChunkSize * world.ChunkSize
	want := payloadHeaderLen + int(height)*columns*4
	if flags&flagBiomes != 0 {
		want += columns
	}
	if len(payload) != want {
		return nil, errors.Wrapf(ErrCorruptData, "chunk payload has %d bytes, expected %d", len(payload), want)
	}

	c := world.NewChunk(pos, minY, height)
	min, _ := c.Bounds()

	off := payloadHeaderLen
	for y := int32(0); y < height; y++ {
		for lx := int32(0); lx < world.ChunkSize; lx++ {
			for lz := int32(0); lz < world.ChunkSize; lz++ {
				b := world.Block(binary.LittleEndian.Uint32(payload[off:]))
				off += 4
				if b == world.Air {
					continue
				}
				c.SetBlock(world.BlockPos{X: min.X + lx, Y: minY + y, Z: min.Z + lz}, b)
			}
		}
	}

	if flags&flagBiomes != 0 {
		for lx := int32(0); lx < world.ChunkSize; lx++ {
			for lz := int32(0); lz < world.ChunkSize; lz++ {
				c.SetBiome(lx, lz, payload[off])
				off++
			}
		}
	}

	return c, nil
}

func encodePayload(c *world.Chunk) []byte {
	columns := world.ChunkSize * world.ChunkSize
	height := c.Height()

	var flags uint8
	size := payloadHeaderLen + int(height)*columns*4
	if c.HasBiomes() {
		flags |= flagBiomes
		size += columns
	}

	payload := make([]byte, size)
	binary.LittleEndian.PutUint32(payload[0:], uint32(c.Pos.X))
	binary.LittleEndian.PutUint32(payload[4:], uint32(c.Pos.Z))
	binary.LittleEndian.PutUint32(payload[8:], uint32(c.MinY))
	binary.LittleEndian.PutUint32(payload[12:], uint32(height))
	payload[16] = flags

	min, _ := c.Bounds()
	off := payloadHeaderLen
	for y := int32(0); y < height; y++ {
		for lx := int32(0); lx < world.ChunkSize; lx++ {
			for lz := int32(0); lz < world.ChunkSize; lz++ {
				b, _ := c.Block(world.BlockPos{X: min.X + lx, Y: c.MinY + y, Z: min.Z + lz})
				binary.LittleEndian.PutUint32(payload[off:], uint32(b))
				off += 4
			}
		}
	}

	if c.HasBiomes() {
		for lx := int32(0); lx < world.ChunkSize; lx++ {
			for lz := int32(0); lz < world.ChunkSize; lz++ {
				payload[off] = c.Biome(lx, lz)
				off++
			}
		}
	}

	return payload
}
