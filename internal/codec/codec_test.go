package codec_test

import (
	"testing"

	"github.com/worldsnap/worldsnap/internal/codec"
	rtest "github.com/worldsnap/worldsnap/internal/test"
	"github.com/worldsnap/worldsnap/internal/world"
)

func testChunk(t testing.TB, pos world.ChunkPos) *world.Chunk {
	c := world.NewChunk(pos, -16, 48)
	min, max := c.Bounds()

	n := world.Block(1)
	for x := min.X; x <= max.X; x += 3 {
		for z := min.Z; z <= max.Z; z += 5 {
			for y := min.Y; y <= max.Y; y += 7 {
				ok := c.SetBlock(world.BlockPos{X: x, Y: y, Z: z}, n)
				rtest.Assert(t, ok, "SetBlock rejected %v", world.BlockPos{X: x, Y: y, Z: z})
				n++
			}
		}
	}
	c.SetBiome(4, 11, 3)

	return c
}

func chunksEqual(t testing.TB, want, got *world.Chunk) {
	t.Helper()

	rtest.Equals(t, want.Pos, got.Pos)
	rtest.Equals(t, want.MinY, got.MinY)
	rtest.Equals(t, want.Height(), got.Height())

	min, max := want.Bounds()
	for x := min.X; x <= max.X; x++ {
		for z := min.Z; z <= max.Z; z++ {
			for y := min.Y; y <= max.Y; y++ {
				pos := world.BlockPos{X: x, Y: y, Z: z}
				wb, _ := want.Block(pos)
				gb, _ := got.Block(pos)
				if wb != gb {
					t.Fatalf("block mismatch at %v: want %d, got %d", pos, wb, gb)
				}
			}
		}
	}
}

func TestRoundtrip(t *testing.T) {
	pos := world.ChunkPos{X: 3, Z: -7}
	c := testChunk(t, pos)

	for _, enc := range []struct {
		name   string
		encode func(*world.Chunk) ([]byte, error)
	}{
		{"v1", codec.EncodeV1},
		{"v2", codec.EncodeV2},
	} {
		t.Run(enc.name, func(t *testing.T) {
			blob, err := enc.encode(c)
			rtest.OK(t, err)

			got, err := codec.Auto().Decode(blob, pos)
			rtest.OK(t, err)
			chunksEqual(t, c, got)
			rtest.Equals(t, uint8(3), got.Biome(4, 11))
		})
	}
}

func TestDecodeWrongCoordinate(t *testing.T) {
	blob, err := codec.EncodeV2(testChunk(t, world.ChunkPos{X: 1, Z: 1}))
	rtest.OK(t, err)

	_, err = codec.Auto().Decode(blob, world.ChunkPos{X: 1, Z: 2})
	rtest.Assert(t, codec.IsCorrupt(err), "expected corrupt data error, got %v", err)
}

func TestDecodeCorruptBlobs(t *testing.T) {
	blob, err := codec.EncodeV2(testChunk(t, world.ChunkPos{}))
	rtest.OK(t, err)

	truncated := blob[:len(blob)/2]
	flipped := append([]byte{}, blob...)
	flipped[len(flipped)/2] ^= 0xff
	badVersion := append([]byte{}, blob...)
	badVersion[2] = 99

	for _, data := range [][]byte{
		nil,
		[]byte{'W'},
		[]byte("not a chunk blob"),
		truncated,
		flipped,
		badVersion,
	} {
		_, err := codec.Auto().Decode(data, world.ChunkPos{})
		rtest.Assert(t, codec.IsCorrupt(err), "blob %q: expected corrupt data error, got %v", data, err)
	}
}

func TestDecodeTruncatedV1(t *testing.T) {
	blob, err := codec.EncodeV1(testChunk(t, world.ChunkPos{}))
	rtest.OK(t, err)

	_, err = codec.Auto().Decode(blob[:len(blob)-4], world.ChunkPos{})
	rtest.Assert(t, codec.IsCorrupt(err), "expected corrupt data error, got %v", err)
}

func TestForVersion(t *testing.T) {
	pos := world.ChunkPos{X: -2, Z: 9}
	blob, err := codec.EncodeV1(testChunk(t, pos))
	rtest.OK(t, err)

	v1, ok := codec.For(1)
	rtest.Assert(t, ok, "v1 codec not registered")
	_, err = v1.Decode(blob, pos)
	rtest.OK(t, err)

	v2, ok := codec.For(2)
	rtest.Assert(t, ok, "v2 codec not registered")
	_, err = v2.Decode(blob, pos)
	rtest.Assert(t, codec.IsCorrupt(err), "v2 codec must reject v1 blobs, got %v", err)

	_, ok = codec.For(99)
	rtest.Assert(t, !ok, "unknown version must not resolve")
}
