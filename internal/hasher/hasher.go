// Package hasher derives short content hashes for output file names and
// report entries.
package hasher

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/AnyUserName/graynorm/internal/pixbuf"
	"github.com/cespare/xxhash/v2"
)

// DefaultHexLen is 64 bits of xxHash64, collision-safe for batch sizes
// we expect.
const DefaultHexLen = 16

// ContentHash computes the xxHash64 of data and returns a hex string
// truncated to hexLen characters (0 keeps all 16).
func ContentHash(data []byte, hexLen int) string {
	return truncate(xxhash.Sum64(data), hexLen)
}

// BufferHash hashes the dimensions and samples of buf, so that equal
// rasters hash equal regardless of the file format they are stored in.
func BufferHash(buf *pixbuf.Buffer, hexLen int) string {
	d := xxhash.New()
	var dims [16]byte
	binary.BigEndian.PutUint64(dims[:8], uint64(buf.Width()))
	binary.BigEndian.PutUint64(dims[8:], uint64(buf.Height()))
	d.Write(dims[:])
	d.Write(buf.Range(0, buf.PixelCount()))
	return truncate(d.Sum64(), hexLen)
}

func truncate(sum uint64, hexLen int) string {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], sum)
	full := hex.EncodeToString(b[:])
	if hexLen > 0 && hexLen < len(full) {
		return full[:hexLen]
	}
	return full
}
