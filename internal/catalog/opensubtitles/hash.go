package opensubtitles

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

const hashChunkSize = 64 * 1024

// MovieHash computes the OpenSubtitles file signature of path: the file size
// plus the little-endian 64-bit word sums of its first and last 64 KiB.
func MovieHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opensubtitles: open for hash: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("opensubtitles: stat for hash: %w", err)
	}
	return HashReader(f, info.Size())
}

// HashReader computes the signature over size bytes of r. Files shorter than
// a chunk hash the whole content for both head and tail.
func HashReader(r io.ReaderAt, size int64) (string, error) {
	if size <= 0 {
		return "", errors.New("opensubtitles: cannot hash empty file")
	}
	chunk := min(int64(hashChunkSize), size)
	buf := make([]byte, chunk)

	sum := uint64(size)
	for _, offset := range []int64{0, size - chunk} {
		if _, err := r.ReadAt(buf, offset); err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("opensubtitles: read for hash: %w", err)
		}
		sum += sumWords(buf)
	}
	return fmt.Sprintf("%016x", sum), nil
}

func sumWords(buf []byte) uint64 {
	var sum uint64
	for len(buf) >= 8 {
		sum += binary.LittleEndian.Uint64(buf)
		buf = buf[8:]
	}
	if len(buf) > 0 {
		var tail [8]byte
		copy(tail[:], buf)
		sum += binary.LittleEndian.Uint64(tail[:])
	}
	return sum
}
