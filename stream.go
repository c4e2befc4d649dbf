package objcabi

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// taggedPointerMask keeps the low 51 bits of a tagged pointer word:
// the rebased VA offset chained-fixup pointers carry for modern
// images (§4.1.1).
const taggedPointerMask = (uint64(1) << 51) - 1

// Fix recovers a virtual address from a raw 64-bit word as stored in
// the binary: mask off the top 13 bits, then rebase against imageBase
// if the result looks like a pre-rebase offset. Idempotent:
// Fix(Fix(x), b) == Fix(x, b) for any x once the mask has been
// applied once.
func Fix(raw, imageBase uint64) uint64 {
	patched := raw & taggedPointerMask
	if imageBase > 0 && patched < imageBase {
		patched += imageBase
	}
	return patched
}

// applyRelativeOffset implements §4.1.2: a small-method field's value
// is a 32-bit signed offset from the field's own address. Overflow
// wraps modulo 2^64 via ordinary uint64 arithmetic.
func applyRelativeOffset(base uint64, offset int32) uint64 {
	return base + uint64(int64(offset))
}

// Stream is the bounded, VA-addressed random-access reader entity
// parsers are driven through. Its cursor is exclusive to one parser at
// a time; ScopedSeek is the discipline that makes nested parsers
// composable despite the shared cursor.
type Stream struct {
	r          MachOReader
	segments   []Segment
	imageBase  uint64
	memoryBase uint64
	pos        uint64
}

// NewStream builds a Stream over r, caching its segment table and
// image/memory base for repeated VA translation.
func NewStream(r MachOReader) *Stream {
	return &Stream{
		r:          r,
		segments:   r.Segments(),
		imageBase:  r.ImageBase(),
		memoryBase: r.MemoryBase(),
	}
}

// ImageBase is the load VA of the first mapped byte.
func (s *Stream) ImageBase() uint64 { return s.imageBase }

// Fix applies the tagged-pointer fixup using this stream's image base.
func (s *Stream) Fix(raw uint64) uint64 { return Fix(raw, s.imageBase) }

// translate resolves va to a byte slice of the mapped segment content
// starting at that address, applying the memory-base correction for
// dumped images (§4.1.4).
func (s *Stream) translate(va uint64) ([]byte, error) {
	target := va
	if s.memoryBase != 0 && va > s.memoryBase {
		target = va - s.memoryBase + s.imageBase
	}
	for _, seg := range s.segments {
		if target >= seg.VMAddr && target < seg.VMAddr+seg.VMSize {
			off := target - seg.VMAddr
			if off >= uint64(len(seg.Data)) {
				return nil, fmt.Errorf("%w: va 0x%x within segment %q but beyond mapped content", ErrRead, va, seg.Name)
			}
			return seg.Data[off:], nil
		}
	}
	return nil, fmt.Errorf("%w: va 0x%x not in any mapped segment", ErrRead, va)
}

// Seek moves the stream's cursor to va, failing if va is unmapped.
func (s *Stream) Seek(va uint64) error {
	if _, err := s.translate(va); err != nil {
		return err
	}
	s.pos = va
	return nil
}

// Pos returns the stream's current cursor.
func (s *Stream) Pos() uint64 { return s.pos }

// ScopedSeek seeks to va and returns a restore function that puts the
// cursor back where it was. The restore function must be called on
// every exit path, including error paths — callers should defer it
// immediately:
//
//	restore, err := stream.ScopedSeek(va)
//	defer restore()
//	if err != nil { return nil, err }
func (s *Stream) ScopedSeek(va uint64) (restore func(), err error) {
	saved := s.pos
	restore = func() { s.pos = saved }
	if err = s.Seek(va); err != nil {
		return restore, err
	}
	return restore, nil
}

// Peek reads a POD record of type T at the current position without
// advancing the cursor.
func Peek[T any](s *Stream) (T, error) {
	var v T
	data, err := s.translate(s.pos)
	if err != nil {
		return v, err
	}
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrRead, err)
	}
	return v, nil
}

// Read reads a POD record of type T at the current position and
// advances the cursor past it.
func Read[T any](s *Stream) (T, error) {
	v, err := Peek[T](s)
	if err != nil {
		return v, err
	}
	size := binary.Size(v)
	if size < 0 {
		return v, fmt.Errorf("%w: type has no fixed binary size", ErrRead)
	}
	s.pos += uint64(size)
	return v, nil
}

// StringAt reads a NUL-terminated C string at va without moving the
// stream's current cursor.
func (s *Stream) StringAt(va uint64) (string, error) {
	if va == 0 {
		return "", nil
	}
	data, err := s.translate(va)
	if err != nil {
		return "", err
	}
	idx := bytes.IndexByte(data, 0)
	if idx < 0 {
		return string(data), nil
	}
	return string(data[:idx]), nil
}
