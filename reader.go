package objcabi

import (
	"fmt"

	macho "github.com/blacktop/go-macho"
	"github.com/blacktop/go-macho/types"
)

// Segment is the subset of a Mach-O load segment this module needs:
// its virtual-address range and its mapped content.
type Segment struct {
	Name   string
	VMAddr uint64
	VMSize uint64
	Data   []byte
}

// MachOReader is the upstream dependency contract (external interfaces
// §6.2): everything the ABI walker needs from a Mach-O container
// reader. github.com/blacktop/go-macho satisfies it via the adapter
// below; any reader with this shape — including one over a dumped
// process image — works equally well.
type MachOReader interface {
	// Segments iterates every loaded segment with its VA range and
	// mapped content.
	Segments() []Segment
	// Section looks up a section by its segment and section name.
	Section(segment, name string) (Segment, bool)
	// ImageBase is the load VA of the first mapped byte.
	ImageBase() uint64
	// MemoryBase is the load address reported by a dumped in-memory
	// image, or 0 when the image was read from its on-disk file
	// layout directly.
	MemoryBase() uint64
}

// fileReader adapts *macho.File (github.com/blacktop/go-macho) to
// MachOReader. Every method it calls here is exercised directly by
// the teacher this module is adapted from, which is itself a fork of
// this same upstream library.
type fileReader struct {
	f *macho.File
}

func (r *fileReader) Segments() []Segment {
	segs := r.f.Segments()
	out := make([]Segment, 0, len(segs))
	for _, s := range segs {
		data, err := s.Data()
		if err != nil {
			continue
		}
		out = append(out, Segment{Name: s.Name, VMAddr: s.Addr, VMSize: s.Memsz, Data: data})
	}
	return out
}

func (r *fileReader) Section(segment, name string) (Segment, bool) {
	s := r.f.Section(segment, name)
	if s == nil {
		return Segment{}, false
	}
	data, err := s.Data()
	if err != nil {
		return Segment{}, false
	}
	return Segment{Name: s.Name, VMAddr: s.Addr, VMSize: s.Size, Data: data}, true
}

func (r *fileReader) ImageBase() uint64 {
	return r.f.GetBaseAddress()
}

func (r *fileReader) MemoryBase() uint64 {
	// The on-disk open path below never produces a dumped image, so
	// there is no distinct in-memory load address to report.
	return 0
}

// openReader opens path and returns a MachOReader for the slice
// selected per the client surface's policy (§6.1): prefer arm64, else
// x86_64, else fail. A thin (non-fat) image is used directly.
func openReader(path string) (MachOReader, error) {
	ff, err := macho.OpenFat(path)
	switch {
	case err == nil:
		var picked *macho.File
		for _, arch := range ff.Arches {
			if arch.CPU == types.CPUArm64 {
				picked = arch.File
				break
			}
		}
		if picked == nil {
			for _, arch := range ff.Arches {
				if arch.CPU == types.CPUAmd64 {
					picked = arch.File
					break
				}
			}
		}
		if picked == nil {
			ff.Close()
			return nil, fmt.Errorf("%w: no arm64 or x86_64 slice in fat binary", ErrOpen)
		}
		return &fileReader{f: picked}, nil
	case err == macho.ErrNotFat:
		f, err := macho.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrOpen, err)
		}
		return &fileReader{f: f}, nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrOpen, err)
	}
}
