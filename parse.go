// Package objcabi recovers Objective-C class, category and protocol
// declarations from the runtime ABI metadata embedded in a Mach-O
// image, without relinking or executing any of it.
package objcabi

import objc "github.com/go-objc/abi/types/objc"

// Image is the result of parsing one Mach-O file: its ABI metadata
// plus the reader and stream it was parsed through. The reader and
// stream are unexported and no method of Image exposes them.
type Image struct {
	Path string
	ABI  *ABI

	reader MachOReader
	stream *Stream
}

// Parse opens path, selects the arm64 (falling back to x86_64) slice
// of a fat binary, and walks its ObjC metadata sections into an Image.
func Parse(path string) (*Image, error) {
	r, err := openReader(path)
	if err != nil {
		return nil, err
	}
	return newImage(path, r), nil
}

// newImage walks r's ObjC metadata sections into an Image. Split out
// of Parse so the assembler can be exercised against a fake
// MachOReader in tests without going through an on-disk file.
func newImage(path string, r MachOReader) *Image {
	s := NewStream(r)
	abi := assemble(s, r)
	return &Image{Path: path, ABI: abi, reader: r, stream: s}
}

// Classes returns every top-level class found in the image's
// __objc_classlist section, in encounter order.
func (img *Image) Classes() []*objc.Class { return img.ABI.Classes }

// Categories returns every top-level category found in the image's
// __objc_catlist section, in encounter order.
func (img *Image) Categories() []*objc.Category { return img.ABI.Categories }

// Protocols returns every top-level protocol found in the image's
// __objc_protolist section, in encounter order.
func (img *Image) Protocols() []*objc.Protocol { return img.ABI.Protocols }

// GetClass looks up a top-level class by name.
func (img *Image) GetClass(name string) (*objc.Class, bool) { return img.ABI.GetClass(name) }

// GetCategory looks up a top-level category by name.
func (img *Image) GetCategory(name string) (*objc.Category, bool) {
	return img.ABI.GetCategory(name)
}

// GetProtocol looks up a top-level protocol by name.
func (img *Image) GetProtocol(name string) (*objc.Protocol, bool) {
	return img.ABI.GetProtocol(name)
}

// Typedesc parses a single Objective-C type-encoding string into its
// type tree. Exposed at the package root as a convenience; see
// types/objc for the full grammar.
func Typedesc(encoding string) (*objc.TypeNode, error) { return objc.Typedesc(encoding) }

// Decode renders a parsed type-encoding tree back into C/ObjC type
// syntax.
func Decode(node *objc.TypeNode) (string, error) { return objc.Decode(node) }

// Signature decodes a method's full signature from its raw selector
// and type encoding, e.g. `(id)initWithFrame:(struct CGRect)`.
func Signature(selector, encoding string) (string, error) {
	return objc.Signature(selector, encoding)
}
