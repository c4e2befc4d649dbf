// Package objc models the on-disk Objective-C runtime ABI records found
// in a Mach-O image's __objc_* sections, the type-encoding grammar used
// to describe their field types, and the textual declarations rendered
// from the parsed entities.
package objc

// Raw, tightly packed on-disk layouts. Field order and width match the
// runtime's layout exactly; nothing here is padded or reordered for Go
// struct alignment, so these must be decoded with encoding/binary, not
// read as memory-mapped Go structs.

// MethodListFlagMask masks the small-method-list flag out of a method
// list's entsize_and_flags word.
const MethodListFlagMask = 0xFFFF0003

// MethodListIsSmall marks a method list whose records are small_method_t
// instead of big_method_t.
const MethodListIsSmall = 0x80000000

// ClassDataBitsMask extracts the class_ro_t VA from class_t.bits.
const ClassDataBitsMask = 0x00007FFFFFFFFFF8

// ListHeader is the shared header of method_list_t, ivar_list_t and
// property_list_t.
type ListHeader struct {
	EntsizeAndFlags uint32
	Count           uint32
}

// Entsize returns the per-record stride with the mask applied.
func (h ListHeader) Entsize(mask uint32) uint32 {
	return h.EntsizeAndFlags &^ mask
}

// IsSmallMethodList reports whether a method_list_t header carries the
// small-method flag.
func (h ListHeader) IsSmallMethodList() bool {
	return h.EntsizeAndFlags&MethodListIsSmall != 0
}

// BigMethodT is a big_method_t record: three tagged pointers.
type BigMethodT struct {
	Name      uint64
	Signature uint64
	Impl      uint64
}

// SmallMethodT is a small_method_t record: three 32-bit offsets
// relative to the record's own field address.
type SmallMethodT struct {
	Name      int32
	Signature int32
	Impl      int32
}

// PropertyT is a property_t record.
type PropertyT struct {
	Name       uint64
	Attributes uint64
}

// IvarT is an ivar_t record.
type IvarT struct {
	Offset    uint64
	Name      uint64
	Type      uint64
	Alignment uint64
	Size      uint64
}

// ProtocolT is a protocol_t record.
type ProtocolT struct {
	Isa                   uint64
	Name                  uint64
	Protocols             uint64
	InstanceMethods       uint64
	ClassMethods          uint64
	OptionalInstanceMethods uint64
	OptionalClassMethods    uint64
	InstanceProperties    uint64
	Size                  uint32
	Flags                 uint32
}

// CategoryT is a category_t record.
type CategoryT struct {
	Name               uint64
	Class              uint64
	InstanceMethods    uint64
	ClassMethods       uint64
	Protocols          uint64
	InstanceProperties uint64
}

// ClassT is a class_t record.
type ClassT struct {
	Isa    uint64
	Super  uint64
	Cache  uint64
	Vtable uint64
	Bits   uint64
}

// ClassRO returns the class_ro_t VA encoded in Bits.
func (c ClassT) ClassRO() uint64 {
	return c.Bits & ClassDataBitsMask
}

// ClassROT is a class_ro_t record.
type ClassROT struct {
	Flags           uint32
	InstanceStart   uint32
	InstanceEnd     uint32
	Reserved        uint32
	IvarLayout      uint64
	Name            uint64
	BaseMethods     uint64
	BaseProtocols   uint64
	Ivars           uint64
	WeakIvarLayout  uint64
	BaseProperties  uint64
}

// ProtocolListCount is the protocol_list_t header: a single
// pointer-sized element count, followed by that many tagged pointers.
type ProtocolListCount struct {
	Count uint64
}
