package objcabi

import (
	"encoding/binary"
	"testing"

	objc "github.com/go-objc/abi/types/objc"
)

func u64(buf []byte, off int, v uint64) { binary.LittleEndian.PutUint64(buf[off:], v) }
func u32(buf []byte, off int, v uint32) { binary.LittleEndian.PutUint32(buf[off:], v) }
func i32(buf []byte, off int, v int32)  { binary.LittleEndian.PutUint32(buf[off:], uint32(v)) }
func putStr(buf []byte, off int, s string) {
	copy(buf[off:], s)
	buf[off+len(s)] = 0
}

// buildClassSlab lays out one class_t/class_ro_t with a single big
// method, ivar and property, all within one segment starting at VA
// base. Layout (offsets from base):
//
//	0x000 class_t            0x100 class_ro_t
//	0x200 class name         0x300 method list (big)
//	0x400 ivar list          0x500 property list
//	0x600.. string pool
func buildClassSlab(base uint64) []byte {
	buf := make([]byte, 0x700)

	// class_t
	u64(buf, 0x00, 0) // isa
	u64(buf, 0x08, 0) // super
	u64(buf, 0x10, 0) // cache
	u64(buf, 0x18, 0) // vtable
	u64(buf, 0x20, base+0x100)

	// class_ro_t
	u32(buf, 0x100, 0) // flags
	u32(buf, 0x104, 0)
	u32(buf, 0x108, 0)
	u32(buf, 0x10C, 0)
	u64(buf, 0x110, 0)            // ivarLayout
	u64(buf, 0x118, base+0x200)   // name
	u64(buf, 0x120, base+0x300)   // baseMethods
	u64(buf, 0x128, 0)            // baseProtocols
	u64(buf, 0x130, base+0x400)   // ivars
	u64(buf, 0x138, 0)            // weakIvarLayout
	u64(buf, 0x140, base+0x500)   // baseProperties

	putStr(buf, 0x200, "Foo")

	// method list: header + one big method_t
	u32(buf, 0x300, 24) // entsize, no small flag
	u32(buf, 0x304, 1)  // count
	u64(buf, 0x308, base+0x600) // name
	u64(buf, 0x310, base+0x610) // signature
	u64(buf, 0x318, 0xABCD)     // impl

	// ivar list: header + one ivar_t
	u32(buf, 0x400, 40)
	u32(buf, 0x404, 1)
	u64(buf, 0x408, 0)           // offset
	u64(buf, 0x410, base+0x620)  // name
	u64(buf, 0x418, base+0x630)  // type
	u64(buf, 0x420, 3)           // alignment
	u64(buf, 0x428, 4)           // size

	// property list: header + one property_t
	u32(buf, 0x500, 16)
	u32(buf, 0x504, 1)
	u64(buf, 0x508, base+0x640) // name
	u64(buf, 0x510, base+0x650) // attributes

	putStr(buf, 0x600, "doThing")
	putStr(buf, 0x610, "v16@0:8")
	putStr(buf, 0x620, "_count")
	putStr(buf, 0x630, "i")
	putStr(buf, 0x640, "value")
	putStr(buf, 0x650, "Tq,N,V_value")

	return buf
}

func streamOverSlab(base uint64, data []byte) *Stream {
	r := &fakeReader{segs: []Segment{{Name: "__DATA", VMAddr: base, VMSize: uint64(len(data)), Data: data}}}
	return NewStream(r)
}

func TestParseClassEndToEnd(t *testing.T) {
	base := uint64(0x1000)
	s := streamOverSlab(base, buildClassSlab(base))
	ctx := newParseCtx(s)

	class := ctx.parseClassAt(base, false)
	if class == nil {
		t.Fatalf("parseClassAt returned nil")
	}
	if class.Name != "Foo" {
		t.Errorf("got name %q, want Foo", class.Name)
	}
	if len(class.Methods) != 1 {
		t.Fatalf("got %d methods, want 1", len(class.Methods))
	}
	m := class.Methods[0]
	if m.Selector != "doThing" || m.Signature != "v16@0:8" || m.Impl != 0xABCD || m.IsClassMethod {
		t.Errorf("unexpected method: %+v", m)
	}
	if len(class.Ivars) != 1 {
		t.Fatalf("got %d ivars, want 1", len(class.Ivars))
	}
	iv := class.Ivars[0]
	if iv.Name != "_count" || iv.Type != "i" {
		t.Errorf("unexpected ivar: %+v", iv)
	}
	if len(class.Properties) != 1 {
		t.Fatalf("got %d properties, want 1", len(class.Properties))
	}
	prop := class.Properties[0]
	if prop.Name != "value" || prop.Attributes != "Tq,N,V_value" {
		t.Errorf("unexpected property: %+v", prop)
	}
}

func TestParseClassSuperclassChain(t *testing.T) {
	// Two classes in one segment: one at 0x1000 ("Foo"), another at
	// 0x2000 whose super_class field points back at the first.
	full := make([]byte, 0x2700)
	copy(full, buildClassSlab(0x1000))
	child := buildClassSlab(0x2000)
	u64(child, 0x08, 0x1000) // super_class -> the first class
	copy(full[0x1000:], child)

	r := &fakeReader{segs: []Segment{{Name: "__DATA", VMAddr: 0x1000, VMSize: uint64(len(full)), Data: full}}}
	s := NewStream(r)
	ctx := newParseCtx(s)

	class := ctx.parseClassAt(0x2000, false)
	if class == nil {
		t.Fatalf("parseClassAt returned nil")
	}
	if class.SuperClass == nil {
		t.Fatalf("expected super class to be resolved")
	}
	if class.SuperClass.Name != "Foo" {
		t.Errorf("got superclass name %q, want Foo", class.SuperClass.Name)
	}
}

func TestParseClassCycleGuardTerminatesSelfReferentialIsa(t *testing.T) {
	base := uint64(0x1000)
	data := buildClassSlab(base)
	u64(data, 0x00, base) // isa points at itself

	s := streamOverSlab(base, data)
	ctx := newParseCtx(s)

	class := ctx.parseClassAt(base, false)
	if class == nil {
		t.Fatalf("parseClassAt returned nil")
	}
	if class.MetaClass != nil {
		t.Errorf("expected cycle guard to cut the self-referential isa, got %+v", class.MetaClass)
	}
}

func TestParseIvarSwapHeuristicFiresOnMisorderedFields(t *testing.T) {
	base := uint64(0x1000)
	buf := make([]byte, 0x100)
	// ivar_t with name/type swapped the way some toolchains emit them:
	// the "name" field holds a short type-looking token and the "type"
	// field holds the real, underscore-prefixed ivar name.
	u64(buf, 0x00, 0)          // offset
	u64(buf, 0x08, base+0x40)  // name -> "ii"
	u64(buf, 0x10, base+0x50)  // type -> "_count"
	u64(buf, 0x18, 2)          // alignment
	u64(buf, 0x20, 2)          // size
	putStr(buf, 0x40, "ii")
	putStr(buf, 0x50, "_count")

	s := streamOverSlab(base, buf)
	ctx := newParseCtx(s)

	iv := ctx.parseIvar(base)
	if iv == nil {
		t.Fatalf("parseIvar returned nil")
	}
	if iv.Name != "_count" || iv.Type != "ii" {
		t.Errorf("got name=%q type=%q, want the heuristic to swap them to name=_count type=ii", iv.Name, iv.Type)
	}
}

func TestParseIvarNoSwapForOrdinaryFields(t *testing.T) {
	base := uint64(0x1000)
	buf := make([]byte, 0x100)
	u64(buf, 0x00, 0)
	u64(buf, 0x08, base+0x40) // name -> "_count"
	u64(buf, 0x10, base+0x50) // type -> "i"
	u64(buf, 0x18, 2)
	u64(buf, 0x20, 4)
	putStr(buf, 0x40, "_count")
	putStr(buf, 0x50, "i")

	s := streamOverSlab(base, buf)
	ctx := newParseCtx(s)

	iv := ctx.parseIvar(base)
	if iv == nil {
		t.Fatalf("parseIvar returned nil")
	}
	if iv.Name != "_count" || iv.Type != "i" {
		t.Errorf("got name=%q type=%q, want no swap", iv.Name, iv.Type)
	}
}

func TestReadMethodListSmallMethodDoubleIndirection(t *testing.T) {
	base := uint64(0x1000)
	buf := make([]byte, 0x200)

	// method list header: small flag set, entsize 12 (three int32s)
	u32(buf, 0x00, 12|uint32(objc.MethodListIsSmall))
	u32(buf, 0x04, 1)

	recVA := base + 0x08
	nameWordVA := base + 0x100 // where the name pointer word lives
	// sm.Name is relative to recVA (field offset 0)
	i32(buf, 0x08, int32(nameWordVA-recVA))
	// sm.Signature is relative to the signature field's own address (recVA+4)
	sigVA := base + 0x120
	i32(buf, 0x0C, int32(sigVA-(recVA+4)))
	i32(buf, 0x10, 0x1234) // impl, raw

	u64(buf, 0x100, base+0x140) // the word at nameWordVA: a tagged pointer to the name string
	putStr(buf, 0x140, "alloc")
	putStr(buf, 0x120, "@16@0:8")

	s := streamOverSlab(base, buf)
	ctx := newParseCtx(s)
	methods := ctx.readMethodList(base, true)
	if len(methods) != 1 {
		t.Fatalf("got %d methods, want 1", len(methods))
	}
	m := methods[0]
	if m.Selector != "alloc" || m.Signature != "@16@0:8" || !m.IsSmall || !m.IsClassMethod {
		t.Errorf("unexpected small method: %+v", m)
	}
}
