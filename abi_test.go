package objcabi

import (
	"encoding/binary"
	"testing"
)

func pointerTable(vas ...uint64) []byte {
	buf := make([]byte, 8*len(vas))
	for i, va := range vas {
		binary.LittleEndian.PutUint64(buf[i*8:], va)
	}
	return buf
}

// buildWorldSlab lays out a class at 0x1000 (via buildClassSlab), a
// category at 0x1800 extending it, and a protocol at 0x1A00, all in
// one segment starting at VA 0x1000.
func buildWorldSlab() []byte {
	buf := make([]byte, 0x1C00)
	copy(buf, buildClassSlab(0x1000))

	// category_t at 0x1800: Name, Class, InstanceMethods, ClassMethods,
	// Protocols, InstanceProperties. Record spans 0x800-0x830; its name
	// string lives past that, at 0x840, so it can't collide with a
	// field.
	u64(buf, 0x800, 0x1840) // name
	u64(buf, 0x808, 0x1000) // class -> Foo
	u64(buf, 0x810, 0)      // instance methods
	u64(buf, 0x818, 0)      // class methods
	u64(buf, 0x820, 0)      // protocols
	u64(buf, 0x828, 0)      // instance properties
	putStr(buf, 0x840, "Ext")

	// protocol_t at 0x1A00.
	u64(buf, 0xA00, 0) // isa
	u64(buf, 0xA08, 0x1A50) // name
	u64(buf, 0xA10, 0)      // protocols
	u64(buf, 0xA18, 0)      // required instance
	u64(buf, 0xA20, 0)      // required class
	u64(buf, 0xA28, 0)      // optional instance
	u64(buf, 0xA30, 0)      // optional class
	u64(buf, 0xA38, 0)      // instance properties
	u32(buf, 0xA40, 0)      // size
	u32(buf, 0xA44, 0)      // flags
	putStr(buf, 0xA50, "Barable")

	return buf
}

func TestAssembleWalksClassCategoryAndProtocolLists(t *testing.T) {
	data := buildWorldSlab()
	segs := []Segment{{Name: "__DATA", VMAddr: 0x1000, VMSize: uint64(len(data)), Data: data}}
	sections := map[string]Segment{
		"__DATA_CONST.__objc_classlist": {Data: pointerTable(0x1000)},
		"__DATA_CONST.__objc_catlist":   {Data: pointerTable(0x1800)},
		"__DATA_CONST.__objc_protolist": {Data: pointerTable(0x1A00)},
	}
	r := &fakeReader{segs: segs, sections: sections}

	img := newImage("test.dylib", r)

	if len(img.Classes()) != 1 {
		t.Fatalf("got %d classes, want 1", len(img.Classes()))
	}
	foo, ok := img.GetClass("Foo")
	if !ok || foo.Name != "Foo" {
		t.Fatalf("GetClass(Foo) = %+v, %v", foo, ok)
	}

	if len(img.Categories()) != 1 {
		t.Fatalf("got %d categories, want 1", len(img.Categories()))
	}
	ext, ok := img.GetCategory("Ext")
	if !ok {
		t.Fatalf("GetCategory(Ext) not found")
	}
	if ext.BaseClass == nil || ext.BaseClass.Name != "Foo" {
		t.Errorf("category base class not resolved to Foo: %+v", ext.BaseClass)
	}

	if len(img.Protocols()) != 1 {
		t.Fatalf("got %d protocols, want 1", len(img.Protocols()))
	}
	if _, ok := img.GetProtocol("Barable"); !ok {
		t.Errorf("GetProtocol(Barable) not found")
	}
}

func TestAssembleFallsBackToPlainDataSegment(t *testing.T) {
	data := buildClassSlab(0x1000)
	segs := []Segment{{Name: "__DATA", VMAddr: 0x1000, VMSize: uint64(len(data)), Data: data}}
	sections := map[string]Segment{
		// Only the plain __DATA variant is present, not __DATA_CONST.
		"__DATA.__objc_classlist": {Data: pointerTable(0x1000)},
	}
	r := &fakeReader{segs: segs, sections: sections}

	img := newImage("test.dylib", r)
	if len(img.Classes()) != 1 {
		t.Fatalf("got %d classes, want 1 via __DATA fallback", len(img.Classes()))
	}
}

func TestAssembleEmptyImageYieldsNoEntities(t *testing.T) {
	r := &fakeReader{}
	img := newImage("empty.dylib", r)
	if len(img.Classes()) != 0 || len(img.Categories()) != 0 || len(img.Protocols()) != 0 {
		t.Errorf("expected no entities for an image with no objc sections")
	}
}
