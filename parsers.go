package objcabi

import (
	"encoding/binary"

	objc "github.com/go-objc/abi/types/objc"
)

// parseCtx carries the shared stream, and the VA-keyed caches and
// cycle guards the class/protocol parsers need. A class or protocol
// VA that is currently being built is tracked in building*; re-
// entering it yields nil (the cycle-breaking guard, §4.3/§9). A VA
// that has already finished building is cached in *ByVA so that
// sharing (the same protocol reachable from several classes, the same
// superclass reached from several subclasses) reuses one instance
// rather than re-parsing duplicate copies.
type parseCtx struct {
	s                 *Stream
	classesByVA       map[uint64]*objc.Class
	buildingClasses   map[uint64]bool
	protocolsByVA     map[uint64]*objc.Protocol
	buildingProtocols map[uint64]bool
}

func newParseCtx(s *Stream) *parseCtx {
	return &parseCtx{
		s:                 s,
		classesByVA:       map[uint64]*objc.Class{},
		buildingClasses:   map[uint64]bool{},
		protocolsByVA:     map[uint64]*objc.Protocol{},
		buildingProtocols: map[uint64]bool{},
	}
}

// parseClassAt parses the class_t record at va (already fixed up by
// the caller). isMeta marks whether va is being resolved as a
// metaclass (reached via some class_t.isa), which decides whether its
// base_methods render with the class-method ("+") prefix.
func (ctx *parseCtx) parseClassAt(va uint64, isMeta bool) *objc.Class {
	if va == 0 {
		return nil
	}
	if c, ok := ctx.classesByVA[va]; ok {
		return c
	}
	if ctx.buildingClasses[va] {
		return nil // reentrant cycle: terminate the isa/superclass chain here
	}
	ctx.buildingClasses[va] = true
	defer delete(ctx.buildingClasses, va)

	restore, err := ctx.s.ScopedSeek(va)
	defer restore()
	if err != nil {
		return nil
	}
	ct, err := Peek[objc.ClassT](ctx.s)
	if err != nil {
		return nil
	}

	class := &objc.Class{Locator: va, IsMeta: isMeta}

	// Super and isa must be resolved before class_ro (§4.3): the
	// metaclass's own parse needs this class's VA already marked
	// in-progress for the cycle guard to cut a self-referential isa.
	if ct.Super != 0 {
		class.SuperClass = ctx.parseClassAt(ctx.s.Fix(ct.Super), false)
	}
	if ct.Isa != 0 {
		class.MetaClass = ctx.parseClassAt(ctx.s.Fix(ct.Isa), true)
	}

	classRO := ct.ClassRO()
	if classRO == 0 {
		return nil // TruncationError: drop the entity
	}
	classRO = ctx.s.Fix(classRO)
	restoreRO, err := ctx.s.ScopedSeek(classRO)
	defer restoreRO()
	if err != nil {
		return nil
	}
	cro, err := Peek[objc.ClassROT](ctx.s)
	if err != nil {
		return nil
	}
	class.Flags = cro.Flags

	name, err := ctx.s.StringAt(ctx.s.Fix(cro.Name))
	if err != nil || name == "" {
		return nil // every successfully parsed class has a non-empty name
	}
	class.Name = name

	class.Protocols = ctx.readProtocolList(cro.BaseProtocols)
	class.Methods = ctx.readMethodList(cro.BaseMethods, isMeta)
	class.Properties = ctx.readPropertyList(cro.BaseProperties)
	class.Ivars = ctx.readIvarList(cro.Ivars)

	ctx.classesByVA[va] = class
	return class
}

// parseCategoryAt parses the category_t record at va.
func (ctx *parseCtx) parseCategoryAt(va uint64) *objc.Category {
	if va == 0 {
		return nil
	}
	restore, err := ctx.s.ScopedSeek(va)
	defer restore()
	if err != nil {
		return nil
	}
	cat, err := Peek[objc.CategoryT](ctx.s)
	if err != nil {
		return nil
	}
	name, err := ctx.s.StringAt(ctx.s.Fix(cat.Name))
	if err != nil || name == "" {
		return nil
	}

	category := &objc.Category{Locator: va, Name: name}
	if cat.Class != 0 {
		category.BaseClass = ctx.parseClassAt(ctx.s.Fix(cat.Class), false)
	}
	category.ClassMethods = ctx.readMethodList(cat.ClassMethods, true)
	category.InstanceMethods = ctx.readMethodList(cat.InstanceMethods, false)
	category.Protocols = ctx.readProtocolList(cat.Protocols)
	category.InstanceProperties = ctx.readPropertyList(cat.InstanceProperties)
	return category
}

// parseProtocolAt parses the protocol_t record at va (already fixed).
func (ctx *parseCtx) parseProtocolAt(va uint64) *objc.Protocol {
	if va == 0 {
		return nil
	}
	if p, ok := ctx.protocolsByVA[va]; ok {
		return p
	}
	if ctx.buildingProtocols[va] {
		return nil
	}
	ctx.buildingProtocols[va] = true
	defer delete(ctx.buildingProtocols, va)

	restore, err := ctx.s.ScopedSeek(va)
	defer restore()
	if err != nil {
		return nil
	}
	pt, err := Peek[objc.ProtocolT](ctx.s)
	if err != nil {
		return nil
	}
	name, err := ctx.s.StringAt(ctx.s.Fix(pt.Name))
	if err != nil || name == "" {
		return nil
	}

	proto := &objc.Protocol{Locator: va, Name: name, Flags: pt.Flags}
	proto.Protocols = ctx.readProtocolList(pt.Protocols)
	// Required-class, optional-class, required-instance, optional-
	// instance, then properties — the fixed order the original
	// implementation walks a protocol_t's method lists in.
	proto.RequiredClassMethods = ctx.readMethodList(pt.ClassMethods, true)
	proto.OptionalClassMethods = ctx.readMethodList(pt.OptionalClassMethods, true)
	proto.RequiredInstanceMethods = ctx.readMethodList(pt.InstanceMethods, false)
	proto.OptionalInstanceMethods = ctx.readMethodList(pt.OptionalInstanceMethods, false)
	proto.InstanceProperties = ctx.readPropertyList(pt.InstanceProperties)

	ctx.protocolsByVA[va] = proto
	return proto
}

// readProtocolList walks a protocol_list_t: a pointer-sized count
// followed by that many tagged pointers.
func (ctx *parseCtx) readProtocolList(headerVA uint64) []*objc.Protocol {
	if headerVA == 0 {
		return nil
	}
	headerVA = ctx.s.Fix(headerVA)
	restore, err := ctx.s.ScopedSeek(headerVA)
	defer restore()
	if err != nil {
		return nil
	}
	hdr, err := Read[objc.ProtocolListCount](ctx.s)
	if err != nil {
		return nil
	}
	recordsStart := ctx.s.Pos()

	var list []*objc.Protocol
	for i := uint64(0); i < hdr.Count; i++ {
		word, err := ctx.peekPointerAt(recordsStart + i*8)
		if err != nil || word == 0 {
			continue
		}
		if p := ctx.parseProtocolAt(ctx.s.Fix(word)); p != nil {
			list = append(list, p)
		}
	}
	return list
}

// readMethodList walks a method_list_t, dispatching each record to
// the big or small method_t layout per the list's IS_SMALL flag.
func (ctx *parseCtx) readMethodList(headerVA uint64, isClassMethod bool) []objc.Method {
	if headerVA == 0 {
		return nil
	}
	headerVA = ctx.s.Fix(headerVA)
	restore, err := ctx.s.ScopedSeek(headerVA)
	defer restore()
	if err != nil {
		return nil
	}
	hdr, err := Read[objc.ListHeader](ctx.s)
	if err != nil {
		return nil
	}
	entsize := uint64(hdr.Entsize(objc.MethodListFlagMask))
	isSmall := hdr.IsSmallMethodList()
	recordsStart := ctx.s.Pos()

	var methods []objc.Method
	for i := uint64(0); i < uint64(hdr.Count); i++ {
		recVA := recordsStart + i*entsize
		m := ctx.parseMethod(recVA, isSmall, isClassMethod)
		if m != nil {
			methods = append(methods, *m)
		}
	}
	return methods
}

func (ctx *parseCtx) parseMethod(recVA uint64, isSmall, isClassMethod bool) *objc.Method {
	restore, err := ctx.s.ScopedSeek(recVA)
	defer restore()
	if err != nil {
		return nil
	}

	if isSmall {
		sm, err := Peek[objc.SmallMethodT](ctx.s)
		if err != nil {
			return nil
		}

		// Double indirection: the relative name offset points at a
		// pointer-sized word, which itself must be fixed up before
		// the string it addresses can be read.
		nameWordVA := applyRelativeOffset(recVA, sm.Name)
		word, err := ctx.peekPointerAt(nameWordVA)
		if err != nil {
			return nil
		}
		name, err := ctx.s.StringAt(ctx.s.Fix(word))
		if err != nil {
			return nil
		}

		sigFieldVA := recVA + 4
		sigVA := applyRelativeOffset(sigFieldVA, sm.Signature)
		sig, err := ctx.s.StringAt(sigVA)
		if err != nil {
			return nil
		}

		return &objc.Method{
			Locator:       recVA,
			Selector:      name,
			Signature:     sig,
			Impl:          uint64(int64(sm.Impl)),
			IsClassMethod: isClassMethod,
			IsSmall:       true,
		}
	}

	bm, err := Peek[objc.BigMethodT](ctx.s)
	if err != nil {
		return nil
	}
	name, err := ctx.s.StringAt(ctx.s.Fix(bm.Name))
	if err != nil {
		return nil
	}
	sig, err := ctx.s.StringAt(ctx.s.Fix(bm.Signature))
	if err != nil {
		return nil
	}
	return &objc.Method{
		Locator:       recVA,
		Selector:      name,
		Signature:     sig,
		Impl:          ctx.s.Fix(bm.Impl),
		IsClassMethod: isClassMethod,
	}
}

// readIvarList walks an ivar_list_t (entsize mask 0: the effective
// stride is the raw entsize_and_flags value itself, per §4.3.1 and
// §9's note that real binaries carry a nonzero entsize here).
func (ctx *parseCtx) readIvarList(headerVA uint64) []objc.IVar {
	if headerVA == 0 {
		return nil
	}
	headerVA = ctx.s.Fix(headerVA)
	restore, err := ctx.s.ScopedSeek(headerVA)
	defer restore()
	if err != nil {
		return nil
	}
	hdr, err := Read[objc.ListHeader](ctx.s)
	if err != nil {
		return nil
	}
	entsize := uint64(hdr.Entsize(0))
	recordsStart := ctx.s.Pos()

	var ivars []objc.IVar
	for i := uint64(0); i < uint64(hdr.Count); i++ {
		recVA := recordsStart + i*entsize
		if iv := ctx.parseIvar(recVA); iv != nil {
			ivars = append(ivars, *iv)
		}
	}
	return ivars
}

func (ctx *parseCtx) parseIvar(recVA uint64) *objc.IVar {
	restore, err := ctx.s.ScopedSeek(recVA)
	defer restore()
	if err != nil {
		return nil
	}
	it, err := Peek[objc.IvarT](ctx.s)
	if err != nil {
		return nil
	}
	name, errName := ctx.s.StringAt(ctx.s.Fix(it.Name))
	typeName, errType := ctx.s.StringAt(ctx.s.Fix(it.Type))
	if errName != nil {
		name = ""
	}
	if errType != nil {
		typeName = ""
	}

	// The fragile, partially-justified swap heuristic: correct a
	// mis-ordering seen on some toolchains rather than inferred from
	// first principles. Only applies when both strings actually read;
	// a failed read must not be masked by a spurious swap.
	if len(name) > 0 && len(typeName) > 0 &&
		(typeName[0] == '_' || name[0] == 'T' || len(name) <= 2) {
		name, typeName = typeName, name
	}

	return &objc.IVar{
		Locator:   recVA,
		Offset:    it.Offset,
		Name:      name,
		Type:      typeName,
		Alignment: it.Alignment,
		Size:      it.Size,
	}
}

// readPropertyList walks a property_list_t (entsize mask 0, same
// stride convention as ivar_list_t).
func (ctx *parseCtx) readPropertyList(headerVA uint64) []objc.Property {
	if headerVA == 0 {
		return nil
	}
	headerVA = ctx.s.Fix(headerVA)
	restore, err := ctx.s.ScopedSeek(headerVA)
	defer restore()
	if err != nil {
		return nil
	}
	hdr, err := Read[objc.ListHeader](ctx.s)
	if err != nil {
		return nil
	}
	entsize := uint64(hdr.Entsize(0))
	recordsStart := ctx.s.Pos()

	var props []objc.Property
	for i := uint64(0); i < uint64(hdr.Count); i++ {
		recVA := recordsStart + i*entsize
		if p := ctx.parseProperty(recVA); p != nil {
			props = append(props, *p)
		}
	}
	return props
}

func (ctx *parseCtx) parseProperty(recVA uint64) *objc.Property {
	restore, err := ctx.s.ScopedSeek(recVA)
	defer restore()
	if err != nil {
		return nil
	}
	pt, err := Peek[objc.PropertyT](ctx.s)
	if err != nil {
		return nil
	}
	name, err := ctx.s.StringAt(ctx.s.Fix(pt.Name))
	if err != nil {
		return nil
	}
	attrs, err := ctx.s.StringAt(ctx.s.Fix(pt.Attributes))
	if err != nil {
		return nil
	}
	return &objc.Property{Locator: recVA, Name: name, Attributes: attrs}
}

// peekPointerAt reads a single pointer-sized word at va without
// disturbing the stream's current cursor.
func (ctx *parseCtx) peekPointerAt(va uint64) (uint64, error) {
	restore, err := ctx.s.ScopedSeek(va)
	defer restore()
	if err != nil {
		return 0, err
	}
	return Peek[uint64](ctx.s)
}

// decodePointerTable reads a packed sequence of pointer-sized entries
// out of raw section content (the __objc_*list sections are exactly
// this shape).
func decodePointerTable(data []byte) []uint64 {
	var out []uint64
	for i := 0; i+8 <= len(data); i += 8 {
		out = append(out, binary.LittleEndian.Uint64(data[i:i+8]))
	}
	return out
}
