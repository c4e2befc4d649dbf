package objcabi

import (
	"slices"

	objc "github.com/go-objc/abi/types/objc"
)

// ABI is the assembled result of walking one Mach-O image's ObjC
// metadata sections: the owned, de-duplicated sequences of classes,
// categories and protocols, plus name-keyed lookup maps over them.
// Sub-parses reached transitively (superclasses, adopted protocols)
// are non-owning borrows into these same sequences, not separate
// copies — see parseCtx's *ByVA caches in parsers.go.
type ABI struct {
	Classes    []*objc.Class
	Categories []*objc.Category
	Protocols  []*objc.Protocol

	classByName    map[string]*objc.Class
	categoryByName map[string]*objc.Category
	protocolByName map[string]*objc.Protocol
}

// GetClass looks up a top-level class by name.
func (a *ABI) GetClass(name string) (*objc.Class, bool) {
	c, ok := a.classByName[name]
	return c, ok
}

// GetCategory looks up a top-level category by name.
func (a *ABI) GetCategory(name string) (*objc.Category, bool) {
	c, ok := a.categoryByName[name]
	return c, ok
}

// GetProtocol looks up a top-level protocol by name.
func (a *ABI) GetProtocol(name string) (*objc.Protocol, bool) {
	p, ok := a.protocolByName[name]
	return p, ok
}

// sectionSegments are the segments the classlist/catlist/protolist
// sections are looked up under, most specific first: modern toolchains
// place them in __DATA_CONST, older ones in plain __DATA, and some
// linker configurations split mutable entries into __DATA_DIRTY.
var sectionSegments = []string{"__DATA_CONST", "__DATA", "__DATA_DIRTY"}

func findSection(r MachOReader, name string) (Segment, bool) {
	for _, seg := range sectionSegments {
		if sec, ok := r.Section(seg, name); ok {
			return sec, true
		}
	}
	return Segment{}, false
}

// assemble walks the image's __objc_classlist, __objc_catlist and
// __objc_protolist sections, parsing every entry into the owned ABI
// sequences.
func assemble(s *Stream, r MachOReader) *ABI {
	ctx := newParseCtx(s)
	abi := &ABI{
		classByName:    map[string]*objc.Class{},
		categoryByName: map[string]*objc.Category{},
		protocolByName: map[string]*objc.Protocol{},
	}

	if sec, ok := findSection(r, "__objc_classlist"); ok {
		for _, raw := range decodePointerTable(sec.Data) {
			if raw == 0 {
				continue
			}
			class := ctx.parseClassAt(s.Fix(raw), false)
			if class == nil {
				continue
			}
			if prev, ok := abi.classByName[class.Name]; ok {
				abi.Classes = slices.DeleteFunc(abi.Classes, func(c *objc.Class) bool { return c == prev })
			}
			abi.Classes = append(abi.Classes, class)
			abi.classByName[class.Name] = class
		}
	}

	if sec, ok := findSection(r, "__objc_catlist"); ok {
		for _, raw := range decodePointerTable(sec.Data) {
			if raw == 0 {
				continue
			}
			cat := ctx.parseCategoryAt(s.Fix(raw))
			if cat == nil {
				continue
			}
			if prev, ok := abi.categoryByName[cat.Name]; ok {
				abi.Categories = slices.DeleteFunc(abi.Categories, func(c *objc.Category) bool { return c == prev })
			}
			abi.Categories = append(abi.Categories, cat)
			abi.categoryByName[cat.Name] = cat
		}
	}

	if sec, ok := findSection(r, "__objc_protolist"); ok {
		for _, raw := range decodePointerTable(sec.Data) {
			if raw == 0 {
				continue
			}
			proto := ctx.parseProtocolAt(s.Fix(raw))
			if proto == nil {
				continue
			}
			if prev, ok := abi.protocolByName[proto.Name]; ok {
				abi.Protocols = slices.DeleteFunc(abi.Protocols, func(p *objc.Protocol) bool { return p == prev })
			}
			abi.Protocols = append(abi.Protocols, proto)
			abi.protocolByName[proto.Name] = proto
		}
	}

	return abi
}
