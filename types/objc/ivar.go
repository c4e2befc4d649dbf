package objc

import (
	"fmt"
	"unicode"
)

// IVar is a parsed ivar_t record.
type IVar struct {
	Locator   uint64
	Offset    uint64
	Name      string
	Type      string // raw mangled type encoding
	Alignment uint64
	Size      uint64
}

// remappedName substitutes a placeholder for a name whose first byte
// is not printable, the convention the declaration renderer uses for
// the "invalid name" fallback forms.
func remappedName(name string) (string, bool) {
	if name == "" {
		return "_$remapped_name", true
	}
	r := []rune(name)
	if unicode.IsPrint(r[0]) {
		return name, false
	}
	return "_$remapped_name", true
}

// Declaration renders `decoded-type name;`, or one of three fallback
// comment forms when the record is missing or malformed data:
//
//	// 0x<addr> <remapped>                  — name or type missing
//	// 0x<addr> <invalid type> 'raw'        — type fails to parse
//	// 0x<addr> <remapped, invalid type>    — name unprintable, type fails too
func (v IVar) Declaration() string {
	if v.Name == "" || v.Type == "" {
		return fmt.Sprintf("// 0x%x _$remapped_name", v.Locator)
	}

	remapped, wasRemapped := remappedName(v.Name)

	node, err := Typedesc(v.Type)
	if err != nil {
		if wasRemapped {
			return fmt.Sprintf("// 0x%x %s, invalid type", v.Locator, remapped)
		}
		return fmt.Sprintf("// 0x%x invalid type '%s'", v.Locator, v.Type)
	}

	decoded, err := Decode(node)
	if err != nil {
		if wasRemapped {
			return fmt.Sprintf("// 0x%x %s, invalid type", v.Locator, remapped)
		}
		return fmt.Sprintf("// 0x%x invalid type '%s'", v.Locator, v.Type)
	}

	return fmt.Sprintf("%s\t%s;", decoded, remapped)
}
