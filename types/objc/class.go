package objc

import (
	"bytes"
	"fmt"
	"strings"
	"text/tabwriter"
)

// Class is a parsed class_t/class_ro_t pair. MetaClass is itself a
// Class (IsMeta true) holding the class-side methods and properties;
// the isa chain terminates with no metaclass or is cut short by the
// cycle guard in the assembler (component F) on re-entry.
type Class struct {
	Locator    uint64
	Name       string
	Flags      uint32
	IsMeta     bool
	SuperClass *Class
	MetaClass  *Class
	Methods    []Method
	Ivars      []IVar
	Protocols  []*Protocol
	Properties []Property
}

func ivarLines(ivars []IVar) string {
	if len(ivars) == 0 {
		return ""
	}
	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 4, 1, ' ', 0)
	for _, iv := range ivars {
		fmt.Fprintln(tw, iv.Declaration())
	}
	tw.Flush()
	return strings.TrimRight(buf.String(), "\n")
}

// Declaration renders:
//
//	@interface NAME: SUPER <P1,P2,…>
//	{
//	 ivar-decls
//	 meta-ivars
//	}
//	 property-decls
//	 meta-property-decls
//	 method-decls
//	 meta-method-decls
//	@end
//
// SuperClass defaults to "NSObject" when absent.
func (c *Class) Declaration() string {
	superName := "NSObject"
	if c.SuperClass != nil {
		superName = c.SuperClass.Name
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("@interface %s: %s", c.Name, superName))
	sb.WriteString(conformance(protocolNames(c.Protocols)))
	sb.WriteString("\n")

	ownIvars := ivarLines(c.Ivars)
	var metaIvars string
	if c.MetaClass != nil {
		metaIvars = ivarLines(c.MetaClass.Ivars)
	}
	if ownIvars != "" || metaIvars != "" {
		sb.WriteString("{\n")
		if ownIvars != "" {
			sb.WriteString(declList("ivars", []string{ownIvars}))
		}
		if metaIvars != "" {
			sb.WriteString(declList("class ivars", []string{metaIvars}))
		}
		sb.WriteString("}\n")
	}

	sb.WriteString(declList("properties", propertyLines(c.Properties)))
	if c.MetaClass != nil {
		sb.WriteString(declList("class properties", propertyLines(c.MetaClass.Properties)))
	}
	sb.WriteString(declList("methods", methodLines(c.Methods)))
	if c.MetaClass != nil {
		sb.WriteString(declList("class methods", methodLines(c.MetaClass.Methods)))
	}

	sb.WriteString("@end")
	return sb.String()
}
