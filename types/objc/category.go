package objc

import (
	"fmt"
	"strings"
)

// Category is a parsed category_t record. BaseClass is nil when the
// record has no base class, i.e. an extension (`@interface Foo ()`).
type Category struct {
	Locator            uint64
	Name               string
	BaseClass          *Class
	InstanceMethods    []Method
	ClassMethods       []Method
	Protocols          []*Protocol
	InstanceProperties []Property
}

// Declaration renders `@interface NAME (BASE) <P1,…> ... @end`, or
// `NAME ()` in place of `NAME (BASE)` when BaseClass is nil.
func (c *Category) Declaration() string {
	var sb strings.Builder
	if c.BaseClass != nil {
		sb.WriteString(fmt.Sprintf("@interface %s (%s)", c.Name, c.BaseClass.Name))
	} else {
		sb.WriteString(fmt.Sprintf("@interface %s ()", c.Name))
	}
	sb.WriteString(conformance(protocolNames(c.Protocols)))
	sb.WriteString("\n")

	sb.WriteString(declList("properties", propertyLines(c.InstanceProperties)))
	sb.WriteString(declList("instance methods", methodLines(c.InstanceMethods)))
	sb.WriteString(declList("class methods", methodLines(c.ClassMethods)))

	sb.WriteString("@end")
	return sb.String()
}
