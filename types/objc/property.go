package objc

import (
	"fmt"
	"strings"
)

// Property is a parsed property_t record.
type Property struct {
	Locator    uint64
	Name       string
	Attributes string // raw mangled attribute encoding
}

// Declaration renders the decoded attribute string, appending the
// property's own name only when the decoded text does not already
// contain it (the attribute string's own backing-ivar name, decoded
// separately inside DecodeProperty, is often but not always the same
// text). Attributes already carries its own leading 'T' marker, as
// read straight off property_t — it is not stripped at parse time.
func (p Property) Declaration() string {
	node, err := Typedesc(p.Attributes)
	if err != nil {
		return fmt.Sprintf("// 0x%x <invalid attributes '%s'>", p.Locator, p.Attributes)
	}
	decoded, err := DecodeProperty(node)
	if err != nil {
		return fmt.Sprintf("// 0x%x <invalid attributes '%s'>", p.Locator, p.Attributes)
	}
	if p.Name != "" && !strings.Contains(decoded, p.Name) {
		decoded += " " + p.Name
	}
	return decoded
}
