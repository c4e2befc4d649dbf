package objc

import "strings"

// Protocol is a parsed protocol_t record.
type Protocol struct {
	Locator                 uint64
	Name                    string
	Flags                   uint32
	Protocols               []*Protocol // referenced sub-protocols
	RequiredInstanceMethods []Method
	RequiredClassMethods    []Method
	OptionalInstanceMethods []Method
	OptionalClassMethods    []Method
	InstanceProperties      []Property
}

// Declaration renders:
//
//	@protocol NAME <P1,…>
//	 property-decls
//	@optional
//	 optional-methods
//	@required
//	 required-methods
//	@end
func (p *Protocol) Declaration() string {
	var sb strings.Builder
	sb.WriteString("@protocol " + p.Name)
	sb.WriteString(conformance(protocolNames(p.Protocols)))
	sb.WriteString("\n")

	sb.WriteString(declList("properties", propertyLines(p.InstanceProperties)))

	if len(p.OptionalInstanceMethods) > 0 || len(p.OptionalClassMethods) > 0 {
		sb.WriteString("@optional\n")
		sb.WriteString(declList("instance methods", methodLines(p.OptionalInstanceMethods)))
		sb.WriteString(declList("class methods", methodLines(p.OptionalClassMethods)))
	}
	if len(p.RequiredInstanceMethods) > 0 || len(p.RequiredClassMethods) > 0 {
		sb.WriteString("@required\n")
		sb.WriteString(declList("instance methods", methodLines(p.RequiredInstanceMethods)))
		sb.WriteString(declList("class methods", methodLines(p.RequiredClassMethods)))
	}

	sb.WriteString("@end")
	return sb.String()
}
