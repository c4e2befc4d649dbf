package objc

import "fmt"

// Method is a parsed method_t record (big or small).
type Method struct {
	Locator       uint64
	Selector      string
	Signature     string // raw type-encoding string
	Impl          uint64 // absolute VA for big methods, raw relative i32 (sign-extended) for small methods
	IsClassMethod bool
	IsSmall       bool
}

// Declaration renders `[+|-] decoded-signature // 0x<impl-hex>`. If the
// raw signature fails to parse, the raw encoding is annotated in a
// comment instead of a decoded signature.
func (m Method) Declaration() string {
	prefix := "- "
	if m.IsClassMethod {
		prefix = "+ "
	}
	sig, err := Signature(m.Selector, m.Signature)
	if err != nil {
		return fmt.Sprintf("%s%s // <invalid type encoding '%s'> // 0x%x", prefix, m.Selector, m.Signature, m.Impl)
	}
	return fmt.Sprintf("%s%s // 0x%x", prefix, sig, m.Impl)
}
