package objc

import "errors"

// ErrEncodingSyntax is returned when a type-encoding string violates the
// @encode grammar.
var ErrEncodingSyntax = errors.New("objc: type-encoding syntax error")

// ErrInvariant is returned when a decoded TypeNode violates a structural
// invariant the decoder depends on (e.g. a pointer node with other than
// one child).
var ErrInvariant = errors.New("objc: type-encoding invariant violated")
