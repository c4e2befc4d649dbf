package objc

import (
	"fmt"
	"strings"
)

// Decode renders a TypeNode back into legible C/Objective-C type
// syntax. It is the back-formatter half of the recursive-descent
// encoder/decoder pair: Typedesc builds the tree, Decode walks it.
func Decode(node *TypeNode) (string, error) {
	switch node.Kind {
	case KindPrimitive:
		return node.Name, nil
	case KindPointer:
		if len(node.Children) != 1 {
			return "", fmt.Errorf("%w: pointer node has %d children", ErrInvariant, len(node.Children))
		}
		inner, err := Decode(node.Children[0])
		if err != nil {
			return "", err
		}
		if strings.HasSuffix(inner, "*") {
			return inner + "*", nil
		}
		return inner + " *", nil
	case KindArray:
		if len(node.Children) != 1 {
			return "", fmt.Errorf("%w: array node has %d children", ErrInvariant, len(node.Children))
		}
		inner, err := Decode(node.Children[0])
		if err != nil {
			return "", err
		}
		if node.Dim == 0 {
			return inner + "[]", nil
		}
		return fmt.Sprintf("%s[%d]", inner, node.Dim), nil
	case KindStruct:
		return "struct " + node.Name, nil
	case KindUnion:
		return "union " + node.Name, nil
	case KindBitField:
		return fmt.Sprintf("BitField<%d>", node.Size), nil
	case KindObject:
		if node.Name == "" {
			return "id", nil
		}
		return node.Name + " *", nil
	case KindPVoid:
		return "void *", nil
	case KindBlock:
		return decodeBlock(node)
	case KindAttributes:
		return DecodeProperty(node)
	}
	return "", fmt.Errorf("%w: cannot decode node kind %d", ErrInvariant, node.Kind)
}

// decodeBlock renders a typed block node: return type, implicit
// block-self argument skipped, remaining children as the parameter
// list.
func decodeBlock(node *TypeNode) (string, error) {
	if len(node.Children) == 0 {
		return "", fmt.Errorf("%w: empty block type", ErrInvariant)
	}
	ret, err := Decode(node.Children[0])
	if err != nil {
		return "", err
	}
	var args []string
	for i, c := range node.Children {
		if i < 2 {
			continue
		}
		a, err := Decode(c)
		if err != nil {
			return "", err
		}
		args = append(args, a)
	}
	return fmt.Sprintf("%s (^_)(%s)", ret, strings.Join(args, ", ")), nil
}

// DecodeProperty renders a property-attribute node (the tree produced
// by Typedesc for a "T..." encoding) into a full @property/@dynamic
// declaration line. The node's Name carries the backing ivar name
// found via the 'V' attribute (or, per the grammar's fallback rule,
// any unrecognised attribute token) and is appended after the type.
// When a DYNAMIC attribute is present the line is rendered as
// `@dynamic NAME` instead, without the type or the other attributes.
func DecodeProperty(node *TypeNode) (string, error) {
	if len(node.Children) == 0 {
		return "", fmt.Errorf("%w: empty property attributes", ErrInvariant)
	}
	typeStr, err := Decode(node.Children[0])
	if err != nil {
		return "", err
	}

	var attrs []string
	dynamic := false
	for _, c := range node.Children[1:] {
		switch c.Kind {
		case KindReadOnly:
			attrs = append(attrs, "readonly")
		case KindCopy:
			attrs = append(attrs, "copy")
		case KindRetain:
			attrs = append(attrs, "retain")
		case KindNonAtomic:
			attrs = append(attrs, "nonatomic")
		case KindWeak:
			attrs = append(attrs, "weak")
		case KindGarbage:
			attrs = append(attrs, "collectable")
		case KindDynamic:
			dynamic = true
		case KindGetter:
			attrs = append(attrs, "getter="+c.Name)
		case KindSetter:
			attrs = append(attrs, "setter="+c.Name)
		}
	}

	if dynamic {
		if node.Name != "" {
			return "@dynamic " + node.Name, nil
		}
		return "@dynamic", nil
	}

	var sb strings.Builder
	sb.WriteString("@property ")
	if len(attrs) > 0 {
		sb.WriteString("(" + strings.Join(attrs, ", ") + ") ")
	}
	sb.WriteString(typeStr)
	if node.Name != "" {
		sb.WriteString(" " + node.Name)
	}
	return sb.String(), nil
}

// ParseEncodedList parses a concatenated sequence of type encodings —
// the shape a method's raw signature string takes (return type
// followed by one encoding per argument, each tagged with a trailing
// stack-size natural) — into an ordered slice of nodes.
func ParseEncodedList(encoding string) ([]*TypeNode, error) {
	p := &typeParser{s: encoding}
	var nodes []*TypeNode
	for !p.eof() {
		n, err := p.parseType()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// Signature formats a method's selector and raw encoding into
// `(ret) label1:(t1) label2:(t2) …`, or `(ret)selector` when the
// selector takes no arguments. children[0] of the parsed list is the
// return type; children[1] and children[2] are the implicit SEL/self
// arguments and are always skipped regardless of their relative order
// in the raw encoding. Anonymous parameters (an empty label between
// two colons) consume an argument slot but contribute nothing to the
// output.
func Signature(selector, encoding string) (string, error) {
	nodes, err := ParseEncodedList(encoding)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncodingSyntax, err)
	}
	if len(nodes) == 0 {
		return "", fmt.Errorf("%w: empty method encoding", ErrEncodingSyntax)
	}
	retType, err := Decode(nodes[0])
	if err != nil {
		return "", err
	}

	if !strings.Contains(selector, ":") {
		return fmt.Sprintf("(%s)%s", retType, selector), nil
	}

	var args []*TypeNode
	if len(nodes) > 3 {
		args = nodes[3:]
	}

	labels := strings.Split(selector, ":")
	if len(labels) > 0 && labels[len(labels)-1] == "" {
		labels = labels[:len(labels)-1]
	}

	var sb strings.Builder
	sb.WriteString("(" + retType + ")")
	argIdx := 0
	for _, label := range labels {
		if argIdx >= len(args) {
			break
		}
		argType, err := Decode(args[argIdx])
		if err != nil {
			return "", err
		}
		argIdx++
		if label == "" {
			continue
		}
		sb.WriteString(label + ":(" + argType + ") ")
	}
	return strings.TrimRight(sb.String(), " "), nil
}
