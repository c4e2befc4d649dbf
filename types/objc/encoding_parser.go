package objc

import (
	"fmt"
	"strconv"
	"strings"
)

// Typedesc parses a single Objective-C runtime type-encoding string
// (as produced by @encode, or a property-attribute string beginning
// with 'T') into a TypeNode tree.
func Typedesc(encoding string) (*TypeNode, error) {
	if len(encoding) == 0 {
		return nil, fmt.Errorf("%w: empty encoding", ErrEncodingSyntax)
	}
	p := &typeParser{s: encoding}
	var node *TypeNode
	var err error
	if encoding[0] == 'T' {
		p.advance()
		node, err = p.parsePropertyString()
	} else {
		node, err = p.parseType()
	}
	if err != nil {
		return nil, err
	}
	return node, nil
}

type typeParser struct {
	s string
	i int
}

func (p *typeParser) eof() bool        { return p.i >= len(p.s) }
func (p *typeParser) peek() byte       { return p.s[p.i] }
func (p *typeParser) advance()         { p.i++ }

func (p *typeParser) readUntilAny(stop ...byte) string {
	start := p.i
	for !p.eof() {
		c := p.peek()
		for _, s := range stop {
			if c == s {
				return p.s[start:p.i]
			}
		}
		p.advance()
	}
	return p.s[start:p.i]
}

func (p *typeParser) parseNatural() int {
	start := p.i
	for !p.eof() && isDigit(p.peek()) {
		p.advance()
	}
	if p.i == start {
		return 0
	}
	v, _ := strconv.Atoi(p.s[start:p.i])
	return v
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func qualifierFor(c byte) (Qualifier, bool) {
	switch c {
	case 'r':
		return QualConst, true
	case 'n':
		return QualIn, true
	case 'N':
		return QualInOut, true
	case 'o':
		return QualOut, true
	case 'O':
		return QualByCopy, true
	case 'R':
		return QualByRef, true
	case 'V':
		return QualOneWay, true
	case 'A':
		return QualAtomic, true
	case 'j':
		return QualComplex, true
	}
	return 0, false
}

// parseType parses exactly one qualified type, including its trailing
// stack-size natural, and returns the resulting node.
func (p *typeParser) parseType() (*TypeNode, error) {
	var quals []Qualifier
	for !p.eof() {
		q, ok := qualifierFor(p.peek())
		if !ok {
			break
		}
		quals = append(quals, q)
		p.advance()
	}
	if p.eof() {
		return nil, fmt.Errorf("%w: unexpected end of input", ErrEncodingSyntax)
	}

	var node *TypeNode
	var err error

	switch c := p.peek(); {
	case c == '^':
		p.advance()
		node, err = p.parsePointer()
	case c == '[':
		p.advance()
		node, err = p.parseArray()
	case c == '{':
		p.advance()
		node, err = p.parseStructOrUnion('}', KindStruct)
	case c == '(':
		p.advance()
		node, err = p.parseStructOrUnion(')', KindUnion)
	case c == '@':
		p.advance()
		node, err = p.parseObject()
	case c == 'b':
		p.advance()
		node, err = p.parseBitfield()
	case c == '"':
		p.advance()
		name := p.readUntilAny('"')
		if p.eof() {
			return nil, fmt.Errorf("%w: unterminated member name", ErrEncodingSyntax)
		}
		p.advance() // closing quote
		node, err = p.parseType()
		if err == nil {
			node.Name = name
		}
	default:
		node, err = p.parsePrimitive(c)
	}
	if err != nil {
		return nil, err
	}

	if len(quals) > 0 {
		node.Qualifiers = append(quals, node.Qualifiers...)
	}
	node.StackSize = p.parseNatural()
	return node, nil
}

func (p *typeParser) parsePointer() (*TypeNode, error) {
	inner, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if inner.Kind == KindPrimitive && inner.Name == "unknown" {
		// '^?' collapses to void*.
		node := newNode(KindPVoid)
		node.Size, node.Alignment = 8, 8
		return node, nil
	}
	node := newNode(KindPointer)
	node.Size, node.Alignment = 8, 8
	node.addChild(inner)
	return node, nil
}

func (p *typeParser) parseArray() (*TypeNode, error) {
	dim := p.parseNatural()
	inner, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if p.eof() || p.peek() != ']' {
		return nil, fmt.Errorf("%w: unterminated array", ErrEncodingSyntax)
	}
	p.advance()
	node := newNode(KindArray)
	node.Dim = dim
	node.addChild(inner)
	return node, nil
}

func (p *typeParser) parseStructOrUnion(closeChar byte, kind Kind) (*TypeNode, error) {
	name := p.readUntilAny('=', closeChar)
	node := newNode(kind)
	node.Name = name
	if !p.eof() && p.peek() == '=' {
		p.advance()
		for !p.eof() && p.peek() != closeChar {
			child, err := p.parseType()
			if err != nil {
				return nil, err
			}
			node.addChild(child)
		}
	}
	if p.eof() || p.peek() != closeChar {
		return nil, fmt.Errorf("%w: unterminated struct/union", ErrEncodingSyntax)
	}
	p.advance()
	return node, nil
}

func (p *typeParser) parseObject() (*TypeNode, error) {
	if p.eof() {
		return newNode(KindObject), nil // bare trailing '@' ⇒ anonymous id
	}
	switch p.peek() {
	case '"':
		p.advance()
		name := p.readUntilAny('"')
		if p.eof() {
			return nil, fmt.Errorf("%w: unterminated class name", ErrEncodingSyntax)
		}
		p.advance()
		node := newNode(KindObject)
		node.Name = name
		return node, nil
	case '?':
		p.advance()
		if !p.eof() && p.peek() == '<' {
			p.advance()
			node := newNode(KindBlock)
			for !p.eof() && p.peek() != '>' {
				child, err := p.parseType()
				if err != nil {
					return nil, err
				}
				node.addChild(child)
			}
			if p.eof() {
				return nil, fmt.Errorf("%w: unterminated block", ErrEncodingSyntax)
			}
			p.advance() // '>'
			node.Alignment = 8
			for i, c := range node.Children {
				if i >= 2 {
					node.Size += c.Size
				}
			}
			return node, nil
		}
		node := newNode(KindPVoid)
		node.Size, node.Alignment = 8, 8
		return node, nil
	default:
		return newNode(KindObject), nil // anonymous id
	}
}

func (p *typeParser) parseBitfield() (*TypeNode, error) {
	n := p.parseNatural()
	node := newNode(KindBitField)
	node.Size = n
	return node, nil
}

var primitiveNames = map[byte]string{
	'c': "char", 'C': "unsigned char",
	's': "short", 'S': "unsigned short",
	'i': "int", 'I': "unsigned int",
	'l': "long", 'L': "unsigned long",
	'q': "long long", 'Q': "unsigned long long",
	'f': "float", 'd': "double", 'D': "long double",
	'v': "void", 'B': "BOOL",
	'*': "char *", '#': "Class", ':': "SEL",
	'%': "NXAtom", 'z': "size_t", 'Z': "int32_t", 'w': "wchar_t",
	'?': "unknown",
}

var primitiveSizes = map[byte]int{
	'c': 1, 'C': 1, 's': 2, 'S': 2, 'i': 4, 'I': 4,
	'l': 8, 'L': 8, 'q': 8, 'Q': 8, 'f': 4, 'd': 8, 'D': 16,
	'v': 0, 'B': 1, '*': 8, '#': 8, ':': 8, '%': 8, 'z': 8, 'Z': 4, 'w': 4,
}

func (p *typeParser) parsePrimitive(c byte) (*TypeNode, error) {
	name, ok := primitiveNames[c]
	if !ok {
		return nil, fmt.Errorf("%w: unknown primitive %q", ErrEncodingSyntax, string(c))
	}
	p.advance()
	node := newNode(KindPrimitive)
	node.Name = name
	node.Size = primitiveSizes[c]
	node.Alignment = node.Size
	return node, nil
}

// parsePropertyString parses the attribute list following a leading 'T'
// (already consumed by the caller). The first child is the decoded
// property type; the remaining children are attribute nodes. An
// unrecognised attribute token (one not matching R/C/&/N/D/W/P/G/S/V)
// is treated as the backing ivar name and assigned to the node's Name,
// matching a 'V'-prefixed token's effect.
func (p *typeParser) parsePropertyString() (*TypeNode, error) {
	typeNode, err := p.parseType()
	if err != nil {
		return nil, err
	}
	node := newNode(KindAttributes)
	node.addChild(typeNode)

	for !p.eof() && p.peek() == ',' {
		p.advance()
		tok := p.readUntilAny(',')
		if len(tok) == 0 {
			continue
		}
		switch tok[0] {
		case 'R':
			node.addChild(newNode(KindReadOnly))
		case 'C':
			node.addChild(newNode(KindCopy))
		case '&':
			node.addChild(newNode(KindRetain))
		case 'N':
			node.addChild(newNode(KindNonAtomic))
		case 'D':
			node.addChild(newNode(KindDynamic))
		case 'W':
			node.addChild(newNode(KindWeak))
		case 'P':
			node.addChild(newNode(KindGarbage))
		case 'G':
			c := newNode(KindGetter)
			c.Name = tok[1:]
			node.addChild(c)
		case 'S':
			c := newNode(KindSetter)
			c.Name = tok[1:]
			node.addChild(c)
		case 'V':
			node.Name = strings.TrimPrefix(tok[1:], "_")
		default:
			node.Name = tok
		}
	}
	return node, nil
}
