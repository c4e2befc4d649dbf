package objc

// Kind tags the union-of-uses fields on a TypeNode.
type Kind int

const (
	KindPrimitive Kind = iota
	KindPointer
	KindArray
	KindStruct
	KindUnion
	KindBitField
	KindObject
	KindBlock
	KindPVoid
	KindAttributes // a property_string node ("T..." plus attrs)
	// Method/property attribute kinds, attached as attr-only nodes in
	// an attributes list rather than as the outer node's Kind in most
	// cases, but named here because the decoder switches on them when
	// walking a property node's Children.
	KindGetter
	KindSetter
	KindReadOnly
	KindCopy
	KindRetain
	KindNonAtomic
	KindDynamic
	KindWeak
	KindGarbage
)

// Qualifier is one of the type-encoding qualifier letters that
// accumulate into a node's Qualifiers list (const/in/inout/out/bycopy/
// byref/oneway/atomic/complex).
type Qualifier int

const (
	QualConst Qualifier = iota
	QualIn
	QualInOut
	QualOut
	QualByCopy
	QualByRef
	QualOneWay
	QualAtomic
	QualComplex
)

// TypeNode is the tagged tree node produced by the type-encoding parser
// and consumed by the decoder. Children are owned; Parent is a
// non-owning back-edge used only for diagnostics, never walked during
// decode.
type TypeNode struct {
	Kind       Kind
	Size       int
	Alignment  int
	Dim        int // array length
	StackSize  int // post-argument natural number from the encoding
	Name       string
	Qualifiers []Qualifier
	Children   []*TypeNode
	Parent     *TypeNode
}

func newNode(kind Kind) *TypeNode {
	return &TypeNode{Kind: kind}
}

func (n *TypeNode) addChild(c *TypeNode) {
	c.Parent = n
	n.Children = append(n.Children, c)
}
