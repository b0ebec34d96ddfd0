package ir

// Metadata is one operand of a metadata node
type Metadata interface {
	isMetadata()
}

// MDString is a textual metadata operand
type MDString struct {
	Value string
}

// ConstantInt is an integer constant wrapped as metadata
type ConstantInt struct {
	Value uint64
}

// ValueAsMetadata references a program value from metadata. Value is nil when
// the referenced value was deleted by an optimization pass.
type ValueAsMetadata struct {
	Value Value
}

// MDNode is an ordered tuple of metadata operands. Operands may be nil.
type MDNode struct {
	Operands []Metadata
}

// NamedMDNode is a module-level, append-only list of metadata nodes
type NamedMDNode struct {
	Name     string
	Operands []*MDNode
}

func (*MDString) isMetadata()        {}
func (*ConstantInt) isMetadata()     {}
func (*ValueAsMetadata) isMetadata() {}
func (*MDNode) isMetadata()          {}

// NumOperands returns the operand count of the node
func (n *MDNode) NumOperands() int {
	if n == nil {
		return 0
	}
	return len(n.Operands)
}

// Operand returns operand i, or nil if out of range
func (n *MDNode) Operand(i int) Metadata {
	if n == nil || i < 0 || i >= len(n.Operands) {
		return nil
	}
	return n.Operands[i]
}

// Subject resolves operand 0 of an annotation record to the global value it
// annotates. It returns nil for missing operands, dangling references, and
// references to values that are not global values.
func Subject(n *MDNode) GlobalValue {
	vam, ok := n.Operand(0).(*ValueAsMetadata)
	if !ok || vam == nil || vam.Value == nil {
		return nil
	}
	gv, _ := vam.Value.(GlobalValue)
	return gv
}

// ConstantValue extracts an integer constant from a metadata operand
func ConstantValue(md Metadata) (uint64, bool) {
	ci, ok := md.(*ConstantInt)
	if !ok || ci == nil {
		return 0, false
	}
	return ci.Value, true
}

// StringValue extracts the text of an MDString operand
func StringValue(md Metadata) (string, bool) {
	s, ok := md.(*MDString)
	if !ok || s == nil {
		return "", false
	}
	return s.Value, true
}
