package mem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/ptxmeta/internal/ir"
)

func TestModule_Annotate(t *testing.T) {
	m := NewModule("m")
	f := m.NewFunction("f", 1)

	node := m.Annotate(f, "kernel", 1, "align", uint32(1<<16|8))
	require.Equal(t, 5, node.NumOperands())
	assert.Equal(t, ir.GlobalValue(f), ir.Subject(node))

	v, ok := ir.ConstantValue(node.Operand(4))
	assert.True(t, ok)
	assert.Equal(t, uint64(1<<16|8), v)

	dangling := m.Annotate(nil, "kernel", 1)
	assert.Nil(t, ir.Subject(dangling))

	nmd := m.NamedMetadata(ir.AnnotationsMetadataName)
	require.NotNil(t, nmd)
	assert.Len(t, nmd.Operands, 2)
}

func TestModule_AnnotatePassesMetadataThrough(t *testing.T) {
	m := NewModule("m")
	g := m.NewGlobal("g")

	raw := &ir.ConstantInt{Value: 7}
	node := m.Annotate(g, raw, nil)
	assert.Same(t, raw, node.Operand(1))
	assert.Nil(t, node.Operand(2))
}

func TestModule_AnnotateRejectsUnknownOperand(t *testing.T) {
	m := NewModule("m")
	assert.Panics(t, func() {
		m.Annotate(nil, 1.5)
	})
}

func TestModule_Identity(t *testing.T) {
	a := NewModule("same")
	b := NewModule("same")

	assert.NotEqual(t, a.ID(), b.ID())
	assert.False(t, ir.Module(a) == ir.Module(b))
	assert.Nil(t, a.NamedMetadata(ir.AnnotationsMetadataName))
}

func TestModule_Lookup(t *testing.T) {
	m := NewModule("m")
	g := m.NewGlobal("g")
	f := m.NewFunction("f", 0)

	got, ok := m.Lookup("g")
	assert.True(t, ok)
	assert.Equal(t, ir.GlobalValue(g), got)

	got, ok = m.Lookup("f")
	assert.True(t, ok)
	assert.Equal(t, ir.GlobalValue(f), got)

	_, ok = m.Lookup("h")
	assert.False(t, ok)

	assert.Equal(t, []ir.GlobalValue{g, f}, m.GlobalValues())
}

func TestFunction_Defaults(t *testing.T) {
	m := NewModule("m")
	f := m.NewFunction("", 2)

	assert.False(t, f.HasName())
	assert.Equal(t, ir.Module(m), f.Parent())
	assert.Equal(t, ir.CallingConvC, f.CallingConv())
	assert.True(t, f.ReturnsVoid())
	assert.False(t, f.DoesNotReturn())

	_, ok := f.StackAlignment(1)
	assert.False(t, ok)
}

func TestValues_DetachedParentIsNil(t *testing.T) {
	// a nil back-pointer must surface as a nil interface, not a typed nil
	assert.True(t, (&Global{}).Parent() == nil)
	assert.True(t, (&Function{}).Parent() == nil)
	assert.True(t, (&Argument{}).Parent() == nil)

	m := NewModule("m")
	f := m.NewFunction("f", 1)
	assert.Equal(t, ir.Module(m), m.NewGlobal("g").Parent())
	assert.Equal(t, ir.Module(m), f.Parent())
	assert.Equal(t, ir.Function(f), f.Arg(0).Parent())
}
