package annotations

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/conduit-lang/ptxmeta/internal/ir"
	"github.com/conduit-lang/ptxmeta/internal/ir/mem"
)

type subtarget bool

func (s subtarget) HasNoReturn() bool { return bool(s) }

func TestPredicates_ImageParameters(t *testing.T) {
	m := mem.NewModule("M")
	f := m.NewFunction("k", 5)
	m.Annotate(f, "rdoimage", 0, "wroimage", 1)
	m.Annotate(f, "rdwrimage", 2, "rdoimage", 4)

	c := New()

	tests := []struct {
		arg       int
		readOnly  bool
		writeOnly bool
		readWrite bool
	}{
		{arg: 0, readOnly: true},
		{arg: 1, writeOnly: true},
		{arg: 2, readWrite: true},
		{arg: 3},
		{arg: 4, readOnly: true},
	}

	for _, tt := range tests {
		a := f.Arg(tt.arg)
		assert.Equal(t, tt.readOnly, c.IsImageReadOnly(a), "arg %d read-only", tt.arg)
		assert.Equal(t, tt.writeOnly, c.IsImageWriteOnly(a), "arg %d write-only", tt.arg)
		assert.Equal(t, tt.readWrite, c.IsImageReadWrite(a), "arg %d read-write", tt.arg)
		assert.Equal(t, tt.readOnly || tt.writeOnly || tt.readWrite, c.IsImage(a), "arg %d image", tt.arg)
	}

	// the function itself is not a parameter
	assert.False(t, c.IsImage(f))
}

func TestPredicates_SamplerParameter(t *testing.T) {
	m := mem.NewModule("M")
	f := m.NewFunction("k", 3)
	m.Annotate(f, "sampler", 2)
	m.Annotate(f, "sampler", 0)

	c := New()
	assert.True(t, c.IsSampler(f.Arg(0)))
	assert.False(t, c.IsSampler(f.Arg(1)))
	assert.True(t, c.IsSampler(f.Arg(2)))

	other := m.NewFunction("other", 1)
	assert.False(t, c.IsSampler(other.Arg(0)))
}

func TestPredicates_FunctionParamAlign(t *testing.T) {
	m := mem.NewModule("M")
	f := m.NewFunction("f", 3).SetStackAlignment(1, 16)
	m.Annotate(f, "align", uint32(Pack(1, 8)))
	// unsorted on purpose, the function-level list is scanned in full
	m.Annotate(f, "align", uint32(Pack(3, 32)), "align", uint32(Pack(2, 4)))

	c := New()

	a, ok := c.FunctionParamAlign(f, 1)
	assert.True(t, ok)
	assert.Equal(t, ir.Align(16), a, "structured attribute wins")

	a, ok = c.FunctionParamAlign(f, 2)
	assert.True(t, ok)
	assert.Equal(t, ir.Align(4), a)

	a, ok = c.FunctionParamAlign(f, 3)
	assert.True(t, ok)
	assert.Equal(t, ir.Align(32), a)

	_, ok = c.FunctionParamAlign(f, 0)
	assert.False(t, ok)

	bare := m.NewFunction("bare", 1)
	_, ok = c.FunctionParamAlign(bare, 1)
	assert.False(t, ok)
}

func TestPredicates_CallArgAlign(t *testing.T) {
	m := mem.NewModule("M")
	callee := m.NewFunction("callee", 4)

	call := m.NewCall("call", callee, 4).
		SetStackAlignment(4, 64).
		SetCallAlign(uint32(Pack(1, 8)), uint32(Pack(3, 16)), uint32(Pack(2, 4)))

	c := New()

	a, ok := c.CallArgAlign(call, 1)
	assert.True(t, ok)
	assert.Equal(t, ir.Align(8), a)

	a, ok = c.CallArgAlign(call, 3)
	assert.True(t, ok)
	assert.Equal(t, ir.Align(16), a)

	// the scan stops at index 3, so the out-of-order entry for 2 is never seen
	_, ok = c.CallArgAlign(call, 2)
	assert.False(t, ok)

	a, ok = c.CallArgAlign(call, 4)
	assert.True(t, ok)
	assert.Equal(t, ir.Align(64), a)

	_, ok = c.CallArgAlign(call, 0)
	assert.False(t, ok)

	assert.Equal(t, uint64(0), c.Stats().Scans, "call-site alignment does not use the annotation cache")
}

func TestPredicates_CallArgAlignIgnoresNonIntegers(t *testing.T) {
	m := mem.NewModule("M")
	callee := m.NewFunction("callee", 2)
	call := m.NewCall("call", callee, 2).SetMetadata(ir.CallAlignMetadataKind, &ir.MDNode{
		Operands: []ir.Metadata{&ir.MDString{Value: "x"}, nil, &ir.ConstantInt{Value: uint64(Pack(1, 2))}},
	})

	c := New()
	a, ok := c.CallArgAlign(call, 1)
	assert.True(t, ok)
	assert.Equal(t, ir.Align(2), a)

	noMD := m.NewCall("plain", callee, 2)
	_, ok = c.CallArgAlign(noMD, 1)
	assert.False(t, ok)
}

func TestPredicates_ShouldEmitNoReturn(t *testing.T) {
	m := mem.NewModule("M")

	trap := m.NewFunction("trap", 0).SetDoesNotReturn(true)
	abort := m.NewFunction("abort_value", 0).SetDoesNotReturn(true).SetReturnsVoid(false)
	returns := m.NewFunction("returns", 0)
	kernel := m.NewFunction("kernel", 0).SetDoesNotReturn(true)
	m.Annotate(kernel, "kernel", 1)
	ccKernel := m.NewFunction("cc_kernel", 0).SetDoesNotReturn(true).SetCallingConv(ir.CallingConvPTXKernel)

	callTrap := m.NewCall("call.trap", trap, 0).SetDoesNotReturn(true)
	callValue := m.NewCall("call.value", abort, 0).SetDoesNotReturn(true).SetReturnsVoid(false)
	callReturns := m.NewCall("call.returns", returns, 0)

	c := New()
	supported := subtarget(true)

	assert.True(t, c.ShouldEmitNoReturn(trap, supported))
	assert.False(t, c.ShouldEmitNoReturn(abort, supported))
	assert.False(t, c.ShouldEmitNoReturn(returns, supported))
	assert.False(t, c.ShouldEmitNoReturn(kernel, supported))
	assert.False(t, c.ShouldEmitNoReturn(ccKernel, supported))

	assert.True(t, c.ShouldEmitNoReturn(callTrap, supported))
	assert.False(t, c.ShouldEmitNoReturn(callValue, supported))
	assert.False(t, c.ShouldEmitNoReturn(callReturns, supported))

	unsupported := subtarget(false)
	assert.False(t, c.ShouldEmitNoReturn(trap, unsupported))
	assert.False(t, c.ShouldEmitNoReturn(callTrap, unsupported))
}

func TestPredicates_ShouldEmitNoReturnRejectsOtherValues(t *testing.T) {
	m := mem.NewModule("M")
	f := m.NewFunction("f", 1)

	assert.PanicsWithError(t, "ANN007: expected either a call instruction or a function", func() {
		New().ShouldEmitNoReturn(f.Arg(0), subtarget(true))
	})
	assert.False(t, New(WithAssertions(false)).ShouldEmitNoReturn(f.Arg(0), subtarget(true)))

	// unsupported subtargets answer before the value is inspected
	assert.False(t, New().ShouldEmitNoReturn(f.Arg(0), subtarget(false)))
}

func TestPredicates_ZeroAlignment(t *testing.T) {
	m := mem.NewModule("M")
	f := m.NewFunction("f", 2)
	m.Annotate(f, "align", uint32(Pack(1, 0)), "align", uint32(Pack(2, 8)))
	call := m.NewCall("call", f, 2).SetCallAlign(uint32(Pack(1, 0)), uint32(Pack(2, 4)))

	strict := New()
	assert.PanicsWithError(t,
		`ANN008: zero alignment for attribute index 1 (subject "f", property "align")`,
		func() { strict.FunctionParamAlign(f, 1) },
	)
	assert.PanicsWithError(t,
		`ANN008: zero alignment for attribute index 1 (subject "call", property "callalign")`,
		func() { strict.CallArgAlign(call, 1) },
	)

	lenient := New(WithAssertions(false))
	_, ok := lenient.FunctionParamAlign(f, 1)
	assert.False(t, ok)
	_, ok = lenient.CallArgAlign(call, 1)
	assert.False(t, ok)

	// other entries of the same lists still resolve
	a, ok := lenient.FunctionParamAlign(f, 2)
	assert.True(t, ok)
	assert.Equal(t, ir.Align(8), a)
	a, ok = lenient.CallArgAlign(call, 2)
	assert.True(t, ok)
	assert.Equal(t, ir.Align(4), a)
}
