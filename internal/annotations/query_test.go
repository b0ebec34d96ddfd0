package annotations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/ptxmeta/internal/ir"
	"github.com/conduit-lang/ptxmeta/internal/ir/mem"
)

func TestQuery_KernelScenario(t *testing.T) {
	m := mem.NewModule("M")
	f := m.NewFunction("F", 0)
	m.Annotate(f, "kernel", 1, "reqntidx", 32)
	m.Annotate(f, "reqntidy", 4)

	c := New()

	assert.True(t, c.IsKernelFunction(f))

	x, ok := c.ReqNTIDx(f)
	assert.True(t, ok)
	assert.Equal(t, uint32(32), x)

	y, ok := c.ReqNTIDy(f)
	assert.True(t, ok)
	assert.Equal(t, uint32(4), y)

	_, ok = c.ReqNTIDz(f)
	assert.False(t, ok)
}

func TestQuery_TextureScenario(t *testing.T) {
	m := mem.NewModule("M")
	g := m.NewGlobal("tex0")
	m.Annotate(g, "texture", 1)

	c := New()
	assert.True(t, c.IsTexture(g))
	assert.Equal(t, "tex0", c.TextureName(g))
	assert.False(t, c.IsSurface(g))
	assert.False(t, c.IsSampler(g))
	assert.False(t, c.IsManaged(g))
}

func TestQuery_LaunchBounds(t *testing.T) {
	m := mem.NewModule("M")
	f := m.NewFunction("k", 0)
	m.Annotate(f,
		"maxntidx", 256, "maxntidy", 2, "maxntidz", 1,
		"maxnreg", 64, "minctasm", 4, "maxclusterrank", 8,
	)
	m.Annotate(f, "maxntidx", 512)

	c := New()

	tests := []struct {
		name string
		get  func(ir.Function) (uint32, bool)
		want uint32
	}{
		{"maxntidx first value wins", c.MaxNTIDx, 256},
		{"maxntidy", c.MaxNTIDy, 2},
		{"maxntidz", c.MaxNTIDz, 1},
		{"maxnreg", c.MaxNReg, 64},
		{"minctasm", c.MinCTASm, 4},
		{"maxclusterrank", c.MaxClusterRank, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := tt.get(f)
			require.True(t, ok)
			assert.Equal(t, tt.want, v)
		})
	}

	_, ok := c.ReqNTIDx(f)
	assert.False(t, ok)
	assert.Equal(t, uint64(1), c.Stats().Scans)
}

func TestQuery_IsKernelFunction(t *testing.T) {
	m := mem.NewModule("M")

	annotated := m.NewFunction("annotated", 0)
	m.Annotate(annotated, "kernel", 1)

	byConvention := m.NewFunction("by_convention", 0).SetCallingConv(ir.CallingConvPTXKernel)
	device := m.NewFunction("device", 0).SetCallingConv(ir.CallingConvPTXDevice)
	plain := m.NewFunction("plain", 0)

	// an explicit annotation overrides the calling convention
	notKernel := m.NewFunction("not_kernel", 0).SetCallingConv(ir.CallingConvPTXKernel)
	m.Annotate(notKernel, "kernel", 0)

	c := New()
	assert.True(t, c.IsKernelFunction(annotated))
	assert.True(t, c.IsKernelFunction(byConvention))
	assert.False(t, c.IsKernelFunction(device))
	assert.False(t, c.IsKernelFunction(plain))
	assert.False(t, c.IsKernelFunction(notKernel))
}

func TestQuery_GlobalFlags(t *testing.T) {
	m := mem.NewModule("M")
	surf := m.NewGlobal("surf0")
	smp := m.NewGlobal("smp0")
	managed := m.NewGlobal("managed0")
	m.Annotate(surf, "surface", 1)
	m.Annotate(smp, "sampler", 1)
	m.Annotate(managed, "managed", 1)

	c := New()
	assert.True(t, c.IsSurface(surf))
	assert.Equal(t, "surf0", c.SurfaceName(surf))
	assert.True(t, c.IsSampler(smp))
	assert.Equal(t, "smp0", c.SamplerName(smp))
	assert.True(t, c.IsManaged(managed))
	assert.False(t, c.IsTexture(managed))
}

func TestQuery_FlagsIgnoreNonGlobals(t *testing.T) {
	m := mem.NewModule("M")
	f := m.NewFunction("f", 1)
	m.Annotate(f, "texture", 1)

	c := New()
	assert.False(t, c.IsTexture(f.Arg(0)))
	assert.False(t, c.IsManaged(m.NewCall("call", f, 0)))
	assert.Equal(t, uint64(0), c.Stats().Scans)
}

func TestQuery_UnexpectedFlagValue(t *testing.T) {
	m := mem.NewModule("M")
	g := m.NewGlobal("tex0")
	m.Annotate(g, "texture", 2)

	strict := New()
	assert.PanicsWithError(t,
		`ANN004: unexpected annotation value 2 on a texture symbol (subject "tex0", property "texture")`,
		func() { strict.IsTexture(g) },
	)

	lenient := New(WithAssertions(false))
	assert.True(t, lenient.IsTexture(g))
}

func TestQuery_AnonymousSymbolName(t *testing.T) {
	m := mem.NewModule("M")
	g := m.NewGlobal("")
	m.Annotate(g, "texture", 1)

	strict := New()
	assert.True(t, strict.IsTexture(g))
	assert.PanicsWithError(t, "ANN005: found texture variable with no name", func() {
		strict.TextureName(g)
	})
	assert.Panics(t, func() { strict.SurfaceName(g) })
	assert.Panics(t, func() { strict.SamplerName(g) })

	lenient := New(WithAssertions(false))
	assert.Equal(t, "", lenient.TextureName(g))
	assert.False(t, lenient.Assertions())
}
