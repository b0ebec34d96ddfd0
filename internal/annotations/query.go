package annotations

import "github.com/conduit-lang/ptxmeta/internal/ir"

// findOne looks up the first value of prop on gv within its own module
func (c *Cache) findOne(gv ir.GlobalValue, prop string) (uint32, bool) {
	return c.Lookup(gv.Parent(), gv, prop)
}

// findAll looks up every value of prop on gv within its own module
func (c *Cache) findAll(gv ir.GlobalValue, prop string) ([]uint32, bool) {
	return c.LookupAll(gv.Parent(), gv, prop)
}

// MaxNTIDx returns the maximum thread-block size in x
func (c *Cache) MaxNTIDx(f ir.Function) (uint32, bool) { return c.findOne(f, PropMaxNTIDx) }

// MaxNTIDy returns the maximum thread-block size in y
func (c *Cache) MaxNTIDy(f ir.Function) (uint32, bool) { return c.findOne(f, PropMaxNTIDy) }

// MaxNTIDz returns the maximum thread-block size in z
func (c *Cache) MaxNTIDz(f ir.Function) (uint32, bool) { return c.findOne(f, PropMaxNTIDz) }

// ReqNTIDx returns the required thread-block size in x
func (c *Cache) ReqNTIDx(f ir.Function) (uint32, bool) { return c.findOne(f, PropReqNTIDx) }

// ReqNTIDy returns the required thread-block size in y
func (c *Cache) ReqNTIDy(f ir.Function) (uint32, bool) { return c.findOne(f, PropReqNTIDy) }

// ReqNTIDz returns the required thread-block size in z
func (c *Cache) ReqNTIDz(f ir.Function) (uint32, bool) { return c.findOne(f, PropReqNTIDz) }

// MaxNReg returns the maximum register count
func (c *Cache) MaxNReg(f ir.Function) (uint32, bool) { return c.findOne(f, PropMaxNReg) }

// MinCTASm returns the minimum number of CTAs per multiprocessor
func (c *Cache) MinCTASm(f ir.Function) (uint32, bool) { return c.findOne(f, PropMinCTASm) }

// MaxClusterRank returns the maximum cluster rank
func (c *Cache) MaxClusterRank(f ir.Function) (uint32, bool) {
	return c.findOne(f, PropMaxClusterRank)
}

// IsKernelFunction reports whether f is a kernel entry point. Without a
// kernel annotation the calling convention decides, since not every front end
// emits the annotation.
func (c *Cache) IsKernelFunction(f ir.Function) bool {
	v, ok := c.findOne(f, PropKernel)
	if !ok {
		return f.CallingConv() == ir.CallingConvPTXKernel
	}
	return v == 1
}

// IsTexture reports whether v is a global annotated as a texture
func (c *Cache) IsTexture(v ir.Value) bool { return c.globalFlag(v, PropTexture) }

// IsSurface reports whether v is a global annotated as a surface
func (c *Cache) IsSurface(v ir.Value) bool { return c.globalFlag(v, PropSurface) }

// IsManaged reports whether v is a global in managed memory
func (c *Cache) IsManaged(v ir.Value) bool { return c.globalFlag(v, PropManaged) }

// IsSampler reports whether v is a sampler global, or a parameter listed in
// its function's sampler annotation.
func (c *Cache) IsSampler(v ir.Value) bool {
	if c.globalFlag(v, PropSampler) {
		return true
	}
	return c.paramListed(v, PropSampler)
}

// TextureName returns the name of a texture global
func (c *Cache) TextureName(v ir.Value) string { return c.symbolName(v, "texture") }

// SurfaceName returns the name of a surface global
func (c *Cache) SurfaceName(v ir.Value) string { return c.symbolName(v, "surface") }

// SamplerName returns the name of a sampler global
func (c *Cache) SamplerName(v ir.Value) string { return c.symbolName(v, "sampler") }

// globalFlag reports whether v is a global value carrying the boolean marker
// prop. A recorded value other than 1 is an invariant violation.
func (c *Cache) globalFlag(v ir.Value, prop string) bool {
	gv, ok := v.(ir.GlobalValue)
	if !ok {
		return false
	}

	annot, ok := c.findOne(gv, prop)
	if !ok {
		return false
	}
	if annot != 1 {
		c.violation(newInvariantError(ErrUnexpectedFlagValue, "unexpected annotation value %d on a %s symbol", annot, prop).
			withSubject(gv.Name()).
			withProperty(prop))
	}
	return true
}

func (c *Cache) symbolName(v ir.Value, kind string) string {
	if !v.HasName() {
		c.violation(newInvariantError(ErrAnonymousSymbol, "found %s variable with no name", kind))
	}
	return v.Name()
}
