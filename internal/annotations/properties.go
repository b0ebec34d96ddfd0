package annotations

// Recognized nvvm.annotations property names
const (
	PropKernel         = "kernel"
	PropMaxNTIDx       = "maxntidx"
	PropMaxNTIDy       = "maxntidy"
	PropMaxNTIDz       = "maxntidz"
	PropReqNTIDx       = "reqntidx"
	PropReqNTIDy       = "reqntidy"
	PropReqNTIDz       = "reqntidz"
	PropMaxNReg        = "maxnreg"
	PropMinCTASm       = "minctasm"
	PropMaxClusterRank = "maxclusterrank"
	PropManaged        = "managed"
	PropTexture        = "texture"
	PropSurface        = "surface"
	PropSampler        = "sampler"
	PropReadOnlyImage  = "rdoimage"
	PropWriteOnlyImage = "wroimage"
	PropReadWriteImage = "rdwrimage"
	PropAlign          = "align"
)

// PackedIndex is the legacy metadata encoding of an (index, value) pair: the
// index lives in the high 16 bits and the value in the low 16 bits.
type PackedIndex uint32

// Pack encodes index and value. Bits of value above 16 are dropped.
func Pack(index, value uint32) PackedIndex {
	return PackedIndex(index<<16 | value&0xFFFF)
}

// Index returns the position field
func (p PackedIndex) Index() uint32 { return uint32(p) >> 16 }

// Value returns the 16-bit value field
func (p PackedIndex) Value() uint32 { return uint32(p) & 0xFFFF }
