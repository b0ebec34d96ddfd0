package annotations

import (
	"slices"

	"github.com/conduit-lang/ptxmeta/internal/ir"
)

// Subtarget is the feature surface of the target needed by the no-return decision
type Subtarget interface {
	HasNoReturn() bool
}

// IsImageReadOnly reports whether v is a parameter listed as a read-only image
func (c *Cache) IsImageReadOnly(v ir.Value) bool { return c.paramListed(v, PropReadOnlyImage) }

// IsImageWriteOnly reports whether v is a parameter listed as a write-only image
func (c *Cache) IsImageWriteOnly(v ir.Value) bool { return c.paramListed(v, PropWriteOnlyImage) }

// IsImageReadWrite reports whether v is a parameter listed as a read-write image
func (c *Cache) IsImageReadWrite(v ir.Value) bool { return c.paramListed(v, PropReadWriteImage) }

// IsImage reports whether v is an image parameter of any access kind
func (c *Cache) IsImage(v ir.Value) bool {
	return c.IsImageReadOnly(v) || c.IsImageWriteOnly(v) || c.IsImageReadWrite(v)
}

// paramListed reports whether v is an argument whose position appears in its
// function's multi-valued annotation prop.
func (c *Cache) paramListed(v ir.Value, prop string) bool {
	arg, ok := v.(ir.Argument)
	if !ok {
		return false
	}
	fn := arg.Parent()
	if fn == nil {
		return false
	}

	positions, ok := c.findAll(fn, prop)
	if !ok {
		return false
	}
	return slices.Contains(positions, arg.ArgNo())
}

// FunctionParamAlign resolves the alignment of f's attribute index. A
// structured stack alignment attribute wins; otherwise the legacy "align"
// annotation list is searched in full, as it carries no ordering guarantee.
func (c *Cache) FunctionParamAlign(f ir.Function, index uint32) (ir.Align, bool) {
	if a, ok := f.StackAlignment(index); ok && a != 0 {
		return a, true
	}

	vals, ok := c.findAll(f, PropAlign)
	if !ok {
		return 0, false
	}
	for _, v := range vals {
		if p := PackedIndex(v); p.Index() == index {
			return c.packedAlign(p, f.Name(), PropAlign)
		}
	}
	return 0, false
}

// CallArgAlign resolves the alignment of a call site's attribute index. A
// structured stack alignment attribute wins; otherwise the "callalign"
// metadata is searched. callalign is emitted sorted by index, so the search
// stops at the first entry past index. Non-integer operands are ignored.
func (c *Cache) CallArgAlign(call ir.CallInst, index uint32) (ir.Align, bool) {
	if a, ok := call.StackAlignment(index); ok && a != 0 {
		return a, true
	}

	node := call.Metadata(ir.CallAlignMetadataKind)
	for i := 0; i < node.NumOperands(); i++ {
		v, ok := ir.ConstantValue(node.Operand(i))
		if !ok {
			continue
		}
		p := PackedIndex(uint32(v))
		if p.Index() == index {
			return c.packedAlign(p, call.Name(), ir.CallAlignMetadataKind)
		}
		if p.Index() > index {
			return 0, false
		}
	}
	return 0, false
}

// packedAlign returns the alignment of a matched packed entry. Alignments
// are powers of two, so a zero entry is a violation and resolves to absent.
func (c *Cache) packedAlign(p PackedIndex, subject, prop string) (ir.Align, bool) {
	if p.Value() == 0 {
		c.violation(newInvariantError(ErrZeroAlignment, "zero alignment for attribute index %d", p.Index()).
			withSubject(subject).
			withProperty(prop))
		return 0, false
	}
	return ir.Align(p.Value()), true
}

// ShouldEmitNoReturn decides whether a function or call site is emitted with
// the .noreturn directive. Kernels are never marked, and only void-returning
// no-return values qualify.
func (c *Cache) ShouldEmitNoReturn(v ir.Value, st Subtarget) bool {
	if !st.HasNoReturn() {
		return false
	}

	switch x := v.(type) {
	case ir.CallInst:
		return x.DoesNotReturn() && x.ReturnsVoid()
	case ir.Function:
		return x.DoesNotReturn() && x.ReturnsVoid() && !c.IsKernelFunction(x)
	}

	c.violation(newInvariantError(ErrNotFunctionOrCall, "expected either a call instruction or a function"))
	return false
}
