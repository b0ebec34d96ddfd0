package annotations

import "github.com/conduit-lang/ptxmeta/internal/ir"

// PropertyMap maps an annotation property name to its values in record
// encounter order. A present property always has at least one value.
type PropertyMap map[string][]uint32

// clone returns a deep copy of the map
func (pm PropertyMap) clone() PropertyMap {
	if pm == nil {
		return nil
	}
	out := make(PropertyMap, len(pm))
	for k, v := range pm {
		out[k] = append([]uint32(nil), v...)
	}
	return out
}

// ReadRecord accumulates the (name, value) pairs of one annotation record into
// props. Operand 0 is the subject and is not examined.
//
// Every well-formed pair is accumulated. The first structural violation is
// returned as an *InvariantError; a trailing name with no value and any pair
// with a bad name or value are skipped.
func ReadRecord(node *ir.MDNode, props PropertyMap) error {
	if node == nil {
		return newInvariantError(ErrNilRecord, "invalid metadata node for annotation")
	}

	var first error
	n := node.NumOperands()
	if n%2 != 1 {
		first = newInvariantError(ErrEvenOperandCount, "invalid number of operands: %d", n)
	}

	for i := 1; i+1 < n; i += 2 {
		name, ok := ir.StringValue(node.Operand(i))
		if !ok {
			if first == nil {
				first = newInvariantError(ErrPropertyNotString, "annotation property at operand %d is not a string", i)
			}
			continue
		}

		v, ok := ir.ConstantValue(node.Operand(i + 1))
		if !ok {
			if first == nil {
				first = newInvariantError(ErrValueNotConstantInt, "value operand %d is not a constant int", i+1).
					withProperty(name)
			}
			continue
		}

		// values are unsigned 32-bit, the zero-extended constant is truncated
		props[name] = append(props[name], uint32(v))
	}

	return first
}
