// Package ir defines the narrow, read-only view of the program representation
// that the annotation layer consumes: modules, global values, functions,
// arguments, call sites, and the metadata attached to them.
//
// Nothing in this package mutates a program. Concrete implementations live
// elsewhere (see package mem).
package ir

import (
	"strconv"

	"github.com/google/uuid"
)

// AnnotationsMetadataName is the module-level named metadata list that
// carries NVVM annotation records.
const AnnotationsMetadataName = "nvvm.annotations"

// CallAlignMetadataKind is the call-site metadata kind holding legacy packed
// argument alignments.
const CallAlignMetadataKind = "callalign"

// CallingConv identifies a function's declared calling convention
type CallingConv uint32

const (
	// CallingConvC is the default C calling convention
	CallingConvC CallingConv = 0
	// CallingConvPTXKernel marks a GPU kernel entry point
	CallingConvPTXKernel CallingConv = 71
	// CallingConvPTXDevice marks a device function
	CallingConvPTXDevice CallingConv = 72
)

// String returns the textual name of the calling convention
func (cc CallingConv) String() string {
	switch cc {
	case CallingConvC:
		return "c"
	case CallingConvPTXKernel:
		return "ptx_kernel"
	case CallingConvPTXDevice:
		return "ptx_device"
	default:
		return "cc" + strconv.FormatUint(uint64(cc), 10)
	}
}

// Align is a byte alignment. Valid alignments are non-zero powers of two.
type Align uint64

// Value is anything an annotation query may be asked about
type Value interface {
	Name() string
	HasName() bool
}

// Module is a compiled translation unit. Its identity is the interface value
// itself, so implementations must be comparable (pointer types).
type Module interface {
	Name() string
	// NamedMetadata returns the named metadata list, or nil if absent
	NamedMetadata(name string) *NamedMDNode
}

// Identified is implemented by modules that carry a unique id. The id only
// tells same-named modules apart in logs.
type Identified interface {
	ID() uuid.UUID
}

// GlobalValue is a function or global variable owned by a module
type GlobalValue interface {
	Value
	Parent() Module
}

// Function is a global value with a signature and attributes
type Function interface {
	GlobalValue
	CallingConv() CallingConv
	// StackAlignment reports the structured stack alignment attribute at the
	// given attribute index, if set.
	StackAlignment(index uint32) (Align, bool)
	DoesNotReturn() bool
	ReturnsVoid() bool
}

// Argument is a formal parameter of a function
type Argument interface {
	Value
	Parent() Function
	ArgNo() uint32
}

// CallInst is a call site
type CallInst interface {
	Value
	CalledOperand() Value
	StackAlignment(index uint32) (Align, bool)
	// Metadata returns the attached metadata node of the given kind, or nil
	Metadata(kind string) *MDNode
	DoesNotReturn() bool
	ReturnsVoid() bool
}
