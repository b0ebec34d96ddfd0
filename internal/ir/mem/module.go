// Package mem provides an in-memory implementation of the ir interfaces. It
// backs the CLI's YAML module descriptors and the test suites.
package mem

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/conduit-lang/ptxmeta/internal/ir"
)

// Module is an in-memory translation unit
type Module struct {
	id        uuid.UUID
	name      string
	functions []*Function
	globals   []*Global
	calls     []*Call
	named     map[string]*ir.NamedMDNode
}

// NewModule creates an empty module
func NewModule(name string) *Module {
	return &Module{
		id:    uuid.New(),
		name:  name,
		named: make(map[string]*ir.NamedMDNode),
	}
}

// ID returns the module's unique id
func (m *Module) ID() uuid.UUID { return m.id }

// Name returns the module name
func (m *Module) Name() string { return m.name }

// NamedMetadata returns the named metadata list, or nil if absent
func (m *Module) NamedMetadata(name string) *ir.NamedMDNode {
	return m.named[name]
}

// AddNamedMetadataOperand appends node to the named list, creating it on first use
func (m *Module) AddNamedMetadataOperand(name string, node *ir.MDNode) {
	nmd, ok := m.named[name]
	if !ok {
		nmd = &ir.NamedMDNode{Name: name}
		m.named[name] = nmd
	}
	nmd.Operands = append(nmd.Operands, node)
}

// Annotate appends an nvvm.annotations record for subject. kv alternates
// property names and values. Strings become MDString, integers become
// ConstantInt, and ir.Metadata values are used as is. A nil subject produces
// a dangling record.
func (m *Module) Annotate(subject ir.Value, kv ...any) *ir.MDNode {
	ops := make([]ir.Metadata, 0, len(kv)+1)
	ops = append(ops, &ir.ValueAsMetadata{Value: subject})
	for _, v := range kv {
		ops = append(ops, toMetadata(v))
	}
	node := &ir.MDNode{Operands: ops}
	m.AddNamedMetadataOperand(ir.AnnotationsMetadataName, node)
	return node
}

// NewFunction adds a function with the given number of parameters
func (m *Module) NewFunction(name string, params int) *Function {
	f := &Function{
		module:     m,
		name:       name,
		returnVoid: true,
		stackAlign: make(map[uint32]ir.Align),
	}
	for i := 0; i < params; i++ {
		f.params = append(f.params, &Argument{fn: f, no: uint32(i)})
	}
	m.functions = append(m.functions, f)
	return f
}

// NewGlobal adds a global variable
func (m *Module) NewGlobal(name string) *Global {
	g := &Global{module: m, name: name}
	m.globals = append(m.globals, g)
	return g
}

// NewCall adds a call site to the module's call list
func (m *Module) NewCall(name string, callee ir.Value, args int) *Call {
	c := &Call{
		name:       name,
		callee:     callee,
		args:       args,
		returnVoid: true,
		stackAlign: make(map[uint32]ir.Align),
		metadata:   make(map[string]*ir.MDNode),
	}
	m.calls = append(m.calls, c)
	return c
}

// Functions returns the module's functions in declaration order
func (m *Module) Functions() []*Function { return m.functions }

// Globals returns the module's global variables in declaration order
func (m *Module) Globals() []*Global { return m.globals }

// Calls returns the module's call sites in declaration order
func (m *Module) Calls() []*Call { return m.calls }

// GlobalValues returns globals followed by functions
func (m *Module) GlobalValues() []ir.GlobalValue {
	out := make([]ir.GlobalValue, 0, len(m.globals)+len(m.functions))
	for _, g := range m.globals {
		out = append(out, g)
	}
	for _, f := range m.functions {
		out = append(out, f)
	}
	return out
}

// Lookup finds a global value by name
func (m *Module) Lookup(name string) (ir.GlobalValue, bool) {
	for _, g := range m.globals {
		if g.name == name {
			return g, true
		}
	}
	for _, f := range m.functions {
		if f.name == name {
			return f, true
		}
	}
	return nil, false
}

func toMetadata(v any) ir.Metadata {
	switch x := v.(type) {
	case nil:
		return nil
	case ir.Metadata:
		return x
	case string:
		return &ir.MDString{Value: x}
	case int:
		return &ir.ConstantInt{Value: uint64(x)}
	case int64:
		return &ir.ConstantInt{Value: uint64(x)}
	case uint32:
		return &ir.ConstantInt{Value: uint64(x)}
	case uint64:
		return &ir.ConstantInt{Value: x}
	case ir.Value:
		return &ir.ValueAsMetadata{Value: x}
	default:
		panic(fmt.Sprintf("mem: unsupported annotation operand %T", v))
	}
}
