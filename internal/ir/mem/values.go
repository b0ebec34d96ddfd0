package mem

import "github.com/conduit-lang/ptxmeta/internal/ir"

// Global is a global variable
type Global struct {
	module *Module
	name   string
}

func (g *Global) Name() string  { return g.name }
func (g *Global) HasName() bool { return g.name != "" }

// Parent returns the owning module, or nil for a detached global
func (g *Global) Parent() ir.Module {
	if g.module == nil {
		return nil
	}
	return g.module
}

// Function is a function definition or declaration
type Function struct {
	module     *Module
	name       string
	cc         ir.CallingConv
	params     []*Argument
	noReturn   bool
	returnVoid bool
	stackAlign map[uint32]ir.Align
}

func (f *Function) Name() string                { return f.name }
func (f *Function) HasName() bool               { return f.name != "" }
func (f *Function) CallingConv() ir.CallingConv { return f.cc }
func (f *Function) DoesNotReturn() bool         { return f.noReturn }
func (f *Function) ReturnsVoid() bool           { return f.returnVoid }

// Parent returns the owning module, or nil for a detached function
func (f *Function) Parent() ir.Module {
	if f.module == nil {
		return nil
	}
	return f.module
}

// StackAlignment reports the stackalign attribute at attribute index
func (f *Function) StackAlignment(index uint32) (ir.Align, bool) {
	a, ok := f.stackAlign[index]
	return a, ok
}

// SetCallingConv sets the declared calling convention
func (f *Function) SetCallingConv(cc ir.CallingConv) *Function {
	f.cc = cc
	return f
}

// SetStackAlignment sets the stackalign attribute at attribute index
func (f *Function) SetStackAlignment(index uint32, a ir.Align) *Function {
	f.stackAlign[index] = a
	return f
}

// SetDoesNotReturn marks the function noreturn
func (f *Function) SetDoesNotReturn(v bool) *Function {
	f.noReturn = v
	return f
}

// SetReturnsVoid sets whether the return type is void
func (f *Function) SetReturnsVoid(v bool) *Function {
	f.returnVoid = v
	return f
}

// Params returns the formal parameters
func (f *Function) Params() []*Argument { return f.params }

// Arg returns parameter i
func (f *Function) Arg(i int) *Argument { return f.params[i] }

// Argument is a formal parameter
type Argument struct {
	fn   *Function
	no   uint32
	name string
}

func (a *Argument) Name() string  { return a.name }
func (a *Argument) HasName() bool { return a.name != "" }
func (a *Argument) ArgNo() uint32 { return a.no }

// Parent returns the owning function, or nil for a detached argument
func (a *Argument) Parent() ir.Function {
	if a.fn == nil {
		return nil
	}
	return a.fn
}

// SetName names the parameter
func (a *Argument) SetName(name string) *Argument {
	a.name = name
	return a
}

// Call is a call site
type Call struct {
	name       string
	callee     ir.Value
	args       int
	noReturn   bool
	returnVoid bool
	stackAlign map[uint32]ir.Align
	metadata   map[string]*ir.MDNode
}

func (c *Call) Name() string            { return c.name }
func (c *Call) HasName() bool           { return c.name != "" }
func (c *Call) CalledOperand() ir.Value { return c.callee }
func (c *Call) DoesNotReturn() bool     { return c.noReturn }
func (c *Call) ReturnsVoid() bool       { return c.returnVoid }

// NumArgs returns the number of call arguments
func (c *Call) NumArgs() int { return c.args }

// StackAlignment reports the stackalign attribute at attribute index
func (c *Call) StackAlignment(index uint32) (ir.Align, bool) {
	a, ok := c.stackAlign[index]
	return a, ok
}

// Metadata returns the attached node of the given kind
func (c *Call) Metadata(kind string) *ir.MDNode {
	return c.metadata[kind]
}

// SetMetadata attaches node under kind
func (c *Call) SetMetadata(kind string, node *ir.MDNode) *Call {
	c.metadata[kind] = node
	return c
}

// SetCallAlign attaches a callalign node built from packed values
func (c *Call) SetCallAlign(packed ...uint32) *Call {
	ops := make([]ir.Metadata, 0, len(packed))
	for _, v := range packed {
		ops = append(ops, &ir.ConstantInt{Value: uint64(v)})
	}
	return c.SetMetadata(ir.CallAlignMetadataKind, &ir.MDNode{Operands: ops})
}

// SetStackAlignment sets the stackalign attribute at attribute index
func (c *Call) SetStackAlignment(index uint32, a ir.Align) *Call {
	c.stackAlign[index] = a
	return c
}

// SetDoesNotReturn marks the call noreturn
func (c *Call) SetDoesNotReturn(v bool) *Call {
	c.noReturn = v
	return c
}

// SetReturnsVoid sets whether the callee's return type is void
func (c *Call) SetReturnsVoid(v bool) *Call {
	c.returnVoid = v
	return c
}
