package mem

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/conduit-lang/ptxmeta/internal/ir"
)

// ModuleFile is the YAML descriptor of a module
type ModuleFile struct {
	Name        string         `yaml:"name"`
	Globals     []GlobalSpec   `yaml:"globals"`
	Functions   []FunctionSpec `yaml:"functions"`
	Calls       []CallSpec     `yaml:"calls"`
	Annotations []yaml.Node    `yaml:"annotations"`
}

// GlobalSpec describes a global variable
type GlobalSpec struct {
	Name string `yaml:"name"`
}

// FunctionSpec describes a function
type FunctionSpec struct {
	Name        string            `yaml:"name"`
	Params      int               `yaml:"params"`
	ParamNames  []string          `yaml:"param_names"`
	CallingConv string            `yaml:"calling_conv"`
	NoReturn    bool              `yaml:"noreturn"`
	Returns     string            `yaml:"returns"`
	StackAlign  map[uint32]uint64 `yaml:"stack_align"`
}

// CallSpec describes a call site
type CallSpec struct {
	Name       string            `yaml:"name"`
	Callee     string            `yaml:"callee"`
	Args       int               `yaml:"args"`
	NoReturn   bool              `yaml:"noreturn"`
	Returns    string            `yaml:"returns"`
	StackAlign map[uint32]uint64 `yaml:"stack_align"`
	CallAlign  []uint32          `yaml:"callalign"`
}

// LoadFile reads a module descriptor from path
func LoadFile(path string) (*Module, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open module file: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// Load decodes a module descriptor and builds the module it describes
func Load(r io.Reader) (*Module, error) {
	var mf ModuleFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&mf); err != nil {
		return nil, fmt.Errorf("failed to decode module file: %w", err)
	}
	return mf.Build()
}

// Build constructs the module described by mf
func (mf *ModuleFile) Build() (*Module, error) {
	m := NewModule(mf.Name)

	// globals and functions share one namespace, annotations and callees
	// resolve against it by name
	declared := make(map[string]string)
	declare := func(kind, name string) error {
		if name == "" {
			return nil
		}
		if prev, ok := declared[name]; ok {
			return fmt.Errorf("%s %q: name already declared as a %s", kind, name, prev)
		}
		declared[name] = kind
		return nil
	}

	for _, gs := range mf.Globals {
		if err := declare("global", gs.Name); err != nil {
			return nil, err
		}
		m.NewGlobal(gs.Name)
	}

	for _, fs := range mf.Functions {
		if err := declare("function", fs.Name); err != nil {
			return nil, err
		}
		cc, err := ParseCallingConv(fs.CallingConv)
		if err != nil {
			return nil, fmt.Errorf("function %q: %w", fs.Name, err)
		}
		returnsVoid, err := parseReturns(fs.Returns)
		if err != nil {
			return nil, fmt.Errorf("function %q: %w", fs.Name, err)
		}
		if len(fs.ParamNames) > fs.Params {
			return nil, fmt.Errorf("function %q: %d parameter names for %d parameters", fs.Name, len(fs.ParamNames), fs.Params)
		}

		fn := m.NewFunction(fs.Name, fs.Params).
			SetCallingConv(cc).
			SetDoesNotReturn(fs.NoReturn).
			SetReturnsVoid(returnsVoid)
		for i, name := range fs.ParamNames {
			fn.Arg(i).SetName(name)
		}
		for idx, a := range fs.StackAlign {
			fn.SetStackAlignment(idx, ir.Align(a))
		}
	}

	for _, cs := range mf.Calls {
		callee, ok := m.Lookup(cs.Callee)
		if !ok {
			return nil, fmt.Errorf("call %q: unknown callee %q", cs.Name, cs.Callee)
		}
		returnsVoid, err := parseReturns(cs.Returns)
		if err != nil {
			return nil, fmt.Errorf("call %q: %w", cs.Name, err)
		}

		call := m.NewCall(cs.Name, callee, cs.Args).
			SetDoesNotReturn(cs.NoReturn).
			SetReturnsVoid(returnsVoid)
		for idx, a := range cs.StackAlign {
			call.SetStackAlignment(idx, ir.Align(a))
		}
		if cs.CallAlign != nil {
			call.SetCallAlign(cs.CallAlign...)
		}
	}

	for i := range mf.Annotations {
		if err := m.loadAnnotation(&mf.Annotations[i]); err != nil {
			return nil, fmt.Errorf("annotation %d: %w", i, err)
		}
	}

	return m, nil
}

// loadAnnotation converts one YAML sequence into an annotation record. Kinds
// are preserved as written so malformed records reach the annotation reader.
func (m *Module) loadAnnotation(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: expected a sequence", node.Line)
	}
	if len(node.Content) == 0 {
		return fmt.Errorf("line %d: empty record", node.Line)
	}

	var subject ir.Value
	head := node.Content[0]
	switch head.Tag {
	case "!!null":
	case "!!str":
		gv, ok := m.Lookup(head.Value)
		if !ok {
			return fmt.Errorf("line %d: unknown subject %q", head.Line, head.Value)
		}
		subject = gv
	default:
		return fmt.Errorf("line %d: subject must be a name or ~", head.Line)
	}

	kv := make([]any, 0, len(node.Content)-1)
	for _, item := range node.Content[1:] {
		md, err := scalarMetadata(item)
		if err != nil {
			return err
		}
		kv = append(kv, md)
	}
	m.Annotate(subject, kv...)
	return nil
}

func scalarMetadata(node *yaml.Node) (ir.Metadata, error) {
	switch node.Tag {
	case "!!null":
		return nil, nil
	case "!!str":
		return &ir.MDString{Value: node.Value}, nil
	case "!!int":
		v, err := strconv.ParseUint(node.Value, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", node.Line, err)
		}
		return &ir.ConstantInt{Value: v}, nil
	default:
		return nil, fmt.Errorf("line %d: unsupported operand %s", node.Line, node.Tag)
	}
}

// ParseCallingConv parses a calling convention name. The empty string is C.
func ParseCallingConv(s string) (ir.CallingConv, error) {
	switch strings.ToLower(s) {
	case "", "c", "ccc":
		return ir.CallingConvC, nil
	case "ptx_kernel":
		return ir.CallingConvPTXKernel, nil
	case "ptx_device":
		return ir.CallingConvPTXDevice, nil
	}
	if v, err := strconv.ParseUint(s, 10, 32); err == nil {
		return ir.CallingConv(v), nil
	}
	return 0, fmt.Errorf("unknown calling convention %q", s)
}

func parseReturns(s string) (bool, error) {
	switch s {
	case "", "void":
		return true, nil
	case "value":
		return false, nil
	}
	return false, fmt.Errorf("returns must be \"void\" or \"value\", got %q", s)
}
