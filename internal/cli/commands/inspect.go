package commands

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/ptxmeta/internal/annotations"
	"github.com/conduit-lang/ptxmeta/internal/cli/ui"
	"github.com/conduit-lang/ptxmeta/internal/ir"
	"github.com/conduit-lang/ptxmeta/internal/ir/mem"
)

var inspectJSON bool

// EntityReport is the JSON form of one global value's annotations
type EntityReport struct {
	Name       string              `json:"name"`
	Kind       string              `json:"kind"`
	Classes    []string            `json:"classes,omitempty"`
	Properties map[string][]uint32 `json:"properties"`
}

// CallReport is the JSON form of one call site's argument alignments
type CallReport struct {
	Name       string            `json:"name"`
	Callee     string            `json:"callee"`
	NoReturn   bool              `json:"emit_noreturn"`
	Alignments map[uint32]uint64 `json:"alignments,omitempty"`
}

// ModuleReport is the JSON output of inspect
type ModuleReport struct {
	Module   string         `json:"module"`
	Entities []EntityReport `json:"entities"`
	Calls    []CallReport   `json:"calls,omitempty"`
}

// NewInspectCommand creates the inspect command
func NewInspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <module.yaml>",
		Short: "Show the annotation property map of every global value",
		Long: `Load a module descriptor and print, for every function and global variable,
the properties recorded for it in nvvm.annotations together with the
texture, surface, sampler, managed and kernel classification derived from
them. Call sites are listed with their resolved argument alignments.`,
		Example: `  # Inspect a module
  ptxmeta inspect kernels.yaml

  # Machine-readable output
  ptxmeta inspect kernels.yaml --json

  # Tolerate malformed records
  ptxmeta inspect kernels.yaml --no-assert`,
		Args: cobra.ExactArgs(1),
		RunE: runInspect,
	}

	cmd.Flags().BoolVar(&inspectJSON, "json", false, "Output the report as JSON")

	return cmd
}

func runInspect(cmd *cobra.Command, args []string) error {
	env, err := setup(cmd, args[0])
	if err != nil {
		return err
	}
	defer env.close()

	return env.guard(cmd, func() error {
		report := buildModuleReport(env.cache(), env.module, env.cfg.Target)
		if inspectJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}
		renderModuleReport(cmd, env, report)
		return nil
	})
}

func buildModuleReport(c *annotations.Cache, m *mem.Module, st annotations.Subtarget) ModuleReport {
	report := ModuleReport{Module: m.Name()}

	for _, gv := range m.GlobalValues() {
		entity := EntityReport{
			Name:       gv.Name(),
			Kind:       "global",
			Properties: c.Properties(m, gv),
		}
		// functions list parameter indices under the same property names the
		// global markers use, so only variables are classified by marker
		if fn, ok := gv.(ir.Function); ok {
			entity.Kind = "function"
			if c.IsKernelFunction(fn) {
				entity.Classes = append(entity.Classes, "kernel")
			}
			report.Entities = append(report.Entities, entity)
			continue
		}
		if c.IsTexture(gv) {
			entity.Classes = append(entity.Classes, "texture:"+c.TextureName(gv))
		}
		if c.IsSurface(gv) {
			entity.Classes = append(entity.Classes, "surface:"+c.SurfaceName(gv))
		}
		if c.IsSampler(gv) {
			entity.Classes = append(entity.Classes, "sampler:"+c.SamplerName(gv))
		}
		if c.IsManaged(gv) {
			entity.Classes = append(entity.Classes, "managed")
		}
		report.Entities = append(report.Entities, entity)
	}

	for _, call := range m.Calls() {
		cr := CallReport{
			Name:     call.Name(),
			NoReturn: c.ShouldEmitNoReturn(call, st),
		}
		if callee := call.CalledOperand(); callee != nil {
			cr.Callee = callee.Name()
		}
		// attribute index 0 is the return value, arguments start at 1
		for i := 1; i <= call.NumArgs(); i++ {
			if a, ok := c.CallArgAlign(call, uint32(i)); ok {
				if cr.Alignments == nil {
					cr.Alignments = make(map[uint32]uint64)
				}
				cr.Alignments[uint32(i)] = uint64(a)
			}
		}
		report.Calls = append(report.Calls, cr)
	}

	return report
}

func renderModuleReport(cmd *cobra.Command, env *environment, report ModuleReport) {
	out := cmd.OutOrStdout()

	ui.Heading(out, "Module "+report.Module, env.noColor)
	entities := ui.NewTable(out, env.noColor, "Entity", "Kind", "Classes", "Properties")
	for _, e := range report.Entities {
		entities.AddRow(e.Name, e.Kind, orDash(strings.Join(e.Classes, " ")), orDash(formatProperties(e.Properties)))
	}
	entities.Render()

	if len(report.Calls) > 0 {
		fmt.Fprintln(out)
		ui.Heading(out, "Calls", env.noColor)
		calls := ui.NewTable(out, env.noColor, "Call", "Callee", "NoReturn", "Alignments")
		for _, c := range report.Calls {
			calls.AddRow(c.Name, c.Callee, strconv.FormatBool(c.NoReturn), orDash(formatAlignments(c.Alignments)))
		}
		calls.Render()
	}

	stats := env.cache().Stats()
	fmt.Fprintln(out)
	kv := ui.NewKeyValueTable(out, env.noColor)
	kv.AddRow("scans", strconv.FormatUint(stats.Scans, 10))
	kv.AddRow("cache hits", strconv.FormatUint(stats.Hits, 10))
	kv.AddRow("cached entities", strconv.Itoa(stats.Entities))
	kv.Render()
}

// formatProperties renders a property map as "name=v1,v2 ..." sorted by name
func formatProperties(props map[string][]uint32) string {
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		vals := make([]string, 0, len(props[name]))
		for _, v := range props[name] {
			vals = append(vals, strconv.FormatUint(uint64(v), 10))
		}
		parts = append(parts, name+"="+strings.Join(vals, ","))
	}
	return strings.Join(parts, " ")
}

func formatAlignments(aligns map[uint32]uint64) string {
	idx := make([]uint32, 0, len(aligns))
	for i := range aligns {
		idx = append(idx, i)
	}
	sort.Slice(idx, func(a, b int) bool { return idx[a] < idx[b] })

	parts := make([]string, 0, len(idx))
	for _, i := range idx {
		parts = append(parts, fmt.Sprintf("%d:%d", i, aligns[i]))
	}
	return strings.Join(parts, " ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
