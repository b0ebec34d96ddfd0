package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/ptxmeta/internal/annotations"
	"github.com/conduit-lang/ptxmeta/internal/cli/ui"
	"github.com/conduit-lang/ptxmeta/internal/ir"
	"github.com/conduit-lang/ptxmeta/internal/ir/mem"
)

var kernelsOnly bool

// NewKernelsCommand creates the kernels command
func NewKernelsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kernels <module.yaml>",
		Short: "Show launch bounds and parameter classes of each function",
		Long: `List every function in a module with its kernel classification, launch
bounds (reqntid, maxntid, maxnreg, minctasm, maxclusterrank) and whether a
noreturn directive would be emitted for it on the configured target.

Parameters are listed with their image or sampler class and alignment.`,
		Example: `  # All functions
  ptxmeta kernels kernels.yaml

  # Only kernel entry points
  ptxmeta kernels kernels.yaml --kernels-only`,
		Args: cobra.ExactArgs(1),
		RunE: runKernels,
	}

	cmd.Flags().BoolVar(&kernelsOnly, "kernels-only", false, "Only list kernel entry points")

	return cmd
}

func runKernels(cmd *cobra.Command, args []string) error {
	env, err := setup(cmd, args[0])
	if err != nil {
		return err
	}
	defer env.close()

	return env.guard(cmd, func() error {
		renderKernels(cmd, env)
		return nil
	})
}

func renderKernels(cmd *cobra.Command, env *environment) {
	out := cmd.OutOrStdout()
	c := env.cache()

	ui.Heading(out, "Functions in "+env.module.Name(), env.noColor)
	funcs := ui.NewTable(out, env.noColor, "Function", "Kernel", "ReqNTID", "MaxNTID", "MaxNReg", "MinCTASm", "MaxClusterRank", "NoReturn")
	params := ui.NewTable(out, env.noColor, "Function", "Param", "Class", "Align")

	for _, f := range env.module.Functions() {
		kernel := c.IsKernelFunction(f)
		if kernelsOnly && !kernel {
			continue
		}

		funcs.AddRow(
			f.Name(),
			strconv.FormatBool(kernel),
			dims(c.ReqNTIDx, c.ReqNTIDy, c.ReqNTIDz, f),
			dims(c.MaxNTIDx, c.MaxNTIDy, c.MaxNTIDz, f),
			optional(c.MaxNReg(f)),
			optional(c.MinCTASm(f)),
			optional(c.MaxClusterRank(f)),
			strconv.FormatBool(c.ShouldEmitNoReturn(f, env.cfg.Target)),
		)

		for _, p := range f.Params() {
			align := "-"
			// attribute index 0 is the return value
			if a, ok := c.FunctionParamAlign(f, p.ArgNo()+1); ok {
				align = strconv.FormatUint(uint64(a), 10)
			}
			name := p.Name()
			if name == "" {
				name = "%" + strconv.FormatUint(uint64(p.ArgNo()), 10)
			}
			params.AddRow(f.Name(), name, paramClass(c, p), align)
		}
	}

	if funcs.Len() == 0 {
		fmt.Fprintln(out, "No functions found")
		return
	}
	funcs.Render()

	if params.Len() > 0 {
		fmt.Fprintln(out)
		ui.Heading(out, "Parameters", env.noColor)
		params.Render()
	}
}

// dims renders a launch-bound triple as x,y,z with "-" for absent dimensions,
// or "-" when none are present.
func dims(x, y, z func(ir.Function) (uint32, bool), f ir.Function) string {
	parts := []string{optional(x(f)), optional(y(f)), optional(z(f))}
	if parts[0] == "-" && parts[1] == "-" && parts[2] == "-" {
		return "-"
	}
	return strings.Join(parts, ",")
}

func optional(v uint32, ok bool) string {
	if !ok {
		return "-"
	}
	return strconv.FormatUint(uint64(v), 10)
}

func paramClass(c *annotations.Cache, p *mem.Argument) string {
	switch {
	case c.IsImageReadOnly(p):
		return "image-ro"
	case c.IsImageWriteOnly(p):
		return "image-wo"
	case c.IsImageReadWrite(p):
		return "image-rw"
	case c.IsSampler(p):
		return "sampler"
	}
	return "-"
}
