package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/conduit-lang/ptxmeta/internal/annotations"
)

// ErrorLevel represents the severity of an error message
type ErrorLevel int

const (
	ErrorLevelError ErrorLevel = iota
	ErrorLevelWarning
)

// ErrorOptions configures the error message formatting
type ErrorOptions struct {
	Level        ErrorLevel
	Context      string
	Problem      string
	Details      []string
	HelpCommands []string
	NoColor      bool
}

// FormatError creates a standardized error message with help commands
//
// Example output:
//
//	❌ ANNOTATION INVARIANT ANN001: invalid number of operands: 4
//	   subject: tex0
//
//	   → Inspect the module: ptxmeta inspect module.yaml --no-assert
func FormatError(opts ErrorOptions) string {
	var b strings.Builder

	headerColor := color.New(color.FgRed, color.Bold)
	bodyColor := color.New(color.FgRed)
	symbol := "❌"
	if opts.Level == ErrorLevelWarning {
		headerColor = color.New(color.FgYellow, color.Bold)
		bodyColor = color.New(color.FgYellow)
		symbol = "⚠️"
	}
	cyan := color.New(color.FgCyan)

	if opts.NoColor {
		headerColor.DisableColor()
		bodyColor.DisableColor()
		cyan.DisableColor()
	}

	if opts.Context != "" {
		headerColor.Fprintf(&b, "%s %s: %s\n", symbol, strings.ToUpper(opts.Context), opts.Problem)
	} else {
		headerColor.Fprintf(&b, "%s %s\n", symbol, opts.Problem)
	}

	for _, d := range opts.Details {
		bodyColor.Fprintf(&b, "   %s\n", d)
	}

	if len(opts.HelpCommands) > 0 {
		b.WriteString("\n")
		for _, cmd := range opts.HelpCommands {
			cyan.Fprintf(&b, "   → %s\n", cmd)
		}
	}

	return b.String()
}

// WriteError writes a formatted error message to the writer
func WriteError(w io.Writer, opts ErrorOptions) {
	fmt.Fprint(w, FormatError(opts))
}

// InvariantError formats an annotation invariant violation
func InvariantError(err *annotations.InvariantError, modulePath string, noColor bool) string {
	var details []string
	if err.Subject != "" {
		details = append(details, "subject: "+err.Subject)
	}
	if err.Property != "" {
		details = append(details, "property: "+err.Property)
	}

	return FormatError(ErrorOptions{
		Level:   ErrorLevelError,
		Context: "annotation invariant " + string(err.Code),
		Problem: err.Message,
		Details: details,
		HelpCommands: []string{
			fmt.Sprintf("Skip malformed operands: ptxmeta inspect %s --no-assert", modulePath),
		},
		NoColor: noColor,
	})
}

// SkippedWarning formats the notice printed when malformed annotations were
// skipped because assertions are disabled
func SkippedWarning(skipped uint64, modulePath string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:   ErrorLevelWarning,
		Problem: fmt.Sprintf("skipped %d malformed annotation operand(s) in %s", skipped, modulePath),
		Details: []string{"results may be missing properties"},
		HelpCommands: []string{
			fmt.Sprintf("Fail on malformed operands: ptxmeta inspect %s", modulePath),
		},
		NoColor: noColor,
	})
}
