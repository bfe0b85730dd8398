package releasekit

import (
	"os"
	"strings"
	"text/template"

	"github.com/arthur-debert/releasekit/pkg/style"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// helpStyled reports whether help text goes to a colour terminal. It uses
// the same detection as command output, so pipes and NO_COLOR get plain
// help.
func helpStyled() bool {
	return style.DetectFormat(os.Stdout) == style.FormatTerminal
}

// formatBold returns the string formatted as bold using pterm
func formatBold(s string) string {
	if !helpStyled() {
		return s
	}
	return pterm.Bold.Sprint(s)
}

// formatBoldUpper returns the string in uppercase and bold
func formatBoldUpper(s string) string {
	return formatBold(strings.ToUpper(s))
}

// initTemplateFormatting adds custom formatting functions to Cobra templates
func initTemplateFormatting() {
	cobra.AddTemplateFuncs(template.FuncMap{
		"bold":      formatBold,
		"upper":     strings.ToUpper,
		"boldUpper": formatBoldUpper,
	})
}
