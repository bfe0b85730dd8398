// Package style renders command results for humans and machines.
//
// Terminal output uses lipgloss styles and pterm tables. Plain text is the
// same layout with styling stripped. JSON and YAML render the result
// values directly.
package style
