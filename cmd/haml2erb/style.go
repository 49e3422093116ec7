package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/tmplconv/haml2erb/internal/driver"
)

var (
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	labelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))
)

// printSummary renders one line per converted file. cmd may be nil (watch
// mode has no cobra.Command in scope), in which case output goes to stdout.
func printSummary(cmd interface{ OutOrStdout() io.Writer }, results []driver.FileResult) {
	var w io.Writer = os.Stdout
	if cmd != nil {
		w = cmd.OutOrStdout()
	}
	for _, r := range results {
		switch {
		case len(r.Errors) > 0:
			fmt.Fprintln(w, errorStyle.Render("FAIL")+" "+r.Path)
			for _, e := range r.Errors {
				fmt.Fprintln(w, "  "+e)
			}
		case r.DryRun:
			fmt.Fprintln(w, labelStyle.Render("DRY-RUN")+" "+r.Path)
			fmt.Fprint(w, r.Content)
		default:
			fmt.Fprintln(w, okStyle.Render("OK")+" "+r.Path)
		}
		for _, d := range r.Diags {
			fmt.Fprintln(w, "  "+warnStyle.Render("warning:")+" "+d.Message)
		}
		if r.Valid != nil && !r.Valid.Success {
			for _, e := range r.Valid.Errors {
				fmt.Fprintln(w, "  "+errorStyle.Render("invalid:")+" "+e.Message)
			}
		}
	}
}
