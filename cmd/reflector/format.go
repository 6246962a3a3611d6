package main

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
)

// palette holds the colors for text output. Every color is disabled
// when color output is off.
type palette struct {
	errorC   *color.Color
	warningC *color.Color
	infoC    *color.Color
	hintC    *color.Color
	pathC    *color.Color
	gutterC  *color.Color
	caretC   *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		errorC:   color.New(color.FgRed, color.Bold),
		warningC: color.New(color.FgYellow, color.Bold),
		infoC:    color.New(color.FgBlue, color.Bold),
		hintC:    color.New(color.FgCyan),
		pathC:    color.New(color.Bold),
		gutterC:  color.New(color.FgBlue),
		caretC:   color.New(color.FgGreen, color.Bold),
	}
	for _, c := range []*color.Color{p.errorC, p.warningC, p.infoC, p.hintC, p.pathC, p.gutterC, p.caretC} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(sev string) *color.Color {
	switch sev {
	case "error":
		return p.errorC
	case "warning":
		return p.warningC
	case "info":
		return p.infoC
	}
	return p.hintC
}

// outputResultText dispatches to the appropriate text formatter based on the
// result type.
func outputResultText(w io.Writer, result CLIResult, colored bool) error {
	p := newPalette(colored)

	switch v := result.Results.(type) {
	case textLint:
		formatLintText(w, p, v)
	case textFix:
		formatFixText(w, p, v)
	case []CLILocation:
		formatLocationsText(w, v)
	case []CLICompletion:
		formatCompletionsText(w, v)
	case []CLIRole:
		formatRolesText(w, v)
	case []CLILanguage:
		formatLanguagesText(w, v)
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}

// textLint carries the sources alongside the summary so findings can be
// shown in context.
type textLint struct {
	summary CLILintSummary
	sources map[string][]byte
}

// textFix carries the fixed text. With summary set only the applied
// fixes are listed.
type textFix struct {
	fix     CLIFix
	source  []byte
	summary bool
}

// formatLintText prints each finding as
//
//	path:line:col: severity code: message
//
// followed by the source line with the range underlined, then a summary.
func formatLintText(w io.Writer, p palette, v textLint) {
	for _, f := range v.summary.Findings {
		sev := p.severity(f.Severity)
		fmt.Fprintf(w, "%s: %s %s: %s\n",
			p.pathC.Sprintf("%s:%d:%d", f.File, f.Line+1, f.Col+1),
			sev.Sprint(f.Severity), f.Code, f.Message)
		if src, ok := v.sources[f.File]; ok {
			writeExcerpt(w, p, src, f)
		}
		for _, fix := range f.Fixes {
			fmt.Fprintf(w, "    fix: %s\n", fix)
		}
	}

	total := len(v.summary.Findings)
	if total == 0 {
		fmt.Fprintf(w, "%d %s checked, no problems\n", v.summary.Files, plural("file", v.summary.Files))
		return
	}
	sevs := make([]string, 0, len(v.summary.Counts))
	for sev := range v.summary.Counts {
		sevs = append(sevs, sev)
	}
	sort.Slice(sevs, func(i, j int) bool { return severityRank(sevs[i]) > severityRank(sevs[j]) })
	parts := make([]string, 0, len(sevs))
	for _, sev := range sevs {
		parts = append(parts, p.severity(sev).Sprintf("%d %s", v.summary.Counts[sev], plural(sev, v.summary.Counts[sev])))
	}
	fmt.Fprintf(w, "\n%d %s (%s) in %d %s\n", total, plural("problem", total), strings.Join(parts, ", "), v.summary.Files, plural("file", v.summary.Files))
}

func severityRank(sev string) int {
	switch sev {
	case "error":
		return 3
	case "warning":
		return 2
	case "info":
		return 1
	}
	return 0
}

func plural(word string, n int) string {
	switch {
	case n == 1:
		return word
	case strings.HasSuffix(word, "x"):
		return word + "es"
	}
	return word + "s"
}

// writeExcerpt prints the finding's line and a caret under its range.
// Widths follow the display width of the text so wide characters line
// up; tabs are kept so the caret stays aligned under them.
func writeExcerpt(w io.Writer, p palette, src []byte, f CLIFinding) {
	lines := bytes.Split(src, []byte("\n"))
	if f.Line >= len(lines) {
		return
	}
	line := strings.TrimRight(string(lines[f.Line]), "\r")
	col := min(f.Col, len(line))

	var pad strings.Builder
	for _, r := range line[:col] {
		if r == '\t' {
			pad.WriteByte('\t')
			continue
		}
		pad.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	end := min(col+int(f.To-f.From), len(line))
	width := max(1, runewidth.StringWidth(line[col:end]))
	marker := "^" + strings.Repeat("~", width-1)

	gutter := fmt.Sprintf("%4d | ", f.Line+1)
	fmt.Fprintf(w, "%s%s\n", p.gutterC.Sprint(gutter), line)
	fmt.Fprintf(w, "%s%s%s\n", p.gutterC.Sprint(strings.Repeat(" ", len(gutter)-2)+"| "), pad.String(), p.caretC.Sprint(marker))
}

func formatFixText(w io.Writer, p palette, v textFix) {
	if !v.summary {
		w.Write(v.source)
		return
	}
	for _, label := range v.fix.Applied {
		fmt.Fprintf(w, "%s: %s\n", p.pathC.Sprint(v.fix.File), label)
	}
	fmt.Fprintf(w, "%d %s applied, %d remaining\n", len(v.fix.Applied), plural("fix", len(v.fix.Applied)), len(v.fix.Remaining))
}

// formatLocationsText formats locations as "file:line:col" lines with
// 1-based positions.
func formatLocationsText(w io.Writer, locs []CLILocation) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, loc := range locs {
		fmt.Fprintf(tw, "%s:%d:%d\t%s\t%s\n", loc.File, loc.Line+1, loc.Col+1, loc.Text, loc.Kind)
	}
	tw.Flush()
}

func formatCompletionsText(w io.Writer, cs []CLICompletion) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, c := range cs {
		fmt.Fprintf(tw, "%s\t%s\n", c.Label, c.Kind)
	}
	tw.Flush()
}

// formatRolesText formats role nodes as aligned columns.
func formatRolesText(w io.Writer, roles []CLIRole) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LINE\tCOL\tKIND\tTYPE\tTEXT\tROLE")
	for _, r := range roles {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\n", r.Line+1, r.Col+1, r.Kind, r.Type, r.Text, r.Role)
	}
	tw.Flush()
}

// formatLanguagesText formats CLILanguage results as aligned columns.
func formatLanguagesText(w io.Writer, langs []CLILanguage) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tEXTENSIONS\tROLES\tBUILTINS")
	for _, l := range langs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", l.Name, strings.Join(l.Extensions, " "), l.Roles, l.Builtins)
	}
	tw.Flush()
}
