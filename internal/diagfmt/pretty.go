// Package diagfmt renders diagnostic bags for humans and for tooling.
package diagfmt

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"loom/internal/diag"
	"loom/internal/source"
)

var (
	errorPaint   = color.New(color.FgRed, color.Bold)
	warningPaint = color.New(color.FgYellow, color.Bold)
	infoPaint    = color.New(color.FgCyan)
	notePaint    = color.New(color.Faint)
)

// Pretty formats diagnostics in a human-readable way. It walks bag.Items()
// as-is; callers that want a stable order run bag.Sort() first. Each
// diagnostic prints as
//
//	<path>:<line>:<col>: <SEVERITY> <CODE>: <message>
//
// followed by the offending source line with a ^~~~ underline when Context is
// set, followed by notes in the same shape.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	for _, d := range bag.Items() {
		sev := d.Severity.String()
		if opts.Color {
			sev = severityPaint(d.Severity).Sprint(sev)
		}
		fmt.Fprintf(w, "%s: %s %s: %s\n",
			location(fs, d.Primary, opts.PathMode), sev, d.Code.ID(), d.Message)
		if opts.Context {
			writeContext(w, fs, d.Primary, opts)
		}

		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			msg := n.Msg
			if opts.Color {
				msg = notePaint.Sprint(msg)
			}
			fmt.Fprintf(w, "  note: %s\n    %s\n", msg, location(fs, n.Span, opts.PathMode))
			if opts.Context {
				writeContext(w, fs, n.Span, opts)
			}
		}
	}
}

func severityPaint(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return errorPaint
	case diag.SevWarning:
		return warningPaint
	default:
		return infoPaint
	}
}

func location(fs *source.FileSet, span source.Span, mode PathMode) string {
	f := fs.Get(span.File)
	if f == nil {
		return "<unknown>"
	}
	start, _ := fs.Resolve(span)
	return fmt.Sprintf("%s:%d:%d", formatPath(f.Path, mode), start.Line, start.Col)
}

func formatPath(path string, mode PathMode) string {
	switch mode {
	case PathModeAbsolute:
		if abs, err := filepath.Abs(path); err == nil {
			return filepath.ToSlash(abs)
		}
	case PathModeRelative:
		if wd, err := os.Getwd(); err == nil {
			if rel, err := filepath.Rel(wd, path); err == nil {
				return filepath.ToSlash(rel)
			}
		}
	case PathModeBasename:
		return filepath.Base(path)
	}
	return path
}

// writeContext prints the first line covered by the span with a caret
// underline. Column math uses display width so the caret lands correctly
// under wide runes.
func writeContext(w io.Writer, fs *source.FileSet, span source.Span, opts PrettyOpts) {
	f := fs.Get(span.File)
	if f == nil || len(f.Content) == 0 {
		return
	}
	start, end := fs.Resolve(span)

	line, lineStart := lineAt(f, start.Line)
	rendered := strings.ReplaceAll(line, "\t", " ")
	if opts.Width > 0 {
		rendered = runewidth.Truncate(rendered, opts.Width, "…")
	}
	fmt.Fprintf(w, "  | %s\n", rendered)

	prefix := strings.ReplaceAll(string(f.Content[lineStart:lineStart+int(start.Col)-1]), "\t", " ")
	pad := runewidth.StringWidth(prefix)
	marks := 1
	if end.Line == start.Line && end.Col > start.Col {
		marks = int(end.Col - start.Col)
	}
	underline := "^" + strings.Repeat("~", marks-1)
	if opts.Width > 0 {
		if pad >= opts.Width {
			underline = ""
		} else if pad+marks > opts.Width {
			underline = runewidth.Truncate(underline, opts.Width-pad, "")
		}
	}
	if opts.Color {
		underline = errorPaint.Sprint(underline)
	}
	fmt.Fprintf(w, "  | %s%s\n", strings.Repeat(" ", pad), underline)
}

// lineAt returns the 1-based line's text without its terminator, plus the
// byte offset of its first character. LineIdx holds the offsets of the
// newline characters themselves.
func lineAt(f *source.File, line uint32) (string, int) {
	if line == 0 || int(line) > len(f.LineIdx)+1 {
		return "", 0
	}
	start := 0
	if line > 1 {
		start = int(f.LineIdx[line-2]) + 1
	}
	end := len(f.Content)
	if int(line) <= len(f.LineIdx) {
		end = int(f.LineIdx[line-1])
	}
	if end < start {
		end = start
	}
	return string(f.Content[start:end]), start
}
