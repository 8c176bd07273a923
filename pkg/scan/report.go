package scan

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/tkara/unref/pkg/collector"
)

// Reporter writes the scan artifact incrementally: a header block,
// one line per unused declaration as it is classified, periodic
// progress lines, and a trailing summary.
type Reporter struct {
	w        io.Writer
	colorize bool
}

// NewReporter creates a reporter writing to w. Color is only applied
// when colorize is set; file output should pass false.
func NewReporter(w io.Writer, colorize bool) *Reporter {
	return &Reporter{w: w, colorize: colorize}
}

// Header writes the run preamble.
func (r *Reporter) Header(now time.Time, dir string, fileCount int, target string) {
	fmt.Fprintf(r.w, "unref scan %s\n", now.Format(time.RFC3339))
	fmt.Fprintf(r.w, "dir: %s\n", dir)
	fmt.Fprintf(r.w, "files: %d\n", fileCount)
	fmt.Fprintf(r.w, "target: %s\n\n", target)
}

// Record writes one unused-declaration line:
// path:line:col  kind[ exported]  name
func (r *Reporter) Record(path string, line, col int, d collector.Declaration) {
	marker := ""
	if d.Exported {
		marker = " exported"
	}
	name := d.Name
	if r.colorize {
		name = color.RedString(name)
	}
	fmt.Fprintf(r.w, "%s:%d:%d  %s%s  %s\n", path, line, col, d.Kind, marker, name)
}

// Progress writes a running tally after a cadence of processed files.
func (r *Reporter) Progress(done, total, unused, indeterminate int) {
	if indeterminate > 0 {
		fmt.Fprintf(r.w, "progress: %d/%d, unused so far: %d, indeterminate: %d\n", done, total, unused, indeterminate)
		return
	}
	fmt.Fprintf(r.w, "progress: %d/%d, unused so far: %d\n", done, total, unused)
}

// Summary writes the terminal record.
func (r *Reporter) Summary(unused, indeterminate int) {
	if indeterminate > 0 {
		fmt.Fprintf(r.w, "done. total unused: %d, indeterminate: %d\n", unused, indeterminate)
		return
	}
	fmt.Fprintf(r.w, "done. total unused: %d\n", unused)
}
