package scan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tkara/unref/pkg/collector"
	"github.com/tkara/unref/pkg/protocol"
)

// Backend is the request surface the orchestrator needs from the
// protocol client.
type Backend interface {
	Call(ctx context.Context, command string, args any) (*protocol.Response, error)
	Shutdown()
}

// Options configures a scan run. The zero value gets sensible
// defaults from New.
type Options struct {
	// MaxDeclsPerFile caps how many declarations are evaluated per
	// file; trailing declarations beyond the cap are never queried.
	MaxDeclsPerFile int

	// IncludeExported also queries declarations carrying an export
	// marker. Off by default: exported symbols may be used externally.
	IncludeExported bool

	// ProgressEvery emits a progress record after this many files.
	ProgressEvery int

	// GeneratedDirs are path segments identifying build output;
	// matching files are skipped before any backend traffic.
	GeneratedDirs []string

	// WorkDir is reported in the artifact header.
	WorkDir string

	// Target is the artifact destination reported in the header.
	Target string

	// ReadFile reads a file's text; defaults to os.ReadFile.
	ReadFile func(string) ([]byte, error)

	// Tick, when set, is called once per processed file (progress bar
	// on stderr, independent of the artifact's progress lines).
	Tick func()
}

// Result summarizes a finished run.
type Result struct {
	FilesSeen     int
	TotalUnused   int
	Indeterminate int
}

// Orchestrator sequences a scan: configure the backend once, then for
// each file open → query each declaration → close, classifying each
// declaration by the reference lists the backend returns. Exactly one
// backend request is outstanding at any time.
type Orchestrator struct {
	backend Backend
	coll    *collector.Collector
	rep     *Reporter
	opts    Options

	state         RunState
	fileState     FileState
	filesSeen     int
	totalUnused   int
	indeterminate int
}

// New creates an orchestrator.
func New(backend Backend, coll *collector.Collector, rep *Reporter, opts Options) *Orchestrator {
	if opts.MaxDeclsPerFile <= 0 {
		opts.MaxDeclsPerFile = 1000
	}
	if opts.ProgressEvery <= 0 {
		opts.ProgressEvery = 10
	}
	if opts.GeneratedDirs == nil {
		opts.GeneratedDirs = []string{"node_modules", "dist", "build", "out", ".git"}
	}
	if opts.ReadFile == nil {
		opts.ReadFile = os.ReadFile
	}
	return &Orchestrator{
		backend: backend,
		coll:    coll,
		rep:     rep,
		opts:    opts,
		state:   StateInit,
	}
}

// State returns the current run state.
func (o *Orchestrator) State() RunState {
	return o.state
}

// Result returns the run counters.
func (o *Orchestrator) Result() Result {
	return Result{
		FilesSeen:     o.filesSeen,
		TotalUnused:   o.totalUnused,
		Indeterminate: o.indeterminate,
	}
}

// Run scans the file list in order and writes the artifact. Per-item
// failures (unreadable files, rejected or timed-out queries) reduce
// coverage for that item only; only backend-process failure aborts the
// run.
func (o *Orchestrator) Run(ctx context.Context, files []string) error {
	o.state = StateConfiguring
	_, err := o.backend.Call(ctx, protocol.CommandConfigure, protocol.ConfigureArgs{
		HostInfo:    "unref",
		Preferences: protocol.Preferences{DisableSuggestions: true},
	})
	if err != nil {
		return fmt.Errorf("configure backend: %w", err)
	}

	o.rep.Header(time.Now(), o.opts.WorkDir, len(files), o.opts.Target)

	o.state = StateScanning
	for _, path := range files {
		if err := o.scanFile(ctx, path); err != nil {
			return err
		}
		o.filesSeen++
		if o.filesSeen%o.opts.ProgressEvery == 0 {
			o.rep.Progress(o.filesSeen, len(files), o.totalUnused, o.indeterminate)
		}
		if o.opts.Tick != nil {
			o.opts.Tick()
		}
	}

	o.state = StateFinalizing
	o.rep.Summary(o.totalUnused, o.indeterminate)
	o.backend.Shutdown()
	o.state = StateClosed
	return nil
}

// scanFile runs the per-file state machine. The returned error is
// non-nil only for fatal conditions.
func (o *Orchestrator) scanFile(ctx context.Context, path string) error {
	o.fileState = FileIdle
	if isGenerated(path, o.opts.GeneratedDirs) {
		return nil
	}

	source, err := o.opts.ReadFile(path)
	if err != nil {
		// Unreadable: empty contribution, not an error.
		return nil
	}

	// Idle -> Opened.
	_, err = o.backend.Call(ctx, protocol.CommandOpen, protocol.OpenArgs{
		File:           path,
		FileContent:    string(source),
		ScriptKindName: collector.ScriptKind(path),
	})
	if err != nil {
		if fatal(err) {
			return fmt.Errorf("open %s: %w", path, err)
		}
		return nil
	}
	o.fileState = FileOpened

	decls, err := o.coll.Collect(path, source)
	if err != nil {
		decls = nil
	}
	if len(decls) > o.opts.MaxDeclsPerFile {
		decls = decls[:o.opts.MaxDeclsPerFile]
	}

	for _, d := range decls {
		if d.Exported && !o.opts.IncludeExported {
			continue
		}
		if err := o.queryDeclaration(ctx, path, source, d); err != nil {
			return err
		}
	}

	// Opened -> Closed; lets the backend release file state.
	_, err = o.backend.Call(ctx, protocol.CommandClose, protocol.CloseArgs{File: path})
	if err != nil && fatal(err) {
		return fmt.Errorf("close %s: %w", path, err)
	}
	o.fileState = FileClosed
	return nil
}

// queryDeclaration issues one references query and applies the unused
// rule: a declaration is unused iff every returned reference is a
// definition occurrence, including the trivial case of no references.
func (o *Orchestrator) queryDeclaration(ctx context.Context, path string, source []byte, d collector.Declaration) error {
	line, col := Position(source, int(d.Offset))

	resp, err := o.backend.Call(ctx, protocol.CommandReferences, protocol.ReferencesArgs{
		File:               path,
		Line:               line,
		Offset:             col,
		IncludeDeclaration: true,
	})
	if err != nil {
		if fatal(err) {
			return fmt.Errorf("references %s:%d:%d: %w", path, line, col, err)
		}
		o.indeterminate++
		return nil
	}
	if !resp.Success {
		o.indeterminate++
		return nil
	}

	var body protocol.ReferencesBody
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		o.indeterminate++
		return nil
	}

	for _, ref := range body.Refs {
		if !ref.IsDefinition {
			return nil // at least one real use
		}
	}

	o.totalUnused++
	o.rep.Record(path, line, col, d)
	return nil
}

// fatal reports whether a call error must abort the run. Timeouts and
// rejections are per-item; a dead backend or canceled context is not
// recoverable.
func fatal(err error) bool {
	return errors.Is(err, protocol.ErrBackendExited) ||
		errors.Is(err, protocol.ErrClientClosed) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// isGenerated reports whether any normalized path segment names a
// known build-output directory.
func isGenerated(path string, dirs []string) bool {
	for _, segment := range strings.Split(filepath.ToSlash(path), "/") {
		for _, dir := range dirs {
			if segment == dir {
				return true
			}
		}
	}
	return false
}
