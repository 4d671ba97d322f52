// Package driver orchestrates a whole compilation: it reads unit manifests
// in parallel, binds them sequentially in input order, runs deferred type
// resolution and produces the next generation of the reference-handle index.
package driver

import (
	"context"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"loom/internal/binder"
	"loom/internal/diag"
	"loom/internal/handles"
	"loom/internal/manifest"
	"loom/internal/source"
	"loom/internal/symbols"
)

// Options configures one BindUnits run.
type Options struct {
	MaxDiagnostics int
	LateLowering   bool
	// Prior is the handle index of the previous build, nil on a from-scratch
	// build.
	Prior *handles.Index
	// Jobs limits manifest-read parallelism; 0 means GOMAXPROCS.
	Jobs int
}

// UnitResult is the outcome of loading and binding one unit manifest.
type UnitResult struct {
	Path      string
	Unit      *manifest.Unit // nil when the manifest failed to load
	Namespace *symbols.Namespace
	Bag       *diag.Bag
}

// Result is the outcome of a whole run.
type Result struct {
	Session *binder.Session
	FileSet *source.FileSet
	Units   []UnitResult
	// Bag holds all diagnostics merged in unit order.
	Bag *diag.Bag
	// Resolved counts type references that found their declaration.
	Resolved int
}

// switchReporter routes diagnostics to the bag of whichever unit is
// currently binding. Binding is single-threaded, so a plain field is enough.
type switchReporter struct {
	bag *diag.Bag
}

func (r *switchReporter) Report(code diag.Code, sev diag.Severity, primary source.Span, msg string, notes []diag.Note) {
	diag.BagReporter{Bag: r.bag}.Report(code, sev, primary, msg, notes)
}

// BindUnits runs the full pipeline over the given manifest paths. File reads
// happen concurrently; parsing and binding stay on the caller's goroutine
// because the interner and the symbol table are single-writer structures.
// Ordering of diagnostics, namespaces and handle bindings follows the input
// path order exactly.
func BindUnits(ctx context.Context, paths []string, opts Options) (*Result, error) {
	if opts.MaxDiagnostics <= 0 {
		opts.MaxDiagnostics = 100
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	contents := make([][]byte, len(paths))
	readErrs := make([]error, len(paths))
	if len(paths) > 0 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(min(jobs, len(paths)))
		for i, path := range paths {
			i, path := i, path
			g.Go(func() error {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				// #nosec G304 -- paths come from the project manifest
				contents[i], readErrs[i] = os.ReadFile(path)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	reporter := &switchReporter{}
	sess := binder.NewSession(binder.SessionOptions{
		Reporter:     reporter,
		Prior:        opts.Prior,
		LateLowering: opts.LateLowering,
	})
	fset := source.NewFileSet()
	merged := diag.NewBag(opts.MaxDiagnostics * (len(paths) + 1))

	result := &Result{
		Session: sess,
		FileSet: fset,
		Bag:     merged,
	}

	for i, path := range paths {
		bag := diag.NewBag(opts.MaxDiagnostics)
		reporter.bag = bag
		ur := UnitResult{Path: path, Bag: bag}

		if readErrs[i] != nil {
			diag.ReportError(reporter, diag.IOLoadFileError, source.Span{},
				"failed to load "+path+": "+readErrs[i].Error()).Emit()
			merged.Merge(bag)
			result.Units = append(result.Units, ur)
			continue
		}

		fileID := fset.AddNormalized(path, contents[i])
		unit, err := manifest.Parse(path, fileID, fset.Get(fileID).Content, sess.Table.Strings, reporter)
		if err != nil {
			diag.ReportError(reporter, diag.IOLoadFileError, source.Span{File: fileID},
				err.Error()).Emit()
			merged.Merge(bag)
			result.Units = append(result.Units, ur)
			continue
		}
		ur.Unit = unit

		bu := sess.NewUnit(unit.Name)
		for _, f := range unit.Fragments {
			bu.Bind(f)
		}
		ur.Namespace = bu.Finish()

		merged.Merge(bag)
		result.Units = append(result.Units, ur)
	}

	result.Resolved = sess.ResolveTypes()
	if err := sess.Table.Validate(); err != nil {
		// Invariant violations abort the run; they are never user errors.
		return nil, err
	}
	return result, nil
}
