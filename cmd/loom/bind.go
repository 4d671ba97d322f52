package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"loom/internal/config"
	"loom/internal/diagfmt"
	"loom/internal/driver"
	"loom/internal/handles"
)

var (
	bindFormat   string
	bindContext  bool
	bindNoIndex  bool
	bindFresh    bool
	bindJobs     int
	bindPathMode string
)

func init() {
	bindCmd.Flags().StringVar(&bindFormat, "format", "pretty", "diagnostic output format (pretty|json)")
	bindCmd.Flags().BoolVar(&bindContext, "context", true, "show source context under diagnostics")
	bindCmd.Flags().BoolVar(&bindNoIndex, "no-index", false, "skip writing the handle index")
	bindCmd.Flags().BoolVar(&bindFresh, "fresh", false, "ignore the persisted handle index")
	bindCmd.Flags().IntVar(&bindJobs, "jobs", 0, "manifest read parallelism (0 = GOMAXPROCS)")
	bindCmd.Flags().StringVar(&bindPathMode, "paths", "auto", "path display (auto|absolute|relative|basename)")
}

var bindCmd = &cobra.Command{
	Use:   "bind",
	Short: "Bind every unit of the project and refresh the handle index",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		proj, ok, err := config.LoadProject(".")
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("no loom.toml found in this directory or any parent")
		}

		prior, err := loadPriorIndex(cmd, proj)
		if err != nil {
			return err
		}

		maxDiag, _ := cmd.Flags().GetInt("max-diagnostics")
		if maxDiag <= 0 {
			maxDiag = proj.Config.Bind.MaxDiagnostics
		}

		result, err := driver.BindUnits(cmd.Context(), proj.UnitPaths(), driver.Options{
			MaxDiagnostics: maxDiag,
			LateLowering:   proj.Config.Bind.LateLowering,
			Prior:          prior,
			Jobs:           bindJobs,
		})
		if err != nil {
			return err
		}

		result.Bag.Sort()
		pathMode, err := parsePathMode(bindPathMode)
		if err != nil {
			return err
		}
		switch bindFormat {
		case "pretty":
			diagfmt.Pretty(cmd.OutOrStdout(), result.Bag, result.FileSet, diagfmt.PrettyOpts{
				Color:     useColor(cmd, os.Stdout),
				Context:   bindContext,
				PathMode:  pathMode,
				ShowNotes: true,
			})
		case "json":
			err := diagfmt.JSON(cmd.OutOrStdout(), result.Bag, result.FileSet, diagfmt.JSONOpts{
				IncludePositions: true,
				PathMode:         pathMode,
				IncludeNotes:     true,
			})
			if err != nil {
				return err
			}
		default:
			return fmt.Errorf("unsupported format %q (must be pretty or json)", bindFormat)
		}

		if !bindNoIndex && !result.Bag.HasErrors() {
			next := driver.BuildHandleIndex(result.Session, prior)
			if err := next.Save(proj.HandleIndexPath()); err != nil {
				return fmt.Errorf("failed to write handle index: %w", err)
			}
		}

		if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "bound %d units, resolved %d type references\n",
				len(result.Units), result.Resolved)
		}

		if result.Bag.HasErrors() {
			return fmt.Errorf("binding failed with %d diagnostics", result.Bag.Len())
		}
		return nil
	},
}

// loadPriorIndex reads the previous handle index. Schema mismatches demote to
// a from-scratch build instead of failing the whole bind.
func loadPriorIndex(cmd *cobra.Command, proj *config.Project) (*handles.Index, error) {
	if bindFresh {
		return nil, nil
	}
	prior, err := handles.LoadIndex(proj.HandleIndexPath())
	if err != nil {
		if errors.Is(err, handles.ErrSchemaMismatch) {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v, rebuilding from scratch\n", err)
			return nil, nil
		}
		return nil, err
	}
	return prior, nil
}

func parsePathMode(mode string) (diagfmt.PathMode, error) {
	switch mode {
	case "auto":
		return diagfmt.PathModeAuto, nil
	case "absolute":
		return diagfmt.PathModeAbsolute, nil
	case "relative":
		return diagfmt.PathModeRelative, nil
	case "basename":
		return diagfmt.PathModeBasename, nil
	}
	return diagfmt.PathModeAuto, fmt.Errorf("unsupported path mode %q", mode)
}
