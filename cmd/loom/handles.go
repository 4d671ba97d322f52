package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"loom/internal/config"
	"loom/internal/handles"
)

var handlesFormat string

func init() {
	handlesCmd.Flags().StringVar(&handlesFormat, "format", "pretty", "output format (pretty|json)")
}

var handlesCmd = &cobra.Command{
	Use:   "handles [index-file]",
	Short: "Inspect the persisted reference-handle index",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		path, err := handleIndexPath(args)
		if err != nil {
			return err
		}
		index, err := handles.LoadIndex(path)
		if err != nil {
			return err
		}
		if index == nil {
			return fmt.Errorf("no handle index at %s, run 'loom bind' first", path)
		}

		switch handlesFormat {
		case "pretty":
			for _, key := range index.Keys() {
				id, _ := index.Lookup(key)
				fmt.Fprintf(cmd.OutOrStdout(), "%8d  %s\n", id, key)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d handles\n", index.Len())
		case "json":
			byKey := make(map[string]handles.HandleID, index.Len())
			for _, key := range index.Keys() {
				byKey[key], _ = index.Lookup(key)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(byKey)
		default:
			return fmt.Errorf("unsupported format %q (must be pretty or json)", handlesFormat)
		}
		return nil
	},
}

func handleIndexPath(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	proj, ok, err := config.LoadProject(".")
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errors.New("no loom.toml found; pass the index file explicitly")
	}
	return proj.HandleIndexPath(), nil
}
