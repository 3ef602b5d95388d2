package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"predictd/internal/registry"
	"predictd/pkg/types"
)

func newModelsCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "models [dir]",
		Short: "List .gguf models in a directory (defaults to --model-path)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := a.cfg.ModelPath
			if len(args) == 1 {
				dir = args[0]
			}
			models, err := registry.LoadDir(dir)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{"models": models})
			}
			return writeModels(cmd.OutOrStdout(), models)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print models as JSON")
	return cmd
}

func writeModels(w io.Writer, models []types.Model) error {
	if len(models) == 0 {
		_, err := fmt.Fprintln(w, "no models found")
		return err
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "QUANT", "FAMILY", "SIZE")
	for _, m := range models {
		t.Row(m.ID, m.Quant, m.Family, humanBytes(m.SizeBytes))
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return strconv.FormatInt(n, 10) + " B"
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
