// Show command displays the two metadata layers side by side.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/G1enB1and/MediaManagerX/data"
)

var showFile string

var showCmd = &cobra.Command{
	Use:   "show <media-id>",
	Short: "Display the catalog record, its combined view, and optionally the file's embedded metadata",
	Long: `Show loads the catalog record for the identity (empty when unknown)
and prints it together with the combined view. With --file the file's
embedded snapshot is printed alongside, kept clearly separate from the
catalog side.

Example:
  mediameta show 0190cf2e-...
  mediameta show 0190cf2e-... --file photo.jpg`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().StringVar(&showFile, "file", "", "media file to harvest alongside the record")
}

func runShow(cmd *cobra.Command, args []string) error {
	view, err := engine.Load(cmd.Context(), data.MediaID(args[0]), showFile)
	if err != nil {
		return err
	}

	if flagJSON {
		out := map[string]any{
			"media_id":           string(view.Record.ID),
			"tags":               view.Record.Tags,
			"description":        view.Record.Description,
			"notes":              view.Record.Notes,
			"ai_prompt":          view.Record.AIPrompt,
			"ai_negative_prompt": view.Record.AINegativePrompt,
			"ai_parameters":      view.Record.AIParameters,
			"updated_at":         view.Record.UpdatedAt,
			"combined":           view.Combined,
		}
		if view.Snapshot != nil {
			out["embedded"] = snapshotJSON(view.Snapshot)
		}
		return printJSON(out)
	}

	fmt.Println("Catalog record:")
	fmt.Printf("  ID:          %s\n", view.Record.ID)
	fmt.Printf("  Tags:        %s\n", strings.Join(view.Record.Tags, "; "))
	fmt.Printf("  Description: %s\n", view.Record.Description)
	if !view.Record.UpdatedAt.IsZero() {
		fmt.Printf("  Updated:     %s\n", view.Record.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	if view.Combined != "" {
		fmt.Printf("\nCombined view:\n%s\n", indent(view.Combined))
	}
	if view.Snapshot != nil {
		fmt.Println("\nEmbedded in file:")
		fmt.Printf("  Tags:     %s\n", strings.Join(view.Snapshot.Tags, "; "))
		fmt.Printf("  Comments: %s\n", view.Snapshot.Comments)
		for _, diag := range view.Snapshot.Diagnostics {
			fmt.Printf("  Warning:  %s\n", diag)
		}
	}
	return nil
}

func indent(text string) string {
	return "  " + strings.ReplaceAll(text, "\n", "\n  ")
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
