// Harvest command reads the metadata embedded in a file.
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/G1enB1and/MediaManagerX/data"
)

var harvestCmd = &cobra.Command{
	Use:   "harvest <file>",
	Short: "Read the metadata embedded in a media file",
	Long: `Harvest decodes every metadata block embedded in the file and prints
the resulting snapshot. The catalog is not consulted.

Example:
  mediameta harvest photo.jpg
  mediameta harvest render.png --json`,
	Args: cobra.ExactArgs(1),
	RunE: runHarvest,
}

func runHarvest(cmd *cobra.Command, args []string) error {
	snapshot, err := engine.Harvest(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(snapshotJSON(snapshot))
	}

	printSnapshot(snapshot)
	return nil
}

func printSnapshot(snapshot *data.EmbeddedSnapshot) {
	fmt.Printf("Tags:     %s\n", strings.Join(snapshot.Tags, "; "))
	fmt.Printf("Comments: %s\n", snapshot.Comments)
	if snapshot.ToolMetadata != "" {
		fmt.Printf("Tool metadata:\n%s\n", snapshot.ToolMetadata)
	}
	for _, diag := range snapshot.Diagnostics {
		fmt.Printf("Warning:  %s\n", diag)
	}
}

func snapshotJSON(snapshot *data.EmbeddedSnapshot) map[string]any {
	return map[string]any{
		"tags":          snapshot.Tags,
		"comments":      snapshot.Comments,
		"tool_metadata": snapshot.ToolMetadata,
		"diagnostics":   snapshot.Diagnostics,
	}
}
