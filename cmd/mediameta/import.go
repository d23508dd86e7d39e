// Import command pulls embedded metadata into an editing session.
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/G1enB1and/MediaManagerX/data"
)

var importTags string

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Harvest a file and merge its tags with the current tag list",
	Long: `Import harvests the file's embedded metadata and prints the editor
state it produces: the snapshot fields plus the tag union of --tags and
the harvested tags. Nothing is written to the catalog or the file;
follow up with "save" or "embed" to persist.

Example:
  mediameta import photo.jpg --tags "vacation; beach"`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importTags, "tags", "", "current tag list, \";\"-separated, to merge the harvested tags into")
}

func runImport(cmd *cobra.Command, args []string) error {
	current := data.SplitList(importTags, ";")

	result, err := engine.Import(cmd.Context(), args[0], current)
	if err != nil {
		return err
	}

	if flagJSON {
		out := snapshotJSON(result.Snapshot)
		out["merged_tags"] = result.MergedTags
		return printJSON(out)
	}

	printSnapshot(result.Snapshot)
	fmt.Printf("Merged tags: %s\n", strings.Join(result.MergedTags, "; "))
	return nil
}
