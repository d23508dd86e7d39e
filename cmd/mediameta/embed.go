// Embed command rewrites a file's managed metadata blocks.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/G1enB1and/MediaManagerX/data"
)

var (
	embedTags    string
	embedComment string
)

var embedCmd = &cobra.Command{
	Use:   "embed <file>",
	Short: "Write tags and a comment into a media file",
	Long: `Embed rewrites the file so its managed metadata blocks carry exactly
the given tags and comment. Every previously managed block is replaced;
omitting a flag clears that field in the file. Tool-provenance metadata
(generator parameter blocks and the like) is left alone.

The catalog is never touched.

Example:
  mediameta embed photo.jpg --tags "vacation; beach" --comment "day one"
  mediameta embed photo.jpg    # clears managed metadata`,
	Args: cobra.ExactArgs(1),
	RunE: runEmbed,
}

func init() {
	embedCmd.Flags().StringVar(&embedTags, "tags", "", "tags to embed, \";\"-separated")
	embedCmd.Flags().StringVar(&embedComment, "comment", "", "comment to embed")
}

func runEmbed(cmd *cobra.Command, args []string) error {
	bundle := data.MetadataBundle{
		Tags:    data.SplitList(embedTags, ";"),
		Comment: embedComment,
	}

	if err := engine.Embed(cmd.Context(), args[0], bundle); err != nil {
		return err
	}

	if flagJSON {
		return printJSON(map[string]any{"embedded": args[0]})
	}

	fmt.Printf("Embedded metadata into %s\n", args[0])
	return nil
}
