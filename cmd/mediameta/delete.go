// Delete command removes a catalog record.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/G1enB1and/MediaManagerX/data"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <media-id>",
	Short: "Delete the catalog record for a media identity",
	Long: `Delete removes the catalog record. The media file and its embedded
metadata are never touched.`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	deleted, err := engine.Delete(cmd.Context(), data.MediaID(args[0]))
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(map[string]any{"deleted": deleted})
	}

	if !deleted {
		fmt.Printf("No catalog record for %s\n", args[0])
		return nil
	}
	fmt.Printf("Deleted catalog record %s\n", args[0])
	return nil
}
