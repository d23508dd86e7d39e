// Save command writes a catalog record.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/G1enB1and/MediaManagerX/data"
)

var (
	saveTags        string
	saveDescription string
	saveNotes       string
	savePrompt      string
	saveNegative    string
	saveParams      string
)

var saveCmd = &cobra.Command{
	Use:   "save [media-id]",
	Short: "Replace the catalog record for a media identity",
	Long: `Save replaces the catalog record for the given media identity with
the flag values and stamps the update time. Omitted flags save as empty;
this is a full replace, not a patch. When no media-id is given a fresh
identity is generated and printed.

The media file itself is never touched.

Example:
  mediameta save 0190cf2e-... --tags "vacation; beach" --notes "from the trip"
  mediameta save --description "new item"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSave,
}

func init() {
	saveCmd.Flags().StringVar(&saveTags, "tags", "", "tags, \";\"-separated")
	saveCmd.Flags().StringVar(&saveDescription, "description", "", "description")
	saveCmd.Flags().StringVar(&saveNotes, "notes", "", "free-form notes")
	saveCmd.Flags().StringVar(&savePrompt, "prompt", "", "AI generation prompt")
	saveCmd.Flags().StringVar(&saveNegative, "negative-prompt", "", "AI negative prompt")
	saveCmd.Flags().StringVar(&saveParams, "params", "", "AI generation parameters")
}

func runSave(cmd *cobra.Command, args []string) error {
	id := data.NewMediaID()
	if len(args) == 1 {
		id = data.MediaID(args[0])
	}

	record, err := engine.Save(cmd.Context(), id, data.CatalogFields{
		Tags:             data.SplitList(saveTags, ";"),
		Description:      saveDescription,
		Notes:            saveNotes,
		AIPrompt:         savePrompt,
		AINegativePrompt: saveNegative,
		AIParameters:     saveParams,
	})
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(map[string]any{
			"media_id":   string(record.ID),
			"updated_at": record.UpdatedAt,
		})
	}

	fmt.Printf("Saved %s (updated %s)\n", record.ID, record.UpdatedAt.Format("2006-01-02 15:04:05"))
	return nil
}
