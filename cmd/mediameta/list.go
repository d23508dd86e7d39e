// List command enumerates catalog identities.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every media identity in the catalog",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	ids, err := engine.List(cmd.Context())
	if err != nil {
		return err
	}

	if flagJSON {
		out := make([]string, len(ids))
		for i, id := range ids {
			out[i] = string(id)
		}
		return printJSON(out)
	}

	for _, id := range ids {
		fmt.Println(id)
	}
	return nil
}
