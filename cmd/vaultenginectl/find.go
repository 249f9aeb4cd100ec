package main

import (
	"fmt"

	"github.com/riftlock/vaultengine/internal/cli"
	"github.com/riftlock/vaultengine/pkg/vaultmodel"

	"github.com/spf13/cobra"
)

var findCmd = &cobra.Command{
	Use:   "find [title-pattern]",
	Short: "Lists entries whose title matches a glob pattern (*, ?, [...])",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := currentEngine()
		if err != nil {
			return err
		}

		facade := vaultmodel.ToFacade(e.Tree())
		titles := make([]string, 0, len(facade.Entries))
		byTitle := make(map[string]*vaultmodel.EntryFacade, len(facade.Entries))
		for _, entry := range facade.Entries {
			title := entry.Properties["title"]
			titles = append(titles, title)
			byTitle[title] = entry
		}

		matches, err := cli.MatchTitles(args[0], titles)
		if err != nil {
			return err
		}
		for _, title := range matches {
			fmt.Printf("%s\t%s\n", byTitle[title].ID, title)
		}
		return nil
	},
}
