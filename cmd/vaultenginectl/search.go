package main

import (
	"fmt"

	"github.com/riftlock/vaultengine/pkg/search"
	"github.com/riftlock/vaultengine/pkg/vaultmodel"

	"github.com/spf13/cobra"
)

var (
	searchByURL bool
	searchLimit int
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Fuzzy-ranks entries against a query over title, username, and url",
	Long: `Ranks the unlocked vault's entries against query using the engine's
search indexer (edit distance over title/username/url by default; pass
--url to rank by host relation plus recorded hit count instead, and to
bump that entry's hit count as a side effect, the way picking a search
result does).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := currentEngine()
		if err != nil {
			return err
		}
		query := args[0]
		facade := vaultmodel.ToFacade(e.Tree())

		candidates := make([]search.Candidate, 0, len(facade.Entries))
		for _, entry := range facade.Entries {
			candidates = append(candidates, search.Candidate{
				VaultID:  facade.ID,
				EntryID:  entry.ID,
				Title:    entry.Properties["title"],
				Username: entry.Properties["username"],
				URL:      entry.Properties["url"],
			})
		}

		if searchByURL {
			hits, err := urlIndex.Search(facade.ID, query, candidates, searchLimit)
			if err != nil {
				return fmt.Errorf("failed to search url index: %w", err)
			}
			printHits(hits)
			if len(hits) > 0 {
				_ = urlIndex.IncrementScore(facade.ID, hits[0].Candidate.EntryID, query)
			}
			return nil
		}

		idx := search.NewTermIndex(nil)
		idx.Index(candidates)
		printHits(idx.Search(query, searchLimit))
		return nil
	},
}

func printHits(hits []search.Hit) {
	for _, hit := range hits {
		fmt.Printf("%s\t%s\t%d\n", hit.Candidate.EntryID, hit.Candidate.Title, hit.Distance)
	}
}
