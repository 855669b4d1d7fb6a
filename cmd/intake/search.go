package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/legal-intake/internal/retrieval"
)

var (
	searchLimit int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query> <file>...",
	Short: "Rank case files against a query",
	Long: `Extracts the given files, chunks them and ranks the chunks by lexical
overlap with the query.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "k", retrieval.DefaultTopK, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	docs, err := loadDocuments(cmd, args[1:])
	if err != nil {
		return err
	}
	matches := retrieval.Retrieve(args[0], docs, searchLimit)

	if searchJSON {
		data, err := json.MarshalIndent(matches, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(matches) == 0 {
		cmd.Println("No results found.")
		return nil
	}
	for i, m := range matches {
		cmd.Printf("  [%d] %s (%.4f)\n", i+1, m.Title, m.Score)
		cmd.Printf("      %s\n\n", m.Snippet)
	}
	return nil
}
