package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newSearchIndexCmd() *cobra.Command {
	c := &cobra.Command{
		Use:               "search-index",
		Short:             "Maintain the document search index",
		PersistentPreRunE: initServices,
	}
	c.AddCommand(&cobra.Command{
		Use:   "build",
		Short: "Truncate and repopulate the index from canonical tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := svc.Index.RebuildAll(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("index rebuilt")
			return nil
		},
	})
	c.AddCommand(&cobra.Command{
		Use:   "reindex <document-id>...",
		Short: "Reindex the given documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]uuid.UUID, 0, len(args))
			for _, arg := range args {
				id, err := uuid.Parse(arg)
				if err != nil {
					return fmt.Errorf("invalid document id %q", arg)
				}
				ids = append(ids, id)
			}
			if err := svc.Index.Reindex(cmd.Context(), ids); err != nil {
				return err
			}
			fmt.Printf("reindexed %d document(s)\n", len(ids))
			return nil
		},
	})
	c.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show index coverage and size",
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := svc.Index.Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("total documents: %d\n", stats.TotalDocuments)
			fmt.Printf("indexed:         %d\n", stats.Indexed)
			fmt.Printf("missing:         %d\n", stats.Missing)
			fmt.Printf("index size:      %d bytes\n", stats.IndexSizeBytes)
			return nil
		},
	})
	c.AddCommand(&cobra.Command{
		Use:   "fix",
		Short: "Reindex documents missing from the index",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fixed, err := svc.Index.Fix(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("repaired %d document(s)\n", fixed)
			return nil
		},
	})
	c.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every row from the index",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := svc.Index.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("index cleared")
			return nil
		},
	})
	return c
}
