package main

import (
	"github.com/kavmehta/chatlens/internal/config"
	"github.com/kavmehta/chatlens/internal/index"
	"github.com/kavmehta/chatlens/internal/search"
	"github.com/kavmehta/chatlens/internal/tui"
	"github.com/spf13/cobra"
)

func listCmd() *cobra.Command {
	var since string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Browse all chats sorted by last message",
		Long:  `Opens a TUI panel showing all indexed chats sorted by last message (newest first). Type to filter by chat name.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			index.IndexAll(db, cfg.ExportRoot, cfg.ParseOptions())

			opts := search.Options{
				Since: since,
				Limit: limit,
			}

			return tui.RunList(db, opts)
		},
	}

	cmd.Flags().StringVar(&since, "since", "", "Filter chats active since date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Max results (0 = no limit)")

	return cmd
}
