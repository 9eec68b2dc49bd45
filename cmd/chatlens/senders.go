package main

import (
	"fmt"

	"github.com/kavmehta/chatlens/internal/config"
	"github.com/kavmehta/chatlens/internal/index"
	"github.com/spf13/cobra"
)

func sendersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "senders [chatKey]",
		Short: "List unique senders (system notices excluded)",
		Args:  cobra.MaximumNArgs(1),
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

			chatKey := ""
			if len(args) == 1 {
				chatKey = args[0]
			}

			senders, err := db.Senders(chatKey)
			if err != nil {
				return err
			}
			for _, s := range senders {
				fmt.Println(s)
			}
			return nil
		},
	}
}
