package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/kavmehta/chatlens/internal/config"
	"github.com/kavmehta/chatlens/internal/index"
	"github.com/kavmehta/chatlens/internal/search"
	"github.com/kavmehta/chatlens/internal/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	sColorReset   = "\033[0m"
	sColorBoldRed = "\033[1;31m"
	sColorBlue    = "\033[1;34m"
	sColorDim     = "\033[2m"
)

func colorizeSnippet(snippet string) string {
	snippet = strings.ReplaceAll(snippet, ">>>", sColorBoldRed)
	snippet = strings.ReplaceAll(snippet, "<<<", sColorReset)
	return snippet
}

func searchCmd() *cobra.Command {
	var chat, sender, since string
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search across indexed chats",
		Long: `Search indexed messages using FTS5. Output is TSV for fzf integration:
  chatKey, seq, timestamp, chat, sender, snippet

Recommended shell function (add to .zshrc):
  clf() {
    chatlens search "$*" | fzf \
      --ansi \
      --delimiter='\t' --with-nth=3.. \
      --preview 'chatlens show {1} --hit {2} --context 5 --query {q}' \
      --preview-window=right:60%:wrap \
      --preview-debounce=150 \
      --bind 'enter:execute(chatlens open {1} --hit {2})'
  }`,
		Args: cobra.ExactArgs(1),
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

			// Auto-update index before searching
			index.IndexAll(db, cfg.ExportRoot, cfg.ParseOptions())

			opts := search.Options{
				Chat:   chat,
				Sender: sender,
				Since:  since,
				Limit:  limit,
			}

			// Interactive TUI when stdout is a terminal; TSV output for pipes
			if term.IsTerminal(int(os.Stdout.Fd())) {
				return tui.Run(db, args[0], opts)
			}

			opts.Query = args[0]
			results, err := search.Search(db, opts)
			if err != nil {
				return err
			}

			if len(results) == 0 {
				fmt.Fprintln(os.Stderr, "No results found.")
				return nil
			}

			for _, r := range results {
				snippet := strings.ReplaceAll(r.Snippet, "\t", " ")
				snippet = strings.ReplaceAll(snippet, "\n", " ")
				snippet = colorizeSnippet(snippet)
				name := strings.ReplaceAll(r.ChatName, "\t", " ")
				// first two fields (chatKey, seq) stay plain for fzf {1} {2}
				fmt.Printf("%s\t%d\t%s%s%s\t%s%s%s\t%s\t%s\n",
					r.ChatKey,
					r.Seq,
					sColorDim, r.Ts, sColorReset,
					sColorBlue, name, sColorReset,
					r.Sender,
					snippet,
				)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&chat, "chat", "", "Filter by chat key")
	cmd.Flags().StringVar(&sender, "sender", "", "Filter by sender name")
	cmd.Flags().StringVar(&since, "since", "", "Filter messages since date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 100, "Max results")

	return cmd
}
