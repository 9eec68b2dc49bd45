package main

import (
	"fmt"
	"os"
	"time"

	"github.com/kavmehta/chatlens/internal/config"
	"github.com/kavmehta/chatlens/internal/index"
	"github.com/kavmehta/chatlens/internal/render"
	"github.com/kavmehta/chatlens/internal/stats"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func statsCmd() *cobra.Command {
	var user string
	var top int
	var daily bool

	cmd := &cobra.Command{
		Use:   "stats <chatKey>",
		Short: "Engagement report for a chat: totals, timelines, top senders, words, emoji",
		Args:  cobra.ExactArgs(1),
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

			// Auto-update index before reporting
			index.IndexAll(db, cfg.ExportRoot, cfg.ParseOptions())

			chatKey := args[0]
			chat, err := db.GetChatByKey(chatKey)
			if err != nil {
				return err
			}
			if chat == nil {
				return fmt.Errorf("chat not found: %s (run 'chatlens list' to browse keys)", chatKey)
			}

			f := stats.Filter{ChatKey: chatKey, Sender: user}
			width := reportWidth()

			scope := "Overall"
			if user != "" {
				scope = user
			}
			fmt.Printf("=== %s — %s ===\n\n", chat.Name, scope)

			ov, err := stats.FetchOverview(db, f)
			if err != nil {
				return err
			}
			fmt.Printf("Messages: %d   Words: %d   Media: %d   Links: %d\n", ov.Messages, ov.Words, ov.Media, ov.Links)
			if chat.Skipped > 0 {
				fmt.Printf("(export had %d records with unreadable timestamps, not counted)\n", chat.Skipped)
			}

			if user == "" {
				busy, err := stats.BusyUsers(db, chatKey, top)
				if err != nil {
					return err
				}
				fmt.Printf("\n--- Busiest senders ---\n")
				for _, b := range busy {
					fmt.Printf("%-24s %6d  %5.1f%%\n", b.Sender, b.Count, b.Percent)
				}
			}

			monthly, err := stats.MonthlyTimeline(db, f)
			if err != nil {
				return err
			}
			fmt.Printf("\n--- Monthly timeline ---\n%s", render.Bars(monthly, width))

			if daily {
				points, err := stats.DailyTimeline(db, f)
				if err != nil {
					return err
				}
				fmt.Printf("\n--- Daily timeline ---\n%s", render.Bars(points, width))
			}

			weekday, err := stats.WeekdayActivity(db, f)
			if err != nil {
				return err
			}
			fmt.Printf("\n--- Weekday activity ---\n%s", render.Bars(weekday, width))

			months, err := stats.MonthActivity(db, f)
			if err != nil {
				return err
			}
			fmt.Printf("\n--- Month activity ---\n%s", render.Bars(months, width))

			hours, err := stats.HourActivity(db, f)
			if err != nil {
				return err
			}
			fmt.Printf("\n--- Hourly activity ---\n%s", render.Bars(hours, width))

			if user == "" {
				gaps, err := stats.ResponseGaps(db, chatKey)
				if err != nil {
					return err
				}
				if len(gaps) > 0 {
					fmt.Printf("\n--- Response times ---\n")
					for _, g := range gaps {
						fmt.Printf("%-24s median %-8s mean %-8s (%d responses)\n",
							g.Sender, fmtGap(g.Median), fmtGap(g.Mean), g.Responses)
					}
				}
			}

			words, err := stats.CommonWords(db, f, top, cfg.StopWords)
			if err != nil {
				return err
			}
			fmt.Printf("\n--- Common words ---\n")
			for _, w := range words {
				fmt.Printf("%-24s %6d\n", w.Word, w.Count)
			}

			emoji, err := stats.CommonEmoji(db, f, top)
			if err != nil {
				return err
			}
			if len(emoji) > 0 {
				fmt.Printf("\n--- Common emoji ---\n")
				for _, e := range emoji {
					fmt.Printf("%-4s %6d\n", e.Emoji, e.Count)
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Restrict the report to one sender")
	cmd.Flags().IntVar(&top, "top", 10, "How many entries in ranked sections")
	cmd.Flags().BoolVar(&daily, "daily", false, "Include the per-day timeline")

	return cmd
}

func reportWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 40 {
		return w
	}
	return 80
}

func fmtGap(d time.Duration) string {
	return d.Round(time.Second).String()
}
