package main

import (
	"fmt"
	"os"

	"github.com/kavmehta/chatlens/internal/config"
	"github.com/kavmehta/chatlens/internal/index"
	"github.com/kavmehta/chatlens/internal/scan"
	"github.com/spf13/cobra"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Self-check: verify export root, DB, FTS5, and report export anomalies",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}

			fmt.Println("=== Export root ===")
			checkDir(cfg.ExportRoot)

			fmt.Println("\n=== File Scan ===")
			files, err := scan.ScanRoot(cfg.ExportRoot)
			if err != nil {
				fmt.Printf("  scan error: %v\n", err)
			} else {
				fmt.Printf("  Export files: %d\n", len(files))
			}

			fmt.Println("\n=== Database ===")
			fmt.Printf("  Path: %s\n", cfg.DBPath)
			if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
				fmt.Println("  Status: NOT FOUND (run 'chatlens index' first)")
				return nil
			}

			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()

			chatCount, err := db.ChatCount()
			if err != nil {
				return fmt.Errorf("count chats: %w", err)
			}

			msgCount, err := db.MessageCount()
			if err != nil {
				return fmt.Errorf("count messages: %w", err)
			}

			fmt.Printf("  Chats:    %d\n", chatCount)
			fmt.Printf("  Messages: %d\n", msgCount)

			fmt.Println("\n=== FTS5 ===")
			var ftsCount int
			err = db.Raw().QueryRow("SELECT COUNT(*) FROM messages_fts").Scan(&ftsCount)
			if err != nil {
				fmt.Printf("  FTS5 error: %v\n", err)
			} else {
				fmt.Printf("  FTS5 entries: %d\n", ftsCount)
				if ftsCount == msgCount {
					fmt.Println("  Status: OK (synced)")
				} else {
					fmt.Printf("  Status: MISMATCH (messages=%d, fts=%d)\n", msgCount, ftsCount)
				}
			}

			// Exports are written in chronological order; out-of-order
			// timestamps or skipped records mean a damaged or edited file.
			fmt.Println("\n=== Export anomalies ===")
			if err := reportAnomalies(db); err != nil {
				fmt.Printf("  error: %v\n", err)
			}

			if info, err := os.Stat(cfg.DBPath); err == nil {
				sizeMB := float64(info.Size()) / 1024 / 1024
				fmt.Printf("\n=== DB Size: %.1f MB ===\n", sizeMB)
			}

			return nil
		},
	}
}

func reportAnomalies(db *index.DB) error {
	rows, err := db.Raw().Query(`
		SELECT c.chat_key, c.skipped,
		       (SELECT COUNT(*) FROM messages m1
		        JOIN messages m2 ON m2.chat_key = m1.chat_key AND m2.seq = m1.seq + 1
		        WHERE m1.chat_key = c.chat_key AND m2.ts < m1.ts) AS out_of_order
		FROM chats c
		ORDER BY c.chat_key`)
	if err != nil {
		return err
	}
	defer rows.Close()

	clean := true
	for rows.Next() {
		var key string
		var skipped, outOfOrder int
		if err := rows.Scan(&key, &skipped, &outOfOrder); err != nil {
			return err
		}
		if skipped == 0 && outOfOrder == 0 {
			continue
		}
		clean = false
		fmt.Printf("  %s: %d unreadable timestamps, %d out-of-order messages\n", key, skipped, outOfOrder)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if clean {
		fmt.Println("  none")
	}
	return nil
}

func checkDir(path string) {
	if info, err := os.Stat(path); err != nil {
		fmt.Printf("  %s (NOT FOUND)\n", path)
	} else if !info.IsDir() {
		fmt.Printf("  %s (NOT A DIRECTORY)\n", path)
	} else {
		fmt.Printf("  %s (OK)\n", path)
	}
}
