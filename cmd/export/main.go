package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/quangdle/crypto-signal-bot/internal/storage"
	"github.com/quangdle/crypto-signal-bot/pkg/reporting"
)

func main() {
	var (
		dbPath   = flag.String("db", "signal_bot.db", "Path to the bot database")
		xlsxPath = flag.String("xlsx", "", "Write an Excel workbook to this path")
		limit    = flag.Int("limit", 200, "Maximum closed trades to export")
	)
	flag.Parse()

	store, err := storage.NewSQLiteStore(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer store.Close()

	positions, err := store.ListClosedPositions(context.Background(), *limit)
	if err != nil {
		log.Fatalf("Failed to load closed trades: %v", err)
	}
	if len(positions) == 0 {
		fmt.Println("No closed trades recorded yet.")
		return
	}

	journal := &reporting.Journal{Positions: positions}
	journal.RenderConsole(os.Stdout)

	if *xlsxPath != "" {
		if err := journal.WriteXLSX(*xlsxPath); err != nil {
			log.Fatalf("Failed to write Excel file: %v", err)
		}
		fmt.Printf("📄 Exported %d trades to %s\n", len(positions), *xlsxPath)
	}
}
