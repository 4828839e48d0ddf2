package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

// EnsureTradeMarkups creates a zero-percent trade_markups row for every trade
// that does not have one yet, so admins always see the full table. Existing
// rows are never touched. Safe to call on every startup.
func EnsureTradeMarkups(app core.App) error {
	col, err := app.FindCollectionByNameOrId("trade_markups")
	if err != nil {
		return fmt.Errorf("migrate: could not find trade_markups collection: %w", err)
	}

	created := 0
	for _, trade := range tradeValues {
		existing, err := app.FindAllRecords(col, dbx.HashExp{"trade": trade})
		if err != nil {
			return fmt.Errorf("migrate: could not query markup for trade %s: %w", trade, err)
		}
		if len(existing) > 0 {
			continue
		}

		record := core.NewRecord(col)
		record.Set("trade", trade)
		record.Set("markup_percent", 0)
		if err := app.Save(record); err != nil {
			log.Printf("migrate: failed to create markup for trade %s: %v\n", trade, err)
			continue
		}
		created++
	}

	if created > 0 {
		log.Printf("migrate: created %d default trade markup(s).\n", created)
	}
	return nil
}
