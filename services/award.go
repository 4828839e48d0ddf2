package services

import (
	"fmt"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

const projectStatusAwarded = "awarded"

// AwardResult reports what an award changed.
type AwardResult struct {
	Quote    *Quote   `json:"quote"`
	Rejected []string `json:"rejected_quote_ids"`
}

// AwardQuote accepts a quote, rejects every other open quote on its project
// and marks the project awarded, all in one transaction. A rejected or
// already accepted quote, or a project that was already awarded, fails with
// ErrInvalidState and changes nothing.
func AwardQuote(app core.App, quoteID string) (*AwardResult, error) {
	result := &AwardResult{Rejected: []string{}}

	err := app.RunInTransaction(func(txApp core.App) error {
		quoteRec, err := txApp.FindRecordById("quotes", quoteID)
		if err != nil {
			return LookupErr(err, "quote", quoteID)
		}
		if status := QuoteStatus(quoteRec.GetString("status")); status.Terminal() {
			return fmt.Errorf("%w: quote %s is %s", ErrInvalidState, quoteID, status)
		}

		projectRec, err := txApp.FindRecordById("projects", quoteRec.GetString("project"))
		if err != nil {
			return LookupErr(err, "project", quoteRec.GetString("project"))
		}
		if projectRec.GetString("status") == projectStatusAwarded {
			return fmt.Errorf("%w: project %s is already awarded", ErrInvalidState, projectRec.Id)
		}

		rivals, err := txApp.FindRecordsByFilter(
			"quotes",
			"project = {:project} && id != {:quote} && status != {:accepted} && status != {:rejected}",
			"",
			0, 0,
			dbx.Params{
				"project":  projectRec.Id,
				"quote":    quoteRec.Id,
				"accepted": string(QuoteAccepted),
				"rejected": string(QuoteRejected),
			},
		)
		if err != nil {
			return fmt.Errorf("load rival quotes: %w", err)
		}
		for _, rival := range rivals {
			rival.Set("status", string(QuoteRejected))
			if err := txApp.Save(rival); err != nil {
				return fmt.Errorf("reject quote %s: %w", rival.Id, err)
			}
			result.Rejected = append(result.Rejected, rival.Id)
		}

		quoteRec.Set("status", string(QuoteAccepted))
		if err := txApp.Save(quoteRec); err != nil {
			return fmt.Errorf("accept quote: %w", err)
		}

		projectRec.Set("status", projectStatusAwarded)
		if err := txApp.Save(projectRec); err != nil {
			return fmt.Errorf("mark project awarded: %w", err)
		}

		result.Quote = quoteFromRecord(quoteRec)
		return nil
	})
	if err != nil {
		return nil, err
	}

	app.Logger().Info("quote awarded",
		"component", "award",
		"quote", result.Quote.ID,
		"project", result.Quote.ProjectID,
		"rejected", len(result.Rejected),
	)
	return result, nil
}
