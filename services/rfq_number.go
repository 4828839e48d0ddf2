package services

import (
	"fmt"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

// RFQPeriod returns the two-digit year and month used in RFQ numbers.
// March 2026 → "2603".
func RFQPeriod(t time.Time) string {
	return t.Format("0601")
}

// formatRFQNumber constructs the RFQ number string from components.
func formatRFQNumber(projectRef, period string, sequence int) string {
	return fmt.Sprintf("RFQ-%s-%s-%03d", projectRef, period, sequence)
}

// GenerateRFQNumber creates the next RFQ number for a project.
// Format: RFQ-{project_ref}-{YYMM}-{sequence}
//   - project_ref: the project's reference_number, or its id when empty
//   - sequence: 3-digit zero-padded, per project per month
func GenerateRFQNumber(app core.App, projectID string, now time.Time) (string, error) {
	project, err := app.FindRecordById("projects", projectID)
	if err != nil {
		return "", LookupErr(err, "project", projectID)
	}

	projectRef := project.GetString("reference_number")
	if projectRef == "" {
		projectRef = projectID
	}
	period := RFQPeriod(now)
	prefix := fmt.Sprintf("RFQ-%s-%s-", projectRef, period)

	existing, err := app.FindRecordsByFilter(
		"rfqs",
		"project = {:project} && rfq_number ~ {:prefix}",
		"",
		0, 0,
		dbx.Params{"project": projectID, "prefix": prefix + "%"},
	)
	if err != nil {
		return "", fmt.Errorf("count rfqs: %w", err)
	}

	return formatRFQNumber(projectRef, period, len(existing)+1), nil
}
