package services

import (
	"context"
	"fmt"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

// TakeoffSource returns the measured features of one takeoff job.
type TakeoffSource interface {
	Features(ctx context.Context, jobID string) ([]TakeoffFeature, error)
}

// RecordTakeoffSource reads the takeoff_jobs/takeoff_features mirror.
type RecordTakeoffSource struct {
	app core.App
}

func NewRecordTakeoffSource(app core.App) *RecordTakeoffSource {
	return &RecordTakeoffSource{app: app}
}

// Features returns the job's features in sort order. A missing job or a job
// that has not completed processing is reported as ErrTakeoffUnavailable.
func (s *RecordTakeoffSource) Features(ctx context.Context, jobID string) ([]TakeoffFeature, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if jobID == "" {
		return nil, fmt.Errorf("%w: project has no takeoff job", ErrTakeoffUnavailable)
	}

	job, err := s.app.FindRecordById("takeoff_jobs", jobID)
	if err != nil {
		return nil, fmt.Errorf("%w: job %s: %v", ErrTakeoffUnavailable, jobID, err)
	}
	if status := job.GetString("status"); status != "complete" {
		return nil, fmt.Errorf("%w: job %s is %s", ErrTakeoffUnavailable, jobID, status)
	}

	records, err := s.app.FindRecordsByFilter(
		"takeoff_features",
		"job = {:job}",
		"sort_order,id",
		0, 0,
		dbx.Params{"job": jobID},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: features for job %s: %v", ErrTakeoffUnavailable, jobID, err)
	}

	features := make([]TakeoffFeature, 0, len(records))
	for _, rec := range records {
		features = append(features, featureFromRecord(rec))
	}
	return features, nil
}
