package services

import (
	"database/sql"
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidState       = errors.New("invalid state")
	ErrTakeoffUnavailable = errors.New("takeoff source unavailable")
	ErrUnparseableQuote   = errors.New("could not parse quote")
	ErrNoBOMItems         = errors.New("project has no BOM line items")
	ErrDeliveryFailed     = errors.New("delivery failed")
)

// LookupErr maps a failed record lookup to ErrNotFound when the record is
// missing. Any other failure is wrapped as is.
func LookupErr(err error, kind, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
	}
	return fmt.Errorf("load %s %s: %w", kind, id, err)
}
