// Package reconciliation compares our settlements against the hub's
// wholesale settlement for a (gridArea, period) and reports a balanced
// or deviating result (spec.md §4.8), grounded on
// internal/alarms package: Service.HandleTelemetryReceived's evaluate-
// against-a-reference-then-record-a-status shape (application/service.go),
// generalized from a rule threshold crossing to a percentage-deviation
// threshold.
package reconciliation

import "errors"

var (
	ErrNoWholesaleSettlement = errors.New("reconciliation: no wholesale settlement found for grid area and period")
	ErrNotFound              = errors.New("reconciliation: not found")
)
