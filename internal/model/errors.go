package model

import "errors"

// Sentinel errors exposed by the assessment pipeline. Transport layers
// map ErrInvalidTier and ErrNoTelemetry to client errors; ErrInvalidSignal
// indicates an internal defect and aborts the assessment.
var (
	ErrInvalidTier   = errors.New("tier must be between 1 and 5")
	ErrNoTelemetry   = errors.New("submission carries no telemetry")
	ErrInvalidSignal = errors.New("invalid evidence signal")
)
