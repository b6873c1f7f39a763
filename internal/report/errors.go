package report

import "errors"

// Domain errors for the report package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, report.ErrFormatting) {
//	    // degraded report was emitted, previous count/icon preserved
//	}
var (
	// ErrFormatting is returned when rendering or paginating a document
	// fails. The assembler recovers locally: it substitutes an error
	// marker attribute and keeps the previous cycle's count and icon.
	ErrFormatting = errors.New("report: formatting failed")

	// ErrNilSnapshot is returned when an evaluation is attempted without
	// a snapshot.
	ErrNilSnapshot = errors.New("report: nil snapshot")
)
