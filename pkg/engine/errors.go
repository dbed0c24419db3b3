package engine

import (
	"errors"
	"fmt"
)

// ErrReportUnreadable matches every *ReportError.
var ErrReportUnreadable = errors.New("scan report unreadable")

// ReportErrorKind distinguishes why a report could not be read.
type ReportErrorKind int

const (
	// ReportMissing means the report file does not exist.
	ReportMissing ReportErrorKind = iota + 1
	// ReportIO means the report exists but could not be read.
	ReportIO
	// ReportMalformed means the document is not a valid scan report.
	ReportMalformed
)

func (k ReportErrorKind) String() string {
	switch k {
	case ReportMissing:
		return "missing"
	case ReportIO:
		return "io"
	case ReportMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// ReportError records why parsing produced no data. A snapshot returned
// alongside a ReportError is empty and must not be read as "no open ports".
type ReportError struct {
	Kind ReportErrorKind
	Path string
	Err  error
}

func (e *ReportError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("scan report %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("scan report %s (%s): %v", e.Kind, e.Path, e.Err)
}

func (e *ReportError) Unwrap() error { return e.Err }

func (e *ReportError) Is(target error) bool {
	return target == ErrReportUnreadable
}

// IsReportKind reports whether err is a *ReportError of the given kind.
func IsReportKind(err error, kind ReportErrorKind) bool {
	var re *ReportError
	return errors.As(err, &re) && re.Kind == kind
}
