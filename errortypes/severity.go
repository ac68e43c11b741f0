package errortypes

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityUnknown represents an unknown severity level.
	SeverityUnknown Severity = iota

	// SeverityFatal represents a fatal error which prevents the operation from
	// completing, such as an unusable identity configuration.
	SeverityFatal

	// SeverityWarning represents a non-fatal error where invalid or ambiguous
	// input was ignored or degraded locally.
	SeverityWarning
)

// IsFatal returns true unless the error is labeled with a non-fatal Severity.
func IsFatal(err error) bool {
	s, ok := err.(Coder)
	return !ok || s.Severity() == SeverityFatal
}

// IsWarning returns true if an error is labeled with a Severity of SeverityWarning.
func IsWarning(err error) bool {
	s, ok := err.(Coder)
	return ok && s.Severity() == SeverityWarning
}
