package errortypes

// MalformedConsent should be used when a TCF consent string could not be decoded.
//
// These are never fatal to a request: callers degrade to the default fully-denied
// consent. They will not be written to the app log as errors, since a bad CMP
// string is not an actionable item for the host company.
type MalformedConsent struct {
	Consent string
	Cause   error
}

func (err *MalformedConsent) Error() string {
	return "malformed consent string " + err.Consent + ": " + err.Cause.Error()
}

func (err *MalformedConsent) Code() int {
	return MalformedConsentErrorCode
}

func (err *MalformedConsent) Severity() Severity {
	return SeverityWarning
}

// InvalidTemplate should be used when the synthetic id template references an
// unknown attribute or cannot be parsed.
//
// An inconsistent identity scheme is worse than an outage, so these abort
// startup rather than degrade per request.
type InvalidTemplate struct {
	Message string
}

func (err *InvalidTemplate) Error() string {
	return err.Message
}

func (err *InvalidTemplate) Code() int {
	return InvalidTemplateErrorCode
}

func (err *InvalidTemplate) Severity() Severity {
	return SeverityFatal
}

// InsecureSecretKey should be used when the synthetic id secret key is missing
// or still set to the shipped default.
type InsecureSecretKey struct {
	Message string
}

func (err *InsecureSecretKey) Error() string {
	return err.Message
}

func (err *InsecureSecretKey) Code() int {
	return InsecureSecretKeyErrorCode
}

func (err *InsecureSecretKey) Severity() Severity {
	return SeverityFatal
}

// VendorListUnavailable should be used when the Global Vendor List could not be
// fetched or parsed. The previous snapshot keeps serving, so this is logged and
// never surfaced as a request error.
type VendorListUnavailable struct {
	Message string
}

func (err *VendorListUnavailable) Error() string {
	return err.Message
}

func (err *VendorListUnavailable) Code() int {
	return VendorListUnavailableErrorCode
}

func (err *VendorListUnavailable) Severity() Severity {
	return SeverityWarning
}
