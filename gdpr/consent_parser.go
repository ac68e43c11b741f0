package gdpr

import (
	"fmt"
	"net/http"

	"github.com/golang/glog"
	"github.com/prebid/go-gdpr/api"
	"github.com/prebid/go-gdpr/vendorconsent"

	"github.com/trusted-server/trusted-server/errortypes"
)

// ParseConsent decodes a TCF consent string into a Consent.
//
// The returned error is always an *errortypes.MalformedConsent, and the
// returned Consent is always usable: on failure it is the fully-denied
// default, so callers that ignore the error still fail closed.
func ParseConsent(tcString string) (Consent, error) {
	parsed, err := decodeConsentString(tcString)
	if err != nil {
		return DefaultConsent(), &errortypes.MalformedConsent{
			Consent: tcString,
			Cause:   err,
		}
	}

	if parsed.Version() != tcfVersion {
		return DefaultConsent(), &errortypes.MalformedConsent{
			Consent: tcString,
			Cause:   fmt.Errorf("unsupported consent string version %d", parsed.Version()),
		}
	}

	return FromConsentMetadata(parsed, tcString), nil
}

// decodeConsentString calls the go-gdpr decoder, converting panics into
// errors. The decoder indexes into the decoded header without a length check,
// so a string whose first dot-segment decodes to zero bytes (such as "" or
// ".") panics instead of failing; attacker-supplied cookie values must never
// take down the serving goroutine.
func decodeConsentString(tcString string) (parsed api.VendorConsents, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("consent string decoder panicked: %v", r)
		}
	}()
	return vendorconsent.ParseString(tcString)
}

// ConsentFromRequest extracts TCF consent from the euconsent-v2 cookie.
//
// This never fails: a missing cookie or a string the decoder rejects degrades
// to the fully-denied default. Decode failures are logged, not surfaced.
func ConsentFromRequest(r *http.Request) Consent {
	cookie, err := r.Cookie(ConsentCookieName)
	if err != nil || cookie.Value == "" {
		return DefaultConsent()
	}

	consent, err := ParseConsent(cookie.Value)
	if err != nil {
		glog.Warningf("Failed to parse TCF consent string (code %d), denying all: %v", errortypes.ReadCode(err), err)
		return DefaultConsent()
	}

	glog.V(2).Infof("Parsed TCF consent: %d purposes, %d vendors, GDPR applies: %t",
		len(consent.PurposeConsents), len(consent.VendorConsents), consent.GDPRApplies)
	return consent
}
