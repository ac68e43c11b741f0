package gdpr

import (
	"time"

	"github.com/golang/glog"
	"github.com/prebid/go-gdpr/api"
	"github.com/prebid/go-gdpr/consentconstants"
)

// maxPurposeID is the highest purpose id extracted from a consent string.
// The IAB currently assigns purposes 1-24.
const maxPurposeID = 24

// Consent is the semantic view of a user's TCF v2 consent for one request.
//
// It is constructed fresh from the decoded consent string (or as the
// fully-denied default) on every request and discarded afterwards; it is
// never cached or shared across requests.
type Consent struct {
	// TCString is the original consent string, carried through unmodified
	// for downstream forwarding. It is never parsed by this type.
	TCString string

	// GDPRApplies reports whether GDPR regulations apply to this user.
	// It is inferred from consent string presence: the TCF string itself
	// carries no gdprApplies bit (that signal lives in the CMP API), so a
	// non-empty string is treated as "GDPR applies".
	GDPRApplies bool

	// PurposeConsents maps purpose id to user consent. Ids absent from the
	// map have no consent.
	PurposeConsents map[uint8]bool

	// VendorConsents maps vendor id to user consent. Ids absent from the
	// map have no consent.
	VendorConsents map[uint16]bool

	// Timestamp is when this object was built, not when consent was given.
	Timestamp time.Time

	// Version is the TCF protocol version, "2" for TCF v2.
	Version string
}

// DefaultConsent returns the canonical fully-denied consent, used whenever no
// consent cookie is present or the string cannot be decoded. All call sites
// must obtain the denied state from here rather than building their own.
func DefaultConsent() Consent {
	return Consent{
		PurposeConsents: make(map[uint8]bool),
		VendorConsents:  make(map[uint16]bool),
		Timestamp:       time.Now(),
		Version:         "2",
	}
}

// FromConsentMetadata builds a Consent from a decoded consent string.
//
// Every purpose and vendor the decoder reports consent for maps to true; all
// other ids are simply absent. This never fails for a successfully decoded
// string — decode failures happen upstream and fall back to DefaultConsent.
func FromConsentMetadata(raw api.VendorConsents, tcString string) Consent {
	purposes := make(map[uint8]bool)
	for id := uint8(1); id <= maxPurposeID; id++ {
		if raw.PurposeAllowed(consentconstants.Purpose(id)) {
			purposes[id] = true
		}
	}

	vendors := make(map[uint16]bool)
	for id := uint16(1); id <= raw.MaxVendorID(); id++ {
		if raw.VendorConsent(id) {
			vendors[id] = true
		}
	}

	return Consent{
		TCString:        tcString,
		GDPRApplies:     tcString != "",
		PurposeConsents: purposes,
		VendorConsents:  vendors,
		Timestamp:       time.Now(),
		Version:         "2",
	}
}

// HasConsent reports whether the vendor has consent for ALL given purposes.
//
// When a vendor list snapshot is supplied, the vendor must exist in it and
// declare every requested purpose — consent bits for unknown vendors or
// undeclared purposes are untrusted and denied. With a nil list only the
// string bits govern the decision (degraded mode, used until the first
// Global Vendor List fetch succeeds).
func (c Consent) HasConsent(vendorID uint16, purposes PurposeGroup, list *VendorList) bool {
	if list != nil {
		if !list.IsValidVendor(vendorID) {
			glog.Warningf("Vendor %d not found in Global Vendor List", vendorID)
			return false
		}
		for _, purposeID := range purposes {
			if !list.VendorDeclaresPurpose(vendorID, purposeID) {
				glog.Warningf("Vendor %d does not declare purpose %d in Global Vendor List", vendorID, purposeID)
				return false
			}
		}
	}

	if !c.VendorConsents[vendorID] {
		return false
	}

	for _, purposeID := range purposes {
		if !c.PurposeConsents[purposeID] {
			return false
		}
	}

	return true
}

// HasDeviceAccessConsent checks consent for purpose 1 (device storage/access).
func (c Consent) HasDeviceAccessConsent(vendorID uint16, list *VendorList) bool {
	return c.HasConsent(vendorID, PurposesDeviceAccess, list)
}

// HasBasicAdvertisingConsent checks consent for basic, non-personalized ads.
func (c Consent) HasBasicAdvertisingConsent(vendorID uint16, list *VendorList) bool {
	return c.HasConsent(vendorID, PurposesBasicAds, list)
}

// HasPersonalizedAdvertisingConsent checks consent for personalized ads.
func (c Consent) HasPersonalizedAdvertisingConsent(vendorID uint16, list *VendorList) bool {
	return c.HasConsent(vendorID, PurposesAdvertising, list)
}

// HasAnalyticsConsent checks consent for measurement purposes.
func (c Consent) HasAnalyticsConsent(vendorID uint16, list *VendorList) bool {
	return c.HasConsent(vendorID, PurposesAnalytics, list)
}

// AdvertisingConsentLevel is the graduated level of advertising a vendor may
// perform, from most to least permissive.
type AdvertisingConsentLevel int

const (
	// AdvertisingPersonalized allows fully personalized advertising.
	AdvertisingPersonalized AdvertisingConsentLevel = iota

	// AdvertisingBasicOnly allows only non-personalized advertising.
	AdvertisingBasicOnly

	// AdvertisingNone allows no advertising.
	AdvertisingNone
)

func (l AdvertisingConsentLevel) String() string {
	switch l {
	case AdvertisingPersonalized:
		return "personalized"
	case AdvertisingBasicOnly:
		return "basic"
	default:
		return "none"
	}
}

// AdvertisingLevel derives the advertising consent level for a vendor.
//
// Personalized is checked before basic: the two are independent bitwise
// evaluations rather than a hierarchy, and checking basic first would report
// BasicOnly even when full personalized consent also holds.
func (c Consent) AdvertisingLevel(vendorID uint16, list *VendorList) AdvertisingConsentLevel {
	if c.HasPersonalizedAdvertisingConsent(vendorID, list) {
		return AdvertisingPersonalized
	}
	if c.HasBasicAdvertisingConsent(vendorID, list) {
		return AdvertisingBasicOnly
	}
	return AdvertisingNone
}
