// Package gdpr evaluates IAB TCF v2 consent for vendor/purpose combinations
// and maintains a cached view of the Global Vendor List.
//
// The package is CMP-agnostic: it works with any CMP that writes the standard
// euconsent-v2 cookie (Didomi, OneTrust, Cookiebot, etc.). Evaluation is
// default-deny — a missing cookie, a malformed consent string, or an absent
// map entry all behave as "no consent granted".
package gdpr

// ConsentCookieName is the standard IAB TCF cookie written by CMPs.
const ConsentCookieName = "euconsent-v2"

// tcfVersion is the only consent string version this package evaluates.
const tcfVersion = 2
