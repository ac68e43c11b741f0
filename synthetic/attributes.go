package synthetic

import (
	"net"
	"net/http"
	"strings"
)

// Header and cookie names used for identity propagation and attribute lookup.
const (
	// SyntheticIDHeader propagates an already-resolved identity between
	// internal hops so it stays stable across request chaining.
	SyntheticIDHeader = "X-Synthetic-Trusted-Server"

	// FreshIDHeader carries the always-recomputed id for anti-fraud and
	// rotation signals. Never conflate it with the stable identity.
	FreshIDHeader = "X-Synthetic-Fresh"

	// AuthUserIDHeader carries the publisher's authenticated user id.
	AuthUserIDHeader = "X-Pub-User-Id"

	// SyntheticIDCookie persists the stable identity on the client.
	SyntheticIDCookie = "synthetic_id"

	// FirstPartyIDCookie is the publisher's own first-party id cookie.
	FirstPartyIDCookie = "pub_userid"
)

// Defaults substituted when a request attribute is unavailable. These feed the
// keyed hash, so they are part of the pinned derivation and must not change.
const (
	defaultClientIP        = "unknown"
	defaultUserAgent       = "unknown"
	defaultFirstPartyID    = "anonymous"
	defaultAuthUserID      = "anonymous"
	defaultPublisherDomain = "unknown.com"
	defaultAcceptLanguage  = "unknown"
)

// Attributes is the fixed record of request attributes the identity template
// may reference. Every field is defaulted independently when unavailable.
type Attributes struct {
	ClientIP        string
	UserAgent       string
	FirstPartyID    string
	AuthUserID      string
	PublisherDomain string
	AcceptLanguage  string
}

// DefaultAttributes returns the record with every field at its default.
func DefaultAttributes() Attributes {
	return Attributes{
		ClientIP:        defaultClientIP,
		UserAgent:       defaultUserAgent,
		FirstPartyID:    defaultFirstPartyID,
		AuthUserID:      defaultAuthUserID,
		PublisherDomain: defaultPublisherDomain,
		AcceptLanguage:  defaultAcceptLanguage,
	}
}

// AttributesFromRequest extracts the attribute record from a request,
// substituting the defaults for anything missing.
func AttributesFromRequest(r *http.Request) Attributes {
	attrs := DefaultAttributes()

	if ip := clientIP(r); ip != "" {
		attrs.ClientIP = ip
	}
	if ua := r.UserAgent(); ua != "" {
		attrs.UserAgent = ua
	}
	if cookie, err := r.Cookie(FirstPartyIDCookie); err == nil && cookie.Value != "" {
		attrs.FirstPartyID = cookie.Value
	}
	if id := r.Header.Get(AuthUserIDHeader); id != "" {
		attrs.AuthUserID = id
	}
	if r.Host != "" {
		attrs.PublisherDomain = r.Host
	}
	if lang := r.Header.Get("Accept-Language"); lang != "" {
		// Only the first language tag before the first comma participates.
		attrs.AcceptLanguage = strings.SplitN(lang, ",", 2)[0]
	}

	return attrs
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.SplitN(forwarded, ",", 2)[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
