// Package synthetic derives the privacy-preserving identifier used as the
// personalization key wherever consent allows it.
//
// The identifier is an HMAC-SHA256 digest over a configurable template of
// request attributes: no personal data is persisted server-side, and the same
// request attributes always derive the same id under the same key. Resolution
// prefers an identity established earlier in the request chain (header, then
// cookie) before minting a fresh one.
package synthetic

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"

	"github.com/golang/glog"

	"github.com/trusted-server/trusted-server/errortypes"
)

// NonPersonalized is the neutral placeholder used in place of an identifier
// when consent denies personalization.
const NonPersonalized = "non-personalized"

// insecureDefaultKey is the secret key value shipped in example config.
// Running with it would make every deployment derive the same ids.
const insecureDefaultKey = "secret-key"

// Source records where a resolved identity came from. It exists for
// observability and testing; it is never persisted.
type Source int

const (
	// FromHeader means the identity was propagated by an upstream hop.
	FromHeader Source = iota

	// FromCookie means the identity was read from the persistence cookie.
	FromCookie

	// Generated means no prior identity existed and a fresh one was derived.
	Generated
)

func (s Source) String() string {
	switch s {
	case FromHeader:
		return "header"
	case FromCookie:
		return "cookie"
	default:
		return "generated"
	}
}

// Identity is a resolved synthetic identifier with its provenance.
type Identity struct {
	ID     string
	Source Source
}

// Generator derives synthetic identifiers from request attributes.
//
// Generate and Resolve are pure request-local computation: no I/O, no
// randomness, no shared mutable state, safe under arbitrary parallelism.
type Generator struct {
	secretKey []byte
	tmpl      *idTemplate
}

// NewGenerator validates the secret key and pre-parses the identity template.
//
// Both failure modes are configuration-fatal by design: an inconsistent
// identity scheme would mint colliding or unstable identifiers, so the system
// must refuse to serve instead. The secret key is never logged.
func NewGenerator(secretKey, template string) (*Generator, error) {
	if secretKey == "" {
		return nil, &errortypes.InsecureSecretKey{Message: "synthetic secret key is not configured"}
	}
	if secretKey == insecureDefaultKey {
		return nil, &errortypes.InsecureSecretKey{Message: "synthetic secret key is still set to the shipped default"}
	}

	tmpl, err := parseTemplate(template)
	if err != nil {
		return nil, err
	}

	return &Generator{
		secretKey: []byte(secretKey),
		tmpl:      tmpl,
	}, nil
}

// Generate derives the fresh identifier for the given attributes: the
// rendered template keyed-hashed with HMAC-SHA256 and hex encoded.
//
// Identical attributes always produce the identical id. The fresh id changes
// whenever any templated attribute changes, which is exactly what makes it
// useful as a rotation signal alongside the sticky resolved identity.
func (g *Generator) Generate(attrs Attributes) string {
	mac := hmac.New(sha256.New, g.secretKey)
	mac.Write([]byte(g.tmpl.render(attrs)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Resolve returns the stable identity for a request.
//
// Precedence, first hit wins:
//  1. the propagation header, set by an upstream hop that already resolved one
//  2. the persistence cookie
//  3. a freshly generated id
func (g *Generator) Resolve(r *http.Request) Identity {
	if id := r.Header.Get(SyntheticIDHeader); id != "" {
		glog.V(2).Info("Using existing synthetic id from header")
		return Identity{ID: id, Source: FromHeader}
	}

	if cookie, err := r.Cookie(SyntheticIDCookie); err == nil && cookie.Value != "" {
		glog.V(2).Info("Using existing synthetic id from cookie")
		return Identity{ID: cookie.Value, Source: FromCookie}
	}

	return Identity{
		ID:     g.Generate(AttributesFromRequest(r)),
		Source: Generated,
	}
}
