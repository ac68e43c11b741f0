package endpoints

import (
	"net/http"

	"github.com/golang/glog"
	"github.com/julienschmidt/httprouter"

	"github.com/trusted-server/trusted-server/analytics"
	"github.com/trusted-server/trusted-server/config"
	"github.com/trusted-server/trusted-server/gdpr"
	"github.com/trusted-server/trusted-server/synthetic"
)

// AdvertisingConsentHeader tells downstream hops which consent level applied.
const AdvertisingConsentHeader = "X-Consent-Advertising"

// identityResponse is the JSON body of the identity endpoint.
type identityResponse struct {
	SyntheticID      string `json:"synthetic_id"`
	Source           string `json:"source"`
	FreshID          string `json:"fresh_id"`
	AdvertisingLevel string `json:"advertising_level"`
	GDPRApplies      bool   `json:"gdpr_applies"`
}

// IdentityEndpoint resolves the synthetic identity for a request, gated on
// advertising consent for the configured publisher vendor.
type IdentityEndpoint struct {
	cfg    *config.Configuration
	gen    *synthetic.Generator
	lists  *gdpr.VendorListCache
	visits analytics.VisitStore
}

func NewIdentityEndpoint(cfg *config.Configuration, gen *synthetic.Generator, lists *gdpr.VendorListCache, visits analytics.VisitStore) *IdentityEndpoint {
	return &IdentityEndpoint{
		cfg:    cfg,
		gen:    gen,
		lists:  lists,
		visits: visits,
	}
}

// Get answers the resolved identity and fresh id for the request.
//
// Without advertising consent both ids are the neutral non-personalized
// placeholder: denied consent must leave no per-user signal anywhere in the
// response. The stable id is also echoed as a cookie so later requests
// resolve to the same identity.
func (e *IdentityEndpoint) Get(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	consent := gdpr.ConsentFromRequest(r)
	list := e.lists.Current()
	vendorID := e.cfg.GDPR.PublisherVendorID

	level := consent.AdvertisingLevel(vendorID, list)

	response := identityResponse{
		SyntheticID:      synthetic.NonPersonalized,
		FreshID:          synthetic.NonPersonalized,
		Source:           synthetic.Generated.String(),
		AdvertisingLevel: level.String(),
		GDPRApplies:      consent.GDPRApplies,
	}

	if level != gdpr.AdvertisingNone {
		identity := e.gen.Resolve(r)
		response.SyntheticID = identity.ID
		response.Source = identity.Source.String()
		response.FreshID = e.gen.Generate(synthetic.AttributesFromRequest(r))

		w.Header().Set(synthetic.SyntheticIDHeader, identity.ID)
		w.Header().Set(synthetic.FreshIDHeader, response.FreshID)

		if identity.Source != synthetic.FromCookie {
			http.SetCookie(w, &http.Cookie{
				Name:     synthetic.SyntheticIDCookie,
				Value:    identity.ID,
				Domain:   e.cfg.Publisher.CookieDomain,
				Path:     "/",
				Secure:   true,
				SameSite: http.SameSiteLaxMode,
			})
		}
	}
	w.Header().Set(AdvertisingConsentHeader, level.String())

	// Visits are only counted when analytics consent holds; the counter is
	// keyed by synthetic id so denied consent also means no counting key.
	if level != gdpr.AdvertisingNone && consent.HasAnalyticsConsent(vendorID, list) {
		if _, err := e.visits.Increment(response.SyntheticID); err != nil {
			glog.Warningf("Failed to increment visit counter: %v", err)
		}
	}

	writeJSON(w, http.StatusOK, response)
}
