package endpoints

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trusted-server/trusted-server/analytics"
	"github.com/trusted-server/trusted-server/gdpr"
	"github.com/trusted-server/trusted-server/synthetic"
)

// Fixture consent strings. basicOnlyTCString grants purposes {1, 2, 3} to
// vendors {2, 6, 8}; fullConsentTCString additionally grants purposes
// {4, 7, 8, 9}, i.e. full personalized advertising plus analytics.
const (
	basicOnlyTCString   = "COvFyGBOvFyGBAbAAAENAPCAAOAAAAAAAAAAAEEUACCKAAA"
	fullConsentTCString = "COvFyGBOvFyGBAbAAAENAPCAAPOAAAAAAAAAAEEUACCKAAA"
)

func testIdentityEndpoint(t *testing.T) (*IdentityEndpoint, *analytics.MemoryVisitStore) {
	cfg := testConfig()
	gen, err := synthetic.NewGenerator(cfg.Synthetic.SecretKey, cfg.Synthetic.Template)
	assert.NoError(t, err)

	cache := gdpr.NewVendorListCache(&http.Client{}, "http://invalid.invalid/vendor-list.json", time.Millisecond)
	visits := analytics.NewMemoryVisitStore()
	return NewIdentityEndpoint(cfg, gen, cache, visits), visits
}

func identityGet(t *testing.T, endpoint *IdentityEndpoint, decorate func(*http.Request)) (*httptest.ResponseRecorder, identityResponse) {
	req := httptest.NewRequest("GET", "https://test-publisher.com/synthetic/id", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	if decorate != nil {
		decorate(req)
	}

	recorder := httptest.NewRecorder()
	endpoint.Get(recorder, req, nil)

	var response identityResponse
	assert.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	return recorder, response
}

func TestIdentityDeniedWithoutConsent(t *testing.T) {
	endpoint, visits := testIdentityEndpoint(t)

	recorder, response := identityGet(t, endpoint, nil)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, synthetic.NonPersonalized, response.SyntheticID)
	assert.Equal(t, synthetic.NonPersonalized, response.FreshID)
	assert.Equal(t, "none", response.AdvertisingLevel)
	assert.False(t, response.GDPRApplies)

	assert.Empty(t, recorder.Header().Get(synthetic.SyntheticIDHeader), "no identity header without consent")
	assert.Empty(t, recorder.Header().Get(synthetic.FreshIDHeader))
	assert.Equal(t, "none", recorder.Header().Get(AdvertisingConsentHeader))

	count, _ := visits.Visits(synthetic.NonPersonalized)
	assert.Equal(t, int64(0), count, "denied consent must not be counted")
}

func TestIdentityBasicConsent(t *testing.T) {
	endpoint, visits := testIdentityEndpoint(t)

	recorder, response := identityGet(t, endpoint, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: gdpr.ConsentCookieName, Value: basicOnlyTCString})
	})

	assert.Equal(t, "basic", response.AdvertisingLevel)
	assert.True(t, response.GDPRApplies)
	assert.NotEqual(t, synthetic.NonPersonalized, response.SyntheticID)
	assert.Equal(t, response.SyntheticID, recorder.Header().Get(synthetic.SyntheticIDHeader))
	assert.Equal(t, response.FreshID, recorder.Header().Get(synthetic.FreshIDHeader))
	assert.Equal(t, "generated", response.Source)

	// Purposes 7-9 are not consented, so no visit is recorded.
	count, _ := visits.Visits(response.SyntheticID)
	assert.Equal(t, int64(0), count)
}

func TestIdentityFullConsentCountsVisit(t *testing.T) {
	endpoint, visits := testIdentityEndpoint(t)

	_, response := identityGet(t, endpoint, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: gdpr.ConsentCookieName, Value: fullConsentTCString})
	})

	assert.Equal(t, "personalized", response.AdvertisingLevel)

	count, err := visits.Visits(response.SyntheticID)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestIdentityStableAcrossRequests(t *testing.T) {
	endpoint, _ := testIdentityEndpoint(t)

	recorder, first := identityGet(t, endpoint, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: gdpr.ConsentCookieName, Value: fullConsentTCString})
	})

	var idCookie *http.Cookie
	for _, cookie := range recorder.Result().Cookies() {
		if cookie.Name == synthetic.SyntheticIDCookie {
			idCookie = cookie
		}
	}
	if !assert.NotNil(t, idCookie, "first response must persist the identity") {
		return
	}

	_, second := identityGet(t, endpoint, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: gdpr.ConsentCookieName, Value: fullConsentTCString})
		req.AddCookie(&http.Cookie{Name: synthetic.SyntheticIDCookie, Value: idCookie.Value})
	})

	assert.Equal(t, first.SyntheticID, second.SyntheticID)
	assert.Equal(t, "cookie", second.Source)
}

func TestIdentityPropagationHeaderWins(t *testing.T) {
	endpoint, _ := testIdentityEndpoint(t)

	_, response := identityGet(t, endpoint, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: gdpr.ConsentCookieName, Value: fullConsentTCString})
		req.Header.Set(synthetic.SyntheticIDHeader, "upstream-id")
		req.AddCookie(&http.Cookie{Name: synthetic.SyntheticIDCookie, Value: "cookie-id"})
	})

	assert.Equal(t, "upstream-id", response.SyntheticID)
	assert.Equal(t, "header", response.Source)
	assert.NotEqual(t, "upstream-id", response.FreshID, "fresh id is always recomputed")
}
