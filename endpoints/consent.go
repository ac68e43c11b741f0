// Package endpoints implements the HTTP handlers for consent management,
// data-subject requests and identity resolution.
package endpoints

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/golang/glog"
	"github.com/julienschmidt/httprouter"

	"github.com/trusted-server/trusted-server/config"
)

// PreferencesCookieName holds the publisher's simplified consent preferences,
// separate from the CMP-owned euconsent-v2 cookie.
const PreferencesCookieName = "gdpr_consent"

// preferencesMaxAge keeps the consent choice for one year.
const preferencesMaxAge = 31536000

// ConsentPreferences tracks the user's consent choices per category.
type ConsentPreferences struct {
	Analytics   bool   `json:"analytics"`
	Advertising bool   `json:"advertising"`
	Functional  bool   `json:"functional"`
	Timestamp   int64  `json:"timestamp"`
	Version     string `json:"version"`
}

// DefaultPreferences returns the all-denied default.
func DefaultPreferences() ConsentPreferences {
	return ConsentPreferences{
		Timestamp: time.Now().Unix(),
		Version:   "1.0",
	}
}

// PreferencesFromRequest reads the preferences cookie, falling back to the
// all-denied default when absent or unparsable.
func PreferencesFromRequest(r *http.Request) ConsentPreferences {
	cookie, err := r.Cookie(PreferencesCookieName)
	if err != nil || cookie.Value == "" {
		return DefaultPreferences()
	}

	// The JSON payload is URL-encoded to survive cookie value restrictions.
	value, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		glog.Warningf("Failed to decode consent preferences cookie: %v", err)
		return DefaultPreferences()
	}

	var prefs ConsentPreferences
	if err := json.Unmarshal([]byte(value), &prefs); err != nil {
		glog.Warningf("Failed to parse consent preferences cookie: %v", err)
		return DefaultPreferences()
	}
	return prefs
}

// ConsentEndpoint serves the consent preferences resource.
type ConsentEndpoint struct {
	cfg *config.Configuration
}

func NewConsentEndpoint(cfg *config.Configuration) *ConsentEndpoint {
	return &ConsentEndpoint{cfg: cfg}
}

// Get returns the current consent status.
func (e *ConsentEndpoint) Get(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, PreferencesFromRequest(r))
}

// Post updates consent preferences and sets the preferences cookie.
func (e *ConsentEndpoint) Post(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var prefs ConsentPreferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		http.Error(w, "Invalid consent payload", http.StatusBadRequest)
		return
	}

	value, err := json.Marshal(prefs)
	if err != nil {
		http.Error(w, "Failed to encode consent", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     PreferencesCookieName,
		Value:    url.QueryEscape(string(value)),
		Domain:   e.cfg.Publisher.CookieDomain,
		Path:     "/",
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   preferencesMaxAge,
	})

	writeJSON(w, http.StatusOK, prefs)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		glog.Errorf("Failed to write JSON response: %v", err)
	}
}
