package router

import (
	"net/http"

	"github.com/golang/glog"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"

	"github.com/trusted-server/trusted-server/analytics"
	"github.com/trusted-server/trusted-server/config"
	"github.com/trusted-server/trusted-server/endpoints"
	"github.com/trusted-server/trusted-server/gdpr"
	"github.com/trusted-server/trusted-server/synthetic"
)

// Router wires the consent, identity and data-subject endpoints together
// with their shared dependencies.
type Router struct {
	*httprouter.Router
	VendorLists *gdpr.VendorListCache
	Visits      analytics.VisitStore
}

// New builds the full request router. The vendor list cache starts empty;
// callers should trigger an initial refresh before serving traffic.
func New(cfg *config.Configuration) (*Router, error) {
	generator, err := synthetic.NewGenerator(cfg.Synthetic.SecretKey, cfg.Synthetic.Template)
	if err != nil {
		return nil, err
	}

	vendorLists := gdpr.NewVendorListCache(
		&http.Client{Timeout: cfg.GDPR.FetchTimeout()},
		cfg.GDPR.VendorListURL,
		cfg.GDPR.FetchTimeout(),
	)

	var visits analytics.VisitStore
	if cfg.Analytics.RedisAddr != "" {
		glog.Infof("Analytics counters stored in redis at %s", cfg.Analytics.RedisAddr)
		visits = analytics.NewRedisVisitStore(cfg.Analytics.RedisAddr, cfg.Analytics.RedisPassword, cfg.Analytics.CounterPrefix)
	} else {
		visits = analytics.NewMemoryVisitStore()
	}

	r := &Router{
		Router:      httprouter.New(),
		VendorLists: vendorLists,
		Visits:      visits,
	}

	consentEndpoint := endpoints.NewConsentEndpoint(cfg)
	identityEndpoint := endpoints.NewIdentityEndpoint(cfg, generator, vendorLists, visits)
	dataSubjectEndpoint := endpoints.NewDataSubjectEndpoint(visits)

	r.GET("/gdpr/consent", consentEndpoint.Get)
	r.POST("/gdpr/consent", consentEndpoint.Post)
	r.GET("/gdpr/data", dataSubjectEndpoint.Get)
	r.DELETE("/gdpr/data", dataSubjectEndpoint.Delete)
	r.GET("/synthetic/id", identityEndpoint.Get)
	r.GET("/status", status)

	return r, nil
}

func status(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.WriteHeader(http.StatusNoContent)
}

// SupportCORS allows browser pages on publisher sites to call the consent and
// identity endpoints with credentials, since both rely on first-party cookies.
func SupportCORS(handler http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowCredentials: true,
		AllowOriginFunc: func(string) bool {
			return true
		},
		AllowedMethods: []string{"GET", "POST", "DELETE"},
		AllowedHeaders: []string{"Origin", "X-Requested-With", "Content-Type", "Accept"},
	})
	return c.Handler(handler)
}
