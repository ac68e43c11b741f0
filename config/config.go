package config

import (
	"errors"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/spf13/viper"

	"github.com/trusted-server/trusted-server/errortypes"
)

// Configuration holds all server settings.
type Configuration struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	AdminPort  int    `mapstructure:"admin_port"`
	EnableGzip bool   `mapstructure:"enable_gzip"`

	Publisher Publisher `mapstructure:"publisher"`
	AdServer  AdServer  `mapstructure:"ad_server"`
	Prebid    Prebid    `mapstructure:"prebid"`
	Synthetic Synthetic `mapstructure:"synthetic"`
	GDPR      GDPR      `mapstructure:"gdpr"`
	Analytics Analytics `mapstructure:"analytics"`
}

// Publisher identifies the site this server fronts.
type Publisher struct {
	Domain       string `mapstructure:"domain"`
	CookieDomain string `mapstructure:"cookie_domain"`
	OriginURL    string `mapstructure:"origin_url"`
}

// AdServer points at the third-party ad partner endpoints.
type AdServer struct {
	AdPartnerURL string `mapstructure:"ad_partner_url"`
	SyncURL      string `mapstructure:"sync_url"`
}

// Prebid points at the Prebid Server auction endpoint.
type Prebid struct {
	ServerURL string `mapstructure:"server_url"`
}

// Synthetic configures identity derivation. SecretKey must never be logged.
type Synthetic struct {
	SecretKey string `mapstructure:"secret_key"`
	Template  string `mapstructure:"template"`
}

// GDPR configures consent evaluation and the Global Vendor List cache.
type GDPR struct {
	VendorListURL     string `mapstructure:"vendor_list_url"`
	FetchTimeoutMsecs int    `mapstructure:"fetch_timeout_ms"`

	// PublisherVendorID is the IAB vendor id used when checking consent
	// for this host's own advertising and analytics behavior.
	PublisherVendorID uint16 `mapstructure:"publisher_vendor_id"`
}

// FetchTimeout turns the configured milliseconds into a duration.
func (g *GDPR) FetchTimeout() time.Duration {
	return time.Duration(g.FetchTimeoutMsecs) * time.Millisecond
}

// Analytics configures the visit counter store. An empty RedisAddr selects
// the in-memory store.
type Analytics struct {
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	CounterPrefix string `mapstructure:"counter_prefix"`
}

// New builds and validates a Configuration from viper.
func New(v *viper.Viper) (*Configuration, error) {
	var c Configuration
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	if err := c.validate(); err != nil {
		return nil, err
	}

	glog.Infof("Configuration loaded: publisher domain %s, listening on %s:%d", c.Publisher.Domain, c.Host, c.Port)
	return &c, nil
}

func (cfg *Configuration) validate() error {
	if cfg.Publisher.Domain == "" {
		return errors.New("publisher.domain is required")
	}
	if cfg.Publisher.CookieDomain == "" {
		return errors.New("publisher.cookie_domain is required")
	}
	if cfg.GDPR.VendorListURL == "" {
		return errors.New("gdpr.vendor_list_url is required")
	}
	if cfg.Synthetic.Template == "" {
		return errors.New("synthetic.template is required")
	}
	if cfg.Synthetic.SecretKey == "" || cfg.Synthetic.SecretKey == "secret-key" {
		return &errortypes.InsecureSecretKey{
			Message: "synthetic.secret_key must be set to a non-default value",
		}
	}
	return nil
}

// SetupViper sets defaults and environment bindings. Any setting can be
// overridden with a TRUSTED_SERVER_ prefixed environment variable, e.g.
// TRUSTED_SERVER_SYNTHETIC_SECRET_KEY.
func SetupViper(v *viper.Viper, filename string) {
	if filename != "" {
		v.SetConfigName(filename)
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/trusted-server")
	}

	v.SetDefault("host", "")
	v.SetDefault("port", 8000)
	v.SetDefault("admin_port", 6060)
	v.SetDefault("enable_gzip", false)
	v.SetDefault("gdpr.vendor_list_url", "https://vendorlist.consensu.org/v2/vendor-list.json")
	v.SetDefault("gdpr.fetch_timeout_ms", 15000)
	v.SetDefault("gdpr.publisher_vendor_id", 0)
	v.SetDefault("analytics.redis_addr", "")
	v.SetDefault("analytics.redis_password", "")
	v.SetDefault("analytics.counter_prefix", "trusted-server")

	v.SetEnvPrefix("TRUSTED_SERVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.ReadInConfig()
}
