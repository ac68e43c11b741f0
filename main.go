package main

import (
	"context"
	"flag"
	"net/http"
	_ "net/http/pprof"

	"github.com/golang/glog"
	"github.com/spf13/viper"

	"github.com/trusted-server/trusted-server/config"
	"github.com/trusted-server/trusted-server/router"
	"github.com/trusted-server/trusted-server/server"
)

func main() {
	flag.Parse() // required for glog flags and testing package flags

	cfg, err := loadConfig()
	if err != nil {
		glog.Exitf("Configuration could not be loaded or did not pass validation: %v", err)
	}

	if err := serve(cfg); err != nil {
		glog.Exitf("trusted-server failed: %v", err)
	}
}

const configFileName = "trusted-server"

func loadConfig() (*config.Configuration, error) {
	v := viper.New()
	config.SetupViper(v, configFileName)
	return config.New(v)
}

func serve(cfg *config.Configuration) error {
	r, err := router.New(cfg)
	if err != nil {
		return err
	}

	// Warm the vendor list cache before traffic arrives. A failed first fetch
	// is not fatal; consent evaluation denies everything until a list lands
	// and the cache retries in the background.
	ctx, cancel := context.WithTimeout(context.Background(), cfg.GDPR.FetchTimeout())
	if err := r.VendorLists.Refresh(ctx); err != nil {
		glog.Warningf("Initial vendor list fetch failed, continuing with deny-all consent: %v", err)
	}
	cancel()

	corsRouter := router.SupportCORS(r)
	server.Listen(cfg, corsRouter, http.DefaultServeMux)
	return nil
}
