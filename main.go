// HMI Configuration Tool annotates machine HMI screenshots with parameter
// and feature regions, matches live screenshots against the stored
// templates, and defines the machine status conditions evaluated over
// extracted parameter values.
package main

import (
	"flag"
	"log"

	fyneapp "fyne.io/fyne/v2/app"

	"hmi-config/internal/app"
	"hmi-config/internal/config"
	"hmi-config/internal/store"
	"hmi-config/internal/version"
	"hmi-config/ui/mainwindow"
	"hmi-config/ui/prefs"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	storePath := flag.String("store", "", "Template store document (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading configuration: %v", err)
	}
	if *storePath != "" {
		cfg.StorePath = *storePath
	}

	p := prefs.Load()
	if cfg.StorePath == "" {
		cfg.StorePath = p.String(prefs.KeyLastStore)
	}
	if cfg.StorePath == "" {
		cfg.StorePath = "templates.json"
	}
	p.SetString(prefs.KeyLastStore, cfg.StorePath)
	_ = p.Save()

	log.Printf("hmi-config %s (built %s)", version.Version, version.BuildTime)

	st := store.Shared(cfg.StorePath)
	state := app.NewState(cfg, st)

	fa := fyneapp.NewWithID("io.hmi.configtool")
	win := mainwindow.New(fa, state, p)
	win.ShowAndRun()
}
