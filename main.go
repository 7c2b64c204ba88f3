package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/time/rate"
	"gopkg.in/natefinch/lumberjack.v2"

	"cineview/api"
	"cineview/config"
	"cineview/handlers"
	"cineview/services/catalog"
	"cineview/services/metadata"
	"cineview/services/playlist"
	"cineview/utils"
)

func main() {
	cfgPath := os.Getenv("CINEVIEW_CONFIG")
	if cfgPath == "" {
		cfgPath = "config.json"
	}
	settings, err := config.NewManager(cfgPath).Load()
	if err != nil {
		log.Fatalf("[main] failed to load settings: %v", err)
	}
	setupLogging(settings.Server.LogFile)

	if settings.TMDB.APIKey == "" {
		log.Printf("[main] WARNING: no TMDB API key configured; entries will keep placeholder metadata")
	}

	store := catalog.NewStore()
	enricher := metadata.NewEnricher(metadata.Options{
		APIKey:        settings.TMDB.APIKey,
		Language:      settings.TMDB.Language,
		CacheDir:      settings.Enrichment.CacheDir,
		CacheTTL:      time.Duration(settings.Enrichment.CacheTTLHours) * time.Hour,
		MaxConcurrent: settings.Enrichment.MaxConcurrent,
	}, store)

	// Taxonomy first: the parser canonicalizes playlist genres against it.
	taxonomy := enricher.LoadTaxonomy(context.Background())

	parser := playlist.NewParser(taxonomy)
	for _, entry := range parser.Load(afero.NewOsFs(), settings.Playlist.Path) {
		if err := store.Insert(entry); err != nil {
			log.Printf("[main] skipping playlist entry: %v", err)
		}
	}
	log.Printf("[main] catalog ready with %d entries", store.Len())

	service := catalog.NewService(store, enricher, settings.Catalog.DefaultLimit)

	r := utils.NewRouter()
	limiter := api.NewIPRateLimiter(rate.Limit(5), 20)
	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.Use(limiter.Middleware)
	handlers.NewCatalogHandler(service).Register(apiRouter)

	proxy := handlers.NewStreamProxyHandler(nil)
	r.HandleFunc("/stream/proxy", proxy.Proxy).Methods(http.MethodGet)

	// Front-end assets, same-origin like the API.
	r.PathPrefix("/").Handler(handlers.NewStaticHandler(settings.Server.PublicDir))

	addr := fmt.Sprintf(":%d", settings.Server.Port)
	log.Printf("[main] listening on %s", addr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("[main] server stopped: %v", err)
	}
}

// setupLogging routes the process log through a rotating file when one is
// configured, mirroring it to stderr.
func setupLogging(logFile string) {
	if logFile == "" {
		return
	}
	rotator := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    20, // megabytes
		MaxBackups: 3,
		MaxAge:     14, // days
	}
	log.SetOutput(io.MultiWriter(os.Stderr, rotator))
}
