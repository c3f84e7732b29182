package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/Henry5410858/design-sub000/compositor"
	"github.com/Henry5410858/design-sub000/handlers/api/designs"
	"github.com/Henry5410858/design-sub000/resolver"
	"github.com/Henry5410858/design-sub000/stores"
	"github.com/Henry5410858/design-sub000/stores/memory"
)

// clientCacheQuota is the byte budget of the in-process cache tier that
// mirrors the browser-side cache the editor keeps.
const clientCacheQuota = 4 << 20

func setupRouter(res *resolver.Resolver, comp *compositor.Compositor) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Length", "Origin", "Host", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api/v2/designs", func(r chi.Router) {
		r.Get("/", designs.HandleList(res))
		r.Post("/", designs.HandleCreate(res, comp))
		r.Route("/{key}", func(r chi.Router) {
			r.Get("/", designs.HandleGet(res))
			r.Put("/", designs.HandleSave(res, comp))
			r.Delete("/", designs.HandleDelete(res))
			r.Get("/export.png", designs.HandleExport(res, comp))
			r.Get("/thumbnail.png", designs.HandleThumbnail(res, comp))
		})
	})

	return r
}

func setupLoader() *compositor.HTTPLoader {
	loader := &compositor.HTTPLoader{Client: http.DefaultClient}
	if assetPath := os.Getenv("ASSET_PATH"); assetPath != "" {
		loader.Fallback = &compositor.FileLoader{Root: assetPath}
	}
	return loader
}

func waitForShutdown() {
	exit := make(chan struct{})
	signalC := make(chan os.Signal, 1)

	signal.Notify(signalC, os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		for s := range signalC {
			switch s {
			case os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT:
				close(exit)
				return
			}
		}
	}()

	<-exit
	logrus.Info("Shutting down...")
	os.Exit(0)
}

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found")
	}

	listenAddress := flag.String("listen", ":3002", "The address to listen on.")
	logLevel := flag.String("loglevel", "info", "The log level (debug, info, warn, error).")
	flag.Parse()

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	store := stores.GetStore()
	res := resolver.New(store, store, resolver.WithCache(memory.NewCache(clientCacheQuota)))
	comp := compositor.New(setupLoader())

	r := setupRouter(res, comp)

	logrus.WithField("addr", *listenAddress).Info("starting server")
	go func() {
		if err := http.ListenAndServe(*listenAddress, r); err != nil {
			logrus.WithField("event", "start server").Fatal(err)
		}
	}()

	waitForShutdown()
}
