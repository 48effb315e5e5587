package app

import (
	"fmt"
	"log"
	"net/http"

	"github.com/seolyze/imageaudit/internal/audit"
	"github.com/seolyze/imageaudit/internal/blobstore"
	"github.com/seolyze/imageaudit/internal/config"
	"github.com/seolyze/imageaudit/internal/converter"
	"github.com/seolyze/imageaudit/internal/fetcher"
	"github.com/seolyze/imageaudit/internal/jobstore"
	"github.com/seolyze/imageaudit/internal/scheduler"
	"github.com/seolyze/imageaudit/internal/transport/handler"
	"github.com/seolyze/imageaudit/internal/transport/router"
)

type App struct {
	HttpServer *http.Server
}

func New(cfg *config.Config) (*App, error) {
	fetch := fetcher.New(cfg.Audit.UserAgent)

	blobs, staticDir, err := newBlobStore(cfg)
	if err != nil {
		return nil, err
	}

	jobs := jobstore.NewMemory()
	conv := converter.New(fetch, blobs)
	sched := scheduler.New(jobs, conv, cfg.Convert.BatchSize, cfg.Convert.GlobalConcurrency)
	auditor := audit.New(fetch, cfg.Audit.FetchConcurrency)

	h := handler.New(auditor, sched, jobs, cfg)
	r := router.NewRouter(h, router.AllowAll{}, staticDir)

	s := &http.Server{
		Handler:      r,
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &App{
		HttpServer: s,
	}, nil
}

// newBlobStore picks where optimized images are published. The local backend
// additionally exposes its directory through the server's /static tree.
func newBlobStore(cfg *config.Config) (converter.BlobStore, string, error) {
	switch cfg.Static.Backend {
	case "r2":
		store, err := blobstore.NewR2(&cfg.R2)
		if err != nil {
			return nil, "", err
		}
		return store, "", nil
	case "local":
		store := blobstore.NewLocal(cfg.Static.Dir, cfg.Static.BaseURL)
		return store, store.Dir(), nil
	default:
		return nil, "", fmt.Errorf("unknown static backend: %q", cfg.Static.Backend)
	}
}

func (a *App) Run() error {
	log.Printf("starting server on %s", a.HttpServer.Addr)
	return a.HttpServer.ListenAndServe()
}
