// File: internal/httpapi/router.go
package httpapi

import (
	"blobnav/pkg/storage"
	"context"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Operations the API needs from the storage service
type BlobService interface {
	ListContainers(ctx context.Context, providerName string) ([]storage.ContainerDescriptor, error)
	ListAllContainers(ctx context.Context, providerNames []string) ([]storage.ContainerDescriptor, error)
	CreateContainer(ctx context.Context, providerName, containerName string, publicAccess bool) error
	DeleteContainer(ctx context.Context, providerName, containerName string) error
	ListEntries(ctx context.Context, providerName, containerName, path string) (storage.Listing, error)
	StreamEntries(ctx context.Context, providerName, containerName, path string) iter.Seq2[storage.BlobHandle, error]
	UploadBlob(ctx context.Context, providerName, containerName, fullName string, content io.Reader) error
	DownloadBlob(ctx context.Context, providerName, containerName, fullName string) (*storage.TempFile, error)
	DeleteBlob(ctx context.Context, providerName, containerName, fullName string) error
	ResolveHandle(ctx context.Context, providerName, rawURL string) (storage.BlobHandle, error)
}

// Reports which providers have enough configuration to be used
type ProviderLister interface {
	GetConfiguredProviders() []string
}

type Server struct {
	svc       BlobService
	providers ProviderLister
	logger    *slog.Logger
}

func NewServer(svc BlobService, providers ProviderLister, logger *slog.Logger) *Server {
	return &Server{
		svc:       svc,
		providers: providers,
		logger:    logger.With("component", "httpapi"),
	}
}

// Builds the chi router. Routes:
//   - GET    /health
//   - GET    /providers
//   - GET    /containers?providers=a,b
//   - GET    /providers/{provider}/containers
//   - PUT    /providers/{provider}/containers/{container}?public=true
//   - DELETE /providers/{provider}/containers/{container}
//   - GET    /providers/{provider}/containers/{container}/entries?path=a/b/&stream=true
//     (NDJSON handles, then a {"done":...,"count":...} trailer carrying error/message on failure)
//   - PUT    /providers/{provider}/containers/{container}/blobs/*
//   - GET    /providers/{provider}/containers/{container}/blobs/*
//   - DELETE /providers/{provider}/containers/{container}/blobs/*
//   - GET    /providers/{provider}/resolve?url=...
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogging(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "blobnav"})
	})

	r.Get("/providers", s.handleListProviders)
	r.Get("/containers", s.handleListAllContainers)

	r.Route("/providers/{provider}", func(r chi.Router) {
		r.Get("/containers", s.handleListContainers)
		r.Get("/resolve", s.handleResolve)

		r.Route("/containers/{container}", func(r chi.Router) {
			r.Put("/", s.handleCreateContainer)
			r.Delete("/", s.handleDeleteContainer)
			r.Get("/entries", s.handleListEntries)
			r.Put("/blobs/*", s.handleUploadBlob)
			r.Get("/blobs/*", s.handleDownloadBlob)
			r.Delete("/blobs/*", s.handleDeleteBlob)
		})
	})

	return r
}

func requestLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("Request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"latency_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

// Runs the HTTP server until ctx is done, then shuts it down gracefully
func ListenAndServe(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Listening", "address", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("Shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	}
}
