// File: internal/httpapi/handlers.go
package httpapi

import (
	"blobnav/pkg/formatter"
	"encoding/json"
	"io"
	"iter"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListProviders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"providers": s.providers.GetConfiguredProviders()})
}

func (s *Server) handleListAllContainers(w http.ResponseWriter, r *http.Request) {
	providers := s.providers.GetConfiguredProviders()
	if raw := r.URL.Query().Get("providers"); raw != "" {
		providers = splitList(raw)
	}

	containers, err := s.svc.ListAllContainers(r.Context(), providers)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, formatter.NewContainerViews(containers))
}

func (s *Server) handleListContainers(w http.ResponseWriter, r *http.Request) {
	containers, err := s.svc.ListContainers(r.Context(), chi.URLParam(r, "provider"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, formatter.NewContainerViews(containers))
}

func (s *Server) handleCreateContainer(w http.ResponseWriter, r *http.Request) {
	providerName := chi.URLParam(r, "provider")
	containerName := chi.URLParam(r, "container")

	public := false
	if raw := r.URL.Query().Get("public"); raw != "" {
		var err error
		if public, err = strconv.ParseBool(raw); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "InvalidRequest", Message: "public must be a boolean"})
			return
		}
	}

	if err := s.svc.CreateContainer(r.Context(), providerName, containerName, public); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("Container created", "provider", providerName, "container", containerName, "public", public)
	writeJSON(w, http.StatusCreated, map[string]any{"name": containerName, "provider": providerName, "publicAccess": public})
}

func (s *Server) handleDeleteContainer(w http.ResponseWriter, r *http.Request) {
	providerName := chi.URLParam(r, "provider")
	containerName := chi.URLParam(r, "container")

	if err := s.svc.DeleteContainer(r.Context(), providerName, containerName); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("Container deleted", "provider", providerName, "container", containerName)
	w.WriteHeader(http.StatusNoContent)
}

// Returns the sorted listing, or with stream=true the handles in backend order
// as newline-delimited JSON
func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	providerName := chi.URLParam(r, "provider")
	containerName := chi.URLParam(r, "container")
	folder := r.URL.Query().Get("path")

	if stream, _ := strconv.ParseBool(r.URL.Query().Get("stream")); stream {
		s.streamEntries(w, r, providerName, containerName, folder)
		return
	}

	listing, err := s.svc.ListEntries(r.Context(), providerName, containerName, folder)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, formatter.NewListingView(listing))
}

// Every stream ends with a trailer record; a body without one was cut short
func (s *Server) streamEntries(w http.ResponseWriter, r *http.Request, providerName, containerName, folder string) {
	next, stop := iter.Pull2(s.svc.StreamEntries(r.Context(), providerName, containerName, folder))
	defer stop()

	// The first pull decides the status code
	h, err, ok := next()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(w)
	rc := http.NewResponseController(w)

	count := 0
	for ok {
		if err != nil {
			s.logger.Error("Listing stream aborted", "provider", providerName, "container", containerName, "sent", count, "error", err)
			_, code := StatusFor(err)
			enc.Encode(streamTrailer{Error: code, Message: err.Error(), Count: count})
			return
		}
		if err := enc.Encode(formatter.NewHandleView(h)); err != nil {
			return
		}
		count++
		if count%streamFlushEvery == 0 {
			rc.Flush()
		}
		h, err, ok = next()
	}
	enc.Encode(streamTrailer{Done: true, Count: count})
}

func (s *Server) handleUploadBlob(w http.ResponseWriter, r *http.Request) {
	providerName := chi.URLParam(r, "provider")
	containerName := chi.URLParam(r, "container")
	fullName := chi.URLParam(r, "*")
	defer r.Body.Close()

	if err := s.svc.UploadBlob(r.Context(), providerName, containerName, fullName, r.Body); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("Blob uploaded", "provider", providerName, "container", containerName, "blob", fullName)
	writeJSON(w, http.StatusCreated, map[string]string{"container": containerName, "fullName": fullName})
}

func (s *Server) handleDownloadBlob(w http.ResponseWriter, r *http.Request) {
	providerName := chi.URLParam(r, "provider")
	containerName := chi.URLParam(r, "container")
	fullName := chi.URLParam(r, "*")

	tmp, err := s.svc.DownloadBlob(r.Context(), providerName, containerName, fullName)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer func() {
		if err := tmp.Release(); err != nil {
			s.logger.Warn("Failed to remove temp file", "path", tmp.Path(), "error", err)
		}
	}()

	f, err := tmp.Open()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.FormatInt(tmp.Size(), 10))
	w.Header().Set("Content-Disposition", `attachment; filename="`+path.Base(fullName)+`"`)
	w.WriteHeader(http.StatusOK)
	io.Copy(w, f)
}

func (s *Server) handleDeleteBlob(w http.ResponseWriter, r *http.Request) {
	providerName := chi.URLParam(r, "provider")
	containerName := chi.URLParam(r, "container")
	fullName := chi.URLParam(r, "*")

	if err := s.svc.DeleteBlob(r.Context(), providerName, containerName, fullName); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("Blob deleted", "provider", providerName, "container", containerName, "blob", fullName)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "InvalidRequest", Message: "url query parameter is required"})
		return
	}

	handle, err := s.svc.ResolveHandle(r.Context(), chi.URLParam(r, "provider"), rawURL)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, formatter.NewHandleView(handle))
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
