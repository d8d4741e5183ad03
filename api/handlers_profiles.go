package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/CreativeUnicorns/extprefs"
)

// setRequest is the body of PUT /profiles/{profile}/prefs/{key}.
type setRequest struct {
	Value interface{} `json:"value"`
}

func (s *Server) handleListPreferences(w http.ResponseWriter, r *http.Request) {
	profile := chi.URLParam(r, "profile")

	var (
		prefs map[string]*extprefs.Preference
		err   error
	)
	if prefix := r.URL.Query().Get("prefix"); prefix != "" {
		prefs, err = s.manager.GetByPrefix(r.Context(), profile, prefix)
	} else {
		prefs, err = s.manager.GetAll(r.Context(), profile)
	}
	if err != nil {
		s.respondWithError(w, r, statusFor(err), "Failed to get preferences", err)
		return
	}
	s.respondWithJSON(w, r, http.StatusOK, prefs)
}

func (s *Server) handleGetPreference(w http.ResponseWriter, r *http.Request) {
	pref, err := s.manager.Get(r.Context(), chi.URLParam(r, "profile"), chi.URLParam(r, "key"))
	if err != nil {
		s.respondWithError(w, r, statusFor(err), "Failed to get preference", err)
		return
	}
	s.respondWithJSON(w, r, http.StatusOK, pref)
}

func (s *Server) handleSetPreference(w http.ResponseWriter, r *http.Request) {
	profile, key := chi.URLParam(r, "profile"), chi.URLParam(r, "key")

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	decoder.UseNumber()

	var req setRequest
	if err := decoder.Decode(&req); err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		s.respondWithError(w, r, status, "Invalid request payload", err)
		return
	}

	if err := s.manager.Set(r.Context(), profile, key, req.Value); err != nil {
		s.respondWithError(w, r, statusFor(err), "Failed to set preference", err)
		return
	}

	pref, err := s.manager.Get(r.Context(), profile, key)
	if err != nil {
		s.respondWithError(w, r, statusFor(err), "Failed to get preference", err)
		return
	}
	s.respondWithJSON(w, r, http.StatusOK, pref)
}

func (s *Server) handleResetPreference(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Reset(r.Context(), chi.URLParam(r, "profile"), chi.URLParam(r, "key")); err != nil {
		s.respondWithError(w, r, statusFor(err), "Failed to reset preference", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleExport serves the profile's overrides as user_pref() statements.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.manager.Export(r.Context(), chi.URLParam(r, "profile"), &buf); err != nil {
		s.respondWithError(w, r, statusFor(err), "Failed to export preferences", err)
		return
	}

	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// handleImport stores the pref() or user_pref() statements in the body as overrides.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	n, err := s.manager.Import(r.Context(), chi.URLParam(r, "profile"), r.Body)
	if err != nil {
		s.respondWithError(w, r, statusFor(err), "Failed to import preferences", err)
		return
	}
	s.respondWithJSON(w, r, http.StatusOK, map[string]int{"imported": n})
}
