package api

import (
	"bytes"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/CreativeUnicorns/extprefs"
)

// definition is the JSON form of a declared preference.
type definition struct {
	Key     string         `json:"key"`
	Type    extprefs.Type  `json:"type"`
	Default extprefs.Value `json:"default"`
}

func toDefinition(e extprefs.Entry) definition {
	return definition{Key: e.Key, Type: e.Type(), Default: e.Default}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondWithJSON(w, r, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"preferences": s.manager.Registry().Len(),
	})
}

// handleListDefaults returns the declared preferences in declaration order,
// optionally restricted by the prefix query parameter.
func (s *Server) handleListDefaults(w http.ResponseWriter, r *http.Request) {
	reg := s.manager.Registry()

	entries := reg.Entries()
	if prefix := r.URL.Query().Get("prefix"); prefix != "" {
		entries = reg.WithPrefix(prefix)
	}

	defs := make([]definition, 0, len(entries))
	for _, e := range entries {
		defs = append(defs, toDefinition(e))
	}
	s.respondWithJSON(w, r, http.StatusOK, defs)
}

func (s *Server) handleGetDefault(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	e, ok := s.manager.Registry().Lookup(key)
	if !ok {
		s.respondWithError(w, r, http.StatusNotFound, "Preference not declared", extprefs.ErrNotFound)
		return
	}
	s.respondWithJSON(w, r, http.StatusOK, toDefinition(e))
}

// handleDeclarations serves the registry in the pref() declaration format.
func (s *Server) handleDeclarations(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if _, err := s.manager.Registry().WriteTo(&buf); err != nil {
		s.respondWithError(w, r, http.StatusInternalServerError, "Failed to write declarations", err)
		return
	}

	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
