package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lafaom-mao/apilocale"
)

type languageState struct {
	Language  string   `json:"language"`
	Name      string   `json:"name,omitempty"`
	Direction string   `json:"direction,omitempty"`
	Supported []string `json:"supported,omitempty"`
}

func (s *Server) handleGetLanguage(w http.ResponseWriter, r *http.Request) {
	lang := s.session.Current()
	writeJSON(w, http.StatusOK, languageState{
		Language:  lang,
		Name:      apilocale.GetLanguageName(lang),
		Direction: apilocale.GetDirection(lang),
		Supported: s.session.Supported(),
	})
}

func (s *Server) handlePutLanguage(w http.ResponseWriter, r *http.Request) {
	var body languageState
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10)).Decode(&body); err != nil || body.Language == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": `expected {"language": "<code>"}`})
		return
	}

	if err := s.pipeline.SwitchLanguage(r.Context(), body.Language); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, apilocale.ErrUnsupportedLanguage) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	requestLogger(r.Context(), s.logger).WithField("lang", s.session.Current()).Info("display language changed")
	s.handleGetLanguage(w, r)
}

func (s *Server) handleClearAll(w http.ResponseWriter, r *http.Request) {
	n, err := s.pipeline.Cache().ClearAll(r.Context())
	if err != nil {
		requestLogger(r.Context(), s.logger).WithError(err).Warn("clear cache failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error(), "removed": n})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": n})
}

func (s *Server) handleClearLanguage(w http.ResponseWriter, r *http.Request) {
	lang := apilocale.BaseLang(r.PathValue("lang"))
	if lang == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing language"})
		return
	}

	n, err := s.pipeline.Cache().ClearLanguage(r.Context(), lang)
	if err != nil {
		requestLogger(r.Context(), s.logger).WithError(err).Warn("clear cache failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error(), "removed": n})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"language": lang, "removed": n})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": apilocale.FullVersion()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
