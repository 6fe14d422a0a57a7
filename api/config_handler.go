package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/lokeshwaran100/ic-swipe/internal/config"
)

// configMu serialises runtime config updates.
var configMu sync.Mutex

// handleGetConfig returns the running configuration with secrets removed.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	configMu.Lock()
	defer configMu.Unlock()
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: redacted(s.app.Config)})
}

// handleUpdateConfig merges runtime-tunable values into the running config.
// Engine settings apply to queues opened afterwards; the log level applies
// at once. Nothing is persisted.
func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var incoming config.Config
	if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if incoming.Logging.Level != "" {
		if _, err := logrus.ParseLevel(incoming.Logging.Level); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	configMu.Lock()
	defer configMu.Unlock()

	mergeConfig(s.app.Config, &incoming)
	if s.app.Log != nil && incoming.Logging.Level != "" {
		lvl, _ := logrus.ParseLevel(incoming.Logging.Level)
		s.app.Log.SetLevel(lvl)
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: redacted(s.app.Config)})
}

// handleGetConfigKeys returns the status of all secrets.
func (s *Server) handleGetConfigKeys(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    config.CheckAPIKeys(s.app.Config),
	})
}

// redacted returns a copy of cfg without secrets. The JSON encoding drops
// them too; the copy keeps callers from seeing them in-process.
func redacted(cfg *config.Config) config.Config {
	out := *cfg
	out.LLM.GeminiKey = ""
	out.LLM.OpenAIKey = ""
	out.Wallet.Token = ""
	out.Journal.PostgresDSN = ""
	out.API.CORSOrigins = append([]string(nil), cfg.API.CORSOrigins...)
	return out
}

// mergeConfig copies the non-zero runtime-tunable values from src into dst.
func mergeConfig(dst, src *config.Config) {
	// Engine
	if src.Engine.SwipeThresholdPx > 0 {
		dst.Engine.SwipeThresholdPx = src.Engine.SwipeThresholdPx
	}
	if src.Engine.ExitOffsetPx > 0 {
		dst.Engine.ExitOffsetPx = src.Engine.ExitOffsetPx
	}
	if src.Engine.TradeTimeoutSec > 0 {
		dst.Engine.TradeTimeoutSec = src.Engine.TradeTimeoutSec
	}

	// Catalog
	if src.Catalog.DefaultCategory != "" {
		dst.Catalog.DefaultCategory = src.Catalog.DefaultCategory
	}

	// Logging
	if src.Logging.Level != "" {
		dst.Logging.Level = src.Logging.Level
	}
}
