package api

import (
	"encoding/json"
	"net/http"

	"dmxout/internal/engine"
)

// handleState returns the session configuration.
//
// GET /state
func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.State())
}

// handleSetChannels stages channel levels. Channels outside 1..512 are
// ignored, as they are over MQTT.
//
// PUT /channels
// Body: [{"channel":1,"value":255}, ...]
func (s *Server) handleSetChannels(w http.ResponseWriter, r *http.Request) {
	var values []engine.ChannelValue
	if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	s.engine.SetChannels(values)
	w.WriteHeader(http.StatusNoContent)
}

// handleConfig applies a command and returns the resulting state. A rejected
// command changes nothing.
//
// PUT /config
// Body: {"protocol":2,"universe":1,"rate":30,"init":true}
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	var cmd engine.Command
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if err := s.engine.Apply(cmd); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.engine.State())
}

// handleInit (re)builds the transport for the staged configuration.
//
// POST /init
func (s *Server) handleInit(w http.ResponseWriter, _ *http.Request) {
	if err := s.engine.Initialize(); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.engine.State())
}

// handleSend requests one frame. The rate gate may drop it silently.
//
// POST /send
func (s *Server) handleSend(w http.ResponseWriter, _ *http.Request) {
	s.engine.Send()
	w.WriteHeader(http.StatusAccepted)
}
