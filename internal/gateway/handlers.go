package gateway

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

// HealthResponse is returned by health endpoints. The public HTTP endpoint
// only populates Status; the authenticated RPC handler populates all fields.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version,omitempty"`
	Clients  int    `json:"clients,omitempty"`
	Sessions int    `json:"sessions,omitempty"`
	UptimeMs int64  `json:"uptimeMs,omitempty"`
}

// handleHealth returns the server health status. Only status is exposed
// publicly; detailed info is available via the authenticated RPC health method.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(HealthResponse{Status: "ok"})
}

// handleNotFound returns a 404 for unknown routes.
func handleNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(map[string]string{
		"error": "not found",
		"path":  r.URL.Path,
	})
}

type turnRequest struct {
	SessionID string `json:"sessionId"`
	Utterance string `json:"utterance"`
}

// handleTurn resolves a single turn over plain HTTP. The request must carry
// the gateway bearer token unless auth mode is "none".
func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if !s.authorizeHTTP(r) {
		s.authLimiter.recordFailure(r.RemoteAddr)
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
		return
	}

	var req turnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.SessionID) == "" || strings.TrimSpace(req.Utterance) == "" {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "sessionId and utterance are required"})
		return
	}

	env := s.engine.ProcessTurn(r.Context(), req.SessionID, req.Utterance)
	s.broadcastTurnResolved(env)
	json.NewEncoder(w).Encode(env)
}

// authorizeHTTP validates the Authorization header against the resolved
// gateway credentials. Token and password modes both accept a bearer value.
func (s *Server) authorizeHTTP(r *http.Request) bool {
	if s.auth.Mode == "none" {
		return true
	}
	if !s.authLimiter.allow(r.RemoteAddr) {
		return false
	}

	value := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if value == "" {
		return false
	}

	switch s.auth.Mode {
	case "token":
		return s.auth.Token != "" && safeEqual(value, s.auth.Token)
	case "password":
		return s.auth.Password != "" && safeEqual(value, s.auth.Password)
	default:
		return false
	}
}

// RequestHandler processes an incoming RPC request frame from a client.
type RequestHandler func(ctx *RequestContext)

// RequestContext carries everything a handler needs.
type RequestContext struct {
	Client *Client
	Frame  Frame
	Server *Server
}

// Respond sends a success response.
func (rc *RequestContext) Respond(payload any) {
	if err := rc.Client.Respond(rc.Frame.ID, payload); err != nil {
		rc.Server.log.Warn().Err(err).Str("method", rc.Frame.Method).Msg("failed to send response")
	}
}

// RespondError sends an error response.
func (rc *RequestContext) RespondError(code, message string) {
	rc.Client.RespondError(rc.Frame.ID, ErrorShape{
		Code:    code,
		Message: message,
	})
}

// Params unmarshals the request params into the given target.
func (rc *RequestContext) Params(target any) error {
	if rc.Frame.Params == nil {
		return nil
	}
	return json.Unmarshal(rc.Frame.Params, target)
}

// broadcastTurnResolved pushes a turn.resolved event to all connected clients
// so dashboards can mirror voice interactions in real time.
func (s *Server) broadcastTurnResolved(env any) {
	s.clients.Broadcast("turn.resolved", map[string]any{
		"turn": env,
		"ts":   time.Now().UnixMilli(),
	}, s.eventSeq.Add(1))
}
