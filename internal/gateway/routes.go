package gateway

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/soyeahso/chainsense/internal/archive"
)

// turnCallTimeout bounds a single RPC turn resolution, including any
// downstream capability calls the engine makes.
const turnCallTimeout = 2 * time.Minute

// registerHTTPRoutes sets up all HTTP routes on the server mux.
func (s *Server) registerHTTPRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.HandleFunc("POST /turn", s.handleTurn)

	// Catch-all for unknown routes
	mux.HandleFunc("/", handleNotFound)
}

// registerRPCHandlers sets up all JSON-RPC method handlers.
func (s *Server) registerRPCHandlers() {
	s.Handle("health", s.rpcHealth)
	s.Handle("turn.send", s.rpcTurnSend)
	s.Handle("session.get", s.rpcSessionGet)
	s.Handle("session.list", s.rpcSessionList)
	s.Handle("session.export", s.rpcSessionExport)
	s.Handle("session.clear", s.rpcSessionClear)
	s.Handle("events.query", s.rpcEventsQuery)
	s.Handle("cleanup.run", s.rpcCleanupRun)
}

// Built-in RPC handlers

func (s *Server) rpcHealth(rc *RequestContext) {
	rc.Respond(HealthResponse{
		Status:   "ok",
		Version:  s.version,
		Clients:  s.clients.Count(),
		Sessions: s.engine.Sessions().Count(),
		UptimeMs: time.Since(s.startedAt).Milliseconds(),
	})
}

type turnSendParams struct {
	SessionID string `json:"sessionId"`
	Utterance string `json:"utterance"`
}

func (s *Server) rpcTurnSend(rc *RequestContext) {
	var p turnSendParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}
	if strings.TrimSpace(p.Utterance) == "" {
		rc.RespondError("invalid_params", "utterance is required")
		return
	}
	if p.SessionID == "" {
		// Voice clients without session affinity get one per connection.
		p.SessionID = rc.Client.ConnID
	}

	ctx, cancel := context.WithTimeout(context.Background(), turnCallTimeout)
	defer cancel()

	env := s.engine.ProcessTurn(ctx, p.SessionID, p.Utterance)
	s.broadcastTurnResolved(env)
	rc.Respond(env)
}

type sessionParams struct {
	SessionID string `json:"sessionId"`
}

func (s *Server) rpcSessionGet(rc *RequestContext) {
	var p sessionParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}
	if p.SessionID == "" {
		rc.RespondError("invalid_params", "sessionId is required")
		return
	}

	snap, ok := s.engine.Sessions().Snapshot(p.SessionID)
	if !ok {
		rc.RespondError("not_found", "session not found: "+p.SessionID)
		return
	}
	rc.Respond(map[string]any{"session": snap})
}

func (s *Server) rpcSessionList(rc *RequestContext) {
	rc.Respond(map[string]any{
		"sessions": s.engine.Sessions().IDs(),
		"count":    s.engine.Sessions().Count(),
	})
}

func (s *Server) rpcSessionExport(rc *RequestContext) {
	var p sessionParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}
	if p.SessionID == "" {
		rc.RespondError("invalid_params", "sessionId is required")
		return
	}

	export, ok := s.engine.Sessions().Export(p.SessionID)
	if !ok {
		rc.RespondError("not_found", "session not found: "+p.SessionID)
		return
	}
	rc.Respond(export)
}

func (s *Server) rpcSessionClear(rc *RequestContext) {
	var p sessionParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}
	if p.SessionID == "" {
		rc.RespondError("invalid_params", "sessionId is required")
		return
	}

	cleared := s.engine.Sessions().Clear(p.SessionID)
	rc.Respond(map[string]any{"cleared": cleared})
}

type eventsQueryParams struct {
	SessionID string `json:"sessionId,omitempty"`
	Intent    string `json:"intent,omitempty"`
	Success   *bool  `json:"success,omitempty"`
	SinceMs   int64  `json:"sinceMs,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

// rpcEventsQuery reads resolved turns back out of the archive.
func (s *Server) rpcEventsQuery(rc *RequestContext) {
	if s.archive == nil {
		rc.RespondError("unavailable", "turn archive is not enabled")
		return
	}

	var p eventsQueryParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}

	filter := archive.Filter{
		SessionID: p.SessionID,
		Intent:    p.Intent,
		Success:   p.Success,
		Limit:     p.Limit,
	}
	if p.SinceMs > 0 {
		filter.Since = time.UnixMilli(p.SinceMs)
	}

	turns, err := s.archive.Query(filter)
	if err != nil {
		rc.RespondError("archive_error", err.Error())
		return
	}
	rc.Respond(map[string]any{
		"turns": turns,
		"count": len(turns),
	})
}

func (s *Server) rpcCleanupRun(rc *RequestContext) {
	evicted := s.engine.Sessions().Cleanup()
	rc.Respond(map[string]any{"evicted": evicted})
}
