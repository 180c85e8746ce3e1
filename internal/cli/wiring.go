package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/soyeahso/chainsense/internal/archive"
	"github.com/soyeahso/chainsense/internal/audit"
	"github.com/soyeahso/chainsense/internal/capability"
	"github.com/soyeahso/chainsense/internal/config"
	"github.com/soyeahso/chainsense/internal/engine"
	"github.com/soyeahso/chainsense/internal/session"
)

const webhookTimeout = 10 * time.Second

// runtime bundles the wired engine with the collaborators the gateway
// and CLI commands need access to.
type runtime struct {
	engine   *engine.Engine
	archive  *archive.TurnArchive
	recorder *audit.Recorder
	close    func()
}

// buildRuntime wires sessions, capabilities, audit sinks, and the turn
// archive according to config. The returned close func releases the
// archive database.
func buildRuntime(cfg config.Config) (*runtime, error) {
	capTimeout := time.Duration(cfg.Engine.CapabilitySeconds) * time.Second

	caps := capability.NewRegistry(log)
	for _, c := range capability.Builtins() {
		caps.Register(c)
	}
	// Remote endpoints replace the built-in stubs per intent.
	for name, entry := range cfg.Capabilities {
		if entry.Endpoint == "" {
			continue
		}
		caps.Register(capability.NewHTTPCapability(name, entry.Endpoint, entry.Token, capTimeout))
		log.Info().Str("capability", name).Str("endpoint", entry.Endpoint).Msg("remote capability configured")
	}

	recorder := audit.NewRecorder(log)
	if cfg.Audit.LogEvents {
		recorder.OnAll("log", audit.LogSink(log))
	}
	if cfg.Audit.WebhookURL != "" {
		recorder.OnAll("webhook", audit.WebhookSink(cfg.Audit.WebhookURL, webhookTimeout))
	}

	var (
		turnArchive *archive.TurnArchive
		closeFn     = func() {}
	)
	if cfg.Archive.Enabled {
		path := cfg.Archive.Path
		if path == "" {
			path = paths.Archive
		}
		db, err := archive.Open(path, log)
		if err != nil {
			return nil, fmt.Errorf("opening turn archive: %w", err)
		}
		turnArchive = archive.NewTurnArchive(db)
		closeFn = func() { db.Close() }
	}

	sessions := session.NewStore(time.Duration(cfg.Session.IdleMinutes)*time.Minute, log)
	sessions.OnLifecycle(
		func(sessionID string) {
			recorder.RecordAsync(context.Background(), audit.Event{
				Name:      audit.EventSessionCreated,
				SessionID: sessionID,
			})
		},
		func(sessionID string) {
			recorder.RecordAsync(context.Background(), audit.Event{
				Name:      audit.EventSessionExpired,
				SessionID: sessionID,
			})
		},
	)

	eng := engine.New(log, engine.Options{
		Sessions:            sessions,
		Capabilities:        caps,
		Audit:               recorder,
		Archive:             turnArchive,
		ConfidenceThreshold: cfg.Engine.ConfidenceThreshold,
		ExpectedParts:       cfg.Engine.ExpectedParts,
		CapabilityTimeout:   capTimeout,
		DefaultVoice:        cfg.Speech.DefaultVoice,
	})

	return &runtime{
		engine:   eng,
		archive:  turnArchive,
		recorder: recorder,
		close:    closeFn,
	}, nil
}
