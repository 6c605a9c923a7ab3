// Package server assembles the localhost API surface around the storage
// adapter. The listener binds loopback only; the app shell is the single
// client.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/mhollis/serenity/internal/applock"
	"github.com/mhollis/serenity/internal/backup"
	"github.com/mhollis/serenity/internal/config"
	"github.com/mhollis/serenity/internal/handler"
	"github.com/mhollis/serenity/internal/middleware"
	"github.com/mhollis/serenity/internal/remind"
	"github.com/mhollis/serenity/internal/storage"
	ws "github.com/mhollis/serenity/internal/websocket"
)

type Server struct {
	store       *storage.Adapter
	hub         *ws.Hub
	collections map[string]*handler.CollectionHandler
	fitnessH    *handler.FitnessHandler
	sobrietyH   *handler.SobrietyHandler
	meetingH    *handler.MeetingHandler
	messageH    *handler.MessageHandler
	preferenceH *handler.PreferenceHandler
	backupH     *handler.BackupHandler
	applockH    *handler.AppLockHandler
	pushH       *handler.PushHandler
	migrateH    *handler.MigrateHandler
	scheduler   *remind.Scheduler
	logger      *slog.Logger
}

func New(cfg config.Config, store *storage.Adapter, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	collections := make(map[string]*handler.CollectionHandler, len(storage.CollectionNames))
	for _, name := range storage.CollectionNames {
		collections[name] = handler.NewCollectionHandler(name, store, hub, logger.With("component", name))
	}

	backupMgr := backup.NewManager(backup.Config{
		Dir: filepath.Join(cfg.DataDir, "backups"),
		S3: backup.S3Config{
			Endpoint:  cfg.Backup.Endpoint,
			Bucket:    cfg.Backup.Bucket,
			Region:    cfg.Backup.Region,
			AccessKey: cfg.Backup.AccessKey,
			SecretKey: cfg.Backup.SecretKey,
		},
	}, store, logger.With("component", "backup"))

	pushSvc := remind.NewService(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey)
	scheduler := remind.NewScheduler(pushSvc, store, logger.With("component", "remind"))

	return &Server{
		store:       store,
		hub:         hub,
		collections: collections,
		fitnessH:    handler.NewFitnessHandler(store, cfg.ScoreTimeframe, logger.With("component", "fitness")),
		sobrietyH:   handler.NewSobrietyHandler(store),
		meetingH:    handler.NewMeetingHandler(store),
		messageH:    handler.NewMessageHandler(store),
		preferenceH: handler.NewPreferenceHandler(store, logger.With("component", "preference")),
		backupH:     handler.NewBackupHandler(backupMgr, logger.With("component", "backup")),
		applockH:    handler.NewAppLockHandler(applock.New(store)),
		pushH:       handler.NewPushHandler(store, pushSvc, logger.With("component", "push")),
		migrateH:    handler.NewMigrateHandler(store, cfg.DataDir, logger.With("component", "migrate")),
		scheduler:   scheduler,
		logger:      logger,
	}
}

// Scheduler returns the reminder scheduler for lifecycle management.
func (s *Server) Scheduler() *remind.Scheduler {
	return s.scheduler
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)

	for name, h := range s.collections {
		if name == "preferences" {
			// Preferences get their own key-based routes below.
			continue
		}
		mux.HandleFunc("GET /api/"+name, h.List)
		mux.HandleFunc("POST /api/"+name, h.Create)
		mux.HandleFunc("GET /api/"+name+"/{id}", h.Get)
		mux.HandleFunc("PUT /api/"+name+"/{id}", h.Update)
		mux.HandleFunc("DELETE /api/"+name+"/{id}", h.Delete)
	}

	// Preferences use a key path, not the generic {id} surface.
	mux.HandleFunc("GET /api/preferences/{key}", s.preferenceH.Get)
	mux.HandleFunc("PUT /api/preferences/{key}", s.preferenceH.Set)

	mux.HandleFunc("GET /api/fitness", s.fitnessH.Score)
	mux.HandleFunc("PUT /api/fitness/timeframe", s.fitnessH.SetTimeframe)

	mux.HandleFunc("GET /api/sobriety", s.sobrietyH.Get)
	mux.HandleFunc("GET /api/meetings/nearby", s.meetingH.Nearby)
	mux.HandleFunc("GET /api/messages/unread", s.messageH.Unread)

	mux.HandleFunc("POST /api/backup", s.backupH.Create)
	mux.HandleFunc("GET /api/backup/history", s.backupH.History)
	mux.HandleFunc("POST /api/backup/restore", s.backupH.Restore)

	mux.HandleFunc("GET /api/lock", s.applockH.Status)
	mux.HandleFunc("POST /api/lock", s.applockH.Set)
	mux.HandleFunc("POST /api/lock/verify", s.applockH.Verify)
	mux.HandleFunc("DELETE /api/lock", s.applockH.Clear)

	mux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDKey)
	mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
	mux.HandleFunc("POST /api/push/unsubscribe", s.pushH.Unsubscribe)

	mux.HandleFunc("GET /api/migrate", s.migrateH.Status)
	mux.HandleFunc("POST /api/migrate", s.migrateH.Run)

	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status": "ok",
		"engine": string(s.store.EngineKind()),
	})
}
