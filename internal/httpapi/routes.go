package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/torchlight-rpg/encounter-backend/internal/catalog"
	"github.com/torchlight-rpg/encounter-backend/internal/config"
	"github.com/torchlight-rpg/encounter-backend/internal/hub"
	"github.com/torchlight-rpg/encounter-backend/internal/ws"
)

// SetupRoutes builds the router with the hub (and optional catalog) injected.
// cat may be nil when no catalog DSN is configured.
func SetupRoutes(h *hub.Hub, cfg config.Config, cat *catalog.Store, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Post("/encounter", CreateEncounter(h, log))
		r.Post("/encounter/{id}/unlock", UnlockEncounter(h))
		r.Get("/encounter/{id}", GetEncounter(h, cfg.PublicSnapshots))
		r.Get("/encounter/code/{code}", GetEncounterByCode(h, cfg.PublicSnapshots))
		r.Post("/encounter/{id}/creatures", ReplaceCreatures(h))
		r.Post("/encounter/{id}/join", JoinEncounter(h))
		r.Get("/healthz", Healthz)

		if cat != nil {
			r.Mount("/catalog", catalog.Routes(cat, cfg.MediaDir, log))
		}
	})

	r.Get("/ws", ws.Handler(h, log))

	// Uploaded creature images
	r.Handle("/media/*", http.StripPrefix("/media/", http.FileServer(http.Dir(cfg.MediaDir))))

	return r
}
