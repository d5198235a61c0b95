package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/openings-cli/internal/model"
	"github.com/sells-group/openings-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the read-only venue API",
	Long: `Serves venues, hot leads, follow-ups, and pipeline metrics
over HTTP for dashboards. All endpoints are read-only.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins(),
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		}))

		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Get("/venues", func(w http.ResponseWriter, req *http.Request) {
			q := req.URL.Query()
			limit, _ := strconv.Atoi(q.Get("limit"))
			offset, _ := strconv.Atoi(q.Get("offset"))
			venues, err := st.ListVenues(req.Context(), store.VenueFilter{
				City:       q.Get("city"),
				VenueType:  model.VenueType(q.Get("type")),
				Status:     model.VenueStatus(q.Get("status")),
				LeadStatus: model.LeadStatus(q.Get("lead_status")),
				Limit:      limit,
				Offset:     offset,
			})
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, venues)
		})

		r.Get("/venues/{id}", func(w http.ResponseWriter, req *http.Request) {
			id, err := strconv.ParseInt(chi.URLParam(req, "id"), 10, 64)
			if err != nil {
				http.Error(w, `{"error":"invalid venue id"}`, http.StatusBadRequest)
				return
			}
			venue, err := st.GetVenue(req.Context(), id)
			if err != nil {
				http.Error(w, `{"error":"venue not found"}`, http.StatusNotFound)
				return
			}
			writeJSON(w, http.StatusOK, venue)
		})

		r.Get("/venues/{id}/activities", func(w http.ResponseWriter, req *http.Request) {
			id, err := strconv.ParseInt(chi.URLParam(req, "id"), 10, 64)
			if err != nil {
				http.Error(w, `{"error":"invalid venue id"}`, http.StatusBadRequest)
				return
			}
			activities, err := st.ListLeadActivities(req.Context(), id)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, activities)
		})

		r.Get("/hot", func(w http.ResponseWriter, req *http.Request) {
			days, _ := strconv.Atoi(req.URL.Query().Get("days"))
			if days <= 0 {
				days = 14
			}
			venues, err := st.HotLeads(req.Context(), days)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, venues)
		})

		r.Get("/followups", func(w http.ResponseWriter, req *http.Request) {
			venues, err := st.VenuesNeedingFollowUp(req.Context())
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, venues)
		})

		r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
			counts, err := st.LeadCountsByStatus(req.Context())
			if err != nil {
				writeError(w, err)
				return
			}
			sources, err := st.SourceEffectiveness(req.Context())
			if err != nil {
				writeError(w, err)
				return
			}
			cities, err := st.CityPerformance(req.Context())
			if err != nil {
				writeError(w, err)
				return
			}

			won := counts[model.LeadWon]
			lost := counts[model.LeadLost]
			winRate := 0.0
			if won+lost > 0 {
				winRate = float64(won) / float64(won+lost) * 100
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"lead_counts":  counts,
				"win_rate_pct": winRate,
				"sources":      sources,
				"cities":       cities,
			})
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func allowedOrigins() []string {
	if len(cfg.Server.AllowedOrigins) > 0 {
		return cfg.Server.AllowedOrigins
	}
	return []string{"*"}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	zap.L().Error("request failed", zap.Error(err))
	http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
}
