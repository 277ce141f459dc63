package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lexbench/taxeval/internal/model"
	"github.com/lexbench/taxeval/internal/report"
	"github.com/lexbench/taxeval/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the evaluation HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		params := report.Params{KValues: cfg.Eval.KValues, Bins: cfg.Eval.Bins, Workers: cfg.Eval.Workers}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(st, params),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
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

// evalServer exposes evaluation and run history over HTTP.
type evalServer struct {
	store  store.Store
	params report.Params
}

// newRouter builds the chi router for the evaluation API.
func newRouter(st store.Store, params report.Params) http.Handler {
	s := &evalServer{store: st, params: params}

	r := chi.NewRouter()
	r.Use(chimw.RequestID, chimw.RealIP, chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/evaluate", s.evaluate)
	r.Get("/runs", s.listRuns)
	r.Get("/runs/{id}", s.getRun)

	return r
}

type evaluateRequest struct {
	GoldPath        string `json:"gold_path"`
	PredictionsPath string `json:"predictions_path"`
	Save            bool   `json:"save"`
}

func (s *evalServer) evaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.GoldPath == "" || req.PredictionsPath == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "gold_path and predictions_path are required"})
		return
	}

	ctx := r.Context()
	rep, err := runEvaluation(ctx, req.GoldPath, req.PredictionsPath, s.params)

	var runID string
	if req.Save {
		run := model.Run{
			GoldPath:        req.GoldPath,
			PredictionsPath: req.PredictionsPath,
			Status:          model.RunStatusComplete,
			Report:          rep,
		}
		if err != nil {
			run.Status = model.RunStatusFailed
			run.Error = err.Error()
			run.Report = nil
		}
		saved, saveErr := s.store.SaveRun(ctx, run)
		if saveErr != nil {
			zap.L().Error("persist run failed", zap.Error(saveErr))
		} else {
			runID = saved.ID
		}
	}

	if err != nil {
		zap.L().Error("evaluation failed",
			zap.String("gold", req.GoldPath),
			zap.Error(err),
		)
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"run_id": runID,
		"report": rep,
	})
}

func (s *evalServer) listRuns(w http.ResponseWriter, r *http.Request) {
	filter := store.RunFilter{
		Status: model.RunStatus(r.URL.Query().Get("status")),
		Limit:  50,
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		filter.Limit = n
	}

	runs, err := s.store.ListRuns(r.Context(), filter)
	if err != nil {
		zap.L().Error("list runs failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list runs failed"})
		return
	}
	if runs == nil {
		runs = []model.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *evalServer) getRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
