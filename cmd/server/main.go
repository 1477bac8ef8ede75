package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/carelayer/triage/analytics"
	"github.com/carelayer/triage/clinical"
	"github.com/carelayer/triage/config"
	"github.com/carelayer/triage/escalation"
	"github.com/carelayer/triage/internal/logger"
	"github.com/carelayer/triage/pipeline"
	"github.com/carelayer/triage/prompt"
	"github.com/carelayer/triage/safety"
)

type Server struct {
	db        *sql.DB
	regions   *escalation.RegionManager
	pipeline  *pipeline.Router
	processor *safety.Processor
	router    *chi.Mux
}

// NewServer wires the pipeline, the safety processor, and the
// region-scoped escalation engines. A missing database URL disables
// escalation rules and analytics persistence but keeps the pipeline up.
func NewServer(cfg config.Config) (*Server, error) {
	var (
		db       *sql.DB
		regions  *escalation.RegionManager
		recorder analytics.Recorder = analytics.NopRecorder{}
	)

	if cfg.DatabaseURL != "" {
		var err error
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := db.Ping(); err != nil {
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}

		regions = escalation.NewRegionManager(db)
		if err := regions.LoadAllRegions(); err != nil {
			return nil, fmt.Errorf("failed to load regions: %w", err)
		}
		logger.Info("regions loaded", "count", len(regions.ListRegions()))

		recorder = analytics.NewPostgresRecorder(db)
	} else {
		logger.Warn("DATABASE_URL not set; escalation rules and analytics persistence disabled")
	}

	sessions := prompt.NewSessionStore(cfg.SessionTTL)

	s := &Server{
		db:        db,
		regions:   regions,
		pipeline:  pipeline.NewRouter(cfg.Flags, sessions),
		processor: safety.NewProcessor(regions, recorder),
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/api/v1/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/api/v1/route", s.handleRoute)
	r.Post("/api/v1/safety", s.handleSafety)

	r.Route("/api/v1/regions", func(r chi.Router) {
		r.Get("/", s.handleListRegions)
		r.Post("/", s.handleCreateRegion)

		r.Route("/{regionId}", func(r chi.Router) {
			r.Post("/rules", s.handleCreateRule)
			r.Get("/rules", s.handleListRules)
			r.Get("/rules/{ruleId}", s.handleGetRule)
			r.Put("/rules/{ruleId}", s.handleUpdateRule)
			r.Delete("/rules/{ruleId}", s.handleDeleteRule)
		})
	})

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.Ping(); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
	}

	body := map[string]any{"status": "healthy"}
	if s.regions != nil {
		body["regionsLoaded"] = len(s.regions.ListRegions())
	}
	respondJSON(w, http.StatusOK, body)
}

// handleRoute runs one turn through the interpretation pipeline. The
// pipeline never fails, so the only error surface is request decoding.
func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	var req RouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	resp := s.pipeline.RouteMedicalQuery(r.Context(), pipeline.Request{
		UserInput:    req.Query,
		SessionID:    req.SessionID,
		Role:         parseRole(req.Role),
		Demographics: req.Demographics.toClinical(),
	})

	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSafety(w http.ResponseWriter, r *http.Request) {
	var req SafetyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	result := s.processor.ProcessMedicalSafety(req.Query, safety.Options{
		Region:       req.Region,
		SessionID:    req.SessionID,
		Demographics: req.Demographics.toClinical(),
	})

	respondJSON(w, http.StatusOK, toSafetyResponse(result))
}

func (s *Server) handleListRegions(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		respondError(w, http.StatusServiceUnavailable, "no database configured", nil)
		return
	}

	rows, err := s.db.Query("SELECT id, name, created_at, updated_at FROM regions ORDER BY created_at DESC")
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list regions", err)
		return
	}
	defer rows.Close()

	regions := []RegionResponse{}
	for rows.Next() {
		var reg RegionResponse
		if err := rows.Scan(&reg.ID, &reg.Name, &reg.CreatedAt, &reg.UpdatedAt); err != nil {
			respondError(w, http.StatusInternalServerError, "failed to scan region", err)
			return
		}
		regions = append(regions, reg)
	}

	respondJSON(w, http.StatusOK, map[string]any{"regions": regions})
}

func (s *Server) handleCreateRegion(w http.ResponseWriter, r *http.Request) {
	if s.db == nil || s.regions == nil {
		respondError(w, http.StatusServiceUnavailable, "no database configured", nil)
		return
	}

	var req CreateRegionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		respondError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}

	_, err := s.db.Exec(`
		INSERT INTO regions (id, name, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
	`, req.ID, req.Name)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create region", err)
		return
	}

	if err := s.regions.CreateRegion(req.ID); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to initialize region engine", err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"id":   req.ID,
		"name": req.Name,
	})
}

func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	regionID := chi.URLParam(r, "regionId")

	var req CreateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	engine, err := s.engineFor(regionID)
	if err != nil {
		respondError(w, http.StatusNotFound, "region not found", err)
		return
	}

	rule := &escalation.Rule{
		ID:         uuid.New().String(),
		Region:     regionID,
		Name:       req.Name,
		Expression: req.Expression,
		Action:     escalation.Action(req.Action),
		Weight:     req.Weight,
		Active:     req.Active,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	if err := engine.AddRule(rule); err != nil {
		respondError(w, http.StatusBadRequest, "failed to add rule", err)
		return
	}

	respondJSON(w, http.StatusCreated, toRuleResponse(rule))
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	regionID := chi.URLParam(r, "regionId")

	if s.db == nil {
		respondError(w, http.StatusServiceUnavailable, "no database configured", nil)
		return
	}

	rows, err := s.db.Query(`
		SELECT id, name, expression, action, weight, active, created_at, updated_at
		FROM escalation_rules
		WHERE region = $1
		ORDER BY created_at DESC
	`, regionID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list rules", err)
		return
	}
	defer rows.Close()

	list := []RuleResponse{}
	for rows.Next() {
		var rr RuleResponse
		if err := rows.Scan(&rr.ID, &rr.Name, &rr.Expression, &rr.Action, &rr.Weight,
			&rr.Active, &rr.CreatedAt, &rr.UpdatedAt); err != nil {
			respondError(w, http.StatusInternalServerError, "failed to scan rule", err)
			return
		}
		list = append(list, rr)
	}

	respondJSON(w, http.StatusOK, map[string]any{"rules": list})
}

func (s *Server) handleGetRule(w http.ResponseWriter, r *http.Request) {
	regionID := chi.URLParam(r, "regionId")
	ruleID := chi.URLParam(r, "ruleId")

	if s.db == nil {
		respondError(w, http.StatusServiceUnavailable, "no database configured", nil)
		return
	}

	store := escalation.NewPostgresRuleStore(s.db, regionID)
	rule, err := store.Get(ruleID)
	if err != nil {
		respondError(w, http.StatusNotFound, "rule not found", err)
		return
	}

	respondJSON(w, http.StatusOK, toRuleResponse(rule))
}

func (s *Server) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	regionID := chi.URLParam(r, "regionId")
	ruleID := chi.URLParam(r, "ruleId")

	var req UpdateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	engine, err := s.engineFor(regionID)
	if err != nil {
		respondError(w, http.StatusNotFound, "region not found", err)
		return
	}

	rule := &escalation.Rule{
		ID:         ruleID,
		Region:     regionID,
		Name:       req.Name,
		Expression: req.Expression,
		Action:     escalation.Action(req.Action),
		Weight:     req.Weight,
		Active:     req.Active,
		UpdatedAt:  time.Now(),
	}

	if err := engine.UpdateRule(rule); err != nil {
		respondError(w, http.StatusBadRequest, "failed to update rule", err)
		return
	}

	respondJSON(w, http.StatusOK, toRuleResponse(rule))
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	regionID := chi.URLParam(r, "regionId")
	ruleID := chi.URLParam(r, "ruleId")

	engine, err := s.engineFor(regionID)
	if err != nil {
		respondError(w, http.StatusNotFound, "region not found", err)
		return
	}

	if err := engine.DeleteRule(ruleID); err != nil {
		respondError(w, http.StatusNotFound, "rule not found", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) engineFor(regionID string) (*escalation.Engine, error) {
	if s.regions == nil {
		return nil, fmt.Errorf("no database configured")
	}
	return s.regions.GetEngine(regionID)
}

func parseRole(role string) clinical.UserRole {
	if role == string(clinical.RoleClinician) {
		return clinical.RoleClinician
	}
	return clinical.RolePublic
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]string{
		"error": message,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	respondJSON(w, status, response)
}

func main() {
	cfg := config.Load()

	server, err := NewServer(cfg)
	if err != nil {
		logger.Error("failed to create server", "error", err)
		os.Exit(1)
	}
	if server.db != nil {
		defer server.db.Close()
	}

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      server,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	if err := logger.Shutdown(ctx); err != nil {
		logger.Error("logger shutdown error", "error", err)
	}

	logger.Info("server stopped")
}
