package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/towerhq/boardroom/internal/advisor"
	"github.com/towerhq/boardroom/internal/board"
	"github.com/towerhq/boardroom/internal/forge"
	"github.com/towerhq/boardroom/internal/schedule"
	"github.com/towerhq/boardroom/internal/store"
)

func (s *Server) registerAPI(mux *http.ServeMux) {
	// Board runs
	mux.HandleFunc("POST /api/runs", s.createRun)
	mux.HandleFunc("POST /api/runs/stream", s.streamRun)
	mux.HandleFunc("GET /api/runs", s.listRuns)
	mux.HandleFunc("GET /api/runs/{id}", s.getRun)
	mux.HandleFunc("GET /api/runs/{id}/brief", s.getRunBrief)
	mux.HandleFunc("DELETE /api/runs/{id}", s.deleteRun)

	// Advisor panel
	mux.HandleFunc("GET /api/advisors", s.listAdvisors)
	mux.HandleFunc("GET /api/advisors/{id}/persona", s.getPersona)
	mux.HandleFunc("PUT /api/advisors/{id}/persona", s.updatePersona)

	// Scheduled reviews
	mux.HandleFunc("GET /api/reviews", s.listReviews)
	mux.HandleFunc("POST /api/reviews", s.createReview)
	mux.HandleFunc("GET /api/reviews/{id}", s.getReview)
	mux.HandleFunc("PUT /api/reviews/{id}", s.updateReview)
	mux.HandleFunc("DELETE /api/reviews/{id}", s.deleteReview)

	// Secrets
	mux.HandleFunc("GET /api/secrets", s.listSecrets)
	mux.HandleFunc("POST /api/secrets", s.createSecret)
	mux.HandleFunc("GET /api/secrets/{name}", s.getSecret)
	mux.HandleFunc("DELETE /api/secrets/{name}", s.deleteSecret)

	// Forge build jobs
	mux.HandleFunc("POST /api/forge/jobs", s.createForgeJob)
	mux.HandleFunc("GET /api/forge/jobs/{id}", s.getForgeJob)

	// System
	mux.HandleFunc("GET /api/status", s.getStatus)
}

type runRequest struct {
	Idea string `json:"idea"`
}

func (s *Server) createRun(w http.ResponseWriter, r *http.Request) {
	var body runRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	run, err := s.engine.Evaluate(r.Context(), body.Idea, nil)
	if err != nil {
		switch {
		case errors.Is(err, board.ErrEmptyIdea):
			jsonError(w, "idea is required", http.StatusBadRequest)
		case errors.Is(err, board.ErrStreamClosed):
			// client went away, nothing to answer
		default:
			jsonError(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	jsonResponse(w, run)
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	runs, err := s.store.ListRuns(limit)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	jsonResponse(w, runs)
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.GetRun(r.PathValue("id"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if run == nil {
		jsonError(w, "run not found", http.StatusNotFound)
		return
	}
	jsonResponse(w, run)
}

func (s *Server) getRunBrief(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.GetRun(r.PathValue("id"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if rec == nil {
		jsonError(w, "run not found", http.StatusNotFound)
		return
	}

	var results []advisor.Result
	if err := json.Unmarshal(rec.Results, &results); err != nil {
		jsonError(w, "stored run is corrupt", http.StatusInternalServerError)
		return
	}

	run := &board.Run{
		ID:             rec.ID,
		Idea:           rec.Idea,
		Results:        results,
		OverallVerdict: rec.OverallVerdict,
		OverallLabel:   rec.OverallLabel,
		TotalMs:        rec.TotalMs,
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	fmt.Fprint(w, board.FormatBrief(run))
}

func (s *Server) deleteRun(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteRun(r.PathValue("id")); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, map[string]string{"status": "deleted"})
}

func (s *Server) listAdvisors(w http.ResponseWriter, r *http.Request) {
	panel := s.engine.Panel()
	out := make([]map[string]string, 0, len(panel))
	for _, role := range panel {
		out = append(out, map[string]string{
			"id":    role.ID,
			"name":  role.Name,
			"emoji": role.Emoji,
			"title": role.Title,
		})
	}
	jsonResponse(w, out)
}

func (s *Server) getPersona(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := s.registry.Get(id); !ok {
		jsonError(w, "advisor not found", http.StatusNotFound)
		return
	}

	persona, err := s.registry.GetPersona(id)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, map[string]string{"id": id, "content": persona})
}

func (s *Server) updatePersona(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := s.registry.Get(id); !ok {
		jsonError(w, "advisor not found", http.StatusNotFound)
		return
	}

	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if body.Content == "" {
		jsonError(w, "content is required", http.StatusBadRequest)
		return
	}

	if err := s.registry.SavePersona(id, body.Content); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, map[string]string{"status": "ok"})
}

func (s *Server) listReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := s.store.ListReviews()
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	out := make([]map[string]any, 0, len(reviews))
	for _, rev := range reviews {
		out = append(out, reviewToAPI(rev))
	}
	jsonResponse(w, out)
}

func (s *Server) createReview(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"`
		Idea     string `json:"idea"`
		Schedule string `json:"schedule"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if body.Idea == "" || body.Schedule == "" {
		jsonError(w, "idea and schedule are required", http.StatusBadRequest)
		return
	}
	if body.Name == "" {
		body.Name = body.Idea
	}

	sched, err := schedule.Parse(body.Schedule)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	raw, err := sched.JSON()
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	next := sched.Next(time.Now())
	if next == nil {
		jsonError(w, "schedule has no future runs", http.StatusBadRequest)
		return
	}

	review := &store.ScheduledReview{
		ID:        uuid.New().String(),
		Name:      body.Name,
		Idea:      body.Idea,
		Schedule:  raw,
		Status:    "active",
		NextRunAt: next,
	}
	if err := s.store.SaveReview(review); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, reviewToAPI(*review))
}

func (s *Server) getReview(w http.ResponseWriter, r *http.Request) {
	review, err := s.store.GetReview(r.PathValue("id"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if review == nil {
		jsonError(w, "review not found", http.StatusNotFound)
		return
	}
	jsonResponse(w, reviewToAPI(*review))
}

func (s *Server) updateReview(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	review, err := s.store.GetReview(id)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if review == nil {
		jsonError(w, "review not found", http.StatusNotFound)
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if body.Status != "active" && body.Status != "paused" {
		jsonError(w, "status must be 'active' or 'paused'", http.StatusBadRequest)
		return
	}

	if err := s.store.UpdateReviewStatus(id, body.Status); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, map[string]string{"status": "ok"})
}

func (s *Server) deleteReview(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteReview(r.PathValue("id")); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, map[string]string{"status": "deleted"})
}

func (s *Server) listSecrets(w http.ResponseWriter, r *http.Request) {
	secrets, err := s.store.ListSecrets()
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if secrets == nil {
		secrets = []store.Secret{}
	}
	jsonResponse(w, secrets)
}

func (s *Server) createSecret(w http.ResponseWriter, r *http.Request) {
	if s.vault == nil {
		jsonError(w, "vault not configured", http.StatusServiceUnavailable)
		return
	}

	var body struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Value       string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if body.Name == "" || body.Value == "" {
		jsonError(w, "name and value are required", http.StatusBadRequest)
		return
	}

	ciphertext, nonce, err := s.vault.Seal([]byte(body.Value))
	if err != nil {
		jsonError(w, "encryption failed", http.StatusInternalServerError)
		return
	}

	sec := &store.Secret{
		Name:        body.Name,
		Description: body.Description,
		Value:       ciphertext,
		Nonce:       nonce,
	}
	if err := s.store.SaveSecret(sec); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, map[string]string{
		"name":        sec.Name,
		"description": sec.Description,
	})
}

// getSecret returns metadata only; decrypted values are reachable via the
// vault CLI, never over HTTP.
func (s *Server) getSecret(w http.ResponseWriter, r *http.Request) {
	sec, err := s.store.GetSecret(r.PathValue("name"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if sec == nil {
		jsonError(w, "secret not found", http.StatusNotFound)
		return
	}
	jsonResponse(w, sec)
}

func (s *Server) deleteSecret(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteSecret(r.PathValue("name")); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, map[string]string{"status": "deleted"})
}

func (s *Server) createForgeJob(w http.ResponseWriter, r *http.Request) {
	if s.forge == nil || !s.forge.Enabled() {
		jsonError(w, "forge not configured", http.StatusServiceUnavailable)
		return
	}

	var body struct {
		RunID string `json:"run_id"`
		Brief string `json:"brief"`
		Kind  string `json:"kind"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	brief := body.Brief
	if brief == "" && body.RunID != "" {
		rec, err := s.store.GetRun(body.RunID)
		if err != nil {
			jsonError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if rec == nil {
			jsonError(w, "run not found", http.StatusNotFound)
			return
		}
		var results []advisor.Result
		if err := json.Unmarshal(rec.Results, &results); err != nil {
			jsonError(w, "stored run is corrupt", http.StatusInternalServerError)
			return
		}
		brief = board.FormatBrief(&board.Run{
			ID:             rec.ID,
			Idea:           rec.Idea,
			Results:        results,
			OverallVerdict: rec.OverallVerdict,
			OverallLabel:   rec.OverallLabel,
			TotalMs:        rec.TotalMs,
		})
	}
	if brief == "" {
		jsonError(w, "brief or run_id is required", http.StatusBadRequest)
		return
	}

	job, err := s.forge.StartJob(r.Context(), brief, body.Kind)
	if err != nil {
		if errors.Is(err, forge.ErrUnavailable) {
			jsonError(w, err.Error(), http.StatusBadGateway)
			return
		}
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	jsonResponse(w, job)
}

func (s *Server) getForgeJob(w http.ResponseWriter, r *http.Request) {
	if s.forge == nil || !s.forge.Enabled() {
		jsonError(w, "forge not configured", http.StatusServiceUnavailable)
		return
	}

	job, err := s.forge.JobStatus(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, forge.ErrUnavailable) {
			jsonError(w, err.Error(), http.StatusBadGateway)
			return
		}
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	jsonResponse(w, job)
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, map[string]any{
		"version":  s.version,
		"uptime":   formatUptime(time.Since(s.startedAt)),
		"advisors": len(s.engine.Panel()),
		"store":    s.store.Path(),
	})
}

func reviewToAPI(rev store.ScheduledReview) map[string]any {
	m := map[string]any{
		"id":       rev.ID,
		"name":     rev.Name,
		"idea":     rev.Idea,
		"schedule": rev.Schedule,
		"status":   rev.Status,
	}
	if sched, err := schedule.Parse(rev.Schedule); err == nil {
		m["schedule_display"] = sched.Describe()
	}
	if rev.NextRunAt != nil {
		m["next_run"] = formatEventTime(*rev.NextRunAt)
	}
	if rev.LastRunAt != nil {
		m["last_run"] = formatEventTime(*rev.LastRunAt)
	}
	if rev.LastRunID != "" {
		m["last_run_id"] = rev.LastRunID
	}
	if rev.LastVerdict != "" {
		m["last_verdict"] = rev.LastVerdict
	}
	if rev.LastError != "" {
		m["last_error"] = rev.LastError
	}
	return m
}

func formatEventTime(t time.Time) string {
	local := t.Local()
	now := time.Now()
	if local.Year() == now.Year() && local.YearDay() == now.YearDay() {
		return local.Format("15:04")
	}
	return local.Format("Jan 2 15:04")
}

func formatUptime(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	mins := int(d.Minutes()) % 60
	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, mins)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	return fmt.Sprintf("%dm", mins)
}

func jsonResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
