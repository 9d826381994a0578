package pipeline

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-raas/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-raas/internal/auth"
	"github.com/ovaphlow/pitchfork/service-raas/internal/web"
)

type Handler struct {
	runner *Runner
	logger *zap.SugaredLogger
}

func NewHandler(runner *Runner, logger *zap.SugaredLogger) *Handler {
	return &Handler{runner: runner, logger: logger}
}

type executeRequest struct {
	OutcomeID string `json:"outcomeId"`
	Resume    bool   `json:"resume"`
}

type executeResponse struct {
	Success bool `json:"success"`
	*Report
}

type failureResponse struct {
	Error       string         `json:"error"`
	FailedStage Role           `json:"failedStage"`
	Agents      []AgentSummary `json:"agents"`
}

// Execute handles POST /raas-api/agent/execute.
func (h *Handler) Execute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := web.DecodeJSON(r, &req); err != nil {
		web.WriteError(w, h.logger, err, "invalid payload")
		return
	}
	if req.OutcomeID == "" {
		web.WriteError(w, h.logger, apperr.Validation("outcomeId required"), "")
		return
	}
	id, err := uuid.Parse(req.OutcomeID)
	if err != nil {
		web.WriteError(w, h.logger, apperr.Validation("invalid outcomeId"), "")
		return
	}
	actor, _ := auth.FromContext(r.Context())

	report, err := h.runner.Run(r.Context(), id, RunOptions{Resume: req.Resume, Actor: actor})
	if err != nil {
		if report != nil && report.FailedStage != "" {
			h.logger.Errorw("agent pipeline failed", "outcome_id", id, "stage", report.FailedStage, "err", err)
			web.WriteJSON(w, http.StatusInternalServerError, failureResponse{
				Error:       "Agent execution failed at stage " + string(report.FailedStage),
				FailedStage: report.FailedStage,
				Agents:      report.Agents,
			})
			return
		}
		web.WriteError(w, h.logger, err, "Agent execution failed")
		return
	}
	web.WriteJSON(w, http.StatusOK, executeResponse{Success: true, Report: report})
}

// History handles GET /raas-api/agent/executions/{id}.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		web.WriteError(w, h.logger, apperr.Validation("invalid outcome id"), "")
		return
	}
	actor, _ := auth.FromContext(r.Context())
	hist, err := h.runner.History(r.Context(), id, actor)
	if err != nil {
		web.WriteError(w, h.logger, err, "failed to load pipeline history")
		return
	}
	web.WriteJSON(w, http.StatusOK, hist)
}
