package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/integrations/M75-support-analytics-service/internal/adapters/reports"
	"github.com/viralforge/mesh/services/integrations/M75-support-analytics-service/internal/application"
	"github.com/viralforge/mesh/services/integrations/M75-support-analytics-service/internal/domain"
)

type Handler struct {
	service *application.Service
	nowFn   func() time.Time
}

func NewHandler(service *application.Service) *Handler {
	return &Handler{service: service, nowFn: func() time.Time { return time.Now().UTC() }}
}

// resolveQuery parses the shared report query surface: preset or explicit
// from/to bounds, plus the attribution mode.
func (h *Handler) resolveQuery(r *http.Request) (application.Window, application.AttributionMode, time.Time, error) {
	now := h.nowFn()
	q := r.URL.Query()
	win, err := h.service.ResolveRange(q.Get("preset"), q.Get("from"), q.Get("to"), now)
	if err != nil {
		return application.Window{}, "", now, err
	}
	mode, err := application.ParseAttributionMode(q.Get("by"))
	if err != nil {
		return application.Window{}, "", now, err
	}
	return win, mode, now, nil
}

func (h *Handler) getOverview(w http.ResponseWriter, r *http.Request) {
	win, mode, now, err := h.resolveQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	report, err := h.service.OverviewReport(r.Context(), win, mode, now)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", report)
}

func (h *Handler) getChatVolume(w http.ResponseWriter, r *http.Request) {
	win, _, _, err := h.resolveQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	volume, err := h.service.ChatVolume(r.Context(), win)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", map[string]any{"window": win, "chat_volume": volume})
}

func (h *Handler) getFRT(w http.ResponseWriter, r *http.Request) {
	win, mode, _, err := h.resolveQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	message, err := h.service.MessageFRT(r.Context(), win)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	issue, err := h.service.IssueFRT(r.Context(), win, mode)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", map[string]any{
		"window":      win,
		"mode":        mode,
		"message_frt": message,
		"issue_frt":   issue,
	})
}

func (h *Handler) getSLA(w http.ResponseWriter, r *http.Request) {
	win, mode, _, err := h.resolveQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sla, err := h.service.ClosureSLA(r.Context(), win, mode)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", map[string]any{"window": win, "mode": mode, "sla": sla})
}

func (h *Handler) getRefunds(w http.ResponseWriter, r *http.Request) {
	win, mode, _, err := h.resolveQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	refunds, err := h.service.Refunds(r.Context(), win, mode)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", map[string]any{"window": win, "mode": mode, "refunds": refunds})
}

func (h *Handler) getFCR(w http.ResponseWriter, r *http.Request) {
	win, _, _, err := h.resolveQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	fcr, err := h.service.FirstContactResolution(r.Context(), win)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", map[string]any{"window": win, "fcr": fcr})
}

func (h *Handler) getLongRunning(w http.ResponseWriter, r *http.Request) {
	win, _, now, err := h.resolveQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	stats, err := h.service.LongRunning(r.Context(), win, now)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", map[string]any{"window": win, "long_running": stats})
}

func (h *Handler) getAbandonment(w http.ResponseWriter, r *http.Request) {
	win, _, now, err := h.resolveQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	stats, err := h.service.Abandonment(r.Context(), win, now)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", map[string]any{"window": win, "abandonment": stats})
}

func (h *Handler) getSatisfaction(w http.ResponseWriter, r *http.Request) {
	win, mode, _, err := h.resolveQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	stats, err := h.service.Satisfaction(r.Context(), win, mode)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", map[string]any{"window": win, "mode": mode, "satisfaction": stats})
}

func (h *Handler) getComparison(w http.ResponseWriter, r *http.Request) {
	win, mode, now, err := h.resolveQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	report, err := h.service.Compare(r.Context(), win, mode, now)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", report)
}

func (h *Handler) getSummaries(w http.ResponseWriter, r *http.Request) {
	day := h.nowFn()
	if raw := r.URL.Query().Get("day"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			h.fail(w, r, fmt.Errorf("%w: invalid day %q", domain.ErrInvalidInput, raw))
			return
		}
		// Snap to mid-day so the date names the business day directly.
		day = parsed.Add(12 * time.Hour)
	}
	summaries, err := h.service.ListDailySummaries(r.Context(), day)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", map[string]any{
		"business_day": domain.BusinessDayDate(day),
		"summaries":    summaries,
	})
}

func (h *Handler) exportReport(w http.ResponseWriter, r *http.Request) {
	win, mode, now, err := h.resolveQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	report, err := h.service.OverviewReport(r.Context(), win, mode, now)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	workbook, err := reports.BuildWorkbook(report)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	defer workbook.Close()
	filename := fmt.Sprintf("support-kpi-%s.xlsx", now.Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := workbook.Write(w); err != nil {
		h.fail(w, r, err)
	}
}

type recordMessageRequest struct {
	CaseID      string `json:"case_id"`
	CustomerRef string `json:"customer_ref"`
	Sender      string `json:"sender"`
	SenderID    string `json:"sender_id"`
	Text        string `json:"text"`
	Kind        string `json:"kind"`
	SentAt      string `json:"sent_at"`
}

func (h *Handler) postMessage(w http.ResponseWriter, r *http.Request) {
	var req recordMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid json body", requestIDFromContext(r.Context()))
		return
	}
	in := application.InboundMessage{
		CustomerRef: req.CustomerRef,
		Sender:      domain.SenderType(req.Sender),
		SenderID:    req.SenderID,
		Text:        req.Text,
		Kind:        domain.MessageKind(req.Kind),
	}
	if req.CaseID != "" {
		caseID, err := uuid.Parse(req.CaseID)
		if err != nil {
			h.fail(w, r, fmt.Errorf("%w: invalid case_id", domain.ErrInvalidInput))
			return
		}
		in.CaseID = &caseID
	}
	if req.SentAt != "" {
		sentAt, err := time.Parse(time.RFC3339, req.SentAt)
		if err != nil {
			h.fail(w, r, fmt.Errorf("%w: invalid sent_at", domain.ErrInvalidInput))
			return
		}
		in.SentAt = sentAt.UTC()
	}
	msg, err := h.service.RecordMessage(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "", msg)
}

func (h *Handler) getCase(w http.ResponseWriter, r *http.Request) {
	caseID, err := h.caseIDParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	row, err := h.service.GetCase(r.Context(), caseID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", row)
}

func (h *Handler) listEpisodes(w http.ResponseWriter, r *http.Request) {
	caseID, err := h.caseIDParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	episodes, err := h.service.ListEpisodes(r.Context(), caseID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", map[string]any{"episodes": episodes})
}

type episodeMutationRequest struct {
	ActorID     string            `json:"actor_id"`
	FinalStatus string            `json:"final_status"`
	Metadata    map[string]string `json:"metadata"`
}

func (h *Handler) openEpisode(w http.ResponseWriter, r *http.Request) {
	caseID, err := h.caseIDParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req episodeMutationRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	episode, err := h.service.EnsureOpenEpisode(r.Context(), caseID, req.Metadata)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "", episode)
}

func (h *Handler) closeEpisode(w http.ResponseWriter, r *http.Request) {
	caseID, err := h.caseIDParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req episodeMutationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid json body", requestIDFromContext(r.Context()))
		return
	}
	episode, err := h.service.CloseCurrentEpisode(r.Context(), caseID, domain.CaseStatus(req.FinalStatus), req.ActorID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if episode == nil {
		writeSuccess(w, http.StatusOK, "no open episode", nil)
		return
	}
	writeSuccess(w, http.StatusOK, "", episode)
}

func (h *Handler) reopenCase(w http.ResponseWriter, r *http.Request) {
	caseID, err := h.caseIDParam(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req episodeMutationRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	episode, err := h.service.Reopen(r.Context(), caseID, req.Metadata, req.ActorID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "", episode)
}

func (h *Handler) caseIDParam(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "case_id")
	caseID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid case_id %q", domain.ErrInvalidInput, raw)
	}
	return caseID, nil
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := mapDomainError(err)
	writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
}
