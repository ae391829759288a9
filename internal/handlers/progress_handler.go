package handlers

import (
	"net/http"
	"strconv"
	"time"

	"go_bilingual_tutor/internal/middleware"
	"go_bilingual_tutor/internal/model"
	"go_bilingual_tutor/internal/service"
	"go_bilingual_tutor/internal/webutil"
)

type ProgressHandler struct {
	tracker service.ProgressTracker
}

func NewProgressHandler(tracker service.ProgressTracker) *ProgressHandler {
	return &ProgressHandler{tracker: tracker}
}

// GetReport は期間指定の進捗レポートを返します。period は weekly / monthly
func (h *ProgressHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	period := r.URL.Query().Get("period")
	switch period {
	case "", "weekly", "monthly":
	default:
		appErr := model.NewAppError("INVALID_REQUEST", "period 只支持 weekly 或 monthly。", "period", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	report := h.tracker.GenerateProgressReport(userID, period)
	webutil.RespondWithJSON(w, http.StatusOK, report)
}

// GetMetrics は現在の進捗メトリクスを返します
func (h *ProgressHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	metrics := h.tracker.GetCurrentMetrics(userID)
	webutil.RespondWithJSON(w, http.StatusOK, metrics)
}

// GetVelocity は指定日数あたりの学習速度と達成率を返します
func (h *ProgressHandler) GetVelocity(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	days := 7
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 365 {
			appErr := model.NewAppError("INVALID_REQUEST", "days 必须是 1 到 365 之间的整数。", "days", model.ErrInvalidInput)
			webutil.HandleError(w, logger, appErr)
			return
		}
		days = parsed
	}

	timeframe := time.Duration(days) * 24 * time.Hour
	webutil.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":          userID,
		"days":             days,
		"velocity":         h.tracker.CalculateLearningVelocity(userID, timeframe),
		"achievement_rate": h.tracker.CalculateAchievementRate(userID, timeframe),
	})
}
