package handlers

import (
	"errors"
	"net/http"

	"go_bilingual_tutor/internal/middleware"
	"go_bilingual_tutor/internal/model"
	"go_bilingual_tutor/internal/service"
	"go_bilingual_tutor/internal/webutil"

	"github.com/go-playground/validator/v10"
)

type PlanHandler struct {
	users  service.UserService
	engine service.LearningEngine
}

func NewPlanHandler(users service.UserService, engine service.LearningEngine) *PlanHandler {
	return &PlanHandler{users: users, engine: engine}
}

// GeneratePlan はその日の学習計画を生成して返します。
// ボディは省略可能で、total_minutes でプロファイルの学習時間を一時的に上書きできます。
func (h *PlanHandler) GeneratePlan(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	var req model.PlanRequest
	if r.ContentLength > 0 {
		if err := webutil.DecodeJSONBody(r, &req); err != nil {
			logger.Warn("Failed to decode plan request body", "error", err)
			appErr := model.NewAppError("INVALID_REQUEST_BODY", "请求体格式不正确。", "", model.ErrInvalidInput)
			webutil.HandleError(w, logger, appErr)
			return
		}
		if err := webutil.Validator.Struct(req); err != nil {
			var validationErrors validator.ValidationErrors
			if errors.As(err, &validationErrors) {
				logger.Warn("Validation failed for plan request", "errors", validationErrors.Error())
				appErr := webutil.NewValidationErrorResponse(validationErrors)
				webutil.HandleError(w, logger, appErr)
			} else {
				webutil.HandleError(w, logger, err)
			}
			return
		}
	}

	profile, err := h.users.GetUser(r.Context(), userID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	if req.TotalMinutes != nil {
		// プロファイル本体は変更せず、この計画だけ時間を上書きする
		override := *profile
		override.DailyStudyTime = *req.TotalMinutes
		profile = &override
	}

	plan := h.engine.GenerateLearningPlan(r.Context(), profile)

	logger.Info("Daily plan generated",
		"user_id", userID.String(),
		"plan_id", plan.PlanID.String(),
		"activities", len(plan.Activities),
		"total_minutes", plan.Allocation.TotalMinutes,
	)
	webutil.RespondWithJSON(w, http.StatusOK, plan)
}

// GetRecommendations は弱点に基づく学習の推奨事項を返します
func (h *PlanHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	profile, err := h.users.GetUser(r.Context(), userID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	recommendations := h.engine.GetWeaknessFocusRecommendations(profile)
	webutil.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":         userID,
		"recommendations": recommendations,
	})
}
