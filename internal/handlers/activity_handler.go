package handlers

import (
	"errors"
	"net/http"
	"time"

	"go_bilingual_tutor/internal/middleware"
	"go_bilingual_tutor/internal/model"
	"go_bilingual_tutor/internal/service"
	"go_bilingual_tutor/internal/webutil"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type ActivityHandler struct {
	users  service.UserService
	engine service.LearningEngine
}

func NewActivityHandler(users service.UserService, engine service.LearningEngine) *ActivityHandler {
	return &ActivityHandler{users: users, engine: engine}
}

// ExecuteActivity はアクティビティを模擬実行し、採点結果を返します。
// 結果は記録されません。記録するには result エンドポイントを使います。
func (h *ActivityHandler) ExecuteActivity(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	var activity model.LearningActivity
	if err := webutil.DecodeJSONBody(r, &activity); err != nil {
		logger.Warn("Failed to decode activity body", "error", err)
		appErr := model.NewAppError("INVALID_REQUEST_BODY", "请求体格式不正确。", "", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	if activity.EstimatedTime <= 0 {
		appErr := model.NewAppError("INVALID_REQUEST", "预计时间必须为正数。", "estimated_time", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	result := h.engine.ExecuteLearningActivity(&activity)
	webutil.RespondWithJSON(w, http.StatusOK, result)
}

// SubmitResult は実際の学習結果を記録し、進捗・語彙・弱点の更新をトリガーします
func (h *ActivityHandler) SubmitResult(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	activityID := chi.URLParam(r, "activity_id")
	if activityID == "" {
		appErr := model.NewAppError("INVALID_REQUEST", "需要提供活动ID。", "activity_id", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	var req model.PostResultRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		logger.Warn("Failed to decode result body", "error", err)
		appErr := model.NewAppError("INVALID_REQUEST_BODY", "请求体格式不正确。", "", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	if err := webutil.Validator.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			logger.Warn("Validation failed for result", "errors", validationErrors.Error())
			appErr := webutil.NewValidationErrorResponse(validationErrors)
			webutil.HandleError(w, logger, appErr)
		} else {
			webutil.HandleError(w, logger, err)
		}
		return
	}

	// 復習アクティビティだけは両言語にまたがる mixed を許可する
	if !req.Language.Valid() && req.Language != model.LanguageMixed {
		appErr := model.NewAppError("INVALID_REQUEST", "无效的语言。", "language", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	profile, err := h.users.GetUser(r.Context(), userID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	activity := &model.LearningActivity{
		ActivityID:      activityID,
		Type:            req.ActivityType,
		Language:        req.Language,
		EstimatedTime:   req.TimeSpent,
		SkillsPracticed: req.SkillsPracticed,
	}
	result := &model.ActivityResult{
		ResultID:        uuid.New(),
		UserID:          userID,
		ActivityID:      activityID,
		ActivityType:    req.ActivityType,
		Language:        req.Language,
		SkillsPracticed: req.SkillsPracticed,
		Score:           *req.Score,
		TimeSpent:       req.TimeSpent,
		Errors:          req.Errors,
		Words:           req.Words,
		CompletedAt:     time.Now(),
	}

	if err := h.engine.ProcessActivityCompletion(r.Context(), profile, activity, result); err != nil {
		logger.Error("Failed to process activity completion", "error", err)
		appErr := model.NewAppError("INTERNAL_SERVER_ERROR", "记录学习结果失败。", "", err)
		webutil.HandleError(w, logger, appErr)
		return
	}

	logger.Info("Activity result recorded",
		"user_id", userID.String(),
		"activity_id", activityID,
		"score", result.Score,
	)
	webutil.RespondWithJSON(w, http.StatusCreated, result)
}

// PredictPerformance はアクティビティの予測スコアを返します
func (h *ActivityHandler) PredictPerformance(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	var activity model.LearningActivity
	if err := webutil.DecodeJSONBody(r, &activity); err != nil {
		logger.Warn("Failed to decode activity body", "error", err)
		appErr := model.NewAppError("INVALID_REQUEST_BODY", "请求体格式不正确。", "", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	predicted := h.engine.PredictActivityPerformance(userID, &activity)
	webutil.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"activity_id":     activity.ActivityID,
		"predicted_score": predicted,
	})
}
