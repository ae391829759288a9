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

type SessionHandler struct {
	users  service.UserService
	engine service.LearningEngine
}

func NewSessionHandler(users service.UserService, engine service.LearningEngine) *SessionHandler {
	return &SessionHandler{users: users, engine: engine}
}

// StartSession は今日の学習セッションを開始します。
// 既にアクティブなセッションがある場合は新しいセッションで置き換えます。
func (h *SessionHandler) StartSession(w http.ResponseWriter, r *http.Request) {
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

	session := h.engine.StartDailySession(r.Context(), profile)

	logger.Info("Daily session started",
		"user_id", userID.String(),
		"session_id", session.SessionID.String(),
	)
	webutil.RespondWithJSON(w, http.StatusCreated, session)
}

// GetSession はアクティブなセッションを返します
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	session := h.engine.GetActiveSession(userID)
	if session == nil {
		appErr := model.NewAppError("SESSION_NOT_FOUND", "当前没有进行中的学习会话。", "", model.ErrNotFound)
		webutil.HandleError(w, logger, appErr)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, session)
}

// UpdateSessionStatus はセッション状態を更新します
func (h *SessionHandler) UpdateSessionStatus(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	var req model.PatchSessionRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		logger.Warn("Failed to decode session status request body", "error", err)
		appErr := model.NewAppError("INVALID_REQUEST_BODY", "请求体格式不正确。", "", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	if err := webutil.Validator.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			appErr := webutil.NewValidationErrorResponse(validationErrors)
			webutil.HandleError(w, logger, appErr)
		} else {
			webutil.HandleError(w, logger, err)
		}
		return
	}

	if !req.Status.Valid() {
		appErr := model.NewAppError("INVALID_STATUS", "无效的会话状态。", "status", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	if !h.engine.UpdateSessionStatus(userID, req.Status) {
		appErr := model.NewAppError("SESSION_NOT_FOUND", "当前没有进行中的学习会话。", "", model.ErrNotFound)
		webutil.HandleError(w, logger, appErr)
		return
	}

	logger.Info("Session status updated", "user_id", userID.String(), "status", string(req.Status))
	webutil.RespondWithJSON(w, http.StatusOK, map[string]string{
		"message": "会话状态已更新。",
	})
}

// CompleteSession はセッションを完了させ、最終状態を返します
func (h *SessionHandler) CompleteSession(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	session := h.engine.CompleteSession(userID)
	if session == nil {
		appErr := model.NewAppError("SESSION_NOT_FOUND", "当前没有进行中的学习会话。", "", model.ErrNotFound)
		webutil.HandleError(w, logger, appErr)
		return
	}

	logger.Info("Session completed",
		"user_id", userID.String(),
		"session_id", session.SessionID.String(),
	)
	webutil.RespondWithJSON(w, http.StatusOK, session)
}

// AddActivity はアクティブなセッションにアクティビティを追加します
func (h *SessionHandler) AddActivity(w http.ResponseWriter, r *http.Request) {
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

	if activity.EstimatedTime <= 0 {
		appErr := model.NewAppError("INVALID_REQUEST", "预计时间必须为正数。", "estimated_time", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	if !h.engine.AddActivityToSession(userID, activity) {
		appErr := model.NewAppError("SESSION_NOT_FOUND", "当前没有进行中的学习会话。", "", model.ErrNotFound)
		webutil.HandleError(w, logger, appErr)
		return
	}

	logger.Info("Activity added to session", "user_id", userID.String(), "activity_id", activity.ActivityID)
	webutil.RespondWithJSON(w, http.StatusCreated, map[string]string{
		"message": "活动已添加到当前会话。",
	})
}

// ExecuteSession はセッションの全アクティビティを模擬実行し、結果一覧を返します
func (h *SessionHandler) ExecuteSession(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	results := h.engine.ExecuteSessionActivities(r.Context(), userID)
	if results == nil {
		appErr := model.NewAppError("SESSION_NOT_FOUND", "当前没有进行中的学习会话。", "", model.ErrNotFound)
		webutil.HandleError(w, logger, appErr)
		return
	}

	logger.Info("Session activities executed", "user_id", userID.String(), "count", len(results))
	webutil.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
	})
}
