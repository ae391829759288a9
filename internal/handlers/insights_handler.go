package handlers

import (
	"net/http"
	"time"

	"go_bilingual_tutor/internal/middleware"
	"go_bilingual_tutor/internal/model"
	"go_bilingual_tutor/internal/service"
	"go_bilingual_tutor/internal/webutil"

	"github.com/go-chi/chi/v5"
)

// InsightsHandler は語彙状況・学習インサイト・横断ステータスの参照系を担当します
type InsightsHandler struct {
	users   service.UserService
	engine  service.LearningEngine
	vocab   service.VocabularyTracker
	history service.HistoryIntegrator
}

func NewInsightsHandler(
	users service.UserService,
	engine service.LearningEngine,
	vocab service.VocabularyTracker,
	history service.HistoryIntegrator,
) *InsightsHandler {
	return &InsightsHandler{users: users, engine: engine, vocab: vocab, history: history}
}

// GetVocabulary は指定言語の語彙習得状況を返します
func (h *InsightsHandler) GetVocabulary(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	lang := model.Language(chi.URLParam(r, "language"))
	if !lang.Valid() {
		appErr := model.NewAppError("INVALID_REQUEST", "无效的语言。", "language", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	level := h.vocab.CurrentLevel(userID, lang)
	status := model.VocabularyStatus{
		Language:       lang,
		CurrentLevel:   level,
		MasteredCount:  h.vocab.MasteredCount(userID, lang),
		RequiredCount:  service.LevelRequirement(lang, level),
		LevelCompleted: h.vocab.CheckLevelCompletion(userID, lang),
		ReadyToAdvance: h.vocab.SuggestLevelAdvancement(userID, lang),
		RetentionRate:  h.vocab.CalculateRetentionRate(userID, lang, 30*24*time.Hour),
	}

	webutil.RespondWithJSON(w, http.StatusOK, status)
}

// GetNotifications はレベル昇格などの未読通知を返し、既読にします
func (h *InsightsHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	notifications := h.vocab.GetPendingNotifications(userID)
	h.vocab.ClearNotifications(userID)

	webutil.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": notifications,
	})
}

// GetInsights は履歴分析から得られた学習インサイトを返します
func (h *InsightsHandler) GetInsights(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	insight := h.history.GetPerformanceInsights(userID)
	if insight == nil {
		appErr := model.NewAppError("INSIGHTS_NOT_FOUND", "学习数据还不足，暂时无法生成分析结果。", "", model.ErrNotFound)
		webutil.HandleError(w, logger, appErr)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, insight)
}

// GetStatus は進捗・語彙・弱点をまとめたユーザー状況サマリを返します
func (h *InsightsHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
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

	status := h.engine.GetComprehensiveUserStatus(r.Context(), profile)
	webutil.RespondWithJSON(w, http.StatusOK, status)
}
