package handlers

import (
	"errors"
	"net/http"

	"github.com/sprigga/WebPDTool-sub005/internal/domain/models"
	apperrors "github.com/sprigga/WebPDTool-sub005/pkg/errors"

	"github.com/gin-gonic/gin"
)

// StartSession запускает сессию прогона тест-плана для серийного номера.
// @Summary Запустить тестовую сессию
// @Description Загружает тест-план станции и запускает его выполнение для указанного серийного номера. Выполнение асинхронное: ответ возвращается сразу, прогресс доступен через /session/status.
// @Tags Session
// @Accept json
// @Produce json
// @Param input body models.StartSessionRequest true "Станция и серийный номер изделия"
// @Success 200 {object} models.StartSessionResponse "Сессия создана и запущена"
// @Failure 400 {object} models.ErrorResponse "Неверный формат запроса"
// @Failure 409 {object} models.ErrorResponse "Для этого серийного номера уже идет сессия"
// @Failure 500 {object} models.ErrorResponse "План не найден или некорректен"
// @Router /session [post]
func (h *Handler) StartSession(c *gin.Context) {
	var req models.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err, "Invalid request payload")
		return
	}

	h.logger.Info("Attempting to start a new session", "station_id", req.StationID, "serial_number", req.SerialNumber)

	session, err := h.usecase.StartSession(req)
	if err != nil {
		if errors.Is(err, apperrors.ErrSessionActive) {
			h.ErrorResponse(c, err, http.StatusConflict, apperrors.Conflict, true)
			return
		}
		h.InternalError(c, err)
		return
	}

	h.logger.Info("Successfully started session", "sessionID", session.SessionID)
	c.JSON(http.StatusOK, gin.H{"status": "ok", "session": session})
}

// GetSessions возвращает список всех сессий движка.
// @Summary Получить список сессий
// @Description Возвращает активные и завершенные сессии, известные движку.
// @Tags Session
// @Produce json
// @Success 200 {object} models.GetSessionsResponse "Список сессий"
// @Router /session [get]
func (h *Handler) GetSessions(c *gin.Context) {
	sessions := h.usecase.GetAllSessions()
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"count":    len(sessions),
		"sessions": sessions,
	})
}

// GetSessionStatus возвращает состояние сессии по SessionID.
// @Summary Получить статус сессии
// @Description Возвращает агрегатное состояние сессии и прогресс по шагам.
// @Tags Session
// @Accept json
// @Produce json
// @Param input body models.SessionRequest true "ID сессии"
// @Success 200 {object} models.SessionStatusResponse "Текущее состояние сессии"
// @Failure 400 {object} models.ErrorResponse "Неверный формат запроса"
// @Failure 404 {object} models.ErrorResponse "Сессия не найдена"
// @Router /session/status [post]
func (h *Handler) GetSessionStatus(c *gin.Context) {
	var req models.SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err, "Missing or invalid SessionID")
		return
	}

	session, err := h.usecase.GetSession(req.SessionID)
	if err != nil {
		h.NotFound(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "session": session})
}

// GetSessionResults возвращает результаты шагов сессии.
// @Summary Получить результаты сессии
// @Description Возвращает упорядоченные результаты всех выполненных шагов сессии, включая SKIP-шаги.
// @Tags Session
// @Accept json
// @Produce json
// @Param input body models.SessionRequest true "ID сессии"
// @Success 200 {object} models.SessionResultsResponse "Результаты шагов"
// @Failure 400 {object} models.ErrorResponse "Неверный формат запроса"
// @Failure 404 {object} models.ErrorResponse "Сессия не найдена"
// @Router /session/results [post]
func (h *Handler) GetSessionResults(c *gin.Context) {
	var req models.SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err, "Missing or invalid SessionID")
		return
	}

	results, err := h.usecase.GetResults(req.SessionID)
	if err != nil {
		h.NotFound(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "results": results})
}

// AbortSession прерывает выполняющуюся сессию.
// @Summary Прервать сессию
// @Description Прерывает выполнение сессии. Текущий шаг останавливается, оставшиеся шаги получают вердикт SKIP, сессия завершается в ERROR.
// @Tags Session
// @Accept json
// @Produce json
// @Param input body models.SessionRequest true "ID сессии"
// @Success 200 {object} models.MessageResponse "Сессия прервана"
// @Failure 400 {object} models.ErrorResponse "Неверный формат запроса или сессия уже завершена"
// @Failure 404 {object} models.ErrorResponse "Сессия не найдена"
// @Router /session/abort [post]
func (h *Handler) AbortSession(c *gin.Context) {
	var req models.SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err, "Missing or invalid SessionID")
		return
	}

	h.logger.Info("Attempting to abort session", "sessionID", req.SessionID)

	if err := h.usecase.AbortSession(req.SessionID); err != nil {
		if errors.Is(err, apperrors.ErrSessionNotFound) {
			h.NotFound(c, err)
			return
		}
		h.BadRequest(c, err, "Failed to abort session")
		return
	}

	h.logger.Info("Successfully aborted session", "sessionID", req.SessionID)
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Session " + req.SessionID + " aborted",
	})
}
