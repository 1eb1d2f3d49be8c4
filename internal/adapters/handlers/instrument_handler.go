package handlers

import (
	"net/http"

	"github.com/sprigga/WebPDTool-sub005/internal/domain/models"

	"github.com/gin-gonic/gin"
)

// ResetInstrument сбрасывает соединение с инструментом.
// @Summary Сбросить инструмент
// @Description Закрывает соединение с инструментом в пуле. Следующее обращение откроет его заново и выполнит инициализацию.
// @Tags Instrument
// @Accept json
// @Produce json
// @Param input body models.InstrumentRequest true "Логический ID инструмента"
// @Success 200 {object} models.MessageResponse "Инструмент сброшен"
// @Failure 400 {object} models.ErrorResponse "Неверный формат запроса"
// @Failure 404 {object} models.ErrorResponse "Инструмент не зарегистрирован"
// @Router /instrument/reset [post]
func (h *Handler) ResetInstrument(c *gin.Context) {
	var req models.InstrumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err, "Missing or invalid InstrumentID")
		return
	}

	h.logger.Info("Attempting to reset instrument", "instrumentID", req.InstrumentID)

	if err := h.usecase.ResetInstrument(c.Request.Context(), req.InstrumentID); err != nil {
		h.NotFound(c, err)
		return
	}

	h.logger.Info("Successfully reset instrument", "instrumentID", req.InstrumentID)
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Instrument " + req.InstrumentID + " reset successfully",
	})
}

// GetInstrumentStatus возвращает состояние инструмента в пуле.
// @Summary Получить статус инструмента
// @Description Возвращает состояние соединения и счетчики использования инструмента.
// @Tags Instrument
// @Accept json
// @Produce json
// @Param input body models.InstrumentRequest true "Логический ID инструмента"
// @Success 200 {object} models.InstrumentStatusResponse "Состояние инструмента"
// @Failure 400 {object} models.ErrorResponse "Неверный формат запроса"
// @Failure 404 {object} models.ErrorResponse "Инструмент не зарегистрирован"
// @Router /instrument/status [post]
func (h *Handler) GetInstrumentStatus(c *gin.Context) {
	var req models.InstrumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err, "Missing or invalid InstrumentID")
		return
	}

	status, err := h.usecase.GetInstrumentStatus(req.InstrumentID)
	if err != nil {
		h.NotFound(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "instrument": status})
}
