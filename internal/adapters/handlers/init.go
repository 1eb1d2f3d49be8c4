package handlers

import (
	"net/http"

	"github.com/sprigga/WebPDTool-sub005/internal/config"
	"github.com/sprigga/WebPDTool-sub005/internal/interfaces"
	"github.com/sprigga/WebPDTool-sub005/internal/middleware/logging"
	"github.com/sprigga/WebPDTool-sub005/internal/middleware/swagger"

	"github.com/gin-gonic/gin"
)

// Handler - структура для обработчиков HTTP-запросов
type Handler struct {
	usecase interfaces.Usecases
	logger  *logging.Logger
}

// NewHandler создает новый экземпляр Handler
func NewHandler(usecase interfaces.Usecases, logger *logging.Logger) *Handler {
	return &Handler{
		usecase: usecase,
		logger:  logger.WithPrefix("HANDLER"),
	}
}

// ProvideRouter настраивает и возвращает HTTP-роутер
func ProvideRouter(h *Handler, cfg *config.AppConfig, swagCfg *swagger.Config) http.Handler {
	gin.SetMode(cfg.GinMode)

	router := gin.Default()

	// Swagger
	swagger.Setup(router, swagCfg)

	// Logger Middleware
	router.Use(LoggingMiddleware(h.logger))

	// Группа API v1
	v1 := router.Group("/api/v1")
	{
		sessions := v1.Group("/session")
		{
			sessions.POST("", h.StartSession)
			sessions.GET("", h.GetSessions)
			sessions.POST("/status", h.GetSessionStatus)
			sessions.POST("/results", h.GetSessionResults)
			sessions.POST("/abort", h.AbortSession)
		}

		instruments := v1.Group("/instrument")
		{
			instruments.POST("/reset", h.ResetInstrument)
			instruments.POST("/status", h.GetInstrumentStatus)
		}
	}

	return router
}
