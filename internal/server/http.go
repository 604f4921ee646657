package server

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gamemaster/gamemaster-server-go/internal/bot"
	"github.com/gamemaster/gamemaster-server-go/internal/config"
	"github.com/gamemaster/gamemaster-server-go/internal/scoring"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// TelegramWebhook is the optional webhook route. Token is the secret path
// segment Telegram posts to.
type TelegramWebhook struct {
	Token   string
	Handler http.Handler
}

type textRequest struct {
	Text string `json:"text" binding:"required"`
}

type httpHandlers struct {
	dispatcher *bot.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewRouter builds the HTTP API. hub serves /ws; webhook may be nil.
func NewRouter(cfg config.HTTPConfig, dispatcher *bot.Dispatcher, hub *Hub, webhook *TelegramWebhook, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(requestLogger(logger), gin.Recovery())
	r.Use(cors.New(corsConfig(cfg.AllowedOrigins)))

	h := &httpHandlers{dispatcher: dispatcher, logger: logger, now: time.Now}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.POST("/score", h.score)
		api.POST("/color-bonus", h.colorBonus)
		api.POST("/messages", h.message)
	}

	r.GET("/ws", hub.ServeWS)

	if webhook != nil && webhook.Handler != nil {
		r.POST("/telegram/:token", telegramWebhook(webhook))
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || containsWildcard(origins) {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

func bindText(c *gin.Context) (string, bool) {
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return "", false
	}
	return strings.TrimSpace(req.Text), true
}

func (h *httpHandlers) score(c *gin.Context) {
	text, ok := bindText(c)
	if !ok {
		return
	}
	result := scoring.EvaluateScore(text)
	c.JSON(http.StatusOK, scorePayload(result, timestamppb.New(h.now())))
}

func (h *httpHandlers) colorBonus(c *gin.Context) {
	text, ok := bindText(c)
	if !ok {
		return
	}
	result := scoring.EvaluateColorBonus(text)
	c.JSON(http.StatusOK, colorBonusPayload(result, timestamppb.New(h.now())))
}

func (h *httpHandlers) message(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	chatID := strings.TrimSpace(req.ChatID)
	if chatID == "" {
		chatID = "http:" + c.ClientIP()
	}

	reply, err := h.dispatcher.Handle(c.Request.Context(), chatID, req.Text)
	if err != nil {
		h.logger.Error("failed to handle message",
			zap.String("chat_id", chatID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to handle message"})
		return
	}

	c.JSON(http.StatusOK, replyPayload(chatID, reply))
}

func telegramWebhook(webhook *TelegramWebhook) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Param("token")
		if webhook.Token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(webhook.Token)) != 1 {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}
		webhook.Handler.ServeHTTP(c.Writer, c.Request)
	}
}
