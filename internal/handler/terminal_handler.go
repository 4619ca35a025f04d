// internal/handler/terminal_handler.go
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"serial-terminal/internal/config"
	"serial-terminal/internal/send"
	"serial-terminal/internal/service"
	"serial-terminal/internal/transport"
	"serial-terminal/internal/utils"
)

// TerminalHandler handles terminal HTTP requests
type TerminalHandler struct {
	terminal *service.TerminalService
	defaults *config.Config
	prefs    *config.Preferences
	logger   *utils.ServiceLogger
}

// NewTerminalHandler creates a new terminal handler
func NewTerminalHandler(terminal *service.TerminalService, cfg *config.Config, prefs *config.Preferences, logger *zap.Logger) *TerminalHandler {
	return &TerminalHandler{
		terminal: terminal,
		defaults: cfg,
		prefs:    prefs,
		logger:   utils.NewServiceLogger(logger, "terminal-handler"),
	}
}

// RegisterRoutes registers terminal routes
func (h *TerminalHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/ports", h.ListPorts)

	session := router.Group("/session")
	{
		session.POST("/open", h.OpenSession)
		session.POST("/close", h.CloseSession)
		session.GET("/status", h.GetStatus)
		session.PUT("/lines/rts", h.SetRTS)
		session.PUT("/lines/dtr", h.SetDTR)
	}

	sendGroup := router.Group("/send")
	{
		sendGroup.POST("/text", h.SendText)
		sendGroup.POST("/hex", h.SendHex)
		sendGroup.POST("/file", h.SendFile)
		sendGroup.POST("/repeat", h.StartRepeat)
		sendGroup.DELETE("/repeat", h.StopRepeat)
	}

	display := router.Group("/display")
	{
		display.GET("", h.GetDisplay)
		display.DELETE("", h.ClearDisplay)
		display.PUT("/mode", h.SetViewMode)
		display.PUT("/timestamps", h.SetTimestamps)
		display.PUT("/pause", h.SetPaused)
	}

	router.GET("/log/raw", h.ExportRawLog)
}

// OpenRequest carries the port settings for an open request. Fields
// left unset fall back to the configured serial defaults.
type OpenRequest struct {
	Address       string  `json:"address" binding:"required"`
	BaudRate      int     `json:"baud_rate"`
	DataBits      int     `json:"data_bits"`
	Parity        string  `json:"parity"`
	StopBits      float64 `json:"stop_bits"`
	RTSCTS        bool    `json:"rtscts"`
	XONXOFF       bool    `json:"xonxoff"`
	DSRDTR        bool    `json:"dsrdtr"`
	ReadTimeoutMS int     `json:"read_timeout_ms"`
}

func (h *TerminalHandler) buildConfig(req *OpenRequest) transport.Config {
	cfg := transport.Config{
		Address:     req.Address,
		BaudRate:    req.BaudRate,
		DataBits:    req.DataBits,
		Parity:      req.Parity,
		StopBits:    req.StopBits,
		RTSCTS:      req.RTSCTS,
		XONXOFF:     req.XONXOFF,
		DSRDTR:      req.DSRDTR,
		ReadTimeout: time.Duration(req.ReadTimeoutMS) * time.Millisecond,
	}

	if cfg.BaudRate == 0 {
		cfg.BaudRate = h.defaults.Serial.BaudRate
	}
	if cfg.DataBits == 0 {
		cfg.DataBits = h.defaults.Serial.DataBits
	}
	if cfg.Parity == "" {
		cfg.Parity = h.defaults.Serial.Parity
	}
	if cfg.StopBits == 0 {
		cfg.StopBits = h.defaults.Serial.StopBits
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = h.defaults.Serial.ReadTimeout
	}
	return cfg
}

// ListPorts lists the serial ports visible on this host
func (h *TerminalHandler) ListPorts(c *gin.Context) {
	ports, err := transport.ListPorts()
	if err != nil {
		h.logger.Error("Failed to enumerate serial ports", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to enumerate serial ports", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Ports retrieved successfully", gin.H{"ports": ports})
}

// OpenSession opens (or reopens) the session with the requested settings
func (h *TerminalHandler) OpenSession(c *gin.Context) {
	var req OpenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	cfg := h.buildConfig(&req)
	if err := h.terminal.Open(cfg); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid port configuration", err)
		return
	}

	h.prefs.RememberSession(cfg)
	h.logger.Info("Session open requested", zap.String("channel", cfg.Describe()))

	// The open happens asynchronously; the outcome arrives on the
	// event stream and in the status endpoint.
	utils.SuccessResponse(c, http.StatusAccepted, "Session open requested", gin.H{
		"config": cfg,
	})
}

// CloseSession closes the session if it is open
func (h *TerminalHandler) CloseSession(c *gin.Context) {
	h.terminal.Close()
	utils.SuccessResponse(c, http.StatusOK, "Session closed", nil)
}

// GetStatus returns the current terminal snapshot
func (h *TerminalHandler) GetStatus(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Status retrieved successfully", h.terminal.Status())
}

// LineRequest carries the level for a control line change
type LineRequest struct {
	Level *bool `json:"level" binding:"required"`
}

// SetRTS sets the RTS control line
func (h *TerminalHandler) SetRTS(c *gin.Context) {
	var req LineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	h.terminal.SetRTS(*req.Level)
	utils.SuccessResponse(c, http.StatusOK, "RTS updated", gin.H{"level": *req.Level})
}

// SetDTR sets the DTR control line
func (h *TerminalHandler) SetDTR(c *gin.Context) {
	var req LineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	h.terminal.SetDTR(*req.Level)
	utils.SuccessResponse(c, http.StatusOK, "DTR updated", gin.H{"level": *req.Level})
}

// SendTextRequest carries a text send request
type SendTextRequest struct {
	Text       string `json:"text"`
	Terminator string `json:"terminator"`
	Encoding   string `json:"encoding"`
}

// SendText encodes and transmits user text
func (h *TerminalHandler) SendText(c *gin.Context) {
	var req SendTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if req.Terminator == "" {
		req.Terminator = h.defaults.Send.Terminator
	}
	if req.Encoding == "" {
		req.Encoding = h.defaults.Send.Encoding
	}

	sent, err := h.terminal.SendText(req.Text, req.Terminator, req.Encoding)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to encode text", err)
		return
	}

	h.prefs.RememberSend(req.Terminator, req.Encoding)
	utils.SuccessResponse(c, http.StatusOK, "Text sent", gin.H{"bytes_sent": sent})
}

// SendHexRequest carries a hex send request
type SendHexRequest struct {
	Hex        string `json:"hex" binding:"required"`
	Terminator string `json:"terminator"`
}

// SendHex parses and transmits free-form hex input
func (h *TerminalHandler) SendHex(c *gin.Context) {
	var req SendHexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if req.Terminator == "" {
		req.Terminator = h.defaults.Send.Terminator
	}

	sent, err := h.terminal.SendHex(req.Hex, req.Terminator)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid hex input", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Hex sent", gin.H{"bytes_sent": sent})
}

// SendFileRequest carries a file send request
type SendFileRequest struct {
	Path      string `json:"path" binding:"required"`
	ChunkSize int    `json:"chunk_size"`
	DelayMS   int    `json:"delay_ms"`
}

// SendFile streams a local file through the session in chunks
func (h *TerminalHandler) SendFile(c *gin.Context) {
	var req SendFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if req.ChunkSize == 0 {
		req.ChunkSize = h.defaults.Send.FileChunkSize
	}
	delay := time.Duration(req.DelayMS) * time.Millisecond
	if req.DelayMS == 0 {
		delay = h.defaults.Send.FileDelay
	}

	var last send.Progress
	err := h.terminal.SendFile(c.Request.Context(), req.Path, req.ChunkSize, delay, func(p send.Progress) {
		last = p
	})
	if err != nil {
		h.logger.Error("File send failed", zap.Error(err), zap.String("path", req.Path))
		utils.ErrorResponse(c, http.StatusInternalServerError, "File send failed", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "File sent", gin.H{
		"bytes_sent": last.Sent,
		"total":      last.Total,
	})
}

// RepeatRequest carries a repeating send request. Exactly one of text
// or hex must be set.
type RepeatRequest struct {
	Text       string `json:"text"`
	Hex        string `json:"hex"`
	Terminator string `json:"terminator"`
	Encoding   string `json:"encoding"`
	IntervalMS int    `json:"interval_ms" binding:"required"`
}

// StartRepeat starts transmitting a payload on a fixed interval
func (h *TerminalHandler) StartRepeat(c *gin.Context) {
	var req RepeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if (req.Text == "") == (req.Hex == "") {
		utils.ErrorResponse(c, http.StatusBadRequest, "Exactly one of text or hex is required", nil)
		return
	}

	if req.Terminator == "" {
		req.Terminator = h.defaults.Send.Terminator
	}
	if req.Encoding == "" {
		req.Encoding = h.defaults.Send.Encoding
	}

	term, err := send.ParseTerminator(req.Terminator)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid terminator", err)
		return
	}

	var payload []byte
	if req.Hex != "" {
		payload, err = send.EncodeHex(req.Hex, term)
	} else {
		payload, err = send.EncodeText(req.Text, term, req.Encoding)
	}
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to encode payload", err)
		return
	}

	interval := time.Duration(req.IntervalMS) * time.Millisecond
	if err := h.terminal.StartRepeat(payload, interval); err != nil {
		utils.ErrorResponse(c, http.StatusConflict, "Failed to start repeat send", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Repeat send started", gin.H{
		"bytes":       len(payload),
		"interval_ms": req.IntervalMS,
	})
}

// StopRepeat stops the repeating send, if any
func (h *TerminalHandler) StopRepeat(c *gin.Context) {
	h.terminal.StopRepeat()
	utils.SuccessResponse(c, http.StatusOK, "Repeat send stopped", nil)
}

// GetDisplay returns the rendered terminal text
func (h *TerminalHandler) GetDisplay(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Display retrieved successfully", gin.H{
		"text": h.terminal.DisplayText(),
	})
}

// ClearDisplay clears the rendered text, the raw log and the counters
func (h *TerminalHandler) ClearDisplay(c *gin.Context) {
	h.terminal.Clear()
	utils.SuccessResponse(c, http.StatusOK, "Display cleared", nil)
}

// ViewModeRequest carries a view mode change
type ViewModeRequest struct {
	Mode string `json:"mode" binding:"required"`
}

// SetViewMode switches between ascii, hex and ascii+hex rendering
func (h *TerminalHandler) SetViewMode(c *gin.Context) {
	var req ViewModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.terminal.SetViewMode(req.Mode); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid view mode", err)
		return
	}

	snapshot := h.terminal.Status()
	h.prefs.RememberDisplay(snapshot.ViewMode, snapshot.Timestamps)
	utils.SuccessResponse(c, http.StatusOK, "View mode updated", gin.H{"mode": snapshot.ViewMode})
}

// ToggleRequest carries a boolean toggle
type ToggleRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// SetTimestamps toggles per-line timestamps
func (h *TerminalHandler) SetTimestamps(c *gin.Context) {
	var req ToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	h.terminal.SetTimestamps(*req.Enabled)
	snapshot := h.terminal.Status()
	h.prefs.RememberDisplay(snapshot.ViewMode, snapshot.Timestamps)
	utils.SuccessResponse(c, http.StatusOK, "Timestamps updated", gin.H{"enabled": *req.Enabled})
}

// SetPaused toggles display pause. Received bytes keep accumulating in
// the raw log while the display is paused.
func (h *TerminalHandler) SetPaused(c *gin.Context) {
	var req ToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	h.terminal.SetPaused(*req.Enabled)
	utils.SuccessResponse(c, http.StatusOK, "Pause updated", gin.H{"paused": *req.Enabled})
}

// ExportRawLog downloads the raw received bytes verbatim
func (h *TerminalHandler) ExportRawLog(c *gin.Context) {
	data := h.terminal.RawLogBytes()
	c.Header("Content-Disposition", `attachment; filename="terminal.raw"`)
	c.Data(http.StatusOK, "application/octet-stream", data)
}
