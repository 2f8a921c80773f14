package httpHandler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"crop-advisor/advisory"
	"crop-advisor/usecases"

	"github.com/gin-gonic/gin"
)

const (
	homeMessage    = "✅ CropAdvisor backend is running"
	askInfoMessage = "✅ Use POST to submit farm data for crop recommendations"
)

// maxAskBody bounds the farm input payload.
const maxAskBody = 64 << 10

type AdvisoryHandler struct {
	useCase *usecases.AdvisoryUseCase
	log     *slog.Logger
}

func NewAdvisoryHandler(useCase *usecases.AdvisoryUseCase, log *slog.Logger) *AdvisoryHandler {
	return &AdvisoryHandler{useCase: useCase, log: log}
}

// Home handles GET /
func (h *AdvisoryHandler) Home(c *gin.Context) {
	c.String(http.StatusOK, homeMessage)
}

// AskInfo handles GET /ask
func (h *AdvisoryHandler) AskInfo(c *gin.Context) {
	c.String(http.StatusOK, askInfoMessage)
}

// Ask handles POST /ask. The body is optional; ?format= or the Accept header
// picks text, json or html, and ?stream=true streams raw text.
func (h *AdvisoryHandler) Ask(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxAskBody))
	if err != nil {
		c.String(http.StatusBadRequest, "Bad Request: %s", err.Error())
		return
	}
	raw, err := advisory.DecodeInput(body)
	if err != nil {
		c.String(http.StatusBadRequest, "Bad Request: %s", err.Error())
		return
	}

	if stream, _ := strconv.ParseBool(c.Query("stream")); stream {
		h.stream(c, raw)
		return
	}

	format, ok := negotiateFormat(c)
	if !ok {
		c.String(http.StatusBadRequest, "Bad Request: unsupported format %q", c.Query("format"))
		return
	}

	res, err := h.useCase.Advise(c.Request.Context(), raw)
	if errors.Is(err, advisory.ErrEmptyResponse) {
		c.String(http.StatusOK, advisory.EmptyResponseWarning)
		return
	}
	if err != nil {
		h.log.Error("advisory failed", "error", err)
		c.String(http.StatusInternalServerError, "Internal Server Error: %s", err.Error())
		return
	}

	contentType, out, err := advisory.Render(res, format)
	if err != nil {
		h.log.Error("render failed", "error", err)
		c.String(http.StatusInternalServerError, "Internal Server Error: %s", err.Error())
		return
	}
	c.Data(http.StatusOK, contentType, out)
}

func negotiateFormat(c *gin.Context) (advisory.Format, bool) {
	if q := c.Query("format"); q != "" {
		return advisory.ParseFormat(q)
	}
	switch c.NegotiateFormat(gin.MIMEPlain, gin.MIMEJSON, gin.MIMEHTML) {
	case gin.MIMEJSON:
		return advisory.FormatJSON, true
	case gin.MIMEHTML:
		return advisory.FormatHTML, true
	default:
		return advisory.FormatText, true
	}
}

// stream writes chunks as they arrive. Warnings and the terminal error are
// written inline on their own lines since the status is already sent.
func (h *AdvisoryHandler) stream(c *gin.Context, raw map[string]any) {
	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Header("X-Content-Type-Options", "nosniff")
	c.Status(http.StatusOK)

	err := h.useCase.Stream(c.Request.Context(), raw, func(e usecases.Event) error {
		var text string
		switch e.Type {
		case usecases.EventChunk:
			text = e.Text
		case usecases.EventWarning, usecases.EventError:
			text = "\n" + e.Text + "\n"
		default:
			return nil
		}
		if _, err := c.Writer.WriteString(text); err != nil {
			return err
		}
		c.Writer.Flush()
		return nil
	})
	if err != nil {
		h.log.Warn("stream ended with error", "error", err)
	}
}
