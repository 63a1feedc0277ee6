package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/price-predictor/internal/domain/pricing"
	apperrors "github.com/yanqian/price-predictor/pkg/errors"
)

const (
	maxBodyBytes  = 1 << 20
	maxFormMemory = 8 << 20
)

// Handler wires the HTTP transport to the pricing service.
type Handler struct {
	pricingSvc pricing.Service
	logger     *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(pricingSvc pricing.Service, logger *slog.Logger) *Handler {
	return &Handler{
		pricingSvc: pricingSvc,
		logger:     logger.With("component", "http.handler"),
	}
}

// PredictStatus is the liveness probe on the prediction route.
func (h *Handler) PredictStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Prediction endpoint is live."})
}

// Predict scores one product submitted as JSON or as a form.
func (h *Handler) Predict(c *gin.Context) {
	in, httpErr := bindRawInput(c)
	if httpErr != nil {
		abortWithError(c, httpErr)
		return
	}

	resp, err := h.pricingSvc.Predict(c.Request.Context(), in)
	if err != nil {
		code := apperrors.CodeOf(err)
		if code == "" {
			code = pricing.CodePredictionFailed
		}
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, code, "Prediction failed: "+errMessage(err), err))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// bindRawInput reads a JSON object when the request declares a JSON body and form fields otherwise.
// Repeated form keys keep their first value.
func bindRawInput(c *gin.Context) (pricing.RawInput, *HTTPError) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)

	if isJSON(c.ContentType()) {
		dec := json.NewDecoder(c.Request.Body)
		dec.UseNumber()
		var payload any
		if err := dec.Decode(&payload); err != nil {
			return nil, NewHTTPError(http.StatusBadRequest, "invalid_request", "request body must be a JSON object", err)
		}
		obj, ok := payload.(map[string]any)
		if !ok {
			return nil, NewHTTPError(http.StatusBadRequest, "invalid_request", "request body must be a JSON object", nil)
		}
		return pricing.RawInput(obj), nil
	}

	if err := c.Request.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid_request", "malformed form body", err)
	}
	in := make(pricing.RawInput, len(c.Request.PostForm))
	for key, values := range c.Request.PostForm {
		if len(values) > 0 {
			in[key] = values[0]
		}
	}
	return in, nil
}

func isJSON(contentType string) bool {
	return contentType == "application/json" || strings.HasSuffix(contentType, "+json")
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
