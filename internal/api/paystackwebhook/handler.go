package paystackwebhook

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"pigent-app/internal/apperrors"
	"pigent-app/internal/infra/paystack"
	"pigent-app/internal/logger"
	"pigent-app/internal/payments"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxBodyBytes = 64 << 10

type Handler struct {
	ledger *payments.Ledger
	secret string
	logger *zap.Logger
}

// New builds the webhook endpoint. With an empty secret, events are accepted
// unsigned; this is only meant for local development.
func New(ledger *payments.Ledger, secret string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{ledger: ledger, secret: secret, logger: logger.Named("webhook")}
}

type event struct {
	Event string    `json:"event"`
	Data  eventData `json:"data"`
}

type eventData struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
}

func (h *Handler) PaystackWebhook(c *gin.Context) {
	log := logger.FromContext(c.Request.Context(), h.logger)

	payload, err := readBody(c, maxBodyBytes)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apperrors.Respond(c, apperrors.New(apperrors.CodeValidationFailed, "Payload too large", http.StatusRequestEntityTooLarge))
			return
		}
		apperrors.Respond(c, apperrors.BadRequest("Error reading request body"))
		return
	}

	if h.secret != "" {
		if !paystack.VerifySignature(h.secret, payload, c.GetHeader(paystack.SignatureHeader)) {
			log.Warn("paystack signature verification failed")
			apperrors.Respond(c, apperrors.Unauthorized("Invalid signature"))
			return
		}
	} else {
		log.Warn("webhook secret not configured, accepting unsigned event")
	}

	var ev event
	var raw map[string]any
	if err := json.Unmarshal(payload, &ev); err != nil {
		apperrors.Respond(c, apperrors.BadRequest("Malformed JSON"))
		return
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		apperrors.Respond(c, apperrors.BadRequest("Malformed JSON"))
		return
	}
	if ev.Data.Reference == "" {
		apperrors.Respond(c, apperrors.Validation("data.reference", "Missing reference"))
		return
	}

	log = log.With(zap.String("event", ev.Event), zap.String("reference", ev.Data.Reference))

	if _, err := h.ledger.Get(c.Request.Context(), ev.Data.Reference); err != nil {
		if errors.Is(err, payments.ErrNotFound) {
			log.Warn("webhook for unknown reference")
			apperrors.Respond(c, apperrors.NotFound("Transaction not found"))
			return
		}
		apperrors.Respond(c, apperrors.Internal(err))
		return
	}

	switch paystack.ClassifyEvent(ev.Event) {
	case paystack.EventChargeSuccess:
		h.respond(c, log, h.handleChargeSuccess(c, ev, raw))
	case paystack.EventChargeFailed:
		h.respond(c, log, h.handleChargeFailed(c, ev, raw))
	default:
		// Acknowledge unknown events to avoid retries
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
	}
}

// respond acknowledges events that must not be retried. Only unexpected
// failures return 500 so Paystack delivers the event again.
func (h *Handler) respond(c *gin.Context, log *zap.Logger, err error) {
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": "received"})
	case errors.Is(err, payments.ErrNotFound):
		apperrors.Respond(c, apperrors.NotFound("Transaction not found"))
	case errors.Is(err, payments.ErrAmountMismatch):
		c.JSON(http.StatusOK, gin.H{"status": "rejected"})
	case errors.Is(err, payments.ErrTerminalState):
		log.Info("event for settled transaction", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
	default:
		apperrors.Respond(c, apperrors.Internal(err))
	}
}

func readBody(c *gin.Context, maxBytes int64) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	return io.ReadAll(c.Request.Body)
}
