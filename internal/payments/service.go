package payments

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"pigent-app/internal/domain/billing"
	"pigent-app/internal/domain/pricing"
	"pigent-app/internal/infra/paystack"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Gateway is the subset of the Paystack client the workflow needs.
type Gateway interface {
	Configured() bool
	Initialize(ctx context.Context, req paystack.InitializeRequest) (*paystack.InitializeResult, error)
	Verify(ctx context.Context, reference string) (*paystack.VerifyResult, error)
}

type Options struct {
	Catalog       *pricing.Catalog
	AllowedModels []string
	CallbackURL   string
	// VerifyTimeout bounds one shared reconcile, retries included.
	VerifyTimeout time.Duration
}

const defaultVerifyTimeout = time.Minute

// Service runs checkout and reconciliation on top of the ledger.
type Service struct {
	ledger  *Ledger
	gateway Gateway
	opts    Options
	logger  *zap.Logger

	verifies singleflight.Group
}

func NewService(ledger *Ledger, gateway Gateway, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		ledger:  ledger,
		gateway: gateway,
		opts:    opts,
		logger:  logger.Named("payments"),
	}
}

func (s *Service) Ledger() *Ledger {
	return s.ledger
}

type Payer struct {
	UserID uint
	Email  string
}

type CheckoutRequest struct {
	Currency string
	Plan     string
	Quantity int
	Express  bool
	Model    string
}

type CheckoutResult struct {
	AuthorizationURL string
	Reference        string
	Amount           decimal.Decimal
	Currency         string
}

// Checkout prices the request, records a pending transaction and initializes
// it at Paystack. Validation failures return before anything is stored.
// A gateway failure marks the transaction failed and returns the
// *paystack.GatewayError.
func (s *Service) Checkout(ctx context.Context, payer Payer, req CheckoutRequest) (*CheckoutResult, error) {
	if strings.TrimSpace(payer.Email) == "" {
		return nil, ErrMissingEmail
	}

	amount, err := s.opts.Catalog.Resolve(pricing.Request{
		Currency: req.Currency,
		Plan:     req.Plan,
		Quantity: req.Quantity,
		Express:  req.Express,
	})
	if err != nil {
		return nil, err
	}

	model := strings.TrimSpace(req.Model)
	if model != "" && !slices.Contains(s.opts.AllowedModels, model) {
		return nil, fmt.Errorf("%w: %s", ErrModelNotAllowed, model)
	}

	if !s.gateway.Configured() {
		return nil, ErrGatewayDisabled
	}

	t := &billing.Transaction{
		Reference: uuid.NewString(),
		UserID:    payer.UserID,
		Amount:    amount,
		Currency:  pricing.NormalizeCurrency(req.Currency),
		Plan:      strings.ToLower(strings.TrimSpace(req.Plan)),
		Quantity:  pricing.ClampQuantity(req.Quantity),
		Express:   req.Express,
		Model:     model,
	}
	if err := s.ledger.Create(ctx, t); err != nil {
		return nil, err
	}

	log := s.logger.With(zap.String("reference", t.Reference), zap.Uint("user_id", payer.UserID))

	res, err := s.gateway.Initialize(ctx, paystack.InitializeRequest{
		Email:       payer.Email,
		AmountMinor: pricing.ToMinorUnits(amount),
		Currency:    t.Currency,
		Reference:   t.Reference,
		CallbackURL: s.opts.CallbackURL,
		Metadata: map[string]any{
			"user_id":  payer.UserID,
			"plan":     t.Plan,
			"quantity": t.Quantity,
			"express":  t.Express,
			"model":    t.Model,
		},
	})
	if err != nil {
		log.Warn("initialize failed", zap.Error(err))
		if _, markErr := s.ledger.MarkFailed(ctx, t.Reference, billing.PayloadError, gatewayAudit(err)); markErr != nil {
			log.Error("could not mark transaction failed", zap.Error(markErr))
		}
		return nil, err
	}

	if err := s.ledger.RecordPayload(ctx, t.Reference, billing.PayloadInitialize, res.Raw); err != nil {
		log.Error("could not store initialize payload", zap.Error(err))
	}

	log.Info("checkout initialized", zap.String("amount", amount.StringFixed(2)), zap.String("currency", t.Currency))
	return &CheckoutResult{
		AuthorizationURL: res.AuthorizationURL,
		Reference:        t.Reference,
		Amount:           amount,
		Currency:         t.Currency,
	}, nil
}

// Reconcile asks Paystack for the status of the caller's transaction and
// applies it locally: success runs the same path as the webhook, and a
// success that was recorded without a bot gets one. Concurrent calls for one
// reference share a single provider round trip.
func (s *Service) Reconcile(ctx context.Context, reference string, userID uint) (*paystack.VerifyResult, error) {
	if _, err := s.ledger.GetOwned(ctx, reference, userID); err != nil {
		return nil, err
	}
	if !s.gateway.Configured() {
		return nil, ErrGatewayDisabled
	}

	return s.reconcileShared(ctx, reference)
}

// reconcileShared joins or starts the reconcile of a reference. The shared
// call does not inherit the caller's cancellation, so one caller going away
// does not fail the others; it is bounded by VerifyTimeout instead.
func (s *Service) reconcileShared(ctx context.Context, reference string) (*paystack.VerifyResult, error) {
	ch := s.verifies.DoChan(reference, func() (any, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.verifyTimeout())
		defer cancel()
		return s.reconcile(shared, reference)
	})

	select {
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*paystack.VerifyResult), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Service) verifyTimeout() time.Duration {
	if s.opts.VerifyTimeout > 0 {
		return s.opts.VerifyTimeout
	}
	return defaultVerifyTimeout
}

func (s *Service) reconcile(ctx context.Context, reference string) (*paystack.VerifyResult, error) {
	log := s.logger.With(zap.String("reference", reference))

	res, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		return nil, err
	}

	switch res.Status {
	case paystack.ChargeSuccess:
		out, err := s.ledger.MarkSuccess(ctx, reference, Confirmation{
			Source:   billing.PayloadVerify,
			Amount:   res.Amount,
			Currency: res.Currency,
			Payload:  res.Raw,
		})
		switch {
		case errors.Is(err, ErrNotFound):
			return res, nil
		case errors.Is(err, ErrTerminalState), errors.Is(err, ErrAmountMismatch):
			log.Warn("provider success not applied", zap.Error(err))
			return res, nil
		case err != nil:
			return nil, err
		}
		if !out.Changed && out.Transaction.BotInstanceID == nil {
			if _, err := s.ledger.EnsureBot(ctx, reference); err != nil {
				return nil, err
			}
		}

	case paystack.ChargeFailed:
		if _, err := s.ledger.MarkFailed(ctx, reference, billing.PayloadVerify, res.Raw); err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}

	default:
		log.Debug("provider status leaves transaction unchanged", zap.String("status", string(res.Status)))
	}

	return res, nil
}

func gatewayAudit(err error) map[string]any {
	audit := map[string]any{"message": err.Error()}
	var gwErr *paystack.GatewayError
	if errors.As(err, &gwErr) {
		audit["status_code"] = gwErr.StatusCode
		audit["body"] = gwErr.Payload()
	}
	return audit
}
