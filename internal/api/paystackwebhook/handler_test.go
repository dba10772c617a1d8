package paystackwebhook

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pigent-app/internal/domain/billing"
	"pigent-app/internal/domain/bots"
	"pigent-app/internal/domain/users"
	"pigent-app/internal/infra/paystack"
	"pigent-app/internal/payments"
	"pigent-app/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const secret = "sk_test_webhook"

type fixture struct {
	db     *gorm.DB
	ledger *payments.Ledger
	router *gin.Engine
	user   users.User
}

func newFixture(t *testing.T, secret string) *fixture {
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)
	ledger := payments.NewLedger(db, zap.NewNop())

	r := gin.New()
	r.POST("/payments/webhook", New(ledger, secret, zap.NewNop()).PaystackWebhook)

	return &fixture{db: db, ledger: ledger, router: r, user: testutil.CreateUser(t, db, users.RoleUser)}
}

func (f *fixture) pending(t *testing.T) *billing.Transaction {
	t.Helper()
	tx := &billing.Transaction{
		Reference: uuid.NewString(),
		UserID:    f.user.ID,
		Amount:    decimal.NewFromInt(5000),
		Currency:  "NGN",
		Plan:      "starter",
		Quantity:  1,
	}
	require.NoError(t, f.ledger.Create(context.Background(), tx))
	return tx
}

func (f *fixture) post(body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/payments/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(paystack.SignatureHeader, signature)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) status(t *testing.T, ref string) billing.Status {
	t.Helper()
	tx, err := f.ledger.Get(context.Background(), ref)
	require.NoError(t, err)
	return tx.Status
}

func (f *fixture) botCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&bots.BotInstance{}).Count(&n).Error)
	return n
}

func eventBody(t *testing.T, name, ref string, amount int64, currency string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"event": name,
		"data": map[string]any{
			"reference": ref,
			"status":    "success",
			"amount":    amount,
			"currency":  currency,
		},
	})
	require.NoError(t, err)
	return body
}

func TestChargeSuccessProvisionsOnce(t *testing.T) {
	f := newFixture(t, secret)
	tx := f.pending(t)
	body := eventBody(t, "charge.success", tx.Reference, 500000, "NGN")

	w := f.post(body, paystack.Sign(secret, body))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"status":"received"}`, w.Body.String())

	// Paystack retries deliveries; a replay is acknowledged without effect.
	w = f.post(body, paystack.Sign(secret, body))
	assert.Equal(t, http.StatusOK, w.Code)

	stored, err := f.ledger.Get(context.Background(), tx.Reference)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusSuccess, stored.Status)
	require.NotNil(t, stored.BotInstance)
	assert.Equal(t, f.user.ID, stored.BotInstance.OwnerID)
	assert.Equal(t, int64(1), f.botCount(t))
	assert.Contains(t, stored.RawPayload, billing.PayloadEvent)
}

func TestSignatureRequired(t *testing.T) {
	f := newFixture(t, secret)
	tx := f.pending(t)
	body := eventBody(t, "charge.success", tx.Reference, 500000, "NGN")

	assert.Equal(t, http.StatusUnauthorized, f.post(body, "").Code)
	assert.Equal(t, http.StatusUnauthorized, f.post(body, paystack.Sign("wrong", body)).Code)
	assert.Equal(t, http.StatusUnauthorized, f.post(body, "not-hex").Code)

	assert.Equal(t, billing.StatusPending, f.status(t, tx.Reference))
	assert.Zero(t, f.botCount(t))
}

func TestUnsignedAcceptedWithoutSecret(t *testing.T) {
	f := newFixture(t, "")
	tx := f.pending(t)

	w := f.post(eventBody(t, "charge.success", tx.Reference, 500000, "NGN"), "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, billing.StatusSuccess, f.status(t, tx.Reference))
}

func TestMalformedEvents(t *testing.T) {
	f := newFixture(t, secret)

	bad := []byte(`{"event":"charge.success","data":`)
	assert.Equal(t, http.StatusBadRequest, f.post(bad, paystack.Sign(secret, bad)).Code)

	noRef := []byte(`{"event":"charge.success","data":{"amount":100}}`)
	assert.Equal(t, http.StatusBadRequest, f.post(noRef, paystack.Sign(secret, noRef)).Code)

	unknown := eventBody(t, "charge.success", "does-not-exist", 100, "NGN")
	assert.Equal(t, http.StatusNotFound, f.post(unknown, paystack.Sign(secret, unknown)).Code)

	huge := []byte(`{"event":"charge.success","pad":"` + strings.Repeat("x", maxBodyBytes) + `"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, f.post(huge, paystack.Sign(secret, huge)).Code)
}

func TestChargeFailedIsTerminal(t *testing.T) {
	f := newFixture(t, secret)
	tx := f.pending(t)

	failed := eventBody(t, "charge.failed", tx.Reference, 500000, "NGN")
	w := f.post(failed, paystack.Sign(secret, failed))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, billing.StatusFailed, f.status(t, tx.Reference))

	success := eventBody(t, "charge.success", tx.Reference, 500000, "NGN")
	w = f.post(success, paystack.Sign(secret, success))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ignored"}`, w.Body.String())
	assert.Equal(t, billing.StatusFailed, f.status(t, tx.Reference))
	assert.Zero(t, f.botCount(t))
}

func TestChargeErrorAfterSuccessKeepsSuccess(t *testing.T) {
	f := newFixture(t, secret)
	tx := f.pending(t)

	success := eventBody(t, "charge.success", tx.Reference, 500000, "NGN")
	require.Equal(t, http.StatusOK, f.post(success, paystack.Sign(secret, success)).Code)

	charged := eventBody(t, "charge.error", tx.Reference, 500000, "NGN")
	assert.Equal(t, http.StatusOK, f.post(charged, paystack.Sign(secret, charged)).Code)
	assert.Equal(t, billing.StatusSuccess, f.status(t, tx.Reference))
}

func TestAmountMismatchRejected(t *testing.T) {
	f := newFixture(t, secret)
	tx := f.pending(t)

	body := eventBody(t, "charge.success", tx.Reference, 100, "NGN")
	w := f.post(body, paystack.Sign(secret, body))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"rejected"}`, w.Body.String())
	assert.Equal(t, billing.StatusFailed, f.status(t, tx.Reference))
	assert.Zero(t, f.botCount(t))
}

func TestOtherEventsIgnored(t *testing.T) {
	f := newFixture(t, secret)
	tx := f.pending(t)

	body := eventBody(t, "transfer.success", tx.Reference, 500000, "NGN")
	w := f.post(body, paystack.Sign(secret, body))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ignored"}`, w.Body.String())
	assert.Equal(t, billing.StatusPending, f.status(t, tx.Reference))
}
