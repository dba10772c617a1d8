package payments

import (
	"context"
	"testing"
	"time"

	"pigent-app/internal/domain/billing"
	"pigent-app/internal/domain/users"
	"pigent-app/internal/infra/paystack"
	"pigent-app/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweep(t *testing.T) {
	outcomes := map[string]paystack.ChargeStatus{}
	gw := &fakeGateway{}
	svc, db := newService(t, gw)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, users.RoleUser)

	paid := createPending(t, svc.Ledger(), u, "5000")
	declined := createPending(t, svc.Ledger(), u, "5000")
	waiting := createPending(t, svc.Ledger(), u, "5000")
	broken := createPending(t, svc.Ledger(), u, "5000")
	fresh := createPending(t, svc.Ledger(), u, "5000")

	outcomes[paid.Reference] = paystack.ChargeSuccess
	outcomes[declined.Reference] = paystack.ChargeFailed
	outcomes[waiting.Reference] = paystack.ChargePending

	old := time.Now().Add(-time.Hour)
	for _, tx := range []*billing.Transaction{paid, declined, waiting, broken} {
		require.NoError(t, db.Model(&billing.Transaction{}).Where("id = ?", tx.ID).Update("created_at", old).Error)
	}

	gw.verify = func(ref string) (*paystack.VerifyResult, error) {
		status, ok := outcomes[ref]
		if !ok {
			return nil, &paystack.GatewayError{Op: "verify", StatusCode: 503}
		}
		if status == paystack.ChargeSuccess {
			return successResult(ref, 500000), nil
		}
		return &paystack.VerifyResult{HTTPStatus: 200, Status: status, Reference: ref, Raw: map[string]any{}}, nil
	}

	report, err := svc.Sweep(ctx, SweepOptions{OlderThan: 10 * time.Minute, Concurrency: 2})
	require.NoError(t, err)
	assert.Equal(t, SweepReport{Checked: 4, Succeeded: 1, Failed: 1, Unchanged: 1, Errors: 1}, *report)

	get := func(ref string) billing.Status {
		tx, err := svc.Ledger().Get(ctx, ref)
		require.NoError(t, err)
		return tx.Status
	}
	assert.Equal(t, billing.StatusSuccess, get(paid.Reference))
	assert.Equal(t, billing.StatusFailed, get(declined.Reference))
	assert.Equal(t, billing.StatusPending, get(waiting.Reference))
	assert.Equal(t, billing.StatusPending, get(broken.Reference))
	assert.Equal(t, billing.StatusPending, get(fresh.Reference))
	assert.Equal(t, int64(1), countBots(t, db))
}

func TestSweepRequiresGateway(t *testing.T) {
	svc, _ := newService(t, &fakeGateway{disabled: true})
	_, err := svc.Sweep(context.Background(), SweepOptions{})
	assert.ErrorIs(t, err, ErrGatewayDisabled)
}
