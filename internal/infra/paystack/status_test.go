package paystack

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseChargeStatus(t *testing.T) {
	cases := map[string]ChargeStatus{
		"success":    ChargeSuccess,
		" SUCCESS ":  ChargeSuccess,
		"failed":     ChargeFailed,
		"abandoned":  ChargeAbandoned,
		"ongoing":    ChargePending,
		"processing": ChargePending,
		"reversed":   ChargeReversed,
		"":           ChargeUnknown,
		"refunded?":  ChargeUnknown,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseChargeStatus(in), in)
	}
}

func TestClassifyEvent(t *testing.T) {
	assert.Equal(t, EventChargeSuccess, ClassifyEvent("charge.success"))
	assert.Equal(t, EventChargeFailed, ClassifyEvent("charge.failed"))
	assert.Equal(t, EventChargeFailed, ClassifyEvent("charge.error"))
	assert.Equal(t, EventIgnored, ClassifyEvent("transfer.success"))
	assert.Equal(t, EventIgnored, ClassifyEvent(""))
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"event":"charge.success","data":{"reference":"r"}}`)
	sig := Sign("whsec", body)

	assert.Len(t, sig, 128)
	assert.True(t, VerifySignature("whsec", body, sig))
	assert.False(t, VerifySignature("other", body, sig))
	assert.False(t, VerifySignature("whsec", append(body, ' '), sig))
	assert.False(t, VerifySignature("whsec", body, ""))
	assert.False(t, VerifySignature("whsec", body, "not-hex"))
}
