package paystack

import "strings"

// ChargeStatus is Paystack's view of a transaction, normalized.
type ChargeStatus string

const (
	ChargeSuccess   ChargeStatus = "success"
	ChargeFailed    ChargeStatus = "failed"
	ChargeAbandoned ChargeStatus = "abandoned"
	ChargePending   ChargeStatus = "pending"
	ChargeReversed  ChargeStatus = "reversed"
	ChargeUnknown   ChargeStatus = "unknown"
)

func ParseChargeStatus(s string) ChargeStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "success":
		return ChargeSuccess
	case "failed":
		return ChargeFailed
	case "abandoned":
		return ChargeAbandoned
	case "ongoing", "pending", "processing", "queued":
		return ChargePending
	case "reversed":
		return ChargeReversed
	default:
		return ChargeUnknown
	}
}

// EventKind groups webhook event names by the ledger action they drive.
type EventKind int

const (
	EventIgnored EventKind = iota
	EventChargeSuccess
	EventChargeFailed
)

func ClassifyEvent(name string) EventKind {
	switch strings.TrimSpace(name) {
	case "charge.success":
		return EventChargeSuccess
	case "charge.failed", "charge.error":
		return EventChargeFailed
	default:
		return EventIgnored
	}
}
