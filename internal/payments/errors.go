package payments

import "errors"

var (
	ErrNotFound        = errors.New("transaction not found")
	ErrNotSuccessful   = errors.New("transaction is not successful")
	ErrTerminalState   = errors.New("transaction already in a terminal state")
	ErrAmountMismatch  = errors.New("provider amount or currency does not match transaction")
	ErrAlreadyLinked   = errors.New("transaction already linked to a bot")
	ErrModelNotAllowed = errors.New("model not allowed")
	ErrMissingEmail    = errors.New("email is required")
	ErrGatewayDisabled = errors.New("payment provider not configured")
)
