package service

import "errors"

// Validation errors are returned before any transaction is opened.
var (
	ErrInvalidQuantity      = errors.New("quantity must be positive")
	ErrInvalidAmount        = errors.New("amount must be a positive number of minor units")
	ErrInvalidPaymentMethod = errors.New("payment method must be a non-empty tag of at most 32 characters")
	ErrInvalidID            = errors.New("identifier must be positive")
)
