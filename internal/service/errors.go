package service

import "errors"

var (
	ErrEmptyCart          = errors.New("cart is empty, nothing to checkout")
	ErrValidation         = errors.New("checkout request failed validation")
	ErrUnsupportedMethod  = errors.New("unsupported payment method")
	ErrCheckoutInProgress = errors.New("a checkout for this cart is already in progress")
)
