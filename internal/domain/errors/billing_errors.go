package errors

import (
	"fmt"

	pkgErrors "github.com/vihaglobalsystems-prog/selt-backend/pkg/errors"
)

var (
	// ErrUnauthenticatedEvent indicates a webhook payload whose signature could not be verified
	ErrUnauthenticatedEvent = pkgErrors.NewAppError(pkgErrors.ErrUnauthenticated, "Invalid signature", nil)

	// ErrUserNotFound indicates that the referenced user does not exist locally
	ErrUserNotFound = pkgErrors.NewAppError(pkgErrors.ErrNotFound, "User not found", nil)

	// ErrSubscriptionNotFound indicates that the specified subscription was not found
	ErrSubscriptionNotFound = pkgErrors.NewAppError(pkgErrors.ErrNotFound, "Subscription not found", nil)

	// ErrPaymentNotFound indicates that the specified payment was not found
	ErrPaymentNotFound = pkgErrors.NewAppError(pkgErrors.ErrNotFound, "Payment not found", nil)

	// ErrMissingPaymentReference indicates a payment whose Stripe payment intent could not be recovered
	ErrMissingPaymentReference = pkgErrors.NewAppError(pkgErrors.ErrInvalidArgument, "No payment intent found for this payment", nil)

	// ErrForbidden indicates that the caller does not own the resource
	ErrForbidden = pkgErrors.NewAppError(pkgErrors.ErrUnauthorized, "Unauthorized", nil)

	// ErrAlreadyCanceled indicates a cancel request for a canceled subscription
	ErrAlreadyCanceled = pkgErrors.NewAppError(pkgErrors.ErrInvalidArgument, "Subscription already canceled", nil)

	// ErrAdminNotAllowed indicates a sign-in attempt by an email outside the admin allowlist
	ErrAdminNotAllowed = pkgErrors.NewAppError(pkgErrors.ErrUnauthorized, "Access denied. This email is not authorized.", nil)

	// ErrPayloadTooLarge indicates a request body above the accepted size
	ErrPayloadTooLarge = pkgErrors.NewAppError(pkgErrors.ErrPayloadTooLarge, "Payload too large", nil)

	// ErrUpstream indicates a failed call to the payment processor
	ErrUpstream = pkgErrors.NewAppError(pkgErrors.ErrUpstream, "Payment processor request failed", nil)
)

// Upstream wraps a payment processor failure so that it matches ErrUpstream
// while keeping the original cause in the chain.
func Upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrUpstream, err)
}

// InvalidArgument builds a request validation error with a user-facing message.
func InvalidArgument(message string) error {
	return pkgErrors.NewAppError(pkgErrors.ErrInvalidArgument, message, nil)
}
