// Package event classifies verified Stripe events into the closed set of
// kinds the reconciler knows how to apply.
package event

// Kind is a closed enumeration of handled Stripe event types.
type Kind int

const (
	Unknown Kind = iota
	CheckoutCompleted
	InvoicePaid
	InvoicePaymentFailed
	SubscriptionUpdated
	SubscriptionDeleted
)

// Stripe event type tags
const (
	TypeCheckoutSessionCompleted    = "checkout.session.completed"
	TypeInvoicePaid                 = "invoice.paid"
	TypeInvoicePaymentFailed        = "invoice.payment_failed"
	TypeCustomerSubscriptionUpdated = "customer.subscription.updated"
	TypeCustomerSubscriptionDeleted = "customer.subscription.deleted"
)

var kindByType = map[string]Kind{
	TypeCheckoutSessionCompleted:    CheckoutCompleted,
	TypeInvoicePaid:                 InvoicePaid,
	TypeInvoicePaymentFailed:        InvoicePaymentFailed,
	TypeCustomerSubscriptionUpdated: SubscriptionUpdated,
	TypeCustomerSubscriptionDeleted: SubscriptionDeleted,
}

// Classify maps a Stripe event type tag to a Kind. Unrecognised tags map to
// Unknown so new upstream event types never fail delivery.
func Classify(eventType string) Kind {
	if k, ok := kindByType[eventType]; ok {
		return k
	}
	return Unknown
}

func (k Kind) String() string {
	switch k {
	case CheckoutCompleted:
		return "checkout_completed"
	case InvoicePaid:
		return "invoice_paid"
	case InvoicePaymentFailed:
		return "invoice_payment_failed"
	case SubscriptionUpdated:
		return "subscription_updated"
	case SubscriptionDeleted:
		return "subscription_deleted"
	default:
		return "unknown"
	}
}
