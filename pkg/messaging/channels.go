package messaging

// 결제 이벤트 채널 이름
const (
	ChannelPaymentPaid          = "payment.paid"
	ChannelPaymentFailed        = "payment.failed"
	ChannelSubscriptionUpdated  = "subscription.updated"
	ChannelSubscriptionCanceled = "subscription.canceled"
	ChannelRefundCreated        = "refund.created"
)
