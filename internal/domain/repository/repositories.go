package repository

// Repositories is the set of stores the services depend on
type Repositories struct {
	User         UserRepository
	Subscription SubscriptionRepository
	Payment      PaymentRepository
	Refund       RefundRepository
	EmailLog     EmailLogRepository
	Webhook      WebhookEventRepository
	Profile      UserProfileRepository
	TestResult   TestResultRepository
}
