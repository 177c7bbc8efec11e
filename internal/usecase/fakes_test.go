package usecase_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/model"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/notification"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/provider"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/repository"
)

// memStore keeps rows in maps and applies the same conflict rules as the
// postgres repositories.
type memStore struct {
	mu            sync.Mutex
	users         map[uuid.UUID]*model.User
	subscriptions map[string]*model.Subscription
	payments      map[string]*model.Payment
	refunds       []*model.Refund
	emailLogs     []*model.EmailLog
	webhookEvents map[string]*model.StripeWebhookEvent
	profiles      map[string]*model.UserProfile
	testResults   []*model.TestResult
}

func newMemStore() *memStore {
	return &memStore{
		users:         make(map[uuid.UUID]*model.User),
		subscriptions: make(map[string]*model.Subscription),
		payments:      make(map[string]*model.Payment),
		webhookEvents: make(map[string]*model.StripeWebhookEvent),
		profiles:      make(map[string]*model.UserProfile),
	}
}

func (s *memStore) repos() *repository.Repositories {
	return &repository.Repositories{
		User:         &memUsers{s},
		Subscription: &memSubscriptions{s},
		Payment:      &memPayments{s},
		Refund:       &memRefunds{s},
		EmailLog:     &memEmailLogs{s},
		Webhook:      &memWebhookEvents{s},
		Profile:      &memProfiles{s},
		TestResult:   &memTestResults{s},
	}
}

func (s *memStore) addUser(email, customerID string) *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &model.User{ID: uuid.New(), Email: email, Name: strings.Split(email, "@")[0], Role: model.UserRoleUser, CreatedAt: time.Now()}
	if customerID != "" {
		u.StripeCustomerID = &customerID
	}
	s.users[u.ID] = u
	return u
}

func (s *memStore) subscriptionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscriptions)
}

func (s *memStore) subscription(stripeID string) *model.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subscriptions[stripeID]
	if !ok {
		return nil
	}
	cp := *sub
	return &cp
}

func (s *memStore) paymentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payments)
}

func (s *memStore) payment(invoiceID string) *model.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[invoiceID]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

type memUsers struct{ s *memStore }

func (r *memUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.users[id], nil
}

func (r *memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (r *memUsers) GetByStripeCustomerID(_ context.Context, customerID string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.StripeCustomerID != nil && *u.StripeCustomerID == customerID {
			return u, nil
		}
	}
	return nil, nil
}

func (r *memUsers) Create(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return errors.New("duplicate key value violates unique constraint")
		}
	}
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	r.s.users[user.ID] = user
	return nil
}

func (r *memUsers) SetStripeCustomerID(_ context.Context, id uuid.UUID, customerID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return errors.New("user not found")
	}
	u.StripeCustomerID = &customerID
	return nil
}

func (r *memUsers) Search(_ context.Context, search string, offset, limit int) ([]*model.User, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.User
	for _, u := range r.s.users {
		if search == "" || strings.Contains(strings.ToLower(u.Email), strings.ToLower(search)) ||
			strings.Contains(strings.ToLower(u.Name), strings.ToLower(search)) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	total := int64(len(out))
	if offset >= len(out) {
		return []*model.User{}, total, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], total, nil
}

func (r *memUsers) Count(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.users)), nil
}

func (r *memUsers) ListRecent(_ context.Context, limit int) ([]*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.User
	for _, u := range r.s.users {
		out = append(out, u)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memSubscriptions struct{ s *memStore }

func (r *memSubscriptions) UpsertByStripeID(_ context.Context, sub *model.Subscription) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.subscriptions[sub.StripeSubscriptionID]
	if !ok {
		cp := *sub
		cp.ID = uuid.New()
		cp.CreatedAt = time.Now()
		r.s.subscriptions[sub.StripeSubscriptionID] = &cp
		sub.ID = cp.ID
		return nil
	}
	existing.Status = sub.Status
	existing.CurrentPeriodStart = sub.CurrentPeriodStart
	existing.CurrentPeriodEnd = sub.CurrentPeriodEnd
	existing.CancelAtPeriodEnd = sub.CancelAtPeriodEnd
	existing.UpdatedAt = sub.UpdatedAt
	if sub.StripePriceID != "" {
		existing.StripePriceID = sub.StripePriceID
	}
	sub.ID = existing.ID
	return nil
}

func (r *memSubscriptions) find(match func(*model.Subscription) bool) *model.Subscription {
	for _, sub := range r.s.subscriptions {
		if match(sub) {
			return sub
		}
	}
	return nil
}

func (r *memSubscriptions) GetByStripeID(_ context.Context, id string) (*model.Subscription, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.subscriptions[id], nil
}

func (r *memSubscriptions) GetByID(_ context.Context, id uuid.UUID) (*model.Subscription, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.find(func(s *model.Subscription) bool { return s.ID == id }), nil
}

func (r *memSubscriptions) RefreshPeriod(_ context.Context, id uuid.UUID, status model.SubscriptionStatus, start, end time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sub := r.find(func(s *model.Subscription) bool { return s.ID == id })
	if sub == nil {
		return errors.New("subscription not found")
	}
	sub.Status, sub.CurrentPeriodStart, sub.CurrentPeriodEnd = status, start, end
	return nil
}

func (r *memSubscriptions) MarkCanceledByStripeID(_ context.Context, id string, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sub, ok := r.s.subscriptions[id]
	if !ok {
		return false, nil
	}
	sub.Status = model.SubscriptionStatusCanceled
	sub.CanceledAt = &at
	return true, nil
}

func (r *memSubscriptions) MarkCanceled(_ context.Context, id uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sub := r.find(func(s *model.Subscription) bool { return s.ID == id })
	if sub == nil {
		return errors.New("subscription not found")
	}
	sub.Status = model.SubscriptionStatusCanceled
	sub.CanceledAt = &at
	return nil
}

func (r *memSubscriptions) SetCancelAtPeriodEnd(_ context.Context, id uuid.UUID, cancel bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sub := r.find(func(s *model.Subscription) bool { return s.ID == id })
	if sub == nil {
		return errors.New("subscription not found")
	}
	sub.CancelAtPeriodEnd = cancel
	return nil
}

func (r *memSubscriptions) FindLatestEntitledForUser(_ context.Context, userID uuid.UUID) (*model.Subscription, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var latest *model.Subscription
	for _, sub := range r.s.subscriptions {
		if sub.UserID != userID || !sub.Status.IsEntitled() {
			continue
		}
		if latest == nil || sub.CreatedAt.After(latest.CreatedAt) {
			latest = sub
		}
	}
	return latest, nil
}

func (r *memSubscriptions) ListRenewingBetween(_ context.Context, from, to time.Time) ([]*model.Subscription, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.Subscription
	for _, sub := range r.s.subscriptions {
		if sub.Status != model.SubscriptionStatusActive || sub.CancelAtPeriodEnd {
			continue
		}
		if sub.CurrentPeriodEnd.Before(from) || sub.CurrentPeriodEnd.After(to) {
			continue
		}
		cp := *sub
		cp.User = r.s.users[sub.UserID]
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CurrentPeriodEnd.Before(out[j].CurrentPeriodEnd) })
	return out, nil
}

func (r *memSubscriptions) List(_ context.Context, status string, offset, limit int) ([]*model.Subscription, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.Subscription
	for _, sub := range r.s.subscriptions {
		if status == "" || string(sub.Status) == status {
			out = append(out, sub)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memSubscriptions) ListByUser(_ context.Context, userID uuid.UUID) ([]*model.Subscription, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.Subscription
	for _, sub := range r.s.subscriptions {
		if sub.UserID == userID {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (r *memSubscriptions) ListActiveByUserIDs(_ context.Context, userIDs []uuid.UUID) ([]*model.Subscription, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	want := make(map[uuid.UUID]bool, len(userIDs))
	for _, id := range userIDs {
		want[id] = true
	}
	var out []*model.Subscription
	for _, sub := range r.s.subscriptions {
		if want[sub.UserID] && sub.Status == model.SubscriptionStatusActive {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (r *memSubscriptions) CountByStatus(_ context.Context, status model.SubscriptionStatus) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, sub := range r.s.subscriptions {
		if sub.Status == status {
			n++
		}
	}
	return n, nil
}

type memPayments struct{ s *memStore }

func (r *memPayments) UpsertByInvoiceID(_ context.Context, p *model.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.payments[p.StripeInvoiceID]
	if !ok {
		cp := *p
		cp.ID = uuid.New()
		cp.CreatedAt = time.Now()
		r.s.payments[p.StripeInvoiceID] = &cp
		p.ID = cp.ID
		return nil
	}
	existing.Status = p.Status
	existing.Amount = p.Amount
	existing.Currency = p.Currency
	if p.PaidAt != nil {
		existing.PaidAt = p.PaidAt
	}
	if p.StripePaymentIntent != nil && *p.StripePaymentIntent != "" {
		existing.StripePaymentIntent = p.StripePaymentIntent
	}
	if p.SubscriptionID != nil {
		existing.SubscriptionID = p.SubscriptionID
	}
	p.ID = existing.ID
	return nil
}

func (r *memPayments) byID(id uuid.UUID) *model.Payment {
	for _, p := range r.s.payments {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (r *memPayments) GetByID(_ context.Context, id uuid.UUID) (*model.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p := r.byID(id)
	if p == nil {
		return nil, nil
	}
	cp := *p
	cp.User = r.s.users[p.UserID]
	return &cp, nil
}

func (r *memPayments) SetPaymentIntent(_ context.Context, id uuid.UUID, pi string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p := r.byID(id)
	if p == nil {
		return errors.New("payment not found")
	}
	p.StripePaymentIntent = &pi
	return nil
}

func (r *memPayments) ListByUser(_ context.Context, userID uuid.UUID, limit int) ([]*model.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.Payment
	for _, p := range r.s.payments {
		if p.UserID == userID && len(out) < limit {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memPayments) ListRecent(_ context.Context, limit int) ([]*model.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.Payment
	for _, p := range r.s.payments {
		if len(out) < limit {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memPayments) CountByStatus(_ context.Context, status model.PaymentStatus) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, p := range r.s.payments {
		if p.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *memPayments) SumAmountByStatus(_ context.Context, status model.PaymentStatus) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var sum int64
	for _, p := range r.s.payments {
		if p.Status == status {
			sum += p.Amount
		}
	}
	return sum, nil
}

type memRefunds struct{ s *memStore }

func (r *memRefunds) Record(_ context.Context, refund *model.Refund) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.refunds {
		if existing.StripeRefundID == refund.StripeRefundID {
			*refund = *existing
			return false, nil
		}
	}
	refund.ID = uuid.New()
	refund.CreatedAt = time.Now()
	stored := *refund
	r.s.refunds = append(r.s.refunds, &stored)
	return true, nil
}

func (r *memRefunds) List(_ context.Context, offset, limit int) ([]*model.Refund, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return append([]*model.Refund(nil), r.s.refunds...), int64(len(r.s.refunds)), nil
}

func (r *memRefunds) ListByPaymentIDs(_ context.Context, ids []uuid.UUID) ([]*model.Refund, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []*model.Refund
	for _, refund := range r.s.refunds {
		if want[refund.PaymentID] {
			out = append(out, refund)
		}
	}
	return out, nil
}

func (r *memRefunds) Count(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.refunds)), nil
}

func (r *memRefunds) SumAmount(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var sum int64
	for _, refund := range r.s.refunds {
		sum += refund.Amount
	}
	return sum, nil
}

type memEmailLogs struct{ s *memStore }

func (r *memEmailLogs) Create(_ context.Context, log *model.EmailLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.emailLogs = append(r.s.emailLogs, log)
	return nil
}

func (r *memEmailLogs) ExistsSince(_ context.Context, userID uuid.UUID, emailType model.EmailType, since time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, l := range r.s.emailLogs {
		if l.UserID == userID && l.EmailType == emailType && !l.SentAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

type memWebhookEvents struct{ s *memStore }

func (r *memWebhookEvents) RecordAttempt(_ context.Context, evt *model.StripeWebhookEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if existing, ok := r.s.webhookEvents[evt.StripeEventID]; ok {
		existing.ProcessingAttempts++
		existing.Status = model.WebhookStatusProcessing
		return nil
	}
	cp := *evt
	cp.ProcessingAttempts = 1
	cp.Status = model.WebhookStatusProcessing
	r.s.webhookEvents[evt.StripeEventID] = &cp
	return nil
}

func (r *memWebhookEvents) MarkStatus(_ context.Context, id string, status model.WebhookStatus, lastError string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	evt, ok := r.s.webhookEvents[id]
	if !ok {
		return errors.New("webhook event not found")
	}
	evt.Status = status
	if lastError != "" {
		evt.LastError = &lastError
	}
	return nil
}

// recordingPublisher captures published messages per channel
type recordingPublisher struct {
	mu       sync.Mutex
	messages map[string][]interface{}
	err      error
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{messages: make(map[string][]interface{})}
}

func (p *recordingPublisher) Publish(_ context.Context, channel string, message interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.messages[channel] = append(p.messages[channel], message)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) count(channel string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.messages[channel])
}

type sentEmail struct {
	Recipient notification.Recipient
	Kind      model.EmailType
	Params    notification.Params
}

// recordingNotifier captures sends and logs them like the real dispatcher
type recordingNotifier struct {
	mu    sync.Mutex
	store *memStore
	sent  []sentEmail
	fail  map[string]bool
}

func newRecordingNotifier(store *memStore) *recordingNotifier {
	return &recordingNotifier{store: store, fail: make(map[string]bool)}
}

func (n *recordingNotifier) Send(ctx context.Context, recipient notification.Recipient, kind model.EmailType, params notification.Params) error {
	n.mu.Lock()
	if n.fail[recipient.Email] {
		n.mu.Unlock()
		return errors.New("provider rejected message")
	}
	n.sent = append(n.sent, sentEmail{Recipient: recipient, Kind: kind, Params: params})
	n.mu.Unlock()

	if n.store == nil {
		return nil
	}
	return (&memEmailLogs{n.store}).Create(ctx, &model.EmailLog{
		UserID:    recipient.UserID,
		EmailType: kind,
		SentAt:    time.Now(),
	})
}

func (n *recordingNotifier) sentOf(kind model.EmailType) []sentEmail {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []sentEmail
	for _, e := range n.sent {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// MockPaymentProcessor is a mock implementation of provider.PaymentProcessor
type MockPaymentProcessor struct {
	mock.Mock
}

func (m *MockPaymentProcessor) VerifyEvent(payload []byte, signature string) (*provider.Event, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Event), args.Error(1)
}

func (m *MockPaymentProcessor) GetSubscription(ctx context.Context, subscriptionID string) (*provider.Subscription, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Subscription), args.Error(1)
}

func (m *MockPaymentProcessor) GetInvoice(ctx context.Context, invoiceID string) (*provider.Invoice, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Invoice), args.Error(1)
}

func (m *MockPaymentProcessor) CreateRefund(ctx context.Context, req *provider.RefundRequest) (*provider.Refund, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Refund), args.Error(1)
}

func (m *MockPaymentProcessor) CancelSubscription(ctx context.Context, subscriptionID string) (*provider.Subscription, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Subscription), args.Error(1)
}

func (m *MockPaymentProcessor) SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) (*provider.Subscription, error) {
	args := m.Called(ctx, subscriptionID, cancel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Subscription), args.Error(1)
}

func (m *MockPaymentProcessor) CreateCustomer(ctx context.Context, req *provider.CreateCustomerRequest) (*provider.Customer, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.Customer), args.Error(1)
}

func (m *MockPaymentProcessor) CreateCheckoutSession(ctx context.Context, req *provider.CheckoutSessionRequest) (*provider.CheckoutSession, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.CheckoutSession), args.Error(1)
}

// addSubscription stores a subscription row directly
func (s *memStore) addSubscription(userID uuid.UUID, stripeID string, status model.SubscriptionStatus, end time.Time) *model.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub := &model.Subscription{
		ID:                   uuid.New(),
		UserID:               userID,
		StripeSubscriptionID: stripeID,
		StripePriceID:        "price_premium",
		Status:               status,
		CurrentPeriodStart:   end.AddDate(0, -1, 0),
		CurrentPeriodEnd:     end,
		CreatedAt:            time.Now(),
	}
	s.subscriptions[stripeID] = sub
	return sub
}

// addPayment stores a payment row directly
func (s *memStore) addPayment(userID uuid.UUID, invoiceID, paymentIntent string, amount int64, status model.PaymentStatus) *model.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &model.Payment{
		ID:              uuid.New(),
		UserID:          userID,
		StripeInvoiceID: invoiceID,
		Amount:          amount,
		Currency:        "gbp",
		Status:          status,
		CreatedAt:       time.Now(),
	}
	if paymentIntent != "" {
		p.StripePaymentIntent = &paymentIntent
	}
	s.payments[invoiceID] = p
	return p
}

type memProfiles struct{ s *memStore }

func (r *memProfiles) GetByEmail(_ context.Context, email string) (*model.UserProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.profiles[email]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *memProfiles) Upsert(_ context.Context, profile *model.UserProfile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.profiles[profile.Email]
	if !ok {
		cp := *profile
		cp.ID = uuid.New()
		r.s.profiles[profile.Email] = &cp
		profile.ID = cp.ID
		return nil
	}
	existing.Profile = profile.Profile
	existing.UpdatedAt = profile.UpdatedAt
	profile.ID = existing.ID
	return nil
}

type memTestResults struct{ s *memStore }

func (r *memTestResults) Create(_ context.Context, result *model.TestResult) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	result.ID = uuid.New()
	cp := *result
	r.s.testResults = append(r.s.testResults, &cp)
	return nil
}

func (r *memTestResults) ListByEmail(_ context.Context, email string, limit int) ([]*model.TestResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.TestResult
	for _, res := range r.s.testResults {
		if res.Email == email {
			out = append(out, res)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
