package billing

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/univlive/univlive-backend/pkg/config"
	"github.com/univlive/univlive-backend/pkg/db/models"
	"github.com/univlive/univlive-backend/pkg/enums"
	pkgerrors "github.com/univlive/univlive-backend/pkg/errors"
	"github.com/univlive/univlive-backend/pkg/logger"
)

const testKeySecret = "key_secret_test"

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubRepo struct {
	Repository

	subscription *models.Subscription
	mappings     []*models.SubscriptionMapping
	invoices     []models.BillingInvoice
	activeSeats  int64
	upserts      []*models.Subscription
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) FindSubscriptionByEducator(ctx context.Context, educatorID uuid.UUID) (*models.Subscription, error) {
	if s.subscription != nil && s.subscription.EducatorID == educatorID {
		return s.subscription, nil
	}
	return nil, nil
}

func (s *stubRepo) FindSubscriptionByRazorpayID(ctx context.Context, razorpaySubscriptionID string) (*models.Subscription, error) {
	if s.subscription != nil && s.subscription.RazorpaySubscriptionID == razorpaySubscriptionID {
		return s.subscription, nil
	}
	return nil, nil
}

func (s *stubRepo) UpsertSubscription(ctx context.Context, subscription *models.Subscription) error {
	s.subscription = subscription
	s.upserts = append(s.upserts, subscription)
	return nil
}

func (s *stubRepo) UpsertMapping(ctx context.Context, mapping *models.SubscriptionMapping) error {
	s.mappings = append(s.mappings, mapping)
	return nil
}

func (s *stubRepo) CountActiveSeats(ctx context.Context, educatorID uuid.UUID) (int64, error) {
	return s.activeSeats, nil
}

func (s *stubRepo) ListInvoicesByEducator(ctx context.Context, educatorID uuid.UUID) ([]models.BillingInvoice, error) {
	return s.invoices, nil
}

type stubGateway struct {
	createResponse map[string]interface{}
	createCalls    []map[string]interface{}
	cancelCalls    []string
}

func (s *stubGateway) CreateSubscription(ctx context.Context, data map[string]interface{}) (map[string]interface{}, error) {
	s.createCalls = append(s.createCalls, data)
	return s.createResponse, nil
}

func (s *stubGateway) CancelSubscription(ctx context.Context, subscriptionID string, atCycleEnd bool) (map[string]interface{}, error) {
	s.cancelCalls = append(s.cancelCalls, subscriptionID)
	return map[string]interface{}{"id": subscriptionID, "status": "cancelled"}, nil
}

func (s *stubGateway) KeyID() string     { return "rzp_test_key" }
func (s *stubGateway) KeySecret() string { return testKeySecret }

type stubPublisher struct {
	events []string
}

func (s *stubPublisher) PublishBillingEvent(ctx context.Context, eventName string, payload any) error {
	s.events = append(s.events, eventName)
	return nil
}

func newBillingService(t *testing.T, repo *stubRepo, gw *stubGateway, pub *stubPublisher) Service {
	t.Helper()
	cfg := config.RazorpayConfig{
		KeyID:     "rzp_test_key",
		KeySecret: testKeySecret,
		PlanID:    "plan_test",
		PlanKey:   "standard",
	}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	var publisher eventPublisher
	if pub != nil {
		publisher = pub
	}
	svc, err := NewService(stubTxRunner{}, repo, gw, publisher, cfg, logg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func paymentSignature(paymentID, subscriptionID string) string {
	mac := hmac.New(sha256.New, []byte(testKeySecret))
	mac.Write([]byte(paymentID + "|" + subscriptionID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestStartSubscription(t *testing.T) {
	educatorID := uuid.New()
	repo := &stubRepo{}
	gw := &stubGateway{createResponse: map[string]interface{}{
		"id":     "sub_new",
		"status": "created",
	}}
	svc := newBillingService(t, repo, gw, nil)

	session, err := svc.StartSubscription(context.Background(), educatorID, 5)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if session.SubscriptionID != "sub_new" {
		t.Fatalf("expected sub_new, got %q", session.SubscriptionID)
	}
	if session.KeyID != "rzp_test_key" {
		t.Fatalf("expected checkout key id, got %q", session.KeyID)
	}

	if len(gw.createCalls) != 1 {
		t.Fatalf("expected one gateway call, got %d", len(gw.createCalls))
	}
	call := gw.createCalls[0]
	if call["plan_id"] != "plan_test" || call["quantity"] != 5 {
		t.Fatalf("unexpected gateway payload: %v", call)
	}
	notes, ok := call["notes"].(map[string]interface{})
	if !ok || notes["educator_id"] != educatorID.String() {
		t.Fatalf("expected educator id in notes, got %v", call["notes"])
	}

	if repo.subscription == nil || repo.subscription.RazorpaySubscriptionID != "sub_new" {
		t.Fatal("expected local subscription stored")
	}
	if repo.subscription.Status != enums.SubscriptionStatusCreated {
		t.Fatalf("expected created status, got %s", repo.subscription.Status)
	}
	if len(repo.mappings) != 1 || repo.mappings[0].EducatorID != educatorID {
		t.Fatal("expected mapping stored")
	}
}

func TestStartSubscriptionRejectsExistingUsable(t *testing.T) {
	educatorID := uuid.New()
	repo := &stubRepo{subscription: &models.Subscription{
		EducatorID:             educatorID,
		RazorpaySubscriptionID: "sub_old",
		Status:                 enums.SubscriptionStatusActive,
	}}
	gw := &stubGateway{}
	svc := newBillingService(t, repo, gw, nil)

	_, err := svc.StartSubscription(context.Background(), educatorID, 5)
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if len(gw.createCalls) != 0 {
		t.Fatal("expected no gateway call")
	}
}

func TestStartSubscriptionValidatesQuantity(t *testing.T) {
	svc := newBillingService(t, &stubRepo{}, &stubGateway{}, nil)
	_, err := svc.StartSubscription(context.Background(), uuid.New(), 0)
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestVerifyPaymentActivates(t *testing.T) {
	educatorID := uuid.New()
	repo := &stubRepo{subscription: &models.Subscription{
		EducatorID:             educatorID,
		RazorpaySubscriptionID: "sub_123",
		Status:                 enums.SubscriptionStatusCreated,
		Quantity:               3,
	}}
	pub := &stubPublisher{}
	svc := newBillingService(t, repo, &stubGateway{}, pub)

	result, err := svc.VerifyPayment(context.Background(), educatorID, VerifyPaymentInput{
		PaymentID:      "pay_123",
		SubscriptionID: "sub_123",
		Signature:      paymentSignature("pay_123", "sub_123"),
	})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !result.OK || result.Status != enums.SubscriptionStatusActive {
		t.Fatalf("expected ok/active, got %+v", result)
	}
	if repo.subscription.Status != enums.SubscriptionStatusActive {
		t.Fatalf("expected optimistic activation, got %s", repo.subscription.Status)
	}
	if repo.subscription.LastEventAt == nil {
		t.Fatal("expected last event timestamp")
	}
	if len(pub.events) != 1 || pub.events[0] != "billing.payment_verified" {
		t.Fatalf("expected billing event, got %v", pub.events)
	}
}

func TestVerifyPaymentRejectsBadSignature(t *testing.T) {
	educatorID := uuid.New()
	repo := &stubRepo{subscription: &models.Subscription{
		EducatorID:             educatorID,
		RazorpaySubscriptionID: "sub_123",
		Status:                 enums.SubscriptionStatusCreated,
	}}
	svc := newBillingService(t, repo, &stubGateway{}, nil)

	_, err := svc.VerifyPayment(context.Background(), educatorID, VerifyPaymentInput{
		PaymentID:      "pay_123",
		SubscriptionID: "sub_123",
		Signature:      paymentSignature("pay_other", "sub_123"),
	})
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if repo.subscription.Status != enums.SubscriptionStatusCreated {
		t.Fatal("expected no state change on mismatch")
	}
}

func TestVerifyPaymentRejectsMissingFields(t *testing.T) {
	svc := newBillingService(t, &stubRepo{}, &stubGateway{}, nil)
	_, err := svc.VerifyPayment(context.Background(), uuid.New(), VerifyPaymentInput{
		PaymentID: "pay_123",
	})
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestVerifyPaymentRejectsForeignSubscription(t *testing.T) {
	repo := &stubRepo{subscription: &models.Subscription{
		EducatorID:             uuid.New(),
		RazorpaySubscriptionID: "sub_123",
		Status:                 enums.SubscriptionStatusCreated,
	}}
	svc := newBillingService(t, repo, &stubGateway{}, nil)

	_, err := svc.VerifyPayment(context.Background(), uuid.New(), VerifyPaymentInput{
		PaymentID:      "pay_123",
		SubscriptionID: "sub_123",
		Signature:      paymentSignature("pay_123", "sub_123"),
	})
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestCancelSubscription(t *testing.T) {
	educatorID := uuid.New()
	repo := &stubRepo{subscription: &models.Subscription{
		EducatorID:             educatorID,
		RazorpaySubscriptionID: "sub_123",
		Status:                 enums.SubscriptionStatusActive,
	}}
	gw := &stubGateway{}
	svc := newBillingService(t, repo, gw, nil)

	if err := svc.CancelSubscription(context.Background(), educatorID, true); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if len(gw.cancelCalls) != 1 || gw.cancelCalls[0] != "sub_123" {
		t.Fatalf("expected gateway cancel, got %v", gw.cancelCalls)
	}

	err := svc.CancelSubscription(context.Background(), uuid.New(), false)
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGetSubscriptionOverview(t *testing.T) {
	educatorID := uuid.New()
	repo := &stubRepo{
		subscription: &models.Subscription{
			EducatorID:             educatorID,
			RazorpaySubscriptionID: "sub_123",
			Status:                 enums.SubscriptionStatusActive,
			Quantity:               10,
		},
		activeSeats: 4,
	}
	svc := newBillingService(t, repo, &stubGateway{}, nil)

	overview, err := svc.GetSubscriptionOverview(context.Background(), educatorID)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if !overview.Usable {
		t.Fatal("expected usable subscription")
	}
	if overview.UsedSeats != 4 || overview.TotalSeats != 10 {
		t.Fatalf("expected usage 4/10, got %d/%d", overview.UsedSeats, overview.TotalSeats)
	}
}

func TestGetSubscriptionOverviewWithoutSubscription(t *testing.T) {
	svc := newBillingService(t, &stubRepo{}, &stubGateway{}, nil)

	overview, err := svc.GetSubscriptionOverview(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if overview.Subscription != nil || overview.Usable || overview.TotalSeats != 0 {
		t.Fatalf("expected empty overview, got %+v", overview)
	}
}
