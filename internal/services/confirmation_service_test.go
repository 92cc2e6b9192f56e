package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	domain "github.com/madenkorea/api/internal/domain"
	"github.com/madenkorea/api/internal/gateway"
	"github.com/madenkorea/api/internal/repositories"
)

const testWebhookSecret = "whsec_test"

func dec(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("invalid decimal %q: %v", value, err)
	}
	return d
}

func strPtr(s string) *string { return &s }

type stubRepoError struct {
	notFound    bool
	conflict    bool
	unavailable bool
}

func (e stubRepoError) Error() string       { return "stub repository error" }
func (e stubRepoError) IsNotFound() bool    { return e.notFound }
func (e stubRepoError) IsConflict() bool    { return e.conflict }
func (e stubRepoError) IsUnavailable() bool { return e.unavailable }

type stubOrderRepo struct {
	order         domain.Order
	findErr       error
	markPaidErr   error
	markPaidCalls int
	lastUpdate    repositories.OrderPaidUpdate
	// afterConflict replaces the stored order once MarkPaid reports a conflict,
	// simulating a concurrent confirmation winning the race.
	afterConflict *domain.Order
}

func (r *stubOrderRepo) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if r.findErr != nil {
		return domain.Order{}, r.findErr
	}
	if r.order.ID != orderID {
		return domain.Order{}, stubRepoError{notFound: true}
	}
	return r.order, nil
}

func (r *stubOrderRepo) MarkPaid(ctx context.Context, orderID string, update repositories.OrderPaidUpdate) (domain.Order, error) {
	r.markPaidCalls++
	r.lastUpdate = update
	if r.markPaidErr != nil {
		if r.afterConflict != nil {
			r.order = *r.afterConflict
		}
		return domain.Order{}, r.markPaidErr
	}

	updated := r.order
	updated.Status = domain.OrderStatusPaid
	updated.PaymentRef = update.PaymentRef
	updated.PaymentMethod = update.PaymentMethod
	updated.GatewayPayload = update.GatewayPayload
	updated.DiscountTotal = update.DiscountTotal
	updated.Total = update.Total
	paidAt := update.PaidAt
	updated.PaidAt = &paidAt
	r.order = updated
	return updated, nil
}

type stubAttributionRepo struct {
	record    *domain.Attribution
	findErr   error
	upserted  *domain.Attribution
	upsertErr error
}

func (r *stubAttributionRepo) FindByOrder(ctx context.Context, orderID string) (domain.Attribution, error) {
	if r.findErr != nil {
		return domain.Attribution{}, r.findErr
	}
	if r.record == nil || r.record.OrderID != orderID {
		return domain.Attribution{}, stubRepoError{notFound: true}
	}
	return *r.record, nil
}

func (r *stubAttributionRepo) Upsert(ctx context.Context, attribution domain.Attribution) (domain.Attribution, error) {
	if r.upsertErr != nil {
		return domain.Attribution{}, r.upsertErr
	}
	r.upserted = &attribution
	r.record = &attribution
	return attribution, nil
}

type stubPromoRepo struct {
	byID        map[string]domain.PromoCode
	findErr     error
	incremented []string
	incErr      error
}

func (r *stubPromoRepo) FindByID(ctx context.Context, promoID string) (domain.PromoCode, error) {
	if r.findErr != nil {
		return domain.PromoCode{}, r.findErr
	}
	promo, ok := r.byID[promoID]
	if !ok {
		return domain.PromoCode{}, stubRepoError{notFound: true}
	}
	return promo, nil
}

func (r *stubPromoRepo) IncrementUsage(ctx context.Context, promoID string) error {
	if r.incErr != nil {
		return r.incErr
	}
	r.incremented = append(r.incremented, promoID)
	return nil
}

type stubCartRepo struct {
	cleared []string
	err     error
}

func (r *stubCartRepo) Clear(ctx context.Context, userID string) error {
	if r.err != nil {
		return r.err
	}
	r.cleared = append(r.cleared, userID)
	return nil
}

type stubGateway struct {
	order gateway.Order
	err   error
	calls int
}

func (g *stubGateway) FetchOrder(ctx context.Context, gatewayOrderID string) (gateway.Order, error) {
	g.calls++
	if g.err != nil {
		return gateway.Order{}, g.err
	}
	return g.order, nil
}

type stubResolver struct {
	resolved ResolvedAttribution
	found    bool
	err      error
}

func (r *stubResolver) Resolve(ctx context.Context, order domain.Order, gatewayOrder gateway.Order) (ResolvedAttribution, bool, error) {
	if r.err != nil {
		return ResolvedAttribution{}, false, r.err
	}
	return r.resolved, r.found, nil
}

type stubSideEffects struct {
	inputs  []SideEffectInput
	results []SideEffectResult
}

func (s *stubSideEffects) Run(ctx context.Context, input SideEffectInput) []SideEffectResult {
	s.inputs = append(s.inputs, input)
	return s.results
}

func payableOrder() domain.Order {
	return domain.Order{
		ID:             "ord_1",
		OrderNumber:    "MK-2026-000042",
		UserID:         strPtr("usr_7"),
		Currency:       "INR",
		Subtotal:       decimal.NewFromInt(1000),
		ShippingFee:    decimal.NewFromInt(50),
		DiscountTotal:  decimal.Zero,
		Total:          decimal.NewFromInt(1050),
		Status:         domain.OrderStatusPendingPayment,
		GatewayOrderID: "order_gw1",
	}
}

func paidGatewayOrder() gateway.Order {
	return gateway.Order{
		ID:              "order_gw1",
		Status:          gateway.OrderStatusPaid,
		AmountMinor:     95000,
		AmountPaidMinor: 95000,
		Currency:        "INR",
	}
}

type confirmationFixture struct {
	orders       *stubOrderRepo
	attributions *stubAttributionRepo
	resolver     *stubResolver
	gateway      *stubGateway
	sideEffects  *stubSideEffects
	service      ConfirmationService
}

func newConfirmationFixture(t *testing.T) *confirmationFixture {
	t.Helper()

	f := &confirmationFixture{
		orders:       &stubOrderRepo{order: payableOrder()},
		attributions: &stubAttributionRepo{},
		resolver:     &stubResolver{},
		gateway:      &stubGateway{order: paidGatewayOrder()},
		sideEffects:  &stubSideEffects{},
	}

	service, err := NewConfirmationService(ConfirmationServiceDeps{
		Orders:        f.orders,
		Attributions:  f.attributions,
		Resolver:      f.resolver,
		Gateway:       f.gateway,
		SideEffects:   f.sideEffects,
		WebhookSecret: testWebhookSecret,
		Clock: func() time.Time {
			return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		},
	})
	if err != nil {
		t.Fatalf("NewConfirmationService: %v", err)
	}
	f.service = service
	return f
}

func signedCommand() ConfirmPaymentCommand {
	return ConfirmPaymentCommand{
		OrderID:          "ord_1",
		GatewayOrderID:   "order_gw1",
		GatewayPaymentID: "pay_1",
		GatewaySignature: gateway.SignPayment("order_gw1", "pay_1", []byte(testWebhookSecret)),
	}
}

func TestConfirmPaymentValidatesInput(t *testing.T) {
	f := newConfirmationFixture(t)

	cases := []struct {
		name   string
		mutate func(*ConfirmPaymentCommand)
	}{
		{"missing order id", func(c *ConfirmPaymentCommand) { c.OrderID = "" }},
		{"missing gateway order id", func(c *ConfirmPaymentCommand) { c.GatewayOrderID = " " }},
		{"missing payment id", func(c *ConfirmPaymentCommand) { c.GatewayPaymentID = "" }},
		{"missing signature", func(c *ConfirmPaymentCommand) { c.GatewaySignature = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cmd := signedCommand()
			tc.mutate(&cmd)
			_, err := f.service.ConfirmPayment(context.Background(), cmd)
			if !errors.Is(err, ErrPaymentInvalidInput) {
				t.Fatalf("expected ErrPaymentInvalidInput, got %v", err)
			}
		})
	}
}

func TestConfirmPaymentRejectsBadSignature(t *testing.T) {
	f := newConfirmationFixture(t)

	cmd := signedCommand()
	cmd.GatewaySignature = gateway.SignPayment("order_gw1", "pay_other", []byte(testWebhookSecret))

	_, err := f.service.ConfirmPayment(context.Background(), cmd)
	if !errors.Is(err, ErrPaymentSignatureMismatch) {
		t.Fatalf("expected ErrPaymentSignatureMismatch, got %v", err)
	}
	if f.orders.markPaidCalls != 0 {
		t.Fatalf("expected no paid transition, got %d", f.orders.markPaidCalls)
	}
	if f.gateway.calls != 0 {
		t.Fatalf("expected no gateway fetch before signature check, got %d", f.gateway.calls)
	}
}

func TestConfirmPaymentRejectsSignatureFromWrongSecret(t *testing.T) {
	f := newConfirmationFixture(t)

	cmd := signedCommand()
	cmd.GatewaySignature = gateway.SignPayment("order_gw1", "pay_1", []byte("some-other-secret"))

	_, err := f.service.ConfirmPayment(context.Background(), cmd)
	if !errors.Is(err, ErrPaymentSignatureMismatch) {
		t.Fatalf("expected ErrPaymentSignatureMismatch, got %v", err)
	}
	if f.orders.markPaidCalls != 0 {
		t.Fatalf("expected no paid transition, got %d", f.orders.markPaidCalls)
	}
}

func TestConfirmPaymentOrderNotFound(t *testing.T) {
	f := newConfirmationFixture(t)

	cmd := signedCommand()
	cmd.OrderID = "ord_missing"
	cmd.GatewaySignature = gateway.SignPayment(cmd.GatewayOrderID, cmd.GatewayPaymentID, []byte(testWebhookSecret))

	_, err := f.service.ConfirmPayment(context.Background(), cmd)
	if !errors.Is(err, ErrPaymentOrderNotFound) {
		t.Fatalf("expected ErrPaymentOrderNotFound, got %v", err)
	}
}

func TestConfirmPaymentRejectsForeignGatewayOrder(t *testing.T) {
	f := newConfirmationFixture(t)
	f.orders.order.GatewayOrderID = "order_other"

	_, err := f.service.ConfirmPayment(context.Background(), signedCommand())
	if !errors.Is(err, ErrPaymentInvalidInput) {
		t.Fatalf("expected ErrPaymentInvalidInput for foreign gateway order, got %v", err)
	}
}

func TestConfirmPaymentNotPayableStatus(t *testing.T) {
	for _, status := range []domain.OrderStatus{domain.OrderStatusCancelled, domain.OrderStatusFailed} {
		t.Run(string(status), func(t *testing.T) {
			f := newConfirmationFixture(t)
			f.orders.order.Status = status

			_, err := f.service.ConfirmPayment(context.Background(), signedCommand())
			if !errors.Is(err, ErrPaymentOrderNotPayable) {
				t.Fatalf("expected ErrPaymentOrderNotPayable, got %v", err)
			}
		})
	}
}

func TestConfirmPaymentGatewayNotCaptured(t *testing.T) {
	f := newConfirmationFixture(t)
	f.gateway.order.Status = gateway.OrderStatusAttempted
	f.gateway.order.AmountPaidMinor = 0

	_, err := f.service.ConfirmPayment(context.Background(), signedCommand())
	if !errors.Is(err, ErrPaymentNotCaptured) {
		t.Fatalf("expected ErrPaymentNotCaptured, got %v", err)
	}
	if f.orders.markPaidCalls != 0 {
		t.Fatalf("expected no paid transition, got %d", f.orders.markPaidCalls)
	}
}

func TestConfirmPaymentGatewayUnavailable(t *testing.T) {
	f := newConfirmationFixture(t)
	f.gateway.err = gateway.ErrUnavailable

	_, err := f.service.ConfirmPayment(context.Background(), signedCommand())
	if !errors.Is(err, ErrPaymentGatewayUnavailable) {
		t.Fatalf("expected ErrPaymentGatewayUnavailable, got %v", err)
	}
}

func TestConfirmPaymentHappyPathWithAttribution(t *testing.T) {
	f := newConfirmationFixture(t)
	f.resolver.found = true
	f.resolver.resolved = ResolvedAttribution{
		InfluencerID:      strPtr("inf_1"),
		PromoCodeID:       strPtr("promo_1"),
		DiscountPercent:   dec(t, "10"),
		CommissionPercent: dec(t, "5"),
		Source:            AttributionSourceOrderPromo,
	}

	result, err := f.service.ConfirmPayment(context.Background(), signedCommand())
	if err != nil {
		t.Fatalf("ConfirmPayment: %v", err)
	}

	if result.Replayed {
		t.Fatal("expected fresh confirmation, got replay")
	}
	if result.Order.Status != domain.OrderStatusPaid {
		t.Fatalf("expected paid status, got %s", result.Order.Status)
	}
	if result.Order.PaymentRef != "pay_1" {
		t.Fatalf("unexpected payment ref %s", result.Order.PaymentRef)
	}

	// Discount 10% of 1000 = 100, local total 1000-100+50 = 950,
	// gateway captured 95000 paise = 950.00 wins.
	if !result.Amounts.DiscountAmount.Equal(dec(t, "100")) {
		t.Fatalf("unexpected discount %s", result.Amounts.DiscountAmount)
	}
	if !result.Amounts.LocalTotal.Equal(dec(t, "950")) {
		t.Fatalf("unexpected local total %s", result.Amounts.LocalTotal)
	}
	if !result.Amounts.PaidTotal.Equal(dec(t, "950")) {
		t.Fatalf("unexpected paid total %s", result.Amounts.PaidTotal)
	}
	if !result.Amounts.GatewayReported {
		t.Fatal("expected gateway-reported amount")
	}

	if result.Attribution == nil {
		t.Fatal("expected attribution")
	}
	if result.Attribution.Status != domain.AttributionStatusPending {
		t.Fatalf("unexpected attribution status %s", result.Attribution.Status)
	}
	// Commission is always 5% of the subtotal.
	if !result.Attribution.CommissionAmount.Equal(dec(t, "50")) {
		t.Fatalf("unexpected commission %s", result.Attribution.CommissionAmount)
	}
	if f.attributions.upserted == nil {
		t.Fatal("expected attribution upsert")
	}

	if len(f.sideEffects.inputs) != 1 {
		t.Fatalf("expected one side effect run, got %d", len(f.sideEffects.inputs))
	}
	if f.sideEffects.inputs[0].IncrementPromoID != "promo_1" {
		t.Fatalf("expected promo increment for promo_1, got %q", f.sideEffects.inputs[0].IncrementPromoID)
	}
}

func TestConfirmPaymentWithoutAttributionKeepsOrderDiscount(t *testing.T) {
	f := newConfirmationFixture(t)
	f.orders.order.DiscountTotal = dec(t, "25")
	f.gateway.order.AmountPaidMinor = 0

	result, err := f.service.ConfirmPayment(context.Background(), signedCommand())
	if err != nil {
		t.Fatalf("ConfirmPayment: %v", err)
	}

	if result.Attribution != nil {
		t.Fatal("expected no attribution")
	}
	if !result.Amounts.DiscountAmount.Equal(dec(t, "25")) {
		t.Fatalf("unexpected discount %s", result.Amounts.DiscountAmount)
	}
	if !result.Amounts.PaidTotal.Equal(dec(t, "1025")) {
		t.Fatalf("unexpected paid total %s", result.Amounts.PaidTotal)
	}
	if result.Amounts.GatewayReported {
		t.Fatal("expected locally derived total")
	}
	if len(f.sideEffects.inputs) != 1 || f.sideEffects.inputs[0].IncrementPromoID != "" {
		t.Fatalf("expected side effects without promo increment, got %#v", f.sideEffects.inputs)
	}
}

func TestConfirmPaymentDiscountWithoutInfluencerWritesNoAttribution(t *testing.T) {
	f := newConfirmationFixture(t)
	f.resolver.found = true
	f.resolver.resolved = ResolvedAttribution{
		PromoCodeID:     strPtr("promo_1"),
		DiscountPercent: dec(t, "10"),
		Source:          AttributionSourceOrderPromo,
	}

	result, err := f.service.ConfirmPayment(context.Background(), signedCommand())
	if err != nil {
		t.Fatalf("ConfirmPayment: %v", err)
	}

	// The customer keeps the promised discount, but with no influencer there
	// is no commission record to create and no usage to count.
	if !result.Amounts.DiscountAmount.Equal(dec(t, "100")) {
		t.Fatalf("unexpected discount %s", result.Amounts.DiscountAmount)
	}
	if result.Attribution != nil {
		t.Fatalf("expected no attribution record, got %#v", result.Attribution)
	}
	if f.attributions.upserted != nil {
		t.Fatalf("expected no attribution upsert, got %#v", f.attributions.upserted)
	}
	if len(f.sideEffects.inputs) != 1 || f.sideEffects.inputs[0].IncrementPromoID != "" {
		t.Fatalf("expected side effects without promo increment, got %#v", f.sideEffects.inputs)
	}
}

func TestConfirmPaymentDriftedCaptureWins(t *testing.T) {
	f := newConfirmationFixture(t)
	f.resolver.found = true
	f.resolver.resolved = ResolvedAttribution{
		PromoCodeID:     strPtr("promo_1"),
		DiscountPercent: dec(t, "10"),
	}
	f.gateway.order.AmountPaidMinor = 94990

	result, err := f.service.ConfirmPayment(context.Background(), signedCommand())
	if err != nil {
		t.Fatalf("ConfirmPayment: %v", err)
	}

	if !result.Amounts.LocalTotal.Equal(dec(t, "950")) {
		t.Fatalf("unexpected local total %s", result.Amounts.LocalTotal)
	}
	if !result.Amounts.PaidTotal.Equal(dec(t, "949.90")) {
		t.Fatalf("expected captured amount to win, got %s", result.Amounts.PaidTotal)
	}
	if !f.orders.lastUpdate.Total.Equal(dec(t, "949.90")) {
		t.Fatalf("expected persisted total 949.90, got %s", f.orders.lastUpdate.Total)
	}
}

func TestConfirmPaymentReplaySamePayment(t *testing.T) {
	f := newConfirmationFixture(t)
	paid := payableOrder()
	paid.Status = domain.OrderStatusPaid
	paid.PaymentRef = "pay_1"
	paid.DiscountTotal = dec(t, "100")
	paid.Total = dec(t, "950")
	f.orders.order = paid
	f.attributions.record = &domain.Attribution{
		OrderID:          "ord_1",
		CommissionAmount: dec(t, "50"),
		Status:           domain.AttributionStatusPending,
	}

	result, err := f.service.ConfirmPayment(context.Background(), signedCommand())
	if err != nil {
		t.Fatalf("ConfirmPayment replay: %v", err)
	}

	if !result.Replayed {
		t.Fatal("expected replayed result")
	}
	if f.orders.markPaidCalls != 0 {
		t.Fatalf("expected no paid transition on replay, got %d", f.orders.markPaidCalls)
	}
	if result.Attribution == nil || !result.Attribution.CommissionAmount.Equal(dec(t, "50")) {
		t.Fatalf("expected stored attribution, got %#v", result.Attribution)
	}
	if len(f.sideEffects.inputs) != 0 {
		t.Fatalf("expected no side effects on replay, got %d", len(f.sideEffects.inputs))
	}
	if !result.Amounts.PaidTotal.Equal(dec(t, "950")) {
		t.Fatalf("unexpected replay total %s", result.Amounts.PaidTotal)
	}
}

func TestConfirmPaymentReplayRepairsMissingAttribution(t *testing.T) {
	f := newConfirmationFixture(t)
	paid := payableOrder()
	paid.Status = domain.OrderStatusPaid
	paid.PaymentRef = "pay_1"
	f.orders.order = paid
	f.resolver.found = true
	f.resolver.resolved = ResolvedAttribution{
		InfluencerID:      strPtr("inf_1"),
		PromoCodeID:       strPtr("promo_1"),
		CommissionPercent: dec(t, "5"),
		Source:            AttributionSourceOrderPromo,
	}

	result, err := f.service.ConfirmPayment(context.Background(), signedCommand())
	if err != nil {
		t.Fatalf("ConfirmPayment replay: %v", err)
	}

	if result.Attribution == nil {
		t.Fatal("expected repaired attribution")
	}
	if f.attributions.upserted == nil {
		t.Fatal("expected attribution upsert during repair")
	}
	if !f.attributions.upserted.CommissionAmount.Equal(dec(t, "50")) {
		t.Fatalf("unexpected repaired commission %s", f.attributions.upserted.CommissionAmount)
	}
}

func TestConfirmPaymentReplayDifferentPaymentConflicts(t *testing.T) {
	f := newConfirmationFixture(t)
	paid := payableOrder()
	paid.Status = domain.OrderStatusPaid
	paid.PaymentRef = "pay_other"
	f.orders.order = paid

	_, err := f.service.ConfirmPayment(context.Background(), signedCommand())
	if !errors.Is(err, ErrPaymentConflict) {
		t.Fatalf("expected ErrPaymentConflict, got %v", err)
	}
}

func TestConfirmPaymentConflictRecoversAsReplay(t *testing.T) {
	f := newConfirmationFixture(t)
	winner := payableOrder()
	winner.Status = domain.OrderStatusPaid
	winner.PaymentRef = "pay_1"
	winner.Total = dec(t, "950")
	f.orders.markPaidErr = stubRepoError{conflict: true}
	f.orders.afterConflict = &winner

	result, err := f.service.ConfirmPayment(context.Background(), signedCommand())
	if err != nil {
		t.Fatalf("ConfirmPayment after conflict: %v", err)
	}
	if !result.Replayed {
		t.Fatal("expected replay after losing the transition race")
	}
}

func TestConfirmPaymentConflictWithDifferentPaymentFails(t *testing.T) {
	f := newConfirmationFixture(t)
	winner := payableOrder()
	winner.Status = domain.OrderStatusPaid
	winner.PaymentRef = "pay_other"
	f.orders.markPaidErr = stubRepoError{conflict: true}
	f.orders.afterConflict = &winner

	_, err := f.service.ConfirmPayment(context.Background(), signedCommand())
	if !errors.Is(err, ErrPaymentConflict) {
		t.Fatalf("expected ErrPaymentConflict, got %v", err)
	}
}

func TestConfirmPaymentResolverFailureAbortsBeforeCommit(t *testing.T) {
	f := newConfirmationFixture(t)
	f.resolver.err = errors.New("resolver down")

	_, err := f.service.ConfirmPayment(context.Background(), signedCommand())
	if !errors.Is(err, ErrPaymentUnavailable) {
		t.Fatalf("expected ErrPaymentUnavailable, got %v", err)
	}
	if f.orders.markPaidCalls != 0 {
		t.Fatalf("expected no paid transition, got %d", f.orders.markPaidCalls)
	}
}

func TestConfirmPaymentAttributionWriteFailureStillSucceeds(t *testing.T) {
	f := newConfirmationFixture(t)
	f.resolver.found = true
	f.resolver.resolved = ResolvedAttribution{
		PromoCodeID:       strPtr("promo_1"),
		DiscountPercent:   dec(t, "10"),
		CommissionPercent: dec(t, "5"),
	}
	f.attributions.upsertErr = stubRepoError{unavailable: true}

	result, err := f.service.ConfirmPayment(context.Background(), signedCommand())
	if err != nil {
		t.Fatalf("ConfirmPayment: %v", err)
	}
	if result.Attribution != nil {
		t.Fatal("expected no attribution in result after failed write")
	}
	if result.Order.Status != domain.OrderStatusPaid {
		t.Fatalf("expected order paid, got %s", result.Order.Status)
	}
	// No usage increment when the attribution record did not land.
	if len(f.sideEffects.inputs) != 1 || f.sideEffects.inputs[0].IncrementPromoID != "" {
		t.Fatalf("expected side effects without promo increment, got %#v", f.sideEffects.inputs)
	}
}

func TestConfirmPaymentTraceRecorded(t *testing.T) {
	f := newConfirmationFixture(t)

	cmd := signedCommand()
	cmd.IncludeTrace = true

	result, err := f.service.ConfirmPayment(context.Background(), cmd)
	if err != nil {
		t.Fatalf("ConfirmPayment: %v", err)
	}
	if len(result.Trace) == 0 {
		t.Fatal("expected trace steps")
	}

	names := make(map[string]bool)
	for _, step := range result.Trace {
		names[step.Name] = true
	}
	for _, expected := range []string{"verify_signature", "load_order", "fetch_gateway_order", "mark_paid"} {
		if !names[expected] {
			t.Fatalf("expected trace step %s, got %#v", expected, result.Trace)
		}
	}
}

func TestConfirmPaymentNoTraceByDefault(t *testing.T) {
	f := newConfirmationFixture(t)

	result, err := f.service.ConfirmPayment(context.Background(), signedCommand())
	if err != nil {
		t.Fatalf("ConfirmPayment: %v", err)
	}
	if result.Trace != nil {
		t.Fatalf("expected no trace, got %#v", result.Trace)
	}
}
