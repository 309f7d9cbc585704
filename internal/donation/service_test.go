package donation

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/reliefgrid/relief-api/internal/apperr"
	"github.com/reliefgrid/relief-api/internal/models"
	"github.com/reliefgrid/relief-api/internal/repository"
	"github.com/rs/zerolog"
)

// ledgerFakes back both repositories with in-memory state so the
// pledge/confirm flow can run end to end, including concurrent
// settlements against one alert.
type fakeDonationRepo struct {
	mu        sync.Mutex
	seq       int
	donations map[string]models.Donation
}

func newFakeDonationRepo() *fakeDonationRepo {
	return &fakeDonationRepo{donations: make(map[string]models.Donation)}
}

func (f *fakeDonationRepo) Create(ctx context.Context, donation models.Donation) (models.Donation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	donation.ID = fmt.Sprintf("donation-%d", f.seq)
	donation.Status = models.DonationStatusPending
	f.donations[donation.ID] = donation
	return donation, nil
}

func (f *fakeDonationRepo) Get(ctx context.Context, id string) (models.Donation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	donation, ok := f.donations[id]
	if !ok {
		return models.Donation{}, apperr.NotFound("donation " + id)
	}
	return donation, nil
}

func (f *fakeDonationRepo) ListByAlert(ctx context.Context, alertID string) ([]models.Donation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Donation
	for _, d := range f.donations {
		if d.AlertID == alertID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDonationRepo) MarkCompleted(ctx context.Context, id, paymentReference string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	donation, ok := f.donations[id]
	if !ok {
		return false, apperr.NotFound("donation " + id)
	}
	if donation.Status == models.DonationStatusCompleted {
		return false, nil
	}
	donation.Status = models.DonationStatusCompleted
	donation.PaymentReference = &paymentReference
	f.donations[id] = donation
	return true, nil
}

type fakeAlertLedger struct {
	mu       sync.Mutex
	alerts   map[string]models.Alert
	donors   map[string][]models.DonorEntry
	applyErr error
}

func newFakeAlertLedger(alerts ...models.Alert) *fakeAlertLedger {
	f := &fakeAlertLedger{
		alerts: make(map[string]models.Alert),
		donors: make(map[string][]models.DonorEntry),
	}
	for _, a := range alerts {
		f.alerts[a.ID] = a
	}
	return f
}

func (f *fakeAlertLedger) Get(ctx context.Context, id string) (models.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	alert, ok := f.alerts[id]
	if !ok {
		return models.Alert{}, apperr.NotFound("alert " + id)
	}
	return alert, nil
}

func (f *fakeAlertLedger) ApplyDonation(ctx context.Context, id string, amount int64, donor models.DonorEntry) (models.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.applyErr != nil {
		return models.Alert{}, f.applyErr
	}
	alert, ok := f.alerts[id]
	if !ok {
		return models.Alert{}, apperr.NotFound("alert " + id)
	}
	alert.DonationReceived += amount
	f.alerts[id] = alert
	f.donors[id] = append(f.donors[id], donor)
	return alert, nil
}

func (f *fakeAlertLedger) Create(ctx context.Context, alert models.Alert) (models.Alert, error) {
	return alert, nil
}
func (f *fakeAlertLedger) List(ctx context.Context, filter repository.ListAlertsFilter) ([]models.Alert, error) {
	return nil, nil
}
func (f *fakeAlertLedger) Update(ctx context.Context, id string, patch models.AlertPatch) (models.Alert, error) {
	return models.Alert{}, nil
}
func (f *fakeAlertLedger) Acknowledge(ctx context.Context, id string) (models.Alert, error) {
	return models.Alert{}, nil
}
func (f *fakeAlertLedger) Delete(ctx context.Context, id string) (int64, error) { return 0, nil }

type fakeIntentCreator struct {
	configured bool
	secret     string
	err        error
	calls      int
}

func (f *fakeIntentCreator) Configured() bool { return f.configured }

func (f *fakeIntentCreator) CreateIntent(ctx context.Context, donationID string, amountCents int64, receiptEmail, alertID string) (models.PaymentIntent, error) {
	f.calls++
	if f.err != nil {
		return models.PaymentIntent{}, f.err
	}
	return models.PaymentIntent{ID: "pi_1", ClientSecret: f.secret}, nil
}

func testAlert() models.Alert {
	return models.Alert{
		ID:       "alert-1",
		Headline: "Wildfire near the north ridge",
		Status:   models.AlertStatusActive,
	}
}

func validPledge() PledgeInput {
	return PledgeInput{
		DonorName:  "Alex Chen",
		DonorEmail: "alex@example.com",
		AlertID:    "alert-1",
		Amount:     5000,
	}
}

func TestPledgeValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PledgeInput)
	}{
		{"missing-donor-name", func(in *PledgeInput) { in.DonorName = " " }},
		{"missing-donor-email", func(in *PledgeInput) { in.DonorEmail = "" }},
		{"zero-amount", func(in *PledgeInput) { in.Amount = 0 }},
		{"negative-amount", func(in *PledgeInput) { in.Amount = -100 }},
		{"missing-alert", func(in *PledgeInput) { in.AlertID = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(newFakeDonationRepo(), newFakeAlertLedger(testAlert()), nil, zerolog.Nop())

			input := validPledge()
			tt.mutate(&input)

			if _, err := svc.Pledge(context.Background(), input); !apperr.IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestPledgeUnknownAlert(t *testing.T) {
	svc := NewService(newFakeDonationRepo(), newFakeAlertLedger(), nil, zerolog.Nop())

	if _, err := svc.Pledge(context.Background(), validPledge()); !apperr.IsNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestPledgeRecordsPendingWithoutTouchingAlert(t *testing.T) {
	alerts := newFakeAlertLedger(testAlert())
	donations := newFakeDonationRepo()
	svc := NewService(donations, alerts, nil, zerolog.Nop())

	result, err := svc.Pledge(context.Background(), validPledge())
	if err != nil {
		t.Fatalf("pledge failed: %v", err)
	}
	if result.Donation.Status != models.DonationStatusPending {
		t.Fatalf("new pledge must be pending, got %s", result.Donation.Status)
	}
	if result.Donation.AlertHeadline != "Wildfire near the north ridge" {
		t.Fatalf("expected denormalized headline, got %q", result.Donation.AlertHeadline)
	}
	if result.Donation.PledgeDate.IsZero() {
		t.Fatal("pledge date must default to now")
	}

	alert, _ := alerts.Get(context.Background(), "alert-1")
	if alert.DonationReceived != 0 {
		t.Fatalf("pledge must not change the alert total, got %d", alert.DonationReceived)
	}
}

func TestPledgeIntentIsBestEffort(t *testing.T) {
	tests := []struct {
		name       string
		payments   *fakeIntentCreator
		wantSecret string
		wantCalls  int
	}{
		{"configured", &fakeIntentCreator{configured: true, secret: "pi_1_secret"}, "pi_1_secret", 1},
		{"not-configured", &fakeIntentCreator{configured: false}, "", 0},
		{"processor-down", &fakeIntentCreator{configured: true, err: errors.New("connection refused")}, "", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(newFakeDonationRepo(), newFakeAlertLedger(testAlert()), tt.payments, zerolog.Nop())

			result, err := svc.Pledge(context.Background(), validPledge())
			if err != nil {
				t.Fatalf("pledge failed: %v", err)
			}
			if result.ClientSecret != tt.wantSecret {
				t.Fatalf("expected client secret %q, got %q", tt.wantSecret, result.ClientSecret)
			}
			if tt.payments.calls != tt.wantCalls {
				t.Fatalf("expected %d intent calls, got %d", tt.wantCalls, tt.payments.calls)
			}
		})
	}
}

func TestConfirmValidation(t *testing.T) {
	svc := NewService(newFakeDonationRepo(), newFakeAlertLedger(), nil, zerolog.Nop())

	if err := svc.Confirm(context.Background(), "", "ref-1"); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error for missing id, got %v", err)
	}
	if err := svc.Confirm(context.Background(), "donation-1", " "); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error for missing reference, got %v", err)
	}
	if err := svc.Confirm(context.Background(), "donation-1", "ref-1"); !apperr.IsNotFound(err) {
		t.Fatalf("expected not-found for unknown donation, got %v", err)
	}
}

func TestConfirmRollsUpOnce(t *testing.T) {
	alerts := newFakeAlertLedger(testAlert())
	donations := newFakeDonationRepo()
	svc := NewService(donations, alerts, nil, zerolog.Nop())

	result, err := svc.Pledge(context.Background(), validPledge())
	if err != nil {
		t.Fatalf("pledge failed: %v", err)
	}

	// First confirmation settles and rolls up; the repeats are no-ops.
	for i := 0; i < 3; i++ {
		if err := svc.Confirm(context.Background(), result.Donation.ID, "ch_123"); err != nil {
			t.Fatalf("confirm %d failed: %v", i, err)
		}
	}

	alert, _ := alerts.Get(context.Background(), "alert-1")
	if alert.DonationReceived != 5000 {
		t.Fatalf("expected total 5000 after repeated confirms, got %d", alert.DonationReceived)
	}
	if len(alerts.donors["alert-1"]) != 1 {
		t.Fatalf("expected a single donor entry, got %d", len(alerts.donors["alert-1"]))
	}

	settled, _ := donations.Get(context.Background(), result.Donation.ID)
	if settled.Status != models.DonationStatusCompleted {
		t.Fatalf("expected completed, got %s", settled.Status)
	}
	if settled.PaymentReference == nil || *settled.PaymentReference != "ch_123" {
		t.Fatal("expected the payment reference to be stamped")
	}
}

func TestConfirmAccumulatesAcrossDonations(t *testing.T) {
	alerts := newFakeAlertLedger(testAlert())
	donations := newFakeDonationRepo()
	svc := NewService(donations, alerts, nil, zerolog.Nop())

	first, err := svc.Pledge(context.Background(), validPledge())
	if err != nil {
		t.Fatalf("pledge failed: %v", err)
	}
	secondInput := validPledge()
	secondInput.DonorName = "Sam Rivera"
	secondInput.DonorEmail = "sam@example.com"
	secondInput.Amount = 2500
	second, err := svc.Pledge(context.Background(), secondInput)
	if err != nil {
		t.Fatalf("pledge failed: %v", err)
	}

	if err := svc.Confirm(context.Background(), first.Donation.ID, "ch_1"); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if err := svc.Confirm(context.Background(), second.Donation.ID, "ch_2"); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}

	alert, _ := alerts.Get(context.Background(), "alert-1")
	if alert.DonationReceived != 7500 {
		t.Fatalf("expected total 7500, got %d", alert.DonationReceived)
	}
	if len(alerts.donors["alert-1"]) != 2 {
		t.Fatalf("expected 2 donor entries, got %d", len(alerts.donors["alert-1"]))
	}
}

func TestConfirmConcurrentSettlements(t *testing.T) {
	alerts := newFakeAlertLedger(testAlert())
	donations := newFakeDonationRepo()
	svc := NewService(donations, alerts, nil, zerolog.Nop())

	const workers = 8
	var ids []string
	for i := 0; i < workers; i++ {
		input := validPledge()
		input.Amount = 1000
		result, err := svc.Pledge(context.Background(), input)
		if err != nil {
			t.Fatalf("pledge failed: %v", err)
		}
		ids = append(ids, result.Donation.ID)
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if err := svc.Confirm(context.Background(), id, "ch_"+id); err != nil {
				t.Errorf("confirm %s failed: %v", id, err)
			}
		}(id)
	}
	wg.Wait()

	alert, _ := alerts.Get(context.Background(), "alert-1")
	if alert.DonationReceived != workers*1000 {
		t.Fatalf("expected total %d, got %d", workers*1000, alert.DonationReceived)
	}
}

func TestConfirmRollupFailureStillSucceeds(t *testing.T) {
	alerts := newFakeAlertLedger(testAlert())
	donations := newFakeDonationRepo()
	svc := NewService(donations, alerts, nil, zerolog.Nop())

	result, err := svc.Pledge(context.Background(), validPledge())
	if err != nil {
		t.Fatalf("pledge failed: %v", err)
	}

	alerts.applyErr = apperr.Storage(errors.New("deadlock detected"), "apply donation")
	if err := svc.Confirm(context.Background(), result.Donation.ID, "ch_123"); err != nil {
		t.Fatalf("roll-up failure must not fail the confirmation: %v", err)
	}

	// The donation is settled even though the aggregate is stale.
	settled, _ := donations.Get(context.Background(), result.Donation.ID)
	if settled.Status != models.DonationStatusCompleted {
		t.Fatalf("expected completed, got %s", settled.Status)
	}
}

func TestPledgeDateRespected(t *testing.T) {
	svc := NewService(newFakeDonationRepo(), newFakeAlertLedger(testAlert()), nil, zerolog.Nop())

	input := validPledge()
	input.PledgeDate = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	result, err := svc.Pledge(context.Background(), input)
	if err != nil {
		t.Fatalf("pledge failed: %v", err)
	}
	if !result.Donation.PledgeDate.Equal(input.PledgeDate) {
		t.Fatalf("expected pledge date %v, got %v", input.PledgeDate, result.Donation.PledgeDate)
	}
}
