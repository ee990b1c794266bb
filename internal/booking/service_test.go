package booking

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/haziqazlan/agcutz-barbershop/internal/models"
)

// memoryRepository mimics the Mongo repository, including the partial unique
// constraint over (date, timeSlot) for non-canceled appointments.
type memoryRepository struct {
	mu    sync.Mutex
	items map[string]models.Appointment
	calls int
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{items: make(map[string]models.Appointment)}
}

func (r *memoryRepository) Insert(ctx context.Context, appointment models.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	for _, existing := range r.items {
		if existing.Date == appointment.Date &&
			existing.TimeSlot == appointment.TimeSlot &&
			existing.Status != models.StatusCanceled {
			return ErrSlotTaken
		}
	}
	r.items[appointment.ID] = appointment
	return nil
}

func (r *memoryRepository) FindConflicting(ctx context.Context, date, timeSlot string) (models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	for _, existing := range r.items {
		if existing.Date == date && existing.TimeSlot == timeSlot && existing.Status != models.StatusCanceled {
			return existing, nil
		}
	}
	return models.Appointment{}, ErrNotFound
}

func (r *memoryRepository) ListActiveByDate(ctx context.Context, date string) ([]models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	out := make([]models.Appointment, 0)
	for _, existing := range r.items {
		if existing.Date == date && existing.Status != models.StatusCanceled {
			out = append(out, existing)
		}
	}
	return out, nil
}

func (r *memoryRepository) List(ctx context.Context, filter ListFilter, limit, offset int64) ([]models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Appointment, 0)
	for _, existing := range r.items {
		if filter.Date != "" && existing.Date != filter.Date {
			continue
		}
		if filter.Status != "" && existing.Status != filter.Status {
			continue
		}
		out = append(out, existing)
	}
	return out, nil
}

func (r *memoryRepository) Count(ctx context.Context, filter ListFilter) (int64, error) {
	items, _ := r.List(ctx, filter, 0, 0)
	return int64(len(items)), nil
}

func (r *memoryRepository) GetByID(ctx context.Context, id string) (models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.items[id]
	if !ok {
		return models.Appointment{}, ErrNotFound
	}
	return existing, nil
}

func (r *memoryRepository) UpdateStatus(ctx context.Context, id, status string, now time.Time) (models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.items[id]
	if !ok {
		return models.Appointment{}, ErrNotFound
	}
	existing.Status = status
	existing.UpdatedAt = now
	r.items[id] = existing
	return existing, nil
}

func (r *memoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *memoryRepository) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func newTestService(repo Repository) *Service {
	log := slog.New(slog.NewTextHandler(testWriter{}, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewService(repo, nil, log, time.UTC, 15)
}

type testWriter struct{}

func (testWriter) Write(p []byte) (int, error) { return len(p), nil }

func futureDate() string {
	return time.Now().UTC().AddDate(0, 0, 7).Format("2006-01-02")
}

func validRequest(slot string) BookRequest {
	return BookRequest{
		CustomerName:  "Jordan Reyes",
		CustomerEmail: "jordan@example.com",
		CustomerPhone: "555-0134",
		Type:          models.AppointmentTypeInPerson,
		Date:          futureDate(),
		TimeSlot:      slot,
	}
}

func TestBookHappyPath(t *testing.T) {
	repo := newMemoryRepository()
	svc := newTestService(repo)

	appointment, err := svc.Book(context.Background(), validRequest("14:00"))
	if err != nil {
		t.Fatalf("Book error: %v", err)
	}
	if appointment.Status != models.StatusUpcoming {
		t.Errorf("status = %q, want upcoming", appointment.Status)
	}
	if appointment.Price != 15 {
		t.Errorf("price = %d, want 15", appointment.Price)
	}
	if appointment.ID == "" {
		t.Errorf("expected an assigned id")
	}
	if appointment.Address != nil {
		t.Errorf("in-person booking must not carry an address")
	}
}

func TestBookSameSlotConflicts(t *testing.T) {
	repo := newMemoryRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	if _, err := svc.Book(ctx, validRequest("15:00")); err != nil {
		t.Fatalf("first booking: %v", err)
	}
	_, err := svc.Book(ctx, validRequest("15:00"))
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("second booking err = %v, want ErrSlotTaken", err)
	}
}

func TestBookConcurrentSingleWinner(t *testing.T) {
	repo := newMemoryRepository()
	svc := newTestService(repo)

	const n = 32
	var wg sync.WaitGroup
	results := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Book(context.Background(), validRequest("18:00"))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins, conflicts int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrSlotTaken):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("wins = %d, want exactly 1", wins)
	}
	if conflicts != n-1 {
		t.Fatalf("conflicts = %d, want %d", conflicts, n-1)
	}
}

func TestBookOutcallRequiresFullAddress(t *testing.T) {
	repo := newMemoryRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	req := validRequest("16:00")
	req.Type = models.AppointmentTypeOutcall

	var ve *ValidationError
	if _, err := svc.Book(ctx, req); !errors.As(err, &ve) {
		t.Fatalf("missing address err = %v, want ValidationError", err)
	}

	req.Address = &models.Address{Street: "12 Elm St", City: "Springfield"}
	if _, err := svc.Book(ctx, req); !errors.As(err, &ve) {
		t.Fatalf("partial address err = %v, want ValidationError", err)
	}

	req.Address.Zip = "01101"
	appointment, err := svc.Book(ctx, req)
	if err != nil {
		t.Fatalf("full address booking: %v", err)
	}
	if appointment.Address == nil || appointment.Address.Zip != "01101" {
		t.Fatalf("outcall booking lost its address: %+v", appointment.Address)
	}
}

func TestBookInvalidSlotRejectedBeforeStore(t *testing.T) {
	repo := newMemoryRepository()
	svc := newTestService(repo)

	for _, slot := range []string{"25:99", "11:00", "14:30", "garbage"} {
		req := validRequest(slot)
		var ve *ValidationError
		if _, err := svc.Book(context.Background(), req); !errors.As(err, &ve) {
			t.Fatalf("slot %q err = %v, want ValidationError", slot, err)
		}
	}
	if repo.callCount() != 0 {
		t.Fatalf("store was touched %d times before validation passed", repo.callCount())
	}
}

func TestBookRejectsPastDate(t *testing.T) {
	repo := newMemoryRepository()
	svc := newTestService(repo)

	req := validRequest("14:00")
	req.Date = time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")

	var ve *ValidationError
	if _, err := svc.Book(context.Background(), req); !errors.As(err, &ve) {
		t.Fatalf("past date err = %v, want ValidationError", err)
	}
}

func TestAvailabilityReflectsStoreState(t *testing.T) {
	repo := newMemoryRepository()
	svc := newTestService(repo)
	ctx := context.Background()
	date := futureDate()

	seed := []struct {
		slot   string
		status string
	}{
		{"13:00", models.StatusUpcoming},
		{"14:00", models.StatusCanceled},
		{"15:00", models.StatusCompleted},
	}
	for i, s := range seed {
		repo.items[string(rune('a'+i))] = models.Appointment{
			ID: string(rune('a' + i)), Date: date, TimeSlot: s.slot, Status: s.status,
		}
	}

	availability, err := svc.AvailableSlots(ctx, date)
	if err != nil {
		t.Fatalf("AvailableSlots error: %v", err)
	}

	if !reflect.DeepEqual(availability.BookedSlots, []string{"13:00", "15:00"}) {
		t.Fatalf("bookedSlots = %v, want [13:00 15:00]", availability.BookedSlots)
	}
	free := make(map[string]bool)
	for _, s := range availability.AvailableSlots {
		free[s] = true
	}
	if free["13:00"] || free["15:00"] {
		t.Fatalf("occupied slots leaked into availableSlots: %v", availability.AvailableSlots)
	}
	if !free["14:00"] {
		t.Fatalf("canceled slot 14:00 must be available: %v", availability.AvailableSlots)
	}
}

func TestAvailabilityIdempotentReads(t *testing.T) {
	repo := newMemoryRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	if _, err := svc.Book(ctx, validRequest("17:00")); err != nil {
		t.Fatalf("Book error: %v", err)
	}

	first, err := svc.AvailableSlots(ctx, futureDate())
	if err != nil {
		t.Fatalf("first read: %v", err)
	}
	second, err := svc.AvailableSlots(ctx, futureDate())
	if err != nil {
		t.Fatalf("second read: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("reads differ:\n%+v\n%+v", first, second)
	}
}

func TestAvailabilityRejectsMalformedDate(t *testing.T) {
	svc := newTestService(newMemoryRepository())
	var ve *ValidationError
	if _, err := svc.AvailableSlots(context.Background(), "04/01/2026"); !errors.As(err, &ve) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

func TestCancelFreesSlotForRebooking(t *testing.T) {
	repo := newMemoryRepository()
	svc := newTestService(repo)
	ctx := context.Background()
	date := futureDate()

	appointment, err := svc.Book(ctx, validRequest("14:00"))
	if err != nil {
		t.Fatalf("Book error: %v", err)
	}

	availability, _ := svc.AvailableSlots(ctx, date)
	for _, s := range availability.AvailableSlots {
		if s == "14:00" {
			t.Fatalf("14:00 should be occupied after booking")
		}
	}

	if _, err := svc.UpdateStatus(ctx, appointment.ID, models.StatusCanceled); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	availability, _ = svc.AvailableSlots(ctx, date)
	found := false
	for _, s := range availability.AvailableSlots {
		if s == "14:00" {
			found = true
		}
	}
	if !found {
		t.Fatalf("14:00 should be free again after cancel: %v", availability.AvailableSlots)
	}

	if _, err := svc.Book(ctx, validRequest("14:00")); err != nil {
		t.Fatalf("re-booking the freed slot: %v", err)
	}
}

func TestUpdateStatusTerminalStatesAreFinal(t *testing.T) {
	repo := newMemoryRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	appointment, err := svc.Book(ctx, validRequest("19:00"))
	if err != nil {
		t.Fatalf("Book error: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, appointment.ID, models.StatusCompleted); err != nil {
		t.Fatalf("complete: %v", err)
	}

	if _, err := svc.UpdateStatus(ctx, appointment.ID, models.StatusUpcoming); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("completed->upcoming err = %v, want ErrInvalidTransition", err)
	}
	if _, err := svc.UpdateStatus(ctx, appointment.ID, models.StatusCanceled); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("completed->canceled err = %v, want ErrInvalidTransition", err)
	}

	// Same-status update is a no-op, not a transition.
	if _, err := svc.UpdateStatus(ctx, appointment.ID, models.StatusCompleted); err != nil {
		t.Fatalf("completed->completed should be a no-op, got %v", err)
	}
}

func TestUpdateStatusValidation(t *testing.T) {
	svc := newTestService(newMemoryRepository())
	ctx := context.Background()

	var ve *ValidationError
	if _, err := svc.UpdateStatus(ctx, "whatever", "archived"); !errors.As(err, &ve) {
		t.Fatalf("bad status err = %v, want ValidationError", err)
	}
	if _, err := svc.UpdateStatus(ctx, "missing", models.StatusCanceled); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing id err = %v, want ErrNotFound", err)
	}
}

func TestDeleteAnyStatus(t *testing.T) {
	repo := newMemoryRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	appointment, err := svc.Book(ctx, validRequest("20:00"))
	if err != nil {
		t.Fatalf("Book error: %v", err)
	}

	deleted, err := svc.Delete(ctx, appointment.ID)
	if err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if deleted.Date != appointment.Date {
		t.Fatalf("deleted copy mismatch: %+v", deleted)
	}
	if _, err := svc.Get(ctx, appointment.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("appointment still present after delete")
	}
	if _, err := svc.Delete(ctx, appointment.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double delete err = %v, want ErrNotFound", err)
	}
}
