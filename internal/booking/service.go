package booking

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/haziqazlan/agcutz-barbershop/internal/models"
	"github.com/haziqazlan/agcutz-barbershop/internal/slots"
)

// Mailer hands off the new-booking notification. Delivery is best-effort and
// never affects the booking outcome.
type Mailer interface {
	SendBookingNotification(ctx context.Context, appointment models.Appointment) (string, error)
}

type BookRequest struct {
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Type          string
	Address       *models.Address
	Date          string
	TimeSlot      string
}

type Availability struct {
	Date           string   `json:"date"`
	AvailableSlots []string `json:"availableSlots"`
	BookedSlots    []string `json:"bookedSlots"`
}

type Service struct {
	repo   Repository
	mailer Mailer
	log    *slog.Logger
	loc    *time.Location
	price  int
}

func NewService(repo Repository, mailer Mailer, log *slog.Logger, loc *time.Location, price int) *Service {
	return &Service{
		repo:   repo,
		mailer: mailer,
		log:    log,
		loc:    loc,
		price:  price,
	}
}

// Book admits a booking request. The repository insert is the atomic check:
// the FindConflicting probe before it only exists to give the common case a
// friendly answer without burning an ObjectID.
func (s *Service) Book(ctx context.Context, req BookRequest) (models.Appointment, error) {
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.CustomerEmail = strings.TrimSpace(req.CustomerEmail)
	req.CustomerPhone = strings.TrimSpace(req.CustomerPhone)

	if err := s.validate(req); err != nil {
		return models.Appointment{}, err
	}

	if _, err := s.repo.FindConflicting(ctx, req.Date, req.TimeSlot); err == nil {
		return models.Appointment{}, ErrSlotTaken
	} else if !errors.Is(err, ErrNotFound) {
		return models.Appointment{}, err
	}

	now := time.Now().In(s.loc)
	appointment := models.Appointment{
		ID:            primitive.NewObjectID().Hex(),
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		Type:          req.Type,
		Date:          req.Date,
		TimeSlot:      req.TimeSlot,
		Price:         s.price,
		Status:        models.StatusUpcoming,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if req.Type == models.AppointmentTypeOutcall {
		appointment.Address = req.Address
	}

	if err := s.repo.Insert(ctx, appointment); err != nil {
		return models.Appointment{}, err
	}

	if s.mailer != nil {
		go s.sendBookingNotification(appointment)
	}

	return appointment, nil
}

func (s *Service) validate(req BookRequest) error {
	if req.CustomerName == "" {
		return invalidField("customerName", "customer name is required")
	}
	if req.CustomerEmail == "" {
		return invalidField("customerEmail", "customer email is required")
	}
	if req.CustomerPhone == "" {
		return invalidField("customerPhone", "customer phone is required")
	}

	switch req.Type {
	case models.AppointmentTypeInPerson, models.AppointmentTypeOutcall:
	default:
		return invalidField("appointmentType", "appointment type must be inPerson or outcall")
	}

	if req.Type == models.AppointmentTypeOutcall {
		a := req.Address
		if a == nil || strings.TrimSpace(a.Street) == "" || strings.TrimSpace(a.City) == "" || strings.TrimSpace(a.Zip) == "" {
			return invalidField("address", "address (street, city, zip) is required for outcall appointments")
		}
	}

	if !slots.IsValid(req.TimeSlot) {
		return invalidField("timeSlot", "time slot is not offered")
	}

	now := time.Now()
	past, err := slots.IsDatePast(req.Date, s.loc, now)
	if err != nil {
		return invalidField("date", "date must be formatted YYYY-MM-DD")
	}
	if past {
		return invalidField("date", "date is in the past")
	}

	slotPast, err := slots.IsSlotPast(req.Date, req.TimeSlot, s.loc, now)
	if err != nil {
		return invalidField("timeSlot", "invalid time slot")
	}
	if slotPast {
		return invalidField("timeSlot", "time slot has already passed")
	}

	return nil
}

// AvailableSlots recomputes availability from the store on every call; the
// only staleness is whatever the store itself allows.
func (s *Service) AvailableSlots(ctx context.Context, date string) (Availability, error) {
	if _, err := slots.ParseDate(date, s.loc); err != nil {
		return Availability{}, invalidField("date", "date must be formatted YYYY-MM-DD")
	}

	active, err := s.repo.ListActiveByDate(ctx, date)
	if err != nil {
		return Availability{}, err
	}

	booked := make(map[string]bool, len(active))
	bookedSlots := make([]string, 0, len(active))
	for _, appointment := range active {
		if booked[appointment.TimeSlot] {
			continue
		}
		booked[appointment.TimeSlot] = true
		bookedSlots = append(bookedSlots, appointment.TimeSlot)
	}
	sort.Strings(bookedSlots)

	return Availability{
		Date:           date,
		AvailableSlots: slots.Subtract(booked),
		BookedSlots:    bookedSlots,
	}, nil
}

// UpdateStatus moves an appointment through the lifecycle. Completed and
// canceled are terminal.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) (models.Appointment, error) {
	if !models.ValidStatus(status) {
		return models.Appointment{}, invalidField("status", "status must be upcoming, completed or canceled")
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return models.Appointment{}, err
	}

	if current.Status == status {
		return current, nil
	}
	if current.Status != models.StatusUpcoming {
		return models.Appointment{}, ErrInvalidTransition
	}

	return s.repo.UpdateStatus(ctx, id, status, time.Now().In(s.loc))
}

func (s *Service) Get(ctx context.Context, id string) (models.Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

// Delete hard-deletes regardless of status and returns the removed
// appointment so callers can invalidate the day's availability.
func (s *Service) Delete(ctx context.Context, id string) (models.Appointment, error) {
	appointment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return models.Appointment{}, err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return models.Appointment{}, err
	}
	return appointment, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter, limit, offset int64) ([]models.Appointment, int64, error) {
	if filter.Status != "" && !models.ValidStatus(filter.Status) {
		return nil, 0, invalidField("status", "status must be upcoming, completed or canceled")
	}
	if filter.Date != "" {
		if _, err := slots.ParseDate(filter.Date, s.loc); err != nil {
			return nil, 0, invalidField("date", "date must be formatted YYYY-MM-DD")
		}
	}

	items, err := s.repo.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *Service) sendBookingNotification(appointment models.Appointment) {
	ctx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()

	messageID, err := s.mailer.SendBookingNotification(ctx, appointment)
	if err != nil {
		s.log.Warn("booking email: send failed",
			slog.String("appointment_id", appointment.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	s.log.Info("booking email: sent",
		slog.String("appointment_id", appointment.ID),
		slog.String("message_id", messageID),
	)
}
