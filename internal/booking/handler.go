package booking

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/haziqazlan/agcutz-barbershop/internal/cache"
	"github.com/haziqazlan/agcutz-barbershop/internal/httpx"
	"github.com/haziqazlan/agcutz-barbershop/internal/middleware"
	"github.com/haziqazlan/agcutz-barbershop/internal/models"
	"github.com/haziqazlan/agcutz-barbershop/internal/transport"
	"github.com/haziqazlan/agcutz-barbershop/internal/validation"
)

const availabilityCachePrefix = "availability:"

type Handler struct {
	service  *Service
	val      *validation.Validator
	cache    cache.Cache
	cacheTTL time.Duration
	log      *slog.Logger
}

func NewHandler(service *Service, val *validation.Validator, cacheStore cache.Cache, cacheTTL time.Duration, log *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		val:      val,
		cache:    cacheStore,
		cacheTTL: cacheTTL,
		log:      log,
	}
}

type AddressPayload struct {
	Street string `json:"street"`
	City   string `json:"city"`
	Zip    string `json:"zip"`
}

type CreateAppointmentRequest struct {
	CustomerName    string          `json:"customerName" validate:"required"`
	CustomerEmail   string          `json:"customerEmail" validate:"required,email"`
	CustomerPhone   string          `json:"customerPhone" validate:"required,phone"`
	AppointmentType string          `json:"appointmentType" validate:"required,oneof=inPerson outcall"`
	Address         *AddressPayload `json:"address"`
	Date            string          `json:"date" validate:"required,date"`
	TimeSlot        string          `json:"timeSlot" validate:"required,clock"`
}

type availabilityQuery struct {
	Date string `validate:"required,date"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=upcoming completed canceled"`
}

type listQuery struct {
	Date   string `validate:"omitempty,date"`
	Status string `validate:"omitempty,oneof=upcoming completed canceled"`
}

// Create handles the public booking form.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	var req CreateAppointmentRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("appointments create: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("appointments create: validation error")
		details := httpx.ValidationDetails(h.val.ValidationErrors(err))
		transport.WriteError(w, http.StatusBadRequest, "validation error", details)
		return
	}

	bookReq := BookRequest{
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		Type:          req.AppointmentType,
		Date:          req.Date,
		TimeSlot:      req.TimeSlot,
	}
	if req.Address != nil {
		bookReq.Address = &models.Address{
			Street: req.Address.Street,
			City:   req.Address.City,
			Zip:    req.Address.Zip,
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	appointment, err := h.service.Book(ctx, bookReq)
	if err != nil {
		var ve *ValidationError
		switch {
		case errors.As(err, &ve):
			log.Warn("appointments create: rejected", slog.String("field", ve.Field), slog.String("reason", ve.Message))
			transport.WriteError(w, http.StatusBadRequest, ve.Message, map[string]string{ve.Field: "invalid"})
		case errors.Is(err, ErrSlotTaken):
			log.Warn("appointments create: slot taken", slog.String("date", req.Date), slog.String("time_slot", req.TimeSlot))
			transport.WriteError(w, http.StatusConflict, "This time slot is already booked. Please choose another time.", nil)
		default:
			log.Error("appointments create: database error", slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		}
		return
	}

	h.invalidateAvailability(r.Context(), appointment.Date)

	log.Info("appointments create: booked",
		slog.String("appointment_id", appointment.ID),
		slog.String("date", appointment.Date),
		slog.String("time_slot", appointment.TimeSlot),
	)
	transport.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"message":     "Appointment booked successfully!",
		"appointment": appointment,
	})
}

// GetAvailableSlots serves the public date picker.
func (h *Handler) GetAvailableSlots(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	q := availabilityQuery{Date: r.URL.Query().Get("date")}
	if err := h.val.Struct(q); err != nil {
		log.Warn("availability: invalid query")
		details := httpx.ValidationDetails(h.val.ValidationErrors(err))
		transport.WriteError(w, http.StatusBadRequest, "invalid query", details)
		return
	}

	cacheKey := availabilityCachePrefix + q.Date
	if h.cache != nil {
		if cached, ok, err := h.cache.Get(r.Context(), cacheKey); err == nil && ok {
			log.Info("availability: cache hit", slog.String("date", q.Date))
			transport.WriteCached(w, http.StatusOK, cached)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	availability, err := h.service.AvailableSlots(ctx, q.Date)
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			log.Warn("availability: invalid date", slog.String("date", q.Date))
			transport.WriteError(w, http.StatusBadRequest, ve.Message, nil)
			return
		}
		log.Error("availability: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	if h.cache != nil {
		if payload, err := json.Marshal(availability); err == nil {
			_ = h.cache.Set(r.Context(), cacheKey, payload, h.cacheTTL)
		}
	}

	log.Info("availability: ok",
		slog.String("date", q.Date),
		slog.Int("available", len(availability.AvailableSlots)),
		slog.Int("booked", len(availability.BookedSlots)),
	)
	transport.WriteJSON(w, http.StatusOK, availability)
}

// AdminList returns appointments for the dashboard, optionally filtered by
// date and status, sorted by (date, timeSlot).
func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	q := listQuery{
		Date:   r.URL.Query().Get("date"),
		Status: r.URL.Query().Get("status"),
	}
	if err := h.val.Struct(q); err != nil {
		log.Warn("appointments list: invalid query")
		details := httpx.ValidationDetails(h.val.ValidationErrors(err))
		transport.WriteError(w, http.StatusBadRequest, "invalid query", details)
		return
	}

	limit, offset, err := httpx.ParseLimitOffset(r.URL.Query(), 100, 500)
	if err != nil {
		log.Warn("appointments list: invalid pagination")
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	items, total, err := h.service.List(ctx, ListFilter{Date: q.Date, Status: q.Status}, limit, offset)
	if err != nil {
		log.Error("appointments list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("appointments list: ok", slog.Int("count", len(items)), slog.Int64("total", total))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count":        total,
		"appointments": items,
	})
}

func (h *Handler) AdminGet(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := chi.URLParam(r, "id")
	if id == "" {
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	appointment, err := h.service.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn("appointments get: not found", slog.String("appointment_id", id))
			transport.WriteError(w, http.StatusNotFound, "appointment not found", nil)
			return
		}
		log.Error("appointments get: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("appointments get: ok", slog.String("appointment_id", id))
	transport.WriteJSON(w, http.StatusOK, appointment)
}

// AdminUpdateStatus drives the lifecycle from the dashboard.
func (h *Handler) AdminUpdateStatus(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := chi.URLParam(r, "id")
	if id == "" {
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	var req updateStatusRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("appointments status: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("appointments status: validation error")
		details := httpx.ValidationDetails(h.val.ValidationErrors(err))
		transport.WriteError(w, http.StatusBadRequest, "validation error", details)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	appointment, err := h.service.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		var ve *ValidationError
		switch {
		case errors.As(err, &ve):
			transport.WriteError(w, http.StatusBadRequest, ve.Message, nil)
		case errors.Is(err, ErrNotFound):
			log.Warn("appointments status: not found", slog.String("appointment_id", id))
			transport.WriteError(w, http.StatusNotFound, "appointment not found", nil)
		case errors.Is(err, ErrInvalidTransition):
			log.Warn("appointments status: invalid transition", slog.String("appointment_id", id), slog.String("status", req.Status))
			transport.WriteError(w, http.StatusConflict, "appointment is already completed or canceled", nil)
		default:
			log.Error("appointments status: database error", slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		}
		return
	}

	h.invalidateAvailability(r.Context(), appointment.Date)

	log.Info("appointments status: ok", slog.String("appointment_id", id), slog.String("status", appointment.Status))
	transport.WriteJSON(w, http.StatusOK, appointment)
}

func (h *Handler) AdminDelete(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := chi.URLParam(r, "id")
	if id == "" {
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	appointment, err := h.service.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn("appointments delete: not found", slog.String("appointment_id", id))
			transport.WriteError(w, http.StatusNotFound, "appointment not found", nil)
			return
		}
		log.Error("appointments delete: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	h.invalidateAvailability(r.Context(), appointment.Date)

	log.Info("appointments delete: ok", slog.String("appointment_id", id))
	transport.WriteJSON(w, http.StatusOK, map[string]string{"message": "Appointment deleted successfully"})
}

func (h *Handler) invalidateAvailability(ctx context.Context, date string) {
	if h.cache == nil || date == "" {
		return
	}
	_ = h.cache.Delete(ctx, availabilityCachePrefix+date)
}

func (h *Handler) logWithRequest(r *http.Request) *slog.Logger {
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		return h.log.With(slog.String("request_id", id))
	}
	return h.log
}
