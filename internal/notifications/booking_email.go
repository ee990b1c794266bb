package notifications

import (
	"bytes"
	"html/template"

	"github.com/haziqazlan/agcutz-barbershop/internal/models"
)

const bookingNotificationTemplate = `<!DOCTYPE html>
<html>
<body>
  <h2>New Appointment Booking</h2>
  <h3>Customer</h3>
  <ul>
    <li>Name: {{.CustomerName}}</li>
    <li>Email: {{.CustomerEmail}}</li>
    <li>Phone: {{.CustomerPhone}}</li>
  </ul>
  <h3>Appointment</h3>
  <ul>
    <li>Date: {{.Date}}</li>
    <li>Time: {{.TimeSlot}}</li>
    <li>Type: {{.TypeLabel}}</li>
    {{if .Address}}<li>Address: {{.Address.Street}}, {{.Address.City}} {{.Address.Zip}}</li>{{end}}
    <li>Price: ${{.Price}}</li>
    <li>Booking reference: {{.AppointmentID}}</li>
  </ul>
  <p>Log in to the dashboard to manage this appointment.</p>
</body>
</html>`

var bookingNotificationTmpl = template.Must(template.New("booking_notification").Parse(bookingNotificationTemplate))

type bookingNotificationData struct {
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Date          string
	TimeSlot      string
	TypeLabel     string
	Address       *models.Address
	Price         int
	AppointmentID string
}

func buildBookingNotificationHTML(appointment models.Appointment) (string, error) {
	data := bookingNotificationData{
		CustomerName:  appointment.CustomerName,
		CustomerEmail: appointment.CustomerEmail,
		CustomerPhone: appointment.CustomerPhone,
		Date:          appointment.Date,
		TimeSlot:      appointment.TimeSlot,
		TypeLabel:     appointmentTypeLabel(appointment.Type),
		Price:         appointment.Price,
		AppointmentID: appointment.ID,
	}
	if appointment.Type == models.AppointmentTypeOutcall {
		data.Address = appointment.Address
	}
	var buf bytes.Buffer
	if err := bookingNotificationTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func appointmentTypeLabel(value string) string {
	switch value {
	case models.AppointmentTypeInPerson:
		return "In-Person"
	case models.AppointmentTypeOutcall:
		return "Outcall Service"
	default:
		return value
	}
}
