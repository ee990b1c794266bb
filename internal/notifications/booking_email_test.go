package notifications

import (
	"strings"
	"testing"

	"github.com/haziqazlan/agcutz-barbershop/internal/models"
)

func TestBuildBookingNotificationHTMLOutcall(t *testing.T) {
	appt := models.Appointment{
		ID:            "abc123",
		CustomerName:  "Jordan Reyes",
		CustomerEmail: "jordan@example.com",
		CustomerPhone: "555-0134",
		Type:          models.AppointmentTypeOutcall,
		Address:       &models.Address{Street: "12 Elm St", City: "Springfield", Zip: "01101"},
		Date:          "2026-04-01",
		TimeSlot:      "14:00",
		Price:         15,
	}

	html, err := buildBookingNotificationHTML(appt)
	if err != nil {
		t.Fatalf("build html: %v", err)
	}
	for _, want := range []string{"Jordan Reyes", "2026-04-01", "14:00", "Outcall Service", "12 Elm St", "abc123"} {
		if !strings.Contains(html, want) {
			t.Errorf("html missing %q", want)
		}
	}
}

func TestBuildBookingNotificationHTMLInPersonOmitsAddress(t *testing.T) {
	appt := models.Appointment{
		ID:            "def456",
		CustomerName:  "Sam Okafor",
		CustomerEmail: "sam@example.com",
		CustomerPhone: "555-0188",
		Type:          models.AppointmentTypeInPerson,
		Address:       &models.Address{Street: "should not render"},
		Date:          "2026-04-02",
		TimeSlot:      "12:00",
		Price:         15,
	}

	html, err := buildBookingNotificationHTML(appt)
	if err != nil {
		t.Fatalf("build html: %v", err)
	}
	if strings.Contains(html, "should not render") {
		t.Errorf("in-person booking must not render an address")
	}
	if !strings.Contains(html, "In-Person") {
		t.Errorf("html missing type label")
	}
}

func TestNewBrevoClientDisabledWithoutConfig(t *testing.T) {
	if c := NewBrevoClient("", "sender@example.com", "", "admin@example.com", false); c != nil {
		t.Fatalf("expected nil client without api key")
	}
	if c := NewBrevoClient("key", "sender@example.com", "", "", false); c != nil {
		t.Fatalf("expected nil client without notify email")
	}
	if c := NewBrevoClient("key", "sender@example.com", "", "admin@example.com", false); c == nil {
		t.Fatalf("expected configured client")
	}
}
