package models

import "time"

const (
	AppointmentTypeInPerson = "inPerson"
	AppointmentTypeOutcall  = "outcall"

	StatusUpcoming  = "upcoming"
	StatusCompleted = "completed"
	StatusCanceled  = "canceled"

	UserRoleAdmin = "admin"
)

// Address is where an outcall appointment takes place. Stored only when the
// appointment type is outcall.
type Address struct {
	Street string `bson:"street" json:"street"`
	City   string `bson:"city" json:"city"`
	Zip    string `bson:"zip" json:"zip"`
}

// Appointment is a booked slot. At most one non-canceled appointment may
// exist per (date, timeSlot); the partial unique index in internal/db is the
// final authority on that.
type Appointment struct {
	ID            string    `bson:"_id,omitempty" json:"id"`
	CustomerName  string    `bson:"customerName" json:"customerName"`
	CustomerEmail string    `bson:"customerEmail" json:"customerEmail"`
	CustomerPhone string    `bson:"customerPhone" json:"customerPhone"`
	Type          string    `bson:"appointmentType" json:"appointmentType"`
	Address       *Address  `bson:"address,omitempty" json:"address,omitempty"`
	Date          string    `bson:"date" json:"date"`
	TimeSlot      string    `bson:"timeSlot" json:"timeSlot"`
	Price         int       `bson:"price" json:"price"`
	Status        string    `bson:"status" json:"status"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt" json:"updatedAt"`
}

type User struct {
	ID           string    `bson:"_id,omitempty" json:"id"`
	Username     string    `bson:"username" json:"username"`
	PasswordHash string    `bson:"passwordHash" json:"-"`
	Role         string    `bson:"role" json:"role"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}

func ValidStatus(status string) bool {
	switch status {
	case StatusUpcoming, StatusCompleted, StatusCanceled:
		return true
	}
	return false
}
