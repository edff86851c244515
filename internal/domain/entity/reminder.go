package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ContactMode is the delivery channel of a contact. Only email currently has
// a dispatch implementation; the other modes are accepted and skipped.
type ContactMode string

const (
	ModeEmail ContactMode = "email"
	ModeSMS   ContactMode = "sms"
	ModePush  ContactMode = "push"
	ModeICal  ContactMode = "ical"
)

// Valid reports whether the mode is one of the known delivery channels.
func (m ContactMode) Valid() bool {
	switch m {
	case ModeEmail, ModeSMS, ModePush, ModeICal:
		return true
	}
	return false
}

// Contact is one notification recipient of a reminder.
type Contact struct {
	ID      int         `json:"id"`
	Mode    ContactMode `json:"mode"`
	Address string      `json:"address"`
}

// MinAlertOffsetMs is the smallest accepted alert offset. It matches the
// minimum scheduler tick so an alert window always closes before its event
// time passes.
const MinAlertOffsetMs int64 = 3000

// Alert schedules a notification OffsetMs milliseconds before the event time.
type Alert struct {
	ID       int   `json:"id"`
	OffsetMs int64 `json:"offsetMs"`
}

// Offset returns the alert offset as a duration.
func (a Alert) Offset() time.Duration {
	return time.Duration(a.OffsetMs) * time.Millisecond
}

// ContactList is stored as a JSON text column; the Valuer/Scanner pair is the
// transformation layer between storage rows and in-memory reminders.
type ContactList []Contact

// Value serialises the contact list to a JSON string for storage.
func (c ContactList) Value() (driver.Value, error) {
	if c == nil {
		c = ContactList{}
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal contacts: %w", err)
	}
	return string(b), nil
}

// Scan deserialises a JSON string from storage into the contact list.
func (c *ContactList) Scan(src interface{}) error {
	return scanJSON(src, c, "contacts")
}

// AlertList is stored as a JSON text column, same codec as ContactList.
type AlertList []Alert

// Value serialises the alert list to a JSON string for storage.
func (a AlertList) Value() (driver.Value, error) {
	if a == nil {
		a = AlertList{}
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal alerts: %w", err)
	}
	return string(b), nil
}

// Scan deserialises a JSON string from storage into the alert list.
func (a *AlertList) Scan(src interface{}) error {
	return scanJSON(src, a, "alerts")
}

func scanJSON(src, dst interface{}, what string) error {
	switch v := src.(type) {
	case nil:
		return nil
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dst)
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dst)
	default:
		return fmt.Errorf("scan %s: unsupported source type %T", what, src)
	}
}

// Reminder is the aggregate the scheduling engine works on. The engine only
// ever mutates LastAlertTime and IsActive; everything else belongs to CRUD.
type Reminder struct {
	ID            uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	Title         string      `gorm:"column:title;type:text" json:"title"`
	Description   string      `gorm:"column:description;type:text" json:"description"`
	Date          time.Time   `gorm:"column:date" json:"date"`
	Location      *string     `gorm:"column:location;type:text" json:"location,omitempty"`
	Contacts      ContactList `gorm:"column:contacts;type:text" json:"contacts"`
	Alerts        AlertList   `gorm:"column:alerts;type:text" json:"alerts"`
	IsRecurring   bool        `gorm:"column:is_recurring" json:"isRecurring"`
	Recurrence    *string     `gorm:"column:recurrence;type:text" json:"recurrence,omitempty"`
	StartDate     *time.Time  `gorm:"column:start_date" json:"startDate,omitempty"`
	EndDate       *time.Time  `gorm:"column:end_date" json:"endDate,omitempty"`
	LastAlertTime *time.Time  `gorm:"column:last_alert_time" json:"lastAlertTime,omitempty"`
	IsActive      bool        `gorm:"column:is_active" json:"isActive"`
}

// TableName specifies the table name for the Reminder entity.
func (Reminder) TableName() string {
	return "reminders"
}
