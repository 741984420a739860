package model

import (
	"time"
)

// LeadStatus is the categorical lead temperature.
type LeadStatus string

const (
	LeadCold LeadStatus = "cold"
	LeadWarm LeadStatus = "warm"
	LeadHot  LeadStatus = "hot"
)

// CustomerMetadata is the per-(tenant, customer) profile record, stored
// separately from the conversation log. Partial updates merge field by field;
// zero-valued fields in an update leave the stored value untouched.
type CustomerMetadata struct {
	Username         string     `json:"username,omitempty"`
	Name             string     `json:"name,omitempty"`
	ProfilePic       string     `json:"profile_pic,omitempty"`
	Email            string     `json:"email,omitempty"`
	LeadScore        int        `json:"lead_score,omitempty"`
	LeadStatus       LeadStatus `json:"lead_status,omitempty"`
	Intent           string     `json:"intent,omitempty"`
	AgentBlocked     bool       `json:"agent_blocked"`
	BookingCompleted bool       `json:"booking_completed,omitempty"`
	BookingTime      string     `json:"booking_time,omitempty"`
	Service          string     `json:"service,omitempty"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// MetadataUpdate carries a partial metadata write. Pointer fields distinguish
// "leave unchanged" (nil) from "overwrite with zero value".
type MetadataUpdate struct {
	Username         *string
	Name             *string
	ProfilePic       *string
	Email            *string
	LeadScore        *int
	LeadStatus       *LeadStatus
	Intent           *string
	AgentBlocked     *bool
	BookingCompleted *bool
	BookingTime      *string
	Service          *string
}

// Apply merges the update into the record.
func (u MetadataUpdate) Apply(m *CustomerMetadata) {
	if u.Username != nil {
		m.Username = *u.Username
	}
	if u.Name != nil {
		m.Name = *u.Name
	}
	if u.ProfilePic != nil {
		m.ProfilePic = *u.ProfilePic
	}
	if u.Email != nil {
		m.Email = *u.Email
	}
	if u.LeadScore != nil {
		m.LeadScore = *u.LeadScore
	}
	if u.LeadStatus != nil {
		m.LeadStatus = *u.LeadStatus
	}
	if u.Intent != nil {
		m.Intent = *u.Intent
	}
	if u.AgentBlocked != nil {
		m.AgentBlocked = *u.AgentBlocked
	}
	if u.BookingCompleted != nil {
		m.BookingCompleted = *u.BookingCompleted
	}
	if u.BookingTime != nil {
		m.BookingTime = *u.BookingTime
	}
	if u.Service != nil {
		m.Service = *u.Service
	}
}

// String returns a pointer to s, for building MetadataUpdate literals.
func String(s string) *string { return &s }

// Int returns a pointer to i.
func Int(i int) *int { return &i }

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }

// Status returns a pointer to s.
func Status(s LeadStatus) *LeadStatus { return &s }
