// Package domain defines the normalized domain types for the project dashboard.
// These types represent the core concepts independent of the backend API structure.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

const (
	StatusActive    ProjectStatus = "active"
	StatusCompleted ProjectStatus = "completed"
	StatusOnHold    ProjectStatus = "on_hold"
	StatusPlanning  ProjectStatus = "planning"
	StatusCancelled ProjectStatus = "cancelled"
)

// StatusAll is the status filter value that lets every project through.
const StatusAll = "all"

// Statuses lists every project status in display order.
var Statuses = []ProjectStatus{
	StatusActive,
	StatusCompleted,
	StatusOnHold,
	StatusPlanning,
	StatusCancelled,
}

// Valid reports whether s is a known project status.
func (s ProjectStatus) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// ParseStatus converts a raw status string into a ProjectStatus.
func ParseStatus(raw string) (ProjectStatus, error) {
	s := ProjectStatus(strings.TrimSpace(raw))
	if !s.Valid() {
		return "", fmt.Errorf("unknown project status %q", raw)
	}
	return s, nil
}

// DateLayout is the wire and storage layout for calendar dates.
const DateLayout = "2006-01-02"

// Date is a calendar date without time of day.
type Date struct {
	t time.Time
}

// NewDate builds a Date from its components.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD date. Timestamps with a time part are
// accepted and truncated to their date.
func ParseDate(raw string) (Date, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) > len(DateLayout) && raw[len(DateLayout)] == 'T' {
		raw = raw[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", raw, err)
	}
	return Date{t: t}, nil
}

// Time returns the date as midnight UTC.
func (d Date) Time() time.Time { return d.t }

// Before reports whether d is strictly before other.
func (d Date) Before(other Date) bool { return d.t.Before(other.t) }

// Equal reports whether d and other are the same day.
func (d Date) Equal(other Date) bool { return d.t.Equal(other.t) }

// String formats the date as YYYY-MM-DD.
func (d Date) String() string { return d.t.Format(DateLayout) }

// Client is a customer that owns projects.
type Client struct {
	ID           string
	Name         string
	ContactEmail string
	ContactPhone string
	Address      string
}

// ClientRef is the denormalized slice of a client joined into a project at fetch time.
type ClientRef struct {
	Name string
}

// Project is the primary entity of the dashboard.
type Project struct {
	ID          string
	Name        string
	Description *string
	Status      ProjectStatus
	StartDate   *Date
	EndDate     *Date
	ClientID    *string
	CreatedAt   time.Time
}

// ProjectWithClient is a project joined with its client's name.
// The client name reflects the relationship at fetch time only.
type ProjectWithClient struct {
	Project
	Client *ClientRef
}

// DescriptionOrEmpty returns the description, or "" when absent.
func (p ProjectWithClient) DescriptionOrEmpty() string {
	if p.Description == nil {
		return ""
	}
	return *p.Description
}

// ClientName returns the joined client name, or "" when absent.
func (p ProjectWithClient) ClientName() string {
	if p.Client == nil {
		return ""
	}
	return p.Client.Name
}

// NewProject holds the fields needed to create or update a project.
type NewProject struct {
	Name        string
	ClientID    string
	Status      ProjectStatus
	Description *string
	StartDate   *Date
	EndDate     *Date
}

// User is the signed-in account.
type User struct {
	ID    string
	Email string
	Name  string
}
