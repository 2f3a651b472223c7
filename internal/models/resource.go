package models

import "time"

// Resource is a bookable room or transport vehicle.
// Rooms carry Capacity and Facilities; transports carry Vehicle, Driver
// and Capacity (seats).
type Resource struct {
	ID         int64     `json:"id" yaml:"id"`
	Type       string    `json:"type" yaml:"type"` // room, transport
	Name       string    `json:"name" yaml:"name"`
	Capacity   int64     `json:"capacity" yaml:"capacity"`
	Facilities []string  `json:"facilities,omitempty" yaml:"facilities"`
	Vehicle    string    `json:"vehicle,omitempty" yaml:"vehicle"`
	Driver     string    `json:"driver,omitempty" yaml:"driver"`
	SortOrder  int64     `json:"sort_order" yaml:"sort_order"`
	IsActive   bool      `json:"is_active" yaml:"is_active"`
	CreatedAt  time.Time `json:"created_at" yaml:"-"`
	UpdatedAt  time.Time `json:"updated_at" yaml:"-"`
}
