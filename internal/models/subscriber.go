package models

import "time"

// Subscriber receives notifications about newly detected postings
type Subscriber struct {
	Name      string    `json:"name" toml:"name" yaml:"name"`
	Email     string    `json:"email" toml:"email" yaml:"email" validate:"required,email"`
	CreatedAt time.Time `json:"created_at,omitempty" toml:"-" yaml:"-"`
}

// Validate validates the subscriber definition
func (s *Subscriber) Validate() error {
	return sourceValidator.Struct(s)
}
