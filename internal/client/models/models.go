package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ItsLhuis/mxt-sub001/pkg/domain"
)

// Client is a customer of the workshop.
type Client struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Clone returns a copy that shares no pointers with c.
func (c Client) Clone() Client {
	if c.Description != nil {
		d := *c.Description
		c.Description = &d
	}
	return c
}

// Ref is the relation value other entities store for c.
func (c Client) Ref() domain.Ref {
	return domain.Ref{ID: c.ID, Name: c.Name}
}

// ContactKind classifies a client contact.
type ContactKind string

const (
	ContactPhone ContactKind = "phone"
	ContactEmail ContactKind = "email"
	ContactOther ContactKind = "other"
)

// Contact is a phone number, e-mail address or other way to reach a client.
type Contact struct {
	ID        uuid.UUID   `json:"id"`
	ClientID  uuid.UUID   `json:"client_id"`
	Kind      ContactKind `json:"kind"`
	Value     string      `json:"value"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}
