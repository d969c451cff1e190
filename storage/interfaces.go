package storage

import (
	"context"

	"contact-scraper/models"
)

// RosterWriter is the interface any roster backend must satisfy.
type RosterWriter interface {
	WriteRoster(ctx context.Context, roster []models.Agent) error
}

// RosterReader returns a previously persisted roster.
type RosterReader interface {
	ReadRoster(ctx context.Context) ([]models.Agent, error)
}

// ContactWriter persists consolidated contacts.
type ContactWriter interface {
	WriteContacts(ctx context.Context, contacts []models.Observation) error
}
