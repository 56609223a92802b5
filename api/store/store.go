// Package store persists marathons and the applications registered to them.
package store

import (
	"context"
	"errors"

	"github.com/onestay/MarathonRegistry-API/api/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection names.
const (
	MarathonCollection    = "marathons"
	ApplicationCollection = "applications"
)

// ErrNotFound is returned when no document matches the requested id.
var ErrNotFound = errors.New("not found")

// InsertResult mirrors the acknowledgement returned by the database for an insert.
type InsertResult struct {
	Acknowledged bool        `json:"acknowledged"`
	InsertedID   interface{} `json:"insertedId"`
}

// MarathonStore is the set of operations on the marathons collection.
type MarathonStore interface {
	// ListMarathons returns every marathon, at most limit of them when limit > 0.
	ListMarathons(ctx context.Context, limit int64) ([]models.Document, error)
	FindMarathon(ctx context.Context, id string) (models.Document, error)
	MarathonsByEmail(ctx context.Context, email string) ([]models.Document, error)
	InsertMarathon(ctx context.Context, doc models.Document) (*InsertResult, error)
	// UpdateMarathon sets the given fields and returns the document after the update.
	UpdateMarathon(ctx context.Context, id string, fields models.Document) (models.Document, error)
	// BackfillRegistrationCount sets the counter to 0 only while it is missing or
	// not a number, so it never overwrites a concurrent increment.
	BackfillRegistrationCount(ctx context.Context, id string) error
	IncrementRegistrationCount(ctx context.Context, id string) error
	DeleteMarathon(ctx context.Context, id string) error
}

// ApplicationStore is the set of operations on the applications collection.
type ApplicationStore interface {
	ApplicationsByEmail(ctx context.Context, email string) ([]models.Document, error)
	InsertApplication(ctx context.Context, doc models.Document) (*InsertResult, error)
	UpdateApplication(ctx context.Context, id string, fields models.Document) error
	DeleteApplication(ctx context.Context, id string) error
}

// Store is a connection to both collections.
type Store interface {
	MarathonStore
	ApplicationStore
	Ping(ctx context.Context) error
}

// ValidID reports whether id is a structurally valid document id.
func ValidID(id string) bool {
	return primitive.IsValidObjectID(id)
}
