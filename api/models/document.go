package models

import "go.mongodb.org/mongo-driver/bson"

// Document is a schemaless record as stored in a collection. Clients may send
// any fields; the server only interprets the ones named below.
type Document = bson.M

// Field names the server reads or maintains.
const (
	IDField                = "_id"
	EmailField             = "email"
	MarathonIDField        = "marathonId"
	RegistrationCountField = "totalRegistrationCount"
)

// WithoutID returns a shallow copy of d with any _id removed. Ids are always
// generated by the database and never taken from a request body.
func WithoutID(d Document) Document {
	out := make(Document, len(d))
	for k, v := range d {
		if k == IDField {
			continue
		}
		out[k] = v
	}

	return out
}
