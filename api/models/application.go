package models

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MarathonRef returns the id of the marathon an application registers for.
// The reference is advisory; nothing guarantees the marathon exists.
func MarathonRef(a Document) (string, bool) {
	switch v := a[MarathonIDField].(type) {
	case string:
		v = strings.TrimSpace(v)
		return v, v != ""
	case primitive.ObjectID:
		return v.Hex(), !v.IsZero()
	}

	return "", false
}
