package common

import (
	"encoding/json"

	"go.uber.org/zap"
)

// Kinds of change events sent over the live feed.
const (
	MarathonCreated          = "marathonCreated"
	MarathonUpdated          = "marathonUpdated"
	MarathonDeleted          = "marathonDeleted"
	ApplicationCreated       = "applicationCreated"
	ApplicationUpdated       = "applicationUpdated"
	ApplicationDeleted       = "applicationDeleted"
	RegistrationCountUpdated = "registrationCountUpdated"
)

// FeedEvent is the message broadcast after a successful write.
type FeedEvent struct {
	DataType   string `json:"dataType"`
	ID         string `json:"id,omitempty"`
	MarathonID string `json:"marathonId,omitempty"`
}

// WSUpdate broadcasts a change event. It never fails the request that caused it.
func (c Controller) WSUpdate(kind, id, marathonID string) {
	if c.Feed == nil {
		return
	}

	d, err := json.Marshal(FeedEvent{DataType: kind, ID: id, MarathonID: marathonID})
	if err != nil {
		c.Log.Warn("encoding feed event", zap.String("dataType", kind), zap.Error(err))
		return
	}

	c.Feed.Publish(d)
}
