package common

import (
	"github.com/onestay/MarathonRegistry-API/api/store"
	"go.uber.org/zap"
)

// Publisher delivers change events to live feed subscribers.
type Publisher interface {
	Publish(data []byte)
}

// Controller is the base struct for any controller. It holds the resources
// shared by every request: the store, the live feed and the logger.
type Controller struct {
	Store store.Store
	Feed  Publisher
	Log   *zap.Logger
}

type httpResponse struct {
	Ok   bool   `json:"ok"`
	Data string `json:"data,omitempty"`
	Err  string `json:"error,omitempty"`
}

// NewController returns a new base controller. feed may be nil.
func NewController(s store.Store, feed Publisher, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}

	return &Controller{
		Store: s,
		Feed:  feed,
		Log:   log,
	}
}
