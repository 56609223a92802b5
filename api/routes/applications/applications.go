package applications

import (
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/onestay/MarathonRegistry-API/api/common"
	"github.com/onestay/MarathonRegistry-API/api/models"
	"github.com/onestay/MarathonRegistry-API/api/store"
	"go.uber.org/zap"
)

// ApplicationController contains all the methods needed to manage registrations
type ApplicationController struct {
	base *common.Controller
}

// NewApplicationController returns a new application controller
func NewApplicationController(b *common.Controller) *ApplicationController {
	return &ApplicationController{
		base: b,
	}
}

type updateResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// GetMyApplications will return every application made with the email in the path
func (ac ApplicationController) GetMyApplications(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	docs, err := ac.base.Store.ApplicationsByEmail(r.Context(), ps.ByName("email"))
	if err != nil {
		ac.base.ServerError("fetching applications", err, w)
		return
	}

	ac.base.JSON(docs, http.StatusOK, w)
}

// AddApplication will record an application and bump the registration count of
// the marathon it references. The two writes are not atomic: when the
// increment fails the application stays recorded and the request still
// succeeds, leaving the counter one behind.
func (ac ApplicationController) AddApplication(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	doc, err := common.DecodeDocument(r)
	if err != nil {
		ac.base.Response("", err.Error(), http.StatusBadRequest, w)
		return
	}

	res, err := ac.base.Store.InsertApplication(r.Context(), doc)
	if err != nil {
		ac.base.ServerError("adding application", err, w)
		return
	}
	id := common.IDString(res.InsertedID)

	marathonID, hasRef := models.MarathonRef(doc)
	if hasRef {
		if err := ac.base.Store.IncrementRegistrationCount(r.Context(), marathonID); err != nil {
			ac.base.Log.Warn("incrementing registration count",
				zap.String("applicationId", id),
				zap.String("marathonId", marathonID),
				zap.Error(err),
			)
			hasRef = false
		}
	}

	ac.base.Created(res, "Application submitted successfully", w)
	ac.base.WSUpdate(common.ApplicationCreated, id, marathonID)
	if hasRef {
		ac.base.WSUpdate(common.RegistrationCountUpdated, "", marathonID)
	}
}

// UpdateApplication will set the fields of the body on an application. The
// marathon's registration count is left alone.
func (ac ApplicationController) UpdateApplication(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	fields, err := common.DecodeDocument(r)
	if err != nil {
		ac.base.Response("", err.Error(), http.StatusBadRequest, w)
		return
	}

	err = ac.base.Store.UpdateApplication(r.Context(), id, models.WithoutID(fields))
	if errors.Is(err, store.ErrNotFound) {
		ac.base.Response("", "application not found", http.StatusNotFound, w)
		return
	} else if err != nil {
		ac.base.ServerError("updating application", err, w)
		return
	}

	ac.base.JSON(updateResponse{Message: "Application updated successfully", ID: id}, http.StatusOK, w)
	ac.base.WSUpdate(common.ApplicationUpdated, id, "")
}

// DeleteApplication will remove an application. The marathon's registration
// count is not decremented.
func (ac ApplicationController) DeleteApplication(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	err := ac.base.Store.DeleteApplication(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		ac.base.Response("", "application not found", http.StatusNotFound, w)
		return
	} else if err != nil {
		ac.base.ServerError("deleting application", err, w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
	ac.base.WSUpdate(common.ApplicationDeleted, id, "")
}
