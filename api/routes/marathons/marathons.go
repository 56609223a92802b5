package marathons

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"github.com/onestay/MarathonRegistry-API/api/common"
	"github.com/onestay/MarathonRegistry-API/api/models"
	"github.com/onestay/MarathonRegistry-API/api/store"
	"go.uber.org/zap"
)

// MarathonController contains all the methods needed to manage marathons
type MarathonController struct {
	base *common.Controller
}

// NewMarathonController returns a new marathon controller
func NewMarathonController(b *common.Controller) *MarathonController {
	return &MarathonController{
		base: b,
	}
}

// GetMarathons will return all marathons, capped by the optional limit query parameter
func (mc MarathonController) GetMarathons(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	docs, err := mc.base.Store.ListMarathons(r.Context(), ParseLimit(r.URL.Query().Get("limit")))
	if err != nil {
		mc.base.ServerError("fetching marathons", err, w)
		return
	}

	for _, d := range docs {
		models.BackfillRegistrationCount(d)
	}

	mc.base.JSON(docs, http.StatusOK, w)
}

// GetMarathon will return a single marathon. A missing or invalid registration
// counter is reset to 0 in storage and in the response.
func (mc MarathonController) GetMarathon(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	doc, err := mc.base.Store.FindMarathon(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		mc.base.Response("", "marathon not found", http.StatusNotFound, w)
		return
	} else if err != nil {
		mc.base.ServerError("fetching marathon", err, w)
		return
	}

	if models.BackfillRegistrationCount(doc) {
		if err := mc.base.Store.BackfillRegistrationCount(r.Context(), id); err != nil {
			mc.base.Log.Warn("backfilling registration count", zap.String("marathonId", id), zap.Error(err))
		}
	}

	mc.base.JSON(doc, http.StatusOK, w)
}

// AddMarathon will add a marathon to the database
func (mc MarathonController) AddMarathon(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	doc, err := common.DecodeDocument(r)
	if err != nil {
		mc.base.Response("", err.Error(), http.StatusBadRequest, w)
		return
	}

	res, err := mc.base.Store.InsertMarathon(r.Context(), doc)
	if err != nil {
		mc.base.ServerError("adding marathon", err, w)
		return
	}

	mc.base.Created(res, "Marathon added successfully", w)
	mc.base.WSUpdate(common.MarathonCreated, common.IDString(res.InsertedID), "")
}

// GetMyMarathons will return every marathon owned by the email in the path
func (mc MarathonController) GetMyMarathons(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	docs, err := mc.base.Store.MarathonsByEmail(r.Context(), ps.ByName("email"))
	if err != nil {
		mc.base.ServerError("fetching marathons by owner", err, w)
		return
	}

	for _, d := range docs {
		models.BackfillRegistrationCount(d)
	}

	mc.base.JSON(docs, http.StatusOK, w)
}

// UpdateMarathon will set the fields of the body on a marathon and return the result
func (mc MarathonController) UpdateMarathon(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	if !store.ValidID(id) {
		mc.base.Response("", "invalid marathon id", http.StatusBadRequest, w)
		return
	}

	fields, err := common.DecodeDocument(r)
	if err != nil {
		mc.base.Response("", err.Error(), http.StatusBadRequest, w)
		return
	}

	doc, err := mc.base.Store.UpdateMarathon(r.Context(), id, models.WithoutID(fields))
	if errors.Is(err, store.ErrNotFound) {
		mc.base.Response("", "marathon not found", http.StatusNotFound, w)
		return
	} else if err != nil {
		mc.base.ServerError("updating marathon", err, w)
		return
	}

	models.BackfillRegistrationCount(doc)
	mc.base.JSON(doc, http.StatusOK, w)
	mc.base.WSUpdate(common.MarathonUpdated, id, "")
}

// DeleteMarathon will remove a marathon. Applications referencing it are kept.
func (mc MarathonController) DeleteMarathon(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	err := mc.base.Store.DeleteMarathon(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		mc.base.Response("", "marathon not found", http.StatusNotFound, w)
		return
	} else if err != nil {
		mc.base.ServerError("deleting marathon", err, w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
	mc.base.WSUpdate(common.MarathonDeleted, id, "")
}

// ParseLimit reads the limit query parameter. "all", an empty value and
// anything that is not a positive integer mean no cap, reported as 0.
func ParseLimit(s string) int64 {
	if s == "" || s == "all" {
		return 0
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0
	}

	return n
}
