// Package api wires the marathon and application controllers into an HTTP router.
package api

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/onestay/MarathonRegistry-API/api/common"
	"github.com/onestay/MarathonRegistry-API/api/routes/applications"
	"github.com/onestay/MarathonRegistry-API/api/routes/marathons"
	"github.com/onestay/MarathonRegistry-API/ws"
)

// Banner is the plain text body of the root route.
const Banner = "Marathon registration server is running"

// NewRouter returns the complete HTTP handler: routes, request logging and
// cross-origin access for any origin. hub may be nil to disable /ws.
func NewRouter(base *common.Controller, hub *ws.Hub) http.Handler {
	r := httprouter.New()
	r.PanicHandler = base.PanicHandler
	r.NotFound = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		base.Response("", "route not found", http.StatusNotFound, w)
	})

	mc := marathons.NewMarathonController(base)
	ac := applications.NewApplicationController(base)

	r.GET("/", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(Banner))
	})
	r.GET("/health", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		if err := base.Store.Ping(r.Context()); err != nil {
			base.LogError("pinging database", err)
			base.Response("", "database unavailable", http.StatusServiceUnavailable, w)
			return
		}
		base.Response("ok", "", http.StatusOK, w)
	})
	if hub != nil {
		r.GET("/ws", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
			ws.ServeWs(hub, w, r)
		})
	}

	r.GET("/marathons", mc.GetMarathons)
	r.GET("/marathon/:id", mc.GetMarathon)
	r.POST("/add-marathon", mc.AddMarathon)
	r.GET("/my-marathons/:email", mc.GetMyMarathons)
	r.PUT("/update/marathon/:id", mc.UpdateMarathon)
	r.DELETE("/delete/marathon/:id", mc.DeleteMarathon)

	r.GET("/my-applications/:email", ac.GetMyApplications)
	r.POST("/applications", ac.AddApplication)
	r.PUT("/update/application/:id", ac.UpdateApplication)
	r.DELETE("/delete/application/:id", ac.DeleteApplication)

	return common.AllowAllOrigins(base.LogRequests(r))
}
