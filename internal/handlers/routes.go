package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterRoutes registers the health check and every /api route. Unknown
// paths and wrong methods answer with the same {"error"} body as the handlers.
func RegisterRoutes(h *Handler, r *mux.Router) {
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, msgRouteNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
	})

	r.HandleFunc("/health", h.Health).Methods("GET")

	// Counters
	r.HandleFunc("/api/counters", h.GetCounters).Methods("GET")
	r.HandleFunc("/api/counters", h.PatchCounters).Methods("PATCH")
	r.HandleFunc("/api/counters", h.PutCounters).Methods("PUT")
	r.HandleFunc("/api/counters/ws", h.CountersWebSocket).Methods("GET")

	// Events
	r.HandleFunc("/api/events", h.ListEvents).Methods("GET")
	r.HandleFunc("/api/events", h.CreateEvent).Methods("POST")
	r.HandleFunc("/api/events/{id}", h.GetEvent).Methods("GET")
	r.HandleFunc("/api/events/{id}", h.UpdateEvent).Methods("PUT")
	r.HandleFunc("/api/events/{id}", h.DeleteEvent).Methods("DELETE")

	// Members
	r.HandleFunc("/api/members", h.ListMembers).Methods("GET")
	r.HandleFunc("/api/members", h.CreateMember).Methods("POST")
	r.HandleFunc("/api/members/{id}", h.GetMember).Methods("GET")
	r.HandleFunc("/api/members/{id}", h.UpdateMember).Methods("PUT")
	r.HandleFunc("/api/members/{id}", h.DeleteMember).Methods("DELETE")

	// Stories
	r.HandleFunc("/api/stories", h.ListStories).Methods("GET")
	r.HandleFunc("/api/stories", h.CreateStory).Methods("POST")
	r.HandleFunc("/api/stories/{id}", h.GetStory).Methods("GET")
	r.HandleFunc("/api/stories/{id}", h.UpdateStory).Methods("PUT")
	r.HandleFunc("/api/stories/{id}", h.DeleteStory).Methods("DELETE")

	// Uploads
	r.HandleFunc("/api/upload", h.Upload).Methods("POST")
}
