package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/reliefgrid/relief-api/internal/handlers"
)

// NewRouter sets up the API routes
func NewRouter(
	alert *handlers.AlertHandler,
	donation *handlers.DonationHandler,
	user *handlers.UserHandler,
	content *handlers.ContentHandler,
	mission *handlers.MissionHandler,
	stream *handlers.StreamHandler,
) *mux.Router {
	router := mux.NewRouter()

	// Health check route
	router.HandleFunc("/health", handlers.HealthCheck).Methods(http.MethodGet)

	// Alerts
	router.HandleFunc("/api/alerts", alert.Create).Methods(http.MethodPost)
	router.HandleFunc("/api/alerts", alert.List).Methods(http.MethodGet)
	router.HandleFunc("/api/alerts/latest", alert.Latest).Methods(http.MethodGet)
	router.HandleFunc("/api/alerts/{alertID}", alert.Get).Methods(http.MethodGet)
	router.HandleFunc("/api/alerts/{alertID}", alert.Update).Methods(http.MethodPut)
	router.HandleFunc("/api/alerts/{alertID}", alert.Delete).Methods(http.MethodDelete)
	router.HandleFunc("/api/alerts/{alertID}/acknowledge", alert.Acknowledge).Methods(http.MethodPost)
	router.HandleFunc("/api/alerts/{alertID}/donations", donation.ListByAlert).Methods(http.MethodGet)

	// Donations
	router.HandleFunc("/api/donations", donation.Pledge).Methods(http.MethodPost)
	router.HandleFunc("/api/donations/{donationID}", donation.Get).Methods(http.MethodGet)
	router.HandleFunc("/api/donations/{donationID}/confirm", donation.Confirm).Methods(http.MethodPost)

	// Users
	router.HandleFunc("/api/users", user.Create).Methods(http.MethodPost)
	router.HandleFunc("/api/users", user.List).Methods(http.MethodGet)
	router.HandleFunc("/api/users/by-email/{email}", user.GetByEmail).Methods(http.MethodGet)
	router.HandleFunc("/api/users/{userID}/role", user.UpdateRole).Methods(http.MethodPut)
	router.HandleFunc("/api/users/{userID}", user.Delete).Methods(http.MethodDelete)

	// Rescuer profiles
	router.HandleFunc("/api/profiles", content.CreateProfile).Methods(http.MethodPost)
	router.HandleFunc("/api/profiles", content.ListProfiles).Methods(http.MethodGet)
	router.HandleFunc("/api/profiles/{email}", content.GetProfile).Methods(http.MethodGet)

	// Resources and safety guidance
	router.HandleFunc("/api/resources", content.ListResources).Methods(http.MethodGet)
	router.HandleFunc("/api/resources/{resourceID}", content.UpdateResource).Methods(http.MethodPut)
	router.HandleFunc("/api/safety-contents", content.ListSafetyContents).Methods(http.MethodGet)

	// Missions
	router.HandleFunc("/api/missions", mission.Create).Methods(http.MethodPost)
	router.HandleFunc("/api/missions", mission.List).Methods(http.MethodGet)
	router.HandleFunc("/api/missions/{missionID}", mission.Get).Methods(http.MethodGet)
	router.HandleFunc("/api/missions/{missionID}", mission.Update).Methods(http.MethodPut)

	// Realtime alert feed
	router.HandleFunc("/ws/alerts", stream.Alerts).Methods(http.MethodGet)

	return router
}
