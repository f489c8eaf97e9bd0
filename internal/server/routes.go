package server

import (
	"expvar"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dwsmith1983/alarmd/internal/server/handlers"
)

func (s *Server) registerRoutes(r chi.Router) {
	h := handlers.New(s.engine)
	h.SetLogger(s.logger)

	r.Route("/api", func(r chi.Router) {
		// Health
		r.Get("/health", h.Health)

		// Instances
		r.Get("/instances", h.ListInstances)
		r.Post("/instances", h.ScheduleInstance)
		r.Get("/instances/{instanceID:[0-9]+}", h.GetInstance)
		r.Delete("/instances/{instanceID:[0-9]+}", h.DeleteInstance)
		r.Get("/instances/{instanceID:[0-9]+}/wake", h.GetWake)

		// Triggers
		r.Post("/instances/{instanceID:[0-9]+}/advance", h.Advance)
		r.Post("/instances/{instanceID:[0-9]+}/dismiss", h.Dismiss)
		r.Post("/instances/{instanceID:[0-9]+}/snooze", h.Snooze)
		r.Post("/instances/{instanceID:[0-9]+}/ringtone-ended", h.RingtoneEnded)

		// Alarms
		r.Get("/alarms/{alarmID:[0-9]+}/instances", h.ListAlarmInstances)
		r.Delete("/alarms/{alarmID:[0-9]+}/instances", h.DeleteOtherInstances)
		r.Get("/alarms/{alarmID:[0-9]+}/next", h.NextUpcoming)

		// Recovery
		r.Post("/sweep", h.Sweep)
	})

	// Counters
	r.Method(http.MethodGet, "/debug/vars", expvar.Handler())
}
