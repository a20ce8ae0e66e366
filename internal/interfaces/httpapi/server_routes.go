package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerSchedulerRoutes(mux *http.ServeMux, handler *Handler, adminToken string) {
	mux.HandleFunc("GET /v1/schedulers", handler.ListSchedulers)
	mux.HandleFunc("GET /v1/seasons/{seasonID}/scheduler", handler.GetScheduler)
	mux.HandleFunc("GET /v1/seasons/{seasonID}/scheduler/runs", handler.ListSchedulerRuns)

	mux.Handle("POST /v1/seasons/{seasonID}/scheduler", RequireAdminToken(adminToken, http.HandlerFunc(handler.CreateScheduler)))
	mux.Handle("PATCH /v1/seasons/{seasonID}/scheduler", RequireAdminToken(adminToken, http.HandlerFunc(handler.UpdateScheduler)))
	mux.Handle("DELETE /v1/seasons/{seasonID}/scheduler", RequireAdminToken(adminToken, http.HandlerFunc(handler.DeleteScheduler)))
	mux.Handle("POST /v1/seasons/{seasonID}/scheduler/start", RequireAdminToken(adminToken, http.HandlerFunc(handler.StartScheduler)))
	mux.Handle("POST /v1/seasons/{seasonID}/scheduler/stop", RequireAdminToken(adminToken, http.HandlerFunc(handler.StopScheduler)))
	mux.Handle("POST /v1/seasons/{seasonID}/scheduler/pause", RequireAdminToken(adminToken, http.HandlerFunc(handler.PauseScheduler)))
	mux.Handle("POST /v1/seasons/{seasonID}/scheduler/resume", RequireAdminToken(adminToken, http.HandlerFunc(handler.ResumeScheduler)))
}

func registerMatchRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/seasons/{seasonID}/matches", handler.ListSeasonMatches)
	mux.HandleFunc("GET /v1/players/{eaPlayerID}", handler.GetPlayer)
}
