package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, opts RouterOptions) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if opts.MetricsHandler != nil {
		mux.Handle("GET /metrics", opts.MetricsHandler)
	}
	if !opts.SwaggerEnabled {
		return
	}

	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

func registerMatchRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("GET /v1/dashboard", RequireAuth(verifier, http.HandlerFunc(handler.GetDashboard)))
	mux.Handle("GET /v1/matches", RequireAuth(verifier, http.HandlerFunc(handler.ListMatches)))
	mux.Handle("GET /v1/matches/{matchID}", RequireAuth(verifier, http.HandlerFunc(handler.GetMatch)))
	mux.Handle("GET /v1/matches/{matchID}/players", RequireAuth(verifier, http.HandlerFunc(handler.ListMatchPlayers)))
}

func registerPredictionRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("GET /v1/matches/{matchID}/selection", RequireAuth(verifier, http.HandlerFunc(handler.GetSelection)))
	mux.Handle("GET /v1/matches/{matchID}/prediction", RequireAuth(verifier, http.HandlerFunc(handler.GetMyPrediction)))
	mux.Handle("PUT /v1/matches/{matchID}/prediction", RequireAuth(verifier, http.HandlerFunc(handler.SubmitPrediction)))
	mux.Handle("GET /v1/predictions/me", RequireAuth(verifier, http.HandlerFunc(handler.ListMyPredictions)))
}

func registerAdminRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/admin/matches", RequireAdmin(verifier, http.HandlerFunc(handler.CreateMatch)))
	mux.Handle("PUT /v1/admin/matches/{matchID}/status", RequireAdmin(verifier, http.HandlerFunc(handler.SetMatchStatus)))
	mux.Handle("GET /v1/admin/matches/{matchID}/players", RequireAdmin(verifier, http.HandlerFunc(handler.AdminListPlayers)))
	mux.Handle("GET /v1/admin/matches/{matchID}/predictions", RequireAdmin(verifier, http.HandlerFunc(handler.AdminListPredictions)))
	mux.Handle("POST /v1/admin/players", RequireAdmin(verifier, http.HandlerFunc(handler.CreatePlayer)))
	mux.Handle("PUT /v1/admin/players/{playerID}", RequireAdmin(verifier, http.HandlerFunc(handler.UpdatePlayer)))
	mux.Handle("DELETE /v1/admin/players/{playerID}", RequireAdmin(verifier, http.HandlerFunc(handler.DeletePlayer)))
	mux.Handle("PUT /v1/admin/players/{playerID}/targets/{matchID}", RequireAdmin(verifier, http.HandlerFunc(handler.SetPlayerTarget)))
}
