package control

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Dongwon38/print-agent/internal/service/errs"
)

// service is an interface for the service layer.
type service interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Logout(ctx context.Context) error
}

// Start godoc
//
//	@Summary	Start polling for orders
//	@Success	204
//	@Failure	401,500	{string}	string
//	@Router		/api/start [post]
func Start(w http.ResponseWriter, r *http.Request, service service) {
	err := service.Start(r.Context())
	switch {
	case errors.Is(err, errs.ErrNotAuthenticated):
		http.Error(w, "Login required", http.StatusUnauthorized)

		return
	case errors.Is(err, errs.ErrAuth):
		http.Error(w, "Session expired, login required", http.StatusUnauthorized)

		return
	}
	respond(w, err, "start")
}

// Stop godoc
//
//	@Summary	Stop polling for orders
//	@Success	204
//	@Router		/api/stop [post]
func Stop(w http.ResponseWriter, r *http.Request, service service) {
	respond(w, service.Stop(r.Context()), "stop")
}

// Logout godoc
//
//	@Summary	Stop polling and forget the session token
//	@Success	204
//	@Router		/api/logout [post]
func Logout(w http.ResponseWriter, r *http.Request, service service) {
	respond(w, service.Logout(r.Context()), "logout")
}

func respond(w http.ResponseWriter, err error, action string) {
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		slog.Error("Error handling control command", "action", action, "error", err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}
