package login

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Dongwon38/print-agent/internal/service/errs"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// service is an interface for the service layer.
type service interface {
	Login(ctx context.Context, username, password string) error
}

// Request is the operator login form.
type Request struct {
	Username string `json:"username" validate:"required,max=128"`
	Password string `json:"password" validate:"required,max=256"`
}

// Login godoc
//
//	@Summary	Log in to the order API
//	@Accept		json
//	@Param		body	body	Request	true	"Credentials"
//	@Success	204
//	@Failure	400,401,502	{string}	string
//	@Router		/api/login [post]
func Login(w http.ResponseWriter, r *http.Request, service service) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Failed to decode request body", http.StatusBadRequest)
		slog.Error("Error decoding login request", "error", err)

		return
	}

	if err := validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}

	err := service.Login(r.Context(), req.Username, req.Password)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, errs.ErrAuth):
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
	default:
		http.Error(w, err.Error(), http.StatusBadGateway)
		slog.Error("Error logging in", "username", req.Username, "error", err)
	}
}
