package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/fjod/go_shop/internal/auth"
	"github.com/xeipuuv/gojsonschema"
)

// maxJSONBodySize bounds JSON request bodies.
const maxJSONBodySize = 1 << 20

type LoginService interface {
	Login(ctx context.Context, username, password string) (string, error)
}

type AuthHandler struct {
	auth    LoginService
	timeout time.Duration
	log     *slog.Logger
}

func NewAuthHandler(a LoginService, timeout time.Duration, log *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:    a,
		timeout: timeout,
		log:     log,
	}
}

type LoginRequestDTO struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponseDTO struct {
	Token string `json:"token"`
}

// POST /api/admin/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req LoginRequestDTO
	if err := decodeJSONBody(w, r, loginSchema, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid request body", err.Error())
		return
	}

	token, err := h.auth.Login(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.log.WarnContext(ctx, "admin login failed", "remote_ip", clientIP(r))
		}
		handleServiceError(ctx, h.log, w, err)
		return
	}

	respondJSON(w, http.StatusOK, LoginResponseDTO{Token: token})
}

// decodeJSONBody reads a bounded body, checks it against schema and decodes it into dst.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, schema *gojsonschema.Schema, dst interface{}) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBodySize))
	if err != nil {
		return err
	}
	if err := validateJSONSchema(schema, body); err != nil {
		return err
	}
	return json.Unmarshal(body, dst)
}
