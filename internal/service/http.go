package service

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gestaogabinete/gabinete/internal/audit"
	"github.com/gestaogabinete/gabinete/internal/auth"
	internalhttp "github.com/gestaogabinete/gabinete/internal/http"
	httpmiddleware "github.com/gestaogabinete/gabinete/internal/http/middleware"
)

// AuthHandler expõe login, refresh e logout de gabinetes.
type AuthHandler struct {
	service *AuthService
}

func NewAuthHandler(service *AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

// RegisterPublicRoutes registra as rotas que dispensam autenticação.
func (h *AuthHandler) RegisterPublicRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.handleLogin)
		r.Post("/refresh", h.handleRefresh)
		r.Post("/logout", h.handleLogout)
	})
}

// RegisterPrivateRoutes registra as rotas que exigem token válido.
func (h *AuthHandler) RegisterPrivateRoutes(r chi.Router) {
	r.Get("/auth/me", h.handleMe)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Login string `json:"login"`
		Senha string `json:"senha"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}
	if payload.Login == "" || payload.Senha == "" {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "login e senha são obrigatórios", nil)
		return
	}

	pair, err := h.service.Login(r.Context(), payload.Login, payload.Senha, audit.FromRequest(r))
	if err != nil {
		if errors.Is(err, ErrCredenciaisInvalidas) {
			internalhttp.WriteError(w, http.StatusUnauthorized, "AUTH", ErrCredenciaisInvalidas.Error(), nil)
			return
		}
		internalhttp.WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível autenticar", nil)
		return
	}

	internalhttp.WriteJSON(w, http.StatusOK, pair)
}

func (h *AuthHandler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.RefreshToken == "" {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "refresh_token é obrigatório", nil)
		return
	}

	pair, err := h.service.Refresh(r.Context(), payload.RefreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidRefresh) {
			internalhttp.WriteError(w, http.StatusUnauthorized, "AUTH", "refresh token inválido", nil)
			return
		}
		internalhttp.WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível renovar a sessão", nil)
		return
	}

	internalhttp.WriteJSON(w, http.StatusOK, pair)
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.RefreshToken == "" {
		internalhttp.WriteError(w, http.StatusBadRequest, "VALIDATION", "refresh_token é obrigatório", nil)
		return
	}

	if err := h.service.Logout(r.Context(), payload.RefreshToken, audit.FromRequest(r)); err != nil {
		if errors.Is(err, auth.ErrInvalidRefresh) {
			internalhttp.WriteError(w, http.StatusUnauthorized, "AUTH", "refresh token inválido", nil)
			return
		}
		internalhttp.WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível encerrar a sessão", nil)
		return
	}

	internalhttp.WriteJSON(w, http.StatusOK, map[string]bool{"encerrada": true})
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	g, err := h.service.GetMe(r.Context(), httpmiddleware.GetSubject(r.Context()))
	if err != nil {
		internalhttp.WriteError(w, http.StatusNotFound, "NOT_FOUND", "gabinete não encontrado", nil)
		return
	}
	internalhttp.WriteJSON(w, http.StatusOK, g)
}
