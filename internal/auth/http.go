// Copyright (c) 2026 Lienzo Studio. All rights reserved.
// Author: d.morales.v@gmail.com

package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmorales-dev/lienzo/internal/platform/constants"
	requestutil "github.com/dmorales-dev/lienzo/internal/platform/request"
	"github.com/dmorales-dev/lienzo/internal/platform/respond"
)

// Handler exposes the authentication endpoints.
type Handler struct {
	service *Service
	secure  bool
}

// NewHandler creates the auth HTTP handler. secureCookies should be true in
// production so the refresh cookie is HTTPS-only.
func NewHandler(service *Service, secureCookies bool) *Handler {
	return &Handler{service: service, secure: secureCookies}
}

// RegisterRoutes mounts the auth endpoints on the given router.
func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Post("/register", handler.register)
	router.Post("/login", handler.login)
	router.Post("/refresh", handler.refresh)
	router.Post("/logout", handler.logout)
}

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// register handles POST /api/v1/auth/register
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var payload registerRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	created, err := handler.service.Register(request.Context(), payload.Email, payload.Username, payload.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, created)
}

// login handles POST /api/v1/auth/login
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var payload loginRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	credentials, err := handler.service.Login(request.Context(), payload.Identifier, payload.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setRefreshCookie(writer, credentials.RefreshToken)
	respond.OK(writer, credentials)
}

// refresh handles POST /api/v1/auth/refresh
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	credentials, err := handler.service.Refresh(request.Context(), handler.refreshTokenFrom(request))
	if err != nil {
		handler.clearRefreshCookie(writer)
		respond.Error(writer, request, err)
		return
	}

	handler.setRefreshCookie(writer, credentials.RefreshToken)
	respond.OK(writer, credentials)
}

// logout handles POST /api/v1/auth/logout
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.Logout(request.Context(), handler.refreshTokenFrom(request)); err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.clearRefreshCookie(writer)
	respond.NoContent(writer)
}

// refreshTokenFrom reads the refresh token cookie, empty when absent.
func (handler *Handler) refreshTokenFrom(request *http.Request) string {
	cookie, err := request.Cookie(constants.RefreshTokenCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// setRefreshCookie attaches the refresh token as an HttpOnly cookie scoped
// to the auth endpoints.
func (handler *Handler) setRefreshCookie(writer http.ResponseWriter, token string) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    token,
		Path:     constants.RefreshTokenCookiePath,
		Expires:  time.Now().Add(refreshTokenTTL),
		HttpOnly: true,
		Secure:   handler.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// clearRefreshCookie expires the refresh cookie immediately.
func (handler *Handler) clearRefreshCookie(writer http.ResponseWriter) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    "",
		Path:     constants.RefreshTokenCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   handler.secure,
		SameSite: http.SameSiteStrictMode,
	})
}
