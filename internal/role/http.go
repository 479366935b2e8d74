// Copyright (c) 2026 Lienzo Studio. All rights reserved.
// Author: d.morales.v@gmail.com

package role

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/dmorales-dev/lienzo/internal/platform/request"
	"github.com/dmorales-dev/lienzo/internal/platform/respond"
)

// Handler exposes the role administration endpoints.
type Handler struct {
	service *Service
}

// NewHandler creates the role HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the role endpoints on the given router. The caller
// is responsible for wrapping this group in staff-only middleware.
func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/", handler.list)
	router.Post("/", handler.create)
	router.Get("/{id}", handler.get)
	router.Put("/{id}", handler.updatePermissions)
	router.Delete("/{id}", handler.delete)
}

type createRoleRequest struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

type updateRolePermissionsRequest struct {
	Permissions []string `json:"permissions"`
}

// list handles GET /api/v1/roles
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	roles, err := handler.service.List(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, roles)
}

// get handles GET /api/v1/roles/{id}
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	found, err := handler.service.Get(request.Context(), requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, found)
}

// create handles POST /api/v1/roles
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	var payload createRoleRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	created, err := handler.service.Create(request.Context(), payload.Name, payload.Permissions)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, created)
}

// updatePermissions handles PUT /api/v1/roles/{id}
func (handler *Handler) updatePermissions(writer http.ResponseWriter, request *http.Request) {
	var payload updateRolePermissionsRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	updated, err := handler.service.UpdatePermissions(request.Context(), requestutil.Param(request, "id"), payload.Permissions)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, updated)
}

// delete handles DELETE /api/v1/roles/{id}
func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.Delete(request.Context(), requestutil.Param(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}
