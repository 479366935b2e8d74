// Copyright (c) 2026 Lienzo Studio. All rights reserved.
// Author: d.morales.v@gmail.com

package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/dmorales-dev/lienzo/internal/platform/request"
	"github.com/dmorales-dev/lienzo/internal/platform/respond"
	"github.com/dmorales-dev/lienzo/internal/role"
)

// Handler exposes the product catalog endpoints.
type Handler struct {
	service *Service
}

// NewHandler creates the catalog HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the catalog endpoints. Permission enforcement
// (products_read / products_write / products_delete) happens in the access
// middleware wrapped around this group.
func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/", handler.list)
	router.Post("/", handler.create)
	router.Get("/{id}", handler.get)
	router.Put("/{id}", handler.update)
	router.Delete("/{id}", handler.delete)
}

// list handles GET /api/v1/products
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	// Staff see drafts too; members only see published entries.
	publishedOnly := true
	if claims := requestutil.Claims(request); claims != nil {
		for _, name := range claims.Roles {
			if name == role.Admin || name == role.SuperAdmin {
				publishedOnly = false
				break
			}
		}
	}

	products, err := handler.service.List(request.Context(), publishedOnly)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, products)
}

// get handles GET /api/v1/products/{id}
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	found, err := handler.service.Get(request.Context(), requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, found)
}

// create handles POST /api/v1/products
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	var input ProductInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	created, err := handler.service.Create(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, created)
}

// update handles PUT /api/v1/products/{id}
func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	var input ProductInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	updated, err := handler.service.Update(request.Context(), requestutil.Param(request, "id"), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, updated)
}

// delete handles DELETE /api/v1/products/{id}
func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.Delete(request.Context(), requestutil.Param(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}
