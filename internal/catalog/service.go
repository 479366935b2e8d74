// Copyright (c) 2026 Lienzo Studio. All rights reserved.
// Author: d.morales.v@gmail.com

package catalog

import (
	stdctx "context"
	"log/slog"
	"strings"

	"github.com/dmorales-dev/lienzo/internal/platform/validate"
	"github.com/dmorales-dev/lienzo/pkg/slug"
)

// ProductInput carries the mutable fields for create and update.
type ProductInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  int64  `json:"priceCents"`
	Published   bool   `json:"published"`
}

// Service contains the catalog business logic.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates the catalog service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// List returns catalog entries. Non-staff callers only see published ones;
// the handler decides which view to request.
func (service *Service) List(context stdctx.Context, publishedOnly bool) ([]Product, error) {
	return service.repo.List(context, publishedOnly)
}

// Get returns a single product by ID.
func (service *Service) Get(context stdctx.Context, id string) (*Product, error) {
	v := &validate.Validator{}
	if err := v.UUID("id", id).Err(); err != nil {
		return nil, err
	}
	return service.repo.FindByID(context, id)
}

// GetBySlug returns a single product by its URL slug.
func (service *Service) GetBySlug(context stdctx.Context, productSlug string) (*Product, error) {
	v := &validate.Validator{}
	if err := v.Required("slug", productSlug).Slug("slug", productSlug).Err(); err != nil {
		return nil, err
	}
	return service.repo.FindBySlug(context, productSlug)
}

/*
Create adds a product to the catalog.

# Description
The slug is derived from the name, so two products cannot share a name that
slugs identically; the unique index surfaces that as a 409.
*/
func (service *Service) Create(context stdctx.Context, input ProductInput) (*Product, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	product := &Product{
		Slug:        slug.Make(input.Name),
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		PriceCents:  input.PriceCents,
		Published:   input.Published,
	}

	created, err := service.repo.Create(context, product)
	if err != nil {
		return nil, err
	}

	service.logger.InfoContext(context, "product_created",
		slog.String("product_id", created.ID),
		slog.String("slug", created.Slug),
	)
	return created, nil
}

// Update replaces the mutable fields of a product, re-deriving the slug.
func (service *Service) Update(context stdctx.Context, id string, input ProductInput) (*Product, error) {
	v := &validate.Validator{}
	if err := v.UUID("id", id).Err(); err != nil {
		return nil, err
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	existing, err := service.repo.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	existing.Slug = slug.Make(input.Name)
	existing.Name = strings.TrimSpace(input.Name)
	existing.Description = strings.TrimSpace(input.Description)
	existing.PriceCents = input.PriceCents
	existing.Published = input.Published

	return service.repo.Update(context, existing)
}

// Delete removes a product from the catalog.
func (service *Service) Delete(context stdctx.Context, id string) error {
	v := &validate.Validator{}
	if err := v.UUID("id", id).Err(); err != nil {
		return err
	}

	if err := service.repo.Delete(context, id); err != nil {
		return err
	}

	service.logger.InfoContext(context, "product_deleted", slog.String("product_id", id))
	return nil
}

func validateInput(input ProductInput) error {
	v := &validate.Validator{}
	v.Required("name", input.Name).MinLen("name", input.Name, 3).MaxLen("name", input.Name, 120)
	v.MaxLen("description", input.Description, 2000)
	v.Custom("priceCents", input.PriceCents < 0, "Price must not be negative")
	v.Custom("name", slug.Make(input.Name) == "", "Name must contain letters or digits")
	return v.Err()
}
