// Copyright (c) 2026 Lienzo Studio. All rights reserved.
// Author: d.morales.v@gmail.com

package catalog

import stdctx "context"

// Repository defines the persistence operations for products.
type Repository interface {
	// FindByID returns the product with the given ID.
	FindByID(context stdctx.Context, id string) (*Product, error)

	// FindBySlug returns the product with the given slug.
	FindBySlug(context stdctx.Context, slug string) (*Product, error)

	// List returns products, optionally restricted to published ones.
	List(context stdctx.Context, publishedOnly bool) ([]Product, error)

	// Create inserts a new product.
	Create(context stdctx.Context, product *Product) (*Product, error)

	// Update replaces the mutable fields of a product.
	Update(context stdctx.Context, product *Product) (*Product, error)

	// Delete removes a product.
	Delete(context stdctx.Context, id string) error
}
