// Copyright (c) 2026 Lienzo Studio. All rights reserved.
// Author: d.morales.v@gmail.com

/*
Package catalog manages the studio's product listings.

Products are the representative protected resource of the API: reading
requires `products_read`, mutating requires `products_write`, and removal
requires `products_delete`. Members on the free tier typically only hold
the read scope.
*/
package catalog

import "time"

// Product is a studio catalog entry.
type Product struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description"`

	// PriceCents avoids floating point money.
	PriceCents int64 `json:"priceCents"`

	Published bool      `json:"published"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
