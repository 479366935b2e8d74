// Copyright (c) 2026 Lienzo Studio. All rights reserved.
// Author: d.morales.v@gmail.com

package catalog

import (
	stdctx "context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmorales-dev/lienzo/internal/platform/apperr"
	"github.com/dmorales-dev/lienzo/internal/platform/dberr"
)

// PostgresRepository is the pgx-backed implementation of [Repository].
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a product repository backed by the given pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const productColumns = `id, slug, name, description, price_cents, published, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Slug, &p.Name, &p.Description, &p.PriceCents, &p.Published, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, dberr.Wrap(err, "Product")
	}
	return &p, nil
}

// FindByID implements [Repository].
func (repo *PostgresRepository) FindByID(context stdctx.Context, id string) (*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	return scanProduct(repo.pool.QueryRow(context, query, id))
}

// FindBySlug implements [Repository].
func (repo *PostgresRepository) FindBySlug(context stdctx.Context, slug string) (*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE slug = $1`
	return scanProduct(repo.pool.QueryRow(context, query, slug))
}

// List implements [Repository].
func (repo *PostgresRepository) List(context stdctx.Context, publishedOnly bool) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`
	if publishedOnly {
		query += ` WHERE published = true`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := repo.pool.Query(context, query)
	if err != nil {
		return nil, dberr.Wrap(err, "Product")
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "Product")
	}

	return products, nil
}

// Create implements [Repository].
func (repo *PostgresRepository) Create(context stdctx.Context, product *Product) (*Product, error) {
	query := `
		INSERT INTO products (slug, name, description, price_cents, published)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + productColumns

	return scanProduct(repo.pool.QueryRow(context, query,
		product.Slug, product.Name, product.Description, product.PriceCents, product.Published,
	))
}

// Update implements [Repository].
func (repo *PostgresRepository) Update(context stdctx.Context, product *Product) (*Product, error) {
	query := `
		UPDATE products
		SET slug = $2, name = $3, description = $4, price_cents = $5, published = $6, updated_at = now()
		WHERE id = $1
		RETURNING ` + productColumns

	return scanProduct(repo.pool.QueryRow(context, query,
		product.ID, product.Slug, product.Name, product.Description, product.PriceCents, product.Published,
	))
}

// Delete implements [Repository].
func (repo *PostgresRepository) Delete(context stdctx.Context, id string) error {
	result, err := repo.pool.Exec(context, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return dberr.Wrap(err, "Product")
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound("Product")
	}
	return nil
}
