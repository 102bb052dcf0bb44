// Package catalog manages products, variants, and stock pools.
package catalog

import (
	"context"
	"strings"

	"github.com/ydrx/ydrx/internal/common"
	"github.com/ydrx/ydrx/internal/interfaces"
	"github.com/ydrx/ydrx/internal/models"
)

// Compile-time interface check
var _ interfaces.CatalogService = (*Service)(nil)

// DefaultProductName is used when a product is created without a name.
const DefaultProductName = "Nuevo producto"

// Service implements CatalogService
type Service struct {
	store  interfaces.DocumentStore
	logger *common.Logger
}

// NewService creates a new catalog service
func NewService(store interfaces.DocumentStore, logger *common.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
	}
}

// ListActiveProducts returns shopper-visible products in catalog order.
func (s *Service) ListActiveProducts(ctx context.Context) ([]models.Product, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	products := make([]models.Product, 0, len(doc.Products))
	for _, p := range doc.Products {
		if p.Active {
			products = append(products, p)
		}
	}
	return products, nil
}

// ListProducts returns the full catalog, inactive products included.
func (s *Service) ListProducts(ctx context.Context) ([]models.Product, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return append([]models.Product(nil), doc.Products...), nil
}

// CreateProduct adds an active product with both variants and empty stock.
func (s *Service) CreateProduct(ctx context.Context, name string, perfilPrice, completaPrice float64) (*models.Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultProductName
	}
	if perfilPrice < 0 {
		perfilPrice = 0
	}
	if completaPrice < 0 {
		completaPrice = 0
	}

	var product models.Product
	_, err := s.store.Update(ctx, func(d *models.Document) error {
		product = models.Product{
			ID:     common.NewID("p"),
			Name:   name,
			Active: true,
			Variants: map[string]*models.Variant{
				models.VariantPerfil:   {Price: perfilPrice, Stock: []string{}},
				models.VariantCompleta: {Price: completaPrice, Stock: []string{}},
			},
		}
		d.Products = append(d.Products, product)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("product", product.ID).Str("name", name).Msg("Product created")
	return &product, nil
}

// UpdateProduct applies the non-nil patch fields. A provided name is applied
// as given (trimmed), even when empty. Prices below zero are coerced to zero,
// matching CreateProduct.
func (s *Service) UpdateProduct(ctx context.Context, productID string, patch interfaces.ProductPatch) (*models.Product, error) {
	var product models.Product
	_, err := s.store.Update(ctx, func(d *models.Document) error {
		p := d.ProductByID(productID)
		if p == nil {
			return models.ErrProductNotFound
		}
		if patch.Name != nil {
			p.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Active != nil {
			p.Active = *patch.Active
		}
		if patch.PerfilPrice != nil {
			p.Variants[models.VariantPerfil].Price = max(*patch.PerfilPrice, 0)
		}
		if patch.CompletaPrice != nil {
			p.Variants[models.VariantCompleta].Price = max(*patch.CompletaPrice, 0)
		}
		product = *p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("product", productID).Msg("Product updated")
	return &product, nil
}

// AddStock appends tokens to a variant pool. Tokens are trimmed and blanks
// dropped; the returned count is what actually landed.
func (s *Service) AddStock(ctx context.Context, productID, variant string, tokens []string) (int, error) {
	cleaned := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if tok = strings.TrimSpace(tok); tok != "" {
			cleaned = append(cleaned, tok)
		}
	}

	_, err := s.store.Update(ctx, func(d *models.Document) error {
		p := d.ProductByID(productID)
		if p == nil {
			return models.ErrProductNotFound
		}
		v, ok := p.Variants[variant]
		if !ok {
			return models.ErrVariantUnknown
		}
		v.Stock = append(v.Stock, cleaned...)
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info().
		Str("product", productID).
		Str("variant", variant).
		Int("added", len(cleaned)).
		Msg("Stock added")
	return len(cleaned), nil
}
