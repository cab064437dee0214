package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/fjod/go_shop/internal/cache"
	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/repository"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// ImageRemover deletes stored images that are no longer referenced.
type ImageRemover interface {
	Remove(ref string) error
}

// ProductFields is the admin input for creating or editing a product.
// Nil fields are absent from the request.
type ProductFields struct {
	Name                 *string
	LocalizedName        *string
	Description          *string
	LocalizedDescription *string
	Category             *string
	Price                *decimal.Decimal
	Stock                *int
	Image                *string
}

type CatalogService struct {
	repo   repository.ProductRepository
	cache  cache.ProductListCache
	images ImageRemover
	log    *slog.Logger
	sfg    singleflight.Group
}

func NewCatalogService(repo repository.ProductRepository, c cache.ProductListCache, images ImageRemover, log *slog.Logger) *CatalogService {
	if c == nil {
		c = cache.NopCache{}
	}
	return &CatalogService{
		repo:   repo,
		cache:  c,
		images: images,
		log:    log,
	}
}

// listTimeout bounds a shared catalog read. The read is detached from the
// caller that started it, since other callers may be waiting on the result.
const listTimeout = 10 * time.Second

func (s *CatalogService) List(ctx context.Context) ([]*domain.Product, error) {
	v, err, _ := s.sfg.Do("products", func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), listTimeout)
		defer cancel()

		products, gen, err := s.cache.Get(ctx)
		if err == nil {
			return products, nil
		}
		miss := errors.Is(err, cache.ErrCacheMiss)
		if !miss {
			s.log.WarnContext(ctx, "cache get error", "error", err)
		}

		products, err = s.repo.ListProducts(ctx)
		if err != nil {
			return nil, err
		}

		// Without a generation from the cache there is nothing safe to fill.
		if miss {
			if errSet := s.cache.Set(ctx, gen, products); errSet != nil {
				s.log.WarnContext(ctx, "cache set error", "error", errSet)
			}
		}
		return products, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*domain.Product), nil
}

func (s *CatalogService) Create(ctx context.Context, in ProductFields) (*domain.Product, error) {
	var v validator
	requiredPtr(&v, "name", in.Name)
	requiredPtr(&v, "category", in.Category)
	if in.Price == nil {
		v.add("price", "is required")
	}
	if in.Stock == nil {
		v.add("stock", "is required")
	}
	validateAmounts(&v, in)
	if err := v.err(); err != nil {
		return nil, err
	}

	product := &domain.Product{
		Name:                 *in.Name,
		LocalizedName:        deref(in.LocalizedName),
		Description:          deref(in.Description),
		LocalizedDescription: deref(in.LocalizedDescription),
		Category:             *in.Category,
		Price:                roundMoney(*in.Price),
		Stock:                *in.Stock,
		Image:                deref(in.Image),
	}

	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.log.InfoContext(ctx, "product created", "product_id", product.ID)
	return product, nil
}

func (s *CatalogService) Update(ctx context.Context, id domain.ProductID, in ProductFields) (*domain.Product, error) {
	var v validator
	if in.Name != nil {
		v.required("name", *in.Name)
	}
	if in.Category != nil {
		v.required("category", *in.Category)
	}
	validateAmounts(&v, in)
	if err := v.err(); err != nil {
		return nil, err
	}

	patch := domain.ProductPatch{
		Name:                 in.Name,
		LocalizedName:        in.LocalizedName,
		Description:          in.Description,
		LocalizedDescription: in.LocalizedDescription,
		Category:             in.Category,
		Stock:                in.Stock,
		Image:                in.Image,
	}
	if in.Price != nil {
		price := roundMoney(*in.Price)
		patch.Price = &price
	}

	var oldImage string
	if in.Image != nil {
		current, err := s.repo.GetProduct(ctx, id)
		if err != nil {
			return nil, err
		}
		oldImage = current.Image
	}

	product, err := s.repo.UpdateProduct(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	if oldImage != "" && oldImage != product.Image {
		s.removeImage(ctx, oldImage)
	}
	s.invalidate(ctx)
	return product, nil
}

func (s *CatalogService) Delete(ctx context.Context, id domain.ProductID) error {
	product, err := s.repo.DeleteProduct(ctx, id)
	if err != nil {
		return err
	}

	if product.Image != "" {
		s.removeImage(ctx, product.Image)
	}
	s.invalidate(ctx)
	s.log.InfoContext(ctx, "product deleted", "product_id", id)
	return nil
}

func (s *CatalogService) invalidate(ctx context.Context) {
	invalidateProductCache(ctx, s.cache, s.log)
}

func (s *CatalogService) removeImage(ctx context.Context, ref string) {
	if s.images == nil {
		return
	}
	if err := s.images.Remove(ref); err != nil {
		s.log.WarnContext(ctx, "image cleanup failed", "image", ref, "error", err)
	}
}

func invalidateProductCache(ctx context.Context, c cache.ProductListCache, log *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := c.Invalidate(ctx); err != nil {
		log.WarnContext(ctx, "cache invalidate error", "error", err)
	}
}

// maxAmount bounds prices and order totals so they convert to finite float64
// values and can always be encoded.
var maxAmount = decimal.NewFromInt(1_000_000_000)

func validateMoney(v *validator, field string, d decimal.Decimal) {
	switch {
	case d.IsNegative():
		v.add(field, "must not be negative")
	case d.GreaterThan(maxAmount):
		v.add(field, "must not exceed "+maxAmount.String())
	}
}

func validateAmounts(v *validator, in ProductFields) {
	if in.Price != nil {
		validateMoney(v, "price", *in.Price)
	}
	if in.Stock != nil && *in.Stock < 0 {
		v.add("stock", "must not be negative")
	}
}

func requiredPtr(v *validator, field string, value *string) {
	if value == nil {
		v.add(field, "is required")
		return
	}
	v.required(field, *value)
}

func roundMoney(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
