package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ecoshop_back_end/internal/apperrors"
	"ecoshop_back_end/internal/metrics"
	"ecoshop_back_end/internal/models"
	"ecoshop_back_end/internal/repository"
)

const (
	// DefaultResultPerPage est la taille de page du catalogue sans limite explicite.
	DefaultResultPerPage = 8
	// MaxProductImages plafonne le nombre d'images par requête.
	MaxProductImages = 5

	productImageFolder = "products"
	searchTimeout      = 10 * time.Second
	searchHitLimit     = 1000
)

// ProductInput porte les champs modifiables d'un produit. Les pointeurs nil restent inchangés à la mise à jour.
type ProductInput struct {
	Name        *string
	Description *string
	Price       *float64
	Category    *string
	Stock       *int
}

// ProductQuery est une requête publique de liste du catalogue.
type ProductQuery struct {
	models.ProductFilter
	Page  int
	Limit int
}

type ProductPage struct {
	Products              []*models.Product `json:"products"`
	ProductsCount         int               `json:"productsCount"`
	FilteredProductsCount int               `json:"filteredProductsCount"`
	ResultPerPage         int               `json:"resultPerPage"`
}

type ProductService struct {
	products  repository.ProductRepository
	inventory *InventoryService
	images    ImageStore
	search    ProductSearch
	logger    *zap.Logger
	now       func() time.Time
	runAsync  func(func())
}

// NewProductService assemble le catalogue. search peut être nil, le filtre par mot-clé parcourt alors le catalogue.
func NewProductService(products repository.ProductRepository, inventory *InventoryService, images ImageStore, search ProductSearch, logger *zap.Logger) *ProductService {
	return &ProductService{
		products:  products,
		inventory: inventory,
		images:    images,
		search:    search,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
		runAsync:  func(f func()) { go f() },
	}
}

func (s *ProductService) Get(ctx context.Context, id string) (*models.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("Product", id)
	}
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("get product %s: %w", id, err))
	}
	return p, nil
}

func (s *ProductService) AdminList(ctx context.Context) ([]*models.Product, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("list products: %w", err))
	}
	return products, nil
}

// List filtre le catalogue et en retourne une page.
func (s *ProductService) List(ctx context.Context, q ProductQuery) (*ProductPage, error) {
	all, err := s.products.List(ctx)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("list products: %w", err))
	}

	filter := q.ProductFilter
	if filter.Keyword != "" && s.search != nil {
		ids, err := s.search.Search(ctx, filter.Keyword, searchHitLimit)
		if err != nil {
			metrics.SearchIndexFailuresTotal.Inc()
			s.logger.Warn("product search failed, scanning catalog",
				zap.String("keyword", filter.Keyword),
				zap.Error(err))
		} else {
			filter.IDs = ids
			filter.Keyword = ""
			if filter.IDs == nil {
				filter.IDs = []string{}
			}
		}
	}

	filtered := make([]*models.Product, 0, len(all))
	for _, p := range all {
		if matches(p, filter) {
			filtered = append(filtered, p)
		}
	}

	perPage := q.Limit
	if perPage <= 0 {
		perPage = DefaultResultPerPage
	}
	page := max(q.Page, 1)
	start := min((page-1)*perPage, len(filtered))
	end := min(start+perPage, len(filtered))

	return &ProductPage{
		Products:              filtered[start:end],
		ProductsCount:         len(all),
		FilteredProductsCount: len(filtered),
		ResultPerPage:         perPage,
	}, nil
}

func matches(p *models.Product, f models.ProductFilter) bool {
	if f.IDs != nil && !slices.Contains(f.IDs, p.ID) {
		return false
	}
	if f.Keyword != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Keyword)) {
		return false
	}
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.PriceGTE != nil && p.Price < *f.PriceGTE {
		return false
	}
	if f.PriceLTE != nil && p.Price > *f.PriceLTE {
		return false
	}
	if f.RatingsGTE != nil && p.Ratings < *f.RatingsGTE {
		return false
	}
	return true
}

// Create enregistre un produit et ses images. imagePaths sont des fichiers temporaires, supprimés dans tous les cas.
func (s *ProductService) Create(ctx context.Context, creator *models.User, in ProductInput, imagePaths []string) (*models.Product, error) {
	if err := validateNewProduct(in, imagePaths); err != nil {
		removeTemp(imagePaths)
		return nil, err
	}

	images, err := s.upload(ctx, imagePaths)
	if err != nil {
		return nil, err
	}

	now := s.now()
	p := &models.Product{
		ID:          uuid.NewString(),
		Name:        *in.Name,
		Description: *in.Description,
		Price:       *in.Price,
		Category:    *in.Category,
		Stock:       1,
		Images:      images,
		Reviews:     []models.Review{},
		User:        creator.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}

	if err := s.products.Create(ctx, p); err != nil {
		s.discard(ctx, images)
		return nil, apperrors.Internal(fmt.Errorf("create product: %w", err))
	}

	s.logger.Info("product created",
		zap.String("product_id", p.ID),
		zap.String("user_id", creator.ID))
	s.reindex(p)
	return p, nil
}

func validateNewProduct(in ProductInput, imagePaths []string) error {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" ||
		in.Description == nil || strings.TrimSpace(*in.Description) == "" ||
		in.Price == nil || in.Category == nil || strings.TrimSpace(*in.Category) == "" {
		return apperrors.Validation("Please provide all required fields")
	}
	return validateProductValues(in, imagePaths)
}

func validateProductValues(in ProductInput, imagePaths []string) error {
	if in.Price != nil && *in.Price < 0 {
		return apperrors.Validation("Price cannot be negative")
	}
	if in.Stock != nil && *in.Stock < 0 {
		return apperrors.Validation("Stock cannot be negative")
	}
	if len(imagePaths) > MaxProductImages {
		return apperrors.Validation(fmt.Sprintf("At most %d images are allowed", MaxProductImages))
	}
	return nil
}

// Update modifie les champs fournis et ajoute les nouvelles images aux existantes.
func (s *ProductService) Update(ctx context.Context, id string, in ProductInput, imagePaths []string) (*models.Product, error) {
	if err := validateProductValues(in, imagePaths); err != nil {
		removeTemp(imagePaths)
		return nil, err
	}
	if _, err := s.Get(ctx, id); err != nil {
		removeTemp(imagePaths)
		return nil, err
	}

	images, err := s.upload(ctx, imagePaths)
	if err != nil {
		return nil, err
	}

	p, err := s.save(ctx, id, func(p *models.Product) {
		if in.Name != nil {
			p.Name = *in.Name
		}
		if in.Description != nil {
			p.Description = *in.Description
		}
		if in.Price != nil {
			p.Price = *in.Price
		}
		if in.Category != nil {
			p.Category = *in.Category
		}
		p.Images = append(p.Images, images...)
	})
	if err != nil {
		s.discard(ctx, images)
		return nil, err
	}

	if in.Stock != nil && *in.Stock != p.Stock {
		change, err := s.inventory.Set(ctx, id, *in.Stock, models.MovementAdjustment)
		if err != nil {
			return nil, err
		}
		p.Stock = change.NewStock
	}

	s.reindex(p)
	return p, nil
}

func (s *ProductService) save(ctx context.Context, id string, change func(*models.Product)) (*models.Product, error) {
	for attempt := 1; attempt <= maxCASAttempts; attempt++ {
		p, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		expected := p.Version
		change(p)
		p.UpdatedAt = s.now()

		ok, err := s.products.CompareAndSwap(ctx, p, expected)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Product", id)
		}
		if err != nil {
			return nil, apperrors.Internal(fmt.Errorf("update product %s: %w", id, err))
		}
		if ok {
			p.Version = expected + 1
			return p, nil
		}
		metrics.CASRetriesTotal.WithLabelValues("product").Inc()
	}
	return nil, apperrors.Conflict(fmt.Sprintf("Product %s is being modified concurrently, try again", id))
}

// Delete supprime le produit, puis ses images et son document de recherche au mieux.
func (s *ProductService) Delete(ctx context.Context, id string) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.products.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("Product", id)
		}
		return apperrors.Internal(fmt.Errorf("delete product %s: %w", id, err))
	}

	s.discard(ctx, p.Images)
	if s.search != nil {
		s.runAsync(func() {
			ctx, cancel := context.WithTimeout(context.Background(), searchTimeout)
			defer cancel()
			if err := s.search.Delete(ctx, id); err != nil {
				metrics.SearchIndexFailuresTotal.Inc()
				s.logger.Warn("search document not removed", zap.String("product_id", id), zap.Error(err))
			}
		})
	}
	s.logger.Info("product deleted", zap.String("product_id", id))
	return nil
}

// upload stocke chaque fichier temporaire. Au premier échec, les images déjà
// stockées sont retirées et les fichiers temporaires restants supprimés.
func (s *ProductService) upload(ctx context.Context, paths []string) ([]models.Image, error) {
	images := make([]models.Image, 0, len(paths))
	for i, path := range paths {
		img, err := s.images.Upload(ctx, path, productImageFolder)
		if err != nil {
			removeTemp(paths[i+1:])
			s.discard(ctx, images)
			s.logger.Error("image upload failed", zap.Error(err))
			return nil, imageStoreError(err)
		}
		images = append(images, img)
	}
	return images, nil
}

func (s *ProductService) discard(ctx context.Context, images []models.Image) {
	ctx = context.WithoutCancel(ctx)
	for _, img := range images {
		if err := s.images.Remove(ctx, img.PublicID); err != nil {
			s.logger.Warn("image not removed", zap.String("public_id", img.PublicID), zap.Error(err))
		}
	}
}

func (s *ProductService) reindex(p *models.Product) {
	if s.search == nil {
		return
	}
	doc := p.Clone()
	s.runAsync(func() {
		ctx, cancel := context.WithTimeout(context.Background(), searchTimeout)
		defer cancel()
		if err := s.search.Index(ctx, doc); err != nil {
			metrics.SearchIndexFailuresTotal.Inc()
			s.logger.Warn("product not indexed", zap.String("product_id", doc.ID), zap.Error(err))
		}
	})
}

func removeTemp(paths []string) {
	for _, p := range paths {
		_ = os.Remove(p)
	}
}
