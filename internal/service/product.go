package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"banca-api/internal/model"
	"banca-api/internal/repository"
)

type ProductService struct {
	productRepo *repository.ProductRepository
	logger      *logrus.Logger
}

func NewProductService(productRepo *repository.ProductRepository, logger *logrus.Logger) *ProductService {
	return &ProductService{productRepo: productRepo, logger: logger}
}

func (s *ProductService) CreateProduct(ctx context.Context, req *model.CreateProductRequest) (*model.Product, error) {
	product := &model.Product{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Price:       decimal.NewFromFloat(req.Price),
		CreatedAt:   time.Now(),
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrProductExists
		}
		s.logger.WithError(err).Error("Failed to create product")
		return nil, fmt.Errorf("error al crear el producto: %w", err)
	}

	s.logger.WithField("product_id", product.ID).Info("Product created")
	return product, nil
}

func (s *ProductService) ListProducts(ctx context.Context) ([]model.Product, error) {
	products, err := s.productRepo.GetAll(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list products")
		return nil, fmt.Errorf("error al obtener los productos: %w", err)
	}
	return products, nil
}
