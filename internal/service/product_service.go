package service

import (
	"context"
	"encoding/json"
	"fmt"

	"salesledger/internal/model"
	"salesledger/internal/repository"
	"salesledger/pkg/money"
)

type CreateProductDTO struct {
	SKU             string       `json:"sku" validate:"required,max=100"`
	Name            string       `json:"name" validate:"required,max=255"`
	UnitPrice       money.Amount `json:"unit_price" validate:"gte=0"`
	UnitWeightGrams int64        `json:"unit_weight_grams" validate:"gte=0"`
}

type ProductResponse struct {
	ID              string       `json:"id"`
	SKU             string       `json:"sku"`
	Name            string       `json:"name"`
	UnitPrice       money.Amount `json:"unit_price"`
	UnitWeightGrams int64        `json:"unit_weight_grams"`
	IsActive        bool         `json:"is_active"`
}

type ProductService interface {
	CreateProduct(ctx context.Context, actor model.Actor, req CreateProductDTO) (ProductResponse, error)
	GetProducts(ctx context.Context, page, limit int, search string) ([]ProductResponse, int64, error)
}

type productService struct {
	repos *repository.Repositories
}

func NewProductService(deps Deps) ProductService {
	return &productService{repos: deps.Repos}
}

func (s *productService) CreateProduct(ctx context.Context, actor model.Actor, req CreateProductDTO) (ProductResponse, error) {
	if err := validateStruct(req); err != nil {
		return ProductResponse{}, err
	}
	product := &model.Product{
		SKU:             req.SKU,
		Name:            req.Name,
		UnitPrice:       req.UnitPrice,
		UnitWeightGrams: req.UnitWeightGrams,
		IsActive:        true,
	}
	err := s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repos.Products.Create(txCtx, product); err != nil {
			return fmt.Errorf("failed to create product %s: %w", req.SKU, err)
		}
		details, _ := json.Marshal(map[string]any{"sku": product.SKU, "unit_price": product.UnitPrice})
		return s.repos.Audit.Log(txCtx, &model.AuditLog{
			UserID:     &actor.UserID,
			UserRole:   actor.Role,
			Action:     model.ActionCreateProduct,
			EntityID:   product.ID.String(),
			EntityName: product.Name,
			Details:    string(details),
		})
	})
	if err != nil {
		return ProductResponse{}, err
	}
	return toProductResponse(product), nil
}

func (s *productService) GetProducts(ctx context.Context, page, limit int, search string) ([]ProductResponse, int64, error) {
	page, limit = normalizePage(page, limit)
	products, total, err := s.repos.Products.List(ctx, page, limit, search)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	res := make([]ProductResponse, 0, len(products))
	for i := range products {
		res = append(res, toProductResponse(&products[i]))
	}
	return res, total, nil
}

func toProductResponse(p *model.Product) ProductResponse {
	return ProductResponse{
		ID:              p.ID.String(),
		SKU:             p.SKU,
		Name:            p.Name,
		UnitPrice:       p.UnitPrice,
		UnitWeightGrams: p.UnitWeightGrams,
		IsActive:        p.IsActive,
	}
}
