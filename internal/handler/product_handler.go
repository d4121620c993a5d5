package handler

import (
	"net/http"

	"salesledger/internal/middleware"
	"salesledger/internal/service"
	"salesledger/pkg/pagination"
	"salesledger/pkg/response"

	"github.com/gin-gonic/gin"
)

type ProductHandler struct {
	productService service.ProductService
}

func NewProductHandler(productService service.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

func (h *ProductHandler) RegisterRoutes(router *gin.RouterGroup) {
	products := router.Group("/api/products")
	{
		products.GET("", h.GetProducts)
		products.POST("", middleware.RequirePrivileged(), h.CreateProduct)
	}
}

// GetProducts
// @Summary      List products
// @Tags         products
// @Security     BearerAuth
// @Produce      json
// @Param        search  query     string  false  "SKU or name contains"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200     {object}  response.Response{data=[]service.ProductResponse}
// @Router       /api/products [get]
func (h *ProductHandler) GetProducts(c *gin.Context) {
	p := pagination.Parse(c)
	products, total, err := h.productService.GetProducts(c.Request.Context(), p.Page, p.Limit, c.Query("search"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, products, p.Meta(total)))
}

// CreateProduct adds a catalog item
// @Summary      Create product
// @Tags         products
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateProductDTO  true  "Product"
// @Success      201      {object}  response.Response{data=service.ProductResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/products [post]
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var req service.CreateProductDTO
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.productService.CreateProduct(c.Request.Context(), actor, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, product))
}
