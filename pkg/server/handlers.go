package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/example/eshiroflex/pkg/account"
	"github.com/example/eshiroflex/pkg/auth"
	"github.com/example/eshiroflex/pkg/catalog"
	"github.com/example/eshiroflex/pkg/models"
	"github.com/example/eshiroflex/pkg/order"
)

// --- users ---

type createUserRequest struct {
	Email           string `json:"email" binding:"required"`
	FullName        string `json:"full_name"`
	CompleteAddress string `json:"complete_address"`
	CellphoneNumber string `json:"cellphone_number"`
	ImageURL        string `json:"image_url"`
}

func (s *Server) createUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := s.accounts.Create(c.Request.Context(), account.CreateParams{
		Email:           req.Email,
		FullName:        req.FullName,
		CompleteAddress: req.CompleteAddress,
		CellphoneNumber: req.CellphoneNumber,
		ImageURL:        req.ImageURL,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (s *Server) listUsers(c *gin.Context) {
	if err := auth.Authorize(currentActor(c), auth.OpReadUser, ""); err != nil {
		s.writeError(c, err)
		return
	}

	users, err := s.accounts.List(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "total": len(users)})
}

func (s *Server) getUser(c *gin.Context) {
	id := c.Param("id")
	if err := auth.Authorize(currentActor(c), auth.OpReadUser, id); err != nil {
		s.writeError(c, err)
		return
	}

	user, err := s.accounts.Get(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

type updateUserRequest struct {
	FullName        *string `json:"full_name"`
	CompleteAddress *string `json:"complete_address"`
	CellphoneNumber *string `json:"cellphone_number"`
	ImageURL        *string `json:"image_url"`
}

func (s *Server) updateUser(c *gin.Context) {
	id := c.Param("id")
	if err := auth.Authorize(currentActor(c), auth.OpWriteUser, id); err != nil {
		s.writeError(c, err)
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if req.FullName != nil {
		updates["full_name"] = *req.FullName
	}
	if req.CompleteAddress != nil {
		updates["complete_address"] = *req.CompleteAddress
	}
	if req.CellphoneNumber != nil {
		updates["cellphone_number"] = *req.CellphoneNumber
	}
	if req.ImageURL != nil {
		updates["image_url"] = *req.ImageURL
	}

	user, err := s.accounts.Update(c.Request.Context(), id, updates)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) deleteUser(c *gin.Context) {
	id := c.Param("id")
	if err := auth.Authorize(currentActor(c), auth.OpWriteUser, id); err != nil {
		s.writeError(c, err)
		return
	}

	if err := s.accounts.Delete(c.Request.Context(), id); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- catalog ---

type createProductRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       uint            `json:"stock"`
	ImageURL    string          `json:"image_url"`
	ProductSize string          `json:"product_size"`
	CategoryID  string          `json:"category_id"`
}

func (s *Server) createProduct(c *gin.Context) {
	if err := auth.Authorize(currentActor(c), auth.OpWriteCatalog, ""); err != nil {
		s.writeError(c, err)
		return
	}

	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := s.catalog.CreateProduct(c.Request.Context(), &models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		ImageURL:    req.ImageURL,
		ProductSize: req.ProductSize,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (s *Server) getProduct(c *gin.Context) {
	product, err := s.catalog.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (s *Server) listProducts(c *gin.Context) {
	products, err := s.catalog.ListProducts(c.Request.Context(), c.Query("category_id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products, "total": len(products)})
}

type updateProductRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *uint            `json:"stock"`
	ImageURL    *string          `json:"image_url"`
	ProductSize *string          `json:"product_size"`
	CategoryID  *string          `json:"category_id"`
}

func (s *Server) updateProduct(c *gin.Context) {
	if err := auth.Authorize(currentActor(c), auth.OpWriteCatalog, ""); err != nil {
		s.writeError(c, err)
		return
	}

	var req updateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.Stock != nil {
		updates["stock"] = *req.Stock
	}
	if req.ImageURL != nil {
		updates["image_url"] = *req.ImageURL
	}
	if req.ProductSize != nil {
		updates["product_size"] = *req.ProductSize
	}
	if req.CategoryID != nil {
		updates["category_id"] = *req.CategoryID
	}

	product, err := s.catalog.UpdateProduct(c.Request.Context(), c.Param("id"), updates)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (s *Server) deleteProduct(c *gin.Context) {
	if err := auth.Authorize(currentActor(c), auth.OpWriteCatalog, ""); err != nil {
		s.writeError(c, err)
		return
	}

	if err := s.catalog.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type createCategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

func (s *Server) createCategory(c *gin.Context) {
	if err := auth.Authorize(currentActor(c), auth.OpWriteCatalog, ""); err != nil {
		s.writeError(c, err)
		return
	}

	var req createCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category, err := s.catalog.CreateCategory(c.Request.Context(), req.Name)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (s *Server) listCategories(c *gin.Context) {
	categories, err := s.catalog.ListCategories(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories, "total": len(categories)})
}

func (s *Server) deleteCategory(c *gin.Context) {
	if err := auth.Authorize(currentActor(c), auth.OpWriteCatalog, ""); err != nil {
		s.writeError(c, err)
		return
	}

	if err := s.catalog.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- cart ---

type addToCartRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity"`
}

func (s *Server) addToCart(c *gin.Context) {
	var req addToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := currentActor(c)
	item, err := s.cart.AddItem(c.Request.Context(), actor.ID, req.ProductID, req.Quantity)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"cart_item_id": item.ID, "quantity": item.Quantity})
}

func (s *Server) listCart(c *gin.Context) {
	actor := currentActor(c)
	lines, err := s.cart.ListItems(c.Request.Context(), actor.ID)
	if err != nil {
		s.writeError(c, err)
		return
	}

	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal)
	}
	c.JSON(http.StatusOK, gin.H{"items": lines, "total_price": total})
}

func (s *Server) removeFromCart(c *gin.Context) {
	actor := currentActor(c)
	if err := s.cart.RemoveItem(c.Request.Context(), actor.ID, c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- wishlist ---

type addToWishlistRequest struct {
	ProductID string `json:"product_id" binding:"required"`
}

func (s *Server) addToWishlist(c *gin.Context) {
	var req addToWishlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := currentActor(c)
	item, err := s.wishlists.Add(c.Request.Context(), actor.ID, req.ProductID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (s *Server) listWishlist(c *gin.Context) {
	actor := currentActor(c)
	items, err := s.wishlists.List(c.Request.Context(), actor.ID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
}

func (s *Server) removeFromWishlist(c *gin.Context) {
	actor := currentActor(c)
	if err := s.wishlists.Remove(c.Request.Context(), actor.ID, c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- orders ---

// writePlacementError keeps placement rejections on 400: a request that
// names a dead product or asks for more than the shelf holds is a bad
// request, not a lookup miss.
func (s *Server) writePlacementError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, order.ErrInvalidRequest),
		errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, catalog.ErrInsufficientStock):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		s.writeError(c, err)
	}
}

func (s *Server) placeOrder(c *gin.Context) {
	actor := currentActor(c)
	placed, err := s.orders.PlaceOrder(c.Request.Context(), actor.ID)
	if err != nil {
		s.writePlacementError(c, err)
		return
	}
	c.JSON(http.StatusCreated, placed)
}

type placeOrderDirectRequest struct {
	ProductIDs []string `json:"product_ids"`
	Quantities []uint   `json:"quantities"`
}

func (s *Server) placeOrderDirect(c *gin.Context) {
	var req placeOrderDirectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lines, err := order.ZipLines(req.ProductIDs, req.Quantities)
	if err != nil {
		s.writePlacementError(c, err)
		return
	}

	actor := currentActor(c)
	placed, err := s.orders.PlaceItems(c.Request.Context(), actor.ID, lines)
	if err != nil {
		s.writePlacementError(c, err)
		return
	}
	c.JSON(http.StatusCreated, placed)
}

func (s *Server) getOrder(c *gin.Context) {
	placed, err := s.orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	if err := auth.Authorize(currentActor(c), auth.OpReadOrder, placed.UserID); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, placed)
}

func (s *Server) listOrders(c *gin.Context) {
	actor := currentActor(c)
	ordersList, err := s.orders.ListByUser(c.Request.Context(), actor.ID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": ordersList, "total": len(ordersList)})
}

func (s *Server) recalculateOrder(c *gin.Context) {
	id := c.Param("id")
	existing, err := s.orders.Get(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if err := auth.Authorize(currentActor(c), auth.OpPlaceOrder, existing.UserID); err != nil {
		s.writeError(c, err)
		return
	}

	recalced, err := s.orders.RecalculateTotal(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, recalced)
}

// --- payments ---

type createPaymentRequest struct {
	OrderID       *string         `json:"order_id"`
	Amount        decimal.Decimal `json:"amount"`
	ModeOfPayment string          `json:"mode_of_payment"`
}

func (s *Server) createPayment(c *gin.Context) {
	var req createPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := currentActor(c)
	p, err := s.payments.Create(c.Request.Context(), actor.ID, req.OrderID, req.Amount, req.ModeOfPayment)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"payment_id": p.ID, "status": p.Status})
}

func (s *Server) getPayment(c *gin.Context) {
	p, err := s.payments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	if err := auth.Authorize(currentActor(c), auth.OpReadPayment, p.UserID); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) listPayments(c *gin.Context) {
	actor := currentActor(c)
	payments, err := s.payments.ListByUser(c.Request.Context(), actor.ID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments, "total": len(payments)})
}

func (s *Server) refundPayment(c *gin.Context) {
	id := c.Param("id")
	existing, err := s.payments.Get(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if err := auth.Authorize(currentActor(c), auth.OpWritePayment, existing.UserID); err != nil {
		s.writeError(c, err)
		return
	}

	refunded, err := s.payments.Refund(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.notifier.PaymentRefunded(refunded.ID, refunded.UserID, refunded.Amount)
	c.JSON(http.StatusOK, gin.H{"payment_id": refunded.ID, "status": refunded.Status})
}
