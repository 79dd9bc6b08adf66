package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/eshiroflex/pkg/account"
	"github.com/example/eshiroflex/pkg/auth"
	"github.com/example/eshiroflex/pkg/cart"
	"github.com/example/eshiroflex/pkg/catalog"
	"github.com/example/eshiroflex/pkg/order"
	"github.com/example/eshiroflex/pkg/payment"
	"github.com/example/eshiroflex/pkg/wishlist"
)

// writeError maps domain sentinels onto HTTP statuses. Anything not
// recognized is an infrastructure failure: the detail is already in the
// logs, the client only sees an opaque message.
func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})

	case errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, catalog.ErrCategoryNotFound),
		errors.Is(err, cart.ErrNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, payment.ErrNotFound),
		errors.Is(err, account.ErrNotFound),
		errors.Is(err, wishlist.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, catalog.ErrInsufficientStock),
		errors.Is(err, payment.ErrInvalidTransition),
		errors.Is(err, order.ErrInvalidOrderState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	case errors.Is(err, catalog.ErrInvalidProduct),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, order.ErrInvalidRequest),
		errors.Is(err, payment.ErrInvalidAmount),
		errors.Is(err, account.ErrInvalidUser):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
