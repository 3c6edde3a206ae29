package httpx

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/storefront/internal/order"
	"github.com/MikeMC777/storefront/internal/product"
	"github.com/MikeMC777/storefront/internal/user"
)

// WriteError aborts the request with the status and {"error": ...} body that
// matches err.
func WriteError(c *gin.Context, err error) {
	var (
		ve  *order.ValidationError
		ie  *user.InputError
		nf  *order.NotFoundError
		ise *order.InsufficientStockError
		pe  *order.PersistenceError
	)
	switch {
	case errors.As(err, &ve):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": ve.Msg})
	case errors.As(err, &ie):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": ie.Msg})
	case errors.As(err, &nf):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": nf.Error()})
	case errors.Is(err, product.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "product not found"})
	case errors.As(err, &ise):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{
			"error":      ise.Error(),
			"product_id": ise.ProductID,
			"requested":  ise.Requested,
			"available":  ise.Available,
			"shortfall":  ise.Shortfall(),
		})
	case errors.Is(err, user.ErrAlreadyExist):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "email already registered"})
	case errors.Is(err, user.ErrInvalidCredentials):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, user.ErrUnauthorized):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.As(err, &pe):
		log.Printf("[http] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "could not save the order, please retry"})
	default:
		log.Printf("[http] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
