package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/storefront/internal/httpx"
	"github.com/MikeMC777/storefront/internal/money"
	"github.com/MikeMC777/storefront/internal/product"
)

func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return n
}

// @Summary  List products
// @Tags     products
// @Produce  json
// @Param    category  query string false "exact category"
// @Param    search    query string false "substring of the name"
// @Param    min_price query string false "lowest price, e.g. 10.00"
// @Param    max_price query string false "highest price"
// @Param    sort      query string false "price_asc | price_desc | name_asc | name_desc | newest"
// @Param    page      query int    false "1-based page"
// @Param    limit     query int    false "page size (max 100)"
// @Success  200 {object} product.ListResponse
// @Failure  400 {object} map[string]string
// @Router   /api/products [get]
func listProductsHandler(repo catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := product.Query{
			Category: c.Query("category"),
			Search:   c.Query("search"),
			Sort:     c.Query("sort"),
			Page:     queryInt(c, "page"),
			Limit:    queryInt(c, "limit"),
		}
		for key, dst := range map[string]*string{"min_price": &q.MinPrice, "max_price": &q.MaxPrice} {
			v := c.Query(key)
			if v == "" {
				continue
			}
			norm, err := money.Normalize(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": key + " must be a non-negative number"})
				return
			}
			*dst = norm
		}
		q = q.Normalize()

		items, total, err := repo.List(c.Request.Context(), q)
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, product.NewListResponse(items, total, q))
	}
}

// @Summary  Distinct product categories
// @Tags     products
// @Produce  json
// @Success  200 {array} string
// @Router   /api/products/categories/list [get]
func categoriesHandler(repo catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		cats, err := repo.Categories(c.Request.Context())
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		if cats == nil {
			cats = []string{}
		}
		c.JSON(http.StatusOK, cats)
	}
}

// @Summary  Get product
// @Tags     products
// @Produce  json
// @Param    id path string true "product id"
// @Success  200 {object} product.Product
// @Failure  404 {object} map[string]string
// @Router   /api/products/{id} [get]
func getProductHandler(repo catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := repo.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			httpx.WriteError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}
