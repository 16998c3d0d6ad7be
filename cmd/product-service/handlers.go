package main

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mercadia/ordenes-admin/internal/httpx"
	prod "github.com/mercadia/ordenes-admin/internal/product"
)

func parsePage(c *gin.Context) (int, int) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	return limit, offset
}

// listOnlyHandler pagina sin búsqueda: nunca manda Q al repo.
func listOnlyHandler(repo prod.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := parsePage(c)
		items, err := repo.List(c.Request.Context(), prod.Query{Limit: limit, Offset: offset})
		if err != nil {
			httpx.Error(c, http.StatusInternalServerError, err.Error())
			return
		}
		if items == nil {
			items = []prod.Product{}
		}
		c.JSON(http.StatusOK, prod.ListResponse{Items: items, Limit: limit, Offset: offset})
	}
}

// searchHandler exige q de al menos 2 caracteres.
func searchHandler(repo prod.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := strings.TrimSpace(c.Query("q"))
		if len(q) < 2 {
			httpx.Error(c, http.StatusBadRequest, "q is required (min 2 chars)")
			return
		}
		limit, offset := parsePage(c)
		items, err := repo.List(c.Request.Context(), prod.Query{Q: q, Limit: limit, Offset: offset})
		if err != nil {
			httpx.Error(c, http.StatusInternalServerError, err.Error())
			return
		}
		if items == nil {
			items = []prod.Product{}
		}
		c.JSON(http.StatusOK, prod.ListResponse{Q: q, Items: items, Limit: limit, Offset: offset})
	}
}

func getProductHandler(repo prod.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := repo.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			httpx.Error(c, http.StatusNotFound, "not found")
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

func createProductHandler(repo prod.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req prod.CreateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Error(c, http.StatusBadRequest, "invalid json")
			return
		}
		if req.Name == "" || req.Price == "" {
			httpx.Error(c, http.StatusBadRequest, "name and price are required")
			return
		}
		if req.Stock < 0 {
			httpx.Error(c, http.StatusBadRequest, "stock must be non-negative")
			return
		}
		p := &prod.Product{
			ID:                uuid.NewString(),
			Name:              req.Name,
			Description:       req.Description,
			Price:             req.Price,
			Stock:             req.Stock,
			LowStockThreshold: req.LowStockThreshold,
		}
		if err := repo.Create(c.Request.Context(), p); err != nil {
			httpx.Error(c, http.StatusInternalServerError, err.Error())
			return
		}
		c.JSON(http.StatusCreated, p)
	}
}

// updateProductHandler es parcial: price solo cambia cuando viene en el body.
func updateProductHandler(repo prod.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req prod.UpdateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Error(c, http.StatusBadRequest, "invalid json")
			return
		}
		if req.Stock < 0 {
			httpx.Error(c, http.StatusBadRequest, "stock must be non-negative")
			return
		}
		id := c.Param("id")
		if _, err := repo.GetByID(c.Request.Context(), id); err != nil {
			httpx.Error(c, http.StatusNotFound, "not found")
			return
		}
		p := &prod.Product{
			ID:                id,
			Name:              req.Name,
			Description:       req.Description,
			Price:             req.Price,
			Stock:             req.Stock,
			LowStockThreshold: req.LowStockThreshold,
		}
		if err := repo.Update(c.Request.Context(), p, req.Price != ""); err != nil {
			httpx.Error(c, http.StatusInternalServerError, err.Error())
			return
		}
		out, err := repo.GetByID(c.Request.Context(), id)
		if err != nil {
			httpx.Error(c, http.StatusInternalServerError, err.Error())
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

func deleteProductHandler(repo prod.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := repo.Delete(c.Request.Context(), c.Param("id"))
		if err != nil {
			httpx.Error(c, http.StatusInternalServerError, err.Error())
			return
		}
		if !ok {
			httpx.Error(c, http.StatusNotFound, "not found")
			return
		}
		c.Status(http.StatusNoContent)
	}
}
