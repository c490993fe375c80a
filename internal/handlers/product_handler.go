package handlers

import (
	"net/http"
	"strings"

	"thekua-api/internal/apperr"
	"thekua-api/internal/catalog"
	"thekua-api/internal/database"

	"github.com/gin-gonic/gin"
)

func productFilter(c *gin.Context) database.ProductFilter {
	return database.ProductFilter{
		Search:   strings.TrimSpace(c.Query("search")),
		Category: c.Query("category"),
		Featured: queryBool(c, "featured"),
		MinPrice: queryFloat(c, "minPrice"),
		MaxPrice: queryFloat(c, "maxPrice"),
		Sort:     c.Query("sort"),
		Page:     pageOf(c),
	}
}

// GetProducts lists the active catalog.
func (h *Handler) GetProducts(c *gin.Context) {
	f := productFilter(c)
	f.ActiveOnly = true
	products, total, err := h.Catalog.List(c.Request.Context(), f)
	if err != nil {
		h.fail(c, err)
		return
	}
	okPage(c, products, f.Page, total)
}

// AdminListProducts includes inactive products.
func (h *Handler) AdminListProducts(c *gin.Context) {
	f := productFilter(c)
	products, total, err := h.Catalog.List(c.Request.Context(), f)
	if err != nil {
		h.fail(c, err)
		return
	}
	okPage(c, products, f.Page, total)
}

func (h *Handler) GetProduct(c *gin.Context) {
	p, err := h.Catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "", p)
}

func (h *Handler) GetCategories(c *gin.Context) {
	cats, err := h.Catalog.Categories(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "", cats)
}

func (h *Handler) AddProduct(c *gin.Context) {
	var input catalog.ProductInput
	if err := bind(c, &input); err != nil {
		h.fail(c, err)
		return
	}
	p, err := h.Catalog.Create(c.Request.Context(), input)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, "Product created", p)
}

func (h *Handler) UpdateProduct(c *gin.Context) {
	var input catalog.ProductInput
	if err := bind(c, &input); err != nil {
		h.fail(c, err)
		return
	}
	p, err := h.Catalog.Update(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Product updated successfully", p)
}

func (h *Handler) DeleteProduct(c *gin.Context) {
	if err := h.Catalog.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Product deleted", nil)
}

// UploadImage stores a product image sent as the multipart field "image".
func (h *Handler) UploadImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 6<<20)

	file, err := c.FormFile("image")
	if err != nil {
		h.fail(c, apperr.Invalid("image", "an image file is required (max 5MB)"))
		return
	}

	src, err := file.Open()
	if err != nil {
		h.fail(c, err)
		return
	}
	defer src.Close()

	obj, err := h.Images.SaveImage(c.Request.Context(), src)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, "File uploaded successfully", obj)
}

func (h *Handler) DeleteImage(c *gin.Context) {
	if err := h.Images.Delete(c.Request.Context(), c.Param("publicId")); err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Image deleted", nil)
}
