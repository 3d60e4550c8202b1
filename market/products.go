package market

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
)

// Image is a stored product photo. URL is relative to the API base URL.
type Image struct {
	URL string `json:"url"`
}

// Location is a product's map position.
type Location struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Product is a catalog listing.
type Product struct {
	ID          string   `json:"_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Images      []Image  `json:"images"`
	Location    Location `json:"location"`
	CreatedAt   string   `json:"createdAt,omitempty"`
	UpdatedAt   string   `json:"updatedAt,omitempty"`
}

// Pagination describes the current page of a product listing.
type Pagination struct {
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
}

// ProductPage is one page of catalog results.
type ProductPage struct {
	Products   []Product
	Pagination Pagination
}

type productListResponse struct {
	Data       []Product  `json:"data"`
	Pagination Pagination `json:"pagination"`
}

type productResponse struct {
	Data Product `json:"data"`
}

// SortOrder controls price sorting of catalog pages.
type SortOrder string

const (
	SortNone SortOrder = ""
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ListParams are the query parameters for a catalog page.
type ListParams struct {
	Page  int
	Limit int
	Order SortOrder
}

// GetProducts fetches one page of the product catalog.
func (c *Client) GetProducts(ctx context.Context, params ListParams) (ProductPage, error) {
	result := &productListResponse{}

	page := params.Page
	if page < 1 {
		page = 1
	}
	limit := params.Limit
	if limit < 1 {
		limit = 10
	}

	queryParams := map[string]string{
		"page":  strconv.Itoa(page),
		"limit": strconv.Itoa(limit),
	}
	if params.Order != SortNone {
		queryParams["sortBy"] = "price"
		queryParams["order"] = string(params.Order)
	}

	_, err := handleError(c.req(ctx, result).
		SetQueryParams(queryParams).
		Get("/api/products"))
	if err != nil {
		return ProductPage{}, err
	}

	pagination := result.Pagination
	if pagination.CurrentPage == 0 {
		pagination.CurrentPage = page
	}
	if pagination.TotalPages == 0 {
		pagination.TotalPages = 1
	}

	return ProductPage{Products: result.Data, Pagination: pagination}, nil
}

// SearchProducts runs a free-text search over the catalog. Search results
// are not paginated by the backend.
func (c *Client) SearchProducts(ctx context.Context, query string) ([]Product, error) {
	result := &productListResponse{}

	_, err := handleError(c.req(ctx, result).
		SetQueryParam("query", query).
		Get("/api/products/search"))

	return result.Data, err
}

// GetProduct fetches a single product by id.
func (c *Client) GetProduct(ctx context.Context, id string) (Product, error) {
	result := &productResponse{}

	_, err := handleError(c.req(ctx, result).
		SetPathParams(map[string]string{"productId": id}).
		Get("/api/products/{productId}"))

	return result.Data, err
}

// ProductImage is an image attached to a create or update call.
type ProductImage struct {
	Name string
	Data []byte
}

// ProductInput is the product form submitted on create and update.
type ProductInput struct {
	Title       string
	Description string
	Price       float64
	Location    Location
	Images      []ProductImage
}

// productForm flattens a ProductInput into multipart form fields. The
// location is sent bracket-style (location[name] etc.), matching what the
// backend's form parser expects.
func productForm(input ProductInput) map[string]string {
	return map[string]string{
		"title":               input.Title,
		"description":         input.Description,
		"price":               strconv.FormatFloat(input.Price, 'f', -1, 64),
		"location[name]":      input.Location.Name,
		"location[latitude]":  strconv.FormatFloat(input.Location.Latitude, 'f', -1, 64),
		"location[longitude]": strconv.FormatFloat(input.Location.Longitude, 'f', -1, 64),
	}
}

// CreateProduct creates a new listing with images.
func (c *Client) CreateProduct(ctx context.Context, input ProductInput) (Product, error) {
	result := &productResponse{}

	req := c.req(ctx, result).SetMultipartFormData(productForm(input))
	for i, img := range input.Images {
		name := img.Name
		if name == "" {
			name = fmt.Sprintf("image-%d.jpg", i)
		}
		req.SetFileReader("images", name, bytes.NewReader(img.Data))
	}

	_, err := handleError(req.Post("/api/products"))

	return result.Data, err
}

// UpdateProduct replaces a listing's fields. Images provided here are added
// alongside the listing's existing images.
func (c *Client) UpdateProduct(ctx context.Context, id string, input ProductInput) (Product, error) {
	result := &productResponse{}

	req := c.req(ctx, result).
		SetPathParams(map[string]string{"productId": id}).
		SetMultipartFormData(productForm(input))
	for i, img := range input.Images {
		name := img.Name
		if name == "" {
			name = fmt.Sprintf("image-%d.jpg", i)
		}
		req.SetFileReader("images", name, bytes.NewReader(img.Data))
	}

	_, err := handleError(req.Put("/api/products/{productId}"))

	return result.Data, err
}

// DeleteProduct removes a listing.
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	_, err := handleError(c.req(ctx, nil).
		SetPathParams(map[string]string{"productId": id}).
		Delete("/api/products/{productId}"))

	return err
}
