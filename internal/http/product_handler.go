package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/service"
	"github.com/fjod/go_shop/internal/upload"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// maxUploadBodySize leaves room for the form fields around one image. Larger
// images are still read far enough for the image store to reject them.
const maxUploadBodySize = 2*upload.MaxImageSize + 64<<10

type CatalogService interface {
	List(ctx context.Context) ([]*domain.Product, error)
	Create(ctx context.Context, in service.ProductFields) (*domain.Product, error)
	Update(ctx context.Context, id domain.ProductID, in service.ProductFields) (*domain.Product, error)
	Delete(ctx context.Context, id domain.ProductID) error
}

type ImageStore interface {
	Save(r io.Reader, originalName string) (string, error)
	Remove(ref string) error
}

type ProductHandler struct {
	catalog CatalogService
	images  ImageStore
	timeout time.Duration
	log     *slog.Logger
}

func NewProductHandler(catalog CatalogService, images ImageStore, timeout time.Duration, log *slog.Logger) *ProductHandler {
	return &ProductHandler{
		catalog: catalog,
		images:  images,
		timeout: timeout,
		log:     log,
	}
}

// GET /api/products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.catalog.List(ctx)
	if err != nil {
		handleServiceError(ctx, h.log, w, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

// POST /api/products
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	in, imageRef, err := h.parseProductForm(w, r)
	if err != nil {
		handleServiceError(ctx, h.log, w, err)
		return
	}

	product, err := h.catalog.Create(ctx, in)
	if err != nil {
		h.discardImage(ctx, imageRef)
		handleServiceError(ctx, h.log, w, err)
		return
	}
	respondJSON(w, http.StatusCreated, product)
}

// PUT /api/products/{id}
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := domain.ProductID(chi.URLParam(r, "id"))
	if id == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "missing product id", "")
		return
	}

	in, imageRef, err := h.parseProductForm(w, r)
	if err != nil {
		handleServiceError(ctx, h.log, w, err)
		return
	}

	product, err := h.catalog.Update(ctx, id, in)
	if err != nil {
		h.discardImage(ctx, imageRef)
		handleServiceError(ctx, h.log, w, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

// DELETE /api/products/{id}
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := domain.ProductID(chi.URLParam(r, "id"))
	if err := h.catalog.Delete(ctx, id); err != nil {
		handleServiceError(ctx, h.log, w, err)
		return
	}
	respondJSON(w, http.StatusOK, MessageResponse{Message: "product deleted"})
}

// parseProductForm reads product fields from a multipart or urlencoded form
// and stores the optional image. The returned reference is empty when no
// image was sent.
func (h *ProductHandler) parseProductForm(w http.ResponseWriter, r *http.Request) (service.ProductFields, string, error) {
	var in service.ProductFields

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBodySize)
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err = r.ParseMultipartForm(maxUploadBodySize)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return in, "", fmt.Errorf("%w: request body too large", upload.ErrInvalidImage)
		}
		return in, "", &service.ValidationError{Fields: map[string]string{"body": "invalid form data"}}
	}

	fields := map[string]**string{
		"name":                 &in.Name,
		"localizedName":        &in.LocalizedName,
		"description":          &in.Description,
		"localizedDescription": &in.LocalizedDescription,
		"category":             &in.Category,
	}
	for key, dst := range fields {
		if v, ok := formValue(r, key); ok {
			*dst = &v
		}
	}

	invalid := make(map[string]string)
	if v, ok := formValue(r, "price"); ok {
		price, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			invalid["price"] = "must be a number"
		} else {
			in.Price = &price
		}
	}
	if v, ok := formValue(r, "stock"); ok {
		stock, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			invalid["stock"] = "must be an integer"
		} else {
			in.Stock = &stock
		}
	}
	if len(invalid) > 0 {
		return in, "", &service.ValidationError{Fields: invalid}
	}

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return in, "", nil
	}
	if err != nil {
		return in, "", fmt.Errorf("%w: %v", upload.ErrInvalidImage, err)
	}
	defer file.Close()

	ref, err := h.images.Save(file, header.Filename)
	if err != nil {
		return in, "", err
	}
	in.Image = &ref
	return in, ref, nil
}

func (h *ProductHandler) discardImage(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	if err := h.images.Remove(ref); err != nil {
		h.log.WarnContext(ctx, "failed to remove unused image", "image", ref, "error", err)
	}
}

func formValue(r *http.Request, key string) (string, bool) {
	if r.MultipartForm != nil {
		if vs, ok := r.MultipartForm.Value[key]; ok && len(vs) > 0 {
			return vs[0], true
		}
	}
	if vs, ok := r.PostForm[key]; ok && len(vs) > 0 {
		return vs[0], true
	}
	return "", false
}
