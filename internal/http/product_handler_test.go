package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/repository"
	"github.com/fjod/go_shop/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type catalogMock struct {
	products  []*domain.Product
	err       error
	updatedID domain.ProductID
	updatedIn service.ProductFields
}

func (m *catalogMock) List(context.Context) ([]*domain.Product, error) {
	return m.products, m.err
}

func (m *catalogMock) Create(_ context.Context, in service.ProductFields) (*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Product{ID: "new", Name: *in.Name}, nil
}

func (m *catalogMock) Update(_ context.Context, id domain.ProductID, in service.ProductFields) (*domain.Product, error) {
	m.updatedID = id
	m.updatedIn = in
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Product{ID: id}, nil
}

func (m *catalogMock) Delete(context.Context, domain.ProductID) error {
	return m.err
}

type imageStoreMock struct{}

func (imageStoreMock) Save(io.Reader, string) (string, error) { return "/uploads/x.png", nil }

func (imageStoreMock) Remove(string) error { return nil }

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestProductHandler_List(t *testing.T) {
	mock := &catalogMock{products: []*domain.Product{{ID: "a", Name: "Oolong"}}}
	handler := NewProductHandler(mock, imageStoreMock{}, 5*time.Second, discardLogger())

	w := httptest.NewRecorder()
	handler.List(w, httptest.NewRequest(http.MethodGet, "/api/products", nil))

	require.Equal(t, http.StatusOK, w.Code)
	products := decodeBody[[]domain.Product](t, w)
	require.Len(t, products, 1)
	assert.Equal(t, "Oolong", products[0].Name)
}

func TestProductHandler_List_InternalErrorHidesDetails(t *testing.T) {
	mock := &catalogMock{err: errors.New("connection refused to 10.0.0.5")}
	handler := NewProductHandler(mock, imageStoreMock{}, 5*time.Second, discardLogger())

	w := httptest.NewRecorder()
	handler.List(w, httptest.NewRequest(http.MethodGet, "/api/products", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeBody[ErrorResponse](t, w)
	assert.Equal(t, "internal_error", resp.Code)
	assert.NotContains(t, resp.Error+resp.Details, "10.0.0.5")
}

func TestProductHandler_Update_URLEncodedPartial(t *testing.T) {
	mock := &catalogMock{}
	handler := NewProductHandler(mock, imageStoreMock{}, 5*time.Second, discardLogger())

	req := httptest.NewRequest(http.MethodPut, "/api/products/p1", strings.NewReader("price=3.5&category=herbal"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = withURLParam(req, "id", "p1")
	w := httptest.NewRecorder()

	handler.Update(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, domain.ProductID("p1"), mock.updatedID)
	require.NotNil(t, mock.updatedIn.Price)
	assert.Equal(t, "3.5", mock.updatedIn.Price.String())
	require.NotNil(t, mock.updatedIn.Category)
	assert.Equal(t, "herbal", *mock.updatedIn.Category)
	assert.Nil(t, mock.updatedIn.Name)
	assert.Nil(t, mock.updatedIn.Stock)
	assert.Nil(t, mock.updatedIn.Image)
}

func TestProductHandler_Delete_NotFound(t *testing.T) {
	mock := &catalogMock{err: repository.ErrProductNotFound}
	handler := NewProductHandler(mock, imageStoreMock{}, 5*time.Second, discardLogger())

	req := withURLParam(httptest.NewRequest(http.MethodDelete, "/api/products/p1", nil), "id", "p1")
	w := httptest.NewRecorder()
	handler.Delete(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "product_not_found", decodeBody[ErrorResponse](t, w).Code)
}
