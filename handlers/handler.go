// Package handlers implements the HTTP endpoints of the storefront.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopnest/shopnest-backend-go/identity"
	"github.com/shopnest/shopnest-backend-go/media"
	"github.com/shopnest/shopnest-backend-go/services"
	"github.com/shopnest/shopnest-backend-go/store"
	"github.com/shopnest/shopnest-backend-go/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Handler struct {
	store     *store.Store
	orders    *services.OrderService
	dashboard *services.Dashboard
	catalog   *services.Catalog
	identity  identity.Provider
	uploader  media.Uploader
	logger    *slog.Logger
	timeout   time.Duration
	now       func() time.Time
}

type Options struct {
	Store     *store.Store
	Orders    *services.OrderService
	Dashboard *services.Dashboard
	Catalog   *services.Catalog
	Identity  identity.Provider
	Uploader  media.Uploader
	Logger    *slog.Logger
	Timeout   time.Duration
}

func New(o Options) *Handler {
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	return &Handler{
		store:     o.Store,
		orders:    o.Orders,
		dashboard: o.Dashboard,
		catalog:   o.Catalog,
		identity:  o.Identity,
		uploader:  o.Uploader,
		logger:    o.Logger,
		timeout:   o.Timeout,
		now:       time.Now,
	}
}

func (h *Handler) context(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), h.timeout)
}

// Health reports liveness.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func objectID(raw, label string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, utils.BadRequest(fmt.Sprintf("Invalid %s ID format", label))
	}
	return id, nil
}

func pageOf(c echo.Context) utils.Page {
	return utils.ParsePage(c.QueryParam("page"), c.QueryParam("pageSize"))
}

// notFound maps a store miss to a 404 with message and passes other errors through.
func notFound(err error, message string) error {
	if errors.Is(err, store.ErrNotFound) {
		return utils.NotFound(message)
	}
	return err
}

// bindAndValidate binds the request body into req and runs its validate tags.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return utils.BadRequest("Invalid request format")
	}
	return c.Validate(req)
}

// uploadImage forwards the named multipart file to the image host. It returns
// "" when the field is absent and required is false.
func (h *Handler) uploadImage(ctx context.Context, c echo.Context, field string, required bool) (string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			if required {
				return "", utils.BadRequest(fmt.Sprintf("%s is required", field))
			}
			return "", nil
		}
		return "", utils.BadRequest("Invalid multipart form")
	}
	file, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	url, err := h.uploader.Upload(ctx, file)
	if errors.Is(err, media.ErrNotConfigured) {
		return "", utils.NewAppError(http.StatusServiceUnavailable, "Image uploads are not available")
	}
	if err != nil {
		return "", err
	}
	return url, nil
}

// filterValue treats "" and "all" as no filter.
func filterValue(raw string) (string, bool) {
	if raw == "" || raw == "all" {
		return "", false
	}
	return raw, true
}
