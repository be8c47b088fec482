package controllers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const imageField = "image"

// AdminProductList lists the whole catalog, newest first.
func AdminProductList(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		items, err := svc.List(r.Context(), product.ListFilter{})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// AdminProductCreate accepts a multipart product form with an optional image.
func AdminProductCreate(svc product.Service, maxUploadBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		input, cleanup, err := parseProductForm(w, r, maxUploadBytes)
		defer cleanup()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// AdminProductUpdate replaces the editable fields; the image is kept unless a new one is sent.
func AdminProductUpdate(svc product.Service, maxUploadBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		id, err := validators.PathID(r, "id", "product")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, cleanup, err := parseProductForm(w, r, maxUploadBytes)
		defer cleanup()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

// AdminProductDelete removes a product and its stored image.
func AdminProductDelete(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		id, err := validators.PathID(r, "id", "product")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func parseProductForm(w http.ResponseWriter, r *http.Request, maxUploadBytes int64) (product.ProductInput, func(), error) {
	cleanup := func() {}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return product.ProductInput{}, cleanup, pkgerrors.New(pkgerrors.CodeValidation, "upload too large")
			}
			return product.ProductInput{}, cleanup, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form")
		}
		cleanup = func() {
			if r.MultipartForm != nil {
				_ = r.MultipartForm.RemoveAll()
			}
		}
	} else if err := r.ParseForm(); err != nil {
		return product.ProductInput{}, cleanup, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid form")
	}

	price, err := validators.FormDecimal(r, "price")
	if err != nil {
		return product.ProductInput{}, cleanup, err
	}
	stock, err := validators.FormInt(r, "stock")
	if err != nil {
		return product.ProductInput{}, cleanup, err
	}
	categoryID, err := validators.FormOptionalID(r, "category_id")
	if err != nil {
		return product.ProductInput{}, cleanup, err
	}

	input := product.ProductInput{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Price:       price,
		Stock:       stock,
		CategoryID:  categoryID,
	}

	upload, err := formImage(r)
	if err != nil {
		return product.ProductInput{}, cleanup, err
	}
	if upload != nil {
		input.Image = upload
		previous := cleanup
		cleanup = func() {
			if closer, ok := upload.Body.(multipart.File); ok {
				_ = closer.Close()
			}
			previous()
		}
	}
	return input, cleanup, nil
}

// formImage returns nil when no file was attached.
func formImage(r *http.Request) (*product.ImageUpload, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	file, header, err := r.FormFile(imageField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid image upload")
	}
	if header.Size == 0 {
		_ = file.Close()
		return nil, nil
	}
	return &product.ImageUpload{Filename: header.Filename, Body: file}, nil
}
