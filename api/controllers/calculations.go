package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/mathmindlabs/mathmind-backend/api/middleware"
	"github.com/mathmindlabs/mathmind-backend/api/responses"
	"github.com/mathmindlabs/mathmind-backend/api/validators"
	"github.com/mathmindlabs/mathmind-backend/internal/calculations"
	pkgerrors "github.com/mathmindlabs/mathmind-backend/pkg/errors"
	"github.com/mathmindlabs/mathmind-backend/pkg/logger"
	"github.com/mathmindlabs/mathmind-backend/pkg/pagination"
)

// CalculationService is the surface the calculation controllers depend on.
type CalculationService interface {
	Save(ctx context.Context, userID int64, dto calculations.SaveCalculationDTO) (*calculations.CalculationDTO, error)
	List(ctx context.Context, userID int64, params pagination.Params) (*calculations.CalculationList, error)
}

// CalculationSave appends one entry to the caller's calculation history.
func CalculationSave(svc CalculationService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "calculation service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		if userID <= 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		var body calculations.SaveCalculationDTO
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		saved, err := svc.Save(r.Context(), userID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, saved)
	}
}

// CalculationList returns one page of the caller's history, newest first.
func CalculationList(svc CalculationService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "calculation service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		if userID <= 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		page, err := svc.List(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}
