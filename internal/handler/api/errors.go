package api

import (
	"errors"

	"LottoStats/internal/domain/models"
	"LottoStats/internal/usecase"
	xhttp "LottoStats/pkg/http"
)

// toAppError maps domain errors onto HTTP application errors.
func toAppError(err error) *xhttp.AppError {
	var appErr *xhttp.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var verr *models.ValidationError
	var nerr *models.NotFoundError
	var cerr *models.ComputationError
	switch {
	case errors.As(err, &verr):
		return xhttp.FieldError(verr.Field, verr.Reason).WithError(err)
	case errors.As(err, &nerr):
		return xhttp.NotFoundError(nerr.Error()).WithParam("kind", nerr.Kind).WithError(err)
	case errors.As(err, &cerr):
		return xhttp.UnprocessableError(cerr.Error()).WithError(err)
	case errors.Is(err, models.ErrAlreadyEnriched), errors.Is(err, usecase.ErrSyncInProgress):
		return xhttp.ConflictError(err.Error()).WithError(err)
	default:
		return xhttp.InternalError("Something went wrong").WithError(err)
	}
}
