package http

import (
	"context"
	"errors"

	apierrors "salespulse/internal/errors"
	"salespulse/internal/services"
)

// mapServiceError turns service sentinels into API errors. Typed errors and
// context cancellation pass through for the ErrorHandler to classify;
// anything else is reported as a failure of op.
func mapServiceError(op string, err error) error {
	switch {
	case errors.Is(err, services.ErrNoFilesUploaded):
		return apierrors.ErrNoFiles
	case errors.Is(err, services.ErrNothingParsed):
		return apierrors.ErrNothingParsed
	case errors.Is(err, services.ErrNoData):
		return apierrors.ErrNoData
	case errors.Is(err, services.ErrReportUnavailable):
		return apierrors.ErrServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}

	var apiErr *apierrors.APIError
	var appErr *apierrors.AppError
	if errors.As(err, &apiErr) || errors.As(err, &appErr) {
		return err
	}
	if op == "report" {
		return apierrors.ReportFailure(err)
	}
	return apierrors.StorageFailure(op, err)
}
