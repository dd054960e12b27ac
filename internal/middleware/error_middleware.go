package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/schoolmanager/internal/app/models/dto"
	"github.com/yigit/schoolmanager/internal/pkg/apperrors"
	"github.com/yigit/schoolmanager/internal/pkg/logger"
)

// HandleAPIError maps a record store error onto a status code and error envelope
func HandleAPIError(c *gin.Context, err error) {
	var recErr *apperrors.RecordError
	if errors.As(err, &recErr) {
		status, detail := recordErrorDetail(recErr)
		if status >= http.StatusInternalServerError {
			logger.Error().Err(err).Str("request_id", RequestID(c)).Msg("Request failed")
			if gin.Mode() == gin.DebugMode {
				detail.WithDebugInfo("%v", err)
			}
		}
		c.JSON(status, dto.NewErrorResponse(detail))
		return
	}

	var customErr *apperrors.CustomError
	switch {
	case errors.As(err, &customErr) && errors.Is(err, apperrors.ErrPayloadTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodePayloadTooLarge, customErr.Error()).
				WithDetails(customErr.Details)))
	case errors.As(err, &customErr) && errors.Is(err, apperrors.ErrBadRequest):
		detail := dto.NewErrorDetail(dto.ErrorCodeBadRequest, customErr.Error())
		if customErr.Details != nil {
			detail.WithDetails(customErr.Details)
		}
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(detail))
	case errors.Is(err, apperrors.ErrBadRequest):
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeBadRequest, err.Error())))
	default:
		logger.Error().Err(err).Str("request_id", RequestID(c)).Msg("Unhandled error")
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error").
				WithSeverity(dto.ErrorSeverityCritical)))
	}
}

func recordErrorDetail(e *apperrors.RecordError) (int, *dto.ErrorDetail) {
	switch e.Kind {
	case apperrors.KindMissingField, apperrors.KindTypeCoercion, apperrors.KindEmptyValue:
		return http.StatusBadRequest, dto.NewErrorDetail(dto.ErrorCodeValidationFailed, e.Error()).
			WithField(e.Field).
			WithDetails(gin.H{"kind": e.Kind})
	case apperrors.KindDuplicateValue:
		return http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeResourceAlreadyExists, e.Error()).
			WithField(e.Field).
			WithDetails(gin.H{"kind": e.Kind, "value": e.Value})
	case apperrors.KindReferential:
		return http.StatusUnprocessableEntity, dto.NewErrorDetail(dto.ErrorCodeResourceInvalid, e.Error()).
			WithField(e.Field).
			WithDetails(gin.H{"kind": e.Kind, "value": e.Value, "target": e.Target})
	case apperrors.KindNotFound:
		return http.StatusNotFound, dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, e.Error()).
			WithSeverity(dto.ErrorSeverityWarning).
			WithDetails(gin.H{"kind": e.Kind, "codigo": e.Codigo})
	case apperrors.KindUnknownCategory:
		return http.StatusNotFound, dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, e.Error()).
			WithSeverity(dto.ErrorSeverityWarning).
			WithDetails(gin.H{"kind": e.Kind})
	case apperrors.KindStorage:
		return http.StatusInternalServerError, dto.NewErrorDetail(dto.ErrorCodeStorageError, "Storage failure").
			WithSeverity(dto.ErrorSeverityCritical).
			WithDetails(gin.H{"kind": e.Kind, "category": e.Category})
	}
	return http.StatusInternalServerError, dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error")
}
