package controllers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yigit/schoolmanager/internal/app/models/dto"
	"github.com/yigit/schoolmanager/internal/app/services"
	"github.com/yigit/schoolmanager/internal/middleware"
	"github.com/yigit/schoolmanager/internal/pkg/apperrors"
)

// maxBodyBytes bounds a record payload
const maxBodyBytes = 1 << 20

// RecordController exposes the record store over HTTP. Handlers are built per
// category so one controller serves every collection.
type RecordController struct {
	recordService services.RecordService
}

// NewRecordController creates a new RecordController
func NewRecordController(recordService services.RecordService) *RecordController {
	return &RecordController{
		recordService: recordService,
	}
}

// List returns a handler listing every record of category
func (c *RecordController) List(category string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		records, err := c.recordService.List(ctx.Request.Context(), category)
		if err != nil {
			middleware.HandleAPIError(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, dto.NewSuccessResponse(records))
	}
}

// Get returns a handler fetching one record by codigo
func (c *RecordController) Get(category string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		codigo, err := parseCodigo(ctx)
		if err != nil {
			middleware.HandleAPIError(ctx, err)
			return
		}

		record, err := c.recordService.Get(ctx.Request.Context(), category, codigo)
		if err != nil {
			middleware.HandleAPIError(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, dto.NewSuccessResponse(record))
	}
}

// Insert returns a handler creating a record from the JSON body
func (c *RecordController) Insert(category string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		payload, err := bindPayload(ctx)
		if err != nil {
			middleware.HandleAPIError(ctx, err)
			return
		}

		record, err := c.recordService.Insert(ctx.Request.Context(), category, payload)
		if err != nil {
			middleware.HandleAPIError(ctx, err)
			return
		}
		ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(record))
	}
}

// Edit returns a handler replacing the fields of an existing record
func (c *RecordController) Edit(category string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		codigo, err := parseCodigo(ctx)
		if err != nil {
			middleware.HandleAPIError(ctx, err)
			return
		}
		payload, err := bindPayload(ctx)
		if err != nil {
			middleware.HandleAPIError(ctx, err)
			return
		}

		record, err := c.recordService.Edit(ctx.Request.Context(), category, codigo, payload)
		if err != nil {
			middleware.HandleAPIError(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, dto.NewSuccessResponse(record))
	}
}

// Delete returns a handler removing a record by codigo
func (c *RecordController) Delete(category string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		codigo, err := parseCodigo(ctx)
		if err != nil {
			middleware.HandleAPIError(ctx, err)
			return
		}

		record, err := c.recordService.Delete(ctx.Request.Context(), category, codigo)
		if err != nil {
			middleware.HandleAPIError(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, dto.NewSuccessResponse(record))
	}
}

func parseCodigo(ctx *gin.Context) (int64, error) {
	raw := ctx.Param("codigo")
	codigo, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || codigo < 0 {
		return 0, apperrors.NewBadRequestError(fmt.Sprintf("codigo '%s' must be a non-negative integer", raw))
	}
	return codigo, nil
}

// bindPayload decodes the body as a single JSON object, keeping numbers as json.Number
func bindPayload(ctx *gin.Context) (map[string]interface{}, error) {
	body, err := io.ReadAll(http.MaxBytesReader(ctx.Writer, ctx.Request.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperrors.NewPayloadTooLargeError(tooLarge.Limit)
		}
		return nil, apperrors.NewBadRequestError("request body could not be read")
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var payload map[string]interface{}
	if err := dec.Decode(&payload); err != nil || payload == nil {
		return nil, apperrors.NewBadRequestError("request body must be a JSON object")
	}
	if dec.More() {
		return nil, apperrors.NewBadRequestError("request body must contain a single JSON object")
	}
	return payload, nil
}
