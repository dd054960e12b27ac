package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yigit/schoolmanager/internal/app/models/dto"
	"github.com/yigit/schoolmanager/internal/app/repositories"
	"github.com/yigit/schoolmanager/internal/app/schema"
	"github.com/yigit/schoolmanager/internal/app/services"
	"github.com/yigit/schoolmanager/internal/middleware"
	"github.com/yigit/schoolmanager/internal/pkg/apperrors"
)

// Greeting is served at the root path
const Greeting = "Hello from School Manager!"

// SystemController serves the greeting, health and schema endpoints
type SystemController struct {
	repo    repositories.CollectionRepository
	backend string
}

// NewSystemController creates a new SystemController
func NewSystemController(repo repositories.CollectionRepository, backend string) *SystemController {
	return &SystemController{
		repo:    repo,
		backend: backend,
	}
}

// Root writes the plain-text greeting
func (c *SystemController) Root(ctx *gin.Context) {
	ctx.String(http.StatusOK, Greeting)
}

// Health reports whether the storage backend answers
func (c *SystemController) Health(ctx *gin.Context) {
	probeCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	if _, err := c.repo.Load(probeCtx, services.SequenceCollection); err != nil {
		middleware.HandleAPIError(ctx, apperrors.NewStorageError(services.SequenceCollection, err))
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.HealthResponse{
		Status:  "ok",
		Backend: c.backend,
	}))
}

// Schema dumps the category registry
func (c *SystemController) Schema(ctx *gin.Context) {
	all := schema.All()
	out := make([]dto.CategorySchema, 0, len(all))
	for _, sch := range all {
		fields := make([]dto.FieldSchema, 0, len(sch.Fields))
		for _, f := range sch.Fields {
			fields = append(fields, dto.FieldSchema{
				Name:       f.Name,
				Type:       string(f.Type),
				Unique:     f.Unique,
				References: string(f.References),
			})
		}
		out = append(out, dto.CategorySchema{Category: string(sch.Category), Fields: fields})
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(out))
}
