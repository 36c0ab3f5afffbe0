package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wanderio/tourbooking/internal/domain"
	"github.com/wanderio/tourbooking/internal/service/catalog"
)

type CatalogHandler struct {
	service catalog.CatalogUseCase
}

func NewCatalogHandler(service catalog.CatalogUseCase) *CatalogHandler {
	return &CatalogHandler{service: service}
}

func (h *CatalogHandler) Register(router *gin.RouterGroup) {
	router.GET("/tours", h.listTours)
	router.GET("/tours/:id", h.getTour)
	router.GET("/packages", h.listPackages)
	router.GET("/packages/:id", h.getPackage)
}

func (h *CatalogHandler) listTours(c *gin.Context) {
	subjects, err := h.service.ListTours(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, subjects)
}

func (h *CatalogHandler) listPackages(c *gin.Context) {
	subjects, err := h.service.ListPackages(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, subjects)
}

func (h *CatalogHandler) getTour(c *gin.Context) {
	h.getSubject(c, domain.SubjectKindTour)
}

func (h *CatalogHandler) getPackage(c *gin.Context) {
	h.getSubject(c, domain.SubjectKindPackage)
}

func (h *CatalogHandler) getSubject(c *gin.Context, kind domain.SubjectKind) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	subject, err := h.service.GetSubject(c.Request.Context(), domain.SubjectRef{Kind: kind, ID: id})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, subject)
}
