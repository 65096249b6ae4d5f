package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mikhel0k/JurBot/internal/config"
	"github.com/mikhel0k/JurBot/internal/domain"
	"github.com/mikhel0k/JurBot/internal/http/middleware"
	"github.com/mikhel0k/JurBot/internal/service"
)

// CompanyHandler exposes CRUD over the authenticated user's company.
type CompanyHandler struct {
	Companies *service.CompanyService
	Cfg       config.Config
}

func NewCompanyHandler(companies *service.CompanyService, cfg config.Config) *CompanyHandler {
	return &CompanyHandler{Companies: companies, Cfg: cfg}
}

// Create registers a company for the current user. The access cookie is
// replaced so subsequent requests carry the company claim.
func (h *CompanyHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		respondError(c, domain.ErrUnauthorized)
		return
	}

	var req struct {
		Name    string `json:"name" binding:"required"`
		INN     string `json:"inn" binding:"required"`
		SNILS   string `json:"snils" binding:"required"`
		Address string `json:"address" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c)
		return
	}

	company, access, err := h.Companies.Create(c.Request.Context(), userID, domain.Company{
		Name:    req.Name,
		INN:     req.INN,
		SNILS:   req.SNILS,
		Address: req.Address,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	middleware.SetAccessCookie(c, access, h.Cfg)
	c.JSON(http.StatusOK, company)
}

// Get returns the current user's company.
func (h *CompanyHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		respondError(c, domain.ErrUnauthorized)
		return
	}

	company, err := h.Companies.Get(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, company)
}

// Update applies a partial update to the current user's company.
func (h *CompanyHandler) Update(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		respondError(c, domain.ErrUnauthorized)
		return
	}

	var req domain.CompanyUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c)
		return
	}

	company, err := h.Companies.Update(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, company)
}
