package signature

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/RaulNascimentoSantos/REPOMED-IA-sub002/internal/domain/documents"
	"github.com/RaulNascimentoSantos/REPOMED-IA-sub002/internal/platform/auth"
)

type signResponse struct {
	Success         bool             `json:"success"`
	SignatureID     string           `json:"signature_id"`
	DocumentID      string           `json:"document_id"`
	Hash            string           `json:"hash"`
	SignedAt        time.Time        `json:"signed_at"`
	VerificationURL string           `json:"verification_url"`
	Record          *SignatureRecord `json:"record"`
}

type Handler struct {
	svc *Service
	// verificationBaseURL prefixes the verification link returned to
	// signing callers.
	verificationBaseURL string
}

func NewHandler(svc *Service, verificationBaseURL string) *Handler {
	return &Handler{svc: svc, verificationBaseURL: verificationBaseURL}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	signGroup := api.Group("", auth.RequireRole("admin", "physician"))
	signGroup.POST("/documents/:id/sign", h.Sign)

	readGroup := api.Group("", auth.RequireRole("admin", "physician", "nurse"))
	readGroup.GET("/signatures/:id", h.Get)
	readGroup.GET("/documents/:id/signature", h.GetByDocument)
	readGroup.POST("/signatures/:id/verify", h.Verify)
}

func (h *Handler) Sign(c echo.Context) error {
	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var opts SignOptions
	if err := c.Bind(&opts); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if opts.SignerName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "signer_name is required")
	}
	if opts.SignerID == "" {
		opts.SignerID = auth.UserIDFromContext(c.Request().Context())
	}
	opts.TenantID, _ = c.Get("jwt_tenant_id").(string)
	opts.ClientIP = c.RealIP()
	opts.UserAgent = c.Request().UserAgent()

	rec, err := h.svc.SignDocument(c.Request().Context(), docID, opts)
	if err != nil {
		switch {
		case errors.Is(err, documents.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "document not found")
		case errors.Is(err, ErrAlreadySigned):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		case errors.Is(err, ErrProviderNotFound):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrProviderFailed):
			return echo.NewHTTPError(http.StatusBadGateway, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, signResponse{
		Success:         true,
		SignatureID:     rec.ID.String(),
		DocumentID:      rec.DocumentID.String(),
		Hash:            rec.HashAfter,
		SignedAt:        rec.SignedAt,
		VerificationURL: h.verificationBaseURL + "/api/v1/signatures/" + rec.ID.String() + "/verify",
		Record:          rec,
	})
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	rec, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "signature not found")
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) GetByDocument(c echo.Context) error {
	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	rec, err := h.svc.GetByDocument(c.Request().Context(), docID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "signature not found")
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) Verify(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return c.JSON(http.StatusOK, h.svc.Verify(c.Request().Context(), id))
}
