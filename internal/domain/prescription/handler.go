package prescription

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/RaulNascimentoSantos/REPOMED-IA-sub002/internal/platform/auth"
)

type Handler struct {
	engine *Engine
}

func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("admin", "physician"))
	g.POST("/prescriptions/validate", h.Validate)
}

type validateRequest struct {
	Medications []Medication `json:"medications"`
	Patient     PatientInfo  `json:"patient"`
}

func (h *Handler) Validate(c echo.Context) error {
	var req validateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(req.Medications) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "medications are required")
	}

	tenantID, _ := c.Get("jwt_tenant_id").(string)
	rc := &RequestContext{
		TenantID: tenantID,
		UserID:   auth.UserIDFromContext(c.Request().Context()),
		Patient:  req.Patient,
	}

	result := h.engine.Validate(c.Request().Context(), &Prescription{
		PatientID:   req.Patient.ID,
		Medications: req.Medications,
	}, rc)
	return c.JSON(http.StatusOK, result)
}
