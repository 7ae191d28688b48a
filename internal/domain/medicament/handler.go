package medicament

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/dpi/dpi/internal/platform/auth"
	"github.com/dpi/dpi/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	clinical := auth.RequireRole(auth.RoleMedecin, auth.RoleRadiologue, auth.RoleLaborantin, auth.RoleInfirmier)
	g.POST("/creer", h.Creer, auth.RequireRole(auth.RoleMedecin, auth.RoleAdministratif))
	g.GET("", h.List, clinical)
	g.GET("/:id", h.Get, clinical)
}

func (h *Handler) Creer(c echo.Context) error {
	var in CreerInput
	if err := c.Bind(&in); err != nil {
		return detail(c, http.StatusBadRequest, "corps de requête invalide")
	}
	if err := c.Validate(&in); err != nil {
		return detail(c, http.StatusBadRequest, "nom, code et forme sont requis")
	}

	m, err := h.svc.Creer(c.Request().Context(), in)
	if err != nil {
		if errors.Is(err, ErrMedicamentExiste) {
			return detail(c, http.StatusBadRequest, err.Error())
		}
		return internal(c, err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return detail(c, http.StatusBadRequest, "identifiant invalide")
	}
	m, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrMedicamentIntrouvable) {
			return detail(c, http.StatusNotFound, err.Error())
		}
		return internal(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) List(c echo.Context) error {
	params := pagination.FromContext(c)
	meds, total, err := h.svc.List(c.Request().Context(), params.Limit, params.Offset)
	if err != nil {
		return internal(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(meds, total, params.Limit, params.Offset))
}

func detail(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"detail": msg})
}

func internal(c echo.Context, err error) error {
	c.Logger().Error(err)
	return detail(c, http.StatusInternalServerError, "Une erreur interne s'est produite.")
}
