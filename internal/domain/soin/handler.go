package soin

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/dpi/dpi/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/dpi/:nss", h.ListParNSS,
		auth.RequireRole(auth.RoleInfirmier, auth.RolePatient, auth.RoleMedecin))
	g.POST("/ajouter", h.Ajouter, auth.RequireRole(auth.RoleInfirmier))
	g.DELETE("/supprimer/:id", h.Supprimer, auth.RequireRole(auth.RoleInfirmier))
}

func (h *Handler) ListParNSS(c echo.Context) error {
	nss, err := strconv.ParseInt(c.Param("nss"), 10, 64)
	if err != nil {
		return detail(c, http.StatusBadRequest, "NSS invalide")
	}
	soins, err := h.svc.ListParNSS(c.Request().Context(), nss)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, soins)
}

func (h *Handler) Ajouter(c echo.Context) error {
	var in AjouterInput
	if err := c.Bind(&in); err != nil {
		return detail(c, http.StatusBadRequest, "corps de requête invalide")
	}
	if err := c.Validate(&in); err != nil {
		return detail(c, http.StatusBadRequest, "nss et soins sont requis")
	}

	record, err := h.svc.Ajouter(c.Request().Context(), auth.UserIDFromContext(c.Request().Context()), in)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusCreated, record)
}

func (h *Handler) Supprimer(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return detail(c, http.StatusBadRequest, "identifiant invalide")
	}
	if err := h.svc.Supprimer(c.Request().Context(), id); err != nil {
		return h.mapError(c, err)
	}
	return detail(c, http.StatusOK, "Soin supprimé avec succès.")
}

func (h *Handler) mapError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, ErrDPIIntrouvable), errors.Is(err, ErrSoinIntrouvable):
		return detail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrAccesRefuse):
		return detail(c, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrDateInvalide):
		return detail(c, http.StatusBadRequest, err.Error())
	default:
		return internal(c, err)
	}
}

func detail(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"detail": msg})
}

func internal(c echo.Context, err error) error {
	c.Logger().Error(err)
	return detail(c, http.StatusInternalServerError, "Une erreur interne s'est produite.")
}
