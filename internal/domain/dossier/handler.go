package dossier

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/dpi/dpi/internal/domain/compte"
	"github.com/dpi/dpi/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/creer", h.Creer, auth.RequireRole(auth.RoleAdministratif, auth.RoleMedecin))
	g.GET("/consulter/:nss", h.Consulter, auth.RequireRole(auth.RolePatient, auth.RoleMedecin))
	g.GET("/patient", h.ConsulterPatient, auth.RequireRole(auth.RolePatient))
	g.GET("/rechercher/:nss", h.Rechercher, auth.RequireRole(auth.RoleMedecin, auth.RoleInfirmier))
	g.GET("/consulter-qr/:qr", h.ConsulterQR, auth.RequireRole(auth.RoleMedecin, auth.RoleInfirmier))
	g.PATCH("/modifier/:nss", h.Modifier, auth.RequireRole(auth.RoleMedecin))
	g.DELETE("/supprimer/:nss", h.Supprimer, auth.RequireRole(auth.RoleMedecin))
}

func (h *Handler) Creer(c echo.Context) error {
	var in CreerInput
	if err := c.Bind(&in); err != nil {
		return detail(c, http.StatusBadRequest, "corps de requête invalide")
	}
	if err := c.Validate(&in); err != nil {
		return detail(c, http.StatusBadRequest, "données du DPI incomplètes ou invalides")
	}

	created, err := h.svc.Creer(c.Request().Context(), in)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) Consulter(c echo.Context) error {
	nss, err := parseNSS(c)
	if err != nil {
		return detail(c, http.StatusBadRequest, "NSS invalide")
	}
	d, err := h.svc.Consulter(c.Request().Context(), nss)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ConsulterPatient(c echo.Context) error {
	d, err := h.svc.ConsulterPatient(c.Request().Context())
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) Rechercher(c echo.Context) error {
	nss, err := parseNSS(c)
	if err != nil {
		return detail(c, http.StatusBadRequest, "NSS invalide")
	}
	d, err := h.svc.Rechercher(c.Request().Context(), nss)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"nom": d.Nom})
}

func (h *Handler) ConsulterQR(c echo.Context) error {
	d, err := h.svc.ConsulterQR(c.Request().Context(), c.Param("qr"))
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) Modifier(c echo.Context) error {
	nss, err := parseNSS(c)
	if err != nil {
		return detail(c, http.StatusBadRequest, "NSS invalide")
	}
	var in ModifierInput
	if err := c.Bind(&in); err != nil {
		return detail(c, http.StatusBadRequest, "corps de requête invalide")
	}

	updated, err := h.svc.Modifier(c.Request().Context(), nss, in)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) Supprimer(c echo.Context) error {
	nss, err := parseNSS(c)
	if err != nil {
		return detail(c, http.StatusBadRequest, "NSS invalide")
	}
	if err := h.svc.Supprimer(c.Request().Context(), nss); err != nil {
		return h.mapError(c, err)
	}
	return detail(c, http.StatusOK, "DPI supprimé avec succès.")
}

func parseNSS(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("nss"), 10, 64)
}

func (h *Handler) mapError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, ErrNSSExiste),
		errors.Is(err, compte.ErrEmailExiste),
		errors.Is(err, ErrSexeInvalide),
		errors.Is(err, ErrDateInvalide),
		errors.Is(err, ErrQRInvalide):
		return detail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrDPIIntrouvable),
		errors.Is(err, ErrDPIPatientAbsent),
		errors.Is(err, ErrMedecinIntrouvable):
		return detail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrAccesRefuse):
		return detail(c, http.StatusForbidden, err.Error())
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
