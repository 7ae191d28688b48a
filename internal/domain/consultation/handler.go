package consultation

import (
	"errors"
	"net/http"
	"strconv"

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
	medecin := auth.RequireRole(auth.RoleMedecin)
	g.GET("", h.List, medecin)
	g.GET("/:id", h.Get, medecin)
	g.POST("/creer", h.Creer, medecin)
	g.PUT("/:id/modifier", h.Modifier, medecin)
	g.DELETE("/:id/supprimer", h.Supprimer, medecin)
	g.POST("/creerConsultationAvecOrdonnance", h.CreerAvecOrdonnance, medecin)
	g.POST("/creerConsultationAvecBilan", h.CreerAvecBilan, medecin)
	g.GET("/dpi/:nss", h.ListParNSS, auth.RequireRole(auth.RolePatient, auth.RoleMedecin))
}

func (h *Handler) List(c echo.Context) error {
	params := pagination.FromContext(c)
	consultations, total, err := h.svc.List(c.Request().Context(), params.Limit, params.Offset)
	if err != nil {
		return internal(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(consultations, total, params.Limit, params.Offset))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return detail(c, http.StatusBadRequest, "identifiant invalide")
	}
	consultation, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, consultation)
}

func (h *Handler) Creer(c echo.Context) error {
	var in CreerInput
	if err := c.Bind(&in); err != nil {
		return detail(c, http.StatusBadRequest, "corps de requête invalide")
	}
	if err := c.Validate(&in); err != nil {
		return detail(c, http.StatusBadRequest, "nss et date sont requis")
	}

	created, err := h.svc.Creer(c.Request().Context(), auth.UserIDFromContext(c.Request().Context()), in)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) Modifier(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return detail(c, http.StatusBadRequest, "identifiant invalide")
	}
	var in ModifierInput
	if err := c.Bind(&in); err != nil {
		return detail(c, http.StatusBadRequest, "corps de requête invalide")
	}

	updated, err := h.svc.Modifier(c.Request().Context(), id, in)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) Supprimer(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return detail(c, http.StatusBadRequest, "identifiant invalide")
	}
	if err := h.svc.Supprimer(c.Request().Context(), id); err != nil {
		return h.mapError(c, err)
	}
	return detail(c, http.StatusOK, "Consultation supprimée avec succès.")
}

func (h *Handler) CreerAvecOrdonnance(c echo.Context) error {
	var in AvecOrdonnanceInput
	if err := c.Bind(&in); err != nil {
		return detail(c, http.StatusBadRequest, "corps de requête invalide")
	}
	if err := c.Validate(&in); err != nil {
		return detail(c, http.StatusBadRequest, "nss et au moins un médicament sont requis")
	}

	created, err := h.svc.CreerAvecOrdonnance(c.Request().Context(), auth.UserIDFromContext(c.Request().Context()), in)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) CreerAvecBilan(c echo.Context) error {
	var in AvecBilanInput
	if err := c.Bind(&in); err != nil {
		return detail(c, http.StatusBadRequest, "corps de requête invalide")
	}
	if err := c.Validate(&in); err != nil {
		return detail(c, http.StatusBadRequest, "nss est requis")
	}

	created, err := h.svc.CreerAvecBilan(c.Request().Context(), auth.UserIDFromContext(c.Request().Context()), in)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) ListParNSS(c echo.Context) error {
	nss, err := strconv.ParseInt(c.Param("nss"), 10, 64)
	if err != nil {
		return detail(c, http.StatusBadRequest, "NSS invalide")
	}
	details, err := h.svc.ListParNSS(c.Request().Context(), nss)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, details)
}

func (h *Handler) mapError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, ErrConsultationIntrouvable),
		errors.Is(err, ErrDPIIntrouvable),
		errors.Is(err, ErrAucuneConsultation),
		errors.Is(err, ErrMedicamentInconnu):
		return detail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrAccesRefuse):
		return detail(c, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrDateInvalide), errors.Is(err, ErrStatutInvalide):
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
