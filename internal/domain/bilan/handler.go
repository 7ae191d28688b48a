package bilan

import (
	"errors"
	"net/http"
	"strconv"
	"time"

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
	g.GET("/analyses-biologiques", h.ListAnalyses,
		auth.RequireRole(auth.RolePatient, auth.RoleMedecin, auth.RoleInfirmier))
	g.GET("/images-radiologiques", h.ListImages,
		auth.RequireRole(auth.RolePatient, auth.RoleMedecin, auth.RoleInfirmier, auth.RoleRadiologue))
	g.PATCH("/remplir-analyse-biologique", h.RemplirAnalyse, auth.RequireRole(auth.RoleLaborantin))
	g.PATCH("/remplir-image-radiologique", h.RemplirImage, auth.RequireRole(auth.RoleRadiologue))
}

func (h *Handler) ListAnalyses(c echo.Context) error {
	nss, after, err := queryFilters(c)
	if err != nil {
		return detail(c, http.StatusBadRequest, err.Error())
	}
	analyses, err := h.svc.ListAnalyses(c.Request().Context(), nss, after)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, analyses)
}

func (h *Handler) ListImages(c echo.Context) error {
	nss, after, err := queryFilters(c)
	if err != nil {
		return detail(c, http.StatusBadRequest, err.Error())
	}
	images, err := h.svc.ListImages(c.Request().Context(), nss, after)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, images)
}

func (h *Handler) RemplirAnalyse(c echo.Context) error {
	var in RemplirAnalyseInput
	if err := c.Bind(&in); err != nil {
		return detail(c, http.StatusBadRequest, "corps de requête invalide")
	}
	if err := c.Validate(&in); err != nil {
		return detail(c, http.StatusBadRequest, "id, version et au moins un résultat sont requis")
	}

	analyse, err := h.svc.RemplirAnalyse(c.Request().Context(), auth.UserIDFromContext(c.Request().Context()), in)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, analyse)
}

func (h *Handler) RemplirImage(c echo.Context) error {
	var in RemplirImageInput
	if err := c.Bind(&in); err != nil {
		return detail(c, http.StatusBadRequest, "corps de requête invalide")
	}
	if err := c.Validate(&in); err != nil {
		return detail(c, http.StatusBadRequest, "id, version, url et compte_rendu sont requis")
	}

	image, err := h.svc.RemplirImage(c.Request().Context(), auth.UserIDFromContext(c.Request().Context()), in)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, image)
}

func queryFilters(c echo.Context) (int64, *time.Time, error) {
	raw := c.QueryParam("nss")
	if raw == "" {
		return 0, nil, errors.New("Le champ NSS est obligatoire.")
	}
	nss, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, nil, errors.New("NSS invalide")
	}

	var after *time.Time
	if d := c.QueryParam("date"); d != "" {
		parsed, err := time.Parse("2006-01-02", d)
		if err != nil {
			return 0, nil, errors.New("date invalide, format attendu AAAA-MM-JJ")
		}
		after = &parsed
	}
	return nss, after, nil
}

func (h *Handler) mapError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, ErrDPIIntrouvable),
		errors.Is(err, ErrAnalyseIntrouvable),
		errors.Is(err, ErrImageIntrouvable):
		return detail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrAccesRefuse):
		return detail(c, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrDejaTermine), errors.Is(err, ErrConflitVersion):
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
