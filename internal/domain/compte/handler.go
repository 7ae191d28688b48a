package compte

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

// RegisterRoutes mounts the comptes endpoints. Signup, login and refresh are
// public; the lookups require an authenticated staff role.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/signup", h.Signup)
	g.POST("/login", h.Login)
	g.POST("/refresh", h.Refresh)
	g.GET("/utilisateurs/:id", h.GetUtilisateur, auth.RequireRole(auth.RoleMedecin))
	g.GET("/medecins", h.ListMedecins, auth.RequireRole(auth.RoleAdministratif, auth.RoleMedecin))
}

type loginRequest struct {
	Email      string `json:"email" validate:"required,email"`
	MotDePasse string `json:"mot_de_passe" validate:"required"`
}

type refreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

func (h *Handler) Signup(c echo.Context) error {
	var in SignupInput
	if err := c.Bind(&in); err != nil {
		return detail(c, http.StatusBadRequest, "corps de requête invalide")
	}
	if err := c.Validate(&in); err != nil {
		return detail(c, http.StatusBadRequest, "données d'inscription invalides")
	}

	u, err := h.svc.Signup(c.Request().Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmailExiste),
			errors.Is(err, ErrSpecialiteInvalide),
			errors.Is(err, auth.ErrRoleInconnu):
			return detail(c, http.StatusBadRequest, err.Error())
		default:
			return internal(c, err)
		}
	}
	return c.JSON(http.StatusCreated, u)
}

func (h *Handler) Login(c echo.Context) error {
	var in loginRequest
	if err := c.Bind(&in); err != nil {
		return detail(c, http.StatusBadRequest, "corps de requête invalide")
	}
	if err := c.Validate(&in); err != nil {
		return detail(c, http.StatusBadRequest, "email et mot de passe requis")
	}

	pair, u, err := h.svc.Login(c.Request().Context(), in.Email, in.MotDePasse)
	if err != nil {
		if errors.Is(err, ErrIdentifiantsInvalides) {
			return detail(c, http.StatusUnauthorized, err.Error())
		}
		return internal(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"access":  pair.Access,
		"refresh": pair.Refresh,
		"role":    u.Role,
		"user_id": u.ID,
	})
}

func (h *Handler) Refresh(c echo.Context) error {
	var in refreshRequest
	if err := c.Bind(&in); err != nil || in.Refresh == "" {
		return detail(c, http.StatusBadRequest, "jeton de rafraîchissement requis")
	}
	pair, err := h.svc.Refresh(in.Refresh)
	if err != nil {
		return detail(c, http.StatusUnauthorized, "jeton de rafraîchissement invalide")
	}
	return c.JSON(http.StatusOK, pair)
}

func (h *Handler) GetUtilisateur(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return detail(c, http.StatusBadRequest, "identifiant invalide")
	}
	u, err := h.svc.GetUtilisateur(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrUtilisateurIntrouvable) {
			return detail(c, http.StatusNotFound, err.Error())
		}
		return internal(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) ListMedecins(c echo.Context) error {
	params := pagination.FromContext(c)
	medecins, total, err := h.svc.ListMedecins(c.Request().Context(), params.Limit, params.Offset)
	if err != nil {
		return internal(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(medecins, total, params.Limit, params.Offset))
}

// detail writes the uniform {"detail": ...} error envelope.
func detail(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"detail": msg})
}

func internal(c echo.Context, err error) error {
	c.Logger().Error(err)
	return detail(c, http.StatusInternalServerError, "Une erreur interne s'est produite.")
}
