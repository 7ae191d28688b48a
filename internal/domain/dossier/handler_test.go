package dossier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/dpi/dpi/internal/platform/auth"
	"github.com/dpi/dpi/internal/platform/validation"
)

func testEcho(repo *mockRepo, users *mockUsers) (*echo.Echo, *Service) {
	e := echo.New()
	e.Validator = validation.New()
	svc := testService(repo, users)
	NewHandler(svc).RegisterRoutes(e.Group("/api/v1/dpi"))
	return e, svc
}

func asRole(req *http.Request, role auth.Role) *http.Request {
	ctx := context.WithValue(req.Context(), auth.RoleKey, role)
	return req.WithContext(ctx)
}

const creerBody = `{
	"nss": 123456789,
	"nom": "Amrani",
	"date_naissance": "1988-04-12",
	"telephone": "0550123456",
	"adresse": "12 rue des Oliviers, Alger",
	"mutuelle": "CNAS",
	"sexe": "F",
	"patient_nom": "Amrani",
	"patient_email": "amrani@mail.dz",
	"patient_password": "motdepasse1"
}`

func TestHandlerCreer(t *testing.T) {
	e, _ := testEcho(newMockRepo(), newMockUsers())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/dpi/creer", strings.NewReader(creerBody))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req = asRole(req, auth.RoleAdministratif)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestHandlerCreer_RoleRefuse(t *testing.T) {
	e, _ := testEcho(newMockRepo(), newMockUsers())

	for _, role := range []auth.Role{auth.RolePatient, auth.RoleInfirmier, auth.RoleLaborantin, auth.RoleRadiologue} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/dpi/creer", strings.NewReader(creerBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		req = asRole(req, role)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Errorf("role %s: status = %d, want 403", role, rec.Code)
		}
	}
}

func TestHandlerCreer_NSSExiste(t *testing.T) {
	repo := newMockRepo()
	users := newMockUsers()
	e, svc := testEcho(repo, users)

	if _, err := svc.Creer(context.Background(), validInput()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/dpi/creer", strings.NewReader(creerBody))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req = asRole(req, auth.RoleMedecin)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "existe déjà") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestHandlerRechercher(t *testing.T) {
	repo := newMockRepo()
	users := newMockUsers()
	e, svc := testEcho(repo, users)

	if _, err := svc.Creer(context.Background(), validInput()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dpi/rechercher/123456789", nil)
	req = asRole(req, auth.RoleInfirmier)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if resp["nom"] != "Amrani" {
		t.Errorf("nom = %q", resp["nom"])
	}
}

func TestHandlerRechercher_Introuvable(t *testing.T) {
	e, _ := testEcho(newMockRepo(), newMockUsers())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dpi/rechercher/999999998", nil)
	req = asRole(req, auth.RoleMedecin)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "non trouvé") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestHandlerConsulterQR(t *testing.T) {
	repo := newMockRepo()
	users := newMockUsers()
	e, svc := testEcho(repo, users)

	if _, err := svc.Creer(context.Background(), validInput()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dpi/consulter-qr/123456789", nil)
	req = asRole(req, auth.RoleMedecin)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}
