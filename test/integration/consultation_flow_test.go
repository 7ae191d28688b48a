package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/dpi/dpi/internal/domain/bilan"
	"github.com/dpi/dpi/internal/domain/consultation"
	"github.com/dpi/dpi/internal/domain/medicament"
	"github.com/dpi/dpi/internal/platform/auth"
)

func TestConsultationWithPrescription(t *testing.T) {
	ctx := context.Background()
	resetDB(t, ctx)
	svcs := newServices()

	medecin := signupMedecin(t, ctx, svcs, "Dr Benali")
	ctx = identityCtx(ctx, medecin.ID, auth.RoleMedecin)
	d, _ := createFolder(t, ctx, svcs, 188049312345678, "")

	med, err := svcs.medicaments.Creer(ctx, medicament.CreerInput{
		Nom:   "Paracétamol",
		Code:  "N02BE01",
		Forme: "comprimé",
	})
	if err != nil {
		t.Fatalf("create medicament: %v", err)
	}

	var in consultation.AvecOrdonnanceInput
	in.NSS = d.NSS
	in.Resume = "Céphalées persistantes"
	in.Ordonnance.Medicaments = []consultation.LigneInput{
		{MedicamentID: med.ID, Dose: "500mg", Duree: "5 jours", Frequence: "3x/jour"},
	}

	cons, err := svcs.consultations.CreerAvecOrdonnance(ctx, medecin.ID, in)
	if err != nil {
		t.Fatalf("create consultation with prescription: %v", err)
	}
	if cons.DPIID != d.ID {
		t.Errorf("consultation bound to folder %s, want %s", cons.DPIID, d.ID)
	}

	details, err := svcs.consultations.ListParNSS(ctx, d.NSS)
	if err != nil {
		t.Fatalf("list by nss: %v", err)
	}
	if len(details) != 1 {
		t.Fatalf("len(details) = %d, want 1", len(details))
	}
	det := details[0]
	if det.Medecin != medecin.Nom {
		t.Errorf("medecin = %q, want %q", det.Medecin, medecin.Nom)
	}
	if det.Ordonnance == nil {
		t.Fatal("ordonnance missing from detail")
	}
	if det.Ordonnance.Statut != consultation.StatutNonValide {
		t.Errorf("ordonnance statut = %q, want %q", det.Ordonnance.Statut, consultation.StatutNonValide)
	}
	if len(det.Ordonnance.Medicaments) != 1 {
		t.Fatalf("len(medicaments) = %d, want 1", len(det.Ordonnance.Medicaments))
	}
	ligne := det.Ordonnance.Medicaments[0]
	if ligne.Nom != "Paracétamol" || ligne.Dose != "500mg" {
		t.Errorf("ligne = %+v, want Paracétamol 500mg", ligne)
	}
}

func TestConsultationWithUnknownMedicamentRollsBack(t *testing.T) {
	ctx := context.Background()
	resetDB(t, ctx)
	svcs := newServices()

	medecin := signupMedecin(t, ctx, svcs, "Dr Benali")
	ctx = identityCtx(ctx, medecin.ID, auth.RoleMedecin)
	d, _ := createFolder(t, ctx, svcs, 188049312345678, "")

	var in consultation.AvecOrdonnanceInput
	in.NSS = d.NSS
	in.Ordonnance.Medicaments = []consultation.LigneInput{
		{MedicamentID: uuid.New(), Dose: "500mg", Duree: "5 jours", Frequence: "3x/jour"},
	}

	_, err := svcs.consultations.CreerAvecOrdonnance(ctx, medecin.ID, in)
	if !errors.Is(err, consultation.ErrMedicamentInconnu) {
		t.Fatalf("err = %v, want ErrMedicamentInconnu", err)
	}

	// The whole aggregate must have been rolled back.
	if _, err := svcs.consultations.ListParNSS(ctx, d.NSS); !errors.Is(err, consultation.ErrAucuneConsultation) {
		t.Errorf("list after rollback: err = %v, want ErrAucuneConsultation", err)
	}
}

func TestConsultationWithBilanRequests(t *testing.T) {
	ctx := context.Background()
	resetDB(t, ctx)
	svcs := newServices()

	medecin := signupMedecin(t, ctx, svcs, "Dr Benali")
	ctx = identityCtx(ctx, medecin.ID, auth.RoleMedecin)
	d, _ := createFolder(t, ctx, svcs, 188049312345678, "")

	_, err := svcs.consultations.CreerAvecBilan(ctx, medecin.ID, consultation.AvecBilanInput{
		NSS:                 d.NSS,
		Resume:              "Bilan annuel",
		AnalysesBiologiques: []consultation.BilanDemande{{Type: "glycémie"}, {Type: "NFS"}},
		ImagesRadiologiques: []consultation.BilanDemande{{Type: "radio thorax"}},
	})
	if err != nil {
		t.Fatalf("create consultation with bilan: %v", err)
	}

	analyses, err := svcs.bilans.ListAnalyses(ctx, d.NSS, nil)
	if err != nil {
		t.Fatalf("list analyses: %v", err)
	}
	if len(analyses) != 2 {
		t.Fatalf("len(analyses) = %d, want 2", len(analyses))
	}
	for _, a := range analyses {
		if a.Statut != bilan.StatutPasTermine {
			t.Errorf("analyse %s statut = %q, want %q", a.ID, a.Statut, bilan.StatutPasTermine)
		}
		if a.Version != 1 {
			t.Errorf("analyse %s version = %d, want 1", a.ID, a.Version)
		}
	}

	images, err := svcs.bilans.ListImages(ctx, d.NSS, nil)
	if err != nil {
		t.Fatalf("list images: %v", err)
	}
	if len(images) != 1 {
		t.Fatalf("len(images) = %d, want 1", len(images))
	}
}

func TestAnalyseFulfillmentIsExactlyOnce(t *testing.T) {
	ctx := context.Background()
	resetDB(t, ctx)
	svcs := newServices()

	medecin := signupMedecin(t, ctx, svcs, "Dr Benali")
	ctx = identityCtx(ctx, medecin.ID, auth.RoleMedecin)
	d, _ := createFolder(t, ctx, svcs, 188049312345678, "")

	if _, err := svcs.consultations.CreerAvecBilan(ctx, medecin.ID, consultation.AvecBilanInput{
		NSS:                 d.NSS,
		AnalysesBiologiques: []consultation.BilanDemande{{Type: "glycémie"}},
	}); err != nil {
		t.Fatalf("create consultation with bilan: %v", err)
	}

	analyses, err := svcs.bilans.ListAnalyses(ctx, d.NSS, nil)
	if err != nil || len(analyses) != 1 {
		t.Fatalf("list analyses: %v, len = %d", err, len(analyses))
	}
	pending := analyses[0]
	laborantinID := signupStaff(t, ctx, svcs, "Khelifi", "laborantin").ID

	// A stale version must not complete the analysis.
	_, err = svcs.bilans.RemplirAnalyse(ctx, laborantinID, bilan.RemplirAnalyseInput{
		ID:        pending.ID,
		Version:   pending.Version + 1,
		Resultats: []bilan.ResultatInput{{Parametre: "glucose", Valeur: "0.95 g/L"}},
	})
	if !errors.Is(err, bilan.ErrConflitVersion) {
		t.Fatalf("stale version: err = %v, want ErrConflitVersion", err)
	}

	done, err := svcs.bilans.RemplirAnalyse(ctx, laborantinID, bilan.RemplirAnalyseInput{
		ID:      pending.ID,
		Version: pending.Version,
		Resultats: []bilan.ResultatInput{
			{Parametre: "glucose", Valeur: "0.95 g/L"},
			{Parametre: "hémoglobine", Valeur: "14 g/dL"},
		},
	})
	if err != nil {
		t.Fatalf("remplir analyse: %v", err)
	}
	if done.Statut != bilan.StatutTermine {
		t.Errorf("statut = %q, want %q", done.Statut, bilan.StatutTermine)
	}
	if done.LaborantinID == nil || *done.LaborantinID != laborantinID {
		t.Error("laborantin not recorded on completion")
	}
	if len(done.Resultats) != 2 || done.Resultats[0].Parametre != "glucose" {
		t.Errorf("resultats = %+v, want ordered glucose then hémoglobine", done.Resultats)
	}

	// A second completion must not re-attribute the analysis.
	autreLaborantin := signupStaff(t, ctx, svcs, "Saidi", "laborantin")
	_, err = svcs.bilans.RemplirAnalyse(ctx, autreLaborantin.ID, bilan.RemplirAnalyseInput{
		ID:        pending.ID,
		Version:   done.Version,
		Resultats: []bilan.ResultatInput{{Parametre: "glucose", Valeur: "1.10 g/L"}},
	})
	if !errors.Is(err, bilan.ErrDejaTermine) {
		t.Fatalf("second completion: err = %v, want ErrDejaTermine", err)
	}
}

func TestImageFulfillmentRecordsReport(t *testing.T) {
	ctx := context.Background()
	resetDB(t, ctx)
	svcs := newServices()

	medecin := signupMedecin(t, ctx, svcs, "Dr Benali")
	ctx = identityCtx(ctx, medecin.ID, auth.RoleMedecin)
	d, _ := createFolder(t, ctx, svcs, 188049312345678, "")

	if _, err := svcs.consultations.CreerAvecBilan(ctx, medecin.ID, consultation.AvecBilanInput{
		NSS:                 d.NSS,
		ImagesRadiologiques: []consultation.BilanDemande{{Type: "radio thorax"}},
	}); err != nil {
		t.Fatalf("create consultation with bilan: %v", err)
	}

	images, err := svcs.bilans.ListImages(ctx, d.NSS, nil)
	if err != nil || len(images) != 1 {
		t.Fatalf("list images: %v, len = %d", err, len(images))
	}

	radiologueID := signupStaff(t, ctx, svcs, "Mansouri", "radiologue").ID
	done, err := svcs.bilans.RemplirImage(ctx, radiologueID, bilan.RemplirImageInput{
		ID:          images[0].ID,
		Version:     images[0].Version,
		URL:         "https://pacs.hopital.dz/etudes/42",
		CompteRendu: "Absence d'anomalie pleuro-parenchymateuse.",
	})
	if err != nil {
		t.Fatalf("remplir image: %v", err)
	}
	if done.Statut != bilan.StatutTermine {
		t.Errorf("statut = %q, want %q", done.Statut, bilan.StatutTermine)
	}
	if done.URL == nil || *done.URL != "https://pacs.hopital.dz/etudes/42" {
		t.Error("url not recorded")
	}
	if done.RadiologueID == nil || *done.RadiologueID != radiologueID {
		t.Error("radiologue not recorded")
	}
}
