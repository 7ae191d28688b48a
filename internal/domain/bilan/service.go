package bilan

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/dpi/dpi/internal/platform/auth"
	"github.com/dpi/dpi/internal/platform/db"
)

var (
	ErrDPIIntrouvable     = errors.New("DPI non trouvé avec ce NSS")
	ErrAnalyseIntrouvable = errors.New("analyse biologique non trouvée")
	ErrImageIntrouvable   = errors.New("image radiologique non trouvée")
	ErrAccesRefuse        = errors.New("accès refusé")
	ErrDejaTermine        = errors.New("ce bilan est déjà terminé")
	ErrConflitVersion     = errors.New("le bilan a été modifié par un autre utilisateur, veuillez réessayer")
)

type ResultatInput struct {
	Parametre string `json:"parametre" validate:"required"`
	Valeur    string `json:"valeur" validate:"required"`
}

type RemplirAnalyseInput struct {
	ID        uuid.UUID       `json:"id" validate:"required"`
	Version   int             `json:"version" validate:"required"`
	Resultats []ResultatInput `json:"resultats" validate:"required,min=1,dive"`
}

type RemplirImageInput struct {
	ID          uuid.UUID `json:"id" validate:"required"`
	Version     int       `json:"version" validate:"required"`
	URL         string    `json:"url" validate:"required"`
	CompteRendu string    `json:"compte_rendu" validate:"required"`
}

type Service struct {
	repo  Repository
	runTx db.TxRunner
	log   zerolog.Logger
}

func NewService(repo Repository, runTx db.TxRunner, log zerolog.Logger) *Service {
	return &Service{repo: repo, runTx: runTx, log: log.With().Str("component", "bilan").Logger()}
}

// CreerDemandeAnalyse records a pending lab request. Called by the
// consultation composite inside its transaction.
func (s *Service) CreerDemandeAnalyse(ctx context.Context, consultationID uuid.UUID, typ string) error {
	_, err := s.repo.CreateAnalyse(ctx, consultationID, typ)
	return err
}

// CreerDemandeImage records a pending imaging request.
func (s *Service) CreerDemandeImage(ctx context.Context, consultationID uuid.UUID, typ string) error {
	_, err := s.repo.CreateImage(ctx, consultationID, typ)
	return err
}

// ListAnalyses returns a folder's analyses, optionally only those of
// consultations strictly after the given date. Patients see only their own
// folder.
func (s *Service) ListAnalyses(ctx context.Context, nss int64, after *time.Time) ([]*AnalyseBiologique, error) {
	ref, err := s.ownedDossier(ctx, nss)
	if err != nil {
		return nil, err
	}
	analyses, err := s.repo.ListAnalysesByDPI(ctx, ref.ID, after)
	if err != nil {
		return nil, err
	}
	if analyses == nil {
		analyses = []*AnalyseBiologique{}
	}
	return analyses, nil
}

func (s *Service) ListImages(ctx context.Context, nss int64, after *time.Time) ([]*ImageRadiologique, error) {
	ref, err := s.ownedDossier(ctx, nss)
	if err != nil {
		return nil, err
	}
	images, err := s.repo.ListImagesByDPI(ctx, ref.ID, after)
	if err != nil {
		return nil, err
	}
	if images == nil {
		images = []*ImageRadiologique{}
	}
	return images, nil
}

// RemplirAnalyse completes a pending lab request exactly once. The version
// check rejects concurrent completions; a request already terminé keeps its
// original laborantin attribution.
func (s *Service) RemplirAnalyse(ctx context.Context, laborantinID uuid.UUID, in RemplirAnalyseInput) (*AnalyseBiologique, error) {
	var completed *AnalyseBiologique
	err := s.runTx(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetAnalyse(ctx, in.ID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrAnalyseIntrouvable
			}
			return err
		}
		if current.Statut == StatutTermine {
			return ErrDejaTermine
		}

		ok, err := s.repo.CompleteAnalyse(ctx, in.ID, in.Version, laborantinID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrConflitVersion
		}

		resultats := make([]ResultatAnalyse, len(in.Resultats))
		for i, res := range in.Resultats {
			resultats[i] = ResultatAnalyse{Position: i, Parametre: res.Parametre, Valeur: res.Valeur}
		}
		if err := s.repo.InsertResultats(ctx, in.ID, resultats); err != nil {
			return err
		}

		completed, err = s.repo.GetAnalyse(ctx, in.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("analyse_id", in.ID.String()).Str("laborantin_id", laborantinID.String()).Msg("analyse biologique remplie")
	return completed, nil
}

// RemplirImage completes a pending imaging request with the same
// exactly-once semantics as RemplirAnalyse.
func (s *Service) RemplirImage(ctx context.Context, radiologueID uuid.UUID, in RemplirImageInput) (*ImageRadiologique, error) {
	var completed *ImageRadiologique
	err := s.runTx(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetImage(ctx, in.ID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrImageIntrouvable
			}
			return err
		}
		if current.Statut == StatutTermine {
			return ErrDejaTermine
		}

		ok, err := s.repo.CompleteImage(ctx, in.ID, in.Version, radiologueID, in.URL, in.CompteRendu)
		if err != nil {
			return err
		}
		if !ok {
			return ErrConflitVersion
		}

		completed, err = s.repo.GetImage(ctx, in.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("image_id", in.ID.String()).Str("radiologue_id", radiologueID.String()).Msg("image radiologique remplie")
	return completed, nil
}

func (s *Service) ownedDossier(ctx context.Context, nss int64) (*DossierRef, error) {
	ref, err := s.repo.GetDossierByNSS(ctx, nss)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDPIIntrouvable
		}
		return nil, err
	}
	if auth.RoleFromContext(ctx) == auth.RolePatient && auth.UserIDFromContext(ctx) != ref.PatientID {
		return nil, ErrAccesRefuse
	}
	return ref, nil
}
