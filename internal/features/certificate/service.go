package certificate

import (
	"context"
	"errors"
	"time"

	"go-permits/internal/features/account"
	"go-permits/internal/features/notification"
	"go-permits/internal/features/permit"
	"go-permits/internal/features/sequence"

	"go.uber.org/zap"
)

var (
	ErrWrongStatus = errors.New("operation not allowed in the certificate's current status")

	ErrNotAwaitingCertificate = errors.New("permit is not awaiting certificate creation")
)

// PermitWorkflow is the slice of the permit state machine the certificate
// lifecycle drives.
type PermitWorkflow interface {
	GetPermit(ctx context.Context, id string) (*permit.Permit, error)
	OnCertificateCreated(ctx context.Context, id, actorID string) (*permit.Permit, error)
	MarkPendingRelease(ctx context.Context, id, actorID string) (*permit.Permit, error)
	ReleasePermit(ctx context.Context, id, actorID string) (*permit.Permit, error)
	ExpirePermit(ctx context.Context, id string) error
}

type GenerateInput struct {
	ApplicationID string     `json:"application_id"`
	UploadedFile  string     `json:"uploaded_file"`
	ExpiryDate    *time.Time `json:"expiry_date"`
}

type CertificateService interface {
	GenerateCertificate(ctx context.Context, input GenerateInput, actorID string) (*Certificate, error)
	GetCertificate(ctx context.Context, id string) (*Certificate, error)
	GetByApplication(ctx context.Context, applicationID string) (*Certificate, error)
	ListCertificates(ctx context.Context, status Status) ([]Certificate, error)

	UploadCertificate(ctx context.Context, id, file, actorID string) (*Certificate, error)
	SignCertificate(ctx context.Context, id, actorID string) (*Certificate, error)
	ReleaseCertificate(ctx context.Context, id, actorID string) (*Certificate, error)

	// SweepExpired marks overdue certificates and their permits Expired.
	// Per-record failures are logged and skipped; the pass is idempotent.
	SweepExpired(ctx context.Context) (int, error)
}

type CertificateServiceImpl struct {
	repo      CertificateRepository
	permits   PermitWorkflow
	generator sequence.Generator
	router    notification.Router
	logger    *zap.Logger
}

func NewCertificateService(repo CertificateRepository, permits PermitWorkflow, generator sequence.Generator, router notification.Router, logger *zap.Logger) CertificateService {
	return &CertificateServiceImpl{
		repo:      repo,
		permits:   permits,
		generator: generator,
		router:    router,
		logger:    logger,
	}
}

// GenerateCertificate mints the certificate number and flips the permit's
// creation gates. The number is minted before the insert; a generator failure
// aborts the whole creation.
func (s *CertificateServiceImpl) GenerateCertificate(ctx context.Context, input GenerateInput, actorID string) (*Certificate, error) {
	target, err := s.permits.GetPermit(ctx, input.ApplicationID)
	if err != nil {
		return nil, err
	}
	if !target.Gates.AwaitingPermitCreation {
		return nil, ErrNotAwaitingCertificate
	}

	certificateNo, err := s.generator.NextCertificateNumber(ctx, string(target.ApplicationType), time.Now())
	if err != nil {
		return nil, err
	}

	certificate := &Certificate{
		CertificateNo:   certificateNo,
		ApplicationID:   target.ID,
		ApplicationType: target.ApplicationType,
		UploadedFile:    input.UploadedFile,
		Status:          StatusPendingSignature,
		ExpiryDate:      input.ExpiryDate,
	}
	if err := s.repo.Create(ctx, certificate); err != nil {
		return nil, err
	}

	if _, err := s.permits.OnCertificateCreated(ctx, input.ApplicationID, actorID); err != nil {
		if delErr := s.repo.Delete(ctx, certificate.ID); delErr != nil {
			s.logger.Error("orphaned certificate after gate failure",
				zap.String("certificateId", certificate.ID.Hex()),
				zap.Error(delErr))
		}
		return nil, err
	}

	s.fire(ctx, func() error {
		return s.router.NotifyRole(ctx, account.RolePENRCENROfficer, notification.EventCertificateCreated, notification.Metadata{
			ApplicationID:  target.ID.Hex(),
			Reference:      certificateNo,
			ActionRequired: true,
		})
	})
	return certificate, nil
}

func (s *CertificateServiceImpl) GetCertificate(ctx context.Context, id string) (*Certificate, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *CertificateServiceImpl) GetByApplication(ctx context.Context, applicationID string) (*Certificate, error) {
	target, err := s.permits.GetPermit(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	return s.repo.GetByApplication(ctx, target.ID)
}

func (s *CertificateServiceImpl) ListCertificates(ctx context.Context, status Status) ([]Certificate, error) {
	return s.repo.List(ctx, status)
}

func (s *CertificateServiceImpl) UploadCertificate(ctx context.Context, id, file, actorID string) (*Certificate, error) {
	certificate, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if certificate.Status != StatusPendingSignature {
		return nil, ErrWrongStatus
	}
	if file == "" {
		return nil, errors.New("certificate file is empty")
	}

	certificate.UploadedFile = file
	if err := s.repo.Update(ctx, certificate); err != nil {
		return nil, err
	}
	return certificate, nil
}

// SignCertificate marks the certificate signed and queues the permit for
// release.
func (s *CertificateServiceImpl) SignCertificate(ctx context.Context, id, actorID string) (*Certificate, error) {
	certificate, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if certificate.Status != StatusPendingSignature {
		return nil, ErrWrongStatus
	}

	if _, err := s.permits.MarkPendingRelease(ctx, certificate.ApplicationID.Hex(), actorID); err != nil {
		return nil, err
	}

	now := time.Now()
	certificate.Status = StatusSigned
	certificate.SignedBy = actorID
	certificate.IssuedAt = &now
	if err := s.repo.Update(ctx, certificate); err != nil {
		return nil, err
	}
	return certificate, nil
}

func (s *CertificateServiceImpl) ReleaseCertificate(ctx context.Context, id, actorID string) (*Certificate, error) {
	certificate, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if certificate.Status != StatusSigned {
		return nil, ErrWrongStatus
	}

	if _, err := s.permits.ReleasePermit(ctx, certificate.ApplicationID.Hex(), actorID); err != nil {
		return nil, err
	}

	certificate.Status = StatusReleased
	if err := s.repo.Update(ctx, certificate); err != nil {
		return nil, err
	}
	return certificate, nil
}

// SweepExpired is the periodic expiration pass. A certificate expires when
// its expiry date has passed or its permit is already Expired. Records
// already Expired are never touched, so re-runs are free of side effects.
func (s *CertificateServiceImpl) SweepExpired(ctx context.Context) (int, error) {
	active, err := s.repo.ListActive(ctx)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	expired := 0
	for i := range active {
		certificate := &active[i]

		overdue := certificate.ExpiryDate != nil && certificate.ExpiryDate.Before(now)
		if !overdue {
			target, err := s.permits.GetPermit(ctx, certificate.ApplicationID.Hex())
			if err != nil {
				s.logger.Warn("sweep: cannot load permit",
					zap.String("certificateId", certificate.ID.Hex()),
					zap.Error(err))
				continue
			}
			overdue = target.Status == permit.StatusExpired
		}
		if !overdue {
			continue
		}

		certificate.Status = StatusExpired
		if err := s.repo.Update(ctx, certificate); err != nil {
			s.logger.Warn("sweep: cannot expire certificate",
				zap.String("certificateId", certificate.ID.Hex()),
				zap.Error(err))
			continue
		}

		if err := s.permits.ExpirePermit(ctx, certificate.ApplicationID.Hex()); err != nil {
			s.logger.Warn("sweep: cannot expire permit",
				zap.String("applicationId", certificate.ApplicationID.Hex()),
				zap.Error(err))
		}
		expired++
	}
	return expired, nil
}

func (s *CertificateServiceImpl) fire(ctx context.Context, notify func() error) {
	if err := notify(); err != nil {
		s.logger.Error("notification dispatch failed", zap.Error(err))
	}
}
