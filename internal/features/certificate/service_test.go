package certificate

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"go-permits/internal/config"
	"go-permits/internal/features/account"
	"go-permits/internal/features/notification"
	"go-permits/internal/features/permit"
	"go-permits/internal/features/sequence"
)

type fixture struct {
	svc           CertificateService
	permits       permit.PermitService
	repo          *InMemory
	notifications *notification.InMemory
	applicantID   primitive.ObjectID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	accounts := account.NewInMemory()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	personnel := []account.Role{
		account.RoleTechnicalStaff,
		account.RoleReceivingClerk,
		account.RoleChiefRPS,
		account.RolePENRCENROfficer,
		account.RoleReleasingClerk,
	}
	for i, role := range personnel {
		acc := account.Account{
			ID:        primitive.NewObjectID(),
			Username:  fmt.Sprintf("user%d", i),
			UserType:  account.UserTypePersonnel,
			Roles:     []account.Role{role},
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, accounts.Create(context.Background(), &acc))
	}

	applicant := account.Account{
		ID:       primitive.NewObjectID(),
		Username: "applicant",
		UserType: account.UserTypeClient,
	}
	require.NoError(t, accounts.Create(context.Background(), &applicant))

	notifications := notification.NewInMemory()
	router := notification.NewRouter(notifications, accounts, notification.NewMemoryBus(), zap.NewNop())
	generator := sequence.NewGenerator(sequence.NewInMemory(), &config.Config{OfficeCode: "PMDQ"})
	permits := permit.NewPermitService(permit.NewInMemoryRepository(), generator, router, zap.NewNop())
	repo := NewInMemory()

	return &fixture{
		svc:           NewCertificateService(repo, permits, generator, router, zap.NewNop()),
		permits:       permits,
		repo:          repo,
		notifications: notifications,
		applicantID:   applicant.ID,
	}
}

// paidPermit walks a fresh permit through approval and payment so it awaits
// certificate creation.
func (f *fixture) paidPermit(t *testing.T) *permit.Permit {
	t.Helper()
	ctx := context.Background()

	p, err := f.permits.CreatePermit(ctx, permit.CreatePermitInput{
		ApplicationType: permit.TypeCSAW,
		ApplicantID:     f.applicantID.Hex(),
	})
	require.NoError(t, err)
	id := p.ID.Hex()

	_, err = f.permits.SubmitPermit(ctx, id, f.applicantID.Hex())
	require.NoError(t, err)
	_, err = f.permits.AcceptApplication(ctx, id, "", "staff")
	require.NoError(t, err)
	_, err = f.permits.RecordApplication(ctx, id, "", "clerk")
	require.NoError(t, err)
	_, err = f.permits.ChiefReview(ctx, id, "", "chief")
	require.NoError(t, err)
	_, err = f.permits.AcceptByPENRCENROfficer(ctx, id, "", "officer")
	require.NoError(t, err)
	_, err = f.permits.OnInspectionRecorded(ctx, id, "", "staff")
	require.NoError(t, err)
	_, err = f.permits.ApproveByPENRCENROfficer(ctx, id, "", "officer")
	require.NoError(t, err)
	_, err = f.permits.OnOOPCreated(ctx, id, "20240920-001", "chief")
	require.NoError(t, err)
	p, err = f.permits.OnORIssued(ctx, id, "collector")
	require.NoError(t, err)
	return p
}

func (f *fixture) generate(t *testing.T, p *permit.Permit, expiry *time.Time) *Certificate {
	t.Helper()
	certificate, err := f.svc.GenerateCertificate(context.Background(), GenerateInput{
		ApplicationID: p.ID.Hex(),
		UploadedFile:  "certificates/csaw.pdf",
		ExpiryDate:    expiry,
	}, "officer")
	require.NoError(t, err)
	return certificate
}

func TestGenerateCertificateMintsNumberAndFlipsGates(t *testing.T) {
	f := newFixture(t)
	p := f.paidPermit(t)

	certificate := f.generate(t, p, nil)
	assert.Equal(t, StatusPendingSignature, certificate.Status)
	assert.Regexp(t, `^CSAW-\d{4}-\d{4}$`, certificate.CertificateNo)
	assert.Equal(t, permit.TypeCSAW, certificate.ApplicationType)

	updated, err := f.permits.GetPermit(context.Background(), p.ID.Hex())
	require.NoError(t, err)
	assert.True(t, updated.Gates.PermitCreated)
	assert.False(t, updated.Gates.AwaitingPermitCreation)

	count := 0
	for _, n := range f.notifications.All() {
		if n.Type == notification.EventCertificateCreated {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestGenerateCertificateRequiresPaidPermit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.permits.CreatePermit(ctx, permit.CreatePermitInput{
		ApplicationType: permit.TypeCSAW,
		ApplicantID:     f.applicantID.Hex(),
	})
	require.NoError(t, err)

	_, err = f.svc.GenerateCertificate(ctx, GenerateInput{ApplicationID: p.ID.Hex()}, "officer")
	require.ErrorIs(t, err, ErrNotAwaitingCertificate)
}

func TestSignAndReleaseDrivePermitStages(t *testing.T) {
	f := newFixture(t)
	p := f.paidPermit(t)
	certificate := f.generate(t, p, nil)
	ctx := context.Background()

	signed, err := f.svc.SignCertificate(ctx, certificate.ID.Hex(), "officer")
	require.NoError(t, err)
	assert.Equal(t, StatusSigned, signed.Status)
	assert.Equal(t, "officer", signed.SignedBy)
	require.NotNil(t, signed.IssuedAt)

	mid, err := f.permits.GetPermit(ctx, p.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, permit.StagePendingRelease, mid.CurrentStage)

	// Signing twice is rejected.
	_, err = f.svc.SignCertificate(ctx, certificate.ID.Hex(), "officer")
	require.ErrorIs(t, err, ErrWrongStatus)

	released, err := f.svc.ReleaseCertificate(ctx, certificate.ID.Hex(), "releasing")
	require.NoError(t, err)
	assert.Equal(t, StatusReleased, released.Status)

	final, err := f.permits.GetPermit(ctx, p.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, permit.StageReleased, final.CurrentStage)
	assert.Equal(t, permit.StatusCompleted, final.Status)
}

func TestReleaseRequiresSignedCertificate(t *testing.T) {
	f := newFixture(t)
	certificate := f.generate(t, f.paidPermit(t), nil)

	_, err := f.svc.ReleaseCertificate(context.Background(), certificate.ID.Hex(), "releasing")
	require.ErrorIs(t, err, ErrWrongStatus)
}

func TestSweepExpiresOverdueCertificates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// One released permit with an already-passed expiry, one still valid.
	past := time.Now().Add(-24 * time.Hour)
	future := time.Now().Add(365 * 24 * time.Hour)

	overdue := f.generate(t, f.paidPermit(t), &past)
	_, err := f.svc.SignCertificate(ctx, overdue.ID.Hex(), "officer")
	require.NoError(t, err)
	_, err = f.svc.ReleaseCertificate(ctx, overdue.ID.Hex(), "releasing")
	require.NoError(t, err)

	valid := f.generate(t, f.paidPermit(t), &future)
	_, err = f.svc.SignCertificate(ctx, valid.ID.Hex(), "officer")
	require.NoError(t, err)
	_, err = f.svc.ReleaseCertificate(ctx, valid.ID.Hex(), "releasing")
	require.NoError(t, err)

	expired, err := f.svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	stored, err := f.svc.GetCertificate(ctx, overdue.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, stored.Status)

	expiredPermit, err := f.permits.GetPermit(ctx, stored.ApplicationID.Hex())
	require.NoError(t, err)
	assert.Equal(t, permit.StageExpired, expiredPermit.CurrentStage)

	untouched, err := f.svc.GetCertificate(ctx, valid.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, StatusReleased, untouched.Status)
}

func TestSweepIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	certificate := f.generate(t, f.paidPermit(t), &past)
	_, err := f.svc.SignCertificate(ctx, certificate.ID.Hex(), "officer")
	require.NoError(t, err)
	_, err = f.svc.ReleaseCertificate(ctx, certificate.ID.Hex(), "releasing")
	require.NoError(t, err)

	first, err := f.svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first)

	expired, err := f.svc.GetCertificate(ctx, certificate.ID.Hex())
	require.NoError(t, err)
	beforeSecond := expired.UpdatedAt

	second, err := f.svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, second)

	after, err := f.svc.GetCertificate(ctx, certificate.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, beforeSecond, after.UpdatedAt)

	finalPermit, err := f.permits.GetPermit(ctx, certificate.ApplicationID.Hex())
	require.NoError(t, err)
	assert.Equal(t, permit.StageExpired, finalPermit.CurrentStage)
}

func TestSweepIsolatesPerRecordFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// A certificate pointing at a permit that no longer exists must not
	// abort the pass for the rest.
	past := time.Now().Add(-time.Hour)
	orphan := &Certificate{
		CertificateNo:   "CSAW-2024-0099",
		ApplicationID:   primitive.NewObjectID(),
		ApplicationType: permit.TypeCSAW,
		Status:          StatusReleased,
	}
	require.NoError(t, f.repo.Create(ctx, orphan))

	overdue := f.generate(t, f.paidPermit(t), &past)
	_, err := f.svc.SignCertificate(ctx, overdue.ID.Hex(), "officer")
	require.NoError(t, err)
	_, err = f.svc.ReleaseCertificate(ctx, overdue.ID.Hex(), "releasing")
	require.NoError(t, err)

	expired, err := f.svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	stored, err := f.svc.GetCertificate(ctx, overdue.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, stored.Status)
}
