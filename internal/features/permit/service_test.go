package permit

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"go-permits/internal/config"
	"go-permits/internal/features/account"
	"go-permits/internal/features/notification"
	"go-permits/internal/features/sequence"
)

type fixture struct {
	svc           PermitService
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
		account.RoleAccountant,
		account.RoleBillCollector,
		account.RoleReleasingClerk,
	}
	for i, role := range personnel {
		acc := account.Account{
			ID:        primitive.NewObjectID(),
			Username:  strings.ToLower(string(role)),
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
	repo := NewInMemoryRepository()

	return &fixture{
		svc:           NewPermitService(repo, generator, router, zap.NewNop()),
		repo:          repo,
		notifications: notifications,
		applicantID:   applicant.ID,
	}
}

func (f *fixture) create(t *testing.T) *Permit {
	t.Helper()
	p, err := f.svc.CreatePermit(context.Background(), CreatePermitInput{
		ApplicationType: TypeCSAW,
		ApplicantID:     f.applicantID.Hex(),
	})
	require.NoError(t, err)
	return p
}

// advance walks a fresh permit through the forward pipeline, stopping after
// the named step.
func (f *fixture) advance(t *testing.T, p *Permit, until string) *Permit {
	t.Helper()
	ctx := context.Background()
	id := p.ID.Hex()

	steps := []struct {
		name string
		run  func() (*Permit, error)
	}{
		{"submit", func() (*Permit, error) { return f.svc.SubmitPermit(ctx, id, f.applicantID.Hex()) }},
		{"review", func() (*Permit, error) { return f.svc.ReviewApplication(ctx, id, "staff") }},
		{"accept", func() (*Permit, error) { return f.svc.AcceptApplication(ctx, id, "complete requirements", "staff") }},
		{"record", func() (*Permit, error) { return f.svc.RecordApplication(ctx, id, "recorded", "clerk") }},
		{"chief-review", func() (*Permit, error) { return f.svc.ChiefReview(ctx, id, "in order", "chief") }},
		{"officer-accept", func() (*Permit, error) { return f.svc.AcceptByPENRCENROfficer(ctx, id, "for inspection", "officer") }},
		{"inspection", func() (*Permit, error) { return f.svc.OnInspectionRecorded(ctx, id, "site verified", "staff") }},
		{"approve", func() (*Permit, error) { return f.svc.ApproveByPENRCENROfficer(ctx, id, "approved", "officer") }},
		{"oop-created", func() (*Permit, error) { return f.svc.OnOOPCreated(ctx, id, "20240920-001", "chief") }},
		{"or-issued", func() (*Permit, error) { return f.svc.OnORIssued(ctx, id, "collector") }},
		{"certificate", func() (*Permit, error) { return f.svc.OnCertificateCreated(ctx, id, "officer") }},
		{"pending-release", func() (*Permit, error) { return f.svc.MarkPendingRelease(ctx, id, "officer") }},
		{"release", func() (*Permit, error) { return f.svc.ReleasePermit(ctx, id, "releasing") }},
	}

	var out *Permit
	for _, step := range steps {
		var err error
		out, err = step.run()
		require.NoError(t, err, "step %s", step.name)
		if step.name == until {
			return out
		}
	}
	t.Fatalf("unknown step %q", until)
	return nil
}

func (f *fixture) eventsOfType(ev notification.EventType) []notification.Notification {
	var out []notification.Notification
	for _, n := range f.notifications.All() {
		if n.Type == ev {
			out = append(out, n)
		}
	}
	return out
}

func TestCreatePermitMintsApplicationNumber(t *testing.T) {
	f := newFixture(t)
	p := f.create(t)

	assert.True(t, strings.HasPrefix(p.ApplicationNumber, "PMDQ-CSAW-"), p.ApplicationNumber)
	assert.True(t, strings.HasSuffix(p.ApplicationNumber, "-000001"), p.ApplicationNumber)
	assert.Equal(t, StageDraft, p.CurrentStage)
	assert.Equal(t, StatusDraft, p.Status)
	assert.Len(t, p.History, 1)
	assert.Nil(t, p.DateOfSubmission)
}

func TestCreatePermitRejectsUnknownType(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreatePermit(context.Background(), CreatePermitInput{
		ApplicationType: "TREEHOUSE",
		ApplicantID:     f.applicantID.Hex(),
	})
	require.Error(t, err)
}

func TestSubmitAppendsOneEntryAndNotifies(t *testing.T) {
	f := newFixture(t)
	p := f.create(t)

	updated, err := f.svc.SubmitPermit(context.Background(), p.ID.Hex(), f.applicantID.Hex())
	require.NoError(t, err)

	assert.Equal(t, StageTechnicalStaffReview, updated.CurrentStage)
	assert.Equal(t, StatusSubmitted, updated.Status)
	require.NotNil(t, updated.DateOfSubmission)
	assert.Len(t, updated.History, 2)

	// Exactly the stage's notification set: applicant confirmation plus the
	// technical staff work item.
	all := f.notifications.All()
	require.Len(t, all, 2)
	assert.Len(t, f.eventsOfType(notification.EventApplicationSubmitted), 1)
	staff := f.eventsOfType(notification.EventPendingTechnicalReview)
	require.Len(t, staff, 1)
	assert.True(t, staff[0].Metadata.ActionRequired)
}

func TestSubmitTwiceRejected(t *testing.T) {
	f := newFixture(t)
	p := f.create(t)

	_, err := f.svc.SubmitPermit(context.Background(), p.ID.Hex(), f.applicantID.Hex())
	require.NoError(t, err)

	_, err = f.svc.SubmitPermit(context.Background(), p.ID.Hex(), f.applicantID.Hex())
	require.ErrorIs(t, err, ErrNotSubmittable)
}

func TestUnsubmitOnlyWhileWithTechnicalStaff(t *testing.T) {
	f := newFixture(t)
	p := f.create(t)
	ctx := context.Background()

	_, err := f.svc.SubmitPermit(ctx, p.ID.Hex(), f.applicantID.Hex())
	require.NoError(t, err)

	updated, err := f.svc.UnsubmitPermit(ctx, p.ID.Hex(), f.applicantID.Hex())
	require.NoError(t, err)
	assert.Equal(t, StageDraft, updated.CurrentStage)
	assert.Equal(t, StatusDraft, updated.Status)
	assert.Len(t, f.eventsOfType(notification.EventApplicationUnsubmitted), 1)

	// Once review has started the application is no longer withdrawable.
	_, err = f.svc.SubmitPermit(ctx, p.ID.Hex(), f.applicantID.Hex())
	require.NoError(t, err)
	_, err = f.svc.ReviewApplication(ctx, p.ID.Hex(), "staff")
	require.NoError(t, err)
	_, err = f.svc.UnsubmitPermit(ctx, p.ID.Hex(), f.applicantID.Hex())
	require.ErrorIs(t, err, ErrNotUnsubmittable)
}

func TestFullPipelineToReleaseAndExpiry(t *testing.T) {
	f := newFixture(t)
	p := f.advance(t, f.create(t), "release")

	assert.Equal(t, StageReleased, p.CurrentStage)
	assert.Equal(t, StatusCompleted, p.Status)
	assert.True(t, p.Gates.AcceptedByTechnicalStaff)
	assert.True(t, p.Gates.RecordedByReceivingClerk)
	assert.True(t, p.Gates.ReviewedByChief)
	assert.True(t, p.Gates.AcceptedByPENRCENROfficer)
	assert.True(t, p.Gates.ApprovedByPENRCENROfficer)
	assert.True(t, p.Gates.HasInspectionReport)
	assert.True(t, p.Gates.OOPCreated)
	assert.True(t, p.Gates.PermitCreated)
	assert.False(t, p.Gates.AwaitingOOP)
	assert.False(t, p.Gates.AwaitingPermitCreation)

	assert.Len(t, f.eventsOfType(notification.EventPermitReleased), 1)

	ctx := context.Background()
	require.NoError(t, f.svc.ExpirePermit(ctx, p.ID.Hex()))
	expired, err := f.svc.GetPermit(ctx, p.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, StageExpired, expired.CurrentStage)
	assert.Equal(t, StatusExpired, expired.Status)

	// The sweep may visit the same permit again; nothing changes.
	require.NoError(t, f.svc.ExpirePermit(ctx, p.ID.Hex()))
	again, err := f.svc.GetPermit(ctx, p.ID.Hex())
	require.NoError(t, err)
	assert.Len(t, again.History, len(expired.History))
}

func TestReturnResumesAtReturningStage(t *testing.T) {
	f := newFixture(t)
	p := f.advance(t, f.create(t), "accept")
	ctx := context.Background()

	returned, err := f.svc.ReturnApplication(ctx, p.ID.Hex(), "missing deed of sale", "clerk")
	require.NoError(t, err)
	assert.Equal(t, StageReturnedByReceivingClerk, returned.CurrentStage)
	assert.Equal(t, StatusReturned, returned.Status)

	resubmitted, err := f.svc.SubmitPermit(ctx, p.ID.Hex(), f.applicantID.Hex())
	require.NoError(t, err)
	assert.Equal(t, StageReceivingClerkReview, resubmitted.CurrentStage)

	// The clerk can record directly; technical review is not repeated.
	recorded, err := f.svc.RecordApplication(ctx, p.ID.Hex(), "recorded", "clerk")
	require.NoError(t, err)
	assert.Equal(t, StageChiefRPSReview, recorded.CurrentStage)
}

func TestUndoRecordRestoresClerkStage(t *testing.T) {
	f := newFixture(t)
	p := f.advance(t, f.create(t), "record")
	ctx := context.Background()

	undone, err := f.svc.UndoRecordApplication(ctx, p.ID.Hex(), "wrong register", "clerk")
	require.NoError(t, err)
	assert.Equal(t, StageForRecordByReceivingClerk, undone.CurrentStage)
	assert.False(t, undone.Gates.RecordedByReceivingClerk)

	// After the chief has taken over, the clerk's undo window is closed.
	p2 := f.advance(t, f.create(t), "chief-review")
	_, err = f.svc.UndoRecordApplication(ctx, p2.ID.Hex(), "too late", "clerk")
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUndoOfficerAcceptanceClosesAfterInspection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.advance(t, f.create(t), "officer-accept")
	undone, err := f.svc.UndoAcceptanceCENRPENROfficer(ctx, p.ID.Hex(), "not ready", "officer")
	require.NoError(t, err)
	assert.Equal(t, StageCENRPENRReview, undone.CurrentStage)
	assert.False(t, undone.Gates.AcceptedByPENRCENROfficer)

	p2 := f.advance(t, f.create(t), "inspection")
	_, err = f.svc.UndoAcceptanceCENRPENROfficer(ctx, p2.ID.Hex(), "too late", "officer")
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestApproveRequiresInspectionReport(t *testing.T) {
	f := newFixture(t)
	p := f.advance(t, f.create(t), "chief-review")

	_, err := f.svc.ApproveByPENRCENROfficer(context.Background(), p.ID.Hex(), "premature", "officer")
	require.Error(t, err)
}

func TestOOPHooksToggleGates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.advance(t, f.create(t), "approve")

	created, err := f.svc.OnOOPCreated(ctx, p.ID.Hex(), "20240920-001", "chief")
	require.NoError(t, err)
	assert.False(t, created.Gates.AwaitingOOP)
	assert.True(t, created.Gates.OOPCreated)

	// Double creation is rejected.
	_, err = f.svc.OnOOPCreated(ctx, p.ID.Hex(), "20240920-002", "chief")
	require.Error(t, err)

	undone, err := f.svc.UndoOOPCreation(ctx, p.ID.Hex(), "chief")
	require.NoError(t, err)
	assert.True(t, undone.Gates.AwaitingOOP)
	assert.False(t, undone.Gates.OOPCreated)

	// Recreate and move to OR issued: undo is now blocked.
	_, err = f.svc.OnOOPCreated(ctx, p.ID.Hex(), "20240920-003", "chief")
	require.NoError(t, err)
	_, err = f.svc.OnORIssued(ctx, p.ID.Hex(), "collector")
	require.NoError(t, err)
	_, err = f.svc.UndoOOPCreation(ctx, p.ID.Hex(), "chief")
	require.ErrorIs(t, err, ErrDownstreamProgress)
}

func TestInspectionUndoReturnsPermitToFieldStage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.advance(t, f.create(t), "inspection")

	undone, err := f.svc.OnInspectionUndone(ctx, p.ID.Hex(), "staff")
	require.NoError(t, err)
	assert.Equal(t, StageForInspectionByTechnicalStaff, undone.CurrentStage)
	assert.False(t, undone.Gates.HasInspectionReport)
}

func TestRejectIsTerminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.advance(t, f.create(t), "submit")

	rejected, err := f.svc.RejectApplication(ctx, p.ID.Hex(), "fraudulent documents", "officer")
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, rejected.Status)
	assert.Len(t, f.eventsOfType(notification.EventApplicationRejected), 1)

	_, err = f.svc.AcceptApplication(ctx, p.ID.Hex(), "oops", "staff")
	require.ErrorIs(t, err, ErrTerminal)
	_, err = f.svc.SubmitPermit(ctx, p.ID.Hex(), f.applicantID.Hex())
	require.ErrorIs(t, err, ErrNotSubmittable)
}

func TestUpdateStageGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.create(t)

	// Stage edges outside the closed transition set are rejected.
	_, err := f.svc.UpdatePermitStage(ctx, p.ID.Hex(), StageReleased, StatusCompleted, "", "admin", nil)
	require.ErrorIs(t, err, ErrInvalidTransition)

	// Gate flags cannot be cleared through the generic update.
	p2 := f.advance(t, f.create(t), "accept")
	_, err = f.svc.UpdatePermitStage(ctx, p2.ID.Hex(), p2.CurrentStage, p2.Status, "", "admin",
		map[string]bool{"acceptedByTechnicalStaff": false})
	require.ErrorIs(t, err, ErrBackwardGate)

	_, err = f.svc.UpdatePermitStage(ctx, p2.ID.Hex(), p2.CurrentStage, p2.Status, "", "admin",
		map[string]bool{"somethingElse": true})
	require.ErrorIs(t, err, ErrUnknownGate)
}

func TestNotificationFailureDoesNotBlockTransition(t *testing.T) {
	// A router with no personnel seeded fails every role fan-out; the stage
	// move must still commit.
	accounts := account.NewInMemory()
	notifications := notification.NewInMemory()
	router := notification.NewRouter(notifications, accounts, notification.NewMemoryBus(), zap.NewNop())
	generator := sequence.NewGenerator(sequence.NewInMemory(), &config.Config{OfficeCode: "PMDQ"})
	repo := NewInMemoryRepository()
	svc := NewPermitService(repo, generator, router, zap.NewNop())

	ctx := context.Background()
	p, err := svc.CreatePermit(ctx, CreatePermitInput{
		ApplicationType: TypeCOV,
		ApplicantID:     primitive.NewObjectID().Hex(),
	})
	require.NoError(t, err)

	updated, err := svc.SubmitPermit(ctx, p.ID.Hex(), p.ApplicantID.Hex())
	require.NoError(t, err)
	assert.Equal(t, StageTechnicalStaffReview, updated.CurrentStage)
}
