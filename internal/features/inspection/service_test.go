package inspection

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
	svc           InspectionService
	permits       permit.PermitService
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

	return &fixture{
		svc:           NewInspectionService(NewInMemory(), permits, router, zap.NewNop()),
		permits:       permits,
		notifications: notifications,
		applicantID:   applicant.ID,
	}
}

// fieldPermit walks a fresh permit to ForInspectionByTechnicalStaff.
func (f *fixture) fieldPermit(t *testing.T) *permit.Permit {
	t.Helper()
	ctx := context.Background()

	p, err := f.permits.CreatePermit(ctx, permit.CreatePermitInput{
		ApplicationType: permit.TypePTPR,
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
	p, err = f.permits.AcceptByPENRCENROfficer(ctx, id, "", "officer")
	require.NoError(t, err)
	return p
}

func (f *fixture) schedule(t *testing.T, p *permit.Permit) *Inspection {
	t.Helper()
	inspection, err := f.svc.Schedule(context.Background(), ScheduleInput{
		ApplicationID: p.ID.Hex(),
		ScheduledDate: time.Now().Add(72 * time.Hour),
		Location:      "Brgy. San Isidro plantation site",
		InspectorID:   "inspector-1",
	}, "staff")
	require.NoError(t, err)
	return inspection
}

func countEvents(n *notification.InMemory, ev notification.EventType) int {
	count := 0
	for _, item := range n.All() {
		if item.Type == ev {
			count++
		}
	}
	return count
}

func TestScheduleRequiresInspectionStage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.permits.CreatePermit(ctx, permit.CreatePermitInput{
		ApplicationType: permit.TypePTPR,
		ApplicantID:     f.applicantID.Hex(),
	})
	require.NoError(t, err)

	_, err = f.svc.Schedule(ctx, ScheduleInput{
		ApplicationID: p.ID.Hex(),
		ScheduledDate: time.Now().Add(24 * time.Hour),
	}, "staff")
	require.Error(t, err)
}

func TestScheduleNotifiesApplicant(t *testing.T) {
	f := newFixture(t)
	inspection := f.schedule(t, f.fieldPermit(t))

	assert.Equal(t, StatusPending, inspection.Status)
	assert.Equal(t, 1, countEvents(f.notifications, notification.EventInspectionScheduled))
}

func TestRecordFindingsRequiresResult(t *testing.T) {
	f := newFixture(t)
	inspection := f.schedule(t, f.fieldPermit(t))

	_, err := f.svc.RecordFindings(context.Background(), inspection.ID.Hex(), FindingsInput{
		Remarks: "looks fine",
	}, "staff")
	require.ErrorIs(t, err, ErrResultRequired)

	_, err = f.svc.RecordFindings(context.Background(), inspection.ID.Hex(), FindingsInput{
		Result: "Excellent",
	}, "staff")
	require.Error(t, err)
}

func TestRecordFindingsMovesPermitBackToOfficer(t *testing.T) {
	f := newFixture(t)
	p := f.fieldPermit(t)
	inspection := f.schedule(t, p)
	ctx := context.Background()

	completed, err := f.svc.RecordFindings(ctx, inspection.ID.Hex(), FindingsInput{
		Result:  ResultPass,
		Remarks: "boundaries verified",
	}, "staff")
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, completed.Status)
	require.NotNil(t, completed.Findings)
	assert.Equal(t, ResultPass, completed.Findings.Result)
	assert.Equal(t, "staff", completed.Findings.RecordedBy)

	updated, err := f.permits.GetPermit(ctx, p.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, permit.StageCENRPENRReview, updated.CurrentStage)
	assert.True(t, updated.Gates.HasInspectionReport)
	assert.Equal(t, 1, countEvents(f.notifications, notification.EventInspectionCompleted))

	// Double recording is rejected.
	_, err = f.svc.RecordFindings(ctx, inspection.ID.Hex(), FindingsInput{Result: ResultFail}, "staff")
	require.ErrorIs(t, err, ErrWrongStatus)
}

func TestUndoInspectionReport(t *testing.T) {
	f := newFixture(t)
	p := f.fieldPermit(t)
	inspection := f.schedule(t, p)
	ctx := context.Background()

	_, err := f.svc.RecordFindings(ctx, inspection.ID.Hex(), FindingsInput{Result: ResultPass}, "staff")
	require.NoError(t, err)

	reopened, err := f.svc.UndoInspectionReport(ctx, inspection.ID.Hex(), "staff")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, reopened.Status)
	assert.Nil(t, reopened.Findings)

	updated, err := f.permits.GetPermit(ctx, p.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, permit.StageForInspectionByTechnicalStaff, updated.CurrentStage)
	assert.False(t, updated.Gates.HasInspectionReport)
}

func TestUndoInspectionBlockedAfterApproval(t *testing.T) {
	f := newFixture(t)
	p := f.fieldPermit(t)
	inspection := f.schedule(t, p)
	ctx := context.Background()

	_, err := f.svc.RecordFindings(ctx, inspection.ID.Hex(), FindingsInput{Result: ResultPass}, "staff")
	require.NoError(t, err)
	_, err = f.permits.ApproveByPENRCENROfficer(ctx, p.ID.Hex(), "", "officer")
	require.NoError(t, err)

	_, err = f.svc.UndoInspectionReport(ctx, inspection.ID.Hex(), "staff")
	require.Error(t, err)

	// The completed inspection is untouched by the failed undo.
	stored, err := f.svc.GetInspection(ctx, inspection.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, stored.Status)
	assert.NotNil(t, stored.Findings)
}

func TestRescheduleAndCancel(t *testing.T) {
	f := newFixture(t)
	inspection := f.schedule(t, f.fieldPermit(t))
	ctx := context.Background()

	newDate := time.Now().Add(7 * 24 * time.Hour)
	moved, err := f.svc.Reschedule(ctx, inspection.ID.Hex(), newDate, "staff")
	require.NoError(t, err)
	assert.Equal(t, StatusRescheduled, moved.Status)
	assert.WithinDuration(t, newDate, moved.ScheduledDate, time.Second)

	cancelled, err := f.svc.Cancel(ctx, inspection.ID.Hex(), "staff")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	// Cancelled inspections cannot carry findings.
	_, err = f.svc.RecordFindings(ctx, inspection.ID.Hex(), FindingsInput{Result: ResultPass}, "staff")
	require.ErrorIs(t, err, ErrWrongStatus)
}
