package oop

import (
	"context"
	"fmt"
	"sync"
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
	svc           OOPService
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
		account.RoleChiefTSD,
		account.RolePENRCENROfficer,
		account.RoleAccountant,
		account.RoleBillCollector,
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
		svc:           NewOOPService(repo, permits, generator, router, zap.NewNop()),
		permits:       permits,
		repo:          repo,
		notifications: notifications,
		applicantID:   applicant.ID,
	}
}

// approvedPermit walks a fresh permit up to the AwaitingOOP stage.
func (f *fixture) approvedPermit(t *testing.T) *permit.Permit {
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
	p, err = f.permits.ApproveByPENRCENROfficer(ctx, id, "", "officer")
	require.NoError(t, err)
	return p
}

func (f *fixture) createOOP(t *testing.T, p *permit.Permit) *OOP {
	t.Helper()
	oop, err := f.svc.CreateOOP(context.Background(), CreateOOPInput{
		ApplicationID: p.ID.Hex(),
		Items: []Item{
			{LegalBasis: "DAO 2000-21", Description: "Registration fee", Amount: 500},
			{LegalBasis: "DAO 2000-21", Description: "Oath fee", Amount: 36},
		},
	}, "chief")
	require.NoError(t, err)
	return oop
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

func TestCreateOOPMintsBillAndFlipsGates(t *testing.T) {
	f := newFixture(t)
	p := f.approvedPermit(t)

	oop := f.createOOP(t, p)
	assert.Equal(t, StatusPendingSignature, oop.Status)
	assert.Regexp(t, `^\d{8}-\d{3}$`, oop.BillNo)
	assert.Equal(t, 536.0, oop.Total())

	updated, err := f.permits.GetPermit(context.Background(), p.ID.Hex())
	require.NoError(t, err)
	assert.False(t, updated.Gates.AwaitingOOP)
	assert.True(t, updated.Gates.OOPCreated)

	// Both chiefs are asked to sign, the applicant is informed.
	assert.Len(t, f.eventsOfType(notification.EventOOPPendingSignature), 2)
	assert.Len(t, f.eventsOfType(notification.EventOOPCreated), 1)
}

func TestCreateOOPRequiresAwaitingPermit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.permits.CreatePermit(ctx, permit.CreatePermitInput{
		ApplicationType: permit.TypeCSAW,
		ApplicantID:     f.applicantID.Hex(),
	})
	require.NoError(t, err)

	_, err = f.svc.CreateOOP(ctx, CreateOOPInput{
		ApplicationID: p.ID.Hex(),
		Items:         []Item{{Description: "fee", Amount: 100}},
	}, "chief")
	require.Error(t, err)
}

func TestCreateOOPValidatesItems(t *testing.T) {
	f := newFixture(t)
	p := f.approvedPermit(t)
	ctx := context.Background()

	_, err := f.svc.CreateOOP(ctx, CreateOOPInput{ApplicationID: p.ID.Hex()}, "chief")
	require.ErrorIs(t, err, ErrNoItems)

	_, err = f.svc.CreateOOP(ctx, CreateOOPInput{
		ApplicationID: p.ID.Hex(),
		Items:         []Item{{Description: "fee", Amount: -5}},
	}, "chief")
	require.Error(t, err)
}

func TestConcurrentOOPCreationMintsDistinctNumbers(t *testing.T) {
	const n = 50

	f := newFixture(t)
	ctx := context.Background()

	permits := make([]*permit.Permit, n)
	for i := range permits {
		permits[i] = f.approvedPermit(t)
	}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		bills = make(map[string]bool)
		errs  []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(p *permit.Permit) {
			defer wg.Done()
			oop, err := f.svc.CreateOOP(ctx, CreateOOPInput{
				ApplicationID: p.ID.Hex(),
				Items:         []Item{{Description: "fee", Amount: 100}},
			}, "chief")
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			bills[oop.BillNo] = true
		}(permits[i])
	}
	wg.Wait()

	require.Empty(t, errs)
	assert.Len(t, bills, n)
}

func TestForwardRequiresBothSignatures(t *testing.T) {
	f := newFixture(t)
	oop := f.createOOP(t, f.approvedPermit(t))
	ctx := context.Background()
	id := oop.ID.Hex()

	// No signatures at all.
	_, err := f.svc.ForwardToAccountant(ctx, id, "chief")
	require.ErrorIs(t, err, ErrSignaturesRequired)

	// Only the RPS chief has signed.
	_, err = f.svc.UpdateSignature(ctx, id, SignatureRPS, "rps.png", "chief-rps")
	require.NoError(t, err)
	_, err = f.svc.ForwardToAccountant(ctx, id, "chief")
	require.ErrorIs(t, err, ErrSignaturesRequired)

	stored, err := f.svc.GetOOP(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusPendingSignature, stored.Status)
	assert.False(t, stored.SignedByTwoSignatories)

	// Both signed: forward succeeds, dates stamped, tracking minted.
	_, err = f.svc.UpdateSignature(ctx, id, SignatureTSD, "tsd.png", "chief-tsd")
	require.NoError(t, err)
	forwarded, err := f.svc.ForwardToAccountant(ctx, id, "chief")
	require.NoError(t, err)

	assert.Equal(t, StatusForApproval, forwarded.Status)
	assert.True(t, forwarded.SignedByTwoSignatories)
	assert.NotNil(t, forwarded.RPSSignedAt)
	assert.NotNil(t, forwarded.TSDSignedAt)
	require.NotNil(t, forwarded.Tracking)
	assert.Regexp(t, `^TR-\d{4}-\d{5}$`, forwarded.Tracking.TrackingNo)
	assert.Len(t, f.eventsOfType(notification.EventOOPForwardedToAccountant), 1)
}

func TestTrackingNumberIsMintedOnce(t *testing.T) {
	f := newFixture(t)
	oop := f.createOOP(t, f.approvedPermit(t))
	ctx := context.Background()
	id := oop.ID.Hex()

	_, err := f.svc.UpdateSignature(ctx, id, SignatureRPS, "rps.png", "chief-rps")
	require.NoError(t, err)
	_, err = f.svc.UpdateSignature(ctx, id, SignatureTSD, "tsd.png", "chief-tsd")
	require.NoError(t, err)

	forwarded, err := f.svc.ForwardToAccountant(ctx, id, "chief")
	require.NoError(t, err)
	first := forwarded.Tracking.TrackingNo

	// Force the status back to simulate a retry after a partial failure; the
	// existing tracking number must be reused, not regenerated.
	forwarded.Status = StatusPendingSignature
	require.NoError(t, f.repo.Update(ctx, forwarded))

	again, err := f.svc.ForwardToAccountant(ctx, id, "chief")
	require.NoError(t, err)
	assert.Equal(t, first, again.Tracking.TrackingNo)
}

func TestPaymentLifecycleToOR(t *testing.T) {
	f := newFixture(t)
	p := f.approvedPermit(t)
	oop := f.createOOP(t, p)
	ctx := context.Background()
	id := oop.ID.Hex()

	_, err := f.svc.UpdateSignature(ctx, id, SignatureRPS, "rps.png", "chief-rps")
	require.NoError(t, err)
	_, err = f.svc.UpdateSignature(ctx, id, SignatureTSD, "tsd.png", "chief-tsd")
	require.NoError(t, err)
	_, err = f.svc.ForwardToAccountant(ctx, id, "chief")
	require.NoError(t, err)

	approved, err := f.svc.ApproveOOP(ctx, id, "verified amounts", "accountant")
	require.NoError(t, err)
	assert.Equal(t, StatusAwaitingPayment, approved.Status)
	assert.Len(t, f.eventsOfType(notification.EventOOPAwaitingPayment), 1)

	// OR before completion is a rejected precondition, not a no-op.
	_, err = f.svc.GenerateOR(ctx, id, IssueORInput{ORNumber: "OR-1"}, "collector")
	require.ErrorIs(t, err, ErrNotCompletedOOP)

	submitted, err := f.svc.SubmitPaymentProof(ctx, id, PaymentProofInput{
		TransactionID:   "GC-123",
		ReferenceNumber: "REF-456",
		Amount:          536,
	}, f.applicantID.Hex())
	require.NoError(t, err)
	assert.Equal(t, StatusPaymentProofSubmitted, submitted.Status)

	completed, err := f.svc.ReviewPaymentProof(ctx, id, true, "", "collector")
	require.NoError(t, err)
	assert.Equal(t, StatusCompletedOOP, completed.Status)
	assert.Equal(t, ProofApproved, completed.PaymentProof.Status)
	assert.Len(t, f.eventsOfType(notification.EventPaymentVerified), 1)

	issued, err := f.svc.GenerateOR(ctx, id, IssueORInput{ORNumber: "OR-2024-001"}, "collector")
	require.NoError(t, err)
	assert.Equal(t, StatusIssuedOR, issued.Status)
	require.NotNil(t, issued.OfficialReceipt)
	assert.Equal(t, 536.0, issued.OfficialReceipt.Amount)
	assert.NotNil(t, issued.Tracking.ReleasedAt)
	assert.Len(t, f.eventsOfType(notification.EventORIssued), 1)

	// The permit now awaits certificate creation.
	updated, err := f.permits.GetPermit(ctx, p.ID.Hex())
	require.NoError(t, err)
	assert.True(t, updated.Gates.AwaitingPermitCreation)
}

func TestRejectedProofReturnsToPaymentQueue(t *testing.T) {
	f := newFixture(t)
	oop := f.createOOP(t, f.approvedPermit(t))
	ctx := context.Background()
	id := oop.ID.Hex()

	_, err := f.svc.UpdateSignature(ctx, id, SignatureRPS, "rps.png", "chief-rps")
	require.NoError(t, err)
	_, err = f.svc.UpdateSignature(ctx, id, SignatureTSD, "tsd.png", "chief-tsd")
	require.NoError(t, err)
	_, err = f.svc.ForwardToAccountant(ctx, id, "chief")
	require.NoError(t, err)
	_, err = f.svc.ApproveOOP(ctx, id, "", "accountant")
	require.NoError(t, err)
	_, err = f.svc.SubmitPaymentProof(ctx, id, PaymentProofInput{TransactionID: "GC-1", Amount: 100}, "applicant")
	require.NoError(t, err)

	rejected, err := f.svc.ReviewPaymentProof(ctx, id, false, "amount does not match the bill", "collector")
	require.NoError(t, err)
	assert.Equal(t, StatusPaymentProofRejected, rejected.Status)
	assert.Equal(t, ProofRejected, rejected.PaymentProof.Status)

	events := f.eventsOfType(notification.EventPaymentRejected)
	require.Len(t, events, 1)
	assert.Contains(t, events[0].Message, "amount does not match the bill")

	// Resubmission is allowed from the rejected state.
	resubmitted, err := f.svc.SubmitPaymentProof(ctx, id, PaymentProofInput{TransactionID: "GC-2", Amount: 536}, "applicant")
	require.NoError(t, err)
	assert.Equal(t, StatusPaymentProofSubmitted, resubmitted.Status)
	assert.Equal(t, ProofSubmitted, resubmitted.PaymentProof.Status)
}

func TestUndoOOPCreation(t *testing.T) {
	f := newFixture(t)
	p := f.approvedPermit(t)
	oop := f.createOOP(t, p)
	ctx := context.Background()

	require.NoError(t, f.svc.UndoOOPCreation(ctx, oop.ID.Hex(), "chief"))

	_, err := f.svc.GetOOP(ctx, oop.ID.Hex())
	require.ErrorIs(t, err, ErrNotFound)

	updated, err := f.permits.GetPermit(ctx, p.ID.Hex())
	require.NoError(t, err)
	assert.True(t, updated.Gates.AwaitingOOP)
	assert.False(t, updated.Gates.OOPCreated)

	// A replacement OOP can be created.
	replacement := f.createOOP(t, updated)
	assert.NotEqual(t, oop.BillNo, replacement.BillNo)
}

func TestUndoOOPCreationBlockedAfterSignature(t *testing.T) {
	f := newFixture(t)
	oop := f.createOOP(t, f.approvedPermit(t))
	ctx := context.Background()

	_, err := f.svc.UpdateSignature(ctx, oop.ID.Hex(), SignatureRPS, "rps.png", "chief-rps")
	require.NoError(t, err)

	err = f.svc.UndoOOPCreation(ctx, oop.ID.Hex(), "chief")
	require.ErrorIs(t, err, ErrSignaturesCollected)
}
