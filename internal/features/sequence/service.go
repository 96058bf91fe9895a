package sequence

import (
	"context"
	"fmt"
	"time"

	"go-permits/internal/config"
)

// Generator mints the human-readable identifiers used across the workflow:
// application numbers, bill numbers, tracking numbers and certificate numbers.
// Every kind shares the same uniqueness guarantee (one atomic counter per
// kind+period); only the rendered format differs.
type Generator interface {
	NextApplicationNumber(ctx context.Context, applicationType string, now time.Time) (string, error)
	NextBillNumber(ctx context.Context, now time.Time) (string, error)
	NextTrackingNumber(ctx context.Context, now time.Time) (string, error)
	NextCertificateNumber(ctx context.Context, applicationType string, now time.Time) (string, error)
}

type GeneratorImpl struct {
	repo       CounterRepository
	officeCode string
}

func NewGenerator(repo CounterRepository, cfg *config.Config) Generator {
	return &GeneratorImpl{
		repo:       repo,
		officeCode: cfg.OfficeCode,
	}
}

// NextApplicationNumber returns e.g. PMDQ-CSAW-2024-0920-000007. The counter
// restarts each day per application type.
func (g *GeneratorImpl) NextApplicationNumber(ctx context.Context, applicationType string, now time.Time) (string, error) {
	seq, err := g.repo.Increment(ctx, counterKey(applicationType, now.Format("20060102")))
	if err != nil {
		return "", fmt.Errorf("application number: %w", err)
	}
	return fmt.Sprintf("%s-%s-%s-%s-%06d", g.officeCode, applicationType, now.Format("2006"), now.Format("0102"), seq), nil
}

// NextBillNumber returns e.g. 20240920-007. The counter restarts each day.
func (g *GeneratorImpl) NextBillNumber(ctx context.Context, now time.Time) (string, error) {
	seq, err := g.repo.Increment(ctx, counterKey("billNo", now.Format("20060102")))
	if err != nil {
		return "", fmt.Errorf("bill number: %w", err)
	}
	return fmt.Sprintf("%s-%03d", now.Format("20060102"), seq), nil
}

// NextTrackingNumber returns e.g. TR-2024-00042. The counter restarts yearly.
func (g *GeneratorImpl) NextTrackingNumber(ctx context.Context, now time.Time) (string, error) {
	seq, err := g.repo.Increment(ctx, counterKey("trackingNo", now.Format("2006")))
	if err != nil {
		return "", fmt.Errorf("tracking number: %w", err)
	}
	return fmt.Sprintf("TR-%s-%05d", now.Format("2006"), seq), nil
}

// NextCertificateNumber returns e.g. CSAW-2024-0007. The counter restarts
// yearly per application type.
func (g *GeneratorImpl) NextCertificateNumber(ctx context.Context, applicationType string, now time.Time) (string, error) {
	seq, err := g.repo.Increment(ctx, counterKey("certNo-"+applicationType, now.Format("2006")))
	if err != nil {
		return "", fmt.Errorf("certificate number: %w", err)
	}
	return fmt.Sprintf("%s-%s-%04d", applicationType, now.Format("2006"), seq), nil
}

func counterKey(kind, period string) string {
	return kind + "-" + period
}
