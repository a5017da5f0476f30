package scraper

import (
	"context"

	"github.com/Navjot67/tolls-app/internal/domain/entity"
)

// Fetcher retrieves balance details from a toll authority. Failures are
// reported inside the result rather than as an error so one bad lookup
// never aborts a batch.
type Fetcher interface {
	FetchNY(ctx context.Context, accountNumber, plateNumber string) entity.ExtractionResult
	FetchNJ(ctx context.Context, violationNumber, plateNumber string) entity.ExtractionResult
}
