package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/campus-helpdesk/internal/repository"
)

// DuplicateDetector flags near-identical active tickets from the same
// requester. Detection is advisory: it reports matched ticket codes and
// never raises a business error.
type DuplicateDetector struct {
	tickets repository.TicketRepository
	window  time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

// NewDuplicateDetector constructs the detector with the given lookback
// window.
func NewDuplicateDetector(tickets repository.TicketRepository, window time.Duration, logger *zap.Logger) *DuplicateDetector {
	if window <= 0 {
		window = 7 * 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DuplicateDetector{
		tickets: tickets,
		window:  window,
		logger:  logger,
		now:     time.Now,
	}
}

// Check returns the codes of existing active tickets that look like
// restatements of the candidate. The repository narrows to the same
// requester, category and location within the window; the detector then
// applies bidirectional title containment, so "wifi" matches
// "wifi is down in 204" and vice versa.
func (d *DuplicateDetector) Check(ctx context.Context, requesterID, title, categoryID, locationID string) ([]string, error) {
	since := d.now().Add(-d.window)
	candidates, err := d.tickets.ListActiveSimilar(ctx, requesterID, categoryID, locationID, since)
	if err != nil {
		return nil, err
	}

	needle := normalizeTitle(title)
	var codes []string
	for _, candidate := range candidates {
		existing := normalizeTitle(candidate.Title)
		if strings.Contains(existing, needle) || strings.Contains(needle, existing) {
			codes = append(codes, candidate.Code)
		}
	}
	if len(codes) > 0 {
		d.logger.Debug("duplicate candidates matched",
			zap.String("requester_id", requesterID),
			zap.Strings("ticket_codes", codes))
	}
	return codes, nil
}

func normalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}
