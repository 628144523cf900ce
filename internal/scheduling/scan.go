package scheduling

import (
	"context"
	"errors"
	"fmt"

	"github.com/teemow/mailmeet/internal/gmail"
)

// ThreadLister finds mail threads matching a query.
type ThreadLister interface {
	ListThreads(ctx context.Context, query string, maxResults int) ([]gmail.ThreadSummary, error)
}

// Scan checks up to maxThreads threads matching query and returns the proposals of those
// that ask for a meeting. A thread that fails to load does not stop the scan; its error is
// returned joined with the others alongside the proposals found.
func (s *Service) Scan(ctx context.Context, lister ThreadLister, query string, maxThreads int, opts SuggestOptions) ([]*Proposal, error) {
	summaries, err := lister.ListThreads(ctx, query, maxThreads)
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}

	var (
		proposals []*Proposal
		errs      []error
	)
	for _, summary := range summaries {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		p, err := s.SuggestForThread(ctx, summary.ID, opts)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if p.IsMeetingRequest() {
			proposals = append(proposals, p)
		}
	}

	s.metrics.RecordThreadsProcessed(ctx, SourceThread, len(summaries))
	return proposals, errors.Join(errs...)
}
