package channel

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/morrisonak/uta-notify-sub001/pkg/errors"
)

// RecipientResult is the outcome of one per-recipient send inside a batch.
type RecipientResult struct {
	Recipient  string
	ProviderID string
	Err        error
}

// FanOut dispatches fn once per recipient with at most workers concurrent
// calls, joining on all of them before returning. Results are ordered by
// recipient position. A worker count below one runs fully concurrent.
func FanOut(ctx context.Context, recipients []string, workers int, fn func(ctx context.Context, recipient string) (string, error)) []RecipientResult {
	results := make([]RecipientResult, len(recipients))

	if workers <= 0 || workers > len(recipients) {
		workers = len(recipients)
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, recipient := range recipients {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, rcpt string) {
			defer wg.Done()
			defer func() { <-sem }()

			providerID, err := fn(ctx, rcpt)
			results[idx] = RecipientResult{
				Recipient:  rcpt,
				ProviderID: providerID,
				Err:        err,
			}
		}(i, recipient)
	}

	wg.Wait()
	return results
}

// AggregateResults applies the batch aggregation policy:
//
//   - all recipients succeed: Success=true, RecipientCount=N
//   - all fail: Success=false, Error summarizes the first failure,
//     RecipientCount=0, Retryable when any failure is retryable
//   - mixed: Success=true with Error noting "k of N messages failed";
//     callers needing stricter semantics compare RecipientCount to the
//     requested batch size.
func AggregateResults(results []RecipientResult) *SendResult {
	total := len(results)
	if total == 0 {
		return FailureResult(errors.New(errors.CodeNoRecipients, "no recipients provided"))
	}

	var (
		succeeded  int
		firstErr   error
		providerID string
		details    []string
	)

	for _, r := range results {
		if r.Err == nil {
			succeeded++
			if providerID == "" {
				providerID = r.ProviderID
			}
			continue
		}
		if firstErr == nil {
			firstErr = r.Err
		}
		details = append(details, fmt.Sprintf("%s: %v", r.Recipient, r.Err))
	}

	failed := total - succeeded

	switch {
	case failed == 0:
		result := SuccessResult(providerID, total)
		return result
	case succeeded == 0:
		retryable := false
		for _, r := range results {
			if errors.IsRetryable(r.Err) {
				retryable = true
				break
			}
		}
		return &SendResult{
			Success:   false,
			Error:     firstErr.Error(),
			Retryable: retryable,
			Response:  strings.Join(details, "; "),
		}
	default:
		return &SendResult{
			Success:        true,
			MessageID:      providerID,
			RecipientCount: succeeded,
			Error:          fmt.Sprintf("%d of %d messages failed", failed, total),
			Response:       strings.Join(details, "; "),
		}
	}
}
