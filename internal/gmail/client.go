package gmail

import (
	"context"
	"fmt"
	"time"

	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/teemow/mailmeet/internal/instrumentation"
)

// maxPageSize is the largest page the threads.list call accepts.
const maxPageSize = 100

// Client wraps the Gmail Users service for one account.
type Client struct {
	svc       *gmail.UsersService
	account   string
	metrics   *instrumentation.Metrics
	signature *string
}

// NewClient creates a Gmail client for account. Pass option.WithHTTPClient
// with an authorized client; metrics may be nil.
func NewClient(ctx context.Context, account string, metrics *instrumentation.Metrics, opts ...option.ClientOption) (*Client, error) {
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return &Client{svc: svc.Users, account: account, metrics: metrics}, nil
}

// Account returns the account name this client is associated with.
func (c *Client) Account() string {
	return c.account
}

func (c *Client) observe(ctx context.Context, operation string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceGmail, operation)
	return ctx, func(err error) {
		status := instrumentation.StatusSuccess
		if err != nil {
			status = instrumentation.StatusError
		}
		c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceGmail, operation, status, time.Since(start))
		instrumentation.EndSpan(span, err)
	}
}

// ListThreads returns up to maxResults threads matching the Gmail search query,
// following pagination as needed.
func (c *Client) ListThreads(ctx context.Context, query string, maxResults int) (threads []ThreadSummary, err error) {
	ctx, done := c.observe(ctx, instrumentation.OperationList)
	defer func() { done(err) }()

	pageToken := ""
	for len(threads) < maxResults {
		pageSize := min(maxResults-len(threads), maxPageSize)
		req := c.svc.Threads.List("me").Q(query).MaxResults(int64(pageSize)).Context(ctx)
		if pageToken != "" {
			req = req.PageToken(pageToken)
		}
		res, err := req.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list threads: %w", err)
		}
		for _, t := range res.Threads {
			threads = append(threads, ThreadSummary{ID: t.Id, Snippet: t.Snippet})
		}
		if res.NextPageToken == "" {
			break
		}
		pageToken = res.NextPageToken
	}

	if len(threads) > maxResults {
		threads = threads[:maxResults]
	}
	return threads, nil
}

// GetThread retrieves a thread with all messages decoded.
func (c *Client) GetThread(ctx context.Context, threadID string) (thread *Thread, err error) {
	ctx, done := c.observe(ctx, instrumentation.OperationGet)
	defer func() { done(err) }()

	t, err := c.svc.Threads.Get("me", threadID).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get thread %s: %w", threadID, err)
	}
	return convertThread(t), nil
}

// Signature returns the signature of the primary send-as address. Failures to
// read it yield an empty signature; the result is cached.
func (c *Client) Signature(ctx context.Context) string {
	if c.signature != nil {
		return *c.signature
	}
	sig := ""
	if sendAs, err := c.svc.Settings.SendAs.Get("me", "me").Context(ctx).Do(); err == nil {
		sig = sendAs.Signature
	}
	c.signature = &sig
	return sig
}
