package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"github.com/teemow/mailmeet/internal/config"
	"github.com/teemow/mailmeet/internal/gmail"
	"github.com/teemow/mailmeet/internal/instrumentation"
	"github.com/teemow/mailmeet/internal/meeting"
)

// Sources of a suggestion, used as metric labels.
const (
	SourceText   = "text"
	SourceThread = "thread"
)

// ThreadSource loads mail threads.
type ThreadSource interface {
	GetThread(ctx context.Context, threadID string) (*gmail.Thread, error)
}

// BusySource lists the events that block time on calendars.
type BusySource interface {
	BusyEvents(ctx context.Context, calendarIDs []string, timeMin, timeMax time.Time) ([]meeting.Event, error)
}

// Options are the scheduling defaults of a Service.
type Options struct {
	Policy         meeting.BusinessHoursPolicy
	Intent         meeting.IntentPolicy
	Duration       time.Duration
	DaysAhead      int
	MaxSuggestions int
	CalendarIDs    []string
}

// OptionsFromConfig builds Options from the application configuration.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	policy, err := cfg.Policy()
	if err != nil {
		return Options{}, err
	}
	return Options{
		Policy:         policy,
		Intent:         cfg.IntentPolicy(),
		Duration:       cfg.MeetingDuration(),
		DaysAhead:      cfg.Scheduling.DaysAhead,
		MaxSuggestions: cfg.Scheduling.MaxSuggestions,
		CalendarIDs:    cfg.Scheduling.CalendarIDs,
	}, nil
}

// SuggestOptions override the service defaults for one request. Zero values keep the
// defaults.
type SuggestOptions struct {
	Now            time.Time
	Duration       time.Duration
	MaxSuggestions int
	CalendarIDs    []string
}

// Suggestion is a proposed slot. Requested marks the slot the text asked for.
type Suggestion struct {
	meeting.SlotCandidate
	Requested bool `json:"requested,omitempty"`
}

// Proposal is the outcome of a suggestion request.
type Proposal struct {
	ThreadID string           `json:"thread_id,omitempty"`
	Subject  string           `json:"subject,omitempty"`
	Decision meeting.Decision `json:"-"`
	Slots    []Suggestion     `json:"slots"`
}

// IsMeetingRequest reports whether the text asked for a meeting.
func (p *Proposal) IsMeetingRequest() bool {
	return p.Decision.IsMeetingRequest
}

// Service proposes meeting slots.
type Service struct {
	opts      Options
	extractor *meeting.Extractor
	busy      BusySource
	threads   ThreadSource
	metrics   *instrumentation.Metrics
	now       func() time.Time
}

// NewService creates a Service. threads may be nil when only text is analyzed, and metrics
// may be nil.
func NewService(opts Options, busy BusySource, threads ThreadSource, metrics *instrumentation.Metrics) *Service {
	if opts.MaxSuggestions <= 0 {
		opts.MaxSuggestions = 3
	}
	if opts.Duration <= 0 {
		opts.Duration = 30 * time.Minute
	}
	if opts.DaysAhead <= 0 {
		opts.DaysAhead = 7
	}
	if len(opts.CalendarIDs) == 0 {
		opts.CalendarIDs = []string{"primary"}
	}
	return &Service{
		opts:      opts,
		extractor: meeting.NewExtractor(meeting.DefaultWeights),
		busy:      busy,
		threads:   threads,
		metrics:   metrics,
		now:       time.Now,
	}
}

// Options returns the service defaults.
func (s *Service) Options() Options {
	return s.opts
}

// DetectIntent decides whether text asks for a meeting. Relative phrases are resolved
// against now in the business hours zone.
func (s *Service) DetectIntent(text string, now time.Time) meeting.Decision {
	return s.opts.Intent.Decide(s.extractor.Extract(text, now.In(s.opts.Policy.Location)))
}

// SuggestForText proposes slots for the meeting text asks for. When text does not ask for
// a meeting the proposal has no slots and no calendar is read.
func (s *Service) SuggestForText(ctx context.Context, text string, opts SuggestOptions) (*Proposal, error) {
	return s.suggest(ctx, text, SourceText, opts)
}

// SuggestForThread proposes slots for the meeting a mail thread asks for.
func (s *Service) SuggestForThread(ctx context.Context, threadID string, opts SuggestOptions) (*Proposal, error) {
	if s.threads == nil {
		return nil, errors.New("no thread source configured")
	}
	thread, err := s.threads.GetThread(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to load thread %s: %w", threadID, err)
	}

	p, err := s.suggest(ctx, thread.Content(), SourceThread, opts)
	if err != nil {
		return nil, err
	}
	p.ThreadID = thread.ID
	p.Subject = thread.Subject()
	return p, nil
}

func (s *Service) suggest(ctx context.Context, text, source string, opts SuggestOptions) (*Proposal, error) {
	opts = s.withDefaults(opts)
	loc := s.opts.Policy.Location

	decision := s.DetectIntent(text, opts.Now)
	s.metrics.RecordIntentDecision(ctx, source, decision.IsMeetingRequest)

	p := &Proposal{Decision: decision}
	if !decision.IsMeetingRequest {
		return p, nil
	}

	from := civil.DateOf(opts.Now.In(loc))
	best, _ := decision.Best()
	if best.Date != nil && best.Date.After(from) {
		from = *best.Date
	}
	to := from.AddDays(s.opts.DaysAhead - 1)

	cal, err := s.busyCalendar(ctx, opts.CalendarIDs, from, to)
	if err != nil {
		return nil, err
	}

	var requested *meeting.SlotCandidate
	if slot, ok := s.requestedSlot(cal, best, opts); ok {
		requested = &slot
		p.Slots = append(p.Slots, Suggestion{SlotCandidate: slot, Requested: true})
	}

	slots, err := meeting.SearchSlots(cal, s.opts.Policy, from, to, opts.Duration, 0)
	if err != nil {
		return nil, err
	}
	for slot := range slots {
		if len(p.Slots) >= opts.MaxSuggestions {
			break
		}
		if slot.Start.Before(opts.Now) {
			continue
		}
		if requested != nil && slot.Start.Equal(requested.Start) {
			continue
		}
		p.Slots = append(p.Slots, Suggestion{SlotCandidate: slot})
	}

	s.metrics.RecordSlotsSuggested(ctx, len(p.Slots))
	return p, nil
}

// requestedSlot returns the slot at the time the best hint names if it lies in the future,
// inside business hours and is free.
func (s *Service) requestedSlot(cal meeting.BusyCalendar, best meeting.MeetingHint, opts SuggestOptions) (meeting.SlotCandidate, bool) {
	start, ok := best.At(s.opts.Policy.Location)
	if !ok || start.Before(opts.Now) {
		return meeting.SlotCandidate{}, false
	}
	end := start.Add(opts.Duration)

	window, ok := s.opts.Policy.Window(civil.DateOf(start))
	if !ok || start.Before(window.Start()) || end.After(window.End()) {
		return meeting.SlotCandidate{}, false
	}
	iv, err := meeting.NewTimeInterval(start, end)
	if err != nil || cal.Busy(iv) {
		return meeting.SlotCandidate{}, false
	}
	return meeting.SlotCandidate{Start: start, End: end, Duration: opts.Duration}, true
}

// FindSlots lists up to limit free slots of duration between from and to, inclusive,
// that start after now. Zero values of duration, limit and calendarIDs use the defaults.
func (s *Service) FindSlots(ctx context.Context, from, to civil.Date, duration time.Duration, limit int, calendarIDs []string) ([]meeting.SlotCandidate, error) {
	opts := s.withDefaults(SuggestOptions{Duration: duration, MaxSuggestions: limit, CalendarIDs: calendarIDs})

	// Validate before reading calendars.
	if _, err := meeting.SearchSlots(meeting.BusyCalendar{}, s.opts.Policy, from, to, opts.Duration, 1); err != nil {
		return nil, err
	}

	cal, err := s.busyCalendar(ctx, opts.CalendarIDs, from, to)
	if err != nil {
		return nil, err
	}
	slots, err := meeting.SearchSlots(cal, s.opts.Policy, from, to, opts.Duration, 0)
	if err != nil {
		return nil, err
	}

	var found []meeting.SlotCandidate
	for slot := range slots {
		if len(found) >= opts.MaxSuggestions {
			break
		}
		if slot.Start.Before(opts.Now) {
			continue
		}
		found = append(found, slot)
	}
	s.metrics.RecordSlotsSuggested(ctx, len(found))
	return found, nil
}

// busyCalendar reads busy events for the days from..to in the policy zone.
func (s *Service) busyCalendar(ctx context.Context, calendarIDs []string, from, to civil.Date) (meeting.BusyCalendar, error) {
	if s.busy == nil {
		return meeting.BusyCalendar{}, errors.New("no calendar configured")
	}
	loc := s.opts.Policy.Location
	events, err := s.busy.BusyEvents(ctx, calendarIDs, from.In(loc), to.AddDays(1).In(loc))
	if err != nil {
		return meeting.BusyCalendar{}, fmt.Errorf("failed to read busy times: %w", err)
	}
	cal, err := meeting.Normalize(events, loc)
	if err != nil {
		return meeting.BusyCalendar{}, fmt.Errorf("failed to normalize busy times: %w", err)
	}
	return cal, nil
}

func (s *Service) withDefaults(opts SuggestOptions) SuggestOptions {
	if opts.Now.IsZero() {
		opts.Now = s.now()
	}
	if opts.Duration <= 0 {
		opts.Duration = s.opts.Duration
	}
	if opts.MaxSuggestions <= 0 {
		opts.MaxSuggestions = s.opts.MaxSuggestions
	}
	if len(opts.CalendarIDs) == 0 {
		opts.CalendarIDs = s.opts.CalendarIDs
	}
	return opts
}
