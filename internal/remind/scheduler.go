package remind

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mhollis/serenity/internal/model"
	"github.com/mhollis/serenity/internal/storage"
)

const (
	tickInterval = 60 * time.Second
	leadTime     = 30 * time.Minute
)

// Scheduler periodically checks the meeting schedule and sends a reminder
// shortly before each meeting starts.
type Scheduler struct {
	mu      sync.RWMutex
	service *Service
	store   *storage.Adapter
	logger  *slog.Logger
	sent    map[string]bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewScheduler creates a meeting reminder scheduler.
func NewScheduler(svc *Service, store *storage.Adapter, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		service: svc,
		store:   store,
		logger:  logger,
		sent:    make(map[string]bool),
	}
}

// Start begins the scheduler loop. It is a no-op when VAPID keys are not
// configured.
func (s *Scheduler) Start(ctx context.Context) {
	if !s.service.Enabled() {
		s.logger.Info("meeting reminders disabled, no VAPID keys")
		return
	}

	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(ctx, time.Now())
			}
		}
	}()
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	s.prune(now)

	subs := Subscriptions(ctx, s.store)
	if len(subs) == 0 {
		return
	}

	meetings := model.MeetingsFromRecords(s.store.GetAll(ctx, "meetings"))
	for _, due := range dueMeetings(meetings, now, leadTime) {
		key := due.dedupeKey(now)

		s.mu.Lock()
		already := s.sent[key]
		if !already {
			s.sent[key] = true
		}
		s.mu.Unlock()
		if already {
			continue
		}

		payload := Payload{
			Title: "Meeting Reminder",
			Body:  fmt.Sprintf("%s starts at %s", due.Meeting.Name, due.Entry.Time),
			URL:   "/meetings",
			Tag:   "meeting-" + due.Meeting.ID,
		}

		for _, sub := range subs {
			if err := s.service.Send(sub, payload); err != nil {
				if errors.Is(err, ErrExpired) {
					if err := Unsubscribe(ctx, s.store, sub.Endpoint); err != nil {
						s.logger.Error("drop expired subscription", "error", err)
					}
				} else {
					s.logger.Error("send meeting reminder", "meeting", due.Meeting.ID, "error", err)
				}
			}
		}
	}
}

// prune drops dedupe entries from earlier days. Keys end in the send date,
// so anything not suffixed with today is stale.
func (s *Scheduler) prune(now time.Time) {
	today := "|" + now.Format("2006-01-02")

	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.sent {
		if !strings.HasSuffix(key, today) {
			delete(s.sent, key)
		}
	}
}

// dueMeeting pairs a meeting with the schedule slot that triggered it.
type dueMeeting struct {
	Meeting model.Meeting
	Entry   model.ScheduleEntry
	Start   time.Time
}

func (d dueMeeting) dedupeKey(now time.Time) string {
	return d.Meeting.ID + "|" + d.Entry.Day + "|" + d.Entry.Time + "|" + now.Format("2006-01-02")
}

// dueMeetings returns the meetings whose next occurrence falls within lead
// of now. Schedule times are interpreted in now's location.
func dueMeetings(meetings []model.Meeting, now time.Time, lead time.Duration) []dueMeeting {
	weekday := strings.ToLower(now.Weekday().String())

	var due []dueMeeting
	for _, m := range meetings {
		for _, entry := range m.Schedule {
			if !strings.EqualFold(entry.Day, weekday) {
				continue
			}
			start, ok := entryStart(entry.Time, now)
			if !ok {
				continue
			}
			if !now.Before(start.Add(-lead)) && now.Before(start) {
				due = append(due, dueMeeting{Meeting: m, Entry: entry, Start: start})
			}
		}
	}
	return due
}

// entryStart resolves an HH:MM schedule time against now's date and location.
func entryStart(hhmm string, now time.Time) (time.Time, bool) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location()), true
}
