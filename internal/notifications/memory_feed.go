package notifications

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/temirov/sfdxwatch/internal/utils"
)

type memoryEntry struct {
	notification Notification
	sequence     int
	sticky       bool
	dismissed    bool
}

// MemoryFeed is an in-process notification feed. Entries stay visible for the
// display duration after they are posted, or until dismissed. A non-positive
// display duration keeps entries visible until dismissed. Expired and dismissed
// entries are dropped on the next Visible call.
type MemoryFeed struct {
	mutex           sync.Mutex
	clock           utils.Clock
	displayDuration time.Duration
	entries         []*memoryEntry
	nextSequence    int
}

// NewMemoryFeed constructs an empty feed.
func NewMemoryFeed(clock utils.Clock, displayDuration time.Duration) *MemoryFeed {
	return &MemoryFeed{
		clock:           utils.ResolveClock(clock),
		displayDuration: displayDuration,
	}
}

// Publish posts a notification at the current time.
func (feed *MemoryFeed) Publish(text string, severity Severity) Notification {
	return feed.PublishAt(feed.clock.Now(), text, severity)
}

// PublishSticky posts a notification that stays visible until dismissed, like a progress indicator.
func (feed *MemoryFeed) PublishSticky(text string, severity Severity) Notification {
	return feed.publish(feed.clock.Now(), text, severity, true)
}

// PublishAt posts a notification that becomes visible at postedAt.
func (feed *MemoryFeed) PublishAt(postedAt time.Time, text string, severity Severity) Notification {
	return feed.publish(postedAt, text, severity, false)
}

func (feed *MemoryFeed) publish(postedAt time.Time, text string, severity Severity, sticky bool) Notification {
	feed.mutex.Lock()
	defer feed.mutex.Unlock()

	notification := Notification{
		ID:       uuid.NewString(),
		Text:     text,
		Severity: severity,
		PostedAt: postedAt,
	}
	feed.entries = append(feed.entries, &memoryEntry{notification: notification, sequence: feed.nextSequence, sticky: sticky})
	feed.nextSequence++
	return notification
}

// Dismiss hides the notification with the identifier. It reports whether a visible entry was dismissed.
func (feed *MemoryFeed) Dismiss(identifier string) bool {
	feed.mutex.Lock()
	defer feed.mutex.Unlock()

	for _, entry := range feed.entries {
		if entry.notification.ID == identifier && !entry.dismissed {
			entry.dismissed = true
			return true
		}
	}
	return false
}

// Visible returns the entries on display now, oldest first.
func (feed *MemoryFeed) Visible(feedContext context.Context) ([]Notification, error) {
	if feedContext != nil {
		if contextError := feedContext.Err(); contextError != nil {
			return nil, contextError
		}
	}

	now := feed.clock.Now()

	feed.mutex.Lock()
	feed.prune(now)
	visibleEntries := make([]*memoryEntry, 0, len(feed.entries))
	for _, entry := range feed.entries {
		if feed.isVisible(entry, now) {
			visibleEntries = append(visibleEntries, entry)
		}
	}
	feed.mutex.Unlock()

	sort.SliceStable(visibleEntries, func(leftIndex int, rightIndex int) bool {
		leftEntry := visibleEntries[leftIndex]
		rightEntry := visibleEntries[rightIndex]
		if !leftEntry.notification.PostedAt.Equal(rightEntry.notification.PostedAt) {
			return leftEntry.notification.PostedAt.Before(rightEntry.notification.PostedAt)
		}
		return leftEntry.sequence < rightEntry.sequence
	})

	notifications := make([]Notification, 0, len(visibleEntries))
	for _, entry := range visibleEntries {
		notifications = append(notifications, entry.notification)
	}
	return notifications, nil
}

// Len reports how many entries the feed still retains.
func (feed *MemoryFeed) Len() int {
	feed.mutex.Lock()
	defer feed.mutex.Unlock()
	return len(feed.entries)
}

// prune drops dismissed entries and expired non-sticky entries. Callers hold the mutex.
func (feed *MemoryFeed) prune(now time.Time) {
	retainedEntries := feed.entries[:0]
	for _, entry := range feed.entries {
		if entry.dismissed || feed.isExpired(entry, now) {
			continue
		}
		retainedEntries = append(retainedEntries, entry)
	}
	for index := len(retainedEntries); index < len(feed.entries); index++ {
		feed.entries[index] = nil
	}
	feed.entries = retainedEntries
}

func (feed *MemoryFeed) isExpired(entry *memoryEntry, now time.Time) bool {
	if entry.sticky || feed.displayDuration <= 0 {
		return false
	}
	return !now.Before(entry.notification.PostedAt.Add(feed.displayDuration))
}

func (feed *MemoryFeed) isVisible(entry *memoryEntry, now time.Time) bool {
	if entry.dismissed {
		return false
	}
	if now.Before(entry.notification.PostedAt) {
		return false
	}
	return !feed.isExpired(entry, now)
}
