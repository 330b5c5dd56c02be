package notifications_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/sfdxwatch/internal/notifications"
	"github.com/temirov/sfdxwatch/internal/testsupport"
)

const (
	testSuccessNotificationConstant   = "Pick an Apex debug log to get"
	testFailureNotificationConstant   = "No Apex debug logs were found"
	testRunningNotificationConstant   = "Running SFDX: Get Apex Debug Logs"
	testUnrelatedNotificationConstant = "SFDX: Authorize an Org successfully ran"
	testPollIntervalConstant          = time.Second
	testQueryTimeoutConstant          = 5 * time.Second
)

var testStartTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type countingFeed struct {
	delegate notifications.Feed
	mutex    sync.Mutex
	reads    int
}

func (feed *countingFeed) Visible(feedContext context.Context) ([]notifications.Notification, error) {
	feed.mutex.Lock()
	feed.reads++
	feed.mutex.Unlock()
	return feed.delegate.Visible(feedContext)
}

func (feed *countingFeed) readCount() int {
	feed.mutex.Lock()
	defer feed.mutex.Unlock()
	return feed.reads
}

func newTestMonitor(testInstance *testing.T, feed notifications.Feed, clock *testsupport.FakeClock) *notifications.Monitor {
	testInstance.Helper()
	monitor, creationError := notifications.NewMonitor(feed, zap.NewNop(),
		notifications.WithPollInterval(testPollIntervalConstant),
		notifications.WithMonitorClock(clock),
	)
	require.NoError(testInstance, creationError)
	return monitor
}

func outcomeQuery() notifications.Query {
	return notifications.Query{
		Patterns: []string{testSuccessNotificationConstant, testFailureNotificationConstant},
		Mode:     notifications.MatchModeExact,
		Timeout:  testQueryTimeoutConstant,
	}
}

func TestMonitorWaitForScenarios(testInstance *testing.T) {
	testCases := []struct {
		name             string
		postedText       string
		postedAfter      time.Duration
		expectedStatus   notifications.MatchStatus
		expectedPattern  string
		expectedAttempts int
		expectedElapsed  time.Duration
	}{
		{
			name:             "success_within_two_cycles",
			postedText:       testSuccessNotificationConstant,
			postedAfter:      1500 * time.Millisecond,
			expectedStatus:   notifications.MatchStatusFound,
			expectedPattern:  testSuccessNotificationConstant,
			expectedAttempts: 3,
			expectedElapsed:  2 * time.Second,
		},
		{
			name:             "expected_failure",
			postedText:       testFailureNotificationConstant,
			postedAfter:      0,
			expectedStatus:   notifications.MatchStatusFound,
			expectedPattern:  testFailureNotificationConstant,
			expectedAttempts: 1,
			expectedElapsed:  0,
		},
		{
			name:             "nothing_within_budget",
			postedText:       testUnrelatedNotificationConstant,
			postedAfter:      0,
			expectedStatus:   notifications.MatchStatusTimedOut,
			expectedAttempts: 6,
			expectedElapsed:  testQueryTimeoutConstant,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			clock := testsupport.NewFakeClock(testStartTime)
			feed := notifications.NewMemoryFeed(clock, 0)
			feed.PublishAt(testStartTime.Add(testCase.postedAfter), testCase.postedText, notifications.SeverityInformation)

			result := newTestMonitor(testInstance, feed, clock).WaitFor(context.Background(), outcomeQuery())

			require.Equal(testInstance, testCase.expectedStatus, result.Status)
			require.Equal(testInstance, testCase.expectedPattern, result.MatchedPattern)
			require.Equal(testInstance, testCase.expectedAttempts, result.Attempts)
			require.Equal(testInstance, testCase.expectedElapsed, result.Elapsed)
			if testCase.expectedStatus == notifications.MatchStatusFound {
				require.Equal(testInstance, testCase.postedText, result.Notification.Text)
			}
			if testCase.expectedStatus == notifications.MatchStatusTimedOut {
				require.GreaterOrEqual(testInstance, result.Attempts, 5)
			}
		})
	}
}

func TestMonitorWaitForReturnsWithinTimeoutPlusOneInterval(testInstance *testing.T) {
	timeouts := []time.Duration{0, 300 * time.Millisecond, 2500 * time.Millisecond, 5 * time.Second, 7 * time.Second}

	for _, timeout := range timeouts {
		testInstance.Run(timeout.String(), func(testInstance *testing.T) {
			clock := testsupport.NewFakeClock(testStartTime)
			feed := notifications.NewMemoryFeed(clock, 0)
			query := outcomeQuery()
			query.Timeout = timeout

			result := newTestMonitor(testInstance, feed, clock).WaitFor(context.Background(), query)

			require.Equal(testInstance, notifications.MatchStatusTimedOut, result.Status)
			require.GreaterOrEqual(testInstance, result.Elapsed, timeout)
			require.LessOrEqual(testInstance, result.Elapsed, timeout+testPollIntervalConstant)
			require.Equal(testInstance, result.Elapsed, clock.Now().Sub(testStartTime))
		})
	}
}

func TestMonitorDoesNotReportScrolledOutNotifications(testInstance *testing.T) {
	clock := testsupport.NewFakeClock(testStartTime)
	feed := notifications.NewMemoryFeed(clock, 2*time.Second)
	monitor := newTestMonitor(testInstance, feed, clock)
	feed.Publish(testSuccessNotificationConstant, notifications.SeverityInformation)

	firstResult := monitor.WaitFor(context.Background(), outcomeQuery())
	require.Equal(testInstance, notifications.MatchStatusFound, firstResult.Status)

	clock.Advance(3 * time.Second)
	query := outcomeQuery()
	query.Timeout = 2 * time.Second
	secondResult := monitor.WaitFor(context.Background(), query)
	require.Equal(testInstance, notifications.MatchStatusTimedOut, secondResult.Status)
	require.Empty(testInstance, secondResult.MatchedPattern)
}

func TestMonitorPrefersOldestMatchingNotification(testInstance *testing.T) {
	testCases := []struct {
		name            string
		publish         func(feed *notifications.MemoryFeed)
		expectedPattern string
	}{
		{
			name: "feed_order_breaks_ties",
			publish: func(feed *notifications.MemoryFeed) {
				feed.PublishAt(testStartTime, testFailureNotificationConstant, notifications.SeverityError)
				feed.PublishAt(testStartTime, testSuccessNotificationConstant, notifications.SeverityInformation)
			},
			expectedPattern: testFailureNotificationConstant,
		},
		{
			name: "older_post_wins_regardless_of_publish_order",
			publish: func(feed *notifications.MemoryFeed) {
				feed.PublishAt(testStartTime.Add(-time.Second), testRunningNotificationConstant, notifications.SeverityInformation)
				feed.PublishAt(testStartTime, testFailureNotificationConstant, notifications.SeverityError)
				feed.PublishAt(testStartTime.Add(-500*time.Millisecond), testSuccessNotificationConstant, notifications.SeverityInformation)
			},
			expectedPattern: testSuccessNotificationConstant,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			clock := testsupport.NewFakeClock(testStartTime)
			feed := notifications.NewMemoryFeed(clock, 0)
			testCase.publish(feed)

			result := newTestMonitor(testInstance, feed, clock).WaitFor(context.Background(), outcomeQuery())
			require.Equal(testInstance, notifications.MatchStatusFound, result.Status)
			require.Equal(testInstance, testCase.expectedPattern, result.MatchedPattern)
			require.Equal(testInstance, 1, result.Attempts)
		})
	}
}

func TestMonitorPrefixMatching(testInstance *testing.T) {
	clock := testsupport.NewFakeClock(testStartTime)
	feed := notifications.NewMemoryFeed(clock, 0)
	feed.Publish("Replay Debugger failed: no log file", notifications.SeverityError)

	query := notifications.Query{Patterns: []string{"Replay Debugger failed"}, Mode: notifications.MatchModePrefix, Timeout: time.Second}
	result := newTestMonitor(testInstance, feed, clock).WaitFor(context.Background(), query)
	require.Equal(testInstance, notifications.MatchStatusFound, result.Status)
	require.Equal(testInstance, "Replay Debugger failed", result.MatchedPattern)
	require.Equal(testInstance, "Replay Debugger failed: no log file", result.Notification.Text)

	query.Mode = notifications.MatchModeExact
	exactResult := newTestMonitor(testInstance, feed, clock).WaitFor(context.Background(), query)
	require.Equal(testInstance, notifications.MatchStatusTimedOut, exactResult.Status)
}

func TestMonitorCancellationStopsPolling(testInstance *testing.T) {
	clock := testsupport.NewFakeClock(testStartTime)
	feed := &countingFeed{delegate: notifications.NewMemoryFeed(clock, 0)}
	waitContext, cancelWait := context.WithCancel(context.Background())
	defer cancelWait()

	clock.OnSleep(func(sleepCount int) {
		if sleepCount == 2 {
			cancelWait()
		}
	})

	result := newTestMonitor(testInstance, feed, clock).WaitFor(waitContext, outcomeQuery())

	require.Equal(testInstance, notifications.MatchStatusCancelled, result.Status)
	require.Equal(testInstance, 2, result.Attempts)
	require.Equal(testInstance, 2, feed.readCount())
	require.Equal(testInstance, 2, clock.SleepCount())
}

func TestMonitorCancelledBeforeFirstPoll(testInstance *testing.T) {
	clock := testsupport.NewFakeClock(testStartTime)
	feed := &countingFeed{delegate: notifications.NewMemoryFeed(clock, 0)}
	waitContext, cancelWait := context.WithCancel(context.Background())
	cancelWait()

	result := newTestMonitor(testInstance, feed, clock).WaitFor(waitContext, outcomeQuery())
	require.Equal(testInstance, notifications.MatchStatusCancelled, result.Status)
	require.Zero(testInstance, result.Attempts)
	require.Zero(testInstance, feed.readCount())
}

func TestMonitorWaitForAbsence(testInstance *testing.T) {
	testCases := []struct {
		name             string
		dismissAtSleep   int
		expectedStatus   notifications.MatchStatus
		expectedAttempts int
	}{
		{
			name:             "notification_goes_away",
			dismissAtSleep:   3,
			expectedStatus:   notifications.MatchStatusFound,
			expectedAttempts: 4,
		},
		{
			name:             "notification_stays",
			dismissAtSleep:   0,
			expectedStatus:   notifications.MatchStatusTimedOut,
			expectedAttempts: 6,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			clock := testsupport.NewFakeClock(testStartTime)
			feed := notifications.NewMemoryFeed(clock, 0)
			running := feed.Publish(testRunningNotificationConstant, notifications.SeverityInformation)
			clock.OnSleep(func(sleepCount int) {
				if sleepCount == testCase.dismissAtSleep {
					require.True(testInstance, feed.Dismiss(running.ID))
				}
			})

			query := notifications.Query{Patterns: []string{testRunningNotificationConstant}, Timeout: testQueryTimeoutConstant}
			result := newTestMonitor(testInstance, feed, clock).WaitForAbsence(context.Background(), query)
			require.Equal(testInstance, testCase.expectedStatus, result.Status)
			require.Equal(testInstance, testCase.expectedAttempts, result.Attempts)
		})
	}
}

func TestNewMonitorValidation(testInstance *testing.T) {
	_, missingFeedError := notifications.NewMonitor(nil, zap.NewNop())
	require.ErrorIs(testInstance, missingFeedError, notifications.ErrFeedNotConfigured)

	_, missingLoggerError := notifications.NewMonitor(notifications.NewMemoryFeed(nil, 0), nil)
	require.ErrorIs(testInstance, missingLoggerError, notifications.ErrLoggerNotConfigured)

	monitor, creationError := notifications.NewMonitor(notifications.NewMemoryFeed(nil, 0), zap.NewNop(), notifications.WithPollInterval(-time.Second))
	require.NoError(testInstance, creationError)
	require.Equal(testInstance, notifications.DefaultPollInterval, monitor.PollInterval())
}
