package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/byteport-bot/internal/models"
)

type MockFinder struct {
	mock.Mock
}

func (m *MockFinder) EndingOn(ctx context.Context, day time.Time) ([]string, error) {
	args := m.Called(ctx, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Render(ctx context.Context, r models.Render) error {
	return m.Called(ctx, r).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

var fixedNow = time.Date(2024, time.May, 10, 12, 0, 0, 0, time.UTC)

func isTomorrow(day time.Time) bool {
	return day.Format("2006-01-02") == "2024-05-11"
}

func TestSchedulerService_runRemindExpiringTomorrow(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(*MockFinder, *MockNotifier)
		wantSent   int
	}{
		{
			name: "success - reminders sent",
			setupMocks: func(f *MockFinder, n *MockNotifier) {
				f.On("EndingOn", mock.Anything, mock.MatchedBy(isTomorrow)).Return([]string{"42", "43"}, nil).Once()
				n.On("Render", mock.Anything, mock.MatchedBy(func(r models.Render) bool {
					return (r.ChatID == 42 || r.ChatID == 43) && r.EditMessageID == 0
				})).Return(nil).Twice()
			},
			wantSent: 2,
		},
		{
			name: "success - no expiring subscriptions",
			setupMocks: func(f *MockFinder, _ *MockNotifier) {
				f.On("EndingOn", mock.Anything, mock.Anything).Return([]string{}, nil).Once()
			},
			wantSent: 0,
		},
		{
			name: "finder error",
			setupMocks: func(f *MockFinder, _ *MockNotifier) {
				f.On("EndingOn", mock.Anything, mock.Anything).Return(nil, errors.New("db error")).Once()
			},
			wantSent: 0,
		},
		{
			name: "non-numeric id skipped",
			setupMocks: func(f *MockFinder, n *MockNotifier) {
				f.On("EndingOn", mock.Anything, mock.Anything).Return([]string{"abc", "42"}, nil).Once()
				n.On("Render", mock.Anything, mock.MatchedBy(func(r models.Render) bool { return r.ChatID == 42 })).
					Return(nil).Once()
			},
			wantSent: 1,
		},
		{
			name: "send error does not stop the loop",
			setupMocks: func(f *MockFinder, n *MockNotifier) {
				f.On("EndingOn", mock.Anything, mock.Anything).Return([]string{"42", "43"}, nil).Once()
				n.On("Render", mock.Anything, mock.MatchedBy(func(r models.Render) bool { return r.ChatID == 42 })).
					Return(errors.New("bot was blocked by the user")).Once()
				n.On("Render", mock.Anything, mock.MatchedBy(func(r models.Render) bool { return r.ChatID == 43 })).
					Return(nil).Once()
			},
			wantSent: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			finder := new(MockFinder)
			notifier := new(MockNotifier)
			service := NewSchedulerService(finder, notifier, newNoopLogger(), time.Hour)
			service.now = func() time.Time { return fixedNow }

			tt.setupMocks(finder, notifier)

			sent := service.runRemindExpiringTomorrow(context.Background())

			assert.Equal(t, tt.wantSent, sent)
			finder.AssertExpectations(t)
			notifier.AssertExpectations(t)
		})
	}
}

func TestReminderText(t *testing.T) {
	assert.Contains(t, reminderText("2024-05-11"), "заканчивается 2024-05-11")
}

func TestSchedulerService_RunStopsOnCancel(t *testing.T) {
	finder := new(MockFinder)
	finder.On("EndingOn", mock.Anything, mock.Anything).Return([]string{}, nil)
	service := NewSchedulerService(finder, new(MockNotifier), newNoopLogger(), 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		service.Run(ctx)
		close(done)
	}()

	time.Sleep(35 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.GreaterOrEqual(t, len(finder.Calls), 2)
}
