package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDo(t *testing.T) {
	testCases := []struct {
		name           string
		policy         Policy
		succeedAt      int
		failWith       error
		expectErr      error
		expectAttempts int
		expectWaits    int
		expectFailed   bool
	}{
		{
			name:           "first attempt",
			policy:         Policy{MaxAttempts: 3, Delay: time.Millisecond},
			succeedAt:      1,
			expectAttempts: 1,
		},
		{
			name:           "after contention",
			policy:         Policy{MaxAttempts: 5, Delay: time.Millisecond},
			succeedAt:      3,
			expectAttempts: 3,
			expectWaits:    2,
		},
		{
			name:           "exhausted",
			policy:         Policy{MaxAttempts: 3, Delay: time.Millisecond, Backoff: BackoffExponential, MaxDelay: 2 * time.Millisecond},
			succeedAt:      10,
			expectErr:      ErrExhausted,
			expectAttempts: 3,
			expectWaits:    2,
			expectFailed:   true,
		},
		{
			name:           "non contention error",
			policy:         Policy{MaxAttempts: 3, Delay: time.Millisecond},
			failWith:       errors.New("storage down"),
			expectAttempts: 1,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			attempts, waits := 0, 0
			failed := false
			hooks := Hooks{
				FailedWaiting:     func(attempt int, wait time.Duration) { waits++ },
				FailedPermanently: func(attempts int) { failed = true },
			}
			value, err := Do(context.Background(), testCase.policy, hooks, func(ctx context.Context) (string, bool, error) {
				attempts++
				if testCase.failWith != nil {
					return "", false, testCase.failWith
				}
				if attempts < testCase.succeedAt {
					return "", false, nil
				}
				return "locked", true, nil
			})
			assert.Equal(t, testCase.expectAttempts, attempts)
			assert.Equal(t, testCase.expectWaits, waits)
			assert.Equal(t, testCase.expectFailed, failed)
			switch {
			case testCase.failWith != nil:
				assert.ErrorIs(t, err, testCase.failWith)
			case testCase.expectErr != nil:
				assert.ErrorIs(t, err, testCase.expectErr)
			default:
				assert.NoError(t, err)
				assert.Equal(t, "locked", value)
			}
		})
	}
}

func TestDo_Interrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	interrupted := false
	hooks := Hooks{
		FailedWaiting: func(attempt int, wait time.Duration) { cancel() },
		Interrupted:   func(err error) { interrupted = true },
	}
	_, err := Do(ctx, Policy{MaxAttempts: 10, Delay: 50 * time.Millisecond}, hooks, func(ctx context.Context) (int, bool, error) {
		return 0, false, nil
	})
	assert.ErrorIs(t, err, ErrInterrupted)
	assert.True(t, interrupted)
}
