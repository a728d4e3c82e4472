package circuitbreaker

import (
	"errors"
	"testing"

	"github.com/sony/gobreaker/v2"

	"github.com/fd1az/swap-aggregator/internal/apperror"
)

func TestCircuitBreaker_TripsAndRejects(t *testing.T) {
	cfg := DefaultConfig("test")
	cfg.MinRequests = 2
	cfg.FailureRatio = 0.5
	cb := New[int](cfg)

	boom := errors.New("boom")
	for i := 0; i < 2; i++ {
		if _, err := cb.Execute(func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
			t.Fatalf("call %d: err = %v, want boom", i, err)
		}
	}

	if cb.State() != gobreaker.StateOpen {
		t.Fatalf("State() = %v, want open", cb.State())
	}

	_, err := cb.Execute(func() (int, error) { return 1, nil })
	if apperror.GetCode(err) != apperror.CodeCircuitOpen {
		t.Fatalf("err = %v, want CIRCUIT_OPEN", err)
	}
}

func TestCircuitBreaker_IsSuccessfulExcludesBusinessErrors(t *testing.T) {
	revert := errors.New("execution reverted")
	cfg := DefaultConfig("test")
	cfg.MinRequests = 1
	cfg.IsSuccessful = func(err error) bool { return err == nil || errors.Is(err, revert) }
	cb := New[int](cfg)

	for i := 0; i < 5; i++ {
		_, _ = cb.Execute(func() (int, error) { return 0, revert })
	}
	if cb.State() != gobreaker.StateClosed {
		t.Fatalf("State() = %v, want closed", cb.State())
	}
}
