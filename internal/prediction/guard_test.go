package prediction

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPredictor struct {
	calls  atomic.Int32
	result any
	err    error
}

func (s *stubPredictor) Run(ctx context.Context, req Request) (any, error) {
	s.calls.Add(1)
	return s.result, s.err
}

func TestGuard_OpensAfterConsecutiveFailures(t *testing.T) {
	stub := &stubPredictor{err: newError(KindExecutionFailure, "predict_risk", "boom", nil)}
	guarded := Guard(stub, 2, nil)

	for i := 0; i < 2; i++ {
		_, err := guarded.Run(context.Background(), Request{Command: "predict_risk"})
		assert.Equal(t, KindExecutionFailure, KindOf(err))
	}

	_, err := guarded.Run(context.Background(), Request{Command: "predict_risk"})
	assert.Equal(t, KindUnavailable, KindOf(err))
	assert.Equal(t, int32(2), stub.calls.Load(), "an open breaker must not call through")
	assert.Equal(t, "open", guarded.(*Guarded).State())
}

func TestGuard_TimeoutsCountAsFailures(t *testing.T) {
	stub := &stubPredictor{err: newError(KindTimeout, "predict_eta", "", context.DeadlineExceeded)}
	guarded := Guard(stub, 1, nil)

	_, err := guarded.Run(context.Background(), Request{Command: "predict_eta"})
	assert.Equal(t, KindTimeout, KindOf(err))

	_, err = guarded.Run(context.Background(), Request{Command: "predict_eta"})
	assert.Equal(t, KindUnavailable, KindOf(err))
}

func TestGuard_MalformedAndCanceledDoNotTrip(t *testing.T) {
	for _, kind := range []Kind{KindMalformedResponse, KindCanceled, KindInvalidRequest} {
		t.Run(string(kind), func(t *testing.T) {
			stub := &stubPredictor{err: newError(kind, "predict_compat", "", nil)}
			guarded := Guard(stub, 1, nil)

			for i := 0; i < 4; i++ {
				_, err := guarded.Run(context.Background(), Request{Command: "predict_compat"})
				assert.Equal(t, kind, KindOf(err))
			}
			assert.Equal(t, int32(4), stub.calls.Load())
		})
	}
}

func TestGuard_PassesResultsThrough(t *testing.T) {
	stub := &stubPredictor{result: map[string]any{"eta": "7"}}
	guarded := Guard(stub, 3, nil)

	result, err := guarded.Run(context.Background(), Request{Command: "predict_eta"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"eta": "7"}, result)
}

func TestGuard_ZeroThresholdDisablesBreaker(t *testing.T) {
	stub := &stubPredictor{}
	assert.Same(t, stub, Guard(stub, 0, nil))
}
