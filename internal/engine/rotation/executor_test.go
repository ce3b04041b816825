package rotation

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scripted returns an operation that replies per credential and records call order.
func scripted(replies map[string]error, value string) (Operation[string], *[]string) {
	var calls []string
	op := func(_ context.Context, cred string) (string, error) {
		calls = append(calls, cred)
		if err := replies[cred]; err != nil {
			return "", err
		}
		return value + ":" + cred, nil
	}
	return op, &calls
}

var errQuota = errors.New(`{"error":{"code":429,"message":"Resource has been exhausted","status":"RESOURCE_EXHAUSTED"}}`)

func TestExecute_EmptyPool(t *testing.T) {
	for _, pool := range [][]string{nil, {}} {
		op, calls := scripted(nil, "v")
		_, err := Execute(context.Background(), pool, 0, op)

		var f *Failure
		require.ErrorAs(t, err, &f)
		assert.Equal(t, KindInvalidInput, f.Kind)
		assert.ErrorIs(t, err, ErrNoCredentials)
		assert.Empty(t, *calls)
	}
}

func TestExecute_RotatesUntilSuccess(t *testing.T) {
	pool := []string{"k0", "k1", "k2", "k3", "k4"}
	for k := 0; k < len(pool); k++ {
		t.Run(fmt.Sprintf("success_at_%d", k), func(t *testing.T) {
			replies := map[string]error{}
			for i := 0; i < k; i++ {
				replies[pool[i]] = errQuota
			}
			op, calls := scripted(replies, "ok")

			res, err := Execute(context.Background(), pool, 0, op)
			require.NoError(t, err)
			assert.Equal(t, k, res.Index)
			assert.Equal(t, "ok:"+pool[k], res.Value)
			assert.Equal(t, k+1, res.Attempts)
			assert.Equal(t, pool[:k+1], *calls)
		})
	}
}

func TestExecute_AllQuotaFromStart(t *testing.T) {
	pool := []string{"a", "b", "c", "d"}
	for start := 0; start < len(pool); start++ {
		replies := map[string]error{"a": errQuota, "b": errQuota, "c": errQuota, "d": errQuota}
		op, calls := scripted(replies, "v")

		_, err := Execute(context.Background(), pool, start, op)

		var f *Failure
		require.ErrorAs(t, err, &f)
		assert.Equal(t, KindQuotaExhausted, f.Kind)
		assert.ErrorIs(t, err, ErrPoolExhausted)
		assert.Len(t, *calls, len(pool)-start)
		assert.Equal(t, len(pool)-start, f.Attempts)
	}
}

func TestExecute_NonQuotaAbortsImmediately(t *testing.T) {
	op, calls := scripted(map[string]error{"A": errors.New("malformed prompt")}, "v")

	_, err := Execute(context.Background(), []string{"A", "B", "C"}, 0, op)

	var f *Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, KindOperationError, f.Kind)
	assert.Equal(t, "malformed prompt", f.Message)
	assert.Equal(t, []string{"A"}, *calls)
}

func TestExecute_ContentErrorDoesNotRotate(t *testing.T) {
	modelText := errors.New("model returned text instead of an image: I can't edit this image; it shows 429 people in a stadium.")
	op, calls := scripted(map[string]error{"A": NotQuota(modelText)}, "v")

	_, err := Execute(context.Background(), []string{"A", "B", "C"}, 0, op)

	var f *Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, KindOperationError, f.Kind)
	assert.Equal(t, 1, f.Attempts)
	assert.ErrorIs(t, err, modelText)
	assert.Equal(t, []string{"A"}, *calls)
}

func TestExecute_SeededIndexSkipsEarlierKeys(t *testing.T) {
	pool := []string{"A", "B", "C"}
	replies := map[string]error{"A": errQuota, "B": errQuota}

	op, _ := scripted(replies, "first")
	first, err := Execute(context.Background(), pool, 0, op)
	require.NoError(t, err)
	require.Equal(t, 2, first.Index)

	op, calls := scripted(replies, "second")
	second, err := Execute(context.Background(), pool, first.Index, op)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Index)
	assert.Equal(t, []string{"C"}, *calls)
}

func TestExecute_StartBeyondPool(t *testing.T) {
	for _, start := range []int{3, 4, 100} {
		op, calls := scripted(nil, "v")
		_, err := Execute(context.Background(), []string{"A", "B", "C"}, start, op)

		assert.Equal(t, KindQuotaExhausted, KindOf(err))
		assert.Empty(t, *calls)
	}
}

func TestExecute_NegativeStartClamped(t *testing.T) {
	op, calls := scripted(nil, "v")
	res, err := Execute(context.Background(), []string{"A", "B"}, -3, op)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Index)
	assert.Equal(t, []string{"A"}, *calls)
}

func TestExecute_ScenarioThreeKeys(t *testing.T) {
	var calls []string
	op := func(_ context.Context, cred string) (string, error) {
		calls = append(calls, cred)
		if cred == "C" {
			return "report-text", nil
		}
		return "", fmt.Errorf("gemini: %w", ErrQuotaExhausted)
	}

	res, err := Execute(context.Background(), []string{"A", "B", "C"}, 0, op)
	require.NoError(t, err)
	assert.Equal(t, Result[string]{Value: "report-text", Index: 2, Attempts: 3}, res)
	assert.Equal(t, []string{"A", "B", "C"}, calls)
}

func TestExecute_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	op, calls := scripted(nil, "v")
	_, err := Execute(ctx, []string{"A", "B"}, 0, op)

	assert.Equal(t, KindOperationError, KindOf(err))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, *calls)
}

func TestExecute_CancellationDuringAttemptDoesNotRotate(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls []string
	op := func(ctx context.Context, cred string) (string, error) {
		calls = append(calls, cred)
		cancel()
		return "", fmt.Errorf("request aborted (status 429 pending): %w", ctx.Err())
	}

	_, err := Execute(ctx, []string{"A", "B"}, 0, op)
	assert.Equal(t, KindOperationError, KindOf(err))
	assert.Equal(t, []string{"A"}, calls)
}

func TestExecute_PoolNotMutated(t *testing.T) {
	pool := []string{"A", "B"}
	op, _ := scripted(map[string]error{"A": errQuota}, "v")
	_, err := Execute(context.Background(), pool, 0, op)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, pool)
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "****", MaskKey("short"))
	assert.Equal(t, "AIza…wxyz", MaskKey("AIzaSyDwTSvkH1mvEuwxyz"))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "invalid_input", KindInvalidInput.String())
	assert.Equal(t, "quota_exhausted", KindQuotaExhausted.String())
	assert.Equal(t, "operation_error", KindOperationError.String())
	assert.Equal(t, Kind(0), KindOf(errors.New("plain")))
}
