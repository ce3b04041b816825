// Package rotation runs a single external call against a pool of API keys,
// moving to the next key only when the current one reports quota exhaustion.
//
// The executor keeps no state between calls. The caller seeds the cursor
// (usually the index that last succeeded) and persists Result.Index afterwards,
// so a working key sticks across independent requests.
package rotation

import (
	"context"
	"errors"
	"log/slog"
)

// Operation is one external call parameterized by exactly one credential.
type Operation[T any] func(ctx context.Context, credential string) (T, error)

// Result is the successful outcome of Execute.
type Result[T any] struct {
	Value    T
	Index    int // pool index of the credential that succeeded
	Attempts int
}

// Execute tries op with pool[start], pool[start+1], ... until one succeeds.
//
// Quota failures (IsQuotaExhaustion) advance the cursor; any other failure
// aborts immediately. Attempts are strictly sequential. The returned error is
// always a *Failure.
func Execute[T any](ctx context.Context, pool []string, start int, op Operation[T]) (Result[T], error) {
	var zero Result[T]

	if len(pool) == 0 {
		return zero, NoCredentials()
	}
	if op == nil {
		return zero, newFailure(KindInvalidInput, errors.New("no operation supplied"), 0)
	}

	index := max(start, 0)
	attempts := 0
	for index < len(pool) {
		if err := ctx.Err(); err != nil {
			return zero, newFailure(KindOperationError, err, attempts)
		}

		attempts++
		value, err := op(ctx, pool[index])
		if err == nil {
			return Result[T]{Value: value, Index: index, Attempts: attempts}, nil
		}

		if !IsQuotaExhaustion(err) {
			return zero, newFailure(KindOperationError, err, attempts)
		}

		slog.Warn("rotation: credential quota exhausted, trying next",
			slog.Int("index", index),
			slog.String("key", MaskKey(pool[index])),
			slog.Int("pool_size", len(pool)))
		index++
	}

	return zero, newFailure(KindQuotaExhausted, ErrPoolExhausted, attempts)
}

// MaskKey renders a credential safe for logs: first and last 4 characters.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "…" + key[len(key)-4:]
}
