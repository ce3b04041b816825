package seo

import (
	"context"
	"errors"

	"github.com/duongtho001/Youseo/internal/engine"
	"github.com/duongtho001/Youseo/internal/engine/rotation"
)

var ErrNoKeys = errors.New("no keys supplied")

// SetKeys replaces the key pool and resets the cursor. Keys from the list and
// the pasted text are combined, list first.
func (s *Service) SetKeys(ctx context.Context, in engine.KeysSetInput) (*engine.KeyStatusOutput, error) {
	keys := append(engine.CleanKeys(in.Keys), engine.ParseKeyList(in.Text)...)
	if len(keys) == 0 {
		return nil, ErrNoKeys
	}
	if err := s.Store.SetKeys(ctx, keys); err != nil {
		return nil, err
	}
	return s.KeyStatus(ctx)
}

// KeyStatus reports the pool size, cursor and masked keys.
func (s *Service) KeyStatus(ctx context.Context) (*engine.KeyStatusOutput, error) {
	keys, cursor, err := s.Store.Keys(ctx)
	if err != nil {
		return nil, err
	}
	masked := make([]string, len(keys))
	for i, k := range keys {
		masked[i] = rotation.MaskKey(k)
	}
	return &engine.KeyStatusOutput{Count: len(keys), Cursor: cursor, Keys: masked}, nil
}

// History lists past analyses, newest first.
func (s *Service) History(ctx context.Context) (*engine.HistoryOutput, error) {
	items, err := s.Store.History(ctx)
	if err != nil {
		return nil, err
	}
	return &engine.HistoryOutput{Items: items, Total: len(items)}, nil
}

func (s *Service) DeleteHistory(ctx context.Context, videoID string) (bool, error) {
	return s.Store.DeleteHistory(ctx, videoID)
}

func (s *Service) ClearHistory(ctx context.Context) error {
	return s.Store.ClearHistory(ctx)
}
