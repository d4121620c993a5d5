package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"salesledger/internal/apperrors"
	"salesledger/internal/repository"
)

const (
	PrefixOrder   = "SO"
	PrefixPayment = "PAY"
	PrefixTrip    = "TRP"

	maxNumberAttempts = 5
)

// numberer issues document numbers like SO-20260115-00042 from a per-day sequence row.
type numberer struct {
	seq repository.SequenceRepository
	now func() time.Time
}

func (n *numberer) Next(ctx context.Context, prefix string) (string, error) {
	day := n.now().Format("20060102")
	v, err := n.seq.Next(ctx, prefix+"-"+day)
	if err != nil {
		return "", fmt.Errorf("failed to allocate %s number: %w", prefix, err)
	}
	return fmt.Sprintf("%s-%s-%05d", prefix, day, v), nil
}

// retryOnDuplicate reruns a whole unit of work when it collides on a unique number.
// A failed statement aborts a postgres transaction, so the retry must start a new one.
func retryOnDuplicate(fn func() error) error {
	var err error
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		if err = fn(); !errors.Is(err, apperrors.ErrDuplicate) {
			return err
		}
	}
	return err
}
