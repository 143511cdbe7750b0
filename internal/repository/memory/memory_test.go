package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printshop-commerce/internal/domain"
	"printshop-commerce/internal/repository/store"
)

func TestInTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	owner := domain.AnonymousOwner("tok")
	boom := errors.New("boom")

	err := s.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if _, err := tx.Carts().GetOrCreateOpen(ctx, owner, "USD"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = s.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		_, err := tx.Carts().GetOpen(ctx, owner)
		return err
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSaveReparentsLines(t *testing.T) {
	ctx := context.Background()
	s := New()
	guest := domain.AnonymousOwner("tok")
	user := domain.UserOwner("u-1")

	err := s.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		g, err := tx.Carts().GetOrCreateOpen(ctx, guest, "USD")
		if err != nil {
			return err
		}
		g.Lines = append(g.Lines, domain.CartLine{ID: "l1", Quantity: 1})
		if err := tx.Carts().Save(ctx, g); err != nil {
			return err
		}
		u, err := tx.Carts().GetOrCreateOpen(ctx, user, "USD")
		if err != nil {
			return err
		}
		u.Lines = append(u.Lines, g.Lines[0])
		return tx.Carts().Save(ctx, u)
	})
	require.NoError(t, err)

	err = s.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		cartID, err := tx.Carts().LineCartID(ctx, "l1")
		require.NoError(t, err)
		u, err := tx.Carts().GetOpen(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, u.ID, cartID)
		g, err := tx.Carts().GetOpen(ctx, guest)
		require.NoError(t, err)
		assert.Empty(t, g.Lines)
		return nil
	})
	require.NoError(t, err)
}

func TestSequencesAreSerialized(t *testing.T) {
	ctx := context.Background()
	s := New()
	day := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	const n = 25
	var wg sync.WaitGroup
	results := make(chan int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
				seq, err := tx.Orders().NextSequence(ctx, "ORD", day, 1, 0)
				results <- seq
				return err
			})
		}()
	}
	wg.Wait()
	close(results)

	seen := map[int]bool{}
	for seq := range results {
		assert.False(t, seen[seq], "duplicate %d", seq)
		seen[seq] = true
	}
	assert.Len(t, seen, n)
	assert.True(t, seen[1])
	assert.True(t, seen[n])
}
