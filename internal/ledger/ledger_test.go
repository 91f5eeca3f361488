package ledger

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"provenance/internal/events"
	"provenance/internal/platform/metrics"
	dErrors "provenance/pkg/domain-errors"
	"provenance/pkg/requestcontext"
)

type LedgerSuite struct {
	suite.Suite
	ledger  *Ledger
	store   *events.InMemoryStore
	metrics *metrics.Metrics
	now     time.Time
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerSuite))
}

func (s *LedgerSuite) SetupTest() {
	s.store = events.NewInMemoryStore()
	s.metrics = metrics.NewWithRegistry(prometheus.NewRegistry())
	s.now = time.Unix(1_700_000_000, 0)
	s.ledger = New(
		WithPublisher(events.NewPublisher(s.store)),
		WithMetrics(s.metrics),
		WithClock(func() time.Time { return s.now }),
	)
}

func (s *LedgerSuite) TestCommitAndRevert() {
	ctx := context.Background()
	m := NewMap[string, int]()
	var c Counter
	cell := NewCell("initial")

	s.Run("committed writes persist and publish events", func() {
		err := s.ledger.Execute(ctx, func(ctx context.Context) error {
			m.Set(ctx, "a", 1)
			c.Next(ctx)
			cell.Set(ctx, "changed")
			events.Emit(ctx, events.Event{Kind: events.KindSchemaRegistered})
			return nil
		})
		s.Require().NoError(err)

		v, ok := m.Get("a")
		s.True(ok)
		s.Equal(1, v)
		s.Equal(uint64(1), c.Current())
		s.Equal("changed", cell.Get())
		s.Equal(uint64(1), s.ledger.Height())

		evs, err := s.store.List(ctx, events.Filter{})
		s.Require().NoError(err)
		s.Require().Len(evs, 1)
		s.Equal(uint64(1), evs[0].BlockNumber)
		s.True(s.now.Equal(evs[0].Time))
	})

	s.Run("failed call undoes every write and drops events", func() {
		boom := dErrors.New(dErrors.CodePaused, "paused")
		err := s.ledger.Execute(ctx, func(ctx context.Context) error {
			m.Set(ctx, "a", 2)
			m.Set(ctx, "b", 3)
			m.Delete(ctx, "a")
			c.Next(ctx)
			c.Set(ctx, 99)
			cell.Set(ctx, "reverted")
			events.Emit(ctx, events.Event{Kind: events.KindPaused})
			return boom
		})
		s.Require().ErrorIs(err, boom)

		v, ok := m.Get("a")
		s.True(ok)
		s.Equal(1, v)
		s.False(m.Has("b"))
		s.Equal(uint64(1), c.Current())
		s.Equal("changed", cell.Get())
		s.Equal(uint64(1), s.ledger.Height())

		evs, err := s.store.List(ctx, events.Filter{})
		s.Require().NoError(err)
		s.Len(evs, 1)
		s.InDelta(1, testutil.ToFloat64(s.metrics.Reverts.WithLabelValues("paused")), 0)
	})
}

func (s *LedgerSuite) TestNestedCallsJoinOuterCall() {
	ctx := context.Background()
	m := NewMap[string, int]()

	err := s.ledger.Execute(ctx, func(ctx context.Context) error {
		inner := s.ledger.Execute(ctx, func(ctx context.Context) error {
			m.Set(ctx, "inner", 1)
			return nil
		})
		s.Require().NoError(inner)
		s.Equal(uint64(1), requestcontext.BlockNumber(ctx))
		return errors.New("outer failure")
	})

	s.Require().Error(err)
	s.False(m.Has("inner"), "inner write must be undone with the outer call")
	s.Equal(uint64(0), s.ledger.Height())
}

func (s *LedgerSuite) TestPanicRevertsCall() {
	ctx := context.Background()
	m := NewMap[string, int]()

	err := s.ledger.Execute(ctx, func(ctx context.Context) error {
		m.Set(ctx, "written", 1)
		events.Emit(ctx, events.Event{Kind: events.KindPaused})
		panic("callout failed")
	})

	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.False(m.Has("written"))
	s.Equal(uint64(0), s.ledger.Height())
	evs, err := s.store.List(ctx, events.Filter{})
	s.Require().NoError(err)
	s.Empty(evs)

	s.Run("lock is released", func() {
		s.Require().NoError(s.ledger.Execute(ctx, func(ctx context.Context) error {
			m.Set(ctx, "after", 1)
			return nil
		}))
		s.True(m.Has("after"))
	})
}

func (s *LedgerSuite) TestCallMetadata() {
	s.Run("injected time is used as block time", func() {
		at := s.now.Add(time.Hour)
		ctx := requestcontext.WithTime(context.Background(), at)
		err := s.ledger.Execute(ctx, func(ctx context.Context) error {
			s.True(at.Equal(requestcontext.Now(ctx)))
			return nil
		})
		s.Require().NoError(err)
	})

	s.Run("block time never moves backwards", func() {
		ctx := requestcontext.WithTime(context.Background(), s.now.Add(-time.Hour))
		err := s.ledger.Execute(ctx, func(ctx context.Context) error {
			s.True(s.now.Add(time.Hour).Equal(requestcontext.Now(ctx)))
			return nil
		})
		s.Require().NoError(err)
	})
}

func (s *LedgerSuite) TestAfterCommit() {
	ran := 0
	_ = s.ledger.Execute(context.Background(), func(ctx context.Context) error {
		AfterCommit(ctx, func() { ran++ })
		return errors.New("revert")
	})
	s.Equal(0, ran)

	_ = s.ledger.Execute(context.Background(), func(ctx context.Context) error {
		AfterCommit(ctx, func() { ran++ })
		return nil
	})
	s.Equal(1, ran)
}

func (s *LedgerSuite) TestConcurrentCallsAreSerialized() {
	var c Counter
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.ledger.Execute(context.Background(), func(ctx context.Context) error {
				c.Next(ctx)
				return nil
			})
		}()
	}
	wg.Wait()

	var got uint64
	_ = s.ledger.View(context.Background(), func(context.Context) error {
		got = c.Current()
		return nil
	})
	s.Equal(uint64(50), got)
	s.Equal(uint64(50), s.ledger.Height())
}

func TestVault(t *testing.T) {
	l := New()
	v := NewVault()
	alice := common.HexToAddress("0x0a")
	contract := common.HexToAddress("0x0c")
	ctx := context.Background()

	t.Run("credit and debit", func(t *testing.T) {
		require.NoError(t, l.Execute(ctx, func(ctx context.Context) error {
			if err := v.Credit(ctx, alice, big.NewInt(10)); err != nil {
				return err
			}
			return v.Debit(ctx, alice, big.NewInt(4))
		}))
		assert.Equal(t, int64(6), v.BalanceOf(alice).Int64())
	})

	t.Run("overdraft fails and reverts", func(t *testing.T) {
		err := l.Execute(ctx, func(ctx context.Context) error {
			if err := v.Credit(ctx, alice, big.NewInt(1)); err != nil {
				return err
			}
			return v.Debit(ctx, alice, big.NewInt(100))
		})
		require.ErrorIs(t, err, ErrInsufficientBalance)
		assert.Equal(t, int64(6), v.BalanceOf(alice).Int64())
	})

	t.Run("refusing account rejects non-zero credits", func(t *testing.T) {
		v.RefuseDeposits(ctx, contract, true)
		err := l.Execute(ctx, func(ctx context.Context) error {
			return v.Credit(ctx, contract, big.NewInt(1))
		})
		require.ErrorIs(t, err, ErrTransferRejected)
		require.NoError(t, l.Execute(ctx, func(ctx context.Context) error {
			return v.Credit(ctx, contract, new(big.Int))
		}))
	})
}
