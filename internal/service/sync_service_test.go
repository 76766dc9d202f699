package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wallet-scanner/internal/models"
	"github.com/wallet-scanner/internal/types"
)

type fakeTradeSource struct {
	trades []*types.Trade
}

func (f *fakeTradeSource) FetchAllTrades(ctx context.Context, wallet string) ([]*types.Trade, error) {
	return f.trades, nil
}

func (f *fakeTradeSource) FetchTradesSince(ctx context.Context, wallet string, watermark int64) ([]*types.Trade, error) {
	var out []*types.Trade
	for _, t := range f.trades {
		if t.Timestamp > watermark {
			out = append(out, t)
		}
	}
	return out, nil
}

type fakePositionSource struct {
	closed []*types.ClosedPosition
	open   []*types.OpenPosition
}

func (f *fakePositionSource) FetchClosedPositionsPage(ctx context.Context, wallet string, limit, offset int) ([]*types.ClosedPosition, error) {
	if offset > 0 {
		return nil, nil
	}
	return f.closed, nil
}

func (f *fakePositionSource) FetchOpenPositionsPage(ctx context.Context, wallet string, limit, offset int) ([]*types.OpenPosition, error) {
	if offset > 0 {
		return nil, nil
	}
	return f.open, nil
}

type fakeWalletStore struct {
	watermark int64
	advanced  []int64
}

func (f *fakeWalletStore) GetWatermark(ctx context.Context, address string) (int64, error) {
	return f.watermark, nil
}

func (f *fakeWalletStore) AdvanceWatermark(ctx context.Context, address string, watermark int64, tradeCount int) error {
	f.watermark = watermark
	f.advanced = append(f.advanced, watermark)
	return nil
}

type fakeTradeStore struct {
	stored    []*models.TradeRecord
	upsertErr error
}

func (f *fakeTradeStore) UpsertBatch(ctx context.Context, trades []*models.TradeRecord) (int, error) {
	if f.upsertErr != nil {
		return 0, f.upsertErr
	}
	f.stored = append(f.stored, trades...)
	return len(trades), nil
}

func (f *fakeTradeStore) GetByWallet(ctx context.Context, wallet string) ([]*models.TradeRecord, error) {
	return f.stored, nil
}

type fakePositionStore struct {
	closed    []*models.ClosedPositionRecord
	open      []*models.OpenPositionRecord
	closedErr error
	openErr   error
}

func (f *fakePositionStore) UpsertClosed(ctx context.Context, positions []*models.ClosedPositionRecord) error {
	if f.closedErr != nil {
		return f.closedErr
	}
	f.closed = append(f.closed, positions...)
	return nil
}

func (f *fakePositionStore) ReplaceOpen(ctx context.Context, wallet string, positions []*models.OpenPositionRecord) error {
	if f.openErr != nil {
		return f.openErr
	}
	f.open = positions
	return nil
}

const testWallet = "0xab00000000000000000000000000000000000000"

func newTestSyncService(trades *fakeTradeSource, positions *fakePositionSource, wallets *fakeWalletStore, tradeStore *fakeTradeStore, posStore *fakePositionStore) *SyncService {
	return NewSyncService(trades, positions, wallets, tradeStore, posStore, nil, nil)
}

func TestSyncWalletStoresAndAdvancesWatermark(t *testing.T) {
	source := &fakeTradeSource{trades: []*types.Trade{
		{ID: "t1", Wallet: testWallet, ConditionID: "m1", Timestamp: 1000, Side: types.SideBuy, Size: 10, Price: 0.5},
		{ID: "t2", Wallet: testWallet, ConditionID: "m1", Timestamp: 2000, Side: types.SideSell, Size: 10, Price: 0.8},
	}}
	wallets := &fakeWalletStore{}
	tradeStore := &fakeTradeStore{}
	posStore := &fakePositionStore{}
	svc := newTestSyncService(source, &fakePositionSource{}, wallets, tradeStore, posStore)

	result, err := svc.SyncWallet(context.Background(), testWallet)
	assert.NoError(t, err)
	assert.True(t, result.ColdStart)
	assert.Equal(t, 2, result.TradesFetched)
	assert.Equal(t, 2, result.TradesStored)
	assert.Equal(t, int64(2000), result.Watermark)
	assert.Equal(t, []int64{2000}, wallets.advanced)
	assert.Len(t, result.Trades, 2)
}

func TestSyncWalletTradeStoreFailureCarriesHistory(t *testing.T) {
	source := &fakeTradeSource{trades: []*types.Trade{
		{ID: "t1", Wallet: testWallet, ConditionID: "m1", Timestamp: 1000, Side: types.SideBuy, Size: 10, Price: 0.5},
	}}
	wallets := &fakeWalletStore{}
	tradeStore := &fakeTradeStore{upsertErr: errors.New("connection refused")}
	posStore := &fakePositionStore{}
	svc := newTestSyncService(source, &fakePositionSource{
		closed: []*types.ClosedPosition{{ConditionID: "m1", RealizedPnl: 5}},
	}, wallets, tradeStore, posStore)

	result, err := svc.SyncWallet(context.Background(), testWallet)
	assert.NoError(t, err)

	// Nothing landed, so the watermark must not move; the next run
	// refetches the missed trades.
	assert.Equal(t, 0, result.TradesStored)
	assert.Equal(t, int64(0), result.Watermark)
	assert.Empty(t, wallets.advanced)

	// The fetched trades still ride along for analysis.
	assert.Len(t, result.Trades, 1)
	assert.Equal(t, "t1", result.Trades[0].ID)
	assert.Len(t, result.Closed, 1)
}

func TestSyncWalletPositionStoreFailureCarriesSnapshots(t *testing.T) {
	wallets := &fakeWalletStore{watermark: 500}
	posStore := &fakePositionStore{
		closedErr: errors.New("closed write failed"),
		openErr:   errors.New("open write failed"),
	}
	svc := newTestSyncService(&fakeTradeSource{}, &fakePositionSource{
		closed: []*types.ClosedPosition{{ConditionID: "m1", RealizedPnl: 10}},
		open:   []*types.OpenPosition{{ConditionID: "m2", UnrealizedPnl: 3}},
	}, wallets, &fakeTradeStore{}, posStore)

	result, err := svc.SyncWallet(context.Background(), testWallet)
	assert.NoError(t, err)
	assert.Equal(t, 1, result.ClosedPositions)
	assert.Equal(t, 1, result.OpenPositions)
	assert.Len(t, result.Closed, 1)
	assert.Len(t, result.Open, 1)
}

func TestSyncWalletWarmMergesStoredAndFetched(t *testing.T) {
	stored := &types.Trade{ID: "t1", Wallet: testWallet, ConditionID: "m1", Timestamp: 1000, Side: types.SideBuy, Size: 10, Price: 0.5}
	fresh := &types.Trade{ID: "t2", Wallet: testWallet, ConditionID: "m1", Timestamp: 2000, Side: types.SideSell, Size: 10, Price: 0.8}

	source := &fakeTradeSource{trades: []*types.Trade{stored, fresh}}
	wallets := &fakeWalletStore{watermark: 1000}
	tradeStore := &fakeTradeStore{stored: []*models.TradeRecord{models.FromTrade(stored)}}
	svc := newTestSyncService(source, &fakePositionSource{}, wallets, tradeStore, &fakePositionStore{})

	result, err := svc.SyncWallet(context.Background(), testWallet)
	assert.NoError(t, err)
	assert.False(t, result.ColdStart)
	assert.Equal(t, 1, result.TradesFetched)
	assert.Equal(t, int64(2000), result.Watermark)

	// Full history: the stored trade plus the newly fetched one, no
	// duplicates.
	assert.Len(t, result.Trades, 2)
}

func TestDedupeTrades(t *testing.T) {
	tests := []struct {
		name  string
		input []*types.Trade
		want  int
	}{
		{
			name:  "empty",
			input: nil,
			want:  0,
		},
		{
			name: "no duplicates",
			input: []*types.Trade{
				{ID: "0x1"},
				{ID: "0x2"},
			},
			want: 2,
		},
		{
			name: "duplicate upstream ids collapse",
			input: []*types.Trade{
				{ID: "0x1", Size: 10},
				{ID: "0x1", Size: 20},
				{ID: "0x2"},
			},
			want: 2,
		},
		{
			name: "derived keys collapse on identical content",
			input: []*types.Trade{
				{Wallet: "0xa", Timestamp: 100, ConditionID: "m1", Side: types.SideBuy},
				{Wallet: "0xa", Timestamp: 100, ConditionID: "m1", Side: types.SideBuy},
			},
			want: 1,
		},
		{
			name: "opposite sides at same instant are distinct",
			input: []*types.Trade{
				{Wallet: "0xa", Timestamp: 100, ConditionID: "m1", Side: types.SideBuy},
				{Wallet: "0xa", Timestamp: 100, ConditionID: "m1", Side: types.SideSell},
			},
			want: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := dedupeTrades(tt.input)
			if len(got) != tt.want {
				t.Errorf("dedupeTrades() returned %d trades, want %d", len(got), tt.want)
			}
		})
	}
}

func TestDedupeTradesKeepsFirstOccurrence(t *testing.T) {
	input := []*types.Trade{
		{ID: "0x1", Size: 10},
		{ID: "0x1", Size: 99},
	}

	got := dedupeTrades(input)
	if len(got) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(got))
	}
	if got[0].Size != 10 {
		t.Errorf("expected first occurrence kept, got size %v", got[0].Size)
	}
}

func TestMaxTradeTimestamp(t *testing.T) {
	if got := maxTradeTimestamp(nil); got != 0 {
		t.Errorf("maxTradeTimestamp(nil) = %d, want 0", got)
	}

	trades := []*types.Trade{
		{Timestamp: 500},
		{Timestamp: 1500},
		{Timestamp: 1000},
	}
	if got := maxTradeTimestamp(trades); got != 1500 {
		t.Errorf("maxTradeTimestamp() = %d, want 1500", got)
	}
}
