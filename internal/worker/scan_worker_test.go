package worker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/wallet-scanner/internal/service"
	"github.com/wallet-scanner/internal/storage"
)

func TestNewScanWorkerValidation(t *testing.T) {
	_, err := NewScanWorker(&ScanWorkerConfig{})
	assert.Error(t, err)

	_, err = NewScanWorker(&ScanWorkerConfig{
		SyncService: &service.SyncService{},
	})
	assert.Error(t, err)
}

func TestNewScanWorkerDefaults(t *testing.T) {
	w, err := NewScanWorker(&ScanWorkerConfig{
		SyncService:  &service.SyncService{},
		StatsService: &service.StatsService{},
		WalletRepo:   &storage.WalletRepository{},
		RunRepo:      &storage.ScanRunRepository{},
	})
	assert.NoError(t, err)
	assert.Equal(t, 15*time.Minute, w.pollInterval)
	assert.Equal(t, 30, w.walletConcurrency)
	assert.Equal(t, 5*time.Minute, w.walletTimeout)
	assert.NotNil(t, w.counters)

	status := w.GetStatus()
	assert.False(t, status.Running)
	assert.Equal(t, "15m0s", status.PollInterval)
}
