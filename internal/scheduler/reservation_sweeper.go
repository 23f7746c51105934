package scheduler

import (
	"sync"
	"time"

	"github.com/fisker/fleetops-backend/pkg/distributed"
	"github.com/fisker/fleetops-backend/pkg/logger"
	"github.com/fisker/fleetops-backend/pkg/redis"
)

const (
	sweepLockKey = "fleetops:sweep:reservations"
	sweepBatch   = 200
)

// ReservationSweepService 预留清扫接口，由 ReservationService 实现
type ReservationSweepService interface {
	Sweep(batch int) (int, error)
}

// ReservationSweeper 过期预留清扫调度器
// 周期性释放过期未出库的预留；多实例部署时通过分布式锁保证同一时刻只有一个实例在扫
type ReservationSweeper struct {
	sweepSvc ReservationSweepService
	interval time.Duration
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewReservationSweeper 创建预留清扫调度器
func NewReservationSweeper(sweepSvc ReservationSweepService, intervalMinutes int) *ReservationSweeper {
	if intervalMinutes <= 0 {
		intervalMinutes = 5
	}
	return &ReservationSweeper{
		sweepSvc: sweepSvc,
		interval: time.Duration(intervalMinutes) * time.Minute,
		stopChan: make(chan struct{}),
	}
}

// Start 启动调度器
func (s *ReservationSweeper) Start() {
	logger.Infof("[ReservationSweeper] Starting, interval: %v", s.interval)

	s.wg.Add(1)
	go s.run()
}

// Stop 停止调度器并等待当前扫描结束
func (s *ReservationSweeper) Stop() {
	close(s.stopChan)
	s.wg.Wait()
	logger.Info("[ReservationSweeper] Stopped")
}

func (s *ReservationSweeper) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// 启动后先扫一轮，清掉停机期间积累的过期预留
	s.sweepOnce()

	for {
		select {
		case <-ticker.C:
			s.sweepOnce()
		case <-s.stopChan:
			return
		}
	}
}

func (s *ReservationSweeper) sweepOnce() {
	lock := distributed.NewRedisLock(redis.GetClient(), sweepLockKey, s.interval)
	acquired, err := lock.TryLock()
	if err != nil {
		logger.Errorf("[ReservationSweeper] Failed to acquire sweep lock: %v", err)
		return
	}
	if !acquired {
		// 其他实例正在扫
		return
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Errorf("[ReservationSweeper] Failed to release sweep lock: %v", err)
		}
	}()

	if _, err := s.sweepSvc.Sweep(sweepBatch); err != nil {
		logger.Errorf("[ReservationSweeper] Sweep failed: %v", err)
	}
}
