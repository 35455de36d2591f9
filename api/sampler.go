/*
sampler.go - Periodic gauge sampler

PURPOSE:
  Periodically copies the machine's inventory into prometheus gauges: bank
  tokens per denomination, stock per item, and the number of failed
  compensations waiting in the journal. Reads only; it never mutates a
  service and never reconciles anything.

DESIGN:
  - Runs a background goroutine with a configurable interval
  - Samples once immediately on Start
  - Stop waits for the goroutine to exit

USAGE:
  sampler := NewSampler(bankSvc, stockSvc, journal, log)
  sampler.Start()
  // ... later
  sampler.Stop()

SEE ALSO:
  - metrics/metrics.go: gauges
*/
package api

import (
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warp/vending-engine/bank"
	"github.com/warp/vending-engine/metrics"
	"github.com/warp/vending-engine/stock"
)

// Sampler publishes inventory gauges on a ticker.
type Sampler struct {
	Bank     interface{ Current() bank.Bank }
	Stock    interface{ Levels() map[stock.Item]int }
	Journal  interface{ Len() int }
	Interval time.Duration

	log    *zap.Logger
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewSampler creates a sampler with a 15 second interval.
func NewSampler(b interface{ Current() bank.Bank }, s interface{ Levels() map[stock.Item]int }, j interface{ Len() int }, log *zap.Logger) *Sampler {
	return &Sampler{
		Bank:     b,
		Stock:    s,
		Journal:  j,
		Interval: 15 * time.Second,
		log:      log.Named("sampler"),
	}
}

// Start begins sampling. Calling Start twice has no effect.
func (s *Sampler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker != nil {
		return
	}
	s.ticker = time.NewTicker(s.Interval)
	s.stop = make(chan struct{})
	s.wg.Add(1)

	go s.run()

	s.log.Info("sampler started", zap.Duration("interval", s.Interval))
}

// Stop stops the sampler and waits for it to exit.
func (s *Sampler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	close(s.stop)
	s.wg.Wait()
	s.ticker = nil
	s.log.Info("sampler stopped")
}

func (s *Sampler) run() {
	defer s.wg.Done()

	s.Sample()

	for {
		select {
		case <-s.ticker.C:
			s.Sample()
		case <-s.stop:
			return
		}
	}
}

// Sample publishes the current values once.
func (s *Sampler) Sample() {
	for d, n := range s.Bank.Current().Counts() {
		metrics.BankTokens.WithLabelValues(strconv.Itoa(d.Value())).Set(float64(n))
	}
	for item, qty := range s.Stock.Levels() {
		metrics.StockLevels.WithLabelValues(string(item)).Set(float64(qty))
	}
	metrics.PendingCompensations.Set(float64(s.Journal.Len()))
}
