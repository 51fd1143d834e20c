package metrics

import (
	"net/http"
	"sync/atomic"
	"time"
)

// Collector keeps process-lifetime counters for the metrics endpoint.
type Collector struct {
	totalRequests   atomic.Uint64
	errorRequests   atomic.Uint64
	rateLimited     atomic.Uint64
	totalDurationMs atomic.Uint64

	payrollRuns     atomic.Uint64
	payrollFailures atomic.Uint64
	employeesPaid   atomic.Uint64
	payslips        atomic.Uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	c.totalRequests.Add(1)
	if status >= http.StatusInternalServerError {
		c.errorRequests.Add(1)
	}
	if status == http.StatusTooManyRequests {
		c.rateLimited.Add(1)
	}
	c.totalDurationMs.Add(uint64(duration.Milliseconds()))
}

func (c *Collector) RecordPayrollRun(employees int, err error) {
	if err != nil {
		c.payrollFailures.Add(1)
		return
	}
	c.payrollRuns.Add(1)
	c.employeesPaid.Add(uint64(employees))
}

func (c *Collector) RecordPayslip() {
	c.payslips.Add(1)
}

func (c *Collector) Snapshot() map[string]any {
	total := c.totalRequests.Load()
	totalMs := c.totalDurationMs.Load()
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":        total,
		"errorsTotal":          c.errorRequests.Load(),
		"rateLimitedTotal":     c.rateLimited.Load(),
		"avgDurationMs":        avg,
		"totalDurationMs":      totalMs,
		"payrollRunsTotal":     c.payrollRuns.Load(),
		"payrollFailuresTotal": c.payrollFailures.Load(),
		"employeesPaidTotal":   c.employeesPaid.Load(),
		"payslipsTotal":        c.payslips.Load(),
	}
}
