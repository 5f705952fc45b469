package metrics

import (
	"fmt"
	"sync"
	"time"

	"mercator-hq/procurement/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// OverflowLabel replaces label values once the cardinality limit is reached.
const OverflowLabel = "other"

// DefaultMaxCardinality bounds the number of distinct label sets tracked.
const DefaultMaxCardinality = 10000

// Collector owns every Prometheus metric recorded by the procurement engine.
//
// All Record methods are safe on a nil *Collector and do nothing when
// metrics are disabled, so callers never need to guard them.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	decisionMetrics *DecisionMetrics
	budgetMetrics   *BudgetMetrics
	auditMetrics    *AuditMetrics
	toolMetrics     *ToolMetrics

	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a collector and registers its metrics with registry.
// If registry is nil a new one is created.
//
// Example:
//
//	cfg := &config.MetricsConfig{Enabled: true}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(cfg.DecisionDurationBuckets) == 0 {
		cfg.DecisionDurationBuckets = append([]float64(nil), config.DefaultDecisionDurationBuckets...)
	}

	return &Collector{
		config:             cfg,
		registry:           registry,
		decisionMetrics:    NewDecisionMetrics(cfg, registry),
		budgetMetrics:      NewBudgetMetrics(cfg, registry),
		auditMetrics:       NewAuditMetrics(cfg, registry),
		toolMetrics:        NewToolMetrics(cfg, registry),
		cardinalityLimiter: NewCardinalityLimiter(DefaultMaxCardinality),
	}
}

func (c *Collector) enabled() bool {
	return c != nil && c.config.Enabled
}

// RecordDecision records a completed purchase decision.
//
// Parameters:
//   - outcome: terminal state ("recommended", "rejected_policy", ...)
//   - strategy: the department's strategy, empty if none was applied
//   - duration: time from request to terminal state
func (c *Collector) RecordDecision(outcome, strategy string, duration time.Duration) {
	if !c.enabled() {
		return
	}
	if strategy == "" {
		strategy = "none"
	}
	c.decisionMetrics.Record(outcome, strategy, duration)
}

// RecordOffersConsidered records how many usable offers reached selection.
func (c *Collector) RecordOffersConsidered(count int) {
	if !c.enabled() {
		return
	}
	c.decisionMetrics.RecordOffers(count)
}

// RecordBudgetCommit records a budget commit attempt.
//
// result is one of "committed", "exceeded", "conflict" or "error".
func (c *Collector) RecordBudgetCommit(department, result string) {
	if !c.enabled() {
		return
	}
	department = c.limit("budget", department)
	c.budgetMetrics.RecordCommit(department, result)
}

// UpdateBudget sets the spent and remaining gauges for a department.
func (c *Collector) UpdateBudget(department string, spent, remaining float64) {
	if !c.enabled() {
		return
	}
	department = c.limit("budget", department)
	c.budgetMetrics.Update(department, spent, remaining)
}

// RecordAuditWrite records an audit write and its latency.
func (c *Collector) RecordAuditWrite(success bool, duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.auditMetrics.RecordWrite(success, duration)
}

// RecordToolCall records a tool invocation.
//
// status is "ok" or the error code returned to the caller.
func (c *Collector) RecordToolCall(tool, status string, duration time.Duration) {
	if !c.enabled() {
		return
	}
	tool = c.limit("tool", tool)
	c.toolMetrics.Record(tool, status, duration)
}

// limit folds label values past the cardinality limit into OverflowLabel.
func (c *Collector) limit(metric, value string) string {
	if !c.cardinalityLimiter.Allow(fmt.Sprintf("%s:%s", metric, value)) {
		return OverflowLabel
	}
	return value
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label combinations.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow checks if a label set is allowed. Returns true if the label set
// already exists or if the limit has not been reached.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if _, exists := cl.current[labelSet]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
