package alert

import (
	"fmt"
	"time"

	"github.com/modelwatch/mwd/internal/errors"
)

// Thresholds configures the four alert rules. Each rule carries a warning and
// a critical bound; the critical bound is always the stricter one.
// NewEvaluator validates a Thresholds value before use.
type Thresholds struct {
	// UptimeWarning and UptimeCritical are lower bounds on uptime.
	UptimeWarning  float64
	UptimeCritical float64

	// ResponseTimeWarning and ResponseTimeCritical are upper bounds on the
	// latest successful probe's response time.
	ResponseTimeWarning  time.Duration
	ResponseTimeCritical time.Duration

	// ErrorRateWarning and ErrorRateCritical are upper bounds on error rate.
	ErrorRateWarning  float64
	ErrorRateCritical float64

	// ConsecutiveFailuresWarning and ConsecutiveFailuresCritical are
	// inclusive lower bounds on the current failure streak.
	ConsecutiveFailuresWarning  int
	ConsecutiveFailuresCritical int
}

// DefaultThresholds returns the thresholds used when the config file does not
// override them.
func DefaultThresholds() Thresholds {
	return Thresholds{
		UptimeWarning:               0.98,
		UptimeCritical:              0.95,
		ResponseTimeWarning:         10 * time.Second,
		ResponseTimeCritical:        20 * time.Second,
		ErrorRateWarning:            0.05,
		ErrorRateCritical:           0.10,
		ConsecutiveFailuresWarning:  3,
		ConsecutiveFailuresCritical: 5,
	}
}

// Validate checks that every rule's bounds are well formed and that each
// critical bound is stricter than its warning counterpart.
func (t Thresholds) Validate() error {
	if t.UptimeWarning <= 0 || t.UptimeWarning > 1 || t.UptimeCritical <= 0 || t.UptimeCritical > 1 {
		return fmt.Errorf("%w: uptime thresholds must be in (0, 1]", errors.ErrInvalidThresholds)
	}
	if t.UptimeCritical >= t.UptimeWarning {
		return fmt.Errorf("%w: critical uptime bound %.3f must be below warning bound %.3f",
			errors.ErrInvalidThresholds, t.UptimeCritical, t.UptimeWarning)
	}
	if t.ResponseTimeWarning <= 0 || t.ResponseTimeCritical <= 0 {
		return fmt.Errorf("%w: response time thresholds must be positive", errors.ErrInvalidThresholds)
	}
	if t.ResponseTimeCritical <= t.ResponseTimeWarning {
		return fmt.Errorf("%w: critical response time bound %s must exceed warning bound %s",
			errors.ErrInvalidThresholds, t.ResponseTimeCritical, t.ResponseTimeWarning)
	}
	if t.ErrorRateWarning <= 0 || t.ErrorRateWarning > 1 || t.ErrorRateCritical <= 0 || t.ErrorRateCritical > 1 {
		return fmt.Errorf("%w: error rate thresholds must be in (0, 1]", errors.ErrInvalidThresholds)
	}
	if t.ErrorRateCritical <= t.ErrorRateWarning {
		return fmt.Errorf("%w: critical error rate bound %.3f must exceed warning bound %.3f",
			errors.ErrInvalidThresholds, t.ErrorRateCritical, t.ErrorRateWarning)
	}
	if t.ConsecutiveFailuresWarning <= 0 || t.ConsecutiveFailuresCritical <= 0 {
		return fmt.Errorf("%w: consecutive failure thresholds must be positive", errors.ErrInvalidThresholds)
	}
	if t.ConsecutiveFailuresCritical <= t.ConsecutiveFailuresWarning {
		return fmt.Errorf("%w: critical consecutive failure bound %d must exceed warning bound %d",
			errors.ErrInvalidThresholds, t.ConsecutiveFailuresCritical, t.ConsecutiveFailuresWarning)
	}

	return nil
}
