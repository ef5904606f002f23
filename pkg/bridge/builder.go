package bridge

import (
	"context"
	"sort"
	"time"

	"github.com/open-teleop/robotbridge/pkg/device"
	customlog "github.com/open-teleop/robotbridge/pkg/log"
	"github.com/open-teleop/robotbridge/pkg/robot"
)

// Builder turns one provider read into a SensorSnapshot. A field whose read
// failed takes its configured default and the tick still produces a snapshot.
// Builder is used from the loop goroutine only.
type Builder struct {
	provider device.Provider
	defaults map[robot.Field]float64
	logger   customlog.Logger
	now      func() time.Time

	// fields whose last read failed
	failing map[robot.Field]bool
}

// NewBuilder creates a builder. Fields missing from defaults default to 0.
func NewBuilder(provider device.Provider, defaults map[robot.Field]float64, logger customlog.Logger) *Builder {
	if defaults == nil {
		defaults = map[robot.Field]float64{}
	}
	return &Builder{
		provider: provider,
		defaults: defaults,
		logger:   logger,
		now:      time.Now,
		failing:  make(map[robot.Field]bool),
	}
}

// Build reads every field once and stamps the snapshot with the current time.
func (b *Builder) Build(ctx context.Context, tick Tick) robot.SensorSnapshot {
	reading := b.provider.Read(ctx)

	var defaulted []robot.Field
	value := func(f robot.Field) float64 {
		if v, ok := reading.Values[f]; ok {
			return v
		}
		defaulted = append(defaulted, f)
		return b.defaults[f]
	}

	snapshot := robot.SensorSnapshot{
		Tick:               tick.Seq,
		Timestamp:          b.now(),
		Source:             string(b.provider.Kind()),
		LightLevel:         value(robot.FieldLight),
		Distance:           value(robot.FieldDistance),
		TouchPressed:       value(robot.FieldTouch) > 0,
		LeftMotorPosition:  value(robot.FieldLeftPosition),
		RightMotorPosition: value(robot.FieldRightPosition),
		ClawMotorPosition:  value(robot.FieldClawPosition),
		Defaulted:          defaulted,
	}

	b.logTransitions(tick, reading.Errors)
	return snapshot
}

// logTransitions logs a field when its reads start failing and when they
// recover, not on every tick in between.
func (b *Builder) logTransitions(tick Tick, errs map[robot.Field]error) {
	fields := make([]string, 0, len(errs))
	for f := range errs {
		if !b.failing[f] {
			fields = append(fields, string(f))
		}
	}
	sort.Strings(fields)
	for _, f := range fields {
		field := robot.Field(f)
		b.failing[field] = true
		b.logger.Warnf("Tick %d: read of %s failed, using default %v until it recovers: %v",
			tick.Seq, field, b.defaults[field], errs[field])
	}

	for field := range b.failing {
		if _, still := errs[field]; !still {
			delete(b.failing, field)
			b.logger.Infof("Tick %d: read of %s recovered", tick.Seq, field)
		}
	}
}
