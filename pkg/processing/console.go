package processing

import (
	"encoding/json"
	"sync/atomic"

	customlog "github.com/open-teleop/robotbridge/pkg/log"
	"github.com/open-teleop/robotbridge/pkg/robot"
)

// ConsoleSink prints snapshots for the operator. When printing is off the
// snapshots still go to the debug log.
type ConsoleSink struct {
	logger customlog.Logger
	print  atomic.Bool
}

// NewConsoleSink creates a console sink.
func NewConsoleSink(logger customlog.Logger, enabled bool) *ConsoleSink {
	s := &ConsoleSink{logger: logger}
	s.print.Store(enabled)
	return s
}

func (s *ConsoleSink) Name() string { return "console" }

// SetPrint toggles operator printing.
func (s *ConsoleSink) SetPrint(enabled bool) {
	s.print.Store(enabled)
}

func (s *ConsoleSink) Consume(snapshot robot.SensorSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	if s.print.Load() {
		s.logger.Infof("Snapshot: %s", data)
	} else {
		s.logger.Debugf("Snapshot: %s", data)
	}
	return nil
}
