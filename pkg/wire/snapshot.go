// Package wire encodes snapshots for remote controllers as FlatBuffers.
package wire

import (
	"errors"
	"fmt"
	"time"

	flatbuffers "github.com/google/flatbuffers/go"

	"github.com/open-teleop/robotbridge/pkg/robot"
)

var ErrInvalidSnapshot = errors.New("invalid snapshot buffer")

// EncodeSnapshot serializes s into a finished FlatBuffer with the RBSS
// file identifier.
func EncodeSnapshot(s robot.SensorSnapshot) []byte {
	b := flatbuffers.NewBuilder(256)

	source := b.CreateString(s.Source)

	var defaulted flatbuffers.UOffsetT
	if n := len(s.Defaulted); n > 0 {
		names := make([]flatbuffers.UOffsetT, n)
		for i, f := range s.Defaulted {
			names[i] = b.CreateString(string(f))
		}
		SensorSnapshotStartDefaultedVector(b, n)
		for i := n - 1; i >= 0; i-- {
			b.PrependUOffsetT(names[i])
		}
		defaulted = b.EndVector(n)
	}

	SensorSnapshotStart(b)
	SensorSnapshotAddTick(b, s.Tick)
	SensorSnapshotAddTimestampNs(b, s.Timestamp.UnixNano())
	SensorSnapshotAddSource(b, source)
	SensorSnapshotAddLightLevel(b, s.LightLevel)
	SensorSnapshotAddDistance(b, s.Distance)
	SensorSnapshotAddTouchPressed(b, s.TouchPressed)
	SensorSnapshotAddLeftMotorPosition(b, s.LeftMotorPosition)
	SensorSnapshotAddRightMotorPosition(b, s.RightMotorPosition)
	SensorSnapshotAddClawMotorPosition(b, s.ClawMotorPosition)
	if defaulted != 0 {
		SensorSnapshotAddDefaulted(b, defaulted)
	}
	FinishSensorSnapshotBuffer(b, SensorSnapshotEnd(b))

	return b.FinishedBytes()
}

// DecodeSnapshot parses a buffer produced by EncodeSnapshot.
func DecodeSnapshot(data []byte) (s robot.SensorSnapshot, err error) {
	if len(data) < 8 || !SensorSnapshotBufferHasIdentifier(data) {
		return robot.SensorSnapshot{}, ErrInvalidSnapshot
	}

	// A corrupt buffer makes the generated accessors index out of range.
	defer func() {
		if r := recover(); r != nil {
			s = robot.SensorSnapshot{}
			err = fmt.Errorf("%w: %v", ErrInvalidSnapshot, r)
		}
	}()

	fb := GetRootAsSensorSnapshot(data, 0)
	s = robot.SensorSnapshot{
		Tick:               fb.Tick(),
		Timestamp:          time.Unix(0, fb.TimestampNs()),
		Source:             string(fb.Source()),
		LightLevel:         fb.LightLevel(),
		Distance:           fb.Distance(),
		TouchPressed:       fb.TouchPressed(),
		LeftMotorPosition:  fb.LeftMotorPosition(),
		RightMotorPosition: fb.RightMotorPosition(),
		ClawMotorPosition:  fb.ClawMotorPosition(),
	}
	for i := 0; i < fb.DefaultedLength(); i++ {
		s.Defaulted = append(s.Defaulted, robot.Field(fb.Defaulted(i)))
	}
	return s, nil
}
