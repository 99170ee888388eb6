package scheduler

import (
	"context"

	"github.com/ebs-eps/core/pkg/collaborators"
	"github.com/ebs-eps/core/pkg/model"
	"github.com/ebs-eps/core/pkg/safety"
)

// WrapActuatorForSupervisor adapts the full C8 actuator contract (with
// its context-bound, per-call timeout) to the narrower synchronous
// safety.ActuatorSink the supervisor needs for its graceful-shutdown
// path, which runs inline on the scheduler's own goroutine with no
// cancellation token of its own (spec §5: "no cancellation tokens
// cross tick boundaries").
func WrapActuatorForSupervisor(actuators collaborators.ActuatorSink) safety.ActuatorSink {
	if actuators == nil {
		return nil
	}
	return supervisorActuatorAdapter{actuators}
}

// WrapCommsForSupervisor adapts the full C8 comms contract to the
// supervisor's narrower safety.CommsSink.
func WrapCommsForSupervisor(comms collaborators.CommsSink) safety.CommsSink {
	if comms == nil {
		return nil
	}
	return supervisorCommsAdapter{comms}
}

type supervisorActuatorAdapter struct {
	inner collaborators.ActuatorSink
}

func (a supervisorActuatorAdapter) SetWheelPressure(wheel model.WheelPosition, pressure float64) error {
	ctx, cancel := context.WithTimeout(context.Background(), collaborators.CollaboratorTimeout)
	defer cancel()
	return a.inner.SetWheelPressure(ctx, wheel, pressure)
}

type supervisorCommsAdapter struct {
	inner collaborators.CommsSink
}

func (a supervisorCommsAdapter) SendShutdownNotification() error {
	return a.inner.SendShutdownNotification()
}
