package dtwinclient

import "context"

// PublishTelemetry is a pass-through stub: publishing twin/relationship
// telemetry to an external message bus is out of scope for this service
// (spec §1's "telemetry publishing to external buses" is named as an
// external collaborator). It logs the event at debug level through the
// Client's logger and returns nil, so callers can wire a real bus
// publisher in behind this same method signature without touching
// anything else in the façade.
func (c *Client) PublishTelemetry(ctx context.Context, twinID string, payload map[string]interface{}) error {
	c.log.WithField("twin_id", twinID).WithField("graph", c.graph).Debug("dtwinclient: telemetry publish stub invoked")
	return nil
}
