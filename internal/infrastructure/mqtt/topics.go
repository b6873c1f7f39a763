package mqtt

import "fmt"

// Topic prefixes for the Availability Watch MQTT namespace.
//
// All topics use the flat scheme: availwatch/{category}/{id}
const (
	// TopicPrefix is the base for all service topics.
	TopicPrefix = "availwatch"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "availwatch/system"
)

// Topics provides builders for Availability Watch MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	stateTopic := topics.EntityState("sensor.kitchen_temp")
//	// Returns: "availwatch/state/sensor.kitchen_temp"
type Topics struct{}

// EntityState returns the topic carrying one entity's status updates.
//
// Example: availwatch/state/sensor.kitchen_temp
func (Topics) EntityState(entityID string) string {
	return fmt.Sprintf("%s/state/%s", TopicPrefix, entityID)
}

// Report returns the topic the assembled report is published to, retained.
//
// Example: availwatch/report
func (Topics) Report() string {
	return fmt.Sprintf("%s/report", TopicPrefix)
}

// SystemStatus returns the service status topic, used for the online
// message and the Last Will and Testament.
//
// Example: availwatch/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllEntityStates returns a pattern matching every entity state update.
//
// Pattern: availwatch/state/+
func (Topics) AllEntityStates() string {
	return fmt.Sprintf("%s/state/+", TopicPrefix)
}
