package mqtt

import "fmt"

// Topic prefixes for the hearth relay's MQTT surface.
//
// The relay republishes hub state under a flat scheme so other home
// services can consume it without talking to the hub directly:
//
//	hearth/state/{domain}/{entity}     retained state updates
//	hearth/event/{event_type}          non-state events
//	hearth/command/{domain}/{service}  inbound service calls
//	hearth/system/status               relay online/offline (retained)
const (
	// TopicPrefix is the base for all relay topics.
	TopicPrefix = "hearth"

	// TopicPrefixSystem is the base for relay lifecycle topics.
	TopicPrefixSystem = "hearth/system"
)

// Topics provides builders for relay MQTT topics. Using these helpers
// keeps topic naming consistent between the publisher and subscribers.
//
//	topics := mqtt.Topics{}
//	stateTopic := topics.State("light", "kitchen")
//	// Returns: "hearth/state/light/kitchen"
type Topics struct{}

// State returns the retained state topic for one entity. The entity id
// "light.kitchen" maps to domain "light", name "kitchen".
//
// Example: hearth/state/light/kitchen
func (Topics) State(domain, name string) string {
	return fmt.Sprintf("%s/state/%s/%s", TopicPrefix, domain, name)
}

// Event returns the topic for non-state hub events.
//
// Example: hearth/event/automation_triggered
func (Topics) Event(eventType string) string {
	return fmt.Sprintf("%s/event/%s", TopicPrefix, eventType)
}

// Command returns the topic other services publish to in order to call
// a hub service through the relay.
//
// Example: hearth/command/light/turn_on
func (Topics) Command(domain, service string) string {
	return fmt.Sprintf("%s/command/%s/%s", TopicPrefix, domain, service)
}

// SystemStatus returns the relay's retained status topic.
//
// Example: hearth/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllStates returns a pattern matching every entity state topic.
//
// Pattern: hearth/state/+/+
func (Topics) AllStates() string {
	return fmt.Sprintf("%s/state/+/+", TopicPrefix)
}

// AllCommands returns a pattern matching every inbound command topic.
//
// Pattern: hearth/command/+/+
func (Topics) AllCommands() string {
	return fmt.Sprintf("%s/command/+/+", TopicPrefix)
}

// AllEvents returns a pattern matching every event topic.
//
// Pattern: hearth/event/+
func (Topics) AllEvents() string {
	return fmt.Sprintf("%s/event/+", TopicPrefix)
}

// AllTopics returns a pattern matching the relay's whole topic tree.
// Use with caution, this receives all traffic.
//
// Pattern: hearth/#
func (Topics) AllTopics() string {
	return TopicPrefix + "/#"
}
