package mqtt

import "fmt"

// Topic prefixes.
const (
	// TopicPrefixControllers is the base for per-controller topics.
	TopicPrefixControllers = "poolwatch/controllers"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "poolwatch/system"
)

// Topics provides builders for Pool Watch MQTT topics.
//
//	topic := mqtt.Topics{}.ControllerSnapshot("100")
//	// Returns: "poolwatch/controllers/100/snapshot"
type Topics struct{}

// ControllerSnapshot returns the retained snapshot topic of a controller.
//
// Example: poolwatch/controllers/100/snapshot
func (Topics) ControllerSnapshot(ctrlID string) string {
	return fmt.Sprintf("%s/%s/snapshot", TopicPrefixControllers, ctrlID)
}

// AllControllerSnapshots returns a pattern matching every controller snapshot.
//
// Pattern: poolwatch/controllers/+/snapshot
func (Topics) AllControllerSnapshots() string {
	return fmt.Sprintf("%s/+/snapshot", TopicPrefixControllers)
}

// SystemStatus returns the service status topic.
//
// Example: poolwatch/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}
