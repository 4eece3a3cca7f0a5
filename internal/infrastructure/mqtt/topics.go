package mqtt

import "fmt"

// TopicPrefixNode is the base for all node topics.
const TopicPrefixNode = "graylogic/node"

// Topics provides builders for node MQTT topics.
//
//	topics := mqtt.Topics{}
//	topics.NodeReading("node-001")
//	// Returns: "graylogic/node/node-001/reading"
type Topics struct{}

// NodeReading returns the topic a single reading is published on.
//
// Example: graylogic/node/node-001/reading
func (Topics) NodeReading(nodeID string) string {
	return fmt.Sprintf("%s/%s/reading", TopicPrefixNode, nodeID)
}

// NodeReadings returns the topic a backlog batch is published on.
//
// Example: graylogic/node/node-001/readings
func (Topics) NodeReadings(nodeID string) string {
	return fmt.Sprintf("%s/%s/readings", TopicPrefixNode, nodeID)
}

// NodeStatus returns the retained online/sleeping/offline status topic.
//
// Example: graylogic/node/node-001/status
func (Topics) NodeStatus(nodeID string) string {
	return fmt.Sprintf("%s/%s/status", TopicPrefixNode, nodeID)
}

// AllNodeReadings returns a wildcard matching single readings from every node.
//
// Example: graylogic/node/+/reading
func (Topics) AllNodeReadings() string {
	return TopicPrefixNode + "/+/reading"
}
