package utilities

import (
	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/segmentio/ksuid"
)

// NewKSUID generates a new globally unique KSUID string.
func NewKSUID() string {
	return ksuid.New().String()
}

// IDGenerator hands out the identifiers used across the service: uuids for
// user-facing rows, snowflakes for high-volume append-only rows and ksuids
// for log-like records.
type IDGenerator struct {
	node *snowflake.Node
}

// NewIDGenerator builds a generator bound to one snowflake node. Out of
// range node ids fall back to node 1.
func NewIDGenerator(nodeID int64) *IDGenerator {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		node, _ = snowflake.NewNode(1)
	}
	return &IDGenerator{node: node}
}

// Snowflake returns a time-ordered snowflake id string.
func (g *IDGenerator) Snowflake() string {
	return g.node.Generate().String()
}

// KSUID returns a new KSUID string.
func (g *IDGenerator) KSUID() string {
	return NewKSUID()
}

// UUID returns a random (v4) uuid.
func (g *IDGenerator) UUID() uuid.UUID {
	return uuid.New()
}
