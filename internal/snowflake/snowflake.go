// Package snowflake hands out process-wide unique entry IDs.
package snowflake

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

var node *snowflake.Node

// Init sets up the generator. nodeID must be unique per running
// instance (0-1023); a single-box deployment can leave it at 0.
func Init(nodeID int64) error {
	n, err := snowflake.NewNode(nodeID)
	if err != nil {
		return fmt.Errorf("snowflake node %d: %w", nodeID, err)
	}
	node = n
	return nil
}

// NextID returns a new unique ID. Init must have been called first.
func NextID() int64 {
	return node.Generate().Int64()
}
