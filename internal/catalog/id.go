package catalog

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// IDGenerator hands out product ids.
type IDGenerator interface {
	NextID() string
}

type snowflakeIDs struct {
	node *snowflake.Node
}

// NewSnowflakeIDs returns time-ordered ids that are monotonic for the given node.
// nodeID must be in [0, 1023].
func NewSnowflakeIDs(nodeID int64) (IDGenerator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to create id node %d: %w", nodeID, err)
	}
	return &snowflakeIDs{node: node}, nil
}

func (g *snowflakeIDs) NextID() string {
	return g.node.Generate().String()
}
