package redis

import (
	"fmt"

	"github.com/workscale/backlog/inspect"
)

// Redis key naming conventions for backlog data.
// All keys are prefixed with "backlog:" to avoid collisions.

const keyPrefix = "backlog:"

// workerKey returns the key for a worker hash: backlog:worker:{id}
func workerKey(id string) string { return keyPrefix + "worker:" + id }

// workerIDsKey is the Set tracking all worker IDs for enumeration.
const workerIDsKey = keyPrefix + "worker_ids"

// tasksKey returns the key for a worker's task snapshot for one status:
// backlog:tasks:{id}:{status}
func tasksKey(id string, status inspect.Status) string {
	return fmt.Sprintf("%stasks:%s:%s", keyPrefix, id, status)
}
