package backlog

import "github.com/workscale/backlog/inspect"

// Cache holds per-scaling-cycle inspection state. Create one Cache per
// decision cycle and thread it through every Quantity call in that cycle;
// repeated queries then share one memoized inspection per distinct worker
// control client, so at most one routing-table resolution and one per-status
// worker query happens per cycle.
//
// Inspections are keyed by client identity, so distinct queue-system
// connections get independent, independently memoized inspectors. Client
// values must therefore be comparable; pointer implementations are.
//
// A Cache serves one logical pass by one caller and is not safe for
// concurrent use.
type Cache struct {
	inspections map[inspect.Client]*inspect.Inspection
}

// NewCache creates an empty Cache.
func NewCache() *Cache {
	return &Cache{inspections: make(map[inspect.Client]*inspect.Inspection)}
}

// Inspection returns the inspection for the given client, creating and
// storing one on first lookup.
func (c *Cache) Inspection(client inspect.Client) *inspect.Inspection {
	if ins, ok := c.inspections[client]; ok {
		return ins
	}
	ins := inspect.New(client)
	c.inspections[client] = ins
	return ins
}
