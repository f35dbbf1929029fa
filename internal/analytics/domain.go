// Package analytics aggregates task statistics within the caller's
// visibility scope. Numbers never include tasks the scope resolver
// would hide from the principal.
package analytics

// Stats summarises the tasks visible to one principal.
type Stats struct {
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"by_status"`
	ByPriority map[string]int `json:"by_priority"`
	Overdue    int            `json:"overdue"`
}
