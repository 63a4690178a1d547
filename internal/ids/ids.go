package ids

import "github.com/segmentio/ksuid"

// New returns a K-sortable unique id for entities (users, orgs, sites, sessions).
func New() string {
	return ksuid.New().String()
}
