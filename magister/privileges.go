package magister

import "strings"

// Actions a privilege can grant on a resource.
const (
	ActionRead   = "read"
	ActionCreate = "create"
	ActionModify = "modify"
	ActionDelete = "delete"
)

// privilegeEntry is the wire shape of a privilege in the account response.
type privilegeEntry struct {
	Name    string   `json:"Naam"`
	Actions []string `json:"AccessType"`
}

// privilegeSet is the snapshot of granted privileges taken at login. The
// portal is inconsistent about resource-name casing, so names and actions are
// lowercased at population time and lookups are case-insensitive. The
// snapshot is written only by the session manager and read-only elsewhere.
type privilegeSet struct {
	grants map[string]map[string]struct{}
}

func newPrivilegeSet(entries []privilegeEntry) *privilegeSet {
	grants := make(map[string]map[string]struct{}, len(entries))
	for _, entry := range entries {
		name := strings.ToLower(entry.Name)
		actions, ok := grants[name]
		if !ok {
			actions = make(map[string]struct{}, len(entry.Actions))
			grants[name] = actions
		}
		for _, action := range entry.Actions {
			actions[strings.ToLower(action)] = struct{}{}
		}
	}
	return &privilegeSet{grants: grants}
}

// can reports whether the resource grants the action.
func (p *privilegeSet) can(resource, action string) bool {
	actions, ok := p.grants[strings.ToLower(resource)]
	if !ok {
		return false
	}
	_, ok = actions[strings.ToLower(action)]
	return ok
}

// Can reports whether the current session grants the action on the resource.
func (c *Client) Can(resource, action string) bool {
	return c.privileges != nil && c.privileges.can(resource, action)
}

// needs returns a *PermissionError unless the current session grants the
// action on the resource. Every fetcher calls it before issuing its request.
func (c *Client) needs(resource, action string) error {
	if c.privileges == nil {
		return ErrNotLoggedIn
	}
	if !c.privileges.can(resource, action) {
		return &PermissionError{Resource: resource, Action: action}
	}
	return nil
}
