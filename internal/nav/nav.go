// Package nav holds the static dashboard menu tree and the role-based
// visibility filter over it.
package nav

import "campus-relay/internal/identity"

// Node is one menu entry. A nil Roles slice means the node inherits
// visibility (everyone sees it); otherwise only the listed roles do.
type Node struct {
	Name     string          `json:"name"`
	Path     string          `json:"path,omitempty"`
	Icon     string          `json:"icon,omitempty"`
	Roles    []identity.Role `json:"roles,omitempty"`
	Children []Node          `json:"children,omitempty"`
}

// Filter returns the subtree visible to role. Pure: the input tree is
// never mutated. A parent whose children are all filtered out collapses
// unless it is independently navigable through its own Path.
func Filter(nodes []Node, role identity.Role) []Node {
	var out []Node
	for _, n := range nodes {
		if !visible(n, role) {
			continue
		}
		kids := Filter(n.Children, role)
		if len(n.Children) > 0 && len(kids) == 0 && n.Path == "" {
			continue
		}
		n.Children = kids
		out = append(out, n)
	}
	return out
}

func visible(n Node, role identity.Role) bool {
	if n.Roles == nil {
		return true
	}
	for _, r := range n.Roles {
		if r == role {
			return true
		}
	}
	return false
}
