package ansible

import (
	"fmt"
	"sort"
	"strings"
)

// Group is one inventory section.
type Group struct {
	Name  string
	Hosts []string
	// Vars become the section's [name:vars] block.
	Vars map[string]string
}

// Inventory is an ordered list of host groups.
type Inventory struct {
	Groups []Group
}

// Add appends a group.
func (inv *Inventory) Add(name string, hosts ...string) *Inventory {
	inv.Groups = append(inv.Groups, Group{Name: name, Hosts: hosts})
	return inv
}

// Hosts returns the number of hosts across all groups.
func (inv Inventory) Hosts() int {
	n := 0
	for _, g := range inv.Groups {
		n += len(g.Hosts)
	}
	return n
}

// Render returns the inventory in INI format.
func (inv Inventory) Render() string {
	var b strings.Builder
	for i, g := range inv.Groups {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "[%s]\n", g.Name)
		for _, h := range g.Hosts {
			b.WriteString(h)
			b.WriteString("\n")
		}
		if len(g.Vars) > 0 {
			fmt.Fprintf(&b, "\n[%s:vars]\n", g.Name)
			keys := make([]string, 0, len(g.Vars))
			for k := range g.Vars {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(&b, "%s=%s\n", k, g.Vars[k])
			}
		}
	}
	return b.String()
}
