package connectivity

import (
	"strconv"

	"github.com/OpenTraceLab/OpenTraceDRC/pkg/soup"
)

// Requirement is a set of ports that must all end up in one class.
type Requirement struct {
	GroupIDs []string     // source_trace ids that contributed
	NetIDs   []string     // Net ids shared by those groups
	Ports    []*soup.Port // Resolved physical ports, deduplicated
}

// ExtractRequirements turns requirement groups into sets of physical ports.
//
// Logical ids resolve through Port.SourcePortID; ids with no matching port are
// dropped. Groups that share a net id are merged transitively. Requirements are
// ordered by their first group, ports by group order then listing order.
func ExtractRequirements(ports []*soup.Port, groups []*soup.SourceTrace) []Requirement {
	byLogical := make(map[string][]*soup.Port)
	for _, p := range ports {
		if p.SourcePortID == "" {
			continue
		}
		byLogical[p.SourcePortID] = append(byLogical[p.SourcePortID], p)
	}

	// Union groups that mention the same net
	keys := make([]string, len(groups))
	for i := range groups {
		keys[i] = strconv.Itoa(i)
	}
	joined := NewGraph(keys)
	netOwner := make(map[string]string)
	for i, group := range groups {
		for _, net := range group.ConnectedSourceNetIDs {
			if net == "" {
				continue
			}
			if owner, ok := netOwner[net]; ok {
				joined.Connect(owner, keys[i])
				continue
			}
			netOwner[net] = keys[i]
		}
	}

	var reqs []Requirement
	slot := make(map[string]int)
	seenPort := make(map[int]map[string]bool)
	seenNet := make(map[int]map[string]bool)

	for i, group := range groups {
		root, _ := joined.Find(keys[i])
		n, ok := slot[root]
		if !ok {
			n = len(reqs)
			slot[root] = n
			reqs = append(reqs, Requirement{})
			seenPort[n] = make(map[string]bool)
			seenNet[n] = make(map[string]bool)
		}

		req := &reqs[n]
		req.GroupIDs = append(req.GroupIDs, group.SourceTraceID)
		for _, net := range group.ConnectedSourceNetIDs {
			if net != "" && !seenNet[n][net] {
				seenNet[n][net] = true
				req.NetIDs = append(req.NetIDs, net)
			}
		}
		for _, logical := range group.ConnectedSourcePortIDs {
			for _, p := range byLogical[logical] {
				if seenPort[n][p.PortID] {
					continue
				}
				seenPort[n][p.PortID] = true
				req.Ports = append(req.Ports, p)
			}
		}
	}

	return reqs
}
