package config

import (
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"
)

// portOwner tracks, for one port number, which router-id (if any)
// listens on it as an input and which router-id (if any) sends to it
// as an output.
type portOwner struct {
	inputID  *int
	outputID *int
}

// ValidateFleet checks the cross-router constraints a set of per-router
// Configs must jointly satisfy: unique router-ids, every port having
// exactly one input owner and one output owner that agree with each
// other, and agreeing metrics between neighbours. Unlike the
// single-file validation in Load, every violation found is accumulated
// and returned together rather than stopping at the first.
func ValidateFleet(configs []*Config) error {
	var result *multierror.Error

	routerByID := make(map[int]*Config, len(configs))
	for _, c := range configs {
		if other, ok := routerByID[c.RouterID]; ok {
			result = multierror.Append(result, fmt.Errorf("same router-id: %d (shared by configs for router %d and router %d)", c.RouterID, other.RouterID, c.RouterID))
			continue
		}
		routerByID[c.RouterID] = c
	}

	portOwners := make(map[int]*portOwner)
	ownerOf := func(port int) *portOwner {
		o, ok := portOwners[port]
		if !ok {
			o = &portOwner{}
			portOwners[port] = o
		}
		return o
	}

	metricsByPair := make(map[[2]int][]int)

	for _, c := range configs {
		routerID := c.RouterID
		for _, p := range c.InputPorts {
			o := ownerOf(p)
			if o.inputID != nil {
				result = multierror.Append(result, fmt.Errorf("port %d already an input for router %d", p, *o.inputID))
				continue
			}
			id := routerID
			o.inputID = &id
		}

		for _, out := range c.Outputs {
			o := ownerOf(out.Port)
			if o.outputID != nil {
				result = multierror.Append(result, fmt.Errorf("port %d is already an output to router %d", out.Port, *o.outputID))
				continue
			}
			id := out.RouterID
			o.outputID = &id

			pair := pairKey(routerID, out.RouterID)
			metricsByPair[pair] = append(metricsByPair[pair], out.Metric)
		}
	}

	ports := make([]int, 0, len(portOwners))
	for p := range portOwners {
		ports = append(ports, p)
	}
	sort.Ints(ports)
	for _, port := range ports {
		o := portOwners[port]
		switch {
		case o.inputID == nil:
			result = multierror.Append(result, fmt.Errorf("sending to router %d on port %d but no receiver", safeDeref(o.outputID), port))
		case o.outputID == nil:
			result = multierror.Append(result, fmt.Errorf("router %d listening on port %d but no sender", safeDeref(o.inputID), port))
		case *o.inputID != *o.outputID:
			result = multierror.Append(result, fmt.Errorf("router-id mismatch between routers %d and %d on port %d", *o.inputID, *o.outputID, port))
		}
	}

	pairs := make([][2]int, 0, len(metricsByPair))
	for pair := range metricsByPair {
		pairs = append(pairs, pair)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i][0] != pairs[j][0] {
			return pairs[i][0] < pairs[j][0]
		}
		return pairs[i][1] < pairs[j][1]
	})
	for _, pair := range pairs {
		metrics := metricsByPair[pair]
		for _, m := range metrics[1:] {
			if m != metrics[0] {
				result = multierror.Append(result, fmt.Errorf("metric mismatch between routers %d and %d", pair[0], pair[1]))
				break
			}
		}
	}

	return result.ErrorOrNil()
}

func safeDeref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func pairKey(a, b int) [2]int {
	pair := [2]int{a, b}
	sort.Ints(pair[:])
	return pair
}
