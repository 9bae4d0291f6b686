// Package config loads and validates a router's INI configuration
// file and the cross-router constraints a fleet of them must satisfy.
package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"
)

const (
	minRouterID = 1
	maxRouterID = 64000
	minPort     = 1024
	maxPort     = 64000
	minMetric   = 1
	maxMetric   = 16
)

// Output is one configured neighbour: the port used to reach it, the
// metric advertised for the direct link, and its router-id.
type Output struct {
	Port     int
	Metric   int
	RouterID int
}

// Config is one router's validated, immutable-after-load configuration.
type Config struct {
	RouterID   int
	InputPorts []int
	Outputs    []Output
}

// Load reads and validates the SETTINGS section of an INI file at path.
func Load(path string) (*Config, error) {
	f, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	section, err := f.GetSection("SETTINGS")
	if err != nil {
		return nil, fmt.Errorf("config: %s: missing [SETTINGS] section", path)
	}
	return parseSection(section)
}

func parseSection(section *ini.Section) (*Config, error) {
	routerID, err := parseRouterID(section.Key("router-id").String())
	if err != nil {
		return nil, err
	}

	inputPorts, err := parsePortList(section.Key("input-ports").String())
	if err != nil {
		return nil, err
	}
	if len(inputPorts) == 0 {
		return nil, fmt.Errorf("config: input-ports must not be empty")
	}
	if dup := firstDuplicate(inputPorts); dup != 0 {
		return nil, fmt.Errorf("config: duplicate input port %d", dup)
	}

	outputs, err := parseOutputs(section.Key("outputs").String())
	if err != nil {
		return nil, err
	}
	if len(outputs) == 0 {
		return nil, fmt.Errorf("config: outputs must not be empty")
	}

	inputSet := make(map[int]bool, len(inputPorts))
	for _, p := range inputPorts {
		inputSet[p] = true
	}
	for _, o := range outputs {
		if inputSet[o.Port] {
			return nil, fmt.Errorf("config: port %d is used as both input and output", o.Port)
		}
	}

	return &Config{RouterID: routerID, InputPorts: inputPorts, Outputs: outputs}, nil
}

func parseRouterID(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < minRouterID || n > maxRouterID {
		return 0, fmt.Errorf("router-id must be a number between %d and %d. Got %q", minRouterID, maxRouterID, raw)
	}
	return n, nil
}

func parsePortList(raw string) ([]int, error) {
	var ports []int
	for _, field := range splitCSV(raw) {
		n, err := strconv.Atoi(field)
		if err != nil || n < minPort || n > maxPort {
			return nil, fmt.Errorf("port must be a number between %d and %d. Got %q", minPort, maxPort, field)
		}
		ports = append(ports, n)
	}
	return ports, nil
}

func parseOutputs(raw string) ([]Output, error) {
	var outputs []Output
	for _, field := range splitCSV(raw) {
		parts := strings.Split(field, "-")
		if len(parts) != 3 {
			return nil, fmt.Errorf("output must be PORT-METRIC-ROUTERID. Got %q", field)
		}
		port, err := strconv.Atoi(parts[0])
		if err != nil || port < minPort || port > maxPort {
			return nil, fmt.Errorf("output port must be a number between %d and %d. Got %q", minPort, maxPort, parts[0])
		}
		metric, err := strconv.Atoi(parts[1])
		if err != nil || metric < minMetric || metric > maxMetric {
			return nil, fmt.Errorf("output metric must be a number between %d and %d. Got %q", minMetric, maxMetric, parts[1])
		}
		routerID, err := parseRouterID(parts[2])
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, Output{Port: port, Metric: metric, RouterID: routerID})
	}
	return outputs, nil
}

func splitCSV(raw string) []string {
	var out []string
	for _, f := range strings.Split(raw, ",") {
		f = strings.TrimSpace(f)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func firstDuplicate(ports []int) int {
	seen := make(map[int]bool, len(ports))
	sorted := append([]int(nil), ports...)
	sort.Ints(sorted)
	for _, p := range sorted {
		if seen[p] {
			return p
		}
		seen[p] = true
	}
	return 0
}
