// Package config parses the router's configuration file: a small
// line-oriented directive format listing the router's id, its input and
// output sockets, and its neighbours.
package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

const commentPrefix = "//"

// Port and router id bounds, mirrored from the routing table's own
// constants so this package has no dependency on rip.
const (
	MinRouterID = 1
	MaxRouterID = 64000
	MinPort     = 1024
	MaxPort     = 64000
)

// Output describes one neighbour declared by the outputs directive, in
// the form inputPort-metric-routerId.
type Output struct {
	InputPort int
	Metric    int
	RouterID  int
}

// Config is everything read from a router's configuration file.
type Config struct {
	RouterID     int
	InputPorts   []int
	Outputs      []Output
	OutputPort   int
	UpdatePeriod time.Duration // zero if the file didn't specify update-period
}

// set tracks which mandatory directives have been seen, to catch both
// missing and duplicate definitions.
type set struct {
	routerID     bool
	inputPorts   bool
	outputs      bool
	outputPort   bool
	updatePeriod bool
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a configuration file from r. Exported separately from Load
// so tests can exercise it against an in-memory reader.
func Parse(r io.Reader) (*Config, error) {
	cfg := &Config{}
	var seen set

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, commentPrefix) {
			continue
		}
		if err := parseLine(line, cfg, &seen); err != nil {
			return nil, fmt.Errorf("config: line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := requireMandatory(seen); err != nil {
		return nil, err
	}
	if err := validateCrossReferences(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func requireMandatory(seen set) error {
	switch {
	case !seen.routerID:
		return fmt.Errorf("config: missing router-id")
	case !seen.inputPorts:
		return fmt.Errorf("config: missing input-ports")
	case !seen.outputs:
		return fmt.Errorf("config: missing outputs")
	case !seen.outputPort:
		return fmt.Errorf("config: missing output-port")
	}
	return nil
}

// validateCrossReferences enforces the disjointness rules between this
// router's own sockets/id and the ones it declares for its neighbours.
func validateCrossReferences(cfg *Config) error {
	inputs := make(map[int]bool, len(cfg.InputPorts))
	for _, p := range cfg.InputPorts {
		inputs[p] = true
	}

	for _, out := range cfg.Outputs {
		if inputs[out.InputPort] {
			return fmt.Errorf("config: neighbour port numbers must be different from this router's input ports")
		}
		if out.InputPort == cfg.OutputPort {
			return fmt.Errorf("config: neighbour port numbers must be different from this router's output port")
		}
		if out.RouterID == cfg.RouterID {
			return fmt.Errorf("config: output router ids must be different from router-id")
		}
	}
	if inputs[cfg.OutputPort] {
		return fmt.Errorf("config: output-port must be different from input-ports")
	}
	return nil
}

func parseLine(line string, cfg *Config, seen *set) error {
	tokens := strings.Fields(line)
	directive, args := tokens[0], tokens[1:]

	switch directive {
	case "router-id":
		if seen.routerID {
			return fmt.Errorf("router-id defined more than once")
		}
		id, err := parseRouterID(args)
		if err != nil {
			return err
		}
		cfg.RouterID = id
		seen.routerID = true

	case "input-ports":
		if seen.inputPorts {
			return fmt.Errorf("input-ports defined more than once")
		}
		ports, err := parseInputPorts(args)
		if err != nil {
			return err
		}
		cfg.InputPorts = ports
		seen.inputPorts = true

	case "outputs":
		if seen.outputs {
			return fmt.Errorf("outputs defined more than once")
		}
		outputs, err := parseOutputs(args)
		if err != nil {
			return err
		}
		cfg.Outputs = outputs
		seen.outputs = true

	case "output-port":
		if seen.outputPort {
			return fmt.Errorf("output-port defined more than once")
		}
		port, err := parsePort(args, "output-port")
		if err != nil {
			return err
		}
		cfg.OutputPort = port
		seen.outputPort = true

	case "update-period":
		if seen.updatePeriod {
			return fmt.Errorf("update-period defined more than once")
		}
		period, err := parseUpdatePeriod(args)
		if err != nil {
			return err
		}
		cfg.UpdatePeriod = period
		seen.updatePeriod = true

	default:
		return fmt.Errorf("%s is not a valid parameter", directive)
	}
	return nil
}

func parseRouterID(tokens []string) (int, error) {
	if len(tokens) != 1 {
		return 0, routerIDErr()
	}
	id, err := strconv.Atoi(tokens[0])
	if err != nil || !isValidRouterID(id) {
		return 0, routerIDErr()
	}
	return id, nil
}

func parseInputPorts(tokens []string) ([]int, error) {
	if len(tokens) == 0 {
		return nil, inputPortsErr()
	}
	ports := make([]int, 0, len(tokens))
	for _, tok := range tokens {
		port, err := strconv.Atoi(tok)
		if err != nil || !isValidPort(port) {
			return nil, inputPortsErr()
		}
		ports = append(ports, port)
	}
	return ports, nil
}

func parseOutputs(tokens []string) ([]Output, error) {
	if len(tokens) == 0 {
		return nil, outputsErr()
	}
	outputs := make([]Output, 0, len(tokens))
	for _, tok := range tokens {
		parts := strings.Split(tok, "-")
		if len(parts) != 3 {
			return nil, outputsErr()
		}
		values := make([]int, 3)
		for i, p := range parts {
			v, err := strconv.Atoi(p)
			if err != nil {
				return nil, outputsErr()
			}
			values[i] = v
		}
		inputPort, metric, routerID := values[0], values[1], values[2]
		if !isValidPort(inputPort) {
			return nil, fmt.Errorf("port numbers of outputs must be between %d and %d", MinPort, MaxPort)
		}
		if metric < 1 {
			return nil, fmt.Errorf("metrics of outputs must be at least 1")
		}
		if !isValidRouterID(routerID) {
			return nil, fmt.Errorf("router ids of outputs must be between %d and %d", MinRouterID, MaxRouterID)
		}
		outputs = append(outputs, Output{InputPort: inputPort, Metric: metric, RouterID: routerID})
	}
	return outputs, nil
}

func parsePort(tokens []string, directive string) (int, error) {
	if len(tokens) != 1 {
		return 0, fmt.Errorf("%s must be a single integer between %d and %d", directive, MinPort, MaxPort)
	}
	port, err := strconv.Atoi(tokens[0])
	if err != nil || !isValidPort(port) {
		return 0, fmt.Errorf("%s must be a single integer between %d and %d", directive, MinPort, MaxPort)
	}
	return port, nil
}

func parseUpdatePeriod(tokens []string) (time.Duration, error) {
	if len(tokens) != 1 {
		return 0, updatePeriodErr()
	}
	seconds, err := strconv.Atoi(tokens[0])
	if err != nil || seconds <= 0 {
		return 0, updatePeriodErr()
	}
	return time.Duration(seconds) * time.Second, nil
}

func isValidRouterID(id int) bool {
	return id >= MinRouterID && id <= MaxRouterID
}

func isValidPort(port int) bool {
	return port >= MinPort && port <= MaxPort
}

func routerIDErr() error {
	return fmt.Errorf("router-id must be a single integer between %d and %d", MinRouterID, MaxRouterID)
}

func inputPortsErr() error {
	return fmt.Errorf("input-ports must be a non-empty list of integers between %d and %d, separated by spaces", MinPort, MaxPort)
}

func outputsErr() error {
	return fmt.Errorf("outputs must be a non-empty space-separated list of entries in the form inputPort-metric-routerId")
}

func updatePeriodErr() error {
	return fmt.Errorf("update-period must be a single positive integer")
}
