package config

import (
	"testing"

	"github.com/hashicorp/go-multierror"
)

func twoRouterFleet(metricA, metricB int) []*Config {
	return []*Config{
		{RouterID: 2, InputPorts: []int{5002}, Outputs: []Output{{Port: 5003, Metric: metricA, RouterID: 3}}},
		{RouterID: 3, InputPorts: []int{5003}, Outputs: []Output{{Port: 5002, Metric: metricB, RouterID: 2}}},
	}
}

func TestValidateFleetAcceptsSymmetricLink(t *testing.T) {
	if err := ValidateFleet(twoRouterFleet(1, 1)); err != nil {
		t.Errorf("expected a valid fleet, got %v", err)
	}
}

func TestValidateFleetRejectsDuplicateRouterID(t *testing.T) {
	fleet := twoRouterFleet(1, 1)
	fleet[1].RouterID = 2
	if err := ValidateFleet(fleet); err == nil {
		t.Error("expected error for duplicate router-id")
	}
}

func TestValidateFleetRejectsDisagreeingMetrics(t *testing.T) {
	if err := ValidateFleet(twoRouterFleet(1, 2)); err == nil {
		t.Error("expected error for disagreeing link metrics")
	}
}

func TestValidateFleetRejectsMismatchedOutputPort(t *testing.T) {
	fleet := twoRouterFleet(1, 1)
	fleet[0].Outputs[0].Port = 9999
	if err := ValidateFleet(fleet); err == nil {
		t.Error("expected error when the output port does not match the peer's input port")
	}
}

func TestValidateFleetRejectsUnknownNeighbourID(t *testing.T) {
	fleet := twoRouterFleet(1, 1)
	fleet[0].Outputs[0].RouterID = 99
	if err := ValidateFleet(fleet); err == nil {
		t.Error("expected error when an output names an unconfigured router-id")
	}
}

func TestValidateFleetRejectsDanglingInputPort(t *testing.T) {
	fleet := []*Config{
		{RouterID: 2, InputPorts: []int{5002, 6000}, Outputs: []Output{{Port: 5003, Metric: 1, RouterID: 3}}},
		{RouterID: 3, InputPorts: []int{5003}, Outputs: []Output{{Port: 5002, Metric: 1, RouterID: 2}}},
	}
	if err := ValidateFleet(fleet); err == nil {
		t.Error("expected error for router 2 listening on port 6000 with no sender")
	}
}

func TestValidateFleetRejectsDuplicateInputPort(t *testing.T) {
	fleet := twoRouterFleet(1, 1)
	fleet[1].InputPorts = append(fleet[1].InputPorts, 5002)
	if err := ValidateFleet(fleet); err == nil {
		t.Error("expected error when two routers both declare the same input port")
	}
}

func TestValidateFleetAccumulatesMultipleErrors(t *testing.T) {
	fleet := twoRouterFleet(1, 2)
	fleet[1].RouterID = 2
	err := ValidateFleet(fleet)
	if err == nil {
		t.Fatal("expected accumulated errors")
	}
	// Duplicate router-id 2, plus a router-id mismatch on port 5003.
	if merr, ok := err.(*multierror.Error); !ok || len(merr.Errors) < 2 {
		t.Errorf("expected at least 2 accumulated errors, got %v", err)
	}
}
