package finance

import (
	"testing"

	"github.com/google/uuid"
)

func TestComputeTenantStatsZeroAssignedIsZeroRate(t *testing.T) {
	idle := AgentRef{ID: uuid.New(), Name: "Idle Agent"}

	stats := ComputeTenantStats(nil, []AgentRef{idle})

	if len(stats.PerAgent) != 1 {
		t.Fatalf("expected 1 agent row, got %d", len(stats.PerAgent))
	}
	if stats.PerAgent[0].ConversionRate != 0 {
		t.Fatalf("expected 0 conversion rate for idle agent, got %v", stats.PerAgent[0].ConversionRate)
	}
	if stats.ConversionRate != 0 {
		t.Fatalf("expected 0 tenant conversion rate with no leads, got %v", stats.ConversionRate)
	}
	if stats.TotalRevenue != "0" {
		t.Fatalf("expected zero revenue, got %q", stats.TotalRevenue)
	}
}

func TestComputeTenantStatsPerAgentRollup(t *testing.T) {
	closer := AgentRef{ID: uuid.New(), Name: "Closer"}
	rookie := AgentRef{ID: uuid.New(), Name: "Rookie"}

	leads := []LeadStat{
		{AssignedAgentID: &closer.ID, State: "completed", BrokerFee: "200"},
		{AssignedAgentID: &closer.ID, State: "booked", BrokerFee: "150.50"},
		{AssignedAgentID: &closer.ID, State: "quote", BrokerFee: "100"},
		{AssignedAgentID: &rookie.ID, State: "cancelled", BrokerFee: "50"},
		{AssignedAgentID: nil, State: "lead", BrokerFee: "25"},
	}

	stats := ComputeTenantStats(leads, []AgentRef{closer, rookie})

	if stats.TotalLeads != 5 {
		t.Fatalf("expected 5 total leads, got %d", stats.TotalLeads)
	}
	if stats.BookedLeads != 2 {
		t.Fatalf("expected 2 booked leads, got %d", stats.BookedLeads)
	}
	if stats.ActiveLeads != 2 {
		t.Fatalf("expected 2 active leads, got %d", stats.ActiveLeads)
	}
	if stats.ConversionRate != 0.4 {
		t.Fatalf("expected tenant rate 0.4, got %v", stats.ConversionRate)
	}
	if stats.TotalRevenue != "525.5" {
		t.Fatalf("expected total revenue 525.5, got %q", stats.TotalRevenue)
	}

	var closerRow, rookieRow AgentStats
	for _, row := range stats.PerAgent {
		switch row.AgentID {
		case closer.ID:
			closerRow = row
		case rookie.ID:
			rookieRow = row
		}
	}

	if closerRow.AssignedLeads != 3 || closerRow.BookedLeads != 2 {
		t.Fatalf("unexpected closer counts: %+v", closerRow)
	}
	if closerRow.ConversionRate < 0.66 || closerRow.ConversionRate > 0.67 {
		t.Fatalf("expected closer rate ~0.667, got %v", closerRow.ConversionRate)
	}
	if closerRow.Revenue != "450.5" {
		t.Fatalf("expected closer revenue 450.5, got %q", closerRow.Revenue)
	}
	if rookieRow.AssignedLeads != 1 || rookieRow.BookedLeads != 0 || rookieRow.ConversionRate != 0 {
		t.Fatalf("unexpected rookie counts: %+v", rookieRow)
	}
}

func TestComputeTenantStatsIgnoresUnknownAssignee(t *testing.T) {
	ghost := uuid.New()
	leads := []LeadStat{{AssignedAgentID: &ghost, State: "completed", BrokerFee: "99"}}

	stats := ComputeTenantStats(leads, nil)

	if stats.TotalLeads != 1 || stats.BookedLeads != 1 {
		t.Fatalf("unexpected tenant counts: %+v", stats)
	}
	if len(stats.PerAgent) != 0 {
		t.Fatalf("expected no agent rows, got %d", len(stats.PerAgent))
	}
}
