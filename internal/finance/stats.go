package finance

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Lead state values the rollup treats as a successful booking. "booked" is a
// legacy value carried by imported rows; "completed" is the current terminal
// success state.
var bookedStates = map[string]bool{
	"booked":    true,
	"completed": true,
}

// Lead state values excluded from the active-lead count.
var inactiveStates = map[string]bool{
	"booked":    true,
	"completed": true,
	"cancelled": true,
}

// LeadStat is the slice of a lead the rollup needs.
type LeadStat struct {
	AssignedAgentID *uuid.UUID
	State           string
	BrokerFee       string
}

// AgentRef identifies an agent for per-agent reporting.
type AgentRef struct {
	ID   uuid.UUID
	Name string
}

// AgentStats is the per-agent performance rollup.
type AgentStats struct {
	AgentID        uuid.UUID `json:"agentId"`
	Name           string    `json:"name"`
	AssignedLeads  int       `json:"assignedLeads"`
	BookedLeads    int       `json:"bookedLeads"`
	ConversionRate float64   `json:"conversionRate"`
	Revenue        string    `json:"revenue"`
}

// TenantStats is the tenant-level aggregate.
type TenantStats struct {
	TotalLeads     int          `json:"totalLeads"`
	ActiveLeads    int          `json:"activeLeads"`
	BookedLeads    int          `json:"bookedLeads"`
	ConversionRate float64      `json:"conversionRate"`
	TotalRevenue   string       `json:"totalRevenue"`
	PerAgent       []AgentStats `json:"perAgent"`
}

// ComputeTenantStats recomputes aggregate statistics from the full lead set.
// Conversion rates guard against division by zero: an agent with no assigned
// leads reports 0, never NaN.
func ComputeTenantStats(leads []LeadStat, agents []AgentRef) TenantStats {
	type agentAccum struct {
		assigned int
		booked   int
		revenue  decimal.Decimal
	}

	accum := make(map[uuid.UUID]*agentAccum, len(agents))
	for _, agent := range agents {
		accum[agent.ID] = &agentAccum{revenue: decimal.Zero}
	}

	stats := TenantStats{TotalRevenue: "0"}
	totalRevenue := decimal.Zero

	for _, lead := range leads {
		stats.TotalLeads++
		if bookedStates[lead.State] {
			stats.BookedLeads++
		}
		if !inactiveStates[lead.State] {
			stats.ActiveLeads++
		}
		totalRevenue = totalRevenue.Add(sumFees([]string{lead.BrokerFee}))

		if lead.AssignedAgentID == nil {
			continue
		}
		a, ok := accum[*lead.AssignedAgentID]
		if !ok {
			// Assigned to an agent outside the reporting set; skip rather
			// than invent a row.
			continue
		}
		a.assigned++
		if bookedStates[lead.State] {
			a.booked++
		}
		a.revenue = a.revenue.Add(sumFees([]string{lead.BrokerFee}))
	}

	stats.TotalRevenue = totalRevenue.String()
	stats.ConversionRate = safeRate(stats.BookedLeads, stats.TotalLeads)

	stats.PerAgent = make([]AgentStats, 0, len(agents))
	for _, agent := range agents {
		a := accum[agent.ID]
		stats.PerAgent = append(stats.PerAgent, AgentStats{
			AgentID:        agent.ID,
			Name:           agent.Name,
			AssignedLeads:  a.assigned,
			BookedLeads:    a.booked,
			ConversionRate: safeRate(a.booked, a.assigned),
			Revenue:        a.revenue.String(),
		})
	}

	return stats
}

func safeRate(booked, assigned int) float64 {
	if assigned == 0 {
		return 0
	}
	return float64(booked) / float64(assigned)
}
