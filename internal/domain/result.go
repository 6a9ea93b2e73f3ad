package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// SimulationResult is the outcome of one simulation run.
// Field names on the wire match the stored result files.
type SimulationResult struct {
	ID            string `json:"id"`    // sim_realistic_<addr[:8]>_<unix ms>
	Name          string `json:"name"`  // <STRATEGY>_<addr[:6]>_<N>d_<size>_realistic
	Logic         string `json:"logic"` // <strategy>_realistic
	Timestamp     int64  `json:"timestamp"`
	TraderAddress string `json:"traderAddress"`

	// Capital
	StartingCapital float64 `json:"startingCapital"`
	CurrentCapital  float64 `json:"currentCapital"`

	// Counts
	TotalTrades   int `json:"totalTrades"`
	CopiedTrades  int `json:"copiedTrades"`
	SkippedTrades int `json:"skippedTrades"`

	// Performance
	TotalInvested float64 `json:"totalInvested"`
	CurrentValue  float64 `json:"currentValue"` // cash + open position value
	RealizedPnL   float64 `json:"realizedPnl"`
	UnrealizedPnL float64 `json:"unrealizedPnl"`
	TotalPnL      float64 `json:"totalPnl"`
	ROI           float64 `json:"roi"` // percent

	// Execution costs
	TotalSlippageCost  float64 `json:"totalSlippageCost"`
	AvgSlippagePercent float64 `json:"avgSlippagePercent"`

	Positions   []*SimulatedPosition `json:"positions"`
	SkipReasons map[string]int       `json:"skipReasons,omitempty"`
	Parameters  *SimulationParams    `json:"parameters,omitempty"`
}

// SimulationParams echoes the run configuration into the result.
type SimulationParams struct {
	HistoryDays       int                `json:"historyDays"`
	MaxTrades         int                `json:"maxTrades"`
	DetectionDelaySec float64            `json:"detectionDelaySeconds"`
	BaseSlippagePct   float64            `json:"baseSlippagePercent"`
	SlippagePer100Pct float64            `json:"slippagePer100Percent"`
	TransactionFeePct float64            `json:"transactionFeePercent"`
	CopyStrategy      CopyStrategyConfig `json:"copyStrategy"`
	ResultTag         string             `json:"resultTag,omitempty"`
	LiveMarksApplied  int                `json:"liveMarksApplied"`
}

// Clone returns a deep copy of the result.
func (r *SimulationResult) Clone() *SimulationResult {
	c := *r
	if r.Positions != nil {
		c.Positions = make([]*SimulatedPosition, len(r.Positions))
		for i, p := range r.Positions {
			c.Positions[i] = p.Clone()
		}
	}
	if r.SkipReasons != nil {
		c.SkipReasons = make(map[string]int, len(r.SkipReasons))
		for k, v := range r.SkipReasons {
			c.SkipReasons[k] = v
		}
	}
	if r.Parameters != nil {
		p := *r.Parameters
		c.Parameters = &p
	}
	return &c
}

var tagSanitizer = regexp.MustCompile(`[^a-zA-Z0-9-_]+`)

// SanitizeTag trims tag and replaces every run of characters outside [a-zA-Z0-9-_] with "-".
func SanitizeTag(tag string) string {
	return tagSanitizer.ReplaceAllString(strings.TrimSpace(tag), "-")
}

// FileName returns
// <strategy>_<address>_<N>d_<size>_realistic[_<tag>]_<YYYY-MM-DD>.json,
// dated by the result timestamp in UTC. Results without parameters fall
// back to <id>.json.
func (r *SimulationResult) FileName() string {
	if r.Parameters == nil {
		return r.ID + ".json"
	}
	p := r.Parameters
	var tag string
	if p.ResultTag != "" {
		tag = "_" + SanitizeTag(p.ResultTag)
	}
	date := time.UnixMilli(r.Timestamp).UTC().Format(time.DateOnly)
	return fmt.Sprintf("%s_%s_%dd_%s_realistic%s_%s.json",
		strings.ToLower(string(p.CopyStrategy.Strategy)),
		r.TraderAddress,
		p.HistoryDays,
		p.CopyStrategy.SizeLabel(),
		tag,
		date,
	)
}

// trimFloat formats v with the fewest digits that round-trip.
func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
