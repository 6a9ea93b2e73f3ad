package domain

import (
	"testing"
	"time"
)

const addr = "0x7c3db723f1d4d8cb9c550095203b686cb11e5c6b"

func TestCacheKey(t *testing.T) {
	// 23:30 in UTC-5 is the next UTC day
	now := time.Date(2025, 3, 14, 23, 30, 0, 0, time.FixedZone("EST", -5*3600))
	key := NewCacheKey(addr, 7, now)

	if key.Date != "2025-03-15" {
		t.Errorf("expected UTC date 2025-03-15, got %s", key.Date)
	}
	if got := key.FileName(); got != addr+"_7d_2025-03-15.json" {
		t.Errorf("unexpected file name %s", got)
	}
	if got := key.Name(); got != "trader_0x7c3d_7d_2025-03-15" {
		t.Errorf("unexpected name %s", got)
	}
	if got := key.Period(); got != "7_days" {
		t.Errorf("unexpected period %s", got)
	}
}

func TestNewTradeCache(t *testing.T) {
	fetched := time.Date(2025, 3, 15, 4, 30, 0, 123_000_000, time.UTC)
	key := NewCacheKey(addr, 3, fetched)
	c := NewTradeCache(key, []Trade{{ID: "a"}, {ID: "b"}}, fetched)

	if c.FetchedAt != "2025-03-15T04:30:00.123Z" {
		t.Errorf("unexpected fetchedAt %s", c.FetchedAt)
	}
	if c.TotalTrades != 2 || c.Period != "3_days" {
		t.Errorf("unexpected cache %+v", c)
	}
	if c.Key() != key {
		t.Errorf("expected key round trip, got %+v", c.Key())
	}
}

func TestParseCopyStrategy(t *testing.T) {
	cases := map[string]CopyStrategy{
		"fixed":        CopyStrategyFixed,
		" Percentage ": CopyStrategyPercentage,
		"ADAPTIVE":     CopyStrategyAdaptive,
	}
	for in, want := range cases {
		got, ok := ParseCopyStrategy(in)
		if !ok || got != want {
			t.Errorf("ParseCopyStrategy(%q) = %q, %v", in, got, ok)
		}
	}
	if _, ok := ParseCopyStrategy("kelly"); ok {
		t.Error("expected unknown strategy rejected")
	}
}

func TestSizeLabel(t *testing.T) {
	if got := (CopyStrategyConfig{Strategy: CopyStrategyFixed, CopySize: 5}).SizeLabel(); got != "5usd" {
		t.Errorf("unexpected FIXED label %s", got)
	}
	if got := (CopyStrategyConfig{Strategy: CopyStrategyPercentage, CopySize: 12.5}).SizeLabel(); got != "12.5pct" {
		t.Errorf("unexpected PERCENTAGE label %s", got)
	}
}

func TestSanitizeTag(t *testing.T) {
	cases := map[string]string{
		"":                "",
		"  v2  ":          "v2",
		"late entry/test": "late-entry-test",
		"a__b--c":         "a__b--c",
		"x!!!y":           "x-y",
	}
	for in, want := range cases {
		if got := SanitizeTag(in); got != want {
			t.Errorf("SanitizeTag(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSimulationResult_FileName(t *testing.T) {
	r := &SimulationResult{
		ID:            "sim_realistic_0x7c3db7_1741996800000",
		Timestamp:     time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC).UnixMilli(),
		TraderAddress: addr,
		Parameters: &SimulationParams{
			HistoryDays:  14,
			CopyStrategy: CopyStrategyConfig{Strategy: CopyStrategyAdaptive, CopySize: 10},
		},
	}
	want := "adaptive_" + addr + "_14d_10pct_realistic_2025-03-15.json"
	if got := r.FileName(); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}

	r.Parameters.ResultTag = "run #2"
	want = "adaptive_" + addr + "_14d_10pct_realistic_run-2_2025-03-15.json"
	if got := r.FileName(); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}

	r.Parameters = nil
	if got := r.FileName(); got != r.ID+".json" {
		t.Errorf("expected id fallback, got %s", got)
	}
}

func TestSimulationResult_CloneIsDeep(t *testing.T) {
	exit := 0.4
	r := &SimulationResult{
		ID:          "x",
		Positions:   []*SimulatedPosition{{Asset: "A", ExitPrice: &exit, Trades: []Fill{{Side: SideBuy}}}},
		SkipReasons: map[string]int{"below_minimum": 1},
		Parameters:  &SimulationParams{HistoryDays: 7},
	}
	c := r.Clone()

	c.Positions[0].Trades[0].Side = SideSell
	*c.Positions[0].ExitPrice = 0.9
	c.SkipReasons["below_minimum"] = 5
	c.Parameters.HistoryDays = 1

	if r.Positions[0].Trades[0].Side != SideBuy || *r.Positions[0].ExitPrice != 0.4 {
		t.Error("expected positions deep-copied")
	}
	if r.SkipReasons["below_minimum"] != 1 || r.Parameters.HistoryDays != 7 {
		t.Error("expected maps and parameters deep-copied")
	}
}

func TestSimulatedPosition_RealizedPnL(t *testing.T) {
	p := &SimulatedPosition{Asset: "A", Outcome: "Yes", Trades: []Fill{
		{Side: SideBuy, USDCSize: 100},
		{Side: SideSell, USDCSize: 60},
		{Side: SideSell, USDCSize: 55},
	}}
	if got := p.RealizedPnL(); got != 15 {
		t.Errorf("expected 15, got %f", got)
	}
	if p.Key() != "A:Yes" {
		t.Errorf("unexpected key %s", p.Key())
	}
}

func TestLivePosition_MarkPrice(t *testing.T) {
	p := LivePosition{Size: 200, CurrentValue: 50}
	if mark, ok := p.MarkPrice(); !ok || mark != 0.25 {
		t.Errorf("expected 0.25, got %f %v", mark, ok)
	}
	empty := LivePosition{}
	if _, ok := empty.MarkPrice(); ok {
		t.Error("expected no mark for zero size")
	}
}

func TestSide_Valid(t *testing.T) {
	if !SideBuy.Valid() || !SideSell.Valid() || Side("HOLD").Valid() {
		t.Error("unexpected side validity")
	}
}
