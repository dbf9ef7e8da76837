package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/meenmo/bondlib/bond"
	"github.com/meenmo/bondlib/config"
	"github.com/meenmo/bondlib/curve"
	"github.com/meenmo/bondlib/export"
	"github.com/meenmo/bondlib/logging"
	"github.com/meenmo/bondlib/marketdata"
	"github.com/meenmo/bondlib/utils"
)

// aswFixture is a discount curve spec plus the priced bonds to spread against it.
type aswFixture struct {
	Curve curve.Spec `json:"curve"`
	// FloatFrequency is the payments per year of the asset swap floating leg; 4 when omitted.
	FloatFrequency int               `json:"float_freq"`
	Bonds          []json.RawMessage `json:"bonds"`
}

type bondCase struct {
	ISIN string `json:"isin"`
	bond.Spec
}

type aswOutput struct {
	CurveDate        string  `json:"curve_date"`
	CurveKind        string  `json:"curve_kind"`
	SettlementDate   string  `json:"settlement_date,omitempty"`
	ISIN             string  `json:"isin"`
	BondMaturityDate string  `json:"bond_maturity_date,omitempty"`
	BondDirtyPrice   float64 `json:"bond_dirty_price"`
	BondYield        float64 `json:"bond_yield"`
	BondPVRiskFree   float64 `json:"bond_pv_risk_free"`
	SwapPV01BP       float64 `json:"swap_pv01_bp"`
	ASWSpreadBP      float64 `json:"asw_spread_bp"`
	ZSpreadBP        float64 `json:"z_spread_bp"`
	GSpreadBP        float64 `json:"g_spread_bp"`
	Error            string  `json:"error,omitempty"`
}

func main() {
	inputParams := flag.String("input-params", "", "ASW fixture JSON path")
	input := flag.String("input", "", "ASW fixture JSON path (alias of -input-params)")
	configPath := flag.String("config", "", "YAML config path (optional)")
	holidaysPath := flag.String("holidays", "", "holiday calendars file (.yaml or .json, optional)")
	flag.Parse()

	path := strings.TrimSpace(*inputParams)
	if path == "" {
		path = strings.TrimSpace(*input)
	}
	if path == "" {
		fmt.Fprintf(os.Stderr, "usage: aswspread -input-params /path/to/input.json [-holidays /path/to/holidays.yaml]\n")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger, closeLog, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logging: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()
	config.SetSolver(cfg.Solver)
	if *holidaysPath != "" {
		counts, err := marketdata.LoadHolidays(*holidaysPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load holidays: %v\n", err)
			os.Exit(1)
		}
		logger.Info("holidays registered", "path", *holidaysPath, "calendars", len(counts))
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read input: %v\n", err)
		os.Exit(1)
	}
	var fixture aswFixture
	if err := json.Unmarshal(raw, &fixture); err != nil {
		fmt.Fprintf(os.Stderr, "parse input: %v\n", err)
		os.Exit(1)
	}
	if fixture.FloatFrequency == 0 {
		fixture.FloatFrequency = 4
	}

	disc, err := curve.FromSpec(fixture.Curve, curve.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "build curve: %v\n", err)
		os.Exit(1)
	}
	logger.Info("discount curve built", "kind", fixture.Curve.Kind, "curve_date", disc.CurveDate().Format(utils.DateLayout))

	places := cfg.Output.Decimals
	outputs := make([]aswOutput, 0, len(fixture.Bonds))
	for i, msg := range fixture.Bonds {
		tc := bondCase{Spec: bond.DefaultSpec()}
		if err := json.Unmarshal(msg, &tc); err != nil {
			fmt.Fprintf(os.Stderr, "bond %d: %v\n", i, err)
			os.Exit(1)
		}
		out := aswOutput{
			CurveDate: disc.CurveDate().Format(utils.DateLayout),
			CurveKind: string(fixture.Curve.Kind),
			ISIN:      tc.ISIN,
		}
		if err := spreads(&out, disc, tc.Spec, fixture.FloatFrequency, places); err != nil {
			logger.Warn("asset swap spread failed", "isin", tc.ISIN, "error", err)
			out.Error = err.Error()
		}
		outputs = append(outputs, out)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(outputs); err != nil {
		fmt.Fprintf(os.Stderr, "json encode: %v\n", err)
		os.Exit(1)
	}
}

func spreads(out *aswOutput, c curve.YieldCurve, s bond.Spec, floatFreq int, places int32) error {
	b, err := bond.New(s)
	if err != nil {
		return err
	}
	price, ok := b.BondPrice()
	if !ok {
		return fmt.Errorf("settlement_date with price or yield_to_maturity is required")
	}
	settlement, _ := b.SettlementDate()
	y, _ := b.YieldToMaturity()
	out.SettlementDate = settlement.Format(utils.DateLayout)
	out.BondMaturityDate = s.Maturity.String()
	out.BondDirtyPrice = export.Round(price, places)
	out.BondYield = export.Round(y, places+2)

	res, err := b.AssetSwapSpread(c, price, settlement, floatFreq)
	if err != nil {
		return err
	}
	z, err := b.ZSpread(c, price, settlement)
	if err != nil {
		return err
	}
	g, err := b.GSpread(c, y)
	if err != nil {
		return err
	}
	out.BondPVRiskFree = export.Round(res.PVRiskFree, places)
	out.SwapPV01BP = export.Round(res.PV01, places)
	out.ASWSpreadBP = export.Round(res.Spread*1e4, places)
	out.ZSpreadBP = export.Round(z*1e4, places)
	out.GSpreadBP = export.Round(g*1e4, places)
	return nil
}
