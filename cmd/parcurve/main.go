package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/meenmo/bondlib/bond"
	"github.com/meenmo/bondlib/config"
	"github.com/meenmo/bondlib/curve"
	"github.com/meenmo/bondlib/export"
	"github.com/meenmo/bondlib/logging"
	"github.com/meenmo/bondlib/marketdata"
	"github.com/meenmo/bondlib/plot"
	"github.com/meenmo/bondlib/utils"
)

// curveOutput is the bootstrapped curve at its pivots and on an even grid.
type curveOutput struct {
	CurveDate string             `json:"curve_date"`
	Pivots    []export.CurveRow  `json:"pivots"`
	Grid      []export.CurveRow  `json:"grid,omitempty"`
	Bonds     []bondSpreadOutput `json:"bonds,omitempty"`
	Error     string             `json:"error,omitempty"`
}

type bondSpreadOutput struct {
	Maturity string  `json:"maturity"`
	Price    float64 `json:"price"`
	ZSpread  float64 `json:"z_spread"`
	Error    string  `json:"error,omitempty"`
}

func main() {
	quotesPath := flag.String("quotes", "", "par quotes file (.yaml, .json or .xlsx)")
	configPath := flag.String("config", "", "YAML config path (optional)")
	bondsPath := flag.String("bonds", "", "bonds file to Z-spread against the curve (optional)")
	parquetPath := flag.String("parquet", "", "write the grid as parquet (optional)")
	pngPath := flag.String("png", "", "write a zero-rate chart as PNG (optional)")
	specPath := flag.String("spec", "", "write the curve spec as .yaml or .json (optional)")
	holidaysPath := flag.String("holidays", "", "holiday calendars file (.yaml or .json, optional)")
	help := flag.Bool("h", false, "Show help")
	flag.BoolVar(help, "help", false, "Show help")
	flag.Parse()

	if *help || strings.TrimSpace(*quotesPath) == "" {
		usage()
		if !*help {
			os.Exit(2)
		}
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		exitError(fmt.Sprintf("load config: %v", err))
	}
	logger, closeLog, err := logging.New(cfg.Logging)
	if err != nil {
		exitError(fmt.Sprintf("init logging: %v", err))
	}
	defer closeLog()
	config.SetSolver(cfg.Solver)
	if *holidaysPath != "" {
		counts, err := marketdata.LoadHolidays(*holidaysPath)
		if err != nil {
			exitError(fmt.Sprintf("load holidays: %v", err))
		}
		logger.Info("holidays registered", "path", *holidaysPath, "calendars", len(counts))
	}

	qs, err := marketdata.LoadParQuotes(*quotesPath)
	if err != nil {
		exitError(fmt.Sprintf("load quotes: %v", err))
	}
	c, err := curve.NewParCurve(qs.CurveDate.Time, qs.Quotes, curve.WithLogger(logger))
	if err != nil {
		exitError(fmt.Sprintf("bootstrap: %v", err))
	}
	logger.Info("curve bootstrapped", "curve_date", qs.CurveDate, "quotes", len(qs.Quotes))

	places := cfg.Output.Decimals
	out := curveOutput{CurveDate: qs.CurveDate.String()}
	if out.Pivots, err = export.PivotRows(c, places); err != nil {
		exitError(fmt.Sprintf("pivots: %v", err))
	}
	if out.Grid, err = export.CurveGrid(c, cfg.Output.MaxMaturity, cfg.Output.Points, places); err != nil {
		exitError(fmt.Sprintf("grid: %v", err))
	}

	if *bondsPath != "" {
		specs, err := marketdata.LoadBonds(*bondsPath)
		if err != nil {
			exitError(fmt.Sprintf("load bonds: %v", err))
		}
		for _, s := range specs {
			out.Bonds = append(out.Bonds, zSpread(c, s, places))
		}
	}

	if *parquetPath != "" {
		if err := export.WriteParquetFile(*parquetPath, out.Grid); err != nil {
			exitError(fmt.Sprintf("write parquet: %v", err))
		}
		logger.Info("grid written", "path", *parquetPath, "rows", len(out.Grid))
	}
	if *pngPath != "" {
		if err := writeChart(*pngPath, c, cfg.Output); err != nil {
			exitError(fmt.Sprintf("write chart: %v", err))
		}
		logger.Info("chart written", "path", *pngPath)
	}
	if *specPath != "" {
		if err := writeSpec(*specPath, c.Spec()); err != nil {
			exitError(fmt.Sprintf("write spec: %v", err))
		}
		logger.Info("spec written", "path", *specPath)
	}

	b, _ := json.Marshal(out)
	fmt.Println(string(b))
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: parcurve -quotes <path> [-config <path>] [-bonds <path>] [-parquet <path>] [-png <path>] [-spec <path>] [-holidays <path>]")
	fmt.Fprintln(os.Stderr, "Bootstrap a zero curve from par bond quotes and print it at its pivots and on a grid.")
}

func zSpread(c curve.YieldCurve, s bond.Spec, places int32) bondSpreadOutput {
	out := bondSpreadOutput{Maturity: s.Maturity.String()}
	b, err := bond.New(s)
	if err != nil {
		out.Error = err.Error()
		return out
	}
	price, ok := b.BondPrice()
	settlement, _ := b.SettlementDate()
	if !ok {
		out.Error = "bond has no price or yield"
		return out
	}
	out.Price = export.Round(price, places)
	z, err := b.ZSpread(c, price, settlement)
	if err != nil {
		out.Error = err.Error()
		return out
	}
	out.ZSpread = export.Round(z, places+2)
	return out
}

func writeChart(path string, c curve.YieldCurve, o config.OutputConfig) error {
	points, err := plot.Series(c, plot.Rate, o.MaxMaturity, o.Points)
	if err != nil {
		return err
	}
	png, err := plot.RenderPNG("Zero rates "+c.CurveDate().Format(utils.DateLayout), plot.Line{Name: "zero", Points: points})
	if err != nil {
		return err
	}
	return os.WriteFile(path, png, 0o644)
}

func writeSpec(path string, spec curve.Spec) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(spec)
	default:
		data, err = json.MarshalIndent(spec, "", "  ")
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func exitError(msg string) {
	b, _ := json.Marshal(curveOutput{Error: msg})
	fmt.Println(string(b))
	os.Exit(1)
}
