package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/meenmo/bondlib/bond"
	"github.com/meenmo/bondlib/calendar"
	"github.com/meenmo/bondlib/config"
	"github.com/meenmo/bondlib/export"
	"github.com/meenmo/bondlib/logging"
	"github.com/meenmo/bondlib/marketdata"
	"github.com/meenmo/bondlib/utils"
)

// bondInput is a bond spec plus an optional futures delivery for a forward yield. A money-market
// kind (TreasuryBill, CertificateOfDeposit, CommercialPaper, BankersAcceptance) is priced as a
// single-payment instrument instead, with its maturity optionally given as days from issue.
type bondInput struct {
	TaskID string `json:"task_id,omitempty"`
	Kind   string `json:"kind,omitempty"`
	Days   int    `json:"days,omitempty"`
	bond.Spec

	FuturesPrice     *float64   `json:"futures_price,omitempty"`
	ConversionFactor *float64   `json:"conversion_factor,omitempty"`
	DeliveryDate     utils.Date `json:"delivery_date,omitempty"`
	// DeliveryMonth (YYYY-MM) stands for its last business day when delivery_date is omitted.
	DeliveryMonth string `json:"delivery_month,omitempty"`

	raw json.RawMessage
}

type bondOutput struct {
	TaskID             string  `json:"task_id,omitempty"`
	SettlementDate     string  `json:"settlement_date,omitempty"`
	YieldToMaturity    float64 `json:"yield_to_maturity"`
	DirtyPrice         float64 `json:"dirty_price"`
	CleanPrice         float64 `json:"clean_price"`
	AccruedInterest    float64 `json:"accrued_interest"`
	MacaulayDuration   float64 `json:"macaulay_duration"`
	ModifiedDuration   float64 `json:"modified_duration"`
	Convexity          float64 `json:"convexity"`
	DV01               float64 `json:"dv01"`
	NextCouponDate     string  `json:"next_coupon_date,omitempty"`
	PreviousCouponDate string  `json:"previous_coupon_date,omitempty"`

	MaturityDate   string   `json:"maturity_date,omitempty"`
	EffectiveYield *float64 `json:"effective_yield,omitempty"`

	ForwardYield *float64 `json:"forward_yield,omitempty"`
	InvoicePrice *float64 `json:"invoice_price,omitempty"`

	Error string `json:"error,omitempty"`
}

func main() {
	inputPath := flag.String("input", "", "JSON input path (reads stdin if omitted)")
	configPath := flag.String("config", "", "YAML config path (optional)")
	holidaysPath := flag.String("holidays", "", "holiday calendars file (.yaml or .json, optional)")
	help := flag.Bool("h", false, "Show help")
	flag.BoolVar(help, "help", false, "Show help")
	flag.Parse()

	if *help {
		usage()
		return
	}

	path := strings.TrimSpace(*inputPath)
	if path == "" {
		if stat, err := os.Stdin.Stat(); err == nil && (stat.Mode()&os.ModeCharDevice) != 0 {
			usage()
			os.Exit(2)
		}
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

	raw, err := readInput(path)
	if err != nil {
		exitError(fmt.Sprintf("read input: %v", err))
	}
	inputs, isArray, err := parseInputs(raw)
	if err != nil {
		exitError(fmt.Sprintf("parse JSON: %v", err))
	}

	logger.Info("pricing bonds", "count", len(inputs))
	outputs := run(context.Background(), logger, inputs, cfg.Output.Decimals)

	hadError := false
	for _, out := range outputs {
		if out.Error != "" {
			hadError = true
		}
	}
	if isArray {
		b, _ := json.Marshal(outputs)
		fmt.Println(string(b))
	} else {
		b, _ := json.Marshal(outputs[0])
		fmt.Println(string(b))
	}
	if hadError {
		closeLog()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: bondcalc [-config <path>] [-holidays <path>] -input <path>")
	fmt.Fprintln(os.Stderr, "Price bonds and report yield, accrued interest, durations, convexity and DV01.")
	fmt.Fprintln(os.Stderr, "Each input needs settlement_date with price or yield_to_maturity; add")
	fmt.Fprintln(os.Stderr, "futures_price, conversion_factor and delivery_date (or delivery_month) for a forward yield.")
	fmt.Fprintln(os.Stderr, "Set kind to TreasuryBill, CertificateOfDeposit, CommercialPaper or BankersAcceptance")
	fmt.Fprintln(os.Stderr, "for a money-market instrument.")
}

// run prices inputs in parallel. Failures are reported per task and never cancel the others.
func run(ctx context.Context, logger *slog.Logger, inputs []bondInput, places int32) []bondOutput {
	outputs := make([]bondOutput, len(inputs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out, err := process(in, places)
			if err != nil {
				logger.Warn("bond failed", "task_id", in.TaskID, "error", err)
				outputs[i] = bondOutput{TaskID: in.TaskID, Error: err.Error()}
				return nil
			}
			logger.Debug("bond priced", "task_id", in.TaskID, "yield", out.YieldToMaturity)
			outputs[i] = *out
			return nil
		})
	}
	_ = g.Wait()
	return outputs
}

func process(in bondInput, places int32) (*bondOutput, error) {
	if in.Settlement.IsZero() || (in.Price == nil && in.Yield == nil) {
		return nil, fmt.Errorf("settlement_date with price or yield_to_maturity is required")
	}
	if in.Kind != "" {
		return processMoneyMarket(in, places)
	}
	b, err := bond.New(in.Spec)
	if err != nil {
		return nil, err
	}
	settlement, _ := b.SettlementDate()
	y, _ := b.YieldToMaturity()
	m, err := b.Measures(y, settlement)
	if err != nil {
		return nil, err
	}

	out := &bondOutput{
		TaskID:           in.TaskID,
		SettlementDate:   settlement.Format(utils.DateLayout),
		YieldToMaturity:  export.Round(y, places+2),
		DirtyPrice:       export.Round(m.DirtyPrice, places),
		CleanPrice:       export.Round(m.CleanPrice, places),
		AccruedInterest:  export.Round(m.AccruedInterest, places),
		MacaulayDuration: export.Round(m.MacaulayDuration, places),
		ModifiedDuration: export.Round(m.ModifiedDuration, places),
		Convexity:        export.Round(m.Convexity, places),
		DV01:             export.Round(m.DV01, places),
	}
	if d, ok := b.NextCouponDate(settlement); ok {
		out.NextCouponDate = d.Format(utils.DateLayout)
	}
	if d, ok := b.PreviousCouponDate(settlement); ok {
		out.PreviousCouponDate = d.Format(utils.DateLayout)
	}

	if in.FuturesPrice != nil || in.ConversionFactor != nil {
		delivery, err := deliveryDate(in)
		if err != nil {
			return nil, err
		}
		if in.FuturesPrice == nil || in.ConversionFactor == nil || delivery.IsZero() {
			return nil, fmt.Errorf("forward yield needs futures_price, conversion_factor and delivery_date")
		}
		fy, err := b.ForwardYield(*in.FuturesPrice, *in.ConversionFactor, delivery)
		if err != nil {
			return nil, err
		}
		yield, invoice := export.Round(fy.Yield, places+2), export.Round(fy.InvoicePrice, places)
		out.ForwardYield, out.InvoicePrice = &yield, &invoice
	}
	return out, nil
}

// deliveryDate is delivery_date, or the last business day of delivery_month on the bond's calendar.
func deliveryDate(in bondInput) (time.Time, error) {
	if !in.DeliveryDate.IsZero() || in.DeliveryMonth == "" {
		return in.DeliveryDate.Time, nil
	}
	month, err := time.Parse("2006-01", strings.TrimSpace(in.DeliveryMonth))
	if err != nil {
		return time.Time{}, fmt.Errorf("delivery_month %q: want YYYY-MM", in.DeliveryMonth)
	}
	return calendar.LastBusinessDayOfMonth(in.Calendar, month), nil
}

// moneyMarketSpec decodes a money-market input over the defaults of its kind.
func moneyMarketSpec(in bondInput) (bond.MoneyMarketSpec, error) {
	var zero time.Time
	var spec bond.MoneyMarketSpec
	switch in.Kind {
	case bond.KindTreasuryBill:
		spec = bond.TreasuryBill(zero, zero)
	case bond.KindCertificateOfDeposit:
		spec = bond.CertificateOfDeposit(zero, zero, 0)
	case bond.KindCommercialPaper:
		spec = bond.CommercialPaper(zero, zero)
	case bond.KindBankersAcceptance:
		spec = bond.BankersAcceptance(zero, zero)
	default:
		return spec, fmt.Errorf("unknown kind %q", in.Kind)
	}
	if len(in.raw) > 0 {
		if err := json.Unmarshal(in.raw, &spec); err != nil {
			return spec, err
		}
	}
	return spec, nil
}

func processMoneyMarket(in bondInput, places int32) (*bondOutput, error) {
	spec, err := moneyMarketSpec(in)
	if err != nil {
		return nil, err
	}
	var m *bond.MoneyMarketInstrument
	if spec.Maturity.IsZero() && in.Days > 0 {
		m, err = bond.NewMoneyMarketFromDays(spec, in.Days)
	} else {
		m, err = bond.NewMoneyMarket(spec)
	}
	if err != nil {
		return nil, err
	}
	settlement, _ := m.SettlementDate()
	y, _ := m.YieldToMaturity()
	ms, err := m.Measures(y, settlement)
	if err != nil {
		return nil, err
	}
	eff, err := m.EffectiveYield(y, settlement)
	if err != nil {
		return nil, err
	}
	eff = export.Round(eff, places+2)
	return &bondOutput{
		TaskID:           in.TaskID,
		SettlementDate:   settlement.Format(utils.DateLayout),
		MaturityDate:     m.Maturity().Format(utils.DateLayout),
		YieldToMaturity:  export.Round(y, places+2),
		EffectiveYield:   &eff,
		DirtyPrice:       export.Round(ms.DirtyPrice, places),
		CleanPrice:       export.Round(ms.CleanPrice, places),
		AccruedInterest:  export.Round(ms.AccruedInterest, places),
		MacaulayDuration: export.Round(ms.MacaulayDuration, places),
		ModifiedDuration: export.Round(ms.ModifiedDuration, places),
		Convexity:        export.Round(ms.Convexity, places),
		DV01:             export.Round(ms.DV01, places),
	}, nil
}

func readInput(path string) ([]byte, error) {
	if path != "" {
		return os.ReadFile(path)
	}
	return io.ReadAll(os.Stdin)
}

// parseInputs accepts one object or an array. Every entry starts from bond.DefaultSpec.
func parseInputs(raw []byte) ([]bondInput, bool, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, false, fmt.Errorf("empty input")
	}
	isArray := trimmed[0] == '['
	var msgs []json.RawMessage
	if isArray {
		if err := json.Unmarshal(trimmed, &msgs); err != nil {
			return nil, true, err
		}
		if len(msgs) == 0 {
			return nil, true, fmt.Errorf("empty input array")
		}
	} else {
		msgs = []json.RawMessage{trimmed}
	}
	inputs := make([]bondInput, len(msgs))
	for i, msg := range msgs {
		inputs[i] = bondInput{Spec: bond.DefaultSpec()}
		if err := json.Unmarshal(msg, &inputs[i]); err != nil {
			return nil, isArray, err
		}
		inputs[i].raw = msg
	}
	return inputs, isArray, nil
}

func exitError(msg string) {
	b, _ := json.Marshal(bondOutput{Error: msg})
	fmt.Println(string(b))
	os.Exit(1)
}
