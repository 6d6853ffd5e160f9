package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/moznion/go-optional"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"

	backtest "github.com/meridian-lab/meridian-trading/internal/backtest/engine"
	engine "github.com/meridian-lab/meridian-trading/internal/backtest/engine/engine_v1"
	"github.com/meridian-lab/meridian-trading/internal/backtest/engine/engine_v1/datasource"
	"github.com/meridian-lab/meridian-trading/internal/logger"
	"github.com/meridian-lab/meridian-trading/internal/types"
	"github.com/meridian-lab/meridian-trading/internal/version"
)

// backtestAction replays every matched data file through a fresh engine and
// writes one report per file into the output folder.
func backtestAction(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	dataGlob := cmd.String("data")
	outputDir := cmd.String("output")

	config, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	files, err := filepath.Glob(dataGlob)
	if err != nil {
		return fmt.Errorf("failed to expand data glob: %w", err)
	}

	if len(files) == 0 {
		return fmt.Errorf("no data files match %q", dataGlob)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output folder: %w", err)
	}

	appLogger, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer appLogger.Sync()

	for _, file := range files {
		report, err := runOne(ctx, string(config), file, appLogger)
		if err != nil {
			return fmt.Errorf("replay of %s failed: %w", file, err)
		}

		outPath := filepath.Join(outputDir, reportName(file))
		if err := types.WriteReport(outPath, report); err != nil {
			return err
		}

		fmt.Printf("\n%s: %d trades, final balance %.2f (%.2f%%), max drawdown %.2f%%\n",
			filepath.Base(file), report.TotalTrades, report.FinalBalance, report.TotalReturnPct, report.MaxDrawdownPct)
	}

	return nil
}

func runOne(ctx context.Context, config, dataPath string, appLogger *logger.Logger) (types.Report, error) {
	source, err := datasource.NewDuckDBDataSource(appLogger)
	if err != nil {
		return types.Report{}, err
	}
	defer source.Close()

	if err := source.Initialize(dataPath); err != nil {
		return types.Report{}, err
	}

	eng := engine.NewBacktestEngineV1()
	if err := eng.Initialize(config); err != nil {
		return types.Report{}, err
	}

	if err := eng.SetDataSource(source); err != nil {
		return types.Report{}, err
	}

	bar := progressbar.Default(-1, filepath.Base(dataPath))

	progress := backtest.OnProcessDataCallback(func(current, total int) error {
		if bar.GetMax() != total {
			bar.ChangeMax(total)
		}

		return bar.Set(current)
	})

	return eng.Run(ctx, optional.Some(progress))
}

// reportName derives the report file name from the data file name.
func reportName(dataPath string) string {
	base := filepath.Base(dataPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	return base + "_report.yaml"
}

func main() {
	cmd := &cli.Command{
		Name:    "backtest",
		Usage:   "Replay historical candle data through the signal engine",
		Version: version.GetVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "Path to the backtest yaml config",
				Value:    "config/backtest.yaml",
				Required: false,
			},
			&cli.StringFlag{
				Name:     "data",
				Aliases:  []string{"d"},
				Usage:    "Candle data file or glob (csv or parquet)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "output",
				Aliases:  []string{"o"},
				Usage:    "Folder for the generated reports",
				Value:    "results",
				Required: false,
			},
		},
		Action: backtestAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
