package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/newthinker/augur/internal/app"
	"github.com/newthinker/augur/internal/core"
)

var (
	analyzeStrike int
	analyzeType   string
	analyzeSignal string
	analyzeAction string
	analyzeIndex  string
	analyzeJSON   bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run one alert through the signal pipeline",
	Long:  "Validate, score and decide on a single option alert and print the result",
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().IntVar(&analyzeStrike, "strike", 0, "Strike price (required)")
	analyzeCmd.Flags().StringVar(&analyzeType, "type", "", "Option type CE or PE (required)")
	analyzeCmd.Flags().StringVar(&analyzeSignal, "signal", "", "Signal ID such as S3 (required)")
	analyzeCmd.Flags().StringVar(&analyzeAction, "action", core.ActionEntry, "Alert action")
	analyzeCmd.Flags().StringVar(&analyzeIndex, "index", "", "Underlying index, defaults to the configured symbol")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Print the full response as JSON")

	analyzeCmd.MarkFlagRequired("strike")
	analyzeCmd.MarkFlagRequired("type")
	analyzeCmd.MarkFlagRequired("signal")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	alert := core.Alert{
		Strike:    analyzeStrike,
		Type:      core.OptionType(strings.ToUpper(analyzeType)),
		Signal:    analyzeSignal,
		Action:    analyzeAction,
		Index:     analyzeIndex,
		Timestamp: time.Now(),
		Source:    "cli",
	}
	if err := alert.Validate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("creating app: %w", err)
	}
	defer a.Close()

	resp := a.Pipeline().ProcessSignal(ctx, alert)
	if analyzeJSON {
		return printJSON(resp)
	}

	sig, d := resp.Signal, resp.Decision
	fmt.Println("=== AUGUR Signal Analysis ===")
	fmt.Printf("Alert:          %s %d %s (%s)\n", alert.Symbol(), alert.Strike, alert.Type, alert.Signal)
	fmt.Printf("Confidence:     %.1f\n", sig.ConfidenceScore)
	fmt.Printf("Recommendation: %s\n", sig.Recommendation)
	fmt.Printf("Weight:         %.2f\n", sig.AdaptiveWeight)
	fmt.Printf("Sentiment:      %.1f (%s)\n", resp.Sentiment.Score, resp.Sentiment.Direction)
	fmt.Printf("Patterns:       %d\n", len(sig.Patterns))
	fmt.Println()
	fmt.Printf("Decision:       %s\n", d.Decision)
	fmt.Printf("  Confidence:   %.1f\n", d.Confidence)
	fmt.Printf("  Position:     %.2fx\n", d.SuggestedPositionSize)
	fmt.Printf("  Risk:         %s\n", d.RiskLevel)
	if sig.Error != "" {
		fmt.Printf("  Degraded:     %s\n", sig.Error)
	}
	if resp.Report != nil {
		fmt.Println()
		fmt.Println(resp.Report.OverallAssessment)
	}
	fmt.Printf("\nProcessed in %s\n", resp.ProcessingTime.Round(time.Millisecond))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
