package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/newthinker/augur/internal/app"
)

var (
	sentimentSymbol string
	sentimentJSON   bool
)

var sentimentCmd = &cobra.Command{
	Use:   "sentiment",
	Short: "Show the composite market sentiment",
	RunE:  runSentiment,
}

func init() {
	sentimentCmd.Flags().StringVar(&sentimentSymbol, "symbol", "", "Index symbol, defaults to the configured symbol")
	sentimentCmd.Flags().BoolVar(&sentimentJSON, "json", false, "Print the full result as JSON")

	rootCmd.AddCommand(sentimentCmd)
}

func runSentiment(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("creating app: %w", err)
	}
	defer a.Close()

	res := a.Pipeline().GetMarketSentiment(ctx, strings.ToUpper(sentimentSymbol))
	if sentimentJSON {
		return printJSON(res)
	}

	fmt.Printf("=== AUGUR Sentiment: %s ===\n", res.Symbol)
	fmt.Printf("Score:      %.1f (%s)\n", res.Score, res.Direction)
	fmt.Printf("Confidence: %.1f\n", res.Confidence)
	if res.Error != "" {
		fmt.Printf("Error:      %s\n", res.Error)
	}

	names := make([]string, 0, len(res.Sources))
	for name := range res.Sources {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println()
	for _, name := range names {
		src := res.Sources[name]
		line := fmt.Sprintf("  %-12s %6.1f  conf %.2f  items %d", name, src.Score, src.Confidence, src.ItemCount)
		if src.Error != "" {
			line += "  (" + src.Error + ")"
		}
		fmt.Println(line)
	}

	if len(res.Insights) > 0 {
		fmt.Println()
		for _, insight := range res.Insights {
			fmt.Printf("- %s\n", insight)
		}
	}
	return nil
}
