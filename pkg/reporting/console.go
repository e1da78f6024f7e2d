// Package reporting renders trading activity for humans: console tables for
// the terminal and an Excel trade journal written at shutdown.
package reporting

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/bryanlew/algocrypto/internal/position"
	"github.com/bryanlew/algocrypto/internal/strategy"
)

// PrintStartupInfo renders the startup banner.
func PrintStartupInfo(environment, interval, mode string, assets []string) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("BOT INITIALIZATION")
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"Exchange", "Bybit"},
		{"Environment", environment},
		{"Interval", interval},
		{"Position Mode", mode},
		{"Assets", fmt.Sprintf("%v", assets)},
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 15, WidthMax: 15, Align: text.AlignLeft},
		{Number: 2, WidthMin: 30, WidthMax: 45, Align: text.AlignLeft},
	})

	t.Render()
	fmt.Println()
}

// PrintOpenPositions renders the current ledger contents.
func PrintOpenPositions(positions []position.Position, lastPrices map[string]float64) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("OPEN POSITIONS")
	t.SetStyle(table.StyleRounded)

	t.AppendHeader(table.Row{"Symbol", "Side", "Size", "Entry", "Stop", "Target", "Unrealized PnL"})

	for _, pos := range positions {
		pnl := "-"
		if price, ok := lastPrices[pos.Symbol]; ok {
			pnl = fmt.Sprintf("%.4f", pos.UnrealizedPnL(price))
		}
		t.AppendRow(table.Row{
			pos.Symbol,
			pos.Side.String(),
			fmt.Sprintf("%.6f", pos.Size),
			fmt.Sprintf("%.4f", pos.EntryPrice),
			fmt.Sprintf("%.4f", pos.StopLoss),
			fmt.Sprintf("%.4f", pos.TakeProfit),
			pnl,
		})
	}
	if len(positions) == 0 {
		t.AppendRow(table.Row{"-", "-", "-", "-", "-", "-", "-"})
	}

	t.Render()
	fmt.Println()
}

// PrintStrategyRanking renders evaluator results for one symbol.
func PrintStrategyRanking(symbol string, results []strategy.Performance) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(fmt.Sprintf("STRATEGY RANKING: %s", symbol))
	t.SetStyle(table.StyleRounded)

	t.AppendHeader(table.Row{"Strategy", "ROI", "Sharpe", "Profit Factor", "Max DD", "Trades"})

	for _, perf := range results {
		t.AppendRow(table.Row{
			perf.Strategy,
			fmt.Sprintf("%.2f%%", perf.ROI*100),
			fmt.Sprintf("%.2f", perf.SharpeRatio),
			fmt.Sprintf("%.2f", perf.ProfitFactor),
			fmt.Sprintf("%.2f%%", perf.MaxDrawdown*100),
			perf.Trades,
		})
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})

	t.Render()
	fmt.Println()
}

// PrintSessionSummary renders the closed-trade tally at shutdown.
func PrintSessionSummary(trades []position.ClosedTrade) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("SESSION SUMMARY")
	t.SetStyle(table.StyleRounded)

	var totalPnL float64
	wins := 0
	for _, trade := range trades {
		totalPnL += trade.PnL
		if trade.PnL > 0 {
			wins++
		}
	}

	winRate := 0.0
	if len(trades) > 0 {
		winRate = float64(wins) / float64(len(trades)) * 100
	}

	t.AppendRows([]table.Row{
		{"Closed Trades", len(trades)},
		{"Winners", wins},
		{"Win Rate", fmt.Sprintf("%.1f%%", winRate)},
		{"Realized PnL", fmt.Sprintf("%.4f", totalPnL)},
	})

	t.Render()
	fmt.Println()
}
