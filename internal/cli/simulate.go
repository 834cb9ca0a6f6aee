package cli

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	simulateGold   float64
	simulateDollar float64
	simulateShams  float64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate-alert",
	Short: "模拟一次行情周期并触发告警",
	RunE: func(cmd *cobra.Command, args []string) error {
		if simulateGold <= 0 || simulateDollar <= 0 {
			return errors.New("--gold 与 --dollar 必须大于 0")
		}

		gold := decimal.NewFromFloat(simulateGold)
		dollar := decimal.NewFromFloat(simulateDollar)

		var shams *decimal.Decimal
		if simulateShams > 0 {
			value := decimal.NewFromFloat(simulateShams)
			shams = &value
		}

		return getApp().SimulateCycle(cmd.Context(), gold, dollar, shams)
	},
}

func init() {
	simulateCmd.Flags().Float64Var(&simulateGold, "gold", 0, "国际金价 (USD/盎司)")
	simulateCmd.Flags().Float64Var(&simulateDollar, "dollar", 0, "美元现钞价格 (Toman)")
	simulateCmd.Flags().Float64Var(&simulateShams, "shams", 0, "Shams 金条价格 (Toman, 可选)")
}
