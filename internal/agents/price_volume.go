package agents

import (
	"context"
	"fmt"
	"strings"

	talib "github.com/markcheno/go-talib"

	"github.com/hanriver/tradepilot/internal/llm"
	"github.com/hanriver/tradepilot/internal/models"
)

// PriceVolumeAnalyst is the price_volume_analysis section of §4.3: OHLCV
// trends, moving averages, RSI/MACD/Bollinger, computed with go-talib (the
// same indicator library aristath-sentinel uses for its own TA pipeline)
// and handed to the LLM as pre-computed context rather than recomputed by
// the model.
type PriceVolumeAnalyst struct {
	provider llm.Provider
}

func (a *PriceVolumeAnalyst) Invoke(ctx context.Context, in Input) (string, error) {
	if len(in.Bars) < 2 {
		return "", fmt.Errorf("price_volume_analysis: insufficient bars for %s", in.Ticker)
	}

	closes := make([]float64, len(in.Bars))
	for i, b := range in.Bars {
		closes[i] = b.Close
	}

	rsi := talib.Rsi(closes, 14)
	macd, signal, hist := talib.Macd(closes, 12, 26, 9)
	upper, mid, lower := talib.BBands(closes, 20, 2, 2, talib.SMA)
	sma20 := talib.Sma(closes, 20)
	sma50 := talib.Sma(closes, 50)

	indicatorSummary := fmt.Sprintf(
		"RSI(14)=%.2f MACD=%.3f/%.3f/%.3f Bollinger(upper/mid/lower)=%.2f/%.2f/%.2f SMA20=%.2f SMA50=%.2f",
		last(rsi), last(macd), last(signal), last(hist),
		last(upper), last(mid), last(lower), last(sma20), last(sma50),
	)

	system := `You are a technical analyst. Summarize price/volume trends, moving
averages, and momentum/volatility indicators (RSI, MACD, Bollinger Bands)
for the given ticker. Be concrete about trend direction and strength.`

	user := fmt.Sprintf(
		"Ticker: %s\nReference date: %s\nLatest close: %.2f, volume: %d\nIndicators: %s\n%s",
		in.Ticker, in.ReferenceDate.Format("2006-01-02"), in.Snapshot.Close, in.Snapshot.Volume,
		indicatorSummary, barsTable(in.Bars),
	)

	return invokeLLM(ctx, a.provider, in.Timeout, system, user)
}

func last(series []float64) float64 {
	for i := len(series) - 1; i >= 0; i-- {
		if !isNaN(series[i]) {
			return series[i]
		}
	}
	return 0
}

func isNaN(f float64) bool { return f != f }

func barsTable(bars []models.Bar) string {
	var sb strings.Builder
	n := len(bars)
	if n > 10 {
		bars = bars[n-10:]
	}
	for _, b := range bars {
		fmt.Fprintf(&sb, "%s O:%.2f H:%.2f L:%.2f C:%.2f V:%d\n", b.Date, b.Open, b.High, b.Low, b.Close, b.Volume)
	}
	return sb.String()
}
