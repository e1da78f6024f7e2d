package bybit

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	bybit_api "github.com/bybit-exchange/bybit.go.api"
)

// decodeResult unmarshals the Result field of a Bybit response into out after
// checking the API-level return code.
func decodeResult(response interface{}, out interface{}) error {
	serverResp, ok := response.(*bybit_api.ServerResponse)
	if !ok {
		return fmt.Errorf("invalid response type")
	}

	if serverResp.RetCode != 0 {
		return fmt.Errorf("API error: %s (code: %d)", serverResp.RetMsg, serverResp.RetCode)
	}

	resultBytes, err := json.Marshal(serverResp.Result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	if err := json.Unmarshal(resultBytes, out); err != nil {
		return fmt.Errorf("failed to unmarshal result: %w", err)
	}

	return nil
}

func parseFloat64(s string) float64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func parseInt64(s string) int64 {
	if s == "" {
		return 0
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return i
}

func parseTimestamp(ts string) time.Time {
	ms := parseInt64(ts)
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// formatQty renders a quantity the way the Bybit v5 API expects it: a plain
// decimal string without trailing zeros.
func formatQty(qty float64) string {
	return strconv.FormatFloat(qty, 'f', -1, 64)
}
