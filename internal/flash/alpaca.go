package flash

import (
	"context"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"pulseboard/internal/widget"
)

// AlpacaSource fills the headline pool straight from the Alpaca market-data
// news API, for deployments where the backend's market news endpoint is not
// available but broker credentials are.
type AlpacaSource struct {
	client  *marketdata.Client
	symbols []string
	limit   int
}

// NewAlpacaSource creates a source for the given credentials and symbols.
func NewAlpacaSource(apiKey, apiSecret, dataURL string, symbols []string) *AlpacaSource {
	return &AlpacaSource{
		client: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
			BaseURL:   dataURL,
		}),
		symbols: symbols,
		limit:   25,
	}
}

func (s *AlpacaSource) Headlines(_ context.Context) ([]widget.FlashItem, error) {
	news, err := s.client.GetNews(marketdata.GetNewsRequest{
		Symbols:    s.symbols,
		Start:      time.Now().Add(-24 * time.Hour),
		End:        time.Now(),
		TotalLimit: s.limit,
		Sort:       marketdata.SortDesc,
	})
	if err != nil {
		return nil, err
	}

	items := make([]widget.FlashItem, 0, len(news))
	for _, n := range news {
		items = append(items, widget.FlashItem{
			ID:       n.URL,
			Headline: n.Headline,
			Source:   "alpaca",
			Time:     n.CreatedAt,
		})
	}
	return items, nil
}
