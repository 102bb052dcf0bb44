// Package report renders admin reporting artifacts from the order history.
package report

import (
	"context"
	"time"

	"github.com/ydrx/ydrx/internal/common"
	"github.com/ydrx/ydrx/internal/interfaces"
)

// Compile-time interface check
var _ interfaces.ReportService = (*Service)(nil)

// DefaultChartDays is the trailing window when the caller does not pick one.
const DefaultChartDays = 30

// Service implements ReportService
type Service struct {
	store  interfaces.DocumentStore
	logger *common.Logger
}

// NewService creates a new report service
func NewService(store interfaces.DocumentStore, logger *common.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
	}
}

// SalesChartPNG renders paid revenue per day over the trailing window as a
// PNG line chart. Days without sales render as zero so the x axis stays
// continuous.
func (s *Service) SalesChartPNG(ctx context.Context, days int) ([]byte, error) {
	if days <= 0 {
		days = DefaultChartDays
	}

	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	end := time.Now().UTC().Truncate(24 * time.Hour)
	start := end.AddDate(0, 0, -(days - 1))

	revenue := make(map[time.Time]float64, days)
	for _, order := range doc.Orders {
		day := order.When.UTC().Truncate(24 * time.Hour)
		if day.Before(start) || day.After(end) {
			continue
		}
		revenue[day] += order.Total
	}

	points := make([]SalesPoint, 0, days)
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		points = append(points, SalesPoint{Date: day, Revenue: revenue[day]})
	}

	s.logger.Debug().Int("days", days).Int("orders", len(doc.Orders)).Msg("Rendering sales chart")
	return RenderSalesChart(points)
}
