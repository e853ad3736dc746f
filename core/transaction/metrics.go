package transaction

import (
	"context"
	"math"
	"sort"

	"github.com/pkg/errors"
)

// CategoryMetrics summarizes the completed purchases of one ticket category.
type CategoryMetrics struct {
	CategoryID   string  `json:"categoryId"`
	Name         string  `json:"name"`
	Capacity     int     `json:"capacity"`
	TicketsSold  int     `json:"ticketsSold"`
	Revenue      float64 `json:"revenue"`
	Occupancy    float64 `json:"occupancy"` // percent of capacity, 2 decimals
	Transactions int     `json:"transactions"`
}

// Metrics is the purchase summary of an event.
type Metrics struct {
	EventID      string            `json:"eventId"`
	TicketsSold  int               `json:"ticketsSold"`
	Revenue      float64           `json:"revenue"`
	Capacity     int               `json:"capacity"`
	Occupancy    float64           `json:"occupancy"`
	Transactions int               `json:"transactions"`
	Categories   []CategoryMetrics `json:"categories"`
}

// Metrics computes the purchase summary of eventID from its categories and transactions.
// Only completed transactions count.
func (svc *Service) Metrics(ctx context.Context, eventID string) (Metrics, error) {
	cats, err := svc.categories.ListByEvent(ctx, eventID)
	if err != nil {
		return Metrics{}, errors.Wrap(err, "computing metrics")
	}
	txs, err := svc.ListByEvent(ctx, eventID)
	if err != nil {
		return Metrics{}, errors.Wrap(err, "computing metrics")
	}

	byCat := make(map[string]*CategoryMetrics, len(cats))
	m := Metrics{EventID: eventID, Categories: make([]CategoryMetrics, 0, len(cats))}
	for _, c := range cats {
		byCat[c.ID] = &CategoryMetrics{CategoryID: c.ID, Name: c.Name, Capacity: c.Capacity}
		m.Capacity += c.Capacity
	}
	for _, tx := range txs {
		if tx.Status != StatusCompleted {
			continue
		}
		cm, ok := byCat[tx.CategoryID]
		if !ok {
			continue
		}
		cm.TicketsSold += tx.Quantity
		cm.Revenue += tx.Total
		cm.Transactions++
	}

	for _, cm := range byCat {
		cm.Revenue = round2(cm.Revenue)
		cm.Occupancy = percent(cm.TicketsSold, cm.Capacity)
		m.TicketsSold += cm.TicketsSold
		m.Revenue += cm.Revenue
		m.Transactions += cm.Transactions
		m.Categories = append(m.Categories, *cm)
	}
	sort.Slice(m.Categories, func(i, j int) bool { return m.Categories[i].Name < m.Categories[j].Name })
	m.Revenue = round2(m.Revenue)
	m.Occupancy = percent(m.TicketsSold, m.Capacity)
	return m, nil
}

func percent(n, of int) float64 {
	if of <= 0 {
		return 0
	}
	return round2(float64(n) * 100 / float64(of))
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
