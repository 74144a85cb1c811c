package orderbackup

import (
	"fmt"
	"math"
	"sort"
	"time"
)

type DailyStat struct {
	Date    string  `json:"date"`
	Orders  int     `json:"orders"`
	Revenue float64 `json:"revenue"`
}

type PopularItem struct {
	Item  string `json:"item"`
	Count int    `json:"count"`
}

type OrderStats struct {
	TotalOrders       int            `json:"totalOrders"`
	TotalRevenue      float64        `json:"totalRevenue"`
	AverageOrderValue float64        `json:"averageOrderValue"`
	StatusBreakdown   map[string]int `json:"statusBreakdown"`
	Last30Days        []DailyStat    `json:"last30Days"`
	PopularItems      []PopularItem  `json:"popularItems"`
	LastUpdated       time.Time      `json:"lastUpdated"`
}

func computeStats(records []OrderRecord, now time.Time) OrderStats {
	stats := OrderStats{
		TotalOrders:     len(records),
		StatusBreakdown: map[string]int{},
		LastUpdated:     now,
	}

	for _, record := range records {
		stats.TotalRevenue += record.TotalAmount

		status := record.FulfillmentStatus
		if status == "" {
			status = FulfillmentPending
		}
		stats.StatusBreakdown[status]++
	}
	stats.TotalRevenue = roundCents(stats.TotalRevenue)

	if stats.TotalOrders > 0 {
		stats.AverageOrderValue = roundCents(stats.TotalRevenue / float64(stats.TotalOrders))
	}

	stats.Last30Days = dailySeries(records, now)
	stats.PopularItems = popularItems(records)

	return stats
}

// dailySeries covers the last 30 calendar days including zero-order days.
func dailySeries(records []OrderRecord, now time.Time) []DailyStat {
	series := make([]DailyStat, 0, 30)

	for i := 29; i >= 0; i-- {
		date := now.AddDate(0, 0, -i).Format(dateFormat)

		day := DailyStat{Date: date}
		for _, record := range records {
			if record.Timestamp.Format(dateFormat) == date {
				day.Orders++
				day.Revenue += record.TotalAmount
			}
		}
		day.Revenue = roundCents(day.Revenue)

		series = append(series, day)
	}

	return series
}

// popularItems ranks "name (size)" keys by total quantity sold, top 10.
func popularItems(records []OrderRecord) []PopularItem {
	counts := map[string]int{}
	for _, record := range records {
		for _, item := range record.Items {
			size := item.Size
			if size == "" {
				size = "N/A"
			}
			counts[fmt.Sprintf("%s (%s)", item.Name, size)] += item.Quantity
		}
	}

	ranked := make([]PopularItem, 0, len(counts))
	for item, count := range counts {
		ranked = append(ranked, PopularItem{Item: item, Count: count})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}

		return ranked[i].Item < ranked[j].Item
	})

	if len(ranked) > 10 {
		ranked = ranked[:10]
	}

	return ranked
}

func roundCents(amount float64) float64 {
	return math.Round(amount*100) / 100
}
