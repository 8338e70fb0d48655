package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const DayLayout = "2006-01-02"

type MonthlyStat struct {
	Month      string  `bson:"month" json:"month"`
	SalesTotal float64 `bson:"salesTotal" json:"salesTotal"`
	TotalSold  int     `bson:"totalSold" json:"totalSold"`
}

type DailyStat struct {
	Date       string  `bson:"date" json:"date"`
	SalesTotal float64 `bson:"salesTotal" json:"salesTotal"`
	TotalSold  int     `bson:"totalSold" json:"totalSold"`
}

// ProductStat is the yearly sales rollup of one product.
type ProductStat struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProductID        primitive.ObjectID `bson:"productId" json:"productId"`
	Year             int                `bson:"year" json:"year"`
	MonthlyData      []MonthlyStat      `bson:"monthlyData" json:"monthlyData"`
	DailyData        []DailyStat        `bson:"dailyData" json:"dailyData"`
	YearlySalesTotal float64            `bson:"yearlySalesTotal" json:"yearlySalesTotal"`
	YearlyTotalSold  int                `bson:"yearlyTotalSold" json:"yearlyTotalSold"`
}

// StatKeys returns the year, month name and day key a sale at t is recorded under.
func StatKeys(t time.Time) (year int, month string, day string) {
	return t.Year(), t.Month().String(), t.Format(DayLayout)
}

// Record applies one sale to the rollup, creating month and day buckets as needed.
func (s *ProductStat) Record(at time.Time, quantity int, amount float64) {
	_, month, day := StatKeys(at)

	s.YearlySalesTotal += amount
	s.YearlyTotalSold += quantity

	found := false
	for i := range s.MonthlyData {
		if s.MonthlyData[i].Month == month {
			s.MonthlyData[i].SalesTotal += amount
			s.MonthlyData[i].TotalSold += quantity
			found = true
			break
		}
	}
	if !found {
		s.MonthlyData = append(s.MonthlyData, MonthlyStat{Month: month, SalesTotal: amount, TotalSold: quantity})
	}

	found = false
	for i := range s.DailyData {
		if s.DailyData[i].Date == day {
			s.DailyData[i].SalesTotal += amount
			s.DailyData[i].TotalSold += quantity
			found = true
			break
		}
	}
	if !found {
		s.DailyData = append(s.DailyData, DailyStat{Date: day, SalesTotal: amount, TotalSold: quantity})
	}
}

type ProductStatView struct {
	ProductStat
	Product *Product `json:"product,omitempty"`
}

// Overview is the headline numbers of the admin dashboard.
type Overview struct {
	TotalUsers       int64   `json:"totalUsers"`
	TotalOrders      int64   `json:"totalOrders"`
	TotalPriceOrders float64 `json:"totalPriceOrders"`
}
