package domain

// Granularity selects the reporting window for a series summary.
type Granularity string

const (
	GranularityDaily   Granularity = "daily"
	GranularityWeekly  Granularity = "weekly"
	GranularityMonthly Granularity = "monthly"
	GranularityYearly  Granularity = "yearly"
)

// SeriesSummary is the variant type for time-granularity views of a
// daily metric series. Each case carries only the fields valid for its
// granularity; consumers switch on Granularity() exhaustively instead
// of probing for fields.
type SeriesSummary interface {
	Granularity() Granularity
}

// DailySummary is the identity view: the series itself.
type DailySummary struct {
	Points []DailyMetric `json:"points"`
}

func (DailySummary) Granularity() Granularity { return GranularityDaily }

// WeekBucket aggregates one Sunday-anchored week.
type WeekBucket struct {
	WeekStart string  `json:"week_start"`
	Total     float64 `json:"total"`
	Average   float64 `json:"average"`
	Days      int     `json:"days"`
}

// WeeklySummary groups a series into week buckets, oldest first.
type WeeklySummary struct {
	Weeks []WeekBucket `json:"weeks"`
}

func (WeeklySummary) Granularity() Granularity { return GranularityWeekly }

// MonthBucket aggregates one calendar month, keyed YYYY-MM.
type MonthBucket struct {
	Month   string  `json:"month"`
	Total   float64 `json:"total"`
	Average float64 `json:"average"`
	Days    int     `json:"days"`
}

// MonthlySummary groups a series into month buckets, oldest first.
type MonthlySummary struct {
	Months []MonthBucket `json:"months"`
}

func (MonthlySummary) Granularity() Granularity { return GranularityMonthly }

// YearBucket aggregates one calendar year and records its best day.
type YearBucket struct {
	Year        int     `json:"year"`
	Total       float64 `json:"total"`
	Average     float64 `json:"average"`
	Days        int     `json:"days"`
	BestDay     float64 `json:"best_day"`
	BestDayDate string  `json:"best_day_date"`
}

// YearlySummary groups a series into year buckets, oldest first.
type YearlySummary struct {
	Years []YearBucket `json:"years"`
}

func (YearlySummary) Granularity() Granularity { return GranularityYearly }
