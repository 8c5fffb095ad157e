package model

type MonthKey struct {
	Year   int    `json:"year" bson:"year"`
	Month  int    `json:"month" bson:"month"`
	Status Status `json:"status" bson:"status"`
}

type MonthlyStat struct {
	ID    MonthKey `json:"_id" bson:"_id"`
	Count int64    `json:"count" bson:"count"`
}

type StatusCounts struct {
	Total    int64
	Pending  int64
	Approved int64
	Rejected int64
}

type Stats struct {
	TotalSubmissions int64         `json:"totalSubmissions"`
	Approved         int64         `json:"approved"`
	Rejected         int64         `json:"rejected"`
	Pending          int64         `json:"pending"`
	MonthlyStats     []MonthlyStat `json:"monthlyStats"`
}
