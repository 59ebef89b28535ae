package model

// StatsResponse is the API response for global statistics.
type StatsResponse struct {
	TotalTakes         int             `json:"totalTakes"`
	VisibleTakes       int             `json:"visibleTakes"`
	HiddenTakes        int             `json:"hiddenTakes"`
	ControversialTakes int             `json:"controversialTakes"`
	TotalVotes         int             `json:"totalVotes"`
	PendingReports     int             `json:"pendingReports"`
	TakesLast24h       int             `json:"takesLast24h"`
	TopCategories      []CategoryCount `json:"topCategories"`
}

// CategoryCount is the number of visible takes in a category.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}
