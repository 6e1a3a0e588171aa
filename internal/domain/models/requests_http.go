package models

// Requests for benchmark HTTP endpoints. Defined in domain for consistency and reuse.

type HistoryRequest struct {
	Days  int    `query:"days" json:"days" default:"7" validate:"gte=1,lte=365"`
	From  string `query:"from" json:"from"`
	To    string `query:"to" json:"to"`
	Limit int    `query:"limit" json:"limit" default:"2000" validate:"gte=1,lte=50000"`
}

type StatsRequest struct {
	Window int `query:"window" json:"window" default:"120" validate:"gte=2,lte=10000"`
}

type RegimeHistoryRequest struct {
	Limit int `query:"limit" json:"limit" default:"200" validate:"gte=1,lte=10000"`
}
