package events

// EventData is implemented by every typed event payload, tying the
// payload struct to the event type it travels under.
type EventData interface {
	EventType() EventType
}

// DayClosedData is published once per closed trading day.
type DayClosedData struct {
	Day        int     `json:"day"`
	IndexValue float64 `json:"index_value"`
	Trades     int     `json:"trades"`
	Settled    int     `json:"settled"`
	TaxTaken   float64 `json:"tax_taken,omitempty"`
}

// EventType returns the event type for DayClosedData.
func (d *DayClosedData) EventType() EventType { return DayClosed }

// EventFiredData carries the day's featured market event.
type EventFiredData struct {
	Day      int     `json:"day"`
	Kind     string  `json:"kind"`
	Symbol   string  `json:"symbol,omitempty"`
	Region   string  `json:"region,omitempty"`
	Headline string  `json:"headline"`
	Impact   float64 `json:"impact"`
}

// EventType returns the event type for EventFiredData.
func (d *EventFiredData) EventType() EventType { return EventFired }

// TradeExecutedData summarizes the day's autonomous trading or one
// player trade.
type TradeExecutedData struct {
	Day    int    `json:"day"`
	Symbol string `json:"symbol,omitempty"`
	Side   string `json:"side,omitempty"`
	Shares int    `json:"shares,omitempty"`
	Trades int    `json:"trades,omitempty"`
	Player bool   `json:"player,omitempty"`
}

// EventType returns the event type for TradeExecutedData.
func (d *TradeExecutedData) EventType() EventType { return TradeExecuted }

// CorporateActionData is published when a corporate action reshapes a
// company, including terminal delistings.
type CorporateActionData struct {
	Day        int      `json:"day"`
	Delistings []string `json:"delistings,omitempty"`
	Headline   string   `json:"headline,omitempty"`
}

// EventType returns the event type for CorporateActionData.
func (d *CorporateActionData) EventType() EventType { return CorporateAction }

// SnapshotSavedData is published after a state snapshot is persisted.
type SnapshotSavedData struct {
	SnapshotID string `json:"snapshot_id"`
	Day        int    `json:"day"`
	SizeBytes  int    `json:"size_bytes"`
}

// EventType returns the event type for SnapshotSavedData.
func (d *SnapshotSavedData) EventType() EventType { return SnapshotSaved }

// ArticlePublishedData carries a generated news story headline.
type ArticlePublishedData struct {
	Day      int    `json:"day"`
	Headline string `json:"headline"`
	Image    string `json:"image,omitempty"`
}

// EventType returns the event type for ArticlePublishedData.
func (d *ArticlePublishedData) EventType() EventType { return ArticlePublished }
