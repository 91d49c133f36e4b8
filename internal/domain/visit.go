package domain

import "time"

// Visit is one analytics session as ingested from the visits export.
type Visit struct {
	VisitID          int64     `json:"visit_id"`
	WatchIDs         []string  `json:"watch_ids"`
	DateTime         time.Time `json:"date_time"`
	IsNewUser        bool      `json:"is_new_user"`
	StartURL         string    `json:"start_url"`
	EndURL           string    `json:"end_url"`
	PageViews        int64     `json:"page_views"`
	VisitDurationSec int64     `json:"visit_duration_sec"`
	RegionCity       string    `json:"region_city"`
	ClientID         string    `json:"client_id"`
	DeviceCategory   string    `json:"device_category"`
	OperatingSystem  string    `json:"operating_system"`
	Browser          string    `json:"browser"`
}

// Hit is one page view event as ingested from the hits export.
type Hit struct {
	WatchID  string    `json:"watch_id"`
	ClientID string    `json:"client_id"`
	URL      string    `json:"url"`
	DateTime time.Time `json:"date_time"`
	Title    string    `json:"title"`
}
