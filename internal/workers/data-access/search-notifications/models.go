// internal/workers/data-access/search-notifications/models.go
package searchnotifications

import "wallet-workers/internal/models"

type Input struct {
	ViewerID string `json:"viewerId"`
	Query    string `json:"query"`
	Limit    int    `json:"limit,omitempty"`
}

type SearchHit struct {
	NotificationID string                    `json:"notificationId"`
	Title          string                    `json:"title"`
	Description    string                    `json:"description"`
	Status         models.NotificationStatus `json:"status"`
	Score          float64                   `json:"score"`
}

type Output struct {
	Hits      []SearchHit `json:"hits"`
	TotalHits int         `json:"totalHits"`
	Took      int64       `json:"took"`
}

// esResponse covers the subset of the search response body we read.
type esResponse struct {
	Took int64 `json:"took"`
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string  `json:"_id"`
			Score  float64 `json:"_score"`
			Source struct {
				Title       string `json:"title"`
				Description string `json:"description"`
				UserID      string `json:"userId"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}
