// internal/workers/data-access/query-notifications/models.go
package querynotifications

type Input struct {
	QueryType string                 `json:"queryType"`
	UserID    string                 `json:"userId,omitempty"`
	ViewerID  string                 `json:"viewerId,omitempty"`
	ParentID  string                 `json:"parentId,omitempty"`
	Limit     int                    `json:"limit,omitempty"`
	Filters   map[string]interface{} `json:"filters,omitempty"`
}

type Output struct {
	Data               interface{} `json:"data"`
	RowCount           int         `json:"rowCount"`
	QueryExecutionTime int64       `json:"queryExecutionTime"`
	CacheHit           bool        `json:"cacheHit"`
}
