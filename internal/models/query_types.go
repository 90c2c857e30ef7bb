// internal/models/query_types.go
package models

type QueryType string

const (
	QueryTypeActiveForUser    QueryType = "active_for_user"
	QueryTypeSuggestedActions QueryType = "suggested_actions"
	QueryTypeToastFeed        QueryType = "toast_feed"
	QueryTypeByParent         QueryType = "by_parent"
)
