package plugin

// QueryRequest is the body of a query submission
type QueryRequest struct {
	Query string `json:"query"`
}
