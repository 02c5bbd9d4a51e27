package types

// URLMapping is a stored association between a long URL and its short code.
// ID and ShortCode never change after creation.
type URLMapping struct {
	ID        int64  `json:"id"`
	LongURL   string `json:"longurl"`
	ShortCode string `json:"shorturl"`
}

// MappingView is the representation returned to clients, with the resolvable link attached.
type MappingView struct {
	ID        int64  `json:"id"`
	LongURL   string `json:"longurl"`
	ShortCode string `json:"shorturl"`
	AccessURL string `json:"access_url"`
	Message   string `json:"message,omitempty"` // Message is set when an existing mapping is returned
}

// URLRequest is the body accepted by the create and update API calls.
// LongURL is nil when the field is absent or null.
type URLRequest struct {
	LongURL *string `json:"longurl"`
}

// ErrorResponse is the JSON body of every API failure.
type ErrorResponse struct {
	Error string `json:"error"`
}
