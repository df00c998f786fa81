package api

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Port         int
	Bind         string
	APIKey       string
	MaxBodyBytes int64 // Cap on raw stream bytes accepted per request
}

// PageReport describes one page recovered from an inspected stream.
type PageReport struct {
	Offset       int64  `json:"offset"`
	SerialNumber uint32 `json:"serial_number"`
	PageSequence uint32 `json:"page_sequence"`
	GranulePos   int64  `json:"granule_pos"`
	Continued    bool   `json:"continued,omitempty"`
	BOS          bool   `json:"bos,omitempty"`
	EOS          bool   `json:"eos,omitempty"`
	Segments     int    `json:"segments"`
	BodyBytes    int    `json:"body_bytes"`
}

// GapReport describes a page sequence discontinuity.
type GapReport struct {
	SerialNumber uint32 `json:"serial_number"`
	Expected     uint32 `json:"expected"`
	Observed     uint32 `json:"observed"`
}

// InspectResponse is the result of scanning a raw stream.
type InspectResponse struct {
	Pages        []PageReport `json:"pages"`
	Streams      []uint32     `json:"streams"`
	Gaps         []GapReport  `json:"gaps,omitempty"`
	BytesSkipped int64        `json:"bytes_skipped"`
}
