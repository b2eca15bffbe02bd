package model

// ----------------------------------------------------
// ================ Phrase Store ================
// GreetingEntry is a known greeting phrase and its canned reply
type GreetingEntry struct {
	Name  string `json:"name" yaml:"name"`
	Reply string `json:"reply" yaml:"reply"`
}

// ----------------------------------------------------
// ================ Request ================
// InboundMessage is the text extracted from one webhook event
type InboundMessage struct {
	Text       string `json:"text"`
	ReplyToken string `json:"reply_token"`
	EventID    string `json:"event_id,omitempty"`
	UserID     string `json:"user_id,omitempty"`
}

// ----------------------------------------------------
// ================ Resolution ================
// Match is the best corpus entry for an inbound text
type Match struct {
	Text      string  `json:"text"`
	Name      string  `json:"name"`
	Index     int     `json:"index"`
	Score     float64 `json:"score"`
	Threshold float64 `json:"threshold"`
}

// Accepted reports whether the score clears the threshold. Equal is not enough.
func (m *Match) Accepted() bool {
	return m.Score > m.Threshold
}
