package assistant

import "strings"

// ProductDetails is the structured attribute set the assistant extracts
// from a raw product description. Empty fields mean the assistant could not
// determine the value; callers substitute deterministic fallbacks.
type ProductDetails struct {
	Dimensions  string `json:"dimensions"`
	Weight      string `json:"weight"`
	Vendor      string `json:"vendor"`
	CategoryID  string `json:"categoryId"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

const runStatusCompleted = "completed"

type thread struct {
	ID string `json:"id"`
}

type run struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (r *run) done() bool {
	switch r.Status {
	case runStatusCompleted, "failed", "cancelled", "expired":
		return true
	}
	return false
}

type messageList struct {
	Data []message `json:"data"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text struct {
		Value string `json:"value"`
	} `json:"text"`
}

// text concatenates the message's text blocks.
func (m *message) text() string {
	var b strings.Builder
	for _, block := range m.Content {
		if block.Type == "text" {
			b.WriteString(block.Text.Value)
		}
	}
	return b.String()
}
