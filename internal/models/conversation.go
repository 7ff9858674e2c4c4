package models

import (
	"encoding/json"
	"strings"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleModel
}

// Turn is one prior message of the conversation. On the wire the text is
// carried as "message"; "text" is accepted as well.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"message"`
}

func (t *Turn) UnmarshalJSON(data []byte) error {
	var raw struct {
		Role    string  `json:"role"`
		Message *string `json:"message"`
		Text    *string `json:"text"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	t.Role = Role(strings.ToLower(strings.TrimSpace(raw.Role)))
	switch {
	case raw.Message != nil:
		t.Text = *raw.Message
	case raw.Text != nil:
		t.Text = *raw.Text
	default:
		t.Text = ""
	}
	return nil
}
