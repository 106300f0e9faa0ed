package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormData is the nested payload submitted by the upstream form.
type FormData struct {
	// Software maps a tool name to the submitted value.
	Software map[string]any `json:"software"`
	// Header holds submission metadata such as recipients.
	Header FormHeader `json:"header"`
}

// FormHeader holds the recipient addresses of a submission.
type FormHeader struct {
	// MailAddresses lists the recipients of the populated workbook.
	MailAddresses Recipients `json:"mailAddresses"`
}

// Recipients is a list of mail addresses.
// It decodes from a JSON array of strings or from a single string
// holding one or more comma-separated addresses.
type Recipients []string

// UnmarshalJSON implements json.Unmarshaler.
func (r *Recipients) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = nil
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*r = compact(list)
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return fmt.Errorf("mailAddresses: expected string or array of strings: %w", err)
	}
	*r = compact(strings.Split(single, ","))
	return nil
}

func compact(addrs []string) Recipients {
	var out Recipients
	for _, a := range addrs {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}
