package model

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
)

// RawGraph is the payload returned by the graph data service.
type RawGraph struct {
	Nodes []RawNode `json:"nodes"`
	Links []RawLink `json:"links"`
}

// RawNode is a node record as the service sends it. Numeric counters are
// decoded as floats because the service does not guarantee integer JSON.
type RawNode struct {
	ID         Endpoint `json:"id"`
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Category   string   `json:"category,omitempty"`
	Followers  float64  `json:"followers,omitempty"`
	AvatarURL  string   `json:"avatarUrl,omitempty"`
	Avatar     string   `json:"avatar,omitempty"`
	TotalLikes float64  `json:"totalLikes,omitempty"`
	TotalViews float64  `json:"totalViews,omitempty"`
}

// AvatarSource returns whichever avatar field the service populated.
func (n RawNode) AvatarSource() string {
	if n.AvatarURL != "" {
		return n.AvatarURL
	}
	return n.Avatar
}

// RawLink is a link record as the service sends it. Source and target may be
// a bare id or an object carrying an id.
type RawLink struct {
	Source     Endpoint `json:"source"`
	Target     Endpoint `json:"target"`
	Type       string   `json:"type,omitempty"`
	Weight     float64  `json:"weight,omitempty"`
	TotalViews float64  `json:"totalViews,omitempty"`
	TotalLikes float64  `json:"totalLikes,omitempty"`
}

// Endpoint is a node reference normalised to a bare id at decode time.
type Endpoint string

// ID returns the bare node id.
func (e Endpoint) ID() string { return string(e) }

// UnmarshalJSON accepts a string id, a numeric id, or an object with an "id"
// member (the shape a force layout leaves behind after it resolves links).
func (e *Endpoint) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*e = ""
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("endpoint string: %w", err)
		}
		*e = Endpoint(s)
		return nil
	case '{':
		var obj struct {
			ID Endpoint `json:"id"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return fmt.Errorf("endpoint object: %w", err)
		}
		*e = obj.ID
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("endpoint %q: %w", data, err)
		}
		if i, err := n.Int64(); err == nil {
			*e = Endpoint(strconv.FormatInt(i, 10))
			return nil
		}
		*e = Endpoint(n.String())
		return nil
	}
}

// ParseRawGraph decodes a service payload.
func ParseRawGraph(data []byte) (RawGraph, error) {
	var raw RawGraph
	if err := json.Unmarshal(data, &raw); err != nil {
		return RawGraph{}, fmt.Errorf("decoding graph payload: %w", err)
	}
	return raw, nil
}
