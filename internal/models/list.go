package models

import (
	"bytes"
	stdjson "encoding/json"
	"fmt"

	"github.com/goccy/go-json"
)

// ListConfig is one curated list and how to fill it.
//
// ID is the remote list identifier and doubles as the key in the lists file.
type ListConfig struct {
	ID           string                    `json:"-"`
	Enabled      bool                      `json:"enabled"`
	Name         string                    `json:"name" validate:"required,max=100"`
	DisplayName  string                    `json:"display_name,omitempty"`
	Kind         ListKind                  `json:"kind" validate:"required,oneof=combined movie show"`
	TargetCount  int                       `json:"target_count" validate:"min=1,max=50"`
	Description  string                    `json:"description"`
	AttachedData map[string]AttachedSource `json:"attached_data" validate:"dive,keys,oneof=watch_history watchlist,endkeys"`
	PromptSuffix string                    `json:"ai_prompt_suffix"`
}

// AttachedSource says how many rows of one local table to feed into the prompt.
type AttachedSource struct {
	ItemCount int    `json:"item_count" validate:"min=0,max=500"`
	MediaKind string `json:"media_kind,omitempty" validate:"omitempty,oneof=movie show all"`
	Random    bool   `json:"random"`
}

// Title is the name to show for the list: the last generated name, or the configured one.
func (l ListConfig) Title() string {
	if l.DisplayName != "" {
		return l.DisplayName
	}
	return l.Name
}

// ListFile is the ordered set of configured lists.
//
// On disk it is {"lists": {<id>: ListConfig, ...}}; key order is processing order.
type ListFile struct {
	Lists []ListConfig
}

// Get returns the list with id.
func (f *ListFile) Get(id string) (ListConfig, bool) {
	if i := f.index(id); i >= 0 {
		return f.Lists[i], true
	}
	return ListConfig{}, false
}

// Put replaces the list with the same id in place, or appends it.
func (f *ListFile) Put(cfg ListConfig) {
	if i := f.index(cfg.ID); i >= 0 {
		f.Lists[i] = cfg
		return
	}
	f.Lists = append(f.Lists, cfg)
}

// Remove deletes the list with id and reports whether it existed.
func (f *ListFile) Remove(id string) bool {
	i := f.index(id)
	if i < 0 {
		return false
	}
	f.Lists = append(f.Lists[:i], f.Lists[i+1:]...)
	return true
}

// Rekey moves the list stored under oldID to newID, keeping its position.
func (f *ListFile) Rekey(oldID, newID string) bool {
	i := f.index(oldID)
	if i < 0 {
		return false
	}
	f.Lists[i].ID = newID
	return true
}

func (f *ListFile) index(id string) int {
	for i, l := range f.Lists {
		if l.ID == id {
			return i
		}
	}
	return -1
}

// MarshalJSON writes the lists object with keys in slice order.
func (f ListFile) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"lists":{`)
	for i, l := range f.Lists {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(l.ID)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(l)
		if err != nil {
			return nil, fmt.Errorf("failed to encode list %s: %w", l.ID, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteString(`}}`)
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the lists object preserving key order.
//
// Key order is read with the standard library's token stream; each value is decoded with go-json.
func (f *ListFile) UnmarshalJSON(data []byte) error {
	dec := stdjson.NewDecoder(bytes.NewReader(data))
	if err := expectDelim(dec, '{'); err != nil {
		return err
	}

	f.Lists = nil
	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return err
		}

		if key != "lists" {
			var skip stdjson.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return err
			}
			continue
		}

		if err := expectDelim(dec, '{'); err != nil {
			return err
		}
		for dec.More() {
			id, err := readKey(dec)
			if err != nil {
				return err
			}
			var raw stdjson.RawMessage
			if err := dec.Decode(&raw); err != nil {
				return fmt.Errorf("failed to read list %s: %w", id, err)
			}
			var cfg ListConfig
			if err := json.Unmarshal(raw, &cfg); err != nil {
				return fmt.Errorf("failed to decode list %s: %w", id, err)
			}
			cfg.ID = id
			f.Lists = append(f.Lists, cfg)
		}
		if err := expectDelim(dec, '}'); err != nil {
			return err
		}
	}
	return expectDelim(dec, '}')
}

func expectDelim(dec *stdjson.Decoder, want stdjson.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(stdjson.Delim); !ok || d != want {
		return fmt.Errorf("expected %q in lists file, got %v", want, tok)
	}
	return nil
}

func readKey(dec *stdjson.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key in lists file, got %v", tok)
	}
	return key, nil
}
