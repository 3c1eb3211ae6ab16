package prefs

import "encoding/json"

// Effective is the result of a populate call: the effective value of every
// declared preference plus where each value came from.
type Effective struct {
	StylesheetID int64             `json:"stylesheet_id"`
	Category     Category          `json:"category"`
	ElementID    string            `json:"element_id,omitempty"`
	Values       map[string]string `json:"values"`
	Provenance   []Provenance      `json:"provenance"`
}

// Provenance details how one preference obtained its effective value.
type Provenance struct {
	Name  string `json:"name"`
	Scope Scope  `json:"scope"`
	Value string `json:"value,omitempty"`
	// Explicit is true when the value was found in its scope's tier and false
	// when it is the descriptor default.
	Explicit bool `json:"explicit"`
	Found    bool `json:"found"`
}

// Lookup returns the effective value of name.
func (e Effective) Lookup(name string) (string, bool) {
	value, ok := e.Values[name]
	return value, ok
}

// ToJSON serialises the result for logging or transport helpers.
func (e Effective) ToJSON() ([]byte, error) {
	type alias Effective
	return json.Marshal(alias(e))
}

// EffectiveFromJSON deserialises a payload produced by ToJSON.
func EffectiveFromJSON(payload []byte) (Effective, error) {
	type alias Effective
	var out alias
	if err := json.Unmarshal(payload, &out); err != nil {
		return Effective{}, err
	}
	return Effective(out), nil
}
