package ml

import (
	"encoding/json"
	"fmt"
)

// Model is a frozen, trained classifier. Scoring only ever evaluates a
// Model; nothing here retrains.
type Model interface {
	PredictProba(x []float64) float64
}

// envelope is the type-tagged serialization wrapper for model parameters.
type envelope struct {
	Type   string          `json:"type"`
	Params json.RawMessage `json:"params"`
}

const (
	modelTypeLogistic = "logistic"
	modelTypeGBT      = "gbt"
)

// EncodeModel serializes a trained model to a type-tagged JSON blob suitable
// for the artifact store.
func EncodeModel(m Model) (json.RawMessage, error) {
	var typ string
	switch m.(type) {
	case *LogisticModel:
		typ = modelTypeLogistic
	case *GBTModel:
		typ = modelTypeGBT
	default:
		return nil, fmt.Errorf("model: cannot encode %T", m)
	}

	params, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("model: marshal params: %w", err)
	}
	return json.Marshal(envelope{Type: typ, Params: params})
}

// DecodeModel reconstructs a frozen model from its serialized form.
func DecodeModel(raw json.RawMessage) (Model, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("model: unmarshal envelope: %w", err)
	}

	var m Model
	switch env.Type {
	case modelTypeLogistic:
		m = &LogisticModel{}
	case modelTypeGBT:
		m = &GBTModel{}
	default:
		return nil, fmt.Errorf("model: unknown type %q", env.Type)
	}

	if err := json.Unmarshal(env.Params, m); err != nil {
		return nil, fmt.Errorf("model: unmarshal %s params: %w", env.Type, err)
	}
	return m, nil
}
