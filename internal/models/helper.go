package models

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// All returns every persisted model, in migration order.
func All() []interface{} {
	return []interface{}{
		&Session{},
		&AnsweredQuestion{},
		&TelemetryEvent{},
		&RiskReport{},
		&CognitiveProfile{},
	}
}

// ToJSON marshals v into a datatypes.JSON column value.
func ToJSON(v interface{}) (datatypes.JSON, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}
