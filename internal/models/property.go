package models

import "time"

type FieldType string

const (
	FieldTypeText    FieldType = "text"
	FieldTypeNumber  FieldType = "number"
	FieldTypeDate    FieldType = "date"
	FieldTypeBoolean FieldType = "boolean"
	FieldTypeSelect  FieldType = "select"
)

func (t FieldType) IsValid() bool {
	switch t {
	case FieldTypeText, FieldTypeNumber, FieldTypeDate, FieldTypeBoolean, FieldTypeSelect:
		return true
	}
	return false
}

// PropertyField is a custom profile field defined by an organization.
type PropertyField struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Key            string    `json:"key"`
	Label          string    `json:"label"`
	Type           FieldType `json:"type"`
	Options        []string  `json:"options,omitempty"`
	Required       bool      `json:"required"`
	CreatedAt      time.Time `json:"created_at"`
}

type PropertyValue struct {
	FieldID   string    `json:"field_id"`
	UserID    string    `json:"user_id"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
