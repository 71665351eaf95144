package models

import (
	"database/sql/driver"
	"encoding/json"

	"ncsresearch/domain/analysis"
	"ncsresearch/domain/demographic"
	"ncsresearch/domain/model"
	"ncsresearch/domain/variable"
)

// JSONB column plumbing: each wrapper stores a typed slice or struct in a
// PostgreSQL JSONB column via driver.Valuer / sql.Scanner.

func jsonbValue(v interface{}) (driver.Value, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func jsonbScan(src interface{}, dst interface{}) error {
	if src == nil {
		return nil
	}
	var bytes []byte
	switch s := src.(type) {
	case []byte:
		bytes = s
	case string:
		bytes = []byte(s)
	default:
		return nil
	}
	if len(bytes) == 0 {
		return nil
	}
	return json.Unmarshal(bytes, dst)
}

// JSONBMap stores loose key-value metadata
type JSONBMap map[string]interface{}

func (j JSONBMap) Value() (driver.Value, error) { return jsonbValue(j) }
func (j *JSONBMap) Scan(src interface{}) error {
	*j = make(JSONBMap)
	return jsonbScan(src, j)
}

// VariableList stores the session's working variable set
type VariableList []variable.Variable

func (l VariableList) Value() (driver.Value, error) { return jsonbValue(l) }
func (l *VariableList) Scan(src interface{}) error  { return jsonbScan(src, l) }

// MappingList stores the demographic catalog state
type MappingList []demographic.Mapping

func (l MappingList) Value() (driver.Value, error) { return jsonbValue(l) }
func (l *MappingList) Scan(src interface{}) error  { return jsonbScan(src, l) }

// RelationshipList stores the research model's declared relationships
type RelationshipList []model.Relationship

func (l RelationshipList) Value() (driver.Value, error) { return jsonbValue(l) }
func (l *RelationshipList) Scan(src interface{}) error  { return jsonbScan(src, l) }

// KindList stores the selected analysis kinds
type KindList []analysis.Kind

func (l KindList) Value() (driver.Value, error) { return jsonbValue(l) }
func (l *KindList) Scan(src interface{}) error  { return jsonbScan(src, l) }

// HealthCheckColumn stores the upload-time health report; NULL when no
// dataset has been uploaded yet
type HealthCheckColumn struct {
	Report *analysis.HealthCheck
}

func (h HealthCheckColumn) Value() (driver.Value, error) {
	if h.Report == nil {
		return nil, nil
	}
	return json.Marshal(h.Report)
}

func (h *HealthCheckColumn) Scan(src interface{}) error {
	if src == nil {
		h.Report = nil
		return nil
	}
	report := &analysis.HealthCheck{}
	if err := jsonbScan(src, report); err != nil {
		return err
	}
	h.Report = report
	return nil
}

// MarshalJSON renders the wrapped report transparently
func (h HealthCheckColumn) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.Report)
}

// UnmarshalJSON accepts either null or a report object
func (h *HealthCheckColumn) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		h.Report = nil
		return nil
	}
	report := &analysis.HealthCheck{}
	if err := json.Unmarshal(data, report); err != nil {
		return err
	}
	h.Report = report
	return nil
}
