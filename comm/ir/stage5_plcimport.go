package ir

import "encoding/json"

// PlcImportStatistics summarizes coverage of the final PLC import stub.
type PlcImportStatistics struct {
	Points      int `json:"points"`
	CommCovered int `json:"commCovered"`
	Verified    int `json:"verified"`
}

// PlcImportPoint is one point in the final PLC Import Stub. Point order is
// preserved exactly from the unified import.
type PlcImportPoint struct {
	Name         string                 `json:"name"`
	Design       map[string]interface{} `json:"design"`
	Comm         *BridgePointComm       `json:"comm,omitempty"`
	Verification *CommIRVerification    `json:"verification,omitempty"`
}

// PlcImportStub is Stage 5's emitted document: plc_import.v1.<ts>.json.
type PlcImportStub struct {
	SchemaVersion       int                 `json:"schemaVersion"`
	SpecVersion         string              `json:"specVersion"`
	GeneratedAtUTC      string              `json:"generatedAtUtc"`
	SourceUnifiedDigest string              `json:"sourceUnifiedDigest"`
	Points              []PlcImportPoint    `json:"points"`
	Statistics          PlcImportStatistics `json:"statistics"`
}

// allowedReadAreas is the MVP restriction: only Holding/Coil read areas may
// reach a PLC import (spec.md §4.8 Stage 5).
var allowedReadAreas = []string{"Holding", "Coil"}

// UnifiedImportValidationError is Stage 5's named validation failure for a
// read area outside the MVP allow-list.
type UnifiedImportValidationError struct {
	Name          string
	Field         string
	Value         string
	AllowedValues []string
}

func (e *UnifiedImportValidationError) Error() string {
	return "point " + e.Name + ": " + e.Field + " must be one of " + joinStrings(e.AllowedValues) + ", got " + e.Value
}

func joinStrings(ss []string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += ", "
		}
		out += s
	}
	return out
}

// BuildPlcImportStub reads a Stage 4 unified import's exact text, validates
// non-empty unique names and the read-area allow-list, and produces the
// final PLC Import Stub.
func BuildPlcImportStub(unifiedText []byte, readAreaOf func(name string) (string, bool), nowUTC string) (*PlcImportStub, error) {
	var src UnifiedImport
	if err := json.Unmarshal(unifiedText, &src); err != nil {
		return nil, newStageError(DeserializeError, "failed to parse unified import", map[string]interface{}{"cause": err.Error()})
	}
	if src.SchemaVersion != 1 {
		return nil, newStageError(UnsupportedSchemaVer, "unified import schema_version is not 1", map[string]interface{}{"got": src.SchemaVersion})
	}
	if src.SpecVersion != "v1" {
		return nil, newStageError(UnsupportedSpecVer, "unified import spec_version is not v1", map[string]interface{}{"got": src.SpecVersion})
	}

	seen := make(map[string]bool, len(src.Points))
	points := make([]PlcImportPoint, 0, len(src.Points))
	commCovered, verified := 0, 0

	for _, up := range src.Points {
		if up.Name == "" {
			return nil, newStageError(ValidationError, "point name is empty", map[string]interface{}{"field": "points.name"})
		}
		if seen[up.Name] {
			return nil, newStageError(ValidationError, "duplicate point name", map[string]interface{}{"field": "points.name", "name": up.Name})
		}
		seen[up.Name] = true

		if area, ok := readAreaOf(up.Name); ok && !isAllowedReadArea(area) {
			return nil, &UnifiedImportValidationError{Name: up.Name, Field: "comm.address_spec.read_area", Value: area, AllowedValues: allowedReadAreas}
		}

		if up.Comm != nil {
			commCovered++
		}
		if up.Verification != nil {
			verified++
		}
		points = append(points, PlcImportPoint{Name: up.Name, Design: up.Design, Comm: up.Comm, Verification: up.Verification})
	}

	return &PlcImportStub{
		SchemaVersion:       1,
		SpecVersion:         "v1",
		GeneratedAtUTC:      nowUTC,
		SourceUnifiedDigest: Digest(unifiedText),
		Points:              points,
		Statistics:          PlcImportStatistics{Points: len(points), CommCovered: commCovered, Verified: verified},
	}, nil
}

func isAllowedReadArea(area string) bool {
	for _, a := range allowedReadAreas {
		if a == area {
			return true
		}
	}
	return false
}
