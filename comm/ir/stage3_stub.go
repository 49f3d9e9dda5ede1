package ir

import (
	"encoding/json"
)

// StubPoint is one point carried into the Import-Result Stub, unchanged
// from the bridge's shape.
type StubPoint = BridgePoint

// ImportResultStub is Stage 3's emitted document:
// import_result_stub.v1.<ts>.json. device_groups/hardware are left as
// placeholders for the downstream PLC project importer to populate.
type ImportResultStub struct {
	SchemaVersion     int                `json:"schemaVersion"`
	SpecVersion       string             `json:"specVersion"`
	GeneratedAtUTC    string             `json:"generatedAtUtc"`
	SourceBridgeDigest string            `json:"sourceBridgeDigest"`
	Points            []StubPoint        `json:"points"`
	Verification      CommIRVerification `json:"verification"`
	DeviceGroups      []interface{}      `json:"deviceGroups"`
	Hardware          interface{}        `json:"hardware"`
}

// BuildImportResultStub reads a Stage 2 bridge document's exact text,
// validates point names, and produces Stage 3's stub.
func BuildImportResultStub(bridgeText []byte, nowUTC string) (*ImportResultStub, error) {
	var src PlcImportBridge
	if err := json.Unmarshal(bridgeText, &src); err != nil {
		return nil, newStageError(DeserializeError, "failed to parse PLC import bridge", map[string]interface{}{"cause": err.Error()})
	}
	if src.SchemaVersion != 1 {
		return nil, newStageError(UnsupportedSchemaVer, "bridge schema_version is not 1", map[string]interface{}{"got": src.SchemaVersion})
	}
	if src.SpecVersion != "v1" {
		return nil, newStageError(UnsupportedSpecVer, "bridge spec_version is not v1", map[string]interface{}{"got": src.SpecVersion})
	}

	seen := make(map[string]bool, len(src.Points))
	for _, p := range src.Points {
		if p.Name == "" {
			return nil, newStageError(ValidationError, "point name is empty", map[string]interface{}{"field": "points.name"})
		}
		if seen[p.Name] {
			return nil, &ImportResultStubValidationError{Name: p.Name, Field: "points.name"}
		}
		seen[p.Name] = true
		if p.Comm.ChannelName == "" {
			return nil, newStageError(ValidationError, "channel_name is empty", map[string]interface{}{"field": "points.comm.channel_name", "name": p.Name})
		}
	}

	return &ImportResultStub{
		SchemaVersion:      1,
		SpecVersion:        "v1",
		GeneratedAtUTC:     nowUTC,
		SourceBridgeDigest: Digest(bridgeText),
		Points:             src.Points,
		Verification:       src.Verification,
		DeviceGroups:       []interface{}{},
		Hardware:           nil,
	}, nil
}

// ImportResultStubValidationError reports a duplicate point name in Stage 3
// input, spec.md §4.8's named error shape (distinct from the generic
// StageError so a caller can match on it specifically).
type ImportResultStubValidationError struct {
	Name  string
	Field string
}

func (e *ImportResultStubValidationError) Error() string {
	return "duplicate point name " + e.Name + " at field " + e.Field
}
