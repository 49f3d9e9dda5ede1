package ir

import (
	"encoding/json"

	"github.com/hollysys/plc-comm-forge/comm/model"
)

// BridgePoint is one point rekeyed for the PLC Import Bridge: identified by
// name (the mapped HMI name at bridge time, spec.md §4) rather than its
// comm-side point key.
type BridgePoint struct {
	Name string            `json:"name"`
	Comm BridgePointComm    `json:"comm"`
}

// BridgePointComm carries the comm-side addressing fields a downstream PLC
// importer needs, independent of the acquisition engine's internal types.
type BridgePointComm struct {
	ChannelName string         `json:"channelName"`
	DataType    model.DataType `json:"dataType"`
	Address     int            `json:"address"`
	UnitLength  int            `json:"unitLength"`
}

// PlcImportBridge is Stage 2's emitted document: plc_import_bridge.v1.<ts>.json.
type PlcImportBridge struct {
	SchemaVersion    int                 `json:"schemaVersion"`
	SpecVersion      string              `json:"specVersion"`
	GeneratedAtUTC   string              `json:"generatedAtUtc"`
	SourceIRDigest   string              `json:"sourceIrDigest"`
	Points           []BridgePoint       `json:"points"`
	Verification     CommIRVerification  `json:"verification"`
}

// BuildPlcImportBridge parses a Stage 1 CommIR from the exact serialized
// text it was read from (so the embedded digest matches byte-for-byte), and
// produces Stage 2's document.
func BuildPlcImportBridge(irText []byte, nowUTC string) (*PlcImportBridge, error) {
	var src CommIR
	if err := json.Unmarshal(irText, &src); err != nil {
		return nil, newStageError(DeserializeError, "failed to parse comm IR", map[string]interface{}{"cause": err.Error()})
	}
	if src.SchemaVersion != 1 {
		return nil, newStageError(UnsupportedSchemaVer, "comm IR schema_version is not 1", map[string]interface{}{"got": src.SchemaVersion})
	}
	if src.SpecVersion != "v1" {
		return nil, newStageError(UnsupportedSpecVer, "comm IR spec_version is not v1", map[string]interface{}{"got": src.SpecVersion})
	}

	points := make([]BridgePoint, 0, len(src.Mapping.Points))
	for _, p := range src.Mapping.Points {
		points = append(points, BridgePoint{
			Name: p.HmiName,
			Comm: BridgePointComm{
				ChannelName: p.ChannelName,
				DataType:    p.DataType,
				Address:     p.Address,
				UnitLength:  p.UnitLength,
			},
		})
	}

	return &PlcImportBridge{
		SchemaVersion:  1,
		SpecVersion:    "v1",
		GeneratedAtUTC: nowUTC,
		SourceIRDigest: Digest(irText),
		Points:         points,
		Verification:   src.Verification,
	}, nil
}
