package ir

import "encoding/json"

// UnionDesignPoint is one row of the parsed "union xlsx" input: a
// design-side point identified by name, carrying whatever design fields the
// spreadsheet defined. Kept as a free-form map since the design schema is
// owned by the spreadsheet, not this pipeline.
type UnionDesignPoint struct {
	Name   string                 `json:"name"`
	Design map[string]interface{} `json:"design"`
}

// UnifiedPoint merges a union design point with its matching stub point
// (comm + verification carried over when present).
type UnifiedPoint struct {
	Name         string                 `json:"name"`
	Design       map[string]interface{} `json:"design"`
	Comm         *BridgePointComm       `json:"comm,omitempty"`
	Verification *CommIRVerification    `json:"verification,omitempty"`
}

// UnifiedImportCounters tracks the merge outcome (spec.md §4.8 Stage 4).
type UnifiedImportCounters struct {
	UnionPoints   int `json:"unionPoints"`
	StubPoints    int `json:"stubPoints"`
	Matched       int `json:"matched"`
	UnmatchedStub int `json:"unmatchedStub"`
	Overridden    int `json:"overridden"`
	Conflicts     int `json:"conflicts"`
}

// UnifiedImport is Stage 4's emitted document: unified_import.v1.<ts>.json.
type UnifiedImport struct {
	SchemaVersion      int                   `json:"schemaVersion"`
	SpecVersion        string                `json:"specVersion"`
	GeneratedAtUTC     string                `json:"generatedAtUtc"`
	SourceStubDigest   string                `json:"sourceStubDigest"`
	Points             []UnifiedPoint        `json:"points"`
	Counters           UnifiedImportCounters `json:"counters"`
}

// BuildUnifiedImport merges union (ordered, design-carrying) points with a
// Stage 3 stub's exact text, matching by name. Union order is preserved;
// stub points with no matching union entry are appended afterward, counted
// as unmatched.
func BuildUnifiedImport(unionPoints []UnionDesignPoint, stubText []byte, nowUTC string) (*UnifiedImport, error) {
	var stub ImportResultStub
	if err := json.Unmarshal(stubText, &stub); err != nil {
		return nil, newStageError(DeserializeError, "failed to parse import-result stub", map[string]interface{}{"cause": err.Error()})
	}
	if stub.SchemaVersion != 1 {
		return nil, newStageError(UnsupportedSchemaVer, "stub schema_version is not 1", map[string]interface{}{"got": stub.SchemaVersion})
	}
	if stub.SpecVersion != "v1" {
		return nil, newStageError(UnsupportedSpecVer, "stub spec_version is not v1", map[string]interface{}{"got": stub.SpecVersion})
	}

	stubByName := make(map[string]StubPoint, len(stub.Points))
	for _, p := range stub.Points {
		stubByName[p.Name] = p
	}

	counters := UnifiedImportCounters{UnionPoints: len(unionPoints), StubPoints: len(stub.Points)}
	matchedNames := make(map[string]bool)

	points := make([]UnifiedPoint, 0, len(unionPoints))
	for _, up := range unionPoints {
		out := UnifiedPoint{Name: up.Name, Design: up.Design}
		if sp, ok := stubByName[up.Name]; ok {
			matchedNames[up.Name] = true
			counters.Matched++
			comm := sp.Comm
			out.Comm = &comm
			verif := stub.Verification
			out.Verification = &verif
			if hasContraryDesignValue(up.Design, "channelName", sp.Comm.ChannelName) {
				counters.Overridden++
			}
			if hasContraryDesignValue(up.Design, "dataType", sp.Comm.DataType.String()) {
				counters.Conflicts++
			}
		}
		points = append(points, out)
	}

	for _, sp := range stub.Points {
		if matchedNames[sp.Name] {
			continue
		}
		counters.UnmatchedStub++
		comm := sp.Comm
		verif := stub.Verification
		points = append(points, UnifiedPoint{Name: sp.Name, Comm: &comm, Verification: &verif})
	}

	return &UnifiedImport{
		SchemaVersion:    1,
		SpecVersion:      "v1",
		GeneratedAtUTC:   nowUTC,
		SourceStubDigest: Digest(stubText),
		Points:           points,
		Counters:         counters,
	}, nil
}

// hasContraryDesignValue reports whether design already declares field with
// a value that disagrees with the stub's value for it, used both to count
// overrides (design wins) and conflicts (immutable keys that must agree).
func hasContraryDesignValue(design map[string]interface{}, field string, stubValue interface{}) bool {
	v, ok := design[field]
	if !ok {
		return false
	}
	return v != stubValue
}
