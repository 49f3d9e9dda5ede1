package ir

import (
	"github.com/hollysys/plc-comm-forge/comm/model"
	"github.com/hollysys/plc-comm-forge/comm/plan"
)

// CommIRPoint is one point's entry in Stage 1's mapping section: its stable
// identity plus the absolute address/unit length a plan assigned it.
type CommIRPoint struct {
	PointKey     model.PointKey `json:"pointKey"`
	HmiName      string         `json:"hmiName"`
	ChannelName  string         `json:"channelName"`
	DataType     model.DataType `json:"dataType"`
	AddressBase  string         `json:"addressBase"`
	Address      int            `json:"address"`
	UnitLength   int            `json:"unitLength"`
}

// CommIRSources records where the run's inputs came from.
type CommIRSources struct {
	UnionXlsxPath *string `json:"unionXlsxPath,omitempty"`
	ResultsSource string  `json:"resultsSource"`
}

// DecisionsSummary counts reuse decisions by their string tag, as produced
// by an external point-key reconciliation pass.
type DecisionsSummary struct {
	ReusedKeyV2         int `json:"reusedKeyV2"`
	ReusedKeyV2NoDevice int `json:"reusedKeyV2NoDevice"`
	ReusedKeyV1         int `json:"reusedKeyV1"`
	CreatedNew          int `json:"createdNew"`
	Conflicts           int `json:"conflicts"`
}

// CommIR is Stage 1's emitted document: comm_ir.v1.<ts>.json.
type CommIR struct {
	SchemaVersion   int                   `json:"schemaVersion"`
	SpecVersion     string                `json:"specVersion"`
	GeneratedAtUTC  string                `json:"generatedAtUtc"`
	Sources         CommIRSources         `json:"sources"`
	Mapping         CommIRMapping         `json:"mapping"`
	Verification    CommIRVerification    `json:"verification"`
	DecisionsSummary DecisionsSummary     `json:"decisionsSummary"`
	Conflicts       []interface{}         `json:"conflicts,omitempty"`
}

// CommIRMapping holds the point/profile mapping section.
type CommIRMapping struct {
	Points   []CommIRPoint              `json:"points"`
	Profiles []model.ConnectionProfile  `json:"profiles"`
}

// CommIRVerification carries forward the run's observed results and stats.
type CommIRVerification struct {
	Results []model.SampleResult `json:"results"`
	Stats   model.RunStats       `json:"stats"`
}

// BuildCommIRInput bundles Stage 1's inputs (spec.md §4.8: points, profiles,
// results, stats, optional union xlsx path, optional decisions, optional
// conflict report).
type BuildCommIRInput struct {
	Points            []model.Point
	Profiles          []model.ConnectionProfile
	Results           []model.SampleResult
	Stats             model.RunStats
	UnionXlsxPath     *string
	ResultsSource     string // "appdata" | "runLatest"
	Decisions         []string // each a reuseDecision tag, counted into DecisionsSummary
	ConflictReport    []interface{}
	NowUTC            string
}

func spanForIR(area model.ReadArea, dt model.DataType) (int, bool) {
	if area.IsBitArea() {
		if dt == model.DataTypeBool {
			return 1, true
		}
		return 0, false
	}
	if dt == model.DataTypeBool {
		return 0, false
	}
	return dt.RegisterSpan()
}

// BuildCommIR produces Stage 1's document. It builds a plan on the fly
// (spec.md §4.8) purely to compute each point's absolute address; planning
// errors are reported as a ValidationError StageError rather than silently
// dropping points.
func BuildCommIR(in BuildCommIRInput) (*CommIR, error) {
	p, err := plan.Build(in.Profiles, in.Points)
	if err != nil {
		return nil, newStageError(ValidationError, "failed to build plan for address computation", map[string]interface{}{"cause": err.Error()})
	}

	addrByPoint := make(map[model.PointKey]int, len(in.Points))
	lenByPoint := make(map[model.PointKey]int, len(in.Points))
	for _, job := range p.Jobs {
		for _, jp := range job.Points {
			addrByPoint[jp.PointKey] = job.StartAddress + jp.Offset
			lenByPoint[jp.PointKey] = jp.Length
		}
	}

	points := make([]CommIRPoint, 0, len(in.Points))
	for _, pt := range in.Points {
		points = append(points, CommIRPoint{
			PointKey:    pt.PointKey,
			HmiName:     pt.HmiName,
			ChannelName: pt.ChannelName,
			DataType:    pt.DataType,
			AddressBase: "zero",
			Address:     addrByPoint[pt.PointKey],
			UnitLength:  lenByPoint[pt.PointKey],
		})
	}

	summary := DecisionsSummary{}
	for _, d := range in.Decisions {
		switch d {
		case "reusedKeyV2":
			summary.ReusedKeyV2++
		case "reusedKeyV2NoDevice":
			summary.ReusedKeyV2NoDevice++
		case "reusedKeyV1":
			summary.ReusedKeyV1++
		case "createdNew":
			summary.CreatedNew++
		case "conflict":
			summary.Conflicts++
		}
	}

	return &CommIR{
		SchemaVersion:  1,
		SpecVersion:    "v1",
		GeneratedAtUTC: in.NowUTC,
		Sources:        CommIRSources{UnionXlsxPath: in.UnionXlsxPath, ResultsSource: in.ResultsSource},
		Mapping:        CommIRMapping{Points: points, Profiles: in.Profiles},
		Verification:   CommIRVerification{Results: in.Results, Stats: in.Stats},
		DecisionsSummary: summary,
		Conflicts:      in.ConflictReport,
	}, nil
}
