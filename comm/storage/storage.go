package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/hollysys/plc-comm-forge/comm/ir"
	"github.com/hollysys/plc-comm-forge/comm/model"
	"github.com/mitchellh/mapstructure"
)

// Store is the named-document facade rooted at one base directory.
type Store struct {
	baseDir string
}

// New returns a Store rooted at baseDir. The directory is created on first
// write if absent.
func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

const schemaVersion = 1

func (s *Store) path(name string) string {
	return filepath.Join(s.baseDir, name)
}

func (s *Store) runPath(runID, name string) string {
	return filepath.Join(s.baseDir, "runs", runID, name)
}

// load reads name's raw bytes, returning (nil, false, nil) if the file is
// absent — NotFound is a normal outcome, never an error.
func (s *Store) load(path string) ([]byte, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, &Error{Kind: ErrRead, Doc: path, Err: err}
	}
	return data, true, nil
}

func checkSchemaVersion(doc string, data []byte) error {
	var probe struct {
		SchemaVersion int `json:"schemaVersion"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return &Error{Kind: ErrDecode, Doc: doc, Err: err}
	}
	if probe.SchemaVersion != schemaVersion {
		return &Error{Kind: ErrUnsupportedSchemaVersion, Doc: doc, Err: errUnsupportedVersion(probe.SchemaVersion)}
	}
	return nil
}

func errUnsupportedVersion(got int) error {
	return &unsupportedVersionErr{got: got}
}

type unsupportedVersionErr struct{ got int }

func (e *unsupportedVersionErr) Error() string {
	return "unsupported schema_version"
}

func (s *Store) save(path string, v interface{}) error {
	data, err := ir.MarshalIndented(v)
	if err != nil {
		return &Error{Kind: ErrWrite, Doc: path, Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &Error{Kind: ErrWrite, Doc: path, Err: err}
	}
	if err := ir.WriteAtomic(path, data); err != nil {
		return &Error{Kind: ErrWrite, Doc: path, Err: err}
	}
	return nil
}

// ConfigDoc is config.v1.json's shape.
type ConfigDoc struct {
	SchemaVersion int    `json:"schemaVersion" mapstructure:"schemaVersion"`
	OutputDir     string `json:"outputDir" mapstructure:"outputDir"`
}

// SaveConfig writes config.v1.json atomically.
func (s *Store) SaveConfig(doc ConfigDoc) error {
	doc.SchemaVersion = schemaVersion
	return s.save(s.path("config.v1.json"), doc)
}

// LoadConfig reads config.v1.json; ok is false if absent.
func (s *Store) LoadConfig() (doc ConfigDoc, ok bool, err error) {
	data, present, err := s.load(s.path("config.v1.json"))
	if err != nil || !present {
		return ConfigDoc{}, present, err
	}
	if err := checkSchemaVersion("config.v1.json", data); err != nil {
		return ConfigDoc{}, false, err
	}
	if err := decodePermissive(data, &doc); err != nil {
		return ConfigDoc{}, false, &Error{Kind: ErrDecode, Doc: "config.v1.json", Err: err}
	}
	return doc, true, nil
}

// ProfilesDoc is profiles.v1.json's shape.
type ProfilesDoc struct {
	SchemaVersion int                        `json:"schemaVersion" mapstructure:"schemaVersion"`
	Profiles      []model.ConnectionProfile  `json:"profiles" mapstructure:"profiles"`
}

func (s *Store) SaveProfiles(profiles []model.ConnectionProfile) error {
	return s.save(s.path("profiles.v1.json"), ProfilesDoc{SchemaVersion: schemaVersion, Profiles: profiles})
}

func (s *Store) LoadProfiles() (profiles []model.ConnectionProfile, ok bool, err error) {
	data, present, err := s.load(s.path("profiles.v1.json"))
	if err != nil || !present {
		return nil, present, err
	}
	if err := checkSchemaVersion("profiles.v1.json", data); err != nil {
		return nil, false, err
	}
	var doc ProfilesDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, false, &Error{Kind: ErrDecode, Doc: "profiles.v1.json", Err: err}
	}
	return doc.Profiles, true, nil
}

// PointsDoc is points.v1.json's shape.
type PointsDoc struct {
	SchemaVersion int            `json:"schemaVersion" mapstructure:"schemaVersion"`
	Points        []model.Point  `json:"points" mapstructure:"points"`
}

func (s *Store) SavePoints(points []model.Point) error {
	return s.save(s.path("points.v1.json"), PointsDoc{SchemaVersion: schemaVersion, Points: points})
}

func (s *Store) LoadPoints() (points []model.Point, ok bool, err error) {
	data, present, err := s.load(s.path("points.v1.json"))
	if err != nil || !present {
		return nil, present, err
	}
	if err := checkSchemaVersion("points.v1.json", data); err != nil {
		return nil, false, err
	}
	var doc PointsDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, false, &Error{Kind: ErrDecode, Doc: "points.v1.json", Err: err}
	}
	return doc.Points, true, nil
}

// PlanDoc is plan.v1.json's shape.
type PlanDoc struct {
	SchemaVersion int                    `json:"schemaVersion" mapstructure:"schemaVersion"`
	Plan          PlanJobsDoc            `json:"plan" mapstructure:"plan"`
}

// PlanJobsDoc wraps the job list the way spec.md §6 nests it.
type PlanJobsDoc struct {
	Jobs []model.ReadJob `json:"jobs" mapstructure:"jobs"`
}

func (s *Store) SavePlan(jobs []model.ReadJob) error {
	return s.save(s.path("plan.v1.json"), PlanDoc{SchemaVersion: schemaVersion, Plan: PlanJobsDoc{Jobs: jobs}})
}

func (s *Store) LoadPlan() (jobs []model.ReadJob, ok bool, err error) {
	data, present, err := s.load(s.path("plan.v1.json"))
	if err != nil || !present {
		return nil, present, err
	}
	if err := checkSchemaVersion("plan.v1.json", data); err != nil {
		return nil, false, err
	}
	var doc PlanDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, false, &Error{Kind: ErrDecode, Doc: "plan.v1.json", Err: err}
	}
	return doc.Plan.Jobs, true, nil
}

// LastResultsDoc is last_results.v1.json's shape.
type LastResultsDoc struct {
	SchemaVersion int                   `json:"schemaVersion" mapstructure:"schemaVersion"`
	Results       []model.SampleResult  `json:"results" mapstructure:"results"`
	Stats         model.RunStats        `json:"stats" mapstructure:"stats"`
}

func (s *Store) SaveLastResults(doc LastResultsDoc) error {
	doc.SchemaVersion = schemaVersion
	return s.save(s.path("last_results.v1.json"), doc)
}

func (s *Store) LoadLastResults() (doc LastResultsDoc, ok bool, err error) {
	data, present, err := s.load(s.path("last_results.v1.json"))
	if err != nil || !present {
		return LastResultsDoc{}, present, err
	}
	if err := checkSchemaVersion("last_results.v1.json", data); err != nil {
		return LastResultsDoc{}, false, err
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return LastResultsDoc{}, false, &Error{Kind: ErrDecode, Doc: "last_results.v1.json", Err: err}
	}
	return doc, true, nil
}

// SaveRunLastResults archives the per-run snapshot under runs/<runID>/.
func (s *Store) SaveRunLastResults(runID string, doc LastResultsDoc) error {
	doc.SchemaVersion = schemaVersion
	return s.save(s.runPath(runID, "last_results.v1.json"), doc)
}

// LoadRunLastResults reads a per-run archived snapshot.
func (s *Store) LoadRunLastResults(runID string) (doc LastResultsDoc, ok bool, err error) {
	data, present, err := s.load(s.runPath(runID, "last_results.v1.json"))
	if err != nil || !present {
		return LastResultsDoc{}, present, err
	}
	if err := checkSchemaVersion("last_results.v1.json", data); err != nil {
		return LastResultsDoc{}, false, err
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return LastResultsDoc{}, false, &Error{Kind: ErrDecode, Doc: "last_results.v1.json", Err: err}
	}
	return doc, true, nil
}

// decodePermissive uses mapstructure over a generically-parsed JSON value so
// unrecognized fields are ignored rather than rejected, matching the
// fail-open posture the rest of the model applies to unknown enum values.
func decodePermissive(data []byte, out interface{}) error {
	var generic map[string]interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		return err
	}
	return mapstructure.Decode(generic, out)
}
