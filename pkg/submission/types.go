package submission

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// ExpectedCount is the number of personas a complete submission covers.
const ExpectedCount = 100

// PredictedType is the three-way classification assigned to a persona.
type PredictedType string

const (
	// TypeJobsAndTrainings recommends jobs, each with suggested trainings.
	TypeJobsAndTrainings PredictedType = "jobs+trainings"
	// TypeTrainingsOnly recommends trainings without jobs.
	TypeTrainingsOnly PredictedType = "trainings_only"
	// TypeAwareness sends general awareness messaging.
	TypeAwareness PredictedType = "awareness"
)

// ValidTypes lists the recognized predicted types in canonical order.
//
//nolint:gochecknoglobals // Fixed enumeration
var ValidTypes = []PredictedType{TypeJobsAndTrainings, TypeTrainingsOnly, TypeAwareness}

// Valid reports whether t is one of the recognized predicted types.
func (t PredictedType) Valid() (ok bool) {
	for _, v := range ValidTypes {
		if t == v {
			ok = true
			return ok
		}
	}
	return ok
}

// Job is a single job recommendation. Its contents are carried as raw JSON.
type Job struct {
	JobID              json.RawMessage `json:"job_id"`
	SuggestedTrainings json.RawMessage `json:"suggested_trainings"`
}

// Result is the prediction for one persona. Only the payload matching Type is populated.
// PersonaID holds the identifier exactly as it appeared in the document; nil means absent.
type Result struct {
	PersonaID json.RawMessage
	Type      PredictedType

	// Jobs is set for TypeJobsAndTrainings.
	Jobs []Job
	// Trainings is set for TypeTrainingsOnly.
	Trainings []json.RawMessage
	// PredictedItems is optional free-form data for TypeAwareness.
	PredictedItems json.RawMessage
}

// Submission is an ordered set of results.
type Submission []Result

// NewJob builds a job recommendation from plain string identifiers.
func NewJob(jobID string, trainings ...string) (job Job) {
	if trainings == nil {
		trainings = []string{}
	}
	job = Job{
		JobID:              marshalString(jobID),
		SuggestedTrainings: marshalString(trainings),
	}
	return job
}

// NewJobsAndTrainings builds a jobs+trainings result.
func NewJobsAndTrainings(personaID string, jobs ...Job) (result Result) {
	if jobs == nil {
		jobs = []Job{}
	}
	result = Result{
		PersonaID: marshalString(personaID),
		Type:      TypeJobsAndTrainings,
		Jobs:      jobs,
	}
	return result
}

// NewTrainingsOnly builds a trainings_only result.
func NewTrainingsOnly(personaID string, trainings ...string) (result Result) {
	raw := make([]json.RawMessage, 0, len(trainings))
	for _, t := range trainings {
		raw = append(raw, marshalString(t))
	}
	result = Result{
		PersonaID: marshalString(personaID),
		Type:      TypeTrainingsOnly,
		Trainings: raw,
	}
	return result
}

// NewAwareness builds an awareness result. An empty items string omits predicted_items.
func NewAwareness(personaID string, items string) (result Result) {
	result = Result{
		PersonaID: marshalString(personaID),
		Type:      TypeAwareness,
	}
	if items != "" {
		result.PredictedItems = marshalString(items)
	}
	return result
}

// MarshalJSON writes only the keys belonging to the result's variant.
func (r Result) MarshalJSON() (data []byte, err error) {
	switch r.Type {
	case TypeJobsAndTrainings:
		jobs := r.Jobs
		if jobs == nil {
			jobs = []Job{}
		}
		data, err = json.Marshal(struct {
			PersonaID json.RawMessage `json:"persona_id"`
			Type      PredictedType   `json:"predicted_type"`
			Jobs      []Job           `json:"jobs"`
		}{r.PersonaID, r.Type, jobs})
	case TypeTrainingsOnly:
		trainings := r.Trainings
		if trainings == nil {
			trainings = []json.RawMessage{}
		}
		data, err = json.Marshal(struct {
			PersonaID json.RawMessage   `json:"persona_id"`
			Type      PredictedType     `json:"predicted_type"`
			Trainings []json.RawMessage `json:"trainings"`
		}{r.PersonaID, r.Type, trainings})
	default:
		data, err = json.Marshal(struct {
			PersonaID      json.RawMessage `json:"persona_id"`
			Type           PredictedType   `json:"predicted_type"`
			PredictedItems json.RawMessage `json:"predicted_items,omitempty"`
		}{r.PersonaID, r.Type, r.PredictedItems})
	}
	if err != nil {
		err = errors.Wrapf(err, "failed to marshal result for persona %s", r.Persona())
	}
	return data, err
}

// Persona returns the persona identifier for display. String identifiers are unquoted.
func (r Result) Persona() (id string) {
	id = gjson.ParseBytes(r.PersonaID).String()
	return id
}

// UnmarshalJSON parses and validates a submission document.
func (s *Submission) UnmarshalJSON(data []byte) (err error) {
	var parsed Submission
	parsed, err = parse(data)
	if err != nil {
		return err
	}
	*s = parsed
	return err
}

// CountByType returns the number of results per predicted type.
func (s Submission) CountByType() (counts map[PredictedType]int) {
	counts = make(map[PredictedType]int, len(ValidTypes))
	for _, r := range s {
		counts[r.Type]++
	}
	return counts
}

// marshalString encodes values that cannot fail to marshal.
func marshalString(v interface{}) (raw json.RawMessage) {
	raw, _ = json.Marshal(v)
	return raw
}
