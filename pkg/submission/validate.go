package submission

import (
	"encoding/json"
	"fmt"

	"github.com/cg-gdsc/gdsc8/pkg/logger"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// ErrFormat matches every FormatError via errors.Is.
//
//nolint:gochecknoglobals // Sentinel error
var ErrFormat = errors.New("invalid submission format")

// ErrEmpty is returned for a submission without results.
//
//nolint:gochecknoglobals // Sentinel error
var ErrEmpty error = &FormatError{Index: -1, Reason: "results list is empty"}

// FormatError describes the first structural problem found in a submission.
// Index is the offending result's position, or -1 when the problem is not tied to a result.
type FormatError struct {
	Index  int
	Reason string
}

func (e *FormatError) Error() (msg string) {
	if e.Index < 0 {
		msg = e.Reason
		return msg
	}
	msg = fmt.Sprintf("result %d %s", e.Index, e.Reason)
	return msg
}

// Is lets errors.Is(err, ErrFormat) match any FormatError.
func (e *FormatError) Is(target error) (ok bool) {
	ok = target == ErrFormat
	return ok
}

func formatErrorf(index int, format string, args ...interface{}) (err error) {
	err = &FormatError{Index: index, Reason: fmt.Sprintf(format, args...)}
	return err
}

// Parse decodes a JSON submission document and validates it, stopping at the first bad result.
// A result count other than ExpectedCount is logged as a warning.
func Parse(data []byte) (sub Submission, err error) {
	sub, err = Decode(data)
	if err != nil {
		return sub, err
	}

	checkCardinality(len(sub))
	logger.Get().Debugw("validated submission", "results", len(sub))

	return sub, err
}

// Decode is Parse without the cardinality warning, for callers that validate the
// result again before use (Client.Submit does).
func Decode(data []byte) (sub Submission, err error) {
	sub, err = parse(data)
	return sub, err
}

// ValidateRecords validates already-decoded result documents and returns their typed form.
func ValidateRecords(records []map[string]interface{}) (sub Submission, err error) {
	if len(records) == 0 {
		err = ErrEmpty
		return sub, err
	}

	var data []byte
	data, err = json.Marshal(records)
	if err != nil {
		err = errors.Wrap(err, "failed to encode records")
		return sub, err
	}

	sub, err = Parse(data)
	return sub, err
}

// Validate checks a submission assembled in code. It applies the same rules as Parse.
func Validate(sub Submission) (err error) {
	if len(sub) == 0 {
		err = ErrEmpty
		return err
	}

	for i, r := range sub {
		err = validateResult(i, r)
		if err != nil {
			return err
		}
	}

	checkCardinality(len(sub))
	logger.Get().Debugw("validated submission", "results", len(sub))

	return err
}

func validateResult(i int, r Result) (err error) {
	var missing []string
	if r.PersonaID == nil {
		missing = append(missing, "persona_id")
	}
	if r.Type == "" {
		missing = append(missing, "predicted_type")
	}
	if len(missing) > 0 {
		err = formatErrorf(i, "missing required fields: %v", missing)
		return err
	}

	if !r.Type.Valid() {
		err = invalidType(i, string(r.Type))
		return err
	}

	switch r.Type {
	case TypeJobsAndTrainings:
		if r.Jobs == nil {
			err = formatErrorf(i, "missing 'jobs' field")
			return err
		}
		for _, job := range r.Jobs {
			if job.JobID == nil {
				err = formatErrorf(i, "job missing 'job_id'")
				return err
			}
			if job.SuggestedTrainings == nil {
				err = formatErrorf(i, "job missing 'suggested_trainings'")
				return err
			}
		}
	case TypeTrainingsOnly:
		if r.Trainings == nil {
			err = formatErrorf(i, "missing 'trainings' field")
			return err
		}
	case TypeAwareness:
	}

	return err
}

func parse(data []byte) (sub Submission, err error) {
	if !gjson.ValidBytes(data) {
		err = &FormatError{Index: -1, Reason: "submission is not valid JSON"}
		return sub, err
	}

	doc := gjson.ParseBytes(data)
	if !doc.IsArray() {
		err = &FormatError{Index: -1, Reason: "submission must be a list of results"}
		return sub, err
	}

	records := doc.Array()
	if len(records) == 0 {
		err = ErrEmpty
		return sub, err
	}

	sub = make(Submission, 0, len(records))
	for i, record := range records {
		var r Result
		r, err = parseResult(i, record)
		if err != nil {
			sub = nil
			return sub, err
		}
		sub = append(sub, r)
	}

	return sub, err
}

func parseResult(i int, record gjson.Result) (r Result, err error) {
	if !record.IsObject() {
		err = formatErrorf(i, "must be a dictionary")
		return r, err
	}

	personaID := record.Get("persona_id")
	predictedType := record.Get("predicted_type")

	var missing []string
	if !personaID.Exists() {
		missing = append(missing, "persona_id")
	}
	if !predictedType.Exists() {
		missing = append(missing, "predicted_type")
	}
	if len(missing) > 0 {
		err = formatErrorf(i, "missing required fields: %v", missing)
		return r, err
	}

	r.PersonaID = json.RawMessage(personaID.Raw)
	r.Type = PredictedType(predictedType.String())
	if predictedType.Type != gjson.String || !r.Type.Valid() {
		err = invalidType(i, predictedType.String())
		return r, err
	}

	switch r.Type {
	case TypeJobsAndTrainings:
		r.Jobs, err = parseJobs(i, record.Get("jobs"))
	case TypeTrainingsOnly:
		r.Trainings, err = parseTrainings(i, record.Get("trainings"))
	case TypeAwareness:
		if items := record.Get("predicted_items"); items.Exists() {
			r.PredictedItems = json.RawMessage(items.Raw)
		}
	}

	return r, err
}

func parseJobs(i int, field gjson.Result) (jobs []Job, err error) {
	if !field.Exists() {
		err = formatErrorf(i, "missing 'jobs' field")
		return jobs, err
	}
	if !field.IsArray() {
		err = formatErrorf(i, "'jobs' must be a list")
		return jobs, err
	}

	elements := field.Array()
	jobs = make([]Job, 0, len(elements))
	for _, element := range elements {
		if !element.IsObject() {
			err = formatErrorf(i, "job items must be dictionaries")
			return nil, err
		}

		jobID := element.Get("job_id")
		if !jobID.Exists() {
			err = formatErrorf(i, "job missing 'job_id'")
			return nil, err
		}

		trainings := element.Get("suggested_trainings")
		if !trainings.Exists() {
			err = formatErrorf(i, "job missing 'suggested_trainings'")
			return nil, err
		}

		jobs = append(jobs, Job{
			JobID:              json.RawMessage(jobID.Raw),
			SuggestedTrainings: json.RawMessage(trainings.Raw),
		})
	}

	return jobs, err
}

func parseTrainings(i int, field gjson.Result) (trainings []json.RawMessage, err error) {
	if !field.Exists() {
		err = formatErrorf(i, "missing 'trainings' field")
		return trainings, err
	}
	if !field.IsArray() {
		err = formatErrorf(i, "'trainings' must be a list")
		return trainings, err
	}

	elements := field.Array()
	trainings = make([]json.RawMessage, 0, len(elements))
	for _, element := range elements {
		trainings = append(trainings, json.RawMessage(element.Raw))
	}

	return trainings, err
}

func invalidType(i int, value string) (err error) {
	err = formatErrorf(i, "has invalid predicted_type: '%s'. Must be one of: %v", value, ValidTypes)
	return err
}

func checkCardinality(n int) {
	if n != ExpectedCount {
		logger.Get().Warnw("unexpected number of results", "expected", ExpectedCount, "got", n)
	}
}
