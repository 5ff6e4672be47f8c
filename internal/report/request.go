package report

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"

	"github.com/sells-group/portfolio-report/internal/cashflow"
	"github.com/sells-group/portfolio-report/internal/snapshot"
)

// DateLayout is the wire format of request dates.
const DateLayout = "2006-01-02"

var validate = validator.New(validator.WithRequiredStructEnabled())

// Request selects what a report covers.
type Request struct {
	// ProjectFilter is "all" or a single project id.
	ProjectFilter string    `json:"project_filter" validate:"required"`
	Start         time.Time `json:"start" validate:"required"`
	End           time.Time `json:"end" validate:"required,gtefield=Start"`
}

// DefaultRequest covers every project over the trailing months through the
// day of now.
func DefaultRequest(now time.Time, months int) Request {
	end := day(now)
	return Request{
		ProjectFilter: snapshot.AllProjects,
		Start:         end.AddDate(0, -months, 0),
		End:           end,
	}
}

// Validate checks the request. The end date may not precede the start.
func (r Request) Validate() error {
	if err := validate.Struct(r); err != nil {
		return eris.Wrap(err, "report: invalid request")
	}
	return nil
}

// WithDefaults fills zero fields from def.
func (r Request) WithDefaults(def Request) Request {
	if r.ProjectFilter == "" {
		r.ProjectFilter = def.ProjectFilter
	}
	if r.Start.IsZero() {
		r.Start = def.Start
	}
	if r.End.IsZero() {
		r.End = def.End
	}
	return r
}

// Range is the cash-flow range covered by the request.
func (r Request) Range() cashflow.Range {
	return cashflow.Range{Start: r.Start, End: r.End}
}

type wireRequest struct {
	ProjectFilter string `json:"project_filter"`
	Start         string `json:"start,omitempty"`
	End           string `json:"end,omitempty"`
}

// MarshalJSON writes dates as YYYY-MM-DD.
func (r Request) MarshalJSON() ([]byte, error) {
	w := wireRequest{ProjectFilter: r.ProjectFilter}
	if !r.Start.IsZero() {
		w.Start = r.Start.UTC().Format(DateLayout)
	}
	if !r.End.IsZero() {
		w.End = r.End.UTC().Format(DateLayout)
	}
	return json.Marshal(w)
}

// UnmarshalJSON accepts YYYY-MM-DD or RFC 3339 dates. Missing dates stay
// zero so WithDefaults can fill them.
func (r *Request) UnmarshalJSON(b []byte) error {
	var w wireRequest
	if err := json.Unmarshal(b, &w); err != nil {
		return eris.Wrap(err, "report: decode request")
	}
	start, err := ParseDate(w.Start)
	if err != nil {
		return err
	}
	end, err := ParseDate(w.End)
	if err != nil {
		return err
	}
	*r = Request{ProjectFilter: w.ProjectFilter, Start: start, End: end}
	return nil
}

// ParseDate parses a YYYY-MM-DD or RFC 3339 date, truncated to the UTC day.
// The empty string parses to the zero time.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, eris.Errorf("report: invalid date %q, want YYYY-MM-DD", s)
	}
	return day(t), nil
}

func day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
