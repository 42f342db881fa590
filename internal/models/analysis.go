package models

// Gender is the optional profile gender sent with an analyze request.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Profile is the optional age/gender pair supplied by the profile store.
type Profile struct {
	Age    *int   `json:"age,omitempty" validate:"omitempty,min=1,max=120"`
	Gender Gender `json:"gender,omitempty" validate:"omitempty,oneof=male female other"`
}

// IsZero reports whether no profile field is set.
func (p Profile) IsZero() bool {
	return p.Age == nil && p.Gender == ""
}

// AnalyzeRequest is the POST /analyze body.
type AnalyzeRequest struct {
	Symptoms   []string `json:"symptoms" validate:"required,min=1,dive,required"`
	UserAge    *int     `json:"user_age,omitempty" validate:"omitempty,min=1,max=120"`
	UserGender *string  `json:"user_gender,omitempty" validate:"omitempty,oneof=male female other"`
}

// NewAnalyzeRequest builds a request from storage-form tokens and a profile.
// Unset profile fields are omitted from the body.
func NewAnalyzeRequest(tokens []string, profile Profile) AnalyzeRequest {
	req := AnalyzeRequest{Symptoms: append([]string(nil), tokens...)}
	if profile.Age != nil {
		age := *profile.Age
		req.UserAge = &age
	}
	if profile.Gender != "" {
		g := string(profile.Gender)
		req.UserGender = &g
	}
	return req
}

type Prediction struct {
	Disease          string   `json:"disease"`
	Confidence       float64  `json:"confidence"`
	MatchingSymptoms []string `json:"matching_symptoms"`
	TotalSymptoms    int      `json:"total_symptoms"`
	Emergency        bool     `json:"emergency"`
}

// AnalyzeResponse is the POST /analyze response body.
type AnalyzeResponse struct {
	Predictions      []Prediction  `json:"predictions"`
	GraphData        *GraphPayload `json:"graph_data"`
	EmergencyWarning *string       `json:"emergency_warning"`
	Disclaimer       string        `json:"disclaimer"`
}

// SuggestionsResponse is the GET /symptoms/autocomplete response body.
type SuggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
}

// CommonSymptoms is the quick-select list, in storage form.
var CommonSymptoms = []string{
	"fever",
	"cough",
	"headache",
	"fatigue",
	"nausea",
	"chest_pain",
	"shortness_of_breath",
	"dizziness",
	"abdominal_pain",
	"sore_throat",
	"runny_nose",
	"body_aches",
}
