package domain

// BiologicalSex is the profile sex attribute after vendor-prefix stripping.
type BiologicalSex string

const (
	SexMale    BiologicalSex = "Male"
	SexFemale  BiologicalSex = "Female"
	SexOther   BiologicalSex = "Other"
	SexUnknown BiologicalSex = ""
)

// BloodType is one of the eight ABO/Rh groups, empty when not recorded.
type BloodType string

const (
	BloodAPositive  BloodType = "A+"
	BloodANegative  BloodType = "A-"
	BloodBPositive  BloodType = "B+"
	BloodBNegative  BloodType = "B-"
	BloodABPositive BloodType = "AB+"
	BloodABNegative BloodType = "AB-"
	BloodOPositive  BloodType = "O+"
	BloodONegative  BloodType = "O-"
	BloodUnknown    BloodType = ""
)

// ProfileAttributes holds the user characteristics extracted from the
// export's profile element. Name is never present in the source export;
// it is supplied by the consumer after parsing.
type ProfileAttributes struct {
	Name          string        `json:"name,omitempty"`
	DateOfBirth   string        `json:"date_of_birth,omitempty"`
	BiologicalSex BiologicalSex `json:"biological_sex,omitempty"`
	BloodType     BloodType     `json:"blood_type,omitempty"`
	// SkinType is the Fitzpatrick ordinal 1-6, 0 when not recorded.
	SkinType int `json:"skin_type,omitempty"`
	// Age in whole years at parse time, derived from DateOfBirth.
	Age int `json:"age,omitempty"`
}

// WithName returns a copy with the consumer-supplied display name applied.
// All other fields are carried over untouched.
func (p ProfileAttributes) WithName(name string) ProfileAttributes {
	p.Name = name
	return p
}

// DailyMetric is a single day's reading for one series. Date is a
// CalendarDay in YYYY-MM-DD form, canonicalized to UTC.
type DailyMetric struct {
	Date  string  `json:"date" validate:"required,datetime=2006-01-02"`
	Value float64 `json:"value"`
}

// SleepNight is one calendar day's sleep, split into stage buckets.
// Each raw interval contributes its whole duration to exactly one bucket.
type SleepNight struct {
	Date  string  `json:"date" validate:"required,datetime=2006-01-02"`
	Deep  float64 `json:"deep"`
	Light float64 `json:"light"`
	REM   float64 `json:"rem"`
}

// Workout is a single workout session. Workouts are never merged by
// date; two sessions on one day stay two entries.
type Workout struct {
	// Type is the activity name with the vendor prefix stripped.
	Type     string  `json:"type"`
	Date     string  `json:"date" validate:"required,datetime=2006-01-02"`
	Duration float64 `json:"duration"`
	Calories float64 `json:"calories"`
	// Distance is absent (nil) when the source reported none or zero.
	Distance *float64 `json:"distance,omitempty"`
}

// ParsedHealthData is the aggregate root produced by one successful
// parse. Metric series hold at most one entry per date, sorted
// ascending; workouts keep source order. The struct is replaced
// wholesale on a new upload, only the profile name is edited in place.
type ParsedHealthData struct {
	UserInfo      *ProfileAttributes `json:"user_info,omitempty"`
	Steps         []DailyMetric      `json:"steps"`
	HeartRate     []DailyMetric      `json:"heart_rate"`
	ActiveEnergy  []DailyMetric      `json:"active_energy"`
	RestingEnergy []DailyMetric      `json:"resting_energy"`
	Sleep         []SleepNight       `json:"sleep"`
	Workouts      []Workout          `json:"workouts"`
}

// NewParsedHealthData returns an empty record set with all series
// allocated, so a payload with no records still serializes as arrays.
func NewParsedHealthData() *ParsedHealthData {
	return &ParsedHealthData{
		Steps:         []DailyMetric{},
		HeartRate:     []DailyMetric{},
		ActiveEnergy:  []DailyMetric{},
		RestingEnergy: []DailyMetric{},
		Sleep:         []SleepNight{},
		Workouts:      []Workout{},
	}
}

// SetName applies the consumer-supplied display name to the profile,
// creating the profile if the export carried none.
func (d *ParsedHealthData) SetName(name string) {
	if d.UserInfo == nil {
		d.UserInfo = &ProfileAttributes{}
	}
	d.UserInfo.Name = name
}
