package dataprocessing

import (
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	apperrors "healthvault/internal/errors"
	"healthvault/pkg/contracts/domain"
)

// Element and attribute names in the export document.
const (
	rootElement    = "HealthData"
	profileElement = "Me"
	recordElement  = "Record"
	workoutElement = "Workout"
)

// Recognized record type identifiers. Anything else is ignored.
const (
	typeStepCount     = "HKQuantityTypeIdentifierStepCount"
	typeHeartRate     = "HKQuantityTypeIdentifierHeartRate"
	typeActiveEnergy  = "HKQuantityTypeIdentifierActiveEnergyBurned"
	typeRestingEnergy = "HKQuantityTypeIdentifierBasalEnergyBurned"
	typeSleepAnalysis = "HKCategoryTypeIdentifierSleepAnalysis"
)

// Vendor prefixes stripped before values enter the domain vocabulary.
const (
	prefixBloodType   = "HKBloodType"
	prefixSkinType    = "HKFitzpatrickSkinType"
	prefixWorkoutType = "HKWorkoutActivityType"
)

// Profile characteristic attribute names on the Me element.
const (
	attrDateOfBirth   = "HKCharacteristicTypeIdentifierDateOfBirth"
	attrBiologicalSex = "HKCharacteristicTypeIdentifierBiologicalSex"
	attrBloodType     = "HKCharacteristicTypeIdentifierBloodType"
	attrSkinType      = "HKCharacteristicTypeIdentifierFitzpatrickSkinType"
)

// notSetSentinel marks a characteristic the user never recorded; such
// values collapse to absent.
const notSetSentinel = "NotSet"

// sleepStage is one entry of the ordered stage match list. The order is
// significant: a label containing several stage substrings lands in the
// first matching bucket, so keep Deep before Core before REM.
type sleepStage struct {
	label string
	add   func(*domain.SleepNight, float64)
}

var sleepStages = []sleepStage{
	{"deep", func(n *domain.SleepNight, h float64) { n.Deep += h }},
	{"core", func(n *domain.SleepNight, h float64) { n.Light += h }},
	{"rem", func(n *domain.SleepNight, h float64) { n.REM += h }},
}

// bloodTypes maps the prefix-stripped vendor value onto the ABO/Rh
// vocabulary.
var bloodTypes = map[string]domain.BloodType{
	"APositive":  domain.BloodAPositive,
	"ANegative":  domain.BloodANegative,
	"BPositive":  domain.BloodBPositive,
	"BNegative":  domain.BloodBNegative,
	"ABPositive": domain.BloodABPositive,
	"ABNegative": domain.BloodABNegative,
	"OPositive":  domain.BloodOPositive,
	"ONegative":  domain.BloodONegative,
}

// skinTypes maps the prefix-stripped Fitzpatrick value onto its ordinal.
var skinTypes = map[string]int{
	"I": 1, "II": 2, "III": 3, "IV": 4, "V": 5, "VI": 6,
	"1": 1, "2": 2, "3": 3, "4": 4, "5": 5, "6": 6,
}

// Parser walks an export document and produces a typed record set.
type Parser struct {
	logger *slog.Logger

	// now is injectable so age computation is testable.
	now func() time.Time
}

// NewParser creates a parser with the given logger.
func NewParser(logger *slog.Logger) *Parser {
	return &Parser{
		logger: logger.With(slog.String("component", "parser")),
		now:    time.Now,
	}
}

// Parse performs a single streaming pass over the payload. A document
// without the root container yields an empty record set; a document the
// tokenizer cannot read at all fails with the parse sentinel. Bad
// individual entries are counted, logged and skipped.
func (p *Parser) Parse(payload string) (*domain.ParsedHealthData, error) {
	parsed := domain.NewParsedHealthData()

	dec := xml.NewDecoder(strings.NewReader(payload))
	sleepByDate := make(map[string]*domain.SleepNight)
	inRoot := false
	skipped := 0

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrParse, err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch {
		case start.Name.Local == rootElement:
			inRoot = true

		case !inRoot:
			// Elements outside the root container carry no records.
			if err := dec.Skip(); err != nil {
				return nil, fmt.Errorf("%w: %v", apperrors.ErrParse, err)
			}

		case start.Name.Local == profileElement:
			parsed.UserInfo = p.parseProfile(start)
			if err := dec.Skip(); err != nil {
				return nil, fmt.Errorf("%w: %v", apperrors.ErrParse, err)
			}

		case start.Name.Local == recordElement:
			if !p.parseRecord(start, parsed, sleepByDate) {
				skipped++
			}
			if err := dec.Skip(); err != nil {
				return nil, fmt.Errorf("%w: %v", apperrors.ErrParse, err)
			}

		case start.Name.Local == workoutElement:
			if !p.parseWorkout(start, parsed) {
				skipped++
			}
			if err := dec.Skip(); err != nil {
				return nil, fmt.Errorf("%w: %v", apperrors.ErrParse, err)
			}
		}
	}

	for _, night := range sleepByDate {
		parsed.Sleep = append(parsed.Sleep, *night)
	}
	sort.Slice(parsed.Sleep, func(i, j int) bool {
		return parsed.Sleep[i].Date < parsed.Sleep[j].Date
	})

	parsed.Steps = AggregateSum(parsed.Steps)
	parsed.ActiveEnergy = AggregateSum(parsed.ActiveEnergy)
	parsed.RestingEnergy = AggregateSum(parsed.RestingEnergy)
	parsed.HeartRate = AggregateAverage(parsed.HeartRate)

	p.logger.Info("parse completed",
		slog.Int("steps", len(parsed.Steps)),
		slog.Int("heart_rate", len(parsed.HeartRate)),
		slog.Int("active_energy", len(parsed.ActiveEnergy)),
		slog.Int("resting_energy", len(parsed.RestingEnergy)),
		slog.Int("sleep_nights", len(parsed.Sleep)),
		slog.Int("workouts", len(parsed.Workouts)),
		slog.Int("skipped_entries", skipped))

	return parsed, nil
}

// parseProfile extracts the four recognized characteristics from the
// profile element. NotSet sentinels collapse to absent.
func (p *Parser) parseProfile(start xml.StartElement) *domain.ProfileAttributes {
	attrs := attrMap(start)
	info := &domain.ProfileAttributes{}

	if dob := attrs[attrDateOfBirth]; dob != "" {
		info.DateOfBirth = dob
		if birth, ok := NormalizeDateTime(dob); ok {
			info.Age = ageAt(birth, p.now())
		}
	}

	// Check order matters: "Female" must not fall into the "Male"
	// bucket, so the match is case-sensitive like the source values.
	if sex := attrs[attrBiologicalSex]; sex != "" {
		switch {
		case strings.Contains(sex, "Female"):
			info.BiologicalSex = domain.SexFemale
		case strings.Contains(sex, "Male"):
			info.BiologicalSex = domain.SexMale
		case strings.Contains(sex, "Other"):
			info.BiologicalSex = domain.SexOther
		}
	}

	if bt := attrs[attrBloodType]; bt != "" && !strings.Contains(bt, notSetSentinel) {
		info.BloodType = bloodTypes[strings.TrimPrefix(bt, prefixBloodType)]
	}

	if st := attrs[attrSkinType]; st != "" && !strings.Contains(st, notSetSentinel) {
		info.SkinType = skinTypes[strings.TrimPrefix(st, prefixSkinType)]
	}

	return info
}

// parseRecord dispatches one record entry into its series. Reports
// false when the entry was dropped.
func (p *Parser) parseRecord(start xml.StartElement, parsed *domain.ParsedHealthData, sleepByDate map[string]*domain.SleepNight) bool {
	attrs := attrMap(start)
	recordType := attrs["type"]
	startDate := attrs["startDate"]

	date, ok := NormalizeDate(startDate)
	if !ok || recordType == "" {
		p.logger.Debug("record skipped",
			slog.String("type", recordType),
			slog.String("start_date", startDate))
		return false
	}

	switch recordType {
	case typeStepCount:
		parsed.Steps = append(parsed.Steps, domain.DailyMetric{Date: date, Value: NormalizeNumber(attrs["value"])})
	case typeHeartRate:
		parsed.HeartRate = append(parsed.HeartRate, domain.DailyMetric{Date: date, Value: NormalizeNumber(attrs["value"])})
	case typeActiveEnergy:
		parsed.ActiveEnergy = append(parsed.ActiveEnergy, domain.DailyMetric{Date: date, Value: NormalizeNumber(attrs["value"])})
	case typeRestingEnergy:
		parsed.RestingEnergy = append(parsed.RestingEnergy, domain.DailyMetric{Date: date, Value: NormalizeNumber(attrs["value"])})
	case typeSleepAnalysis:
		return p.parseSleep(attrs, date, sleepByDate)
	default:
		// Unknown types are expected in real exports; not an error.
	}
	return true
}

// parseSleep adds one sleep interval to its date's night. The whole
// duration lands in exactly one bucket, and only plausible durations
// (0 < h < 24) are kept.
func (p *Parser) parseSleep(attrs map[string]string, date string, sleepByDate map[string]*domain.SleepNight) bool {
	label := attrs["value"]
	start, okStart := NormalizeDateTime(attrs["startDate"])
	end, okEnd := NormalizeDateTime(attrs["endDate"])
	if label == "" || !okStart || !okEnd {
		return false
	}

	hours := end.Sub(start).Hours()
	if hours <= 0 || hours >= 24 {
		return false
	}

	lower := strings.ToLower(label)
	for _, stage := range sleepStages {
		if !strings.Contains(lower, stage.label) {
			continue
		}
		night, ok := sleepByDate[date]
		if !ok {
			night = &domain.SleepNight{Date: date}
			sleepByDate[date] = night
		}
		stage.add(night, hours)
		return true
	}

	// Awake/InBed and other unmatched labels contribute nowhere.
	return false
}

// parseWorkout extracts one workout entry. Only an absent or
// unparseable start date drops the entry; magnitudes default to 0.
func (p *Parser) parseWorkout(start xml.StartElement, parsed *domain.ParsedHealthData) bool {
	attrs := attrMap(start)

	date, ok := NormalizeDate(attrs["startDate"])
	if !ok {
		p.logger.Debug("workout skipped",
			slog.String("start_date", attrs["startDate"]))
		return false
	}

	activity := attrs["workoutActivityType"]
	if activity == "" {
		activity = "Unknown"
	}

	workout := domain.Workout{
		Type:     strings.TrimPrefix(activity, prefixWorkoutType),
		Date:     date,
		Duration: NormalizeNumber(attrs["duration"]),
		Calories: NormalizeNumber(attrs["totalEnergyBurned"]),
	}
	if distance := NormalizeNumber(attrs["totalDistance"]); distance != 0 {
		workout.Distance = &distance
	}

	parsed.Workouts = append(parsed.Workouts, workout)
	return true
}

// ageAt computes whole years elapsed, decremented when the birthday has
// not yet occurred in now's year.
func ageAt(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() ||
		(now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age
}

func attrMap(start xml.StartElement) map[string]string {
	attrs := make(map[string]string, len(start.Attr))
	for _, a := range start.Attr {
		attrs[a.Name.Local] = a.Value
	}
	return attrs
}
