package profile

import (
	"fmt"
	"strconv"
	"strings"
)

// Canonical absent values. Every profile field carries one of these instead
// of an empty string, so prompt templating and document rendering never
// interpolate a gap.
const (
	NoneReported = "None reported"
	NotSpecified = "Not specified"
)

// Gender is the declared patient gender.
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

// PatientProfile is the canonical patient record built from one form
// submission. It is immutable after Normalize returns it.
type PatientProfile struct {
	Age      int // 0 means not specified
	Gender   Gender
	HeightCm float64 // 0 means not specified
	WeightKg float64 // 0 means not specified
	BMI      string

	Conditions    string
	Medications   string
	Allergies     string
	Smoking       string
	Alcohol       string
	Exercise      string
	Diet          string
	Sleep         string
	Stress        string
	FamilyHistory string
	Accidents     string
	Symptoms      string
}

// Field is one labelled profile attribute, in display order.
type Field struct {
	Label string
	Value string
}

// Normalize converts raw multipart form values into a fully populated
// PatientProfile. Absent or blank fields are replaced with the canonical
// sentinels; list-valued fields are joined with ", ". Pure transformation,
// never fails.
func Normalize(values map[string][]string) PatientProfile {
	p := PatientProfile{
		Age:           parseAge(first(values, "age")),
		Gender:        parseGender(first(values, "gender")),
		Conditions:    textOr(values, "previous_conditions", NoneReported),
		Medications:   textOr(values, "current_medications", NoneReported),
		Allergies:     textOr(values, "allergies", NoneReported),
		Smoking:       textOr(values, "smoking", NotSpecified),
		Alcohol:       textOr(values, "alcohol", NotSpecified),
		Exercise:      textOr(values, "exercise", NotSpecified),
		Diet:          textOr(values, "diet", NoneReported),
		Sleep:         textOr(values, "sleep", NotSpecified),
		Stress:        textOr(values, "stress", NotSpecified),
		FamilyHistory: textOr(values, "family_history", NoneReported),
		Accidents:     textOr(values, "accidents", NoneReported),
		Symptoms:      textOr(values, "symptoms", NoneReported),
	}

	p.HeightCm = parseFloat(first(values, "height_cm"))
	p.WeightKg = parseFloat(first(values, "weight_kg"))
	p.BMI = computeBMI(p.HeightCm, p.WeightKg)

	return p
}

// HeightLabel returns the height as a display string with its unit, or the
// sentinel when it was not provided.
func (p PatientProfile) HeightLabel() string {
	if p.HeightCm <= 0 {
		return NotSpecified
	}
	return fmt.Sprintf("%g cm", p.HeightCm)
}

// WeightLabel returns the weight as a display string with its unit, or the
// sentinel when it was not provided.
func (p PatientProfile) WeightLabel() string {
	if p.WeightKg <= 0 {
		return NotSpecified
	}
	return fmt.Sprintf("%g kg", p.WeightKg)
}

// AgeLabel returns the age as a display string, or the sentinel when it was
// not provided.
func (p PatientProfile) AgeLabel() string {
	if p.Age <= 0 {
		return NotSpecified
	}
	return strconv.Itoa(p.Age)
}

// Fields returns every profile attribute as ordered label/value pairs for
// table rendering and prompt interpolation.
func (p PatientProfile) Fields() []Field {
	return []Field{
		{"Age", p.AgeLabel()},
		{"Gender", string(p.Gender)},
		{"Height", p.HeightLabel()},
		{"Weight", p.WeightLabel()},
		{"BMI", p.BMI},
		{"Previous Medical Conditions", p.Conditions},
		{"Current Medications", p.Medications},
		{"Allergies", p.Allergies},
		{"Smoking Status", p.Smoking},
		{"Alcohol Consumption", p.Alcohol},
		{"Exercise Frequency", p.Exercise},
		{"Diet", p.Diet},
		{"Sleep Quality", p.Sleep},
		{"Stress Level", p.Stress},
		{"Family Medical History", p.FamilyHistory},
		{"Recent Accidents/Injuries", p.Accidents},
		{"Current Symptoms", p.Symptoms},
	}
}

func first(values map[string][]string, key string) string {
	if vs, ok := values[key]; ok && len(vs) > 0 {
		return strings.TrimSpace(vs[0])
	}
	return ""
}

// textOr joins all submitted values for key (multi-select fields arrive as
// repeated form values) or returns the given sentinel.
func textOr(values map[string][]string, key, sentinel string) string {
	parts := make([]string, 0, len(values[key]))
	for _, v := range values[key] {
		v = strings.TrimSpace(v)
		if v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return sentinel
	}
	return strings.Join(parts, ", ")
}

func parseAge(raw string) int {
	age, err := strconv.Atoi(raw)
	if err != nil || age < 1 || age > 119 {
		return 0
	}
	return age
}

func parseGender(raw string) Gender {
	switch strings.ToLower(raw) {
	case "male", "m":
		return GenderMale
	case "female", "f":
		return GenderFemale
	case "other":
		return GenderOther
	}
	return Gender(NotSpecified)
}

func parseFloat(raw string) float64 {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 {
		return 0
	}
	return f
}

// computeBMI derives body mass index from height in centimeters and weight
// in kilograms. Missing inputs, zero height and physically implausible
// results all yield the sentinel instead of an error.
func computeBMI(heightCm, weightKg float64) string {
	if heightCm <= 0 || weightKg <= 0 {
		return NotSpecified
	}
	m := heightCm / 100
	bmi := weightKg / (m * m)
	if bmi < 5 || bmi > 100 {
		return NotSpecified
	}
	return fmt.Sprintf("%.1f", bmi)
}
