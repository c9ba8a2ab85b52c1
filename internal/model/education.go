package model

// Education is an ordinal scale of education requirements. Higher values mean
// a stricter requirement.
type Education int

const (
	EducationNone Education = iota
	EducationHighSchool
	EducationAssociate
	EducationBachelor
	EducationMaster
	EducationDoctorate
)

// educationLevels maps the requirement strings the platforms use to ordinals.
var educationLevels = map[string]Education{
	"不限": EducationNone,
	"高中": EducationHighSchool,
	"中专": EducationHighSchool,
	"大专": EducationAssociate,
	"本科": EducationBachelor,
	"硕士": EducationMaster,
	"博士": EducationDoctorate,
}

// ParseEducation converts a raw requirement string to an ordinal. An empty
// string means the posting states no requirement; any other unknown string
// maps to bachelor by convention.
func ParseEducation(s string) Education {
	if s == "" {
		return EducationNone
	}
	if lvl, ok := educationLevels[s]; ok {
		return lvl
	}
	return EducationBachelor
}

func (e Education) String() string {
	switch e {
	case EducationNone:
		return "不限"
	case EducationHighSchool:
		return "高中"
	case EducationAssociate:
		return "大专"
	case EducationBachelor:
		return "本科"
	case EducationMaster:
		return "硕士"
	case EducationDoctorate:
		return "博士"
	}
	return "本科"
}
