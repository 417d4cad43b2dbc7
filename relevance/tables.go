package relevance

import (
	"strings"

	"github.com/giygas/pharmasearch/entities"
)

// Factor weights in percent. They sum to 100.
const (
	drugWeight       = 30
	indicationWeight = 25
	phaseWeight      = 20
	statusWeight     = 15
	sponsorWeight    = 10
)

const neutralScore = 50

// Drug factor scores
const (
	drugExactMatch     = 100
	drugCompetitor     = 70
	drugSameMechanism  = 50
	drugUnrelated      = 20
	indicationExact    = 100
	indicationRelated  = 60
	indicationSameArea = 40
	indicationOther    = 10
)

// Sponsor factor scores
const (
	sponsorUserCompany = 100
	sponsorGovernment  = 95
	sponsorMajorPharma = 80
	sponsorAcademic    = 60
	sponsorOther       = 40
)

// phaseScores is keyed by intent then by canonical phase (see entities.CanonicalPhase).
// The general intent has no preference and always scores neutral.
var phaseScores = map[entities.Intent]map[string]int{
	entities.IntentCompetitiveAnalysis: {
		"PHASE3":      100,
		"PHASE2":      85,
		"PHASE4":      60,
		"PHASE1":      40,
		"EARLYPHASE1": 30,
	},
	entities.IntentDrugDevelopment: {
		"PHASE2":      100,
		"PHASE1":      90,
		"EARLYPHASE1": 85,
		"PHASE3":      80,
		"PHASE4":      40,
	},
	entities.IntentSafetyMonitoring: {
		"PHASE4": 100,
		"PHASE3": 80,
		"PHASE2": 60,
	},
	entities.IntentMarketResearch: {
		"PHASE4": 100,
		"PHASE3": 90,
		"PHASE2": 60,
		"PHASE1": 30,
	},
}

// statusScores is keyed by intent then by canonical overall status.
var statusScores = map[entities.Intent]map[string]int{
	entities.IntentCompetitiveAnalysis: {
		"RECRUITING":              100,
		"ACTIVE_NOT_RECRUITING":   90,
		"NOT_YET_RECRUITING":      80,
		"ENROLLING_BY_INVITATION": 80,
		"COMPLETED":               60,
		"SUSPENDED":               30,
		"TERMINATED":              30,
		"WITHDRAWN":               20,
	},
	entities.IntentDrugDevelopment: {
		"RECRUITING":              100,
		"NOT_YET_RECRUITING":      90,
		"ACTIVE_NOT_RECRUITING":   80,
		"ENROLLING_BY_INVITATION": 80,
		"TERMINATED":              20,
		"WITHDRAWN":               20,
	},
	entities.IntentSafetyMonitoring: {
		"COMPLETED":             100,
		"TERMINATED":            95,
		"SUSPENDED":             90,
		"WITHDRAWN":             70,
		"ACTIVE_NOT_RECRUITING": 60,
		"RECRUITING":            40,
	},
	entities.IntentMarketResearch: {
		"COMPLETED":             90,
		"ACTIVE_NOT_RECRUITING": 80,
		"RECRUITING":            70,
	},
}

// defaultMajorPharma lists normalized sponsor names treated as major pharma.
var defaultMajorPharma = []string{
	"pfizer",
	"novartis",
	"roche",
	"hoffmann_la_roche",
	"genentech",
	"merck",
	"msd",
	"johnson_johnson",
	"janssen",
	"astrazeneca",
	"glaxosmithkline",
	"gsk",
	"sanofi",
	"abbvie",
	"bristol_myers_squibb",
	"eli_lilly",
	"lilly",
	"amgen",
	"gilead",
	"novo_nordisk",
	"bayer",
	"boehringer_ingelheim",
	"takeda",
	"regeneron",
	"biogen",
	"leo_pharma",
}

var governmentKeywords = []string{
	"national_institutes_of_health",
	"nih",
	"national_cancer_institute",
	"nci",
	"national_heart_lung_and_blood_institute",
	"department_of",
	"ministry",
	"veterans_affairs",
	"government",
	"public_health",
	"centers_for_disease_control",
	"cdc",
}

var academicKeywords = []string{
	"university",
	"universite",
	"universitat",
	"college",
	"hospital",
	"institute",
	"medical_center",
	"school_of_medicine",
	"clinic",
	"research_center",
	"academic",
}

// containsTerm reports whether the normalized text contains the normalized
// term as a whole run of words.
func containsTerm(text, term string) bool {
	if text == "" || term == "" {
		return false
	}
	return strings.Contains("_"+text+"_", "_"+term+"_")
}

func containsAny(text string, terms []string) (string, bool) {
	for _, term := range terms {
		if containsTerm(text, term) {
			return term, true
		}
	}
	return "", false
}
