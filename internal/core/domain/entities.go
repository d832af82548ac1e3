package domain

// Role represents user role in the system
type Role string

const (
	RoleCitizen  Role = "CITIZEN"
	RoleReviewer Role = "REVIEWER"
	RoleAdmin    Role = "ADMIN"
)

// Regions is the fixed set of administrative regions an applicant may declare
var Regions = []string{
	"Awdal", "Woqooyi Galbeed", "Togdheer", "Sool", "Sanaag", "Marodijeh",
	"Bari", "Nugaal", "Mudug", "Galguduud", "Hiiraan", "Shabeellaha Dhexe",
	"Banaadir", "Shabeellaha Hoose", "Bay", "Bakool", "Gedo", "Jubbada Hoose", "Jubbada Dhexe",
}

// MedicalReasonOther is the sentinel reason that requires a free-text elaboration
const MedicalReasonOther = "Other"

// MedicalReasons is the fixed classification set for referral requests
var MedicalReasons = []string{
	"Cancer (Oncology)",
	"Cardiac Diseases",
	"Kidney Diseases",
	"Neurological & Neurosurgical Conditions",
	"Orthopedic & Trauma Surgery",
	"Pediatric Specialized Care",
	"Advanced Diagnostic Services",
	"Infertility & Reproductive Health",
	"Ophthalmology (Advanced Eye Care)",
	"Burns & Plastic / Reconstructive Surgery",
	MedicalReasonOther,
}

// DefaultJustification is used when the applicant leaves the free-text reason blank
const DefaultJustification = "Service application request"

// ValidRegion reports whether the region is in the fixed enumerated set
func ValidRegion(region string) bool {
	for _, r := range Regions {
		if r == region {
			return true
		}
	}
	return false
}

// ValidMedicalReason reports whether the reason is in the fixed enumerated set
func ValidMedicalReason(reason string) bool {
	for _, r := range MedicalReasons {
		if r == reason {
			return true
		}
	}
	return false
}
