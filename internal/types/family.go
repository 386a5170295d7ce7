package types

// Family describes one directory resource family. The listing and
// category modules are generic; every family is pure configuration,
// so adding one is a registry entry plus nothing else.
type Family struct {
	// Slug keys rows in the categories/listings tables.
	Slug string
	// Display is used in response messages ("Ambulance not found").
	Display string
	// ListingPath and CategoryPath are the public route prefixes.
	// They mirror the legacy API, inconsistent casing included, so
	// existing clients keep working.
	ListingPath  string
	CategoryPath string
	// CategoryDefaultActive is the per-family default applied when a
	// category is created without an explicit isActive. The legacy
	// families disagree on it; do not unify without product sign-off.
	CategoryDefaultActive bool
}

// FamilyJob and FamilyCourse are the slugs of the two category
// families whose parent entities live outside the listings table.
// Their categories share the generic category module but count
// dependents in the jobs and courses tables respectively.
const (
	FamilyJob    = "job"
	FamilyCourse = "course"
)

var families = []Family{
	{Slug: "ambulance", Display: "Ambulance", ListingPath: "/api/v1/ambulance", CategoryPath: "/api/v1/ambulance-categories", CategoryDefaultActive: false},
	{Slug: "blood-bank", Display: "Blood bank", ListingPath: "/api/v1/blood-banks", CategoryPath: "/api/v1/bloodBank-categories", CategoryDefaultActive: true},
	{Slug: "diagnostic-lab", Display: "Diagnostic lab", ListingPath: "/api/v1/diagnostic-lab", CategoryPath: "/api/v1/diagnosticLab-categories", CategoryDefaultActive: true},
	{Slug: "dietitian", Display: "Dietitian", ListingPath: "/api/v1/dietitians", CategoryPath: "/api/v1/dietitian-categories", CategoryDefaultActive: false},
	{Slug: "physiotherapist", Display: "Physiotherapist", ListingPath: "/api/v1/physiotherapist", CategoryPath: "/api/v1/physiotherapist-categories", CategoryDefaultActive: true},
	{Slug: "medicine-shop", Display: "Medicine shop", ListingPath: "/api/v1/medicine-shops", CategoryPath: "/api/v1/medicineshop-categories", CategoryDefaultActive: true},
	{Slug: "elder-care-org", Display: "Elder care organization", ListingPath: "/api/v1/elderCare-org", CategoryPath: "/api/v1/elderCareOrg-categories", CategoryDefaultActive: true},
	{Slug: "aya-service", Display: "Aya service", ListingPath: "/api/v1/aya-service", CategoryPath: "/api/v1/aya-categories", CategoryDefaultActive: true},
	{Slug: "healthcare-center", Display: "Healthcare center", ListingPath: "/api/v1/healthcare-centers", CategoryPath: "/api/v1/health-categories", CategoryDefaultActive: false},
	{Slug: "doctor", Display: "Doctor", ListingPath: "/api/v1/doctors", CategoryPath: "/api/v1/doctor-categories", CategoryDefaultActive: false},
}

// JobCategoryFamily is the registry entry for job categories; jobs
// themselves are served by the dedicated job module.
var JobCategoryFamily = Family{
	Slug:                  FamilyJob,
	Display:               "Job",
	CategoryPath:          "/api/v1/job-categories",
	CategoryDefaultActive: false,
}

// CourseCategoryFamily is the registry entry for course categories;
// courses themselves are served by the dedicated course module.
var CourseCategoryFamily = Family{
	Slug:                  FamilyCourse,
	Display:               "Course",
	CategoryPath:          "/api/v1/course-categories",
	CategoryDefaultActive: false,
}

// Families returns the directory families in registration order.
func Families() []Family {
	out := make([]Family, len(families))
	copy(out, families)
	return out
}

// FamilyBySlug looks up a family, including the job and course
// category families.
func FamilyBySlug(slug string) (Family, bool) {
	switch slug {
	case FamilyJob:
		return JobCategoryFamily, true
	case FamilyCourse:
		return CourseCategoryFamily, true
	}
	for _, f := range families {
		if f.Slug == slug {
			return f, true
		}
	}
	return Family{}, false
}
