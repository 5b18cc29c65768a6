package cvtext

import "strings"

// Static taxonomy tables. Loaded once, never mutated at runtime.

// stopwords is a bilingual FR/EN list applied after accent stripping.
var stopwords = map[string]struct{}{}

var stopwordList = []string{
	// French
	"le", "la", "les", "de", "des", "du", "un", "une", "et", "ou", "en",
	"pour", "avec", "sur", "dans", "par", "au", "aux", "chez", "pas",
	"que", "qui", "est", "sont", "plus", "cette", "ces", "ses", "son",
	"mon", "mes", "notre", "nos", "leur", "leurs", "tout", "tous",
	"toute", "toutes", "aussi", "ainsi", "comme", "mais", "donc", "car",
	"etc", "ans", "annee", "annees", "mois", "jour", "jours",
	// English
	"the", "a", "an", "of", "for", "to", "and", "or", "from", "on", "at",
	// placeholder extractions
	"string",
}

func init() {
	for _, w := range stopwordList {
		stopwords[w] = struct{}{}
	}
}

// placeholderValues are junk preference inputs some clients send.
var placeholderValues = map[string]struct{}{
	"string": {},
	"-":      {},
	"--":     {},
	"n/a":    {},
	"na":     {},
}

// techSkills is a flat skills dictionary for the French job market,
// grouped here only for maintenance; matching uses the whole set.
var techSkills = []string{
	// Languages
	"python", "java", "javascript", "typescript", "php", "ruby", "golang",
	"go", "rust", "scala", "kotlin", "swift", "c++", "c#", "sql", "nosql",
	"matlab", "bash", "shell", "powershell",
	// Web frameworks
	"react", "reactjs", "angular", "vue", "vuejs", "nextjs", "nuxt",
	"svelte", "django", "flask", "fastapi", "express", "nestjs", "spring",
	"springboot", "laravel", "symfony", "rails", "dotnet", ".net",
	// Data / ML
	"tensorflow", "pytorch", "keras", "scikit-learn", "sklearn", "pandas",
	"numpy", "spark", "hadoop", "airflow", "kafka", "databricks",
	"jupyter", "tableau", "powerbi", "power bi", "looker", "metabase",
	// Cloud / DevOps
	"aws", "azure", "gcp", "docker", "kubernetes", "k8s", "terraform",
	"ansible", "jenkins", "gitlab", "github", "ci/cd", "linux", "nginx",
	"redis", "elasticsearch", "mongodb", "postgresql", "mysql", "oracle",
	"prometheus", "grafana",
	// Design
	"figma", "sketch", "photoshop", "illustrator", "indesign", "canva",
	// Communication / media
	"redaction", "journalisme", "communication", "editorial", "presse",
	"audiovisuel", "video", "photographie", "reportage", "interview",
	"podcast", "seo", "copywriting", "storytelling",
	"community management", "reseaux sociaux",
	// Marketing
	"marketing", "crm", "salesforce", "hubspot", "mailchimp", "analytics",
	"e-commerce", "b2b", "b2c", "growth", "acquisition", "kpi",
	// Project management
	"agile", "scrum", "kanban", "jira", "trello", "asana", "notion",
	"confluence", "prince2", "pmp", "lean", "machine learning",
}

// roleHints are job titles scanned for in CV text when the user has not
// set an explicit role preference.
var roleHints = []string{
	// Tech
	"data scientist", "data analyst", "data engineer", "machine learning",
	"ml engineer", "backend", "frontend", "fullstack", "full stack",
	"devops", "software engineer", "web developer", "mobile developer",
	"developpeur", "ingenieur", "architecte", "tech lead",
	// Product & project
	"product manager", "product owner", "project manager",
	"chef de projet", "scrum master",
	// Marketing & communication
	"community manager", "charge de communication", "content manager",
	"responsable marketing", "growth hacker", "redacteur", "journaliste",
	// Business
	"business analyst", "consultant", "commercial", "account manager",
	"charge de clientele",
	// Design
	"ux designer", "ui designer", "product designer", "graphiste",
	"directeur artistique",
}

// contractSynonyms maps a contract-type preference to the terms a listing
// may use for the same thing.
var contractSynonyms = map[string][]string{
	"cdi":        {"cdi", "permanent", "full-time", "full time"},
	"permanent":  {"permanent", "cdi", "full-time", "full time"},
	"cdd":        {"cdd", "fixed-term", "fixed term", "contract"},
	"freelance":  {"freelance", "contractor", "independant", "independent"},
	"stage":      {"stage", "internship", "intern"},
	"alternance": {"alternance", "apprentissage", "apprenticeship"},
	"interim":    {"interim", "temporary", "temp"},
}

// ContractTerms returns the match terms for a contract-type preference,
// falling back to the normalized value itself.
func ContractTerms(contractType string) []string {
	key := StripAccents(strings.ToLower(strings.TrimSpace(contractType)))
	if terms, ok := contractSynonyms[key]; ok {
		return terms
	}
	return []string{key}
}

// IsPlaceholder reports whether a preference value is a known junk input.
func IsPlaceholder(value string) bool {
	_, ok := placeholderValues[strings.ToLower(strings.TrimSpace(value))]
	return ok
}
