package types

// ThreatLevel defines the severity of a classified log entry
type ThreatLevel string

const (
	ThreatLow      ThreatLevel = "LOW"
	ThreatMedium   ThreatLevel = "MEDIUM"
	ThreatHigh     ThreatLevel = "HIGH"
	ThreatCritical ThreatLevel = "CRITICAL"
)

// severityRank orders levels for precedence comparisons (CRITICAL wins)
var severityRank = map[ThreatLevel]int{
	ThreatLow:      1,
	ThreatMedium:   2,
	ThreatHigh:     3,
	ThreatCritical: 4,
}

// Rank returns the ordinal of the level; unknown levels rank below LOW.
func (t ThreatLevel) Rank() int {
	return severityRank[t]
}

// Valid reports whether the level is one of the four known buckets.
func (t ThreatLevel) Valid() bool {
	_, ok := severityRank[t]
	return ok
}

// AttackVector labels the scenario the generator simulates
type AttackVector string

const (
	VectorReconnaissance    AttackVector = "Reconnaissance"
	VectorExploitation      AttackVector = "Exploitation"
	VectorExfiltration      AttackVector = "Exfiltration"
	VectorSocialEngineering AttackVector = "Social Engineering"
	VectorRedScanPhase1     AttackVector = "RedScan_Protocol_Phase1"
)

// KnownVectors is the closed enumeration the procedural generator supports.
var KnownVectors = []AttackVector{
	VectorReconnaissance,
	VectorExploitation,
	VectorExfiltration,
	VectorSocialEngineering,
	VectorRedScanPhase1,
}

// ThreatAnalysis is the structured verdict produced by a classifier.
// Immutable once created.
type ThreatAnalysis struct {
	IsAgenticThreat   bool        `json:"isAgenticThreat"`
	ThreatLevel       ThreatLevel `json:"threatLevel"`
	ConfidenceScore   int         `json:"confidenceScore"` // 0 to 100
	DetectedPatterns  []string    `json:"detectedPatterns"`
	Explanation       string      `json:"explanation"`
	RecommendedAction string      `json:"recommendedAction"`
	Source            string      `json:"source,omitempty"`
	Activity          string      `json:"activity,omitempty"`
}

// LogEntry is one classified event in the active session
type LogEntry struct {
	ID          string         `json:"id"`
	Timestamp   string         `json:"timestamp"` // RFC3339
	Source      string         `json:"source"`
	Activity    string         `json:"activity"`
	ThreatLevel ThreatLevel    `json:"threatLevel"`
	Details     ThreatAnalysis `json:"details"`
}

// SavedSession is a named snapshot of a log list
type SavedSession struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Date        string      `json:"date"`
	Description string      `json:"description"`
	LogCount    int         `json:"logCount"`
	MaxSeverity ThreatLevel `json:"maxSeverity"`
	Logs        []LogEntry  `json:"logs"`
}

// DashboardStats summarizes the active feed for the console
type DashboardStats struct {
	TotalScans     int     `json:"totalScans"`
	ThreatsBlocked int     `json:"threatsBlocked"`
	HighSevThreats int     `json:"highSevThreats"`
	AvgConfidence  float64 `json:"avgConfidence"`
}

// Config represents the application configuration
type Config struct {
	Generator struct {
		APIURL    string `yaml:"api_url"`     // hosted messages API endpoint
		APIKeyEnv string `yaml:"api_key_env"` // env var holding the credential
		Model     string `yaml:"model"`
	} `yaml:"generator"`

	Classifier struct {
		Mode        string `yaml:"mode"` // "local" or "cloud"
		EmbedURL    string `yaml:"embed_url"`
		EmbedModel  string `yaml:"embed_model"`
		CloudURL    string `yaml:"cloud_url"`
		CloudModel  string `yaml:"cloud_model"`
		CloudKeyEnv string `yaml:"cloud_key_env"`
	} `yaml:"classifier"`

	Session struct {
		DBPath string `yaml:"db_path"`
	} `yaml:"session"`

	Dashboard struct {
		Enabled bool   `yaml:"enabled"`
		Port    string `yaml:"port"`
	} `yaml:"dashboard"`

	Ingest struct {
		ReplayPath string `yaml:"replay_path"` // optional file to tail into the classifier
	} `yaml:"ingest"`

	Notification struct {
		Webhook   string   `yaml:"webhook"`
		Allowlist []string `yaml:"allowlist"` // sources that never trigger alerts
	} `yaml:"notification"`

	Output struct {
		AuditLogPath string `yaml:"audit_log_path"`
	} `yaml:"output"`

	Metrics struct {
		Port string `yaml:"port"`
	} `yaml:"metrics"`
}
