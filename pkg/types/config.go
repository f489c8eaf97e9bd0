package types

// Settings are the user-configured durations that drive time derivation.
type Settings struct {
	ReminderLeadMinutes         int           `yaml:"reminderLeadMinutes" json:"reminderLeadMinutes"`
	HighNotificationLeadMinutes int           `yaml:"highNotificationLeadMinutes" json:"highNotificationLeadMinutes"`
	SnoozeMinutes               int           `yaml:"snoozeMinutes" json:"snoozeMinutes"`
	Timeout                     TimeoutPolicy `yaml:"timeout" json:"timeout"`
	DefaultRingtone             string        `yaml:"defaultRingtone,omitempty" json:"defaultRingtone,omitempty"`
	DefaultLabel                string        `yaml:"defaultLabel,omitempty" json:"defaultLabel,omitempty"`
	Timezone                    string        `yaml:"timezone,omitempty" json:"timezone,omitempty"` // e.g. "Europe/Paris"
}

// Settings defaults.
const (
	DefaultReminderLeadMinutes         = 30
	DefaultHighNotificationLeadMinutes = 5
	DefaultSnoozeMinutes               = 10
	DefaultTimeoutMinutes              = 10
	DefaultLabel                       = "Alarm"
)

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		ReminderLeadMinutes:         DefaultReminderLeadMinutes,
		HighNotificationLeadMinutes: DefaultHighNotificationLeadMinutes,
		SnoozeMinutes:               DefaultSnoozeMinutes,
		Timeout:                     TimeoutPolicy(DefaultTimeoutMinutes),
		DefaultLabel:                DefaultLabel,
	}
}

// EffectiveHighLead clamps the escalation lead so escalation never happens
// before the low-priority reminder.
func (s Settings) EffectiveHighLead() int {
	lead := s.HighNotificationLeadMinutes
	if lead < 0 {
		lead = 0
	}
	if lead > s.ReminderLeadMinutes {
		lead = s.ReminderLeadMinutes
	}
	return lead
}

// SchedulerConfig configures the EventBridge Scheduler wake backend.
type SchedulerConfig struct {
	GroupName string `yaml:"groupName" json:"groupName"`
	TargetARN string `yaml:"targetArn" json:"targetArn"` // SQS wake queue ARN
	RoleARN   string `yaml:"roleArn" json:"roleArn"`
}

// SinkConfig defines one notification sink.
type SinkConfig struct {
	Type      SinkType `yaml:"type" json:"type"`
	QueueURL  string   `yaml:"queueUrl,omitempty" json:"queueUrl,omitempty"`
	BusName   string   `yaml:"busName,omitempty" json:"busName,omitempty"`
	Source    string   `yaml:"source,omitempty" json:"source,omitempty"`
	LogGroup  string   `yaml:"logGroup,omitempty" json:"logGroup,omitempty"`
	LogStream string   `yaml:"logStream,omitempty" json:"logStream,omitempty"`
}

// RingtoneConfig configures ringtone duration lookup.
type RingtoneConfig struct {
	Durations     map[string]string `yaml:"durations,omitempty" json:"durations,omitempty"` // ref -> "2m30s"
	ProbeFunction string            `yaml:"probeFunction,omitempty" json:"probeFunction,omitempty"`
	Breaker       *BreakerConfig    `yaml:"breaker,omitempty" json:"breaker,omitempty"`
}

// BreakerConfig tunes the circuit breaker around remote duration lookups.
type BreakerConfig struct {
	FailThreshold int    `yaml:"failThreshold,omitempty" json:"failThreshold,omitempty"`
	Cooldown      string `yaml:"cooldown,omitempty" json:"cooldown,omitempty"`
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	ServiceName string `yaml:"serviceName,omitempty" json:"serviceName,omitempty"`
	Endpoint    string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"` // OTLP gRPC host:port
	Insecure    bool   `yaml:"insecure,omitempty" json:"insecure,omitempty"`
}

// SweepConfig configures the watchdog recovery sweep.
type SweepConfig struct {
	Concurrency int    `yaml:"concurrency,omitempty" json:"concurrency,omitempty"`
	LockWait    string `yaml:"lockWait,omitempty" json:"lockWait,omitempty"`
	Interval    string `yaml:"interval,omitempty" json:"interval,omitempty"` // daemon only
}

// ServerConfig configures the local HTTP API.
type ServerConfig struct {
	Addr           string   `yaml:"addr,omitempty" json:"addr,omitempty"`
	APIKey         string   `yaml:"apiKey,omitempty" json:"apiKey,omitempty"`
	MaxBodyBytes   int64    `yaml:"maxBodyBytes,omitempty" json:"maxBodyBytes,omitempty"`
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty" json:"allowedOrigins,omitempty"`
}

// ProjectConfig represents the top-level alarmd.yaml configuration.
// Store-specific sections are decoded into their backend Config types by
// the config package.
type ProjectConfig struct {
	Store     StoreType        `yaml:"store"`
	DynamoDB  interface{}      `yaml:"-"`
	Redis     interface{}      `yaml:"-"`
	Settings  Settings         `yaml:"settings"`
	Scheduler *SchedulerConfig `yaml:"scheduler,omitempty"`
	Sinks     []SinkConfig     `yaml:"sinks,omitempty"`
	Ringtone  *RingtoneConfig  `yaml:"ringtone,omitempty"`
	Telemetry *TelemetryConfig `yaml:"telemetry,omitempty"`
	Sweep     *SweepConfig     `yaml:"sweep,omitempty"`
	Server    *ServerConfig    `yaml:"server,omitempty"`
}
