package redis

// Config holds Redis connection settings.
type Config struct {
	Addr      string `yaml:"addr" json:"addr"`
	Password  string `yaml:"password,omitempty" json:"password,omitempty"`
	DB        int    `yaml:"db,omitempty" json:"db,omitempty"`
	KeyPrefix string `yaml:"keyPrefix,omitempty" json:"keyPrefix,omitempty"`
}
