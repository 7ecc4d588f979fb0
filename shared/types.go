package shared

type ServerConfig struct {
	Dispatch DispatchConfig `mapstructure:"dispatch" validate:"required"`
	Database DatabaseConfig `mapstructure:"database"`
	Sqlite   SqliteConfig   `mapstructure:"sqlite"`
	Google   GoogleConfig   `mapstructure:"google"`
}

type DispatchConfig struct {
	Cron     CronConfig     `mapstructure:"cron" validate:"required"`
	Listener ListenerConfig `mapstructure:"listener" validate:"required"`
	Backlog  BacklogConfig  `mapstructure:"backlog"`
}

// DatabaseConfig selects the request store. With the postgres driver an
// empty URL means the in-memory demo store is used instead.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"omitempty,oneof=postgres sqlite"`
	URL    string `mapstructure:"url"`
}

type SqliteConfig struct {
	PassPhrase string `mapstructure:"passPhrase"`
	Dir        string `mapstructure:"dir"`
}

type GoogleConfig struct {
	ApplicationCredentials string        `mapstructure:"applicationCredentials"`
	Storage                StorageConfig `mapstructure:"storage"`
}

type CronConfig struct {
	TimeZone string `mapstructure:"timeZone" validate:"required"`
}

type ListenerConfig struct {
	Port int `mapstructure:"port" validate:"required,min=1,max=65535"`
}

type BacklogConfig struct {
	MaxPendingMinutes int `mapstructure:"maxPendingMinutes" validate:"min=0"`
}

type StorageConfig struct {
	Bucket          string `mapstructure:"bucket" validate:"required_with=EnableArchive"`
	Prefix          string `mapstructure:"prefix"`
	ArchiveSchedule string `mapstructure:"archiveSchedule" validate:"required_with=EnableArchive"`
	EnableArchive   bool   `mapstructure:"enableArchive"`
}
