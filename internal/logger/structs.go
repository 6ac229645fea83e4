package logger

// Console configures logging to stdout and stderr.
type Console struct {
	Enabled bool
	// UseConsoleWriter prints human readable lines instead of JSON.
	UseConsoleWriter bool
}

// RollingFile configures one lumberjack rotated log file.
type RollingFile struct {
	Name       string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

// LogFile configures file based logging, one file per level group.
type LogFile struct {
	Enabled bool
	Path    string

	Access RollingFile
	Error  RollingFile
	Info   RollingFile
	Trace  RollingFile
	Warn   RollingFile
}

// Log is the logger configuration.
type Log struct {
	LogLevel string // trace, debug, info, warn, error
	LogEnv   string

	// EnableAccessLogToConsole writes the HTTP access log to stdout.
	// It has no effect while Console.Enabled is false.
	EnableAccessLogToConsole bool
	ReportCaller             bool
	DisableCheckAlive        bool // do not log /checkalive calls

	AppName     string
	ServiceName string

	Console Console
	File    LogFile
}
