package command

const (
	JSONOutputFlag = "json"
	LogLevelFlag   = "log-level"
	ConfigFlag     = "config"
)
