package api

// Admin route suffixes, mounted under the configured admin prefix.
const (
	AboutRoute       = "about"
	StatsRoute       = "stats"
	RateResetRoute   = "rate/reset"
	ListTasksRoute   = "tasks/"
	TriggerTaskRoute = "tasks/{name}/trigger"
	LogsForTaskRoute = "tasks/{name}/logs"
	ListAuditsRoute  = "audits"
)
