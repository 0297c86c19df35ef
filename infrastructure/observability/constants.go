package observability

// Metric name prefixes
const (
	MetricPrefix = "arcade"
)

// Metric names
const (
	ScoresSubmittedTotal = MetricPrefix + ".scores.submitted"
	AchievementsUnlocked = MetricPrefix + ".achievements.unlocked"
	LevelsGained         = MetricPrefix + ".levels.gained"
	LeaderboardDuration  = MetricPrefix + ".leaderboard.duration"
	HTTPRequestDuration  = MetricPrefix + ".http.request_duration"
)

// Label keys
const (
	LabelGame        = "game"
	LabelAchievement = "achievement"
	LabelRoute       = "route"
	LabelMethod      = "method"
	LabelStatus      = "status"
)
