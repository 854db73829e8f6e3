package websocket

// Типы сообщений
const (
	// LEADERBOARD_UPDATE рассылается после пересчёта лидерборда конкурса
	LEADERBOARD_UPDATE = "LEADERBOARD_UPDATE"

	// LEADERBOARD_SNAPSHOT отправляется клиенту сразу после подключения
	LEADERBOARD_SNAPSHOT = "LEADERBOARD_SNAPSHOT"
)

// Message - конверт сообщения, уходящего клиенту
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// LeaderboardPayload - данные сообщений о лидерборде
type LeaderboardPayload struct {
	ContestID uint        `json:"contest_id"`
	Entries   interface{} `json:"entries"`
}
