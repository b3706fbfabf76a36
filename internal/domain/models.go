package domain

import "time"

// Question is one prompt with the answer a player is expected to give.
type Question struct {
	Prompt string `json:"prompt"`
	Answer string `json:"answer"`
}

// Topic is a named quiz category. Topics are immutable once the bank is loaded.
type Topic struct {
	Name      string     `json:"name"`
	Questions []Question `json:"questions"`
}

// LeaderboardEntry is a snapshot-friendly view of one player's record in a topic.
type LeaderboardEntry struct {
	Nickname   string    `json:"nickname"`
	Score      int       `json:"score"`
	Finished   bool      `json:"finished"`
	FinishedAt time.Time `json:"finishedAt,omitempty"`
}

// Leaderboard captures the ranked entries of a topic, leader first.
type Leaderboard struct {
	Topic   string             `json:"topic"`
	Entries []LeaderboardEntry `json:"entries"`
}

// TopicProgress is a player's standing in one topic.
type TopicProgress struct {
	Topic    string `json:"topic"`
	Score    int    `json:"score"`
	Finished bool   `json:"finished"`
}

// OnlinePlayer describes a bound player slot.
type OnlinePlayer struct {
	Nickname    string          `json:"nickname"`
	ActiveTopic string          `json:"activeTopic,omitempty"`
	Progress    []TopicProgress `json:"progress"`
}

// Status is the consistent server view rendered by the status publisher.
type Status struct {
	Topics            []string       `json:"topics"`
	QuestionsPerTopic int            `json:"questionsPerTopic"`
	Players           []OnlinePlayer `json:"players"`
	Leaderboards      []Leaderboard  `json:"leaderboards"`
	UpdatedAt         time.Time      `json:"updatedAt"`
}
