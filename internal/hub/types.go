package hub

import "time"

// Stats is the stat block the HUB tracks for a Regenmon.
type Stats struct {
	Happiness int `json:"happiness"`
	Energy    int `json:"energy"`
	Hunger    int `json:"hunger"`
}

type RegisterRequest struct {
	Name       string `json:"name"`
	OwnerName  string `json:"ownerName"`
	OwnerEmail string `json:"ownerEmail,omitempty"`
	AppURL     string `json:"appUrl"`
	Sprite     string `json:"sprite"`
}

type Registered struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	AppURL  string `json:"appUrl"`
	Balance int    `json:"balance"`
}

type RegisterResponse struct {
	Success           bool       `json:"success"`
	AlreadyRegistered bool       `json:"alreadyRegistered"`
	Data              Registered `json:"data"`
}

// TrainingRecord is one training entry as the HUB expects it.
type TrainingRecord struct {
	Score     int    `json:"score"`
	Category  string `json:"category"`
	Points    int    `json:"points"`
	Timestamp int64  `json:"timestamp"`
}

type SyncRequest struct {
	RegenmonID      string           `json:"regenmonId"`
	Stats           Stats            `json:"stats"`
	TotalPoints     int              `json:"totalPoints"`
	TrainingHistory []TrainingRecord `json:"trainingHistory"`
}

type SyncResult struct {
	Balance      *int `json:"balance"`
	TokensEarned int  `json:"tokensEarned"`
	TotalPoints  int  `json:"totalPoints"`
}

type syncResponse struct {
	Data SyncResult `json:"data"`
}

type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	ID          string `json:"id"`
	Name        string `json:"name"`
	OwnerName   string `json:"ownerName"`
	Sprite      string `json:"sprite"`
	Stage       int    `json:"stage"`
	TotalPoints int    `json:"totalPoints"`
	Balance     int    `json:"balance"`
}

type Pagination struct {
	Page       int `json:"page"`
	TotalPages int `json:"totalPages"`
	Total      int `json:"total"`
}

type Leaderboard struct {
	Data       []LeaderboardEntry `json:"data"`
	Pagination Pagination         `json:"pagination"`
}

type Profile struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	OwnerName    string    `json:"ownerName"`
	Sprite       string    `json:"sprite"`
	Stage        int       `json:"stage"`
	Stats        Stats     `json:"stats"`
	TotalPoints  int       `json:"totalPoints"`
	Balance      int       `json:"balance"`
	TotalVisits  int       `json:"totalVisits"`
	RegisteredAt time.Time `json:"registeredAt"`
}

type profileResponse struct {
	Data Profile `json:"data"`
}

type FeedResult struct {
	SenderBalance *int   `json:"senderBalance"`
	TargetName    string `json:"targetName"`
	Cost          int    `json:"cost"`
}

type feedResponse struct {
	Data FeedResult `json:"data"`
}

type GiftResult struct {
	SenderBalance *int   `json:"senderBalance"`
	TargetName    string `json:"targetName"`
	Amount        int    `json:"amount"`
}

type giftResponse struct {
	Data GiftResult `json:"data"`
}

type Message struct {
	ID        string    `json:"id"`
	FromName  string    `json:"fromName"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

type messagesResponse struct {
	Data struct {
		Messages []Message `json:"messages"`
	} `json:"data"`
}

type sendMessageRequest struct {
	FromRegenmonID string `json:"fromRegenmonId"`
	FromName       string `json:"fromName"`
	Message        string `json:"message"`
}

type Activity struct {
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Amount      *int      `json:"amount,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type activityResponse struct {
	Data struct {
		Activity []Activity `json:"activity"`
	} `json:"data"`
}
