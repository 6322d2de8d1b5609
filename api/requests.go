package api

type signUpRequest struct {
	UserID string `json:"user_id" validate:"required,max=128"`
	Email  string `json:"email" validate:"omitempty,email"`
}

type displayNameRequest struct {
	DisplayName string `json:"display_name" validate:"required"`
}

type placeBetRequest struct {
	GameID int64  `json:"game_id" validate:"required,gt=0"`
	Team   string `json:"team" validate:"required,max=8"`
	Amount int64  `json:"amount" validate:"required,gt=0"`
}

type parlayLegRequest struct {
	GameID int64  `json:"game_id" validate:"required,gt=0"`
	Team   string `json:"team" validate:"required,max=8"`
}

type placeParlayRequest struct {
	Legs  []parlayLegRequest `json:"legs" validate:"required,min=2,max=10,dive"`
	Stake int64              `json:"stake" validate:"required,gt=0"`
}

type predictionRequest struct {
	GameID    int64 `json:"game_id" validate:"required,gt=0"`
	HomeScore *int  `json:"home_score" validate:"required,gte=0,lte=99"`
	AwayScore *int  `json:"away_score" validate:"required,gte=0,lte=99"`
	Stake     int64 `json:"stake" validate:"gte=0"`
}

type editPredictionRequest struct {
	HomeScore *int `json:"home_score" validate:"required,gte=0,lte=99"`
	AwayScore *int `json:"away_score" validate:"required,gte=0,lte=99"`
}
