package model

import "time"

type User struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Timezone    string    `json:"timezone"`
	CountryCode string    `json:"country_code"`
	// MealTimes holds profile-level custom meal start times ("HH:MM" per
	// meal type). Plan-level times take precedence over these.
	MealTimes map[string]string `json:"meal_times,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}
