package models

// Court describes the venue the bot takes reservations for.
// Loaded from configs/court.yaml at startup.
type Court struct {
	Name       string  `yaml:"name" json:"name"`
	Address    string  `yaml:"address" json:"address"`
	Latitude   float64 `yaml:"latitude" json:"latitude"`
	Longitude  float64 `yaml:"longitude" json:"longitude"`
	SupportURL string  `yaml:"support_url" json:"support_url"`
}
