package utils

type Metric struct {
	DatabaseWrite      chan float64
	DiscordSendMessage chan float64
	ReminderSent       chan float64
}

func NewMetric() *Metric {
	return &Metric{
		DatabaseWrite:      make(chan float64),
		DiscordSendMessage: make(chan float64),
		ReminderSent:       make(chan float64),
	}
}
