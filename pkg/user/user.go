package user

import (
	"time"

	"github.com/spendlog/spendlog/internal/utils"
)

// User is the local profile of an identity-provider account. Uid is the provider's opaque id.
type User struct {
	Id          int
	Uid         string
	Username    string
	DisplayName string
	Settings    Settings
}

type Settings struct {
	Timezone string
	Currency string
	// TelegramChatId links the user to a Telegram chat for reminders, 0 when not linked.
	TelegramChatId int64
	GoogleCalendar GoogleCalendarSettings
}

type GoogleCalendarSettings struct {
	CalendarId string
}

// Location is the timezone all calendar-day comparisons for this user are made in.
func (u User) Location() *time.Location {
	return utils.Location(u.Settings.Timezone)
}

func (u User) CurrencySymbol() string {
	switch u.Settings.Currency {
	case "", "INR":
		return "₹"
	case "USD":
		return "$"
	case "EUR":
		return "€"
	case "GBP":
		return "£"
	}
	return u.Settings.Currency + " "
}
