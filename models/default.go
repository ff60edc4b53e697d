package models

import (
	"bitbucket.org/mmdatafocus/restro_backend/calendar"
)

// cal is the calendar service every date/fiscal-year decision goes through.
// Tests swap it out with SetCalendarService.
var cal calendar.Service = calendar.Default()

func SetCalendarService(s calendar.Service) {
	cal = s
}

func GetCalendarService() calendar.Service {
	return cal
}
