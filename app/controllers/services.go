package controllers

import (
	"sync"

	"github.com/MartinKaiser/FinCal/internal/pkg/calendar"
	"github.com/MartinKaiser/FinCal/internal/pkg/database"
	"github.com/MartinKaiser/FinCal/internal/pkg/notify"
	"github.com/MartinKaiser/FinCal/internal/pkg/scheduler"
)

var (
	calendarSvc     *calendar.Service
	calendarSvcOnce sync.Once

	notifySvc     *notify.Service
	notifySvcOnce sync.Once

	schedulerInstance *scheduler.Scheduler
)

func getCalendarService() *calendar.Service {
	calendarSvcOnce.Do(func() {
		calendarSvc = calendar.NewServiceFromDB(database.GetDB())
	})
	return calendarSvc
}

func getNotifyService() *notify.Service {
	notifySvcOnce.Do(func() {
		notifySvc = notify.NewServiceFromDB(database.GetDB())
	})
	return notifySvc
}

// SetScheduler wires the scheduler created in main into the trigger
// endpoints.
func SetScheduler(s *scheduler.Scheduler) {
	schedulerInstance = s
}
