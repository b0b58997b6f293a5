package maintenance

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"civic/sdk/models"
	civicService "civic/sdk/services/civic"
)

type (
	MaintenanceService struct {
		Initialized bool
		Client      *civicService.Client
		Config      *models.Config
	}
)

func NewMaintenanceService(client *civicService.Client, cfg *models.Config) *MaintenanceService {
	ms := &MaintenanceService{
		Initialized: false,
		Client:      client,
		Config:      cfg,
	}

	ms.Init()

	return ms
}

func (ms *MaintenanceService) Init() {
	// initialization if necessary
	if !ms.Initialized {
		// - spin up a go routine that periodically checks whether the
		//   cached knowledgebase content has gone stale and refreshes
		//   it, persisting a fresh snapshot afterwards ; the
		//   synchronous client never depends on this running
		go func() {
			// setup cron job
			s := gocron.NewScheduler(time.UTC)

			s.Every(ms.Config.Watch.IntervalHours).Hours().Do(func() {
				ms.RunOnce()
			})

			// starts the scheduler in blocking mode, which blocks
			// the current execution path
			s.StartBlocking()
		}()

		ms.Initialized = true
		fmt.Println("Maintenance Service Initialized ..")
	}
}

// RunOnce performs a single staleness check. Exposed separately so
// the command line can force a pass without waiting for the
// scheduler.
func (ms *MaintenanceService) RunOnce() {
	maxAge := time.Duration(ms.Config.Cache.TimeoutDays) * 24 * time.Hour
	if !ms.Client.Store.IsStale(maxAge) {
		fmt.Printf("[%s] - Cache still fresh, skipping refresh..\n", time.Now())
		return
	}

	fmt.Printf("[%s] - Cache stale, running scheduled refresh..\n", time.Now())
	if err := ms.Client.UpdateCache("scheduled"); err != nil {
		fmt.Printf("[%s] - Scheduled refresh failed : %v..\n", time.Now(), err)
	}
}
