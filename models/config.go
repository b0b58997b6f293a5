package models

type Config struct {
	Debug bool `envconfig:"CIVIC_DEBUG" default:"false"`

	Api struct {
		Url            string `envconfig:"CIVIC_API_URL" default:"https://civicdb.org/api/graphql"`
		LinksUrl       string `envconfig:"CIVIC_LINKS_URL" default:"https://civicdb.org/links"`
		PageSize       int    `envconfig:"CIVIC_API_PAGE_SIZE" default:"500"`
		MaxBatchSize   int    `envconfig:"CIVIC_API_MAX_BATCH_SIZE" default:"200"`
		MaxRetries     int    `envconfig:"CIVIC_API_MAX_RETRIES" default:"5"`
		TimeoutSeconds int    `envconfig:"CIVIC_API_TIMEOUT_SECONDS" default:"200"`
	}

	Cache struct {
		// where the snapshot lives on disk ; empty means memory-only
		Path        string `envconfig:"CIVIC_CACHE_PATH"`
		RemoteUrl   string `envconfig:"CIVIC_REMOTE_CACHE_URL"`
		TimeoutDays int    `envconfig:"CIVIC_CACHE_TIMEOUT_DAYS" default:"7"`
	}

	Watch struct {
		IntervalHours int `envconfig:"CIVIC_WATCH_INTERVAL_HOURS" default:"24"`
	}
}
