package config

// Backend names accepted by backend.primary.
const (
	BackendInnerTube = "innertube"
	BackendInvidious = "invidious"
)

const (
	defaultDataDir          = "~/.local/share/tubefeed"
	defaultCacheDir         = "~/.cache/tubefeed"
	defaultLogDir           = "~/.local/share/tubefeed/logs"
	defaultLanguage         = "en"
	defaultRegion           = "US"
	defaultFeedConcurrency  = 6
	defaultProbeInterval    = 60
	defaultHistoryRetention = 90
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultAnnotationServer = "https://sponsor.ajay.app"
)

// defaultInstances are public fallback endpoints used when the
// configuration names none.
var defaultInstances = []string{
	"https://inv.nadeko.net",
	"https://invidious.nerdvpn.de",
	"https://yewtu.be",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:  defaultDataDir,
			CacheDir: defaultCacheDir,
			LogDir:   defaultLogDir,
		},
		Backend: Backend{
			Primary:         BackendInnerTube,
			FallbackEnabled: true,
			Language:        defaultLanguage,
			Region:          defaultRegion,
		},
		Instances: Instances{
			URLs: append([]string(nil), defaultInstances...),
		},
		Resolver: Resolver{
			CacheEnabled: true,
		},
		Feed: Feed{
			Concurrency: defaultFeedConcurrency,
		},
		Probe: Probe{
			IntervalSeconds: defaultProbeInterval,
		},
		Retention: Retention{
			HistoryDays: defaultHistoryRetention,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		SponsorBlock: SponsorBlock{
			Enabled: true,
			BaseURL: defaultAnnotationServer,
		},
		DeArrow: DeArrow{
			BaseURL: defaultAnnotationServer,
		},
	}
}
