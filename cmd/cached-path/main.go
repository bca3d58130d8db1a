package main

import (
	"flag"
	"fmt"
	"os"

	"gitlab.com/bella.network/cachedpath/pkg/buildinfo"
	"gitlab.com/bella.network/cachedpath/pkg/cachedpath"
)

const exitArgError = 2
const exitRunError = 1

func printHelp() {
	fmt.Println("cached-path - resolve local paths and remote URLs to a stable local cache")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  cached-path [options] IDENTIFIER...")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -v, --version               Print version and exit")
	fmt.Println("  -h, --help                  Show this help message and exit")
	fmt.Println("  -c, --config <file>         Path to config file (default: ~/.cached-path.yaml)")
	fmt.Println("      --dir DIR               Cache root directory")
	fmt.Println("      --connect-timeout SECS  Connect-phase timeout")
	fmt.Println("      --max-retries N         Retry ceiling for transient HTTP failures")
	fmt.Println("      --max-backoff SECS      Upper bound on exponential backoff")
	fmt.Println("      --freshness-lifetime SECS  Trust a cached entry this long without a probe")
	fmt.Println("      --offline               Never contact the network; serve only from cache")
	fmt.Println("      --extract               Extract downloaded archives and print the directory")
	fmt.Println("      --subdir SUBDIR         Resolve entries under dir/SUBDIR")
	fmt.Println("      --debug                 Verbose logging")
}

func defaultConfigPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home + "/.cached-path.yaml"
	}
	return ".cached-path.yaml"
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("cached-path", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	showVersion := fs.Bool("version", false, "Print version and exit")
	fs.BoolVar(showVersion, "v", false, "Print version and exit")
	showHelp := fs.Bool("help", false, "Show help and exit")
	fs.BoolVar(showHelp, "h", false, "Show help and exit")
	configPath := fs.String("config", "", "Path to config file")
	fs.StringVar(configPath, "c", "", "Path to config file")

	dir := fs.String("dir", "", "Cache root directory")
	connectTimeout := fs.Int("connect-timeout", -1, "Connect-phase timeout in seconds")
	maxRetries := fs.Int("max-retries", -1, "Retry ceiling for transient HTTP failures")
	maxBackoff := fs.Int("max-backoff", -1, "Upper bound on exponential backoff in seconds")
	freshnessLifetime := fs.Int("freshness-lifetime", -1, "Freshness lifetime in seconds")
	offline := fs.Bool("offline", false, "Never contact the network")
	extract := fs.Bool("extract", false, "Extract downloaded archives")
	subdir := fs.String("subdir", "", "Resolve entries under dir/SUBDIR")
	debug := fs.Bool("debug", false, "Verbose logging")

	if err := fs.Parse(args); err != nil {
		return exitArgError
	}

	if *showHelp {
		printHelp()
		return 0
	}
	if *showVersion {
		fmt.Printf("cached-path version %s, commit %s, built at %s\n",
			buildinfo.Version, buildinfo.Commit, buildinfo.Date)
		return 0
	}

	identifiers := fs.Args()
	if len(identifiers) == 0 {
		fmt.Fprintln(os.Stderr, "cached-path: at least one IDENTIFIER is required")
		printHelp()
		return exitArgError
	}

	if *configPath == "" {
		if env := os.Getenv("CACHED_PATH_CONFIG"); env != "" {
			*configPath = env
		} else {
			*configPath = defaultConfigPath()
		}
	}

	config, err := ReadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cached-path: reading config: %v\n", err)
		return exitRunError
	}

	if *dir != "" {
		config.Dir = *dir
	}
	if *connectTimeout >= 0 {
		config.ConnectTimeout = *connectTimeout
	}
	if *maxRetries >= 0 {
		config.MaxRetries = *maxRetries
	}
	if *maxBackoff >= 0 {
		config.MaxBackoff = *maxBackoff
	}
	if *freshnessLifetime >= 0 {
		config.FreshnessLifetime = *freshnessLifetime
	}
	if *offline {
		config.Offline = true
	}

	logger, sync, err := newZapLogger(*debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cached-path: initializing logger: %v\n", err)
		return exitRunError
	}
	defer sync()

	builder := cachedpath.NewBuilder().
		ConnectTimeout(config.connectTimeoutDuration()).
		MaxRetries(config.MaxRetries).
		MaxBackoff(config.maxBackoffDuration()).
		FreshnessLifetime(config.freshnessLifetimeDuration()).
		Offline(config.Offline).
		Logger(logger)
	if config.Dir != "" {
		builder = builder.Dir(config.Dir)
	}

	cache, err := builder.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cached-path: %v\n", err)
		return exitRunError
	}

	opts := cachedpath.Options{Subdir: *subdir, ExtractArchive: *extract}

	exitCode := 0
	for _, identifier := range identifiers {
		path, err := resolveOne(cache, identifier, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "cached-path: %s: %v\n", identifier, err)
			exitCode = exitRunError
			continue
		}
		fmt.Println(path)
	}

	return exitCode
}

func resolveOne(cache *cachedpath.Cache, identifier string, opts cachedpath.Options) (string, error) {
	sink := newProgressSink(identifier)
	scoped := cache.WithProgressSink(sink)
	return scoped.CachedPathWithOptions(identifier, opts)
}
