package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"

	"civic/sdk/exports/gks"
	"civic/sdk/exports/vcf"
	"civic/sdk/models"
	civicService "civic/sdk/services/civic"
	"civic/sdk/services/maintenance"
)

func main() {
	// Gather environment variables
	var cfg models.Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	fmt.Printf("Using : \n"+

		"\tDebug : %t \n\n"+

		"\tKnowledgebase API Url : %s \n"+
		"\tKnowledgebase Links Url : %s \n"+
		"\tPage Size : %d\n"+
		"\tMax Batch Size : %d\n"+
		"\tMax Retries : %d\n"+
		"\tRequest Timeout (seconds) : %d\n\n"+

		"\tCache Snapshot Path : %s\n"+
		"\tRemote Cache Url : %s\n"+
		"\tCache Timeout (days) : %d\n\n"+

		"\tWatch Interval (hours) : %d\n\n",

		cfg.Debug,
		cfg.Api.Url,
		cfg.Api.LinksUrl,
		cfg.Api.PageSize,
		cfg.Api.MaxBatchSize,
		cfg.Api.MaxRetries,
		cfg.Api.TimeoutSeconds,
		cfg.Cache.Path, cfg.Cache.RemoteUrl,
		cfg.Cache.TimeoutDays,
		cfg.Watch.IntervalHours)
	// --

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	client := civicService.NewClient(&cfg)

	switch os.Args[1] {
	case "update":
		runUpdate(client, os.Args[2:])
	case "create-vcf":
		runCreateVcf(client, &cfg, os.Args[2:])
	case "create-gks-json":
		runCreateGksJson(client, os.Args[2:])
	case "watch":
		runWatch(client, &cfg)
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage: civic-sdk <update|create-vcf|create-gks-json|watch> [flags]")
}

// runUpdate refreshes the local cache. A soft update downloads the
// prebuilt daily snapshot ; a hard update sweeps the knowledgebase
// API directly.
func runUpdate(client *civicService.Client, args []string) {
	flags := flag.NewFlagSet("update", flag.ExitOnError)
	soft := flags.Bool("soft", false, "prefer the prebuilt remote snapshot over a full API sweep")
	hard := flags.Bool("hard", false, "force a full API sweep")
	flags.Parse(args)

	var err error
	if *soft && !*hard {
		err = client.SoftUpdateCache()
	} else {
		err = client.UpdateCache("manual")
	}
	if err != nil {
		fmt.Printf("Cache update failed : %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Cache updated, %d records\n", client.Store.Len())
}

func runCreateVcf(client *civicService.Client, cfg *models.Config, args []string) {
	flags := flag.NewFlagSet("create-vcf", flag.ExitOnError)
	outPath := flags.String("out", "civic.vcf", "output file path")
	flags.Parse(args)

	bundles, err := client.AnnotatedVariantsForVcf()
	if err != nil {
		fmt.Printf("Could not resolve variants : %v\n", err)
		os.Exit(1)
	}

	out, err := os.Create(*outPath)
	if err != nil {
		fmt.Printf("Could not create %s : %v\n", *outPath, err)
		os.Exit(1)
	}
	defer out.Close()

	writer := vcf.NewWriter(cfg.Api.LinksUrl)
	summary, err := writer.Write(out, bundles)
	if err != nil {
		fmt.Printf("VCF export failed : %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %d variants to %s (%d skipped)\n", summary.Written, *outPath, len(summary.Skipped))
	for id, reason := range summary.Skipped {
		fmt.Printf("\tskipped variant %d : %s\n", id, reason)
	}
}

func runCreateGksJson(client *civicService.Client, args []string) {
	flags := flag.NewFlagSet("create-gks-json", flag.ExitOnError)
	organizationId := flags.Int("organization-id", 0, "organization whose approved assertions to export")
	outPath := flags.String("out", "civic-gks.json", "output file path")
	flags.Parse(args)

	if *organizationId == 0 {
		fmt.Println("create-gks-json requires --organization-id")
		os.Exit(2)
	}

	bundles, err := client.AnnotatedAssertionsForClinvar(*organizationId)
	if err != nil {
		fmt.Printf("Could not resolve assertions for organization %d : %v\n", *organizationId, err)
		os.Exit(1)
	}
	if len(bundles) == 0 {
		fmt.Printf("No assertions ready for ClinVar submission found for organization %d\n", *organizationId)
		return
	}

	out, err := os.Create(*outPath)
	if err != nil {
		fmt.Printf("Could not create %s : %v\n", *outPath, err)
		os.Exit(1)
	}
	defer out.Close()

	exportErrors, err := gks.NewWriter().Write(out, bundles)
	if err != nil {
		fmt.Printf("GKS export failed : %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %d statements to %s (%d errors)\n", len(bundles)-len(exportErrors), *outPath, len(exportErrors))
	for _, exportError := range exportErrors {
		fmt.Printf("\tassertion %d : %s\n", exportError.AssertionId, exportError.Message)
	}
}

// runWatch keeps the process alive while the maintenance scheduler
// refreshes the cache at the configured cadence.
func runWatch(client *civicService.Client, cfg *models.Config) {
	maintenanceService := maintenance.NewMaintenanceService(client, cfg)
	maintenanceService.RunOnce()

	// the scheduler runs in its own goroutine ; block forever
	select {}
}
