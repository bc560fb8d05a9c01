// Command sitework-cli is the desktop front-end: it signs in through the
// system browser with a local callback listener, then fetches and exports
// construction issues from the terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/sitework/internal/aps"
	"github.com/ternarybob/sitework/internal/common"
	"github.com/ternarybob/sitework/internal/models"
	"github.com/ternarybob/sitework/internal/services/auth"
	"github.com/ternarybob/sitework/internal/services/export"
	"github.com/ternarybob/sitework/internal/services/issues"
)

var (
	configFile  = flag.String("config", "", "Configuration file path")
	hubID       = flag.String("hub", "", "Hub id (omit to list hubs)")
	projectID   = flag.String("project", "", "Project id (omit to list projects)")
	issueTypeID = flag.String("issue-type", "", "Filter issues by issue type id")
	status      = flag.String("status", "", "Filter issues by status")
	limit       = flag.Int("limit", 0, "Maximum issues to fetch (values above 200 are clamped)")
	format      = flag.String("format", "csv", "Export format: csv, xlsx or pdf")
	outDir      = flag.String("out", ".", "Directory to write the export file into")
	showVersion = flag.Bool("version", false, "Print version information")
)

func main() {
	common.InstallCrashHandler("")
	defer common.RecoverWithCrashFile()

	flag.Parse()

	if *showVersion {
		fmt.Printf("Sitework version %s\n", common.GetVersion())
		os.Exit(0)
	}

	path := *configFile
	if path == "" {
		if _, err := os.Stat("sitework.toml"); err == nil {
			path = "sitework.toml"
		}
	}

	config, err := common.LoadFromFile(path)
	if err != nil {
		arbor.NewLogger().Fatal().Str("path", path).Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}
	if err := config.Validate(); err != nil {
		arbor.NewLogger().Fatal().Err(err).Msg("Invalid configuration")
		os.Exit(1)
	}

	logger := common.InitLogger(config)

	if err := run(config, logger); err != nil {
		logger.Fatal().Err(err).Msg("Fetch failed")
		os.Exit(1)
	}
}

func run(config *common.Config, logger arbor.ILogger) error {
	ctx := context.Background()

	opts := []aps.ClientOption{aps.WithLogger(logger)}
	if config.Auth.BaseURL != "" {
		opts = append(opts, aps.WithBaseURL(config.Auth.BaseURL))
	}
	client := aps.NewClient(opts...)

	flow := auth.NewFlow(client, config.Auth.ClientID, config.Auth.ClientSecret, config.CallbackURL(), logger)
	listener := auth.NewCallbackListener(config.Auth.CallbackPort, config.CallbackTimeout(), logger)

	token, err := flow.Authenticate(ctx, listener, openBrowser)
	if err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}

	session := &models.Session{ID: common.NewSessionID(), Token: token}
	gateway := issues.NewService(client, logger)

	hubs, err := gateway.LoadHubs(ctx, session)
	if err != nil {
		return err
	}
	if *hubID == "" {
		fmt.Println("Hubs:")
		for _, hub := range hubs {
			fmt.Printf("  %s  %s\n", hub.ID, hub.Name)
		}
		fmt.Println("Re-run with -hub <id> to list its projects.")
		return nil
	}

	projects, err := gateway.LoadProjects(ctx, session, *hubID)
	if err != nil {
		return err
	}
	if *projectID == "" {
		fmt.Println("Projects:")
		for _, project := range projects {
			fmt.Printf("  %s  %s\n", project.ID, project.Name)
		}
		fmt.Println("Re-run with -project <id> to fetch its issues.")
		return nil
	}

	projectName := *projectID
	for _, project := range projects {
		if project.ID == *projectID {
			projectName = project.Name
			break
		}
	}

	containerID := gateway.ResolveContainerID(ctx, session, *hubID, *projectID)
	if containerID == "" {
		logger.Warn().Str("project", *projectID).Msg("Issues are not available for this project")
	}

	filter := aps.IssueFilter{
		IssueTypeID: *issueTypeID,
		Status:      *status,
		Limit:       *limit,
	}
	list, err := gateway.Issues(ctx, session, containerID, filter)
	if err != nil {
		return err
	}
	logger.Info().Int("count", len(list)).Msg("Issues fetched")

	exporter := export.NewService(logger)
	exportFormat := export.Format(*format)
	data, err := exporter.Render(exportFormat, list)
	if err != nil {
		return err
	}

	filename := export.Filename(projectName, exportFormat, time.Now())
	target := filepath.Join(*outDir, filename)
	if err := os.WriteFile(target, data, 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}

	fmt.Printf("Wrote %d issues to %s\n", len(list), target)
	return nil
}

// openBrowser launches the system browser for the authorization URL.
func openBrowser(url string) error {
	switch runtime.GOOS {
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	case "darwin":
		return exec.Command("open", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}
