package releasekit

import (
	_ "embed"
	"strings"
)

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort       = "Atomic releases and rollbacks for static sites"
	MsgPublishShort    = "Publish a build output as a new release"
	MsgActivateShort   = "Make a release live"
	MsgRollbackShort   = "Make an older release live"
	MsgPruneShort      = "Delete releases beyond the retention limit"
	MsgDeployShort     = "Publish, activate and prune in one step"
	MsgListShort       = "List releases, newest first"
	MsgCurrentShort    = "Show the live release"
	MsgShowShort       = "Show a single release"
	MsgVersionShort    = "Print version information"
	MsgCompletionShort = "Generate shell completion script"

	// Status messages
	MsgNoLiveRelease = "No release is live."

	// Error messages
	MsgErrLoadConfig  = "failed to load configuration: %w"
	MsgErrInitPaths   = "failed to initialize paths: %w"
	MsgErrOutput      = "invalid output format: %w"
	MsgErrNoCommand   = "no command specified"

	// Flag descriptions
	MsgFlagVerbose  = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagDryRun   = "Preview changes without executing them"
	MsgFlagConfig   = "Config file (default ./releasekit.toml, then the user config)"
	MsgFlagStore    = "Release store root (default $RELEASEKIT_STORE or the XDG data dir)"
	MsgFlagOutput   = "Output format: text, plain, json or yaml"
	MsgFlagActivate = "Activate the new release after publishing"
	MsgFlagPrune    = "Prune old releases after publishing"
	MsgFlagRetain   = "Number of releases to keep (default retention.keep)"

	// Version output
	MsgVersionFormat = "releasekit version %s\n  commit: %s\n  built:  %s\n"
)

// Long messages from embedded files
var (
	//go:embed msgs/root-long.txt
	msgRootLongRaw string
	MsgRootLong    = strings.TrimSpace(msgRootLongRaw)

	//go:embed msgs/publish-long.txt
	msgPublishLongRaw string
	MsgPublishLong    = strings.TrimSpace(msgPublishLongRaw)

	//go:embed msgs/publish-example.txt
	msgPublishExampleRaw string
	MsgPublishExample    = strings.TrimSpace(msgPublishExampleRaw)

	//go:embed msgs/activate-long.txt
	msgActivateLongRaw string
	MsgActivateLong    = strings.TrimSpace(msgActivateLongRaw)

	//go:embed msgs/rollback-long.txt
	msgRollbackLongRaw string
	MsgRollbackLong    = strings.TrimSpace(msgRollbackLongRaw)

	//go:embed msgs/rollback-example.txt
	msgRollbackExampleRaw string
	MsgRollbackExample    = strings.TrimSpace(msgRollbackExampleRaw)

	//go:embed msgs/prune-long.txt
	msgPruneLongRaw string
	MsgPruneLong    = strings.TrimSpace(msgPruneLongRaw)

	//go:embed msgs/deploy-long.txt
	msgDeployLongRaw string
	MsgDeployLong    = strings.TrimSpace(msgDeployLongRaw)

	//go:embed msgs/deploy-example.txt
	msgDeployExampleRaw string
	MsgDeployExample    = strings.TrimSpace(msgDeployExampleRaw)

	//go:embed msgs/list-example.txt
	msgListExampleRaw string
	MsgListExample    = strings.TrimSpace(msgListExampleRaw)

	//go:embed msgs/usage-template.txt
	msgUsageTemplateRaw string
	MsgUsageTemplate    = strings.TrimSpace(msgUsageTemplateRaw) + "\n"

	//go:embed msgs/completion-long.txt
	msgCompletionLongRaw string
	MsgCompletionLong    = strings.TrimSpace(msgCompletionLongRaw)
)
