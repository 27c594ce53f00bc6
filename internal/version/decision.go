package version

import "fmt"

// Outcome is the result class of an update decision.
type Outcome int

const (
	// OutcomeUpdate means an update (or fresh install) should proceed.
	OutcomeUpdate Outcome = iota
	// OutcomeUpToDate means installed and latest match.
	OutcomeUpToDate
	// OutcomeNoTarget means no latest version could be determined, so an
	// update cannot safely proceed.
	OutcomeNoTarget
	// OutcomeInstalledNewer means the installed version is numerically newer
	// than the detected latest. A detection anomaly: warn and skip.
	OutcomeInstalledNewer
)

// Decision is the verdict for one installed/latest pair.
type Decision struct {
	Outcome Outcome
	Reason  string
}

// UpdateNeeded reports whether the workflow should proceed with an update.
func (d Decision) UpdateNeeded() bool { return d.Outcome == OutcomeUpdate }

// Decide compares the installed version against the latest available one.
// Ambiguous version strings favor attempting an update over staying stale.
func Decide(installed, latest Version) Decision {
	if installed.Kind == NotInstalled {
		return Decision{OutcomeUpdate, "no server installed, performing fresh install"}
	}
	if latest.Kind == Unknown {
		return Decision{OutcomeNoTarget, "latest version unknown, cannot update"}
	}
	if installed.Kind == Known && installed.Raw == latest.Raw {
		return Decision{OutcomeUpToDate, fmt.Sprintf("already on latest version %s", latest)}
	}
	if installed.Numeric() && latest.Numeric() {
		switch Compare(installed, latest) {
		case -1:
			return Decision{OutcomeUpdate, fmt.Sprintf("update available: %s -> %s", installed, latest)}
		case 1:
			return Decision{OutcomeInstalledNewer, fmt.Sprintf("installed %s is newer than detected latest %s", installed, latest)}
		default:
			return Decision{OutcomeUpToDate, fmt.Sprintf("already on latest version %s", latest)}
		}
	}
	// Non-standard version format on either side: attempt the update rather
	// than silently staying stale.
	return Decision{OutcomeUpdate, fmt.Sprintf("cannot compare %s and %s, updating to be safe", installed, latest)}
}
