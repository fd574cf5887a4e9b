package lastcommit

import (
	"fmt"
	"time"

	"github.com/rohitmondal03/amplication/internal/buildsummary"
	"github.com/rohitmondal03/amplication/internal/models"
)

// ClassName is the base style class of the view.
const ClassName = "last-commit"

// ViewModel is the render output of a View. When Empty is true nothing is shown
// and every other field is zero.
type ViewModel struct {
	Empty          bool
	ClassNames     []string
	Generating     bool
	ErrorText      string
	CommitID       CommitIDSection
	UserAndTime    UserAndTimeSection
	BuildHeader    *BuildHeaderSection
	BuildSummary   *buildsummary.Summary
	PendingChanges PendingChangesSection
}

// CommitIDSection is the clickable commit id, optionally wrapped in a tooltip.
type CommitIDSection struct {
	ID         string
	ShortID    string
	Label      string
	Link       string
	EventName  string
	Tooltip    string
	HasTooltip bool
	Skeleton   bool
}

// UserAndTimeSection shows who committed and when.
type UserAndTimeSection struct {
	Account *models.Account
	Time    time.Time
	Loading bool
}

// BuildHeaderSection shows the build id, version and status.
type BuildHeaderSection struct {
	Build    *models.Build
	IsError  bool
	Skeleton bool
}

// PendingChangesSection links to the pending changes of the resource.
type PendingChangesSection struct {
	ResourceID string
}

// CommitLink returns the navigation target of a commit of a resource.
func CommitLink(resourceID, commitID string) string {
	return fmt.Sprintf("/%s/commits/%s", resourceID, commitID)
}

// Render derives the view model from the current state.
func (v *View) Render() ViewModel {
	lastCommit := v.LastCommit()
	if lastCommit == nil {
		return ViewModel{Empty: true}
	}
	build := lastCommit.LatestBuild()

	v.mu.Lock()
	app := v.app
	v.mu.Unlock()
	generating := app.CommitRunning

	vm := ViewModel{
		ClassNames: []string{ClassName},
		Generating: generating,
		ErrorText:  v.ErrorMessage(),
		CommitID: CommitIDSection{
			ID:        lastCommit.ID,
			ShortID:   lastCommit.ShortID(),
			Label:     "Last commit",
			Link:      CommitLink(v.resourceID, lastCommit.ID),
			EventName: "lastCommitIdClick",
			Skeleton:  generating,
		},
		UserAndTime: UserAndTimeSection{
			Time:    lastCommit.CreatedAt,
			Loading: generating,
		},
		PendingChanges: PendingChangesSection{ResourceID: v.resourceID},
	}
	if generating {
		vm.ClassNames = append(vm.ClassNames, ClassName+"__generating")
	}
	if lastCommit.Message != "" {
		vm.CommitID.Tooltip = lastCommit.Message
		vm.CommitID.HasTooltip = true
	}
	if lastCommit.User != nil {
		vm.UserAndTime.Account = lastCommit.User.Account
	}

	if build != nil {
		vm.BuildHeader = &BuildHeaderSection{
			Build:    build,
			IsError:  app.PendingChangesIsError,
			Skeleton: generating,
		}
		summary := buildsummary.Summarize(build, generating, v.now())
		vm.BuildSummary = &summary
	}

	return vm
}
