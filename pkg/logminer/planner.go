package logminer

import (
	"context"
	"time"

	"github.com/flowbridge-data/oracle-logminer/logger"
)

// Plan is the set of redo files to register with a MiningSession for a
// given offset, built by Planner.Plan.
type Plan struct {
	Files []LogFile
}

// Planner maps an offset SCN to the online + archived redo files that must
// be registered with the mining session before Mine can proceed.
type Planner struct {
	session MiningSession
}

// NewPlanner constructs a Planner bound to session.
func NewPlanner(session MiningSession) *Planner {
	return &Planner{session: session}
}

// Plan enumerates online redo groups whose NextChange is at or past
// offsetScn (or equals maxScn, the current open-ended redo), then the
// archived logs the session lists for archiveRetention and offsetScn,
// de-duplicates by NextChange, and fails with
// ErrReSnapshotRequired when nothing qualifies.
func (p *Planner) Plan(ctx context.Context, offsetScn SCN, maxScn SCN, archiveRetention time.Duration) (Plan, error) {
	online, err := p.session.ListOnlineLogs(ctx)
	if err != nil {
		return Plan{}, err
	}

	archived, err := p.session.ListArchivedLogs(ctx, archiveRetention, offsetScn)
	if err != nil {
		return Plan{}, err
	}

	seen := make(map[SCN]struct{})
	var files []LogFile

	for _, f := range online {
		if f.NextChange < offsetScn && f.NextChange != maxScn {
			continue
		}
		if _, dup := seen[f.NextChange]; dup {
			continue
		}
		seen[f.NextChange] = struct{}{}
		files = append(files, f)
	}

	for _, f := range archived {
		if _, dup := seen[f.NextChange]; dup {
			continue
		}
		seen[f.NextChange] = struct{}{}
		files = append(files, f)
	}

	if len(files) == 0 {
		return Plan{}, ErrReSnapshotRequired
	}

	return Plan{Files: files}, nil
}

// Apply deregisters any previously-registered files, then registers every
// file in plan. Previous must be the file set returned by the last
// successful Apply (or nil on first call).
func (p *Planner) Apply(ctx context.Context, previous []string, plan Plan) ([]string, error) {
	for _, name := range previous {
		if err := p.session.DeregisterFile(ctx, name); err != nil {
			logger.Warnf("failed deregistering log file %s: %s", name, err)
		}
	}

	registered := make([]string, 0, len(plan.Files))
	for _, f := range plan.Files {
		if err := p.session.RegisterFile(ctx, f.Name); err != nil {
			return registered, err
		}
		registered = append(registered, f.Name)
	}

	return registered, nil
}
