package engine

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/fntelecomllc/zonepipe/internal/errs"
	"github.com/fntelecomllc/zonepipe/internal/hashindex"
	"github.com/fntelecomllc/zonepipe/internal/units"
	"github.com/fntelecomllc/zonepipe/internal/zonefs"
)

// PromoteStagingToCurated runs the Staging→Curated whole-artifact
// promotion algorithm: invoke the cleaner to produce a candidate
// artifact in Staging, compare its digest against the current Curated
// artifact, and either report a no-op (the candidate stays in Staging
// untouched) or archive the prior
// Curated artifact and atomically rename the candidate into place. A
// failure here is service-local: callers iterating multiple services
// must not let one Failed outcome abort the others.
func (e *Engine) PromoteStagingToCurated(ctx context.Context, service string, cleaner units.Cleaner, timeout time.Duration) (StagingToCuratedOutcome, error) {
	if cleaner.Role() != units.RoleStagingToCurated {
		return StagingToCuratedOutcome{}, errs.New(errs.CleanerError, service, cleaner.Name(), "cleaner role mismatch for staging2curated invocation", nil)
	}
	if err := e.layout.EnsureZone(zonefs.Curated, service); err != nil {
		return StagingToCuratedOutcome{}, err
	}
	if err := e.layout.EnsureZone(zonefs.Archive, service); err != nil {
		return StagingToCuratedOutcome{}, err
	}

	inputs, err := e.layout.ListFiles(zonefs.Staging, service, cleaner.InputGlob())
	if err != nil {
		return StagingToCuratedOutcome{}, err
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := cleaner.Clean(runCtx, inputs)
	if err != nil {
		e.logger.Warn("staging2curated: clean failed", zap.String("service", service), zap.Error(err))
		return StagingToCuratedOutcome{Service: service, Kind: units.Failed, Reason: err.Error()}, nil
	}
	if len(result.Outcomes) == 0 {
		return StagingToCuratedOutcome{Service: service, Kind: units.Skipped, Reason: "no candidate artifact produced"}, nil
	}

	candidate := result.Outcomes[0]
	if candidate.Kind == units.Failed || candidate.Output == "" {
		return StagingToCuratedOutcome{Service: service, Kind: units.Failed, Reason: candidate.Reason}, nil
	}

	candidatePath := e.layout.PathFor(zonefs.Staging, service, candidate.Output)
	candidateDigest, err := hashindex.DigestFile(candidatePath)
	if err != nil {
		return StagingToCuratedOutcome{Service: service, Kind: units.Failed, Reason: err.Error()}, nil
	}

	curatedPath := e.layout.PathFor(zonefs.Curated, service, candidate.Output)
	indexPath := e.layout.HashIndexPath(zonefs.Curated, service)
	idx, err := hashindex.Load(indexPath)
	if err != nil {
		return StagingToCuratedOutcome{}, err
	}

	if existing, ok := idx[candidate.Output]; ok && existing == candidateDigest {
		return StagingToCuratedOutcome{Service: service, Kind: units.Skipped, Curated: candidate.Output, Reason: "curated artifact unchanged"}, nil
	}

	var archivedBasename string
	if _, statErr := os.Stat(curatedPath); statErr == nil {
		stem, ext := zonefs.StripExt(candidate.Output)
		archivedBasename = zonefs.ArchiveBasename(stem, e.now(), ext)
		archivePath := filepath.Join(e.layout.ZoneRoot(zonefs.Archive), service, archivedBasename)
		if err := os.MkdirAll(filepath.Dir(archivePath), 0o755); err != nil {
			return StagingToCuratedOutcome{}, errs.New(errs.PathError, service, "", "create archive dir", err)
		}
		if err := os.Rename(curatedPath, archivePath); err != nil {
			if copyErr := copyFile(curatedPath, archivePath); copyErr != nil {
				return StagingToCuratedOutcome{}, errs.New(errs.PathError, service, "", "archive prior curated artifact", copyErr)
			}
			os.Remove(curatedPath)
		}
	}

	if err := os.Rename(candidatePath, curatedPath); err != nil {
		if copyErr := copyFile(candidatePath, curatedPath); copyErr != nil {
			return StagingToCuratedOutcome{}, errs.New(errs.PathError, service, "", "place candidate curated artifact", copyErr)
		}
		os.Remove(candidatePath)
	}

	idx[candidate.Output] = candidateDigest
	if err := hashindex.Save(indexPath, idx); err != nil {
		return StagingToCuratedOutcome{}, err
	}

	if archivedBasename != "" {
		if err := e.appendManifest(service, candidate.Output, archivedBasename); err != nil {
			e.logger.Warn("staging2curated: manifest append failed", zap.String("service", service), zap.Error(err))
		}
	}

	return StagingToCuratedOutcome{
		Service:  service,
		Kind:     units.Promoted,
		Archived: archivedBasename,
		Curated:  candidate.Output,
	}, nil
}
