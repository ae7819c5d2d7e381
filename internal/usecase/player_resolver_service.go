package usecase

import (
	"context"
	"sort"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"

	"github.com/btstats/ttwarehouse/internal/domain/player"
	"github.com/btstats/ttwarehouse/internal/domain/staging"
	"github.com/btstats/ttwarehouse/internal/platform/logging"
)

// PlayerResolver reconciles staged license rows into canonical verified
// players, collapses duplicate identities, promotes unverified placeholders
// onto matching verified players and sweeps unreferenced placeholders.
type PlayerResolver struct {
	stagingRepo staging.Repository
	playerRepo  player.Repository
	logger      *logging.Logger
}

func NewPlayerResolver(stagingRepo staging.Repository, playerRepo player.Repository, logger *logging.Logger) *PlayerResolver {
	if logger == nil {
		logger = logging.Default()
	}
	return &PlayerResolver{stagingRepo: stagingRepo, playerRepo: playerRepo, logger: logger}
}

// PlayerReport tallies one reconciliation pass.
type PlayerReport struct {
	Pending  int `json:"pending"`
	Created  int `json:"created"`
	Updated  int `json:"updated"`
	Merged   int `json:"merged"`
	Promoted int `json:"promoted"`
	Orphaned int `json:"orphaned"`
	Failed   int `json:"failed"`
}

// licenseIdentity is the latest observed identity for one external player id
// across its pending license rows.
type licenseIdentity struct {
	externalID  string
	fullnameRaw string
	fullnameKey string
	clubID      *int64
}

// Resolve runs one full reconciliation pass. Rows with malformed payloads or
// license strings are counted as failed and consumed; they never block the
// rest of the batch.
func (r *PlayerResolver) Resolve(ctx context.Context) (PlayerReport, error) {
	ctx, span := startUsecaseSpan(ctx, "PlayerResolver.Resolve")
	defer span.End()

	var report PlayerReport

	rows, err := r.stagingRepo.ListPending(ctx, staging.CategoryPlayerLicenses)
	if err != nil {
		return report, errors.Wrap(err, "list pending license rows")
	}
	report.Pending = len(rows)

	identities, consumed := r.collectIdentities(ctx, rows, &report)

	if err := r.upsertVerified(ctx, identities, &report); err != nil {
		return report, err
	}
	if err := r.collapseDuplicates(ctx, &report); err != nil {
		return report, err
	}
	if err := r.promoteUnverified(ctx, &report); err != nil {
		return report, err
	}

	orphaned, err := r.playerRepo.DeleteUnreferencedUnverified(ctx)
	if err != nil {
		return report, errors.Wrap(err, "delete orphaned placeholders")
	}
	report.Orphaned = int(orphaned)

	if err := r.stagingRepo.MarkResolved(ctx, staging.CategoryPlayerLicenses, consumed); err != nil {
		return report, errors.Wrap(err, "mark license rows resolved")
	}

	r.logger.InfoContext(ctx, "player reconciliation pass finished",
		"pending", report.Pending,
		"created", report.Created,
		"updated", report.Updated,
		"merged", report.Merged,
		"promoted", report.Promoted,
		"orphaned", report.Orphaned,
		"failed", report.Failed)
	return report, nil
}

// collectIdentities decodes pending rows into one identity per external id.
// Later rows win, except that a row carrying a club never loses to one
// without (season lists repeat players with and without club columns).
func (r *PlayerResolver) collectIdentities(ctx context.Context, rows []staging.Row, report *PlayerReport) (map[string]licenseIdentity, []string) {
	identities := make(map[string]licenseIdentity)
	consumed := make([]string, 0, len(rows))

	for _, row := range rows {
		consumed = append(consumed, row.SourceKey)

		var payload staging.LicensePayload
		if err := sonic.Unmarshal(row.Payload, &payload); err != nil {
			r.logger.WarnContext(ctx, "license row payload undecodable",
				"source_key", row.SourceKey, "error", err)
			report.Failed++
			continue
		}
		if _, err := player.ParseLicenseInfo(payload.LicenseInfoRaw); err != nil {
			r.logger.WarnContext(ctx, "license info unparseable, row skipped",
				"source_key", row.SourceKey, "player_id_ext", payload.PlayerIDExt, "error", err)
			report.Failed++
			continue
		}

		fullname := sanitizedFullname(payload.Firstname, payload.Lastname)
		identity := licenseIdentity{
			externalID:  payload.PlayerIDExt,
			fullnameRaw: fullname,
			fullnameKey: nameKey(fullname),
			clubID:      payload.ClubID,
		}
		if prev, ok := identities[payload.PlayerIDExt]; ok && identity.clubID == nil {
			identity.clubID = prev.clubID
		}
		identities[payload.PlayerIDExt] = identity
	}
	return identities, consumed
}

func (r *PlayerResolver) upsertVerified(ctx context.Context, identities map[string]licenseIdentity, report *PlayerReport) error {
	extIDs := make([]string, 0, len(identities))
	for id := range identities {
		extIDs = append(extIDs, id)
	}
	sort.Strings(extIDs)

	for _, extID := range extIDs {
		identity := identities[extID]

		existing, found, err := r.playerRepo.GetByExternalID(ctx, extID)
		if err != nil {
			return errors.Wrapf(err, "lookup verified player %s", extID)
		}
		if !found {
			p := player.Player{
				IsVerified:  true,
				ExternalID:  extID,
				FullnameRaw: identity.fullnameRaw,
				FullnameKey: identity.fullnameKey,
				ClubID:      identity.clubID,
			}
			if _, err := r.playerRepo.Create(ctx, p); err != nil {
				r.logger.WarnContext(ctx, "create verified player failed",
					"player_id_ext", extID, "error", err)
				report.Failed++
				continue
			}
			report.Created++
			continue
		}

		// a clubless re-scrape never erases a known club
		if identity.clubID == nil {
			identity.clubID = existing.ClubID
		}

		if existing.FullnameKey == identity.fullnameKey &&
			existing.FullnameRaw == identity.fullnameRaw &&
			equalClubID(existing.ClubID, identity.clubID) {
			continue
		}
		existing.FullnameRaw = identity.fullnameRaw
		existing.FullnameKey = identity.fullnameKey
		existing.ClubID = identity.clubID
		if err := r.playerRepo.Update(ctx, existing); err != nil {
			r.logger.WarnContext(ctx, "update verified player failed",
				"player_id_ext", extID, "error", err)
			report.Failed++
			continue
		}
		report.Updated++
	}
	return nil
}

// collapseDuplicates merges verified players sharing an identity key. The
// lowest internal id survives so repeated passes always pick the same
// survivor.
func (r *PlayerResolver) collapseDuplicates(ctx context.Context, report *PlayerReport) error {
	verified, err := r.playerRepo.ListVerified(ctx)
	if err != nil {
		return errors.Wrap(err, "list verified players")
	}

	groups := make(map[string][]player.Player)
	for _, p := range verified {
		key := p.IdentityKey()
		groups[key] = append(groups[key], p)
	}

	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		group := groups[key]
		if len(group) < 2 {
			continue
		}
		sort.Slice(group, func(i, j int) bool { return group[i].ID < group[j].ID })

		survivor := group[0]
		loserIDs := make([]int64, 0, len(group)-1)
		for _, loser := range group[1:] {
			loserIDs = append(loserIDs, loser.ID)
		}
		if err := r.playerRepo.Merge(ctx, survivor.ID, loserIDs); err != nil {
			r.logger.WarnContext(ctx, "duplicate merge failed",
				"survivor_id", survivor.ID, "loser_ids", loserIDs, "error", err)
			report.Failed++
			continue
		}
		report.Merged += len(loserIDs)
		r.logger.InfoContext(ctx, "duplicate players merged",
			"identity_key", key, "survivor_id", survivor.ID, "loser_ids", loserIDs)
	}
	return nil
}

// promoteUnverified folds placeholder players into verified players sharing
// the same identity key, repointing their entries and match references.
func (r *PlayerResolver) promoteUnverified(ctx context.Context, report *PlayerReport) error {
	verified, err := r.playerRepo.ListVerified(ctx)
	if err != nil {
		return errors.Wrap(err, "list verified players")
	}
	byKey := make(map[string]player.Player, len(verified))
	for _, p := range verified {
		if existing, ok := byKey[p.IdentityKey()]; ok && existing.ID < p.ID {
			continue
		}
		byKey[p.IdentityKey()] = p
	}

	unverified, err := r.playerRepo.ListUnverified(ctx)
	if err != nil {
		return errors.Wrap(err, "list unverified players")
	}

	for _, placeholder := range unverified {
		target, ok := byKey[placeholder.IdentityKey()]
		if !ok {
			continue
		}
		if err := r.playerRepo.Merge(ctx, target.ID, []int64{placeholder.ID}); err != nil {
			r.logger.WarnContext(ctx, "placeholder promotion failed",
				"placeholder_id", placeholder.ID, "verified_id", target.ID, "error", err)
			report.Failed++
			continue
		}
		report.Promoted++
	}
	return nil
}

func equalClubID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
