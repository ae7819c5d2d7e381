package usecase

import (
	"context"
	"sort"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"

	"github.com/btstats/ttwarehouse/internal/domain/class"
	"github.com/btstats/ttwarehouse/internal/domain/entry"
	"github.com/btstats/ttwarehouse/internal/domain/match"
	"github.com/btstats/ttwarehouse/internal/domain/player"
	"github.com/btstats/ttwarehouse/internal/domain/staging"
	"github.com/btstats/ttwarehouse/internal/platform/logging"
)

// placeholderFullname names the shared unverified player that vacancy and
// walkover sides point at.
const placeholderFullname = "Vakant"

// MatchResolver normalizes staged match rows. A class whose staging data
// changed is re-normalized as a whole: its entire match set is rebuilt and
// swapped in atomically, so partial scrapes never leave a class half old,
// half new.
type MatchResolver struct {
	stagingRepo staging.Repository
	classRepo   class.Repository
	entryRepo   entry.Repository
	playerRepo  player.Repository
	matchRepo   match.Repository
	logger      *logging.Logger
}

func NewMatchResolver(
	stagingRepo staging.Repository,
	classRepo class.Repository,
	entryRepo entry.Repository,
	playerRepo player.Repository,
	matchRepo match.Repository,
	logger *logging.Logger,
) *MatchResolver {
	if logger == nil {
		logger = logging.Default()
	}
	return &MatchResolver{
		stagingRepo: stagingRepo,
		classRepo:   classRepo,
		entryRepo:   entryRepo,
		playerRepo:  playerRepo,
		matchRepo:   matchRepo,
		logger:      logger,
	}
}

// MatchReport tallies one match normalization pass.
type MatchReport struct {
	Pending     int `json:"pending"`
	Classes     int `json:"classes"`
	Matches     int `json:"matches"`
	Skipped     int `json:"skipped"`
	Synthesized int `json:"synthesized"`
	Unresolved  int `json:"unresolved"`
	Failed      int `json:"failed"`
}

type stagedMatch struct {
	sourceKey string
	payload   staging.MatchPayload
}

func (r *MatchResolver) Resolve(ctx context.Context) (MatchReport, error) {
	ctx, span := startUsecaseSpan(ctx, "MatchResolver.Resolve")
	defer span.End()

	var report MatchReport

	pending, err := r.stagingRepo.ListPending(ctx, staging.CategoryMatches)
	if err != nil {
		return report, errors.Wrap(err, "list pending match rows")
	}
	report.Pending = len(pending)
	if len(pending) == 0 {
		return report, nil
	}

	consumed := make([]string, 0, len(pending))

	// A changed row dirties its whole class; every row of a dirty class is
	// re-normalized so the rebuilt match set is complete.
	dirtyClasses := make(map[string]struct{})
	for _, row := range pending {
		var payload staging.MatchPayload
		if err := sonic.Unmarshal(row.Payload, &payload); err != nil {
			r.logger.WarnContext(ctx, "match row payload undecodable",
				"source_key", row.SourceKey, "error", err)
			report.Failed++
			consumed = append(consumed, row.SourceKey)
			continue
		}
		dirtyClasses[payload.ClassIDExt] = struct{}{}
	}

	allRows, err := r.stagingRepo.ListAll(ctx, staging.CategoryMatches)
	if err != nil {
		return report, errors.Wrap(err, "list match rows")
	}
	byClass := make(map[string][]stagedMatch)
	for _, row := range allRows {
		var payload staging.MatchPayload
		if err := sonic.Unmarshal(row.Payload, &payload); err != nil {
			continue
		}
		if _, dirty := dirtyClasses[payload.ClassIDExt]; !dirty {
			continue
		}
		byClass[payload.ClassIDExt] = append(byClass[payload.ClassIDExt], stagedMatch{
			sourceKey: row.SourceKey,
			payload:   payload,
		})
	}

	directory, err := loadPlayerDirectory(ctx, r.playerRepo)
	if err != nil {
		return report, err
	}

	classExts := make([]string, 0, len(byClass))
	for ext := range byClass {
		classExts = append(classExts, ext)
	}
	sort.Strings(classExts)

	for _, classExt := range classExts {
		staged := byClass[classExt]

		cls, found, err := r.classRepo.GetByExternalID(ctx, classExt)
		if err != nil {
			return report, errors.Wrapf(err, "lookup class %s", classExt)
		}
		if !found {
			// class may arrive in a later scrape; rows stay pending
			report.Unresolved += len(staged)
			continue
		}

		classConsumed, err := r.resolveClass(ctx, cls, staged, directory, &report)
		if err != nil {
			r.logger.ErrorContext(ctx, "class match normalization failed",
				"class_id_ext", classExt, "error", err)
			report.Failed += len(staged)
			continue
		}
		consumed = append(consumed, classConsumed...)
		report.Classes++
	}

	if err := r.stagingRepo.MarkResolved(ctx, staging.CategoryMatches, consumed); err != nil {
		return report, errors.Wrap(err, "mark match rows resolved")
	}

	r.logger.InfoContext(ctx, "match normalization pass finished",
		"pending", report.Pending,
		"classes", report.Classes,
		"matches", report.Matches,
		"skipped", report.Skipped,
		"synthesized", report.Synthesized,
		"unresolved", report.Unresolved,
		"failed", report.Failed)
	return report, nil
}

// resolveClass rebuilds one class's matches and swaps them in. Rows held
// back by unresolvable sides are excluded from consumption so the next pass
// retries them.
func (r *MatchResolver) resolveClass(
	ctx context.Context,
	cls class.TournamentClass,
	staged []stagedMatch,
	directory *playerDirectory,
	report *MatchReport,
) ([]string, error) {
	roster, err := loadClassRoster(ctx, r.entryRepo, directory, cls.ID)
	if err != nil {
		return nil, err
	}

	sort.Slice(staged, func(i, j int) bool { return staged[i].sourceKey < staged[j].sourceKey })

	bundles := make([]match.Bundle, 0, len(staged))
	consumed := make([]string, 0, len(staged))

	for _, sm := range staged {
		bundle, outcome, err := r.resolveMatch(ctx, cls, sm.payload, directory, roster, report)
		if err != nil {
			return nil, err
		}
		switch outcome {
		case matchResolved:
			bundles = append(bundles, bundle)
			consumed = append(consumed, sm.sourceKey)
		case matchSkipped, matchFailed:
			consumed = append(consumed, sm.sourceKey)
		case matchHeldBack:
			report.Unresolved++
		}
	}

	if _, err := r.matchRepo.ReplaceForClass(ctx, cls.ID, bundles); err != nil {
		return nil, errors.Wrapf(err, "replace matches for class %s", cls.ExternalID)
	}
	report.Matches += len(bundles)
	return consumed, nil
}

type matchOutcome int

const (
	matchResolved matchOutcome = iota
	matchSkipped
	matchFailed
	matchHeldBack
)

func (r *MatchResolver) resolveMatch(
	ctx context.Context,
	cls class.TournamentClass,
	payload staging.MatchPayload,
	directory *playerDirectory,
	roster *classRoster,
	report *MatchReport,
) (match.Bundle, matchOutcome, error) {
	// doubles rows carry two names per side; singles normalization only
	if strings.Contains(payload.Side1Name, "/") || strings.Contains(payload.Side2Name, "/") {
		report.Skipped++
		return match.Bundle{}, matchSkipped, nil
	}

	ph1 := match.IsPlaceholderName(payload.Side1Name)
	ph2 := match.IsPlaceholderName(payload.Side2Name)
	if ph1 && ph2 {
		// neither side is a real person, nothing worth keeping
		report.Skipped++
		return match.Bundle{}, matchSkipped, nil
	}

	side1, ok1, err := r.resolveSide(ctx, cls, payload.Side1Name, payload.Side1ClubID, ph1, directory, roster, report)
	if err != nil {
		return match.Bundle{}, matchFailed, err
	}
	side2, ok2, err := r.resolveSide(ctx, cls, payload.Side2Name, payload.Side2ClubID, ph2, directory, roster, report)
	if err != nil {
		return match.Bundle{}, matchFailed, err
	}
	if !ok1 || !ok2 {
		r.logger.DebugContext(ctx, "match held back, side unresolved",
			"class_id_ext", cls.ExternalID,
			"match_id_ext", payload.MatchIDExt,
			"side1", payload.Side1Name, "side1_resolved", ok1,
			"side2", payload.Side2Name, "side2_resolved", ok2)
		return match.Bundle{}, matchHeldBack, nil
	}

	m := match.Match{
		ClassID:    cls.ID,
		ExternalID: payload.MatchIDExt,
		Stage:      strings.TrimSpace(payload.Stage),
		BestOf:     payload.BestOf,
		Date:       cls.StartDate,
	}

	var games []match.Game
	tokens := strings.TrimSpace(payload.ScoreTokens)
	if tokens != "" {
		line, parseErr := match.ParseScoreTokens(tokens, payload.BestOf)
		if parseErr != nil {
			r.logger.WarnContext(ctx, "match score unparseable",
				"class_id_ext", cls.ExternalID, "match_id_ext", payload.MatchIDExt,
				"score_tokens", payload.ScoreTokens, "error", parseErr)
			report.Failed++
			return match.Bundle{}, matchFailed, nil
		}
		games = line.Games
		m.WinnerSide = line.WinnerSide
		m.WalkoverSide = line.WalkoverSide

		// a bare WO names no side; exactly one placeholder side tells us who
		// forfeited
		if strings.EqualFold(tokens, "WO") && m.WinnerSide == nil {
			switch {
			case ph1 != ph2:
				wo := 1
				if ph2 {
					wo = 2
				}
				winner := 3 - wo
				m.WalkoverSide = &wo
				m.WinnerSide = &winner
			default:
				r.logger.WarnContext(ctx, "walkover direction undecidable",
					"class_id_ext", cls.ExternalID, "match_id_ext", payload.MatchIDExt)
			}
		}
	}

	bundle := match.Bundle{
		Match: m,
		Games: games,
		Sides: []match.Side{
			{SideNo: 1, EntryID: side1.entry.ID},
			{SideNo: 2, EntryID: side2.entry.ID},
		},
		Players: []match.Player{
			{SideNo: 1, PlayerID: side1.playerID, PlayerOrder: 1, ClubID: payload.Side1ClubID},
			{SideNo: 2, PlayerID: side2.playerID, PlayerOrder: 1, ClubID: payload.Side2ClubID},
		},
	}
	return bundle, matchResolved, nil
}

type resolvedSide struct {
	entry    entry.Entry
	playerID int64
}

// resolveSide maps one scraped side name to an entry in the class. Real
// names resolve through the roster first, then through global player
// identity plus sibling synthesis; placeholders share one synthetic entry.
func (r *MatchResolver) resolveSide(
	ctx context.Context,
	cls class.TournamentClass,
	rawName string,
	clubID *int64,
	isPlaceholder bool,
	directory *playerDirectory,
	roster *classRoster,
	report *MatchReport,
) (resolvedSide, bool, error) {
	if isPlaceholder {
		e, p, err := r.ensurePlaceholderEntry(ctx, cls.ID, directory, roster)
		if err != nil {
			return resolvedSide{}, false, err
		}
		return resolvedSide{entry: e, playerID: p.ID}, true, nil
	}

	if e, playerID, ok := roster.find(rawName, clubID); ok {
		return resolvedSide{entry: e, playerID: playerID}, true, nil
	}

	p, _, ok := directory.Resolve(rawName, clubID)
	if !ok {
		return resolvedSide{}, false, nil
	}
	if e, ok := roster.byPlayer[p.ID]; ok {
		return resolvedSide{entry: e, playerID: p.ID}, true, nil
	}

	// the player exists but never registered in this class; a consolation
	// bracket inherits its field from the parent class
	if cls.ParentID == nil {
		return resolvedSide{}, false, nil
	}
	parentEntry, found, err := r.entryRepo.GetByClassAndPlayer(ctx, *cls.ParentID, p.ID)
	if err != nil {
		return resolvedSide{}, false, errors.Wrapf(err, "lookup parent entry for player %d", p.ID)
	}
	if !found {
		return resolvedSide{}, false, nil
	}

	synthetic := entry.Entry{
		ClassID:     cls.ID,
		PlayerID:    p.ID,
		ClubID:      parentEntry.ClubID,
		IsSynthetic: true,
	}
	id, err := r.entryRepo.Upsert(ctx, synthetic)
	if err != nil {
		return resolvedSide{}, false, errors.Wrapf(err, "create synthetic entry for player %d", p.ID)
	}
	synthetic.ID = id
	roster.add(synthetic, p)
	report.Synthesized++
	r.logger.InfoContext(ctx, "synthetic entry created from parent class",
		"class_id_ext", cls.ExternalID, "player_id", p.ID)
	return resolvedSide{entry: synthetic, playerID: p.ID}, true, nil
}

// ensurePlaceholderEntry returns the class's shared placeholder entry,
// creating the placeholder player and a synthetic entry on first use.
func (r *MatchResolver) ensurePlaceholderEntry(
	ctx context.Context,
	classID int64,
	directory *playerDirectory,
	roster *classRoster,
) (entry.Entry, player.Player, error) {
	p, _, err := directory.ResolveOrCreate(ctx, placeholderFullname, nil)
	if err != nil {
		return entry.Entry{}, player.Player{}, err
	}
	if e, ok := roster.byPlayer[p.ID]; ok {
		return e, p, nil
	}

	e := entry.Entry{ClassID: classID, PlayerID: p.ID, IsSynthetic: true}
	id, err := r.entryRepo.Upsert(ctx, e)
	if err != nil {
		return entry.Entry{}, player.Player{}, errors.Wrap(err, "create placeholder entry")
	}
	e.ID = id
	roster.add(e, p)
	return e, p, nil
}

// classRoster indexes a class's entries by player id and by every name-key
// orientation of the entered players.
type classRoster struct {
	byPlayer map[int64]entry.Entry
	byKey    map[string][]int64
}

func loadClassRoster(ctx context.Context, repo entry.Repository, directory *playerDirectory, classID int64) (*classRoster, error) {
	entries, err := repo.ListByClass(ctx, classID)
	if err != nil {
		return nil, errors.Wrapf(err, "list entries for class %d", classID)
	}

	roster := &classRoster{
		byPlayer: make(map[int64]entry.Entry, len(entries)),
		byKey:    make(map[string][]int64),
	}
	for _, e := range entries {
		p, ok := directory.Get(e.PlayerID)
		if !ok {
			continue
		}
		roster.add(e, p)
	}
	return roster, nil
}

func (r *classRoster) add(e entry.Entry, p player.Player) {
	r.byPlayer[p.ID] = e
	for _, key := range nameKeysOf(p.FullnameRaw) {
		r.byKey[key] = append(r.byKey[key], p.ID)
	}
}

// find matches a scraped name against the roster. Multiple candidates are
// narrowed by club; anything still ambiguous abstains.
func (r *classRoster) find(rawName string, clubID *int64) (entry.Entry, int64, bool) {
	seen := make(map[int64]struct{})
	var candidates []int64
	for _, key := range nameKeysOf(rawName) {
		for _, id := range r.byKey[key] {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			candidates = append(candidates, id)
		}
	}

	if len(candidates) > 1 && clubID != nil {
		narrowed := candidates[:0]
		for _, id := range candidates {
			if e := r.byPlayer[id]; equalClubID(e.ClubID, clubID) {
				narrowed = append(narrowed, id)
			}
		}
		candidates = narrowed
	}
	if len(candidates) != 1 {
		return entry.Entry{}, 0, false
	}
	id := candidates[0]
	return r.byPlayer[id], id, true
}
