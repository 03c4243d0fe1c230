package approval

import (
	"errors"

	"github.com/toolgate-ai/toolgate/internal/rules"
	"github.com/toolgate-ai/toolgate/internal/state"
	"github.com/toolgate-ai/toolgate/pkg/types"
)

// Legacy flat-store keys from releases that kept approval state in
// the process key-value store instead of config documents.
const (
	legacyKeyCommandRules  = "commandRules"
	legacyKeyPathRules     = "pathRules"
	legacyKeyWriteRules    = "writeRules"
	legacyKeyWriteApproved = "writeApproved"
	legacyKeySessions      = "sessions"
	legacyKeyMigrated      = "approvalsMigrated"
)

// MigrateFromGlobalState merges approval data from the legacy store
// into the global config document, then clears the legacy keys. A
// persisted done-flag makes repeat calls no-ops, so crashing between
// steps is safe: the flag is written only after the merge persisted.
func (e *Engine) MigrateFromGlobalState(legacy *state.Store) error {
	var migrated bool
	if err := legacy.Get(legacyKeyMigrated, &migrated); err == nil && migrated {
		return nil
	}

	commandRules := readLegacyRules(legacy, legacyKeyCommandRules, rules.ValidCommandRule)
	pathRules := readLegacyRules(legacy, legacyKeyPathRules, rules.ValidPathRule)
	writeRules := readLegacyRules(legacy, legacyKeyWriteRules, rules.ValidPathRule)

	var writeApproved bool
	if err := legacy.Get(legacyKeyWriteApproved, &writeApproved); err != nil && !errors.Is(err, state.ErrNotFound) {
		writeApproved = false
	}

	hasData := writeApproved ||
		len(commandRules) > 0 || len(pathRules) > 0 || len(writeRules) > 0

	if hasData {
		err := e.store.PersistGlobal(func(d *types.ApprovalsDocument) {
			d.WriteApproved = d.WriteApproved || writeApproved
			d.CommandRules = types.DedupeRules(append(d.CommandRules, commandRules...))
			d.PathRules = types.DedupeRules(append(d.PathRules, pathRules...))
			d.WriteRules = types.DedupeRules(append(d.WriteRules, writeRules...))
		})
		if err != nil {
			return err
		}
		e.log.Info().
			Int("commandRules", len(commandRules)).
			Int("pathRules", len(pathRules)).
			Int("writeRules", len(writeRules)).
			Msg("migrated legacy approval state")
	}

	if err := legacy.Delete(
		legacyKeyCommandRules,
		legacyKeyPathRules,
		legacyKeyWriteRules,
		legacyKeyWriteApproved,
		legacyKeySessions,
	); err != nil {
		return err
	}
	return legacy.Set(legacyKeyMigrated, true)
}

// readLegacyRules loads one legacy rule list, dropping entries that
// are not well-formed. Unreadable keys contribute nothing.
func readLegacyRules(legacy *state.Store, key string, valid func(types.Rule) bool) []types.Rule {
	var stored []types.Rule
	if err := legacy.Get(key, &stored); err != nil {
		return nil
	}
	out := stored[:0:0]
	for _, r := range stored {
		if valid(r) {
			out = append(out, r)
		}
	}
	return types.DedupeRules(out)
}
