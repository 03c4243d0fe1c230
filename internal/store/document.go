package store

import (
	"encoding/json"
	"os"

	"github.com/toolgate-ai/toolgate/internal/logging"
	"github.com/toolgate-ai/toolgate/internal/rules"
	"github.com/toolgate-ai/toolgate/pkg/types"
)

// loadDocument reads an approvals document from path. It never fails:
// an absent file yields the empty default, a file that is not a JSON
// object is replaced by the default with a warning, and malformed rule
// entries are dropped individually while well-formed ones are kept.
func loadDocument(path string) *types.ApprovalsDocument {
	doc := types.NewApprovalsDocument()

	data, err := os.ReadFile(path)
	if err != nil {
		return doc
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		logging.Warn().Str("path", path).Err(err).Msg("approvals file is not a JSON object, using empty defaults")
		return doc
	}

	if raw, ok := fields["version"]; ok {
		_ = json.Unmarshal(raw, &doc.Version)
	}
	if doc.Version <= 0 {
		doc.Version = types.ApprovalsVersion
	}
	if raw, ok := fields["writeApproved"]; ok {
		_ = json.Unmarshal(raw, &doc.WriteApproved)
	}

	doc.CommandRules = parseRules(fields["commandRules"], rules.ValidCommandRule, path)
	doc.PathRules = parseRules(fields["pathRules"], rules.ValidPathRule, path)
	doc.WriteRules = parseRules(fields["writeRules"], rules.ValidPathRule, path)

	return doc
}

// parseRules decodes one rule array tolerantly: entries that are not
// well-formed rule objects with a recognized mode are dropped.
func parseRules(raw json.RawMessage, valid func(types.Rule) bool, path string) []types.Rule {
	if raw == nil {
		return nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		logging.Warn().Str("path", path).Msg("rule list is not an array, dropping it")
		return nil
	}

	var out []types.Rule
	dropped := 0
	for _, entry := range entries {
		var r types.Rule
		if err := json.Unmarshal(entry, &r); err != nil || !valid(r) {
			dropped++
			continue
		}
		out = append(out, r)
	}
	if dropped > 0 {
		logging.Warn().Str("path", path).Int("dropped", dropped).Msg("dropped malformed rule entries")
	}

	return types.DedupeRules(out)
}

// writeDocument atomically persists doc to path: serialize, write a
// temporary sibling, rename over the target. On any failure the
// original file is untouched and the temp file removed best-effort.
func writeDocument(path string, doc *types.ApprovalsDocument) error {
	if err := os.MkdirAll(dirOf(path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
