package transaction

import (
	"encoding/json"
	"fmt"
	"strings"

	gojsondiff "github.com/Kong/gojsondiff"
	"github.com/Kong/gojsondiff/formatter"

	"github.com/edwinsyarief/prefab/pkg/registry"
)

// DebugString renders a human-readable, line-oriented summary of every
// component change between the transaction's before and after worlds:
// added and removed components as one-line entries, changed components as
// an ASCII field-level delta. It is a diagnostic surface only; the
// machine-readable result is CreateDiffs. Like CreateDiffs, it mints
// EntityIDs for entities created after Begin.
func (t *Transaction) DebugString(reg *registry.Registry) (string, error) {
	var b strings.Builder
	differ := gojsondiff.New()

	for _, p := range unionEntities(t) {
		for _, d := range reg.IterDescriptors() {
			var before, after []byte
			if p.before != nil {
				before, _ = d.SerializeOne(t.beforeWorld, *p.before)
			}
			if p.after != nil {
				after, _ = d.SerializeOne(t.afterWorld, *p.after)
			}
			switch {
			case before == nil && after == nil:
			case before == nil:
				fmt.Fprintf(&b, "+ %s %s %s\n", p.id, d.TypeName, after)
			case after == nil:
				fmt.Fprintf(&b, "- %s %s\n", p.id, d.TypeName)
			default:
				delta, err := differ.Compare(before, after)
				if err != nil {
					return "", fmt.Errorf("transaction: compare %s on %s: %w", d.TypeName, p.id, err)
				}
				if !delta.Modified() {
					continue
				}
				var left map[string]interface{}
				if err := json.Unmarshal(before, &left); err != nil {
					return "", fmt.Errorf("transaction: decode %s on %s: %w", d.TypeName, p.id, err)
				}
				text, err := formatter.NewAsciiFormatter(left, formatter.AsciiFormatterConfig{}).Format(delta)
				if err != nil {
					return "", fmt.Errorf("transaction: format %s on %s: %w", d.TypeName, p.id, err)
				}
				fmt.Fprintf(&b, "~ %s %s\n%s", p.id, d.TypeName, text)
			}
		}
	}
	return b.String(), nil
}
