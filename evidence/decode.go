package evidence

import (
	"encoding/json"
	"log/slog"
)

// DecodeBundle parses a JSON evidence bundle. Individual malformed sections
// degrade to nil rather than failing the whole decode: the outer document
// must be a JSON object, but each evidence kind is decoded independently.
func DecodeBundle(data []byte, logger *slog.Logger) (*Bundle, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	b := &Bundle{}
	decode := func(key string, dst any) bool {
		section, ok := raw[key]
		if !ok || len(section) == 0 {
			return false
		}
		if err := json.Unmarshal(section, dst); err != nil {
			logger.Warn("evidence: malformed section ignored", "section", key, "error", err)
			return false
		}
		return true
	}

	decode("page_url", &b.PageURL)
	decode("page_id", &b.PageID)
	decode("page_html", &b.PageHTML)
	decode("structure", &b.Structure)
	decode("components", &b.Components)
	decode("states", &b.States)
	decode("a11y", &b.A11y)
	decode("viewports", &b.Viewports)
	decode("sections", &b.Sections)
	decode("tokens", &b.Tokens)

	return b, nil
}

// Validate drops structurally unusable entries in place: component
// detections without a selector, state matrix rows without states, viewport
// snapshots without a width. Dropping is silent: invalid evidence
// contributes nothing.
func (b *Bundle) Validate() {
	if b.Components != nil {
		for typ, dets := range b.Components.Components {
			kept := dets[:0]
			for _, d := range dets {
				if d.Selector != "" {
					kept = append(kept, d)
				}
			}
			if len(kept) == 0 {
				delete(b.Components.Components, typ)
			} else {
				b.Components.Components[typ] = kept
			}
		}
	}

	if b.States != nil && b.States.Captured != nil {
		for sel, es := range b.States.Captured.States {
			if sel == "" || len(es.States) == 0 {
				delete(b.States.Captured.States, sel)
			}
		}
	}

	for name, vp := range b.Viewports {
		if vp == nil || vp.Viewport.Width <= 0 {
			delete(b.Viewports, name)
		}
	}
}
