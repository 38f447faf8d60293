package manager

import (
	"github.com/1broseidon/deskwm/internal/geometry"
	"github.com/1broseidon/deskwm/internal/window"
)

// EdgeAction is what a desktop click did.
type EdgeAction string

const (
	EdgeActionNone     EdgeAction = "none"
	EdgeActionHidden   EdgeAction = "hidden"
	EdgeActionRestored EdgeAction = "restored"
)

// EdgeResult lists the windows a desktop click moved.
type EdgeResult struct {
	Action EdgeAction `json:"action"`
	IDs    []string   `json:"ids"`
}

// ToggleEdgeHide handles a click on empty desktop space. When any window is
// edge-hidden, all of them return to their remembered position and are
// raised. Otherwise every visible, non-minimized, non-maximized window
// slides mostly off its nearest desktop-area edge. Either way the whole
// group changes in one store commit.
func (m *Manager) ToggleEdgeHide() EdgeResult {
	area := m.DesktopArea()
	res := EdgeResult{Action: EdgeActionNone}

	m.store.Batch(func(tx *window.Tx) {
		records := tx.Records()

		for _, r := range records {
			if !r.EdgeHidden || r.PreHidePosition == nil {
				continue
			}
			pos := *r.PreHidePosition
			edge := geometry.EdgeNone
			tx.Update(r.ID, window.Patch{
				Position:             &pos,
				EdgeHidden:           window.Bool(false),
				ClearPreHidePosition: true,
				HiddenEdge:           &edge,
			})
			tx.BringToFront(r.ID)
			res.Action = EdgeActionRestored
			res.IDs = append(res.IDs, r.ID)
		}
		if res.Action == EdgeActionRestored {
			return
		}

		for _, r := range records {
			if !r.Visible || r.Minimized || r.Maximized {
				continue
			}
			original := r.Position
			pos, edge := geometry.EdgeHidePosition(r.Rect(), area, m.chrome.EdgeMargin)
			tx.Update(r.ID, window.Patch{
				Position:        &pos,
				EdgeHidden:      window.Bool(true),
				PreHidePosition: &original,
				HiddenEdge:      &edge,
			})
			res.Action = EdgeActionHidden
			res.IDs = append(res.IDs, r.ID)
		}
	})

	switch res.Action {
	case EdgeActionRestored:
		m.fragment.Set(res.IDs[len(res.IDs)-1])
		m.logger.Debug("edge-hidden windows restored", "count", len(res.IDs))
	case EdgeActionHidden:
		m.logger.Debug("windows hidden at edges", "count", len(res.IDs))
	}
	return res
}
