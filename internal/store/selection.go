package store

// toggleSelection flips membership of id. Unlike a plain set toggle it
// checks existence: ids that are not in the collection are ignored, so the
// selection only ever names live files.
func (r *Reducer) toggleSelection(s State, id string) State {
	if _, ok := s.index[id]; !ok {
		r.logger.Debug("selection of unknown file ignored", "file_id", id)
		return s
	}
	sel := s.copySelection()
	if _, ok := sel[id]; ok {
		delete(sel, id)
	} else {
		sel[id] = struct{}{}
	}
	return s.withSelection(sel)
}

// selectAll replaces the selection with the visible files only, so an
// active search or filter limits what gets selected.
func (r *Reducer) selectAll(s State) State {
	visible := s.Visible()
	sel := make(map[string]struct{}, len(visible))
	for _, f := range visible {
		sel[f.ID] = struct{}{}
	}
	return s.withSelection(sel)
}
