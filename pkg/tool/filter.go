package tool

// FilterModels returns the subset of models reachable from the given tools:
// everything named by a body_model or response_model, plus every model
// referenced transitively through field type strings. The input map is never
// mutated; the result is a derived copy.
func FilterModels(tools []Tool, models Models) Models {
	if len(models) == 0 {
		return Models{}
	}

	queue := make([]string, 0, len(tools)*2)
	for i := range tools {
		if tools[i].BodyModel != "" {
			queue = append(queue, tools[i].BodyModel)
		}
		if tools[i].ResponseModel != "" {
			queue = append(queue, tools[i].ResponseModel)
		}
	}

	reachable := make(map[string]bool, len(queue))
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if reachable[name] {
			continue
		}
		fields, ok := models[name]
		if !ok {
			// Dangling references surface later as generator
			// consistency errors; the filter just skips them.
			continue
		}
		reachable[name] = true
		for pair := fields.Oldest(); pair != nil; pair = pair.Next() {
			inner := Unwrap(pair.Value)
			if _, isModel := models[inner]; isModel {
				queue = append(queue, inner)
			}
		}
	}

	filtered := make(Models, len(reachable))
	for name := range reachable {
		filtered[name] = models[name]
	}
	return filtered
}
