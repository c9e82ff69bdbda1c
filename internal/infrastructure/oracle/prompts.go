package oracle

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Nyukimin/loopwalk/internal/domain/preference"
	"github.com/Nyukimin/loopwalk/internal/domain/route"
)

const preferenceSystemPrompt = `You turn a walker's request into preference weights.

Known preferences:
- cafes: wants to pass cafes or other places to stop
- parks: wants scenic or green surroundings
- safety: wants the safer streets
- low_crowd: wants quieter, less busy streets
- short_distance: wants the shortest walk

Include only the preferences the request is about, and at least one.
Each weight is a number from 0.1 (slightly relevant) to 1.0 (essential).
Reply with one JSON object mapping preference name to weight, for example {"cafes": 0.8, "low_crowd": 0.5}.`

const scoringSystemPrompt = `You rate candidate walking routes against a walker's request.

Give every route a score from 0 to 1, where higher means a better match. Weigh the nearby
points of interest, crowd density (crowd_avg, crowd_max), crime risk (safety_avg, safety_max;
higher is riskier), distance and the overall experience.

Reply with one JSON object: {"scores": [{"route_id": 0, "score": 0.7}, ...]} containing each
route_id exactly once.`

const explanationSystemPrompt = `You are a friendly urban walking guide. In two or three sentences, tell the walker
why the selected route suits their request. Mention the route's street name or summary.`

func preferencePrompt(query string) string {
	return fmt.Sprintf("Walker's request:\n%s", query)
}

func scoringPrompt(query string, prefs preference.Weights, candidates []route.Candidate) (string, error) {
	prefJSON, err := json.Marshal(prefs)
	if err != nil {
		return "", fmt.Errorf("failed to marshal preferences: %w", err)
	}
	routesJSON, err := json.Marshal(candidates)
	if err != nil {
		return "", fmt.Errorf("failed to marshal candidates: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Walker's request:\n%s\n\n", query)
	fmt.Fprintf(&b, "Inferred preferences:\n%s\n\n", prefJSON)
	fmt.Fprintf(&b, "Routes:\n%s\n", routesJSON)
	return b.String(), nil
}

func explanationPrompt(query string, chosen route.Candidate) (string, error) {
	poisJSON, err := json.Marshal(chosen.POIs)
	if err != nil {
		return "", fmt.Errorf("failed to marshal points of interest: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "The walker asked: %q\n\n", query)
	fmt.Fprintf(&b, "Selected route: %s\n", chosen.Summary)
	fmt.Fprintf(&b, "Distance: %d meters\n", chosen.DistanceM)
	fmt.Fprintf(&b, "Duration: %d seconds\n", chosen.DurationS)
	fmt.Fprintf(&b, "Points of interest along the route: %s\n", poisJSON)
	return b.String(), nil
}
