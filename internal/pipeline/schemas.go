package pipeline

import "google.golang.org/genai"

// Static schema descriptors handed to the generation service so it constrains
// decoding to our output types. Optional fields are simply absent from
// Required; the extraction prompt instructs the model to omit what the source
// does not state.

func stringSchema(desc string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: desc}
}

func stringListSchema(desc string) *genai.Schema {
	return &genai.Schema{
		Type:        genai.TypeArray,
		Description: desc,
		Items:       &genai.Schema{Type: genai.TypeString},
	}
}

var winnerSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"place":       stringSchema("Placement, e.g. 1st, 2nd, Runner-up"),
		"prize_money": stringSchema("Prize amount as stated, currency included"),
		"team_name":   stringSchema("Winning team name"),
		"members":     stringListSchema("Names of the team members"),
	},
}

var factsSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"event_title":  stringSchema("Title of the event"),
		"date":         stringSchema("Date or date range of the event as stated"),
		"venue":        stringSchema("Venue or platform where the event took place"),
		"speaker_name": stringSchema("Name of the speaker or resource person"),
		"attendance_count": {
			Type:        genai.TypeInteger,
			Description: "Number of attendees, only if explicitly stated",
		},
		"volunteer_count": {
			Type:        genai.TypeInteger,
			Description: "Number of volunteers, only if explicitly stated",
		},
		"organizer": stringSchema("Organizing body named in the source"),
		"mode": {
			Type:        genai.TypeString,
			Description: "How the event was conducted",
			Enum:        []string{"Online", "Offline", "Hybrid"},
		},
		"target_audience":      stringSchema("Intended audience of the event"),
		"agenda":               stringSchema("Agenda or session flow"),
		"media_link":           stringSchema("Link to photos or recordings"),
		"student_coordinators": stringListSchema("Student coordinator names"),
		"faculty_coordinators": stringListSchema("Faculty coordinator names"),
		"judges":               stringListSchema("Judge names"),
		"winners": {
			Type:        genai.TypeArray,
			Description: "Competition placements, if any",
			Items:       winnerSchema,
		},
	},
}

var narrativeSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"executive_summary": stringSchema("Formal prose summary of the event"),
		"key_takeaways":     stringListSchema("Bullet-point takeaways"),
		"hashtags":          stringListSchema("Social media hashtags, # included"),
	},
	Required: []string{"executive_summary"},
}

var verdictSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"is_safe": {
			Type:        genai.TypeBoolean,
			Description: "Whether the report is consistent with the source text",
		},
		"confidence": {
			Type:        genai.TypeNumber,
			Description: "Confidence in the judgment, 0 to 1",
		},
		"issues":    stringListSchema("Specific inconsistencies found, empty when safe"),
		"reasoning": stringSchema("Short explanation of the judgment"),
	},
	Required: []string{"is_safe", "confidence", "reasoning"},
}
